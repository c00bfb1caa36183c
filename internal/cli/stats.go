package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/hearsaybot/hearsay"
	"github.com/hearsaybot/hearsay/internal/config"
)

func (c *CLI) newStatsCommand() *cobra.Command {
	var database string

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show per-chat training statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := hearsay.Open(database)
			if err != nil {
				return err
			}
			defer func() { _ = svc.Close() }()

			stats, err := svc.Stats(cmd.Context())
			if err != nil {
				return err
			}
			if len(stats) == 0 {
				fmt.Println("No chats trained yet.")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
			fmt.Fprintln(w, "CHAT\tOWNERS\tCONTEXTS\tTRANSITIONS")
			for _, st := range stats {
				fmt.Fprintf(w, "%s\t%d\t%d\t%d\n", st.ChatID, st.Owners, st.Contexts, st.Transitions)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&database, "db", config.Default().Database, "Database directory")
	return cmd
}
