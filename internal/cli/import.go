package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hearsaybot/hearsay"
	"github.com/hearsaybot/hearsay/internal/config"
)

func (c *CLI) newImportCommand() *cobra.Command {
	var database string
	var chatID int64

	cmd := &cobra.Command{
		Use:   "import [files...]",
		Short: "Train chains from Telegram chat export files",
		Args:  cobra.MinimumNArgs(1),
		Example: `  # Import a JSON export (chat ID comes from the file)
  hearsay import result.json

  # Import HTML exports into a specific chat
  hearsay import --chat -1001234 messages.html messages2.html`,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := hearsay.Open(database)
			if err != nil {
				return err
			}
			defer func() { _ = svc.Close() }()

			for _, path := range args {
				result, err := svc.ImportFile(cmd.Context(), path, chatID)
				if err != nil {
					return fmt.Errorf("import %s: %w", path, err)
				}
				if result.Skipped {
					fmt.Printf("%s: already imported, skipped\n", path)
					continue
				}
				fmt.Printf("%s: imported %d messages into chat %d (batch %s)\n",
					path, result.Messages, result.ChatID, result.BatchID)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&database, "db", config.Default().Database, "Database directory")
	cmd.Flags().Int64Var(&chatID, "chat", 0, "Chat ID to import into (required for HTML exports)")
	return cmd
}
