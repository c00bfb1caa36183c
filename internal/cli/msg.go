package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hearsaybot/hearsay"
	"github.com/hearsaybot/hearsay/internal/config"
	"github.com/hearsaybot/hearsay/markov"
)

func (c *CLI) newMsgCommand() *cobra.Command {
	var database string
	var chatID int64
	var owner string
	var seed string
	var length string

	cmd := &cobra.Command{
		Use:   "msg",
		Short: "Generate a message from the local store",
		Example: `  # Mimic the whole chat
  hearsay msg --chat -1001234

  # Mimic one user, starting from a seed word
  hearsay msg --chat -1001234 --user 123456 --seed hello

  # Ask for a short message
  hearsay msg --chat -1001234 --length "<=5"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := markov.GenerateOptions{Seed: seed}
			if length != "" {
				req, err := markov.ParseLengthRequirement(length)
				if err != nil {
					return err
				}
				opts.Length = req
			}

			svc, err := hearsay.Open(database)
			if err != nil {
				return err
			}
			defer func() { _ = svc.Close() }()

			text, err := svc.Mimic(cmd.Context(), chatID, owner, opts)
			if err != nil {
				return err
			}
			fmt.Println(text)
			return nil
		},
	}

	cmd.Flags().StringVar(&database, "db", config.Default().Database, "Database directory")
	cmd.Flags().Int64Var(&chatID, "chat", 0, "Chat ID to generate from")
	cmd.Flags().StringVar(&owner, "user", hearsay.AllUsers, "User ID to mimic (default: the whole chat)")
	cmd.Flags().StringVar(&seed, "seed", "", "Seed word the message must start from")
	cmd.Flags().StringVar(&length, "length", "", `Length requirement, e.g. "5", "<=10", ">3"`)
	_ = cmd.MarkFlagRequired("chat")
	return cmd
}
