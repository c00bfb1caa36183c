package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/hearsaybot/hearsay"
	"github.com/hearsaybot/hearsay/internal/bot"
	"github.com/hearsaybot/hearsay/internal/config"
	"github.com/hearsaybot/hearsay/internal/telegram"
)

// pollRetryDelay spaces out retries when getUpdates fails, so a Telegram
// outage doesn't turn into a hot loop.
const pollRetryDelay = 3 * time.Second

func (c *CLI) newRunCommand() *cobra.Command {
	var configPath string
	var token string
	var database string
	var pollTimeout time.Duration

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the Telegram bot daemon",
		Example: `  # Run with a config file
  hearsay run --config hearsay.yaml

  # Run with the token on the command line
  hearsay run --token 123456:ABC-DEF --db /var/lib/hearsay`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Default()
			if configPath != "" {
				var err error
				if cfg, err = config.Load(configPath); err != nil {
					return err
				}
			}
			if cmd.Flags().Changed("token") {
				cfg.Token = token
			}
			if cmd.Flags().Changed("db") {
				cfg.Database = database
			}
			if cmd.Flags().Changed("poll-timeout") {
				cfg.PollTimeout = config.Duration(pollTimeout)
			}
			if cfg.Token == "" {
				return fmt.Errorf("no bot token: set token in the config file or pass --token")
			}
			return runBot(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "Path to YAML config file")
	cmd.Flags().StringVar(&token, "token", "", "Telegram bot token (overrides config)")
	cmd.Flags().StringVar(&database, "db", config.Default().Database, "Database directory (overrides config)")
	cmd.Flags().DurationVar(&pollTimeout, "poll-timeout", time.Duration(config.Default().PollTimeout), "Long-poll timeout for getUpdates (overrides config)")
	return cmd
}

func runBot(parent context.Context, cfg config.Config) error {
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	svc, err := hearsay.Open(cfg.Database)
	if err != nil {
		return err
	}
	defer func() { _ = svc.Close() }()

	client := telegram.NewClient(cfg.Token)
	me, err := client.GetMe(ctx)
	if err != nil {
		return fmt.Errorf("verify bot token: %w", err)
	}
	slog.Info("Bot started", "username", me.Username, "db", cfg.Database)

	handler := bot.New(svc, client)
	var offset int64
	for {
		updates, err := client.GetUpdates(ctx, offset, time.Duration(cfg.PollTimeout))
		if err != nil {
			if ctx.Err() != nil {
				slog.Info("Shutting down")
				return nil
			}
			slog.Error("Failed to fetch updates", "error", err)
			select {
			case <-ctx.Done():
				slog.Info("Shutting down")
				return nil
			case <-time.After(pollRetryDelay):
			}
			continue
		}
		for _, update := range updates {
			if update.UpdateID >= offset {
				offset = update.UpdateID + 1
			}
			handler.HandleUpdate(ctx, update)
		}
	}
}
