package main

import (
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gadeShivani/iso20022-rag/internal/bot"
	"github.com/gadeShivani/iso20022-rag/internal/session"
)

func newBotCmd(a *app) *cobra.Command {
	var model string
	cmd := &cobra.Command{
		Use:   "bot",
		Short: "Run the Telegram bot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.cfg.Telegram.Token == "" {
				return errors.New("telegram token not configured (set TELEGRAM_TOKEN or telegram.token)")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			analyzer, err := a.analyzer(ctx)
			if err != nil {
				return err
			}

			store := session.NewMemoryStore()
			defer store.Close()

			b, err := bot.New(a.cfg.Telegram.Token, store, analyzer, a.model(model), a.logger)
			if err != nil {
				a.logger.Error("Failed to create bot", zap.Error(err))
				return err
			}

			if err := b.Start(ctx); err != nil {
				a.logger.Error("Bot error", zap.Error(err))
				return err
			}
			a.logger.Info("Bot stopped")
			return nil
		},
	}
	cmd.Flags().StringVarP(&model, "model", "m", "", "model used for every chat")
	return cmd
}
