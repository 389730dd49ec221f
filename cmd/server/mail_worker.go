package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/iliyamo/trainfood-auth/internal/config"
	"github.com/iliyamo/trainfood-auth/internal/logging"
	"github.com/iliyamo/trainfood-auth/internal/mail"
	"github.com/iliyamo/trainfood-auth/internal/queue"
)

// NewMailWorkerCmd creates the mail-worker subcommand.
func NewMailWorkerCmd() *cobra.Command {
	var debug bool
	cmd := &cobra.Command{
		Use:   "mail-worker",
		Short: "Deliver queued mail over SMTP",
		Long: `Consume the outbound mail queue and deliver each message over SMTP.
Used when the server runs with MAIL_TRANSPORT=queue.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.LoadMail()
			log := logging.New(os.Stdout, debug)

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			w := queue.NewMailWorker(cfg.AMQPURL, cfg.Queue, mail.NewSMTPSender(cfg), log)
			err := w.Run(ctx)
			if errors.Is(err, context.Canceled) {
				log.Info(context.Background(), "mail-worker stopped")
				return nil
			}
			return err
		},
	}
	cmd.Flags().BoolVar(&debug, "debug", false, "log at debug level")
	return cmd
}
