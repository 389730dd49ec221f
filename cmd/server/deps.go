package main

import (
	"github.com/samber/oops"

	"github.com/iliyamo/trainfood-auth/internal/config"
	"github.com/iliyamo/trainfood-auth/internal/logging"
	"github.com/iliyamo/trainfood-auth/internal/mail"
	"github.com/iliyamo/trainfood-auth/internal/service"
)

// newMailer builds the transport named by cfg.Transport.
func newMailer(cfg config.MailConfig, development bool, log logging.Logger) (service.Mailer, error) {
	switch cfg.Transport {
	case "", "smtp":
		return mail.NewSMTPSender(cfg), nil
	case "queue":
		return service.NewQueueMailer(cfg.AMQPURL, cfg.Queue, log), nil
	case "log":
		if !development {
			return nil, oops.Code("CONFIG_INVALID").
				With("transport", cfg.Transport).
				Errorf("mail transport %q is only allowed in development", cfg.Transport)
		}
		return service.LogMailer{Log: log}, nil
	default:
		return nil, oops.Code("CONFIG_INVALID").
			With("transport", cfg.Transport).
			Errorf("unknown mail transport %q", cfg.Transport)
	}
}
