// Package notifier delivers user-facing notifications. Delivery is best
// effort: callers run Notify in the background and only log its error.
package notifier

import (
	"context"
	"errors"

	"smartparking/pkg/config"
	"smartparking/pkg/logger"
)

var ErrDelivery = errors.New("notification delivery failed")

type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

type Notification struct {
	To      string
	Subject string
	Text    string
}

// New returns an SMTP notifier when SMTP is configured, otherwise one that
// only logs what it would have sent.
func New(cfg config.SMTPConfig, log *logger.Logger) Notifier {
	if !cfg.Enabled() {
		log.Warn("SMTP host not configured, notifications will only be logged")
		return NewLogNotifier(log)
	}
	return NewSMTPNotifier(cfg)
}
