package notifier

import (
	"context"

	"smartparking/pkg/logger"
)

// LogNotifier records notifications in the log instead of sending them.
type LogNotifier struct {
	log *logger.Logger
}

func NewLogNotifier(log *logger.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) Notify(ctx context.Context, notification Notification) error {
	n.log.InfoContext(ctx, "Notification not sent, SMTP disabled",
		"to", notification.To,
		"subject", notification.Subject,
	)
	return nil
}
