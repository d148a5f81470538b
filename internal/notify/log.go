package notify

import (
	"context"

	"go.uber.org/zap"
)

// LogNotifier only logs notifications. Used when email is disabled.
type LogNotifier struct {
	logger *zap.SugaredLogger
}

var _ Notifier = (*LogNotifier)(nil)

// NewLogNotifier creates a notifier that writes to the log instead of mailing
func NewLogNotifier(logger *zap.SugaredLogger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Send logs n
func (l *LogNotifier) Send(_ context.Context, n Notification) error {
	l.logger.Infow("Email disabled, logging admin notification",
		"subject", n.Subject,
		"body", n.Text,
	)
	return nil
}
