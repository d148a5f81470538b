package notify

import (
	"context"
	"fmt"

	"github.com/resend/resend-go/v2"
	"go.uber.org/zap"
)

// ResendNotifier delivers notifications through the Resend email API
type ResendNotifier struct {
	client *resend.Client
	from   string
	to     string
	logger *zap.SugaredLogger
}

var _ Notifier = (*ResendNotifier)(nil)

// NewResendNotifier creates a notifier that mails the administrator via Resend
func NewResendNotifier(apiKey, from, to string, logger *zap.SugaredLogger) *ResendNotifier {
	return &ResendNotifier{
		client: resend.NewClient(apiKey),
		from:   from,
		to:     to,
		logger: logger,
	}
}

// Send delivers n to the administrator
func (r *ResendNotifier) Send(ctx context.Context, n Notification) error {
	params := &resend.SendEmailRequest{
		From:    r.from,
		To:      []string{r.to},
		Subject: n.Subject,
		Text:    n.Text,
		Html:    n.HTML,
	}

	sent, err := r.client.Emails.SendWithContext(ctx, params)
	if err != nil {
		return fmt.Errorf("resend send %q: %w", n.Subject, err)
	}

	r.logger.Infow("Admin notification sent", "provider", "resend", "subject", n.Subject, "message_id", sent.Id)
	return nil
}
