package notify

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"gopkg.in/mail.v2"
)

// SMTPNotifier delivers notifications over SMTP
type SMTPNotifier struct {
	dialer *mail.Dialer
	from   string
	to     string
	logger *zap.SugaredLogger
}

var _ Notifier = (*SMTPNotifier)(nil)

// NewSMTPNotifier creates a notifier that mails the administrator over SMTP
func NewSMTPNotifier(host string, port int, username, password, from, to string, logger *zap.SugaredLogger) *SMTPNotifier {
	return &SMTPNotifier{
		dialer: mail.NewDialer(host, port, username, password),
		from:   from,
		to:     to,
		logger: logger,
	}
}

func (s *SMTPNotifier) message(n Notification) *mail.Message {
	m := mail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", s.to)
	m.SetHeader("Subject", n.Subject)
	m.SetBody("text/plain", n.Text)
	m.AddAlternative("text/html", n.HTML)
	return m
}

// Send delivers n to the administrator. The SMTP exchange itself does not
// observe ctx; a cancelled context only stops a send that has not started.
func (s *SMTPNotifier) Send(ctx context.Context, n Notification) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := s.dialer.DialAndSend(s.message(n)); err != nil {
		return fmt.Errorf("smtp send %q: %w", n.Subject, err)
	}

	s.logger.Infow("Admin notification sent", "provider", "smtp", "subject", n.Subject)
	return nil
}
