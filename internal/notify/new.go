package notify

import (
	"fmt"

	"github.com/chatreport/report-server/internal/config"
	"go.uber.org/zap"
)

// New builds the notifier selected by cfg.Provider
func New(cfg config.EmailConfig, logger *zap.SugaredLogger) (Notifier, error) {
	switch cfg.Provider {
	case config.EmailResend:
		if cfg.ResendAPIKey == "" || cfg.AdminAddress == "" {
			return nil, fmt.Errorf("resend notifier needs RESEND_API_KEY and ADMIN_EMAIL")
		}
		return NewResendNotifier(cfg.ResendAPIKey, cfg.FromAddress, cfg.AdminAddress, logger), nil
	case config.EmailSMTP:
		if cfg.SMTPHost == "" || cfg.AdminAddress == "" {
			return nil, fmt.Errorf("smtp notifier needs SMTP_HOST and ADMIN_EMAIL")
		}
		return NewSMTPNotifier(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword,
			cfg.FromAddress, cfg.AdminAddress, logger), nil
	case config.EmailLog:
		return NewLogNotifier(logger), nil
	default:
		return nil, fmt.Errorf("unknown email provider %q", cfg.Provider)
	}
}
