// Command remind mails the administrator about every report that has been
// pending for longer than three hours. It runs once and exits; schedule it
// with cron or a Kubernetes CronJob.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/chatreport/report-server/internal/config"
	"github.com/chatreport/report-server/internal/identity"
	"github.com/chatreport/report-server/internal/notify"
	"github.com/chatreport/report-server/internal/services"
	"github.com/chatreport/report-server/internal/store"
	"go.uber.org/zap"
)

const runTimeout = 5 * time.Minute

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return 1
	}

	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		return 1
	}
	defer logger.Sync()
	sugar := logger.Sugar()

	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()

	backend, closeStore, err := store.Open(ctx, cfg, sugar)
	if err != nil {
		sugar.Errorw("Failed to open store", "backend", cfg.StoreBackend, "error", err)
		return 1
	}
	defer closeStore()

	notifier, err := notify.New(cfg.Email, sugar)
	if err != nil {
		sugar.Errorw("Failed to configure email", "error", err)
		return 1
	}

	// reminders never resolve reporters
	svc := services.NewReportService(backend, identity.StaticDirectory{}, notifier, cfg.AdminUserID, sugar)

	sent, err := svc.RemindPending(ctx)
	if err != nil {
		sugar.Errorw("Error sending pending report reminders", "sent", sent, "error", err)
		return 1
	}

	sugar.Infow("Pending report reminders sent.", "sent", sent)
	return 0
}
