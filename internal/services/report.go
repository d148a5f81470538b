// Package services contains business logic layers.
// Services are called by handlers and the reminder job and talk to the
// store, identity and notify collaborators through narrow interfaces.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/chatreport/report-server/internal/config"
	"github.com/chatreport/report-server/internal/identity"
	"github.com/chatreport/report-server/internal/models"
	"github.com/chatreport/report-server/internal/notify"
	"github.com/chatreport/report-server/internal/store"
	"go.uber.org/zap"
)

// Caller-facing validation messages
const (
	MsgMissingFields      = "Missing required fields"
	MsgInvalidDescription = "Description must be at least 5 words and at most 2000 characters."
	MsgChatNotFound       = "Chat not found"
	MsgEmailNotFound      = "User email not found"
)

// ReportService implements the report lifecycle: submission, the
// administrator listing and pending-report reminders.
type ReportService struct {
	reports   store.ReportStore
	chats     store.ChatStore
	activity  store.ActivityStore
	directory identity.Directory
	notifier  notify.Notifier
	adminID   string
	logger    *zap.SugaredLogger
	now       func() time.Time
}

// NewReportService creates a new report service
func NewReportService(
	backend store.Backend,
	directory identity.Directory,
	notifier notify.Notifier,
	adminUserID string,
	logger *zap.SugaredLogger,
) *ReportService {
	return &ReportService{
		reports:   backend,
		chats:     backend,
		activity:  backend,
		directory: directory,
		notifier:  notifier,
		adminID:   adminUserID,
		logger:    logger,
		now:       time.Now,
	}
}

// ValidateSubmission checks presence of every field and the description rules
func ValidateSubmission(req *models.ReportSubmission) error {
	if req == nil ||
		strings.TrimSpace(req.ChatID) == "" ||
		strings.TrimSpace(req.Reason) == "" ||
		strings.TrimSpace(req.Description) == "" {
		return badRequest(MsgMissingFields)
	}
	if len(strings.Fields(req.Description)) < config.MinDescriptionWords ||
		utf16Len(req.Description) > config.MaxDescriptionChars {
		return badRequest(MsgInvalidDescription)
	}
	return nil
}

// utf16Len counts UTF-16 code units, the unit browsers report as string length
func utf16Len(s string) int {
	n := 0
	for _, r := range s {
		if r >= 0x10000 {
			n += 2
			continue
		}
		n++
	}
	return n
}

// Submit files a report against a chat on behalf of callerID and notifies
// the administrator. Notification is best-effort: a failed send is logged
// and recorded but the created report is still returned.
func (s *ReportService) Submit(ctx context.Context, callerID string, req *models.ReportSubmission) (*models.Report, error) {
	if callerID == "" {
		return nil, unauthorized()
	}
	if err := ValidateSubmission(req); err != nil {
		return nil, err
	}

	chat, err := s.chats.FindChatByID(ctx, req.ChatID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, notFound(MsgChatNotFound)
	}
	if err != nil {
		return nil, internal("find chat", err)
	}

	email, err := s.directory.ResolveEmail(ctx, callerID)
	if errors.Is(err, identity.ErrNoEmail) {
		return nil, badRequest(MsgEmailNotFound)
	}
	if err != nil {
		return nil, internal("resolve reporter email", err)
	}

	report := &models.Report{
		ChatID:      req.ChatID,
		ReportedBy:  email,
		Reason:      req.Reason,
		Description: req.Description,
		Status:      models.StatusPending,
		Messages:    models.SnapshotMessages(chat.Messages),
		CreatedAt:   s.now().UTC(),
	}
	if err := s.reports.CreateReport(ctx, report); err != nil {
		return nil, internal("create report", err)
	}

	s.logger.Infow("Report submitted",
		"report_id", report.ID,
		"chat_id", report.ChatID,
		"reason", report.Reason,
		"messages", len(report.Messages),
	)
	s.recordActivity(ctx, report.ID, models.ActivitySubmitted, "Report submitted by "+report.ReportedBy)

	if err := s.notifySubmitted(ctx, report); err != nil {
		s.logger.Errorw("Failed to notify administrator of new report", "report_id", report.ID, "error", err)
		s.recordActivity(ctx, report.ID, models.ActivityNotificationFailed, err.Error())
	}

	return report, nil
}

func (s *ReportService) notifySubmitted(ctx context.Context, report *models.Report) error {
	n, err := notify.NewReportSubmitted(report)
	if err != nil {
		return err
	}
	return s.notifier.Send(ctx, n)
}

// List returns every report, newest first, to the administrator only
func (s *ReportService) List(ctx context.Context, callerID string) ([]models.ReportSummary, error) {
	if !s.isAdmin(callerID) {
		s.logger.Warnw("Unauthorized report listing attempt", "user_id", callerID)
		return nil, unauthorized()
	}

	reports, err := s.reports.ListReports(ctx)
	if err != nil {
		return nil, internal("list reports", err)
	}

	summaries := make([]models.ReportSummary, 0, len(reports))
	for i := range reports {
		summaries = append(summaries, reports[i].Summary())
	}

	s.logger.Debugw("Listed reports", "count", len(summaries))
	return summaries, nil
}

// Activity returns recent report activity to the administrator only
func (s *ReportService) Activity(ctx context.Context, callerID string, limit int) ([]models.ActivityLog, error) {
	if !s.isAdmin(callerID) {
		return nil, unauthorized()
	}
	if limit <= 0 {
		limit = config.DefaultActivityLimit
	}
	if limit > config.MaxActivityLimit {
		limit = config.MaxActivityLimit
	}

	logs, err := s.activity.RecentActivity(ctx, limit)
	if err != nil {
		return nil, internal("recent activity", err)
	}
	return logs, nil
}

// RemindPending re-notifies the administrator about every pending report
// at least PendingReminderAge old. Reminders are not deduplicated across
// runs. The first failed send aborts the run; reminders already sent stay
// sent. Returns the number of reminders sent.
func (s *ReportService) RemindPending(ctx context.Context) (int, error) {
	cutoff := s.now().UTC().Add(-config.PendingReminderAge)

	pending, err := s.reports.FindPendingReports(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("find pending reports: %w", err)
	}

	s.logger.Infow("Sending pending report reminders", "count", len(pending), "cutoff", cutoff)

	sent := 0
	for i := range pending {
		report := &pending[i]
		n, err := notify.PendingReminder(report)
		if err != nil {
			return sent, fmt.Errorf("build reminder for report %s: %w", report.ID, err)
		}
		if err := s.notifier.Send(ctx, n); err != nil {
			return sent, fmt.Errorf("send reminder for report %s: %w", report.ID, err)
		}
		sent++
		s.recordActivity(ctx, report.ID, models.ActivityReminderSent, "Pending reminder sent to administrator")
	}

	return sent, nil
}

// equality only; an unset admin id never matches
func (s *ReportService) isAdmin(callerID string) bool {
	return s.adminID != "" && callerID == s.adminID
}

// Activity is an audit trail; failures to write it never fail the operation.
func (s *ReportService) recordActivity(ctx context.Context, reportID, activityType, description string) {
	err := s.activity.LogActivity(ctx, &models.ActivityLog{
		ReportID:     reportID,
		ActivityType: activityType,
		Description:  description,
		CreatedAt:    s.now().UTC(),
	})
	if err != nil {
		s.logger.Warnw("Failed to record report activity",
			"report_id", reportID,
			"type", activityType,
			"error", err,
		)
	}
}
