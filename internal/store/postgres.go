package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chatreport/report-server/internal/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const schema = `
CREATE TABLE IF NOT EXISTS chats (
	id         TEXT PRIMARY KEY,
	user_id    TEXT NOT NULL DEFAULT '',
	title      TEXT NOT NULL DEFAULT '',
	messages   JSONB NOT NULL DEFAULT '[]'::jsonb,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS reports (
	id          UUID PRIMARY KEY,
	chat_id     TEXT NOT NULL,
	reported_by TEXT NOT NULL,
	reason      TEXT NOT NULL,
	description TEXT NOT NULL,
	status      TEXT NOT NULL DEFAULT 'pending',
	messages    JSONB NOT NULL DEFAULT '[]'::jsonb,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_reports_created_at ON reports (created_at DESC);
CREATE INDEX IF NOT EXISTS idx_reports_status_created_at ON reports (status, created_at);

CREATE TABLE IF NOT EXISTS report_activity (
	id            UUID PRIMARY KEY,
	report_id     TEXT NOT NULL,
	activity_type TEXT NOT NULL,
	description   TEXT NOT NULL DEFAULT '',
	created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_report_activity_created_at ON report_activity (created_at DESC);
`

// PostgresStore implements Backend on a pgx connection pool.
// Message snapshots are stored as jsonb.
type PostgresStore struct {
	db     *pgxpool.Pool
	logger *zap.SugaredLogger
}

var _ Backend = (*PostgresStore)(nil)

// NewPostgresStore creates a new PostgreSQL-backed store
func NewPostgresStore(db *pgxpool.Pool, logger *zap.SugaredLogger) *PostgresStore {
	return &PostgresStore{db: db, logger: logger}
}

// EnsureSchema creates the tables and indexes if they are missing
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	s.logger.Infow("Database schema ready", "tables", []string{"chats", "reports", "report_activity"})
	return nil
}

// FindChatByID loads a chat transcript
func (s *PostgresStore) FindChatByID(ctx context.Context, id string) (*models.Chat, error) {
	query := `SELECT id, user_id, title, messages, created_at FROM chats WHERE id = $1`

	var c models.Chat
	err := s.db.QueryRow(ctx, query, id).Scan(&c.ID, &c.UserID, &c.Title, &c.Messages, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select chat: %w", err)
	}
	return &c, nil
}

// CreateReport inserts a new report
func (s *PostgresStore) CreateReport(ctx context.Context, r *models.Report) error {
	id := uuid.New()
	createdAt := r.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	status := r.EffectiveStatus()
	messages := models.SnapshotMessages(r.Messages)

	query := `
		INSERT INTO reports (id, chat_id, reported_by, reason, description, status, messages, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := s.db.Exec(ctx, query,
		id, r.ChatID, r.ReportedBy,
		r.Reason, r.Description, string(status),
		messages, createdAt,
	)
	if err != nil {
		return fmt.Errorf("insert report: %w", err)
	}

	r.ID = id.String()
	r.Status = status
	r.CreatedAt = createdAt
	return nil
}

// ListReports returns every report, newest first
func (s *PostgresStore) ListReports(ctx context.Context) ([]models.Report, error) {
	query := `
		SELECT id::TEXT, chat_id, reported_by, reason, description, status, messages, created_at
		FROM reports
		ORDER BY created_at DESC
	`
	return s.queryReports(ctx, query)
}

// FindPendingReports returns pending reports created at or before cutoff
func (s *PostgresStore) FindPendingReports(ctx context.Context, cutoff time.Time) ([]models.Report, error) {
	query := `
		SELECT id::TEXT, chat_id, reported_by, reason, description, status, messages, created_at
		FROM reports
		WHERE status = $1 AND created_at <= $2
		ORDER BY created_at ASC
	`
	return s.queryReports(ctx, query, string(models.StatusPending), cutoff)
}

func (s *PostgresStore) queryReports(ctx context.Context, query string, args ...any) ([]models.Report, error) {
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select reports: %w", err)
	}
	defer rows.Close()

	reports := make([]models.Report, 0)
	for rows.Next() {
		var (
			r      models.Report
			status string
		)
		if err := rows.Scan(&r.ID, &r.ChatID, &r.ReportedBy, &r.Reason,
			&r.Description, &status, &r.Messages, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan report: %w", err)
		}
		r.Status = models.ReportStatus(status)
		reports = append(reports, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reports: %w", err)
	}
	return reports, nil
}

// LogActivity records a report activity entry
func (s *PostgresStore) LogActivity(ctx context.Context, entry *models.ActivityLog) error {
	id := uuid.New()
	createdAt := entry.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	query := `
		INSERT INTO report_activity (id, report_id, activity_type, description, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	if _, err := s.db.Exec(ctx, query, id, entry.ReportID, entry.ActivityType, entry.Description, createdAt); err != nil {
		return fmt.Errorf("insert report activity: %w", err)
	}

	entry.ID = id.String()
	entry.CreatedAt = createdAt
	return nil
}

// RecentActivity returns recent activity across all reports
func (s *PostgresStore) RecentActivity(ctx context.Context, limit int) ([]models.ActivityLog, error) {
	query := `
		SELECT id::TEXT, report_id, activity_type, description, created_at
		FROM report_activity
		ORDER BY created_at DESC
		LIMIT $1
	`

	rows, err := s.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("select report activity: %w", err)
	}
	defer rows.Close()

	logs := make([]models.ActivityLog, 0)
	for rows.Next() {
		var l models.ActivityLog
		if err := rows.Scan(&l.ID, &l.ReportID, &l.ActivityType, &l.Description, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan report activity: %w", err)
		}
		logs = append(logs, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate report activity: %w", err)
	}
	return logs, nil
}

// Ping checks database connectivity
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Name identifies the backend in health output
func (s *PostgresStore) Name() string { return "postgres" }
