// Package store holds the persistence seams of the report service. Each
// backend (PostgreSQL, MongoDB, in-memory) implements all of them.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/chatreport/report-server/internal/models"
)

// ErrNotFound is returned when a looked-up record does not exist
var ErrNotFound = errors.New("record not found")

// ReportStore persists reports. Reports are append-only.
type ReportStore interface {
	// CreateReport stores r, filling in ID (and CreatedAt when zero).
	CreateReport(ctx context.Context, r *models.Report) error
	// ListReports returns every report, newest first.
	ListReports(ctx context.Context) ([]models.Report, error)
	// FindPendingReports returns pending reports created at or before cutoff.
	FindPendingReports(ctx context.Context, cutoff time.Time) ([]models.Report, error)
}

// ChatStore reads chat transcripts
type ChatStore interface {
	FindChatByID(ctx context.Context, id string) (*models.Chat, error)
}

// ActivityStore records report activity for the administrator
type ActivityStore interface {
	LogActivity(ctx context.Context, entry *models.ActivityLog) error
	RecentActivity(ctx context.Context, limit int) ([]models.ActivityLog, error)
}

// Backend is a complete store implementation
type Backend interface {
	ReportStore
	ChatStore
	ActivityStore
	Ping(ctx context.Context) error
	Name() string
}
