package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/chatreport/report-server/internal/models"
	"github.com/google/uuid"
)

// MemoryStore keeps everything in process memory. It backs local
// development (STORE_BACKEND=memory) and handler tests.
type MemoryStore struct {
	mu       sync.RWMutex
	reports  []models.Report
	chats    map[string]models.Chat
	activity []models.ActivityLog
	now      func() time.Time
}

var _ Backend = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		chats: make(map[string]models.Chat),
		now:   time.Now,
	}
}

// PutChat inserts or replaces a chat transcript
func (m *MemoryStore) PutChat(chat models.Chat) {
	m.mu.Lock()
	defer m.mu.Unlock()
	chat.Messages = models.SnapshotMessages(chat.Messages)
	m.chats[chat.ID] = chat
}

// FindChatByID returns a copy of the stored chat
func (m *MemoryStore) FindChatByID(_ context.Context, id string) (*models.Chat, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	chat, ok := m.chats[id]
	if !ok {
		return nil, ErrNotFound
	}
	chat.Messages = models.SnapshotMessages(chat.Messages)
	return &chat, nil
}

// CreateReport appends a report
func (m *MemoryStore) CreateReport(_ context.Context, r *models.Report) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = m.now().UTC()
	}
	stored := *r
	stored.Messages = models.SnapshotMessages(r.Messages)
	m.reports = append(m.reports, stored)
	return nil
}

// ListReports returns all reports, newest first
func (m *MemoryStore) ListReports(_ context.Context) ([]models.Report, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := m.copyReports(func(models.Report) bool { return true })
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// FindPendingReports returns pending reports created at or before cutoff, oldest first
func (m *MemoryStore) FindPendingReports(_ context.Context, cutoff time.Time) ([]models.Report, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := m.copyReports(func(r models.Report) bool {
		return r.EffectiveStatus() == models.StatusPending && !r.CreatedAt.After(cutoff)
	})
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// must hold read lock
func (m *MemoryStore) copyReports(keep func(models.Report) bool) []models.Report {
	out := make([]models.Report, 0, len(m.reports))
	for _, r := range m.reports {
		if !keep(r) {
			continue
		}
		r.Messages = models.SnapshotMessages(r.Messages)
		out = append(out, r)
	}
	return out
}

// LogActivity appends an activity entry
func (m *MemoryStore) LogActivity(_ context.Context, entry *models.ActivityLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = m.now().UTC()
	}
	m.activity = append(m.activity, *entry)
	return nil
}

// RecentActivity returns up to limit entries, newest first
func (m *MemoryStore) RecentActivity(_ context.Context, limit int) ([]models.ActivityLog, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.ActivityLog, 0, len(m.activity))
	for i := len(m.activity) - 1; i >= 0; i-- {
		out = append(out, m.activity[i])
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Ping always succeeds
func (m *MemoryStore) Ping(context.Context) error { return nil }

// Name identifies the backend in health output
func (m *MemoryStore) Name() string { return "memory" }
