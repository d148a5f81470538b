package store

import (
	"context"
	"testing"
	"time"

	"github.com/chatreport/report-server/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_FindChatByID(t *testing.T) {
	s := NewMemoryStore()
	s.PutChat(models.Chat{ID: "c1", Messages: []models.ChatMessage{{ID: "m1", Content: "hi"}}})

	chat, err := s.FindChatByID(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, "hi", chat.Messages[0].Content)

	// mutating a returned chat must not reach the stored one
	chat.Messages[0].Content = "changed"
	again, err := s.FindChatByID(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, "hi", again.Messages[0].Content)

	_, err = s.FindChatByID(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_CreateReportAssignsIDAndTime(t *testing.T) {
	s := NewMemoryStore()
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	r := &models.Report{ChatID: "c1"}
	require.NoError(t, s.CreateReport(context.Background(), r))

	assert.NotEmpty(t, r.ID)
	assert.Equal(t, fixed, r.CreatedAt)
}

func TestMemoryStore_ListReportsNewestFirst(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, offset := range []time.Duration{2 * time.Hour, 0, 5 * time.Hour, time.Hour} {
		require.NoError(t, s.CreateReport(ctx, &models.Report{
			ChatID:    string(rune('a' + i)),
			CreatedAt: base.Add(offset),
		}))
	}

	first, err := s.ListReports(ctx)
	require.NoError(t, err)
	require.Len(t, first, 4)
	for i := 1; i < len(first); i++ {
		assert.True(t, first[i-1].CreatedAt.After(first[i].CreatedAt))
	}

	second, err := s.ListReports(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestMemoryStore_FindPendingReportsCutoffIsInclusive(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	cutoff := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)

	fixtures := []models.Report{
		{ChatID: "at-cutoff", Status: models.StatusPending, CreatedAt: cutoff},
		{ChatID: "older", Status: models.StatusPending, CreatedAt: cutoff.Add(-time.Hour)},
		{ChatID: "newer", Status: models.StatusPending, CreatedAt: cutoff.Add(time.Second)},
		{ChatID: "resolved", Status: models.StatusResolved, CreatedAt: cutoff.Add(-time.Hour)},
		{ChatID: "unset-status", CreatedAt: cutoff.Add(-2 * time.Hour)},
	}
	for i := range fixtures {
		require.NoError(t, s.CreateReport(ctx, &fixtures[i]))
	}

	pending, err := s.FindPendingReports(ctx, cutoff)
	require.NoError(t, err)

	var chats []string
	for _, r := range pending {
		chats = append(chats, r.ChatID)
	}
	assert.Equal(t, []string{"unset-status", "older", "at-cutoff"}, chats)
}

func TestMemoryStore_RecentActivity(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		require.NoError(t, s.LogActivity(ctx, &models.ActivityLog{
			ReportID:     "r1",
			ActivityType: models.ActivityReminderSent,
			CreatedAt:    base.Add(time.Duration(i) * time.Minute),
		}))
	}

	logs, err := s.RecentActivity(ctx, 3)
	require.NoError(t, err)
	require.Len(t, logs, 3)
	assert.Equal(t, base.Add(4*time.Minute), logs[0].CreatedAt)
	assert.Equal(t, base.Add(2*time.Minute), logs[2].CreatedAt)
	assert.NotEmpty(t, logs[0].ID)
}
