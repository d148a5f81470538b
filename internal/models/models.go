// Package models defines the data structures used across the application.
// JSON names follow the chat web client's camelCase contract.
package models

import (
	"bytes"
	"time"
)

// ReportStatus is the review state of a report
type ReportStatus string

const (
	StatusPending  ReportStatus = "pending"
	StatusResolved ReportStatus = "resolved"
)

// ChatMessage is a single message of a chat transcript.
//
// Raw, when set, is the message exactly as the backing store holds it,
// including fields this struct does not model. Stores that keep it write
// it back verbatim when the message is snapshotted into a report.
type ChatMessage struct {
	ID        string    `json:"id,omitempty"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	Raw       []byte    `json:"-"`
}

// Chat is a conversation owned by the chat application. Read-only here.
type Chat struct {
	ID        string        `json:"_id"`
	UserID    string        `json:"userId"`
	Title     string        `json:"title"`
	Messages  []ChatMessage `json:"messages"`
	CreatedAt time.Time     `json:"createdAt"`
}

// Report is a user complaint against a chat, with a frozen copy of the
// chat's messages taken when the report was filed.
type Report struct {
	ID          string        `json:"_id"`
	ChatID      string        `json:"chatId"`
	ReportedBy  string        `json:"reportedBy"`
	Reason      string        `json:"reason"`
	Description string        `json:"description"`
	Status      ReportStatus  `json:"status"`
	Messages    []ChatMessage `json:"messages"`
	CreatedAt   time.Time     `json:"createdAt"`
}

// EffectiveStatus returns the stored status, treating an unset one as pending
func (r *Report) EffectiveStatus() ReportStatus {
	if r.Status == "" {
		return StatusPending
	}
	return r.Status
}

// Summary converts a stored report into its administrator listing form
func (r *Report) Summary() ReportSummary {
	messages := r.Messages
	if messages == nil {
		messages = []ChatMessage{}
	}
	return ReportSummary{
		ID:          r.ID,
		ChatID:      r.ChatID,
		Reason:      r.Reason,
		Description: r.Description,
		CreatedAt:   r.CreatedAt,
		ReportedBy:  r.ReportedBy,
		Status:      r.EffectiveStatus(),
		Messages:    messages,
	}
}

// SnapshotMessages returns an independent copy of a message sequence.
// The result is never nil.
func SnapshotMessages(messages []ChatMessage) []ChatMessage {
	snapshot := make([]ChatMessage, len(messages))
	copy(snapshot, messages)
	for i := range snapshot {
		snapshot[i].Raw = bytes.Clone(snapshot[i].Raw)
	}
	return snapshot
}

// ReportSubmission is the request body for filing a new report
type ReportSubmission struct {
	ChatID      string `json:"chatId"`
	Reason      string `json:"reason"`
	Description string `json:"description"`
}

// ReportSummary is one entry of the administrator report listing
type ReportSummary struct {
	ID          string        `json:"_id"`
	ChatID      string        `json:"chatId"`
	Reason      string        `json:"reason"`
	Description string        `json:"description"`
	CreatedAt   time.Time     `json:"createdAt"`
	ReportedBy  string        `json:"reportedBy"`
	Status      ReportStatus  `json:"status"`
	Messages    []ChatMessage `json:"messages"`
}

// Report activity types
const (
	ActivitySubmitted          = "submitted"
	ActivityNotificationFailed = "notification_failed"
	ActivityReminderSent       = "reminder_sent"
)

// ActivityLog records something that happened to a report
type ActivityLog struct {
	ID           string    `json:"id"`
	ReportID     string    `json:"reportId"`
	ActivityType string    `json:"activityType"`
	Description  string    `json:"description"`
	CreatedAt    time.Time `json:"createdAt"`
}

// HealthStatus represents the server health check response
type HealthStatus struct {
	Status   string `json:"status"`
	Version  string `json:"version"`
	Uptime   string `json:"uptime,omitempty"`
	Store    string `json:"store,omitempty"`
	Database string `json:"database,omitempty"`
}
