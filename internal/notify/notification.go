// Package notify builds and delivers administrative email notifications.
package notify

import (
	"context"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/chatreport/report-server/internal/models"
)

// Notification is one administrative email
type Notification struct {
	Subject string
	Text    string
	HTML    string
}

// Notifier delivers notifications to the fixed administrative recipient
type Notifier interface {
	Send(ctx context.Context, n Notification) error
}

// Field is one row of the notification details table
type Field struct {
	Name  string
	Value string
}

type tableData struct {
	Title  string
	Intro  string
	Fields []Field
}

var tableTemplate = template.Must(template.New("details_table").Parse(
	`<div style='font-family:sans-serif;max-width:600px;margin:auto;padding:24px;background:#f9f9f9;border-radius:8px;'>
  <h2 style='color:#222;text-align:center;margin-bottom:24px;'>{{.Title}}</h2>
  <p style='margin-bottom:16px;'>{{.Intro}} The details are as follows:</p>
  <table style='width:100%;border-collapse:collapse;background:#fff;border:1px solid #ddd;border-radius:8px;overflow:hidden;'>
    <tr><th style='text-align:left;padding:8px 12px;border-bottom:1px solid #eee;background:#f3f3f3;'>Field</th><th style='text-align:left;padding:8px 12px;border-bottom:1px solid #eee;background:#f3f3f3;'>Value</th></tr>
{{- range .Fields }}
    <tr><td style='padding:8px 12px;border-bottom:1px solid #eee;'>{{.Name}}</td><td style='padding:8px 12px;border-bottom:1px solid #eee;'>{{.Value}}</td></tr>
{{- end }}
  </table>
  <p style='color:#888;font-size:13px;margin-top:24px;'>This is an automated notification. Please do not reply to this email.</p>
</div>`))

// Build renders a notification with a plain-text body and an HTML
// "Field / Value" table. Values are HTML-escaped.
func Build(subject, title, intro, textHeading string, fields []Field) (Notification, error) {
	var html strings.Builder
	if err := tableTemplate.Execute(&html, tableData{Title: title, Intro: intro, Fields: fields}); err != nil {
		return Notification{}, fmt.Errorf("render notification: %w", err)
	}

	var text strings.Builder
	text.WriteString(intro)
	text.WriteString("\n\n")
	text.WriteString(textHeading)
	text.WriteString(":")
	for _, f := range fields {
		fmt.Fprintf(&text, "\n- %s: %s", f.Name, f.Value)
	}

	return Notification{Subject: subject, Text: text.String(), HTML: html.String()}, nil
}

// NewReportSubmitted is sent once for every successfully filed report
func NewReportSubmitted(r *models.Report) (Notification, error) {
	return Build(
		"New Ticket Submitted",
		"New Ticket Submitted",
		"A new ticket has been submitted.",
		"Ticket Details",
		[]Field{
			{Name: "Reported By", Value: r.ReportedBy},
			{Name: "Reason", Value: r.Reason},
			{Name: "Description", Value: r.Description},
			{Name: "Chat ID", Value: r.ChatID},
			{Name: "Status", Value: "Pending"},
		},
	)
}

// PendingReminder is sent by the reminder job for each stale pending report
func PendingReminder(r *models.Report) (Notification, error) {
	return Build(
		"Reminder: Pending Report",
		"Pending Report Reminder",
		"A report is still pending.",
		"Report Details",
		[]Field{
			{Name: "Report ID", Value: r.ID},
			{Name: "Reported By", Value: r.ReportedBy},
			{Name: "Reason", Value: r.Reason},
			{Name: "Status", Value: string(models.StatusPending)},
			{Name: "Created At", Value: r.CreatedAt.UTC().Format(time.RFC1123)},
		},
	)
}
