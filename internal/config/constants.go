package config

import "time"

const (
	// Report description rules
	MinDescriptionWords = 5
	MaxDescriptionChars = 2000

	// PendingReminderAge is how long a report may stay pending before the
	// reminder job starts nagging the administrator about it.
	PendingReminderAge = 3 * time.Hour

	// Admin activity listing
	DefaultActivityLimit = 100
	MaxActivityLimit     = 500
)
