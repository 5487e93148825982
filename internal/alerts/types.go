// Package alerts schedules lead reminders against a pluggable reminder engine
// and fans delivered alerts out to registered handlers.
package alerts

import "errors"

// Errors returned by reminder scheduling.
var (
	// ErrPastDue rejects scheduling a reminder whose fire time is not in the future.
	ErrPastDue = errors.New("reminder time is in the past")
	// ErrReminder wraps engine failures so callers can match them as one class.
	ErrReminder = errors.New("reminder engine error")
)

// Content is the notification payload shown when a reminder fires.
type Content struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// Scheduled describes one pending reminder known to the engine.
type Scheduled struct {
	ReminderID string  `json:"reminder_id"`
	LeadID     string  `json:"lead_id"`
	FireAtUnix int64   `json:"fire_at_unix"`
	Content    Content `json:"content"`
}

// Reminder is the engine that actually arms and disarms timers. The local
// engine backs it in-process; a push-notification engine can replace it
// without touching the service.
type Reminder interface {
	// Schedule arms a reminder and returns the engine's id for it.
	Schedule(leadID string, fireAtUnix int64, content Content) (string, error)
	// Cancel disarms a reminder. Cancelling an unknown id is not an error.
	Cancel(reminderID string) error
	// ListScheduled returns all reminders currently armed.
	ListScheduled() ([]Scheduled, error)
}
