// Package leads manages prospect leads: creation from free-text messages,
// reminder scheduling, archival, and response history.
package leads

import (
	"context"
	"time"
)

// Status is the derived lifecycle state of a lead.
type Status string

const (
	// StatusPending means the lead's reminder has not fired yet.
	StatusPending Status = "pending"
	// StatusTriggered means the reminder fired (or its time has passed).
	StatusTriggered Status = "triggered"
	// StatusArchived means the lead was moved out of the active list.
	StatusArchived Status = "archived"
)

// Filter selects leads by derived status in list calls.
type Filter string

const (
	FilterAll       Filter = "all"
	FilterPending   Filter = "pending"
	FilterTriggered Filter = "triggered"
)

// Response is one logged interaction with a lead. Responses keep insertion
// order and are addressed by index.
type Response struct {
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// Lead is a rental prospect with an attached reminder.
type Lead struct {
	ID             string     `json:"id"`
	UserID         string     `json:"user_id"`
	Name           string     `json:"name"`
	ContactNo      string     `json:"contact_no,omitempty"`
	Category       string     `json:"category"`
	Source         string     `json:"source,omitempty"`
	Location       string     `json:"location,omitempty"`
	AlertTime      time.Time  `json:"alert_time"`
	NotificationID string     `json:"notification_id,omitempty"`
	Responses      []Response `json:"responses"`
	Photo          string     `json:"photo,omitempty"`
	TriggeredAt    *time.Time `json:"triggered_at,omitempty"`
	ArchivedAt     *time.Time `json:"archived_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`

	// Status is derived at read time, never stored.
	Status Status `json:"status"`
}

// CreateParams are the writable fields when creating a lead directly.
type CreateParams struct {
	Name      string    `json:"name"`
	ContactNo string    `json:"contact_no"`
	Category  string    `json:"category"`
	Source    string    `json:"source"`
	Location  string    `json:"location"`
	AlertTime time.Time `json:"alert_time"`
	Photo     string    `json:"photo"`
}

// UpdateParams are the writable fields when editing a lead. Nil pointers
// leave the stored value untouched.
type UpdateParams struct {
	Name      *string `json:"name"`
	ContactNo *string `json:"contact_no"`
	Category  *string `json:"category"`
	Source    *string `json:"source"`
	Location  *string `json:"location"`
	Photo     *string `json:"photo"`
}

// Repository persists leads. AlertTime and NotificationID always move
// together through SetAlert so a stored reminder id can never point at a
// different fire time.
type Repository interface {
	Create(ctx context.Context, lead Lead) (Lead, error)
	Get(ctx context.Context, userID, id string) (Lead, error)
	// GetByID fetches a lead without an ownership check, for the delivery
	// path where only the lead id is known.
	GetByID(ctx context.Context, id string) (Lead, error)
	Update(ctx context.Context, userID, id string, params UpdateParams) (Lead, error)
	Delete(ctx context.Context, userID, id string) error

	SetAlert(ctx context.Context, id string, alertTime time.Time, notificationID string) error
	SetTriggered(ctx context.Context, id string, at time.Time) error
	SetArchived(ctx context.Context, userID, id string, archived bool) error
	SetResponses(ctx context.Context, userID, id string, responses []Response) error

	ListActive(ctx context.Context, userID string) ([]Lead, error)
	ListArchived(ctx context.Context, userID string) ([]Lead, error)
	// ListAllPending returns every unarchived, untriggered lead across users,
	// used to re-arm reminders at startup.
	ListAllPending(ctx context.Context) ([]Lead, error)
}
