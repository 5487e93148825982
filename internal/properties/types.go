// Package properties manages rental properties and their rooms.
package properties

import "time"

// Room occupancy states.
const (
	RoomVacant   = "vacant"
	RoomOccupied = "occupied"
)

// Property is one rental building or unit group owned by a user.
type Property struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Name      string    `json:"name"`
	Address   string    `json:"address,omitempty"`
	Notes     string    `json:"notes,omitempty"`
	Rooms     []Room    `json:"rooms,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Room is one rentable unit inside a property.
type Room struct {
	ID            string     `json:"id"`
	PropertyID    string     `json:"property_id"`
	Number        string     `json:"number"`
	RoomType      string     `json:"room_type,omitempty"`
	Tenant        string     `json:"tenant,omitempty"`
	Status        string     `json:"status"`
	OccupiedUntil *time.Time `json:"occupied_until,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// PropertyParams are the writable property fields.
type PropertyParams struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Notes   string `json:"notes"`
}

// RoomParams are the writable room fields.
type RoomParams struct {
	Number   string `json:"number"`
	RoomType string `json:"room_type"`
	Tenant   string `json:"tenant"`
}

// StatusParams change a room's occupancy. OccupiedUntil is only stored when
// the new status is occupied.
type StatusParams struct {
	Status        string     `json:"status"`
	Tenant        string     `json:"tenant"`
	OccupiedUntil *time.Time `json:"occupied_until"`
}

// Summary is the per-property vacancy rollup.
type Summary struct {
	PropertyID   string `json:"property_id"`
	PropertyName string `json:"property_name"`
	TotalRooms   int    `json:"total_rooms"`
	Vacant       int    `json:"vacant"`
	Occupied     int    `json:"occupied"`
}
