package models

import "time"

// Room is a physical exam room with fixed seating capacity.
type Room struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Capacity  int       `db:"capacity" json:"capacity"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// CreateRoomRequest is the payload for opening a new exam room.
type CreateRoomRequest struct {
	Name     string `json:"name" validate:"required,max=120"`
	Capacity int    `json:"capacity" validate:"required,gt=0"`
}

// Occupancy severity levels derived from the occupancy percentage.
const (
	OccupancyNormal   = "normal"
	OccupancyWarning  = "warning"
	OccupancyCritical = "critical"
)

// RoomOccupancy augments a room with its derived live occupancy. The count is
// computed per read and never stored; it can exceed capacity when concurrent
// registrations raced past the capacity check.
type RoomOccupancy struct {
	Room
	CurrentCount int    `json:"current_count"`
	OccupancyPct int    `json:"occupancy_pct"`
	Severity     string `json:"severity"`
	Full         bool   `json:"is_full"`
}
