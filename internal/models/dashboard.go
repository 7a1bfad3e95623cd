package models

import "time"

// DashboardSnapshot is the combined console view: every room with live
// occupancy plus the full marking roster.
type DashboardSnapshot struct {
	Rooms       []RoomOccupancy `json:"rooms"`
	Roster      []Student       `json:"roster"`
	GeneratedAt time.Time       `json:"generated_at"`
}
