package models

import "time"

// Tables carrying change notifications.
const (
	TableRooms    = "rooms"
	TableStudents = "students"
)

// Change event actions.
const (
	EventInsert = "insert"
	EventUpdate = "update"
	EventDelete = "delete"
)

// TableEvent announces a row change on a shared table. It is an
// eventual-refresh signal for dashboards, not a synchronization primitive.
type TableEvent struct {
	Table  string    `json:"table"`
	Action string    `json:"action"`
	RowID  string    `json:"row_id"`
	At     time.Time `json:"at"`
}

// NewTableEvent stamps a change notification with the current time.
func NewTableEvent(table, action, rowID string) TableEvent {
	return TableEvent{Table: table, Action: action, RowID: rowID, At: time.Now().UTC()}
}
