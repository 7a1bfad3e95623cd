package models

import "time"

// Score sections. A student's total is the sum of both sections with unset
// sections counted as zero; the total is null only while both are null.
const (
	ScoreSection1 = 1
	ScoreSection2 = 2
)

// Student is an olympiad participant. RoomID is set at registration and never
// reassigned; moving a student means deleting and re-registering.
type Student struct {
	ID        string    `db:"id" json:"id"`
	FirstName string    `db:"first_name" json:"first_name"`
	LastName  string    `db:"last_name" json:"last_name"`
	Phone     string    `db:"phone" json:"phone"`
	ClassName string    `db:"class_name" json:"class_name"`
	RoomID    *string   `db:"room_id" json:"room_id"`
	Score1    *int      `db:"score_1" json:"score_1"`
	Score2    *int      `db:"score_2" json:"score_2"`
	Score     *int      `db:"score" json:"score"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// RegisterStudentRequest is the payload for registering a participant into a
// room.
type RegisterStudentRequest struct {
	FirstName string `json:"first_name" validate:"required,max=120"`
	LastName  string `json:"last_name" validate:"required,max=120"`
	Phone     string `json:"phone" validate:"required,max=32"`
	ClassName string `json:"class_name" validate:"required,max=32"`
	RoomID    string `json:"room_id" validate:"required,uuid"`
}

// UpdateScoreRequest carries one section mark as entered on the console. An
// empty value clears the section.
type UpdateScoreRequest struct {
	Value string `json:"value"`
}

// StudentFilter narrows student listings.
type StudentFilter struct {
	RoomID string
	Search string
}

// RankedStudent is a leaderboard row with the room name resolved for display.
type RankedStudent struct {
	Student
	RoomName *string `db:"room_name" json:"room_name,omitempty"`
}
