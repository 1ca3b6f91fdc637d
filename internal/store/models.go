package store

import "time"

// User is a privileged account. Attendees never have a row here; they vote
// anonymously or by network address.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

type Room struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

// Slot is a scheduled time window. RoomID is nullable until a facilitator
// assigns one; RoomName is populated by the slot listing join.
type Slot struct {
	ID              string    `json:"id"`
	StartTime       string    `json:"start_time"`
	DurationMinutes int       `json:"duration_minutes"`
	RoomID          *string   `json:"roomId"`
	RoomName        *string   `json:"roomName"`
	CreatedAt       time.Time `json:"createdAt"`
}
