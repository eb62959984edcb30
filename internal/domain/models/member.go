package models

import (
	"github.com/google/uuid"
)

// Member is a connection's association with a room.
type Member struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// RoomUpdate is a membership snapshot of one room after a member
// was removed from it, used to notify the remaining members.
type RoomUpdate struct {
	RoomID  string
	Members []Member
	Removed Member
}
