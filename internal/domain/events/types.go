package events

import (
	"encoding/json"

	"github.com/google/uuid"

	"github.com/soundrelay/soundrelay/internal/domain/models"
)

// Inbound event types.
const (
	EventCreateRoom = "create-room"
	EventJoinRoom   = "join-room"
	EventPlaySound  = "play-sound"
	EventLeaveRoom  = "leave-room"
)

// Outbound event types. EventPlaySound is reused for the relayed broadcast.
const (
	EventRoomJoined  = "room-joined"
	EventRoomError   = "room-error"
	EventRoomUpdated = "room-updated"
)

// Membership change actions carried by room-updated.
const (
	ActionJoined       = "joined"
	ActionLeft         = "left"
	ActionDisconnected = "disconnected"
)

// Message is the envelope of every inbound websocket frame.
type Message struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Envelope is the outbound counterpart of Message.
type Envelope struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// CreateRoomEvent asks for a new room with the sender as first member.
type CreateRoomEvent struct {
	RoomID   string `json:"roomId"`
	UserName string `json:"userName"`
}

// JoinRoomEvent joins an existing room.
type JoinRoomEvent struct {
	RoomID   string `json:"roomId"`
	UserName string `json:"userName"`
}

// PlaySoundEvent is fired by a member to have roommates play a sound.
type PlaySoundEvent struct {
	RoomID    string `json:"roomId"`
	SoundID   string `json:"soundId"`
	Timestamp int64  `json:"timestamp"`
}

type LeaveRoomEvent struct {
	RoomID string `json:"roomId"`
}

// RoomJoinedEvent is replied to the sender after create-room or join-room.
type RoomJoinedEvent struct {
	RoomID   string          `json:"roomId"`
	ConnID   uuid.UUID       `json:"connectionId"`
	UserName string          `json:"userName"`
	Members  []models.Member `json:"members"`
}

type RoomErrorEvent struct {
	Message string `json:"message"`
}

// RoomUpdatedEvent is broadcast to a room when its membership changes.
type RoomUpdatedEvent struct {
	RoomID  string          `json:"roomId"`
	Members []models.Member `json:"members"`
	Action  string          `json:"action"`
	Member  models.Member   `json:"member"`
}

// PlaySoundBroadcast is relayed to every roommate except the sender.
type PlaySoundBroadcast struct {
	SoundID    string    `json:"soundId"`
	Timestamp  int64     `json:"timestamp"`
	SenderID   uuid.UUID `json:"senderConnectionId"`
	SenderName string    `json:"senderName"`
}

func ErrorEnvelope(message string) Envelope {
	return Envelope{Type: EventRoomError, Data: RoomErrorEvent{Message: message}}
}
