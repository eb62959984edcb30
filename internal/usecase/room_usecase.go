package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/soundrelay/soundrelay/internal/application/constant"
	"github.com/soundrelay/soundrelay/internal/application/metric"
	"github.com/soundrelay/soundrelay/internal/domain/events"
	"github.com/soundrelay/soundrelay/internal/domain/models"
	"github.com/soundrelay/soundrelay/internal/infra/adapters/memory"
)

// ErrNotAMember is reported when a play-sound arrives from a connection
// that is not registered in the target room.
var ErrNotAMember = errors.New("not a member of the room")

// RoomUsecase handles room lifecycle events and relays play-sound
// notifications to roommates. Errors on create/join are replied to the
// sender as room-error; errors on fire-and-forget events are only logged.
type RoomUsecase interface {
	HandleCreateRoom(ctx context.Context, connID uuid.UUID, ev events.CreateRoomEvent)
	HandleJoinRoom(ctx context.Context, connID uuid.UUID, ev events.JoinRoomEvent)
	HandlePlaySound(ctx context.Context, connID uuid.UUID, ev events.PlaySoundEvent)
	HandleLeaveRoom(ctx context.Context, connID uuid.UUID, ev events.LeaveRoomEvent)
	HandleDisconnect(ctx context.Context, connID uuid.UUID)
}

type roomUsecase struct {
	registry memory.RoomRegistry
	wsRepo   memory.WebsocketConnectionRepository
}

func NewRoomUsecase(registry memory.RoomRegistry, wsRepo memory.WebsocketConnectionRepository) RoomUsecase {
	return &roomUsecase{
		registry: registry,
		wsRepo:   wsRepo,
	}
}

func (u *roomUsecase) HandleCreateRoom(ctx context.Context, connID uuid.UUID, ev events.CreateRoomEvent) {
	if ev.RoomID == "" {
		u.wsRepo.Write(connID, events.ErrorEnvelope("roomId is required"))
		return
	}

	name := displayNameOrDefault(ev.UserName)

	members, left, err := u.registry.CreateRoom(ev.RoomID, connID, name)
	if err != nil {
		u.wsRepo.Write(connID, events.ErrorEnvelope("room already exists"))
		return
	}

	u.notifyLeft(left)

	slog.Info(
		"room created",
		slog.String(constant.RoomID, ev.RoomID),
		slog.Any(constant.ConnID, connID),
		slog.String(constant.UserName, name),
	)

	u.wsRepo.Write(connID, events.Envelope{
		Type: events.EventRoomJoined,
		Data: events.RoomJoinedEvent{
			RoomID:   ev.RoomID,
			ConnID:   connID,
			UserName: name,
			Members:  members,
		},
	})
}

func (u *roomUsecase) HandleJoinRoom(ctx context.Context, connID uuid.UUID, ev events.JoinRoomEvent) {
	if ev.RoomID == "" {
		u.wsRepo.Write(connID, events.ErrorEnvelope("roomId is required"))
		return
	}

	name := displayNameOrDefault(ev.UserName)

	members, left, err := u.registry.JoinRoom(ev.RoomID, connID, name)
	if err != nil {
		u.wsRepo.Write(connID, events.ErrorEnvelope("room not found"))
		return
	}

	u.notifyLeft(left)

	slog.Info(
		"member joined room",
		slog.String(constant.RoomID, ev.RoomID),
		slog.Any(constant.ConnID, connID),
		slog.String(constant.UserName, name),
	)

	u.wsRepo.Write(connID, events.Envelope{
		Type: events.EventRoomJoined,
		Data: events.RoomJoinedEvent{
			RoomID:   ev.RoomID,
			ConnID:   connID,
			UserName: name,
			Members:  members,
		},
	})

	u.broadcast(members, uuid.Nil, events.Envelope{
		Type: events.EventRoomUpdated,
		Data: events.RoomUpdatedEvent{
			RoomID:  ev.RoomID,
			Members: members,
			Action:  events.ActionJoined,
			Member:  models.Member{ID: connID, Name: name},
		},
	})
}

func (u *roomUsecase) HandlePlaySound(ctx context.Context, connID uuid.UUID, ev events.PlaySoundEvent) {
	// Fire-and-forget: the sender cannot usefully recover, so every
	// failure here is logged and swallowed.
	if ev.RoomID == "" || ev.SoundID == "" {
		slog.Warn("play-sound with missing roomId or soundId", slog.Any(constant.ConnID, connID))
		return
	}

	members, err := u.registry.Members(ev.RoomID)
	if err != nil {
		slog.Warn(
			"play-sound for unknown room",
			slog.String(constant.RoomID, ev.RoomID),
			slog.String(constant.SoundID, ev.SoundID),
		)
		return
	}

	var sender *models.Member
	for i := range members {
		if members[i].ID == connID {
			sender = &members[i]
			break
		}
	}
	if sender == nil {
		slog.Warn(
			"play-sound from non-member",
			slog.Any(constant.Error, ErrNotAMember),
			slog.String(constant.RoomID, ev.RoomID),
			slog.Any(constant.ConnID, connID),
		)
		return
	}

	u.registry.TouchActivity(ev.RoomID, connID)
	metric.IncrementSoundPlays(ev.SoundID)

	slog.Info(
		"sound relayed",
		slog.String(constant.RoomID, ev.RoomID),
		slog.String(constant.SoundID, ev.SoundID),
		slog.String(constant.UserName, sender.Name),
	)

	u.broadcast(members, connID, events.Envelope{
		Type: events.EventPlaySound,
		Data: events.PlaySoundBroadcast{
			SoundID:    ev.SoundID,
			Timestamp:  ev.Timestamp,
			SenderID:   connID,
			SenderName: sender.Name,
		},
	})
}

func (u *roomUsecase) HandleLeaveRoom(ctx context.Context, connID uuid.UUID, ev events.LeaveRoomEvent) {
	update, ok := u.registry.LeaveRoom(ev.RoomID, connID)
	if !ok {
		return
	}

	slog.Info(
		"member left room",
		slog.String(constant.RoomID, ev.RoomID),
		slog.Any(constant.ConnID, connID),
	)

	u.notifyUpdate(update, events.ActionLeft)
}

func (u *roomUsecase) HandleDisconnect(ctx context.Context, connID uuid.UUID) {
	for _, update := range u.registry.RemoveConnection(connID) {
		slog.Info(
			"member disconnected from room",
			slog.String(constant.RoomID, update.RoomID),
			slog.Any(constant.ConnID, connID),
		)

		u.notifyUpdate(update, events.ActionDisconnected)
	}
}

// notifyLeft tells rooms a member implicitly left by joining elsewhere.
func (u *roomUsecase) notifyLeft(updates []models.RoomUpdate) {
	for _, update := range updates {
		u.notifyUpdate(update, events.ActionLeft)
	}
}

func (u *roomUsecase) notifyUpdate(update models.RoomUpdate, action string) {
	u.broadcast(update.Members, update.Removed.ID, events.Envelope{
		Type: events.EventRoomUpdated,
		Data: events.RoomUpdatedEvent{
			RoomID:  update.RoomID,
			Members: update.Members,
			Action:  action,
			Member:  update.Removed,
		},
	})
}

// broadcast writes the envelope to every member except the excluded
// connection. Delivery is best-effort, at most once per recipient.
func (u *roomUsecase) broadcast(members []models.Member, exclude uuid.UUID, envelope events.Envelope) {
	for _, m := range members {
		if m.ID == exclude {
			continue
		}
		u.wsRepo.Write(m.ID, envelope)
	}
}

func displayNameOrDefault(name string) string {
	if name == "" {
		return "Anonymous"
	}
	return name
}
