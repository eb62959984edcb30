package memory

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/soundrelay/soundrelay/internal/application/metric"
	"github.com/soundrelay/soundrelay/internal/domain/models"
)

var (
	ErrRoomExists   = errors.New("room already exists")
	ErrRoomNotFound = errors.New("room not found")
)

// RoomRegistry is the source of truth for room existence and membership.
// All returned member lists are copies, never live internal state.
type RoomRegistry interface {
	// CreateRoom registers a new room with the creator as its first member.
	// The connection is removed from any room it was in before; those rooms
	// are returned as updates for notification.
	CreateRoom(roomID string, connID uuid.UUID, name string) ([]models.Member, []models.RoomUpdate, error)

	// JoinRoom adds the connection to an existing room. Rejoining the same
	// room updates the display name in place. Joining a different room
	// implicitly leaves the previous one.
	JoinRoom(roomID string, connID uuid.UUID, name string) ([]models.Member, []models.RoomUpdate, error)

	// LeaveRoom removes the member and reports the remaining membership.
	// No-op (false) when the room or member does not exist.
	LeaveRoom(roomID string, connID uuid.UUID) (models.RoomUpdate, bool)

	// RemoveConnection drops the connection from every room it is in,
	// one update per room touched. Safe to call for unknown connections.
	RemoveConnection(connID uuid.UUID) []models.RoomUpdate

	// TouchActivity refreshes the room's last-activity timestamp and,
	// when connID matches a member, that member's as well.
	TouchActivity(roomID string, connID uuid.UUID)

	// Members returns the current membership ordered by join time.
	Members(roomID string) ([]models.Member, error)

	// SweepIdle deletes every room idle longer than idleTTL at the given
	// time, regardless of membership, and returns the removed room IDs.
	SweepIdle(idleTTL time.Duration, now time.Time) []string

	Len() int
}

type member struct {
	id           uuid.UUID
	name         string
	lastActivity time.Time
}

type room struct {
	id           string
	createdAt    time.Time
	lastActivity time.Time

	// ordered by join time
	members []*member
}

func (r *room) snapshot() []models.Member {
	out := make([]models.Member, 0, len(r.members))
	for _, m := range r.members {
		out = append(out, models.Member{ID: m.id, Name: m.name})
	}
	return out
}

func (r *room) find(connID uuid.UUID) (int, *member) {
	for i, m := range r.members {
		if m.id == connID {
			return i, m
		}
	}
	return -1, nil
}

type roomRegistry struct {
	rooms map[string]*room
	mu    sync.RWMutex
}

func NewRoomRegistry() RoomRegistry {
	return &roomRegistry{
		rooms: make(map[string]*room),
	}
}

func (r *roomRegistry) CreateRoom(roomID string, connID uuid.UUID, name string) ([]models.Member, []models.RoomUpdate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.rooms[roomID]; exists {
		return nil, nil, ErrRoomExists
	}

	left := r.removeFromRooms(connID, roomID)

	now := time.Now()
	rm := &room{
		id:           roomID,
		createdAt:    now,
		lastActivity: now,
		members:      []*member{{id: connID, name: name, lastActivity: now}},
	}
	r.rooms[roomID] = rm

	metric.SetActiveRooms(len(r.rooms))

	return rm.snapshot(), left, nil
}

func (r *roomRegistry) JoinRoom(roomID string, connID uuid.UUID, name string) ([]models.Member, []models.RoomUpdate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rm, exists := r.rooms[roomID]
	if !exists {
		// Joining an unknown code is a user error, never an auto-create.
		return nil, nil, ErrRoomNotFound
	}

	left := r.removeFromRooms(connID, roomID)

	now := time.Now()
	if _, m := rm.find(connID); m != nil {
		// idempotent rejoin, keep the original join order
		m.name = name
		m.lastActivity = now
	} else {
		rm.members = append(rm.members, &member{id: connID, name: name, lastActivity: now})
	}
	rm.lastActivity = now

	return rm.snapshot(), left, nil
}

func (r *roomRegistry) LeaveRoom(roomID string, connID uuid.UUID) (models.RoomUpdate, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rm, exists := r.rooms[roomID]
	if !exists {
		return models.RoomUpdate{}, false
	}

	i, m := rm.find(connID)
	if m == nil {
		return models.RoomUpdate{}, false
	}

	rm.members = append(rm.members[:i], rm.members[i+1:]...)
	rm.lastActivity = time.Now()

	update := models.RoomUpdate{
		RoomID:  roomID,
		Members: rm.snapshot(),
		Removed: models.Member{ID: m.id, Name: m.name},
	}

	r.deleteIfEmpty(rm)

	return update, true
}

func (r *roomRegistry) RemoveConnection(connID uuid.UUID) []models.RoomUpdate {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.removeFromRooms(connID)
}

// removeFromRooms drops the connection from every room except the listed
// ones and deletes rooms that become empty. Caller must hold the lock.
func (r *roomRegistry) removeFromRooms(connID uuid.UUID, except ...string) []models.RoomUpdate {
	var updates []models.RoomUpdate

	for roomID, rm := range r.rooms {
		skip := false
		for _, e := range except {
			if roomID == e {
				skip = true
				break
			}
		}
		if skip {
			continue
		}

		i, m := rm.find(connID)
		if m == nil {
			continue
		}

		rm.members = append(rm.members[:i], rm.members[i+1:]...)
		rm.lastActivity = time.Now()

		updates = append(updates, models.RoomUpdate{
			RoomID:  roomID,
			Members: rm.snapshot(),
			Removed: models.Member{ID: m.id, Name: m.name},
		})

		r.deleteIfEmpty(rm)
	}

	return updates
}

// deleteIfEmpty removes a room with no members. Caller must hold the lock.
func (r *roomRegistry) deleteIfEmpty(rm *room) {
	if len(rm.members) == 0 {
		delete(r.rooms, rm.id)
		metric.SetActiveRooms(len(r.rooms))
	}
}

func (r *roomRegistry) TouchActivity(roomID string, connID uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rm, exists := r.rooms[roomID]
	if !exists {
		return
	}

	now := time.Now()
	rm.lastActivity = now
	if _, m := rm.find(connID); m != nil {
		m.lastActivity = now
	}
}

func (r *roomRegistry) Members(roomID string) ([]models.Member, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rm, exists := r.rooms[roomID]
	if !exists {
		return nil, ErrRoomNotFound
	}

	return rm.snapshot(), nil
}

func (r *roomRegistry) SweepIdle(idleTTL time.Duration, now time.Time) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	var removed []string

	for roomID, rm := range r.rooms {
		if now.Sub(rm.lastActivity) > idleTTL {
			delete(r.rooms, roomID)
			removed = append(removed, roomID)
		}
	}

	if len(removed) > 0 {
		metric.SetActiveRooms(len(r.rooms))
	}

	return removed
}

func (r *roomRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.rooms)
}
