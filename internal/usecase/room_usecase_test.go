package usecase

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/soundrelay/soundrelay/internal/domain/events"
	"github.com/soundrelay/soundrelay/internal/infra/adapters/memory"
)

// fakeConnRepo records every envelope written per connection.
type fakeConnRepo struct {
	mu     sync.Mutex
	writes map[uuid.UUID][]events.Envelope
}

func newFakeConnRepo() *fakeConnRepo {
	return &fakeConnRepo{writes: make(map[uuid.UUID][]events.Envelope)}
}

func (f *fakeConnRepo) Add(uuid.UUID, *websocket.Conn) {}
func (f *fakeConnRepo) Remove(uuid.UUID)               {}

func (f *fakeConnRepo) Write(connID uuid.UUID, payload any) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.writes[connID] = append(f.writes[connID], payload.(events.Envelope))
}

func (f *fakeConnRepo) sent(connID uuid.UUID) []events.Envelope {
	f.mu.Lock()
	defer f.mu.Unlock()

	return append([]events.Envelope(nil), f.writes[connID]...)
}

func (f *fakeConnRepo) reset() {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.writes = make(map[uuid.UUID][]events.Envelope)
}

func (f *fakeConnRepo) lastOfType(connID uuid.UUID, eventType string) (events.Envelope, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for i := len(f.writes[connID]) - 1; i >= 0; i-- {
		if f.writes[connID][i].Type == eventType {
			return f.writes[connID][i], true
		}
	}
	return events.Envelope{}, false
}

func newTestUsecase() (RoomUsecase, *fakeConnRepo) {
	repo := newFakeConnRepo()
	return NewRoomUsecase(memory.NewRoomRegistry(), repo), repo
}

func TestCreateRoomRepliesToCreator(t *testing.T) {
	ctx := context.Background()
	u, repo := newTestUsecase()
	alice := uuid.New()

	u.HandleCreateRoom(ctx, alice, events.CreateRoomEvent{RoomID: "ab12cd34", UserName: "Alice"})

	env, ok := repo.lastOfType(alice, events.EventRoomJoined)
	if !ok {
		t.Fatalf("creator got no room-joined, writes: %+v", repo.sent(alice))
	}

	joined := env.Data.(events.RoomJoinedEvent)
	if joined.RoomID != "ab12cd34" || joined.ConnID != alice || joined.UserName != "Alice" {
		t.Fatalf("unexpected room-joined: %+v", joined)
	}
	if len(joined.Members) != 1 {
		t.Fatalf("expected 1 member, got %+v", joined.Members)
	}
}

func TestCreateDuplicateRoomRepliesError(t *testing.T) {
	ctx := context.Background()
	u, repo := newTestUsecase()
	alice, bob := uuid.New(), uuid.New()

	u.HandleCreateRoom(ctx, alice, events.CreateRoomEvent{RoomID: "room", UserName: "Alice"})
	u.HandleCreateRoom(ctx, bob, events.CreateRoomEvent{RoomID: "room", UserName: "Bob"})

	if _, ok := repo.lastOfType(bob, events.EventRoomError); !ok {
		t.Fatalf("expected room-error for duplicate create, got %+v", repo.sent(bob))
	}
}

func TestJoinUnknownRoomRepliesError(t *testing.T) {
	ctx := context.Background()
	u, repo := newTestUsecase()
	bob := uuid.New()

	u.HandleJoinRoom(ctx, bob, events.JoinRoomEvent{RoomID: "missing", UserName: "Bob"})

	env, ok := repo.lastOfType(bob, events.EventRoomError)
	if !ok {
		t.Fatalf("expected room-error, got %+v", repo.sent(bob))
	}
	if env.Data.(events.RoomErrorEvent).Message != "room not found" {
		t.Fatalf("unexpected error message: %+v", env.Data)
	}
}

func TestJoinBroadcastsRoomUpdated(t *testing.T) {
	ctx := context.Background()
	u, repo := newTestUsecase()
	alice, bob := uuid.New(), uuid.New()

	u.HandleCreateRoom(ctx, alice, events.CreateRoomEvent{RoomID: "room", UserName: "Alice"})
	u.HandleJoinRoom(ctx, bob, events.JoinRoomEvent{RoomID: "room", UserName: "Bob"})

	// both members see the updated membership
	for _, connID := range []uuid.UUID{alice, bob} {
		env, ok := repo.lastOfType(connID, events.EventRoomUpdated)
		if !ok {
			t.Fatalf("no room-updated for %s", connID)
		}

		updated := env.Data.(events.RoomUpdatedEvent)
		if updated.Action != events.ActionJoined || len(updated.Members) != 2 {
			t.Fatalf("unexpected room-updated: %+v", updated)
		}
		if updated.Member.ID != bob || updated.Member.Name != "Bob" {
			t.Fatalf("unexpected affected member: %+v", updated.Member)
		}
	}
}

func TestPlaySoundRelaysToRoommatesOnly(t *testing.T) {
	ctx := context.Background()
	u, repo := newTestUsecase()
	alice, bob := uuid.New(), uuid.New()

	u.HandleCreateRoom(ctx, alice, events.CreateRoomEvent{RoomID: "room", UserName: "Alice"})
	u.HandleJoinRoom(ctx, bob, events.JoinRoomEvent{RoomID: "room", UserName: "Bob"})
	repo.reset()

	u.HandlePlaySound(ctx, bob, events.PlaySoundEvent{RoomID: "room", SoundID: "boing", Timestamp: 42})

	env, ok := repo.lastOfType(alice, events.EventPlaySound)
	if !ok {
		t.Fatalf("roommate got no play-sound, writes: %+v", repo.sent(alice))
	}

	play := env.Data.(events.PlaySoundBroadcast)
	if play.SoundID != "boing" || play.Timestamp != 42 || play.SenderID != bob || play.SenderName != "Bob" {
		t.Fatalf("unexpected play-sound: %+v", play)
	}
	if got := repo.sent(alice); len(got) != 1 {
		t.Fatalf("roommate should receive exactly one event, got %+v", got)
	}

	// never echoed back to the sender
	if got := repo.sent(bob); len(got) != 0 {
		t.Fatalf("sender received its own event: %+v", got)
	}
}

func TestPlaySoundSwallowsUnknownRoomAndNonMember(t *testing.T) {
	ctx := context.Background()
	u, repo := newTestUsecase()
	alice, mallory := uuid.New(), uuid.New()

	u.HandleCreateRoom(ctx, alice, events.CreateRoomEvent{RoomID: "room", UserName: "Alice"})
	repo.reset()

	u.HandlePlaySound(ctx, alice, events.PlaySoundEvent{RoomID: "missing", SoundID: "boing"})
	u.HandlePlaySound(ctx, mallory, events.PlaySoundEvent{RoomID: "room", SoundID: "boing"})
	u.HandlePlaySound(ctx, alice, events.PlaySoundEvent{RoomID: "room"})

	for _, connID := range []uuid.UUID{alice, mallory} {
		if got := repo.sent(connID); len(got) != 0 {
			t.Fatalf("fire-and-forget error leaked a reply: %+v", got)
		}
	}
}

func TestLeaveRoomNotifiesRemaining(t *testing.T) {
	ctx := context.Background()
	u, repo := newTestUsecase()
	alice, bob := uuid.New(), uuid.New()

	u.HandleCreateRoom(ctx, alice, events.CreateRoomEvent{RoomID: "room", UserName: "Alice"})
	u.HandleJoinRoom(ctx, bob, events.JoinRoomEvent{RoomID: "room", UserName: "Bob"})
	repo.reset()

	u.HandleLeaveRoom(ctx, bob, events.LeaveRoomEvent{RoomID: "room"})

	env, ok := repo.lastOfType(alice, events.EventRoomUpdated)
	if !ok {
		t.Fatalf("remaining member got no room-updated")
	}

	updated := env.Data.(events.RoomUpdatedEvent)
	if updated.Action != events.ActionLeft || len(updated.Members) != 1 {
		t.Fatalf("unexpected room-updated: %+v", updated)
	}

	if got := repo.sent(bob); len(got) != 0 {
		t.Fatalf("leaver should not be notified: %+v", got)
	}
}

// Full walkthrough: create, join, play, disconnect, leave, rejoin attempt.
func TestSoundboardSession(t *testing.T) {
	ctx := context.Background()
	u, repo := newTestUsecase()
	alice, bob := uuid.New(), uuid.New()

	u.HandleCreateRoom(ctx, alice, events.CreateRoomEvent{RoomID: "ab12cd34", UserName: "Alice"})
	u.HandleJoinRoom(ctx, bob, events.JoinRoomEvent{RoomID: "ab12cd34", UserName: "Bob"})

	repo.reset()
	u.HandlePlaySound(ctx, bob, events.PlaySoundEvent{RoomID: "ab12cd34", SoundID: "boing", Timestamp: 1})

	env, ok := repo.lastOfType(alice, events.EventPlaySound)
	if !ok {
		t.Fatal("Alice did not hear Bob's sound")
	}
	if env.Data.(events.PlaySoundBroadcast).SenderName != "Bob" {
		t.Fatalf("unexpected sender: %+v", env.Data)
	}

	repo.reset()
	u.HandleDisconnect(ctx, alice)

	env, ok = repo.lastOfType(bob, events.EventRoomUpdated)
	if !ok {
		t.Fatal("Bob was not told about Alice's disconnect")
	}
	updated := env.Data.(events.RoomUpdatedEvent)
	if updated.Action != events.ActionDisconnected || len(updated.Members) != 1 {
		t.Fatalf("unexpected room-updated: %+v", updated)
	}

	// room still alive with Bob in it
	repo.reset()
	u.HandlePlaySound(ctx, bob, events.PlaySoundEvent{RoomID: "ab12cd34", SoundID: "boing"})
	if _, ok := repo.lastOfType(bob, events.EventRoomError); ok {
		t.Fatal("room vanished while it still had a member")
	}

	u.HandleLeaveRoom(ctx, bob, events.LeaveRoomEvent{RoomID: "ab12cd34"})

	// last member gone, the code is dead until re-created
	repo.reset()
	u.HandleJoinRoom(ctx, bob, events.JoinRoomEvent{RoomID: "ab12cd34", UserName: "Bob"})
	if _, ok := repo.lastOfType(bob, events.EventRoomError); !ok {
		t.Fatalf("join to a deleted room must fail, got %+v", repo.sent(bob))
	}
}

func TestDisconnectWithoutRoomIsNoop(t *testing.T) {
	ctx := context.Background()
	u, repo := newTestUsecase()

	u.HandleDisconnect(ctx, uuid.New())

	if len(repo.writes) != 0 {
		t.Fatalf("unexpected writes: %+v", repo.writes)
	}
}

func TestAnonymousDisplayName(t *testing.T) {
	ctx := context.Background()
	u, repo := newTestUsecase()
	alice := uuid.New()

	u.HandleCreateRoom(ctx, alice, events.CreateRoomEvent{RoomID: "room"})

	env, ok := repo.lastOfType(alice, events.EventRoomJoined)
	if !ok {
		t.Fatal("creator got no room-joined")
	}
	if env.Data.(events.RoomJoinedEvent).UserName != "Anonymous" {
		t.Fatalf("expected Anonymous fallback, got %+v", env.Data)
	}
}
