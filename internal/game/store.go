package game

import "context"

// Store is the room-scoped state collaborator. Implementations must apply
// every update closure atomically with respect to other writers of the same
// room: either serialized behind a per-room writer lock or retried under an
// optimistic transaction. Rooms never block on each other.
//
// An update closure returning an error aborts the write; nothing is persisted.
type Store interface {
	// JoinOrCreateRoom adds accountID to roomID, creating the room when
	// roomID is empty or unknown. Returns the resolved room id. Fails with
	// ErrRoomFull when occupancy has reached capacity; no state is mutated.
	JoinOrCreateRoom(ctx context.Context, roomID, accountID string, capacity int) (string, error)

	// LeaveRoom removes accountID from roomID. A no-op when the account is
	// not a member. Implementations tear the room down once it is empty.
	LeaveRoom(ctx context.Context, roomID, accountID string) error

	// RoomUsers lists the account ids currently in the room.
	RoomUsers(ctx context.Context, roomID string) ([]string, error)

	// GetRoom reads the room's shared state. ErrRoomNotFound when absent.
	GetRoom(ctx context.Context, roomID string) (RoomState, error)

	// UpdateRoom applies fn to the room's shared state atomically and returns
	// the state as persisted. ErrRoomNotFound when the room is absent.
	UpdateRoom(ctx context.Context, roomID string, fn func(*RoomState) error) (RoomState, error)

	// GetPlayer reads one player's state. ErrPlayerNotFound when absent.
	GetPlayer(ctx context.Context, roomID, accountID string) (PlayerState, error)

	// PutPlayer creates or replaces one player's state.
	PutPlayer(ctx context.Context, roomID, accountID string, state PlayerState) error

	// UpdatePlayer applies fn to one player's state atomically and returns
	// the state as persisted. ErrPlayerNotFound when the account is absent.
	UpdatePlayer(ctx context.Context, roomID, accountID string, fn func(*PlayerState) error) (PlayerState, error)
}

// Broadcaster fans a named event out to every subscriber of a room.
type Broadcaster interface {
	BroadcastToRoom(roomID, event string, payload any)
}

// NopBroadcaster drops every event. Useful in tests.
type NopBroadcaster struct{}

func (NopBroadcaster) BroadcastToRoom(string, string, any) {}

// RoomScheduler is notified when a room starts existing so tick delivery can
// begin. The scheduler stops a room on its own once ticks report it gone.
type RoomScheduler interface {
	Ensure(roomID string)
}
