// Package state provides the room-scoped state store the coordinator runs
// against: an in-memory implementation for single-process deployments and a
// Redis-backed one for shared deployments. Both satisfy game.Store and apply
// update closures atomically per room.
package state

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"blast-arena/server/internal/game"
)

// MemoryStore keeps every room in process memory. Each room carries its own
// mutex, so read-modify-write sequences for one room are serialized while
// rooms never block on each other.
type MemoryStore struct {
	mu    sync.RWMutex
	rooms map[string]*memoryRoom
}

type memoryRoom struct {
	mu      sync.Mutex
	deleted bool
	state   game.RoomState
	players map[string]game.PlayerState
}

var _ game.Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{rooms: make(map[string]*memoryRoom)}
}

// acquire returns the live room locked, or nil when absent and create is
// false. The loop handles a room deleted between lookup and lock.
func (s *MemoryStore) acquire(roomID string, create bool) (*memoryRoom, string) {
	for {
		s.mu.Lock()
		room, ok := s.rooms[roomID]
		if !ok {
			if !create {
				s.mu.Unlock()
				return nil, roomID
			}
			room = &memoryRoom{players: make(map[string]game.PlayerState)}
			s.rooms[roomID] = room
		}
		s.mu.Unlock()

		room.mu.Lock()
		if room.deleted {
			room.mu.Unlock()
			continue
		}
		return room, roomID
	}
}

func (s *MemoryStore) JoinOrCreateRoom(ctx context.Context, roomID, accountID string, capacity int) (string, error) {
	if roomID == "" {
		roomID = uuid.New().String()
	}
	room, resolved := s.acquire(roomID, true)
	defer room.mu.Unlock()

	if _, member := room.players[accountID]; !member {
		if capacity > 0 && len(room.players) >= capacity {
			return "", game.ErrRoomFull
		}
		room.players[accountID] = game.PlayerState{AccountID: accountID}
	}
	return resolved, nil
}

func (s *MemoryStore) LeaveRoom(ctx context.Context, roomID, accountID string) error {
	room, _ := s.acquire(roomID, false)
	if room == nil {
		return game.ErrRoomNotFound
	}

	delete(room.players, accountID)
	empty := len(room.players) == 0
	if empty {
		room.deleted = true
	}
	room.mu.Unlock()

	if empty {
		s.mu.Lock()
		if current, ok := s.rooms[roomID]; ok && current == room {
			delete(s.rooms, roomID)
		}
		s.mu.Unlock()
	}
	return nil
}

func (s *MemoryStore) RoomUsers(ctx context.Context, roomID string) ([]string, error) {
	room, _ := s.acquire(roomID, false)
	if room == nil {
		return nil, game.ErrRoomNotFound
	}
	defer room.mu.Unlock()

	users := make([]string, 0, len(room.players))
	for id := range room.players {
		users = append(users, id)
	}
	sort.Strings(users)
	return users, nil
}

func (s *MemoryStore) GetRoom(ctx context.Context, roomID string) (game.RoomState, error) {
	room, _ := s.acquire(roomID, false)
	if room == nil {
		return game.RoomState{}, game.ErrRoomNotFound
	}
	defer room.mu.Unlock()
	return cloneRoomState(room.state), nil
}

func (s *MemoryStore) UpdateRoom(ctx context.Context, roomID string, fn func(*game.RoomState) error) (game.RoomState, error) {
	room, _ := s.acquire(roomID, false)
	if room == nil {
		return game.RoomState{}, game.ErrRoomNotFound
	}
	defer room.mu.Unlock()

	// fn runs on a deep copy so an aborting closure cannot leak partial
	// mutations into the stored state.
	draft := cloneRoomState(room.state)
	if err := fn(&draft); err != nil {
		return game.RoomState{}, err
	}
	room.state = draft
	return cloneRoomState(draft), nil
}

func (s *MemoryStore) GetPlayer(ctx context.Context, roomID, accountID string) (game.PlayerState, error) {
	room, _ := s.acquire(roomID, false)
	if room == nil {
		return game.PlayerState{}, game.ErrRoomNotFound
	}
	defer room.mu.Unlock()

	player, ok := room.players[accountID]
	if !ok {
		return game.PlayerState{}, game.ErrPlayerNotFound
	}
	return player, nil
}

func (s *MemoryStore) PutPlayer(ctx context.Context, roomID, accountID string, playerState game.PlayerState) error {
	room, _ := s.acquire(roomID, false)
	if room == nil {
		return game.ErrRoomNotFound
	}
	defer room.mu.Unlock()

	room.players[accountID] = playerState
	return nil
}

func (s *MemoryStore) UpdatePlayer(ctx context.Context, roomID, accountID string, fn func(*game.PlayerState) error) (game.PlayerState, error) {
	room, _ := s.acquire(roomID, false)
	if room == nil {
		return game.PlayerState{}, game.ErrRoomNotFound
	}
	defer room.mu.Unlock()

	player, ok := room.players[accountID]
	if !ok {
		return game.PlayerState{}, game.ErrPlayerNotFound
	}
	if err := fn(&player); err != nil {
		return game.PlayerState{}, err
	}
	room.players[accountID] = player
	return player, nil
}

// RoomIDs lists the currently live rooms.
func (s *MemoryStore) RoomIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.rooms))
	for id := range s.rooms {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func cloneRoomState(rs game.RoomState) game.RoomState {
	cloned := rs
	if rs.Obstacles != nil {
		cloned.Obstacles = append([]game.Obstacle(nil), rs.Obstacles...)
	}
	if rs.Powerups != nil {
		cloned.Powerups = append([]game.Powerup(nil), rs.Powerups...)
	}
	return cloned
}
