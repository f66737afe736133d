package game_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"blast-arena/server/internal/game"
)

func setSpawnClock(t *testing.T, env *testEnv, roomID string, last time.Time) {
	t.Helper()
	if _, err := env.store.UpdateRoom(context.Background(), roomID, func(rs *game.RoomState) error {
		rs.LastPowerupSpawn = last
		return nil
	}); err != nil {
		t.Fatalf("failed to set lastPowerupSpawn: %v", err)
	}
}

func addPowerup(t *testing.T, env *testEnv, roomID, id string, createdAt time.Time) {
	t.Helper()
	if _, err := env.store.UpdateRoom(context.Background(), roomID, func(rs *game.RoomState) error {
		rs.Powerups = append(rs.Powerups, game.Powerup{ID: id, Type: game.PowerupHealth, CreatedAt: createdAt})
		return nil
	}); err != nil {
		t.Fatalf("failed to add powerup: %v", err)
	}
}

func TestTickAdvancesGameTime(t *testing.T) {
	env := newTestEnv(t)
	joinN(t, env, "room-1", 1)

	if alive := env.coordinator.HandleTick(context.Background(), "room-1", 250*time.Millisecond); !alive {
		t.Fatalf("expected room to stay alive")
	}
	if alive := env.coordinator.HandleTick(context.Background(), "room-1", 250*time.Millisecond); !alive {
		t.Fatalf("expected room to stay alive")
	}

	room, err := env.store.GetRoom(context.Background(), "room-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if room.GameTime != 500 {
		t.Fatalf("expected gameTime 500, got %d", room.GameTime)
	}
}

func TestTickSpawnsWhenIntervalElapsed(t *testing.T) {
	env := newTestEnv(t)
	joinN(t, env, "room-1", 1)
	setSpawnClock(t, env, "room-1", env.clock.Now().Add(-15*time.Second))

	env.coordinator.HandleTick(context.Background(), "room-1", 250*time.Millisecond)

	room, err := env.store.GetRoom(context.Background(), "room-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(room.Powerups) != 1 {
		t.Fatalf("expected exactly one spawned powerup, got %d", len(room.Powerups))
	}
	if !room.LastPowerupSpawn.Equal(env.clock.Now()) {
		t.Fatalf("expected lastPowerupSpawn advanced to %v, got %v", env.clock.Now(), room.LastPowerupSpawn)
	}
}

func TestTickSkipsSpawnWithinInterval(t *testing.T) {
	env := newTestEnv(t)
	joinN(t, env, "room-1", 1)
	setSpawnClock(t, env, "room-1", env.clock.Now().Add(-5*time.Second))

	env.coordinator.HandleTick(context.Background(), "room-1", 250*time.Millisecond)

	room, err := env.store.GetRoom(context.Background(), "room-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(room.Powerups) != 0 {
		t.Fatalf("expected no spawn within interval, got %d", len(room.Powerups))
	}
}

func TestTickExpiresOnlyStalePowerups(t *testing.T) {
	env := newTestEnv(t)
	joinN(t, env, "room-1", 1)
	now := env.clock.Now()
	setSpawnClock(t, env, "room-1", now) // suppress spawning during this tick
	addPowerup(t, env, "room-1", "stale", now.Add(-30001*time.Millisecond))
	addPowerup(t, env, "room-1", "fresh", now.Add(-29999*time.Millisecond))

	env.coordinator.HandleTick(context.Background(), "room-1", 250*time.Millisecond)

	room, err := env.store.GetRoom(context.Background(), "room-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(room.Powerups) != 1 {
		t.Fatalf("expected one surviving powerup, got %d", len(room.Powerups))
	}
	if room.Powerups[0].ID != "fresh" {
		t.Fatalf("expected fresh powerup to survive, got %q", room.Powerups[0].ID)
	}

	expired := env.broadcast.byEvent(game.EventPowerupsExpired)
	if len(expired) != 1 {
		t.Fatalf("expected one powerupsExpired broadcast, got %d", len(expired))
	}
}

func TestTickMissingRoomReportsGone(t *testing.T) {
	env := newTestEnv(t)

	if alive := env.coordinator.HandleTick(context.Background(), "ghost-room", 250*time.Millisecond); alive {
		t.Fatalf("expected tick against missing room to report it gone")
	}

	failures := env.publisher.byType("simulation.tick_failure")
	if len(failures) != 0 {
		t.Fatalf("missing room is not a failure, got %d events", len(failures))
	}
}

type panickingStore struct {
	game.Store
}

func (s *panickingStore) UpdateRoom(ctx context.Context, roomID string, fn func(*game.RoomState) error) (game.RoomState, error) {
	panic("store corrupted")
}

func TestTickPanicKeepsRoomTicking(t *testing.T) {
	env := newTestEnv(t)
	joinN(t, env, "room-1", 1)

	publisher := &capturingPublisher{}
	coordinator := game.NewCoordinator(game.DefaultConfig(), &panickingStore{Store: env.store}, env.broadcast, env.clock, nil, publisher)

	if alive := coordinator.HandleTick(context.Background(), "room-1", 250*time.Millisecond); !alive {
		t.Fatalf("a panicking tick must not report the room as gone")
	}

	failures := publisher.byType("simulation.tick_failure")
	if len(failures) != 1 {
		t.Fatalf("expected one tick_failure event, got %d", len(failures))
	}
}

type failingStore struct {
	game.Store
	err error
}

func (s *failingStore) UpdateRoom(ctx context.Context, roomID string, fn func(*game.RoomState) error) (game.RoomState, error) {
	return game.RoomState{}, s.err
}

func TestTickFailureIsLoggedNotPropagated(t *testing.T) {
	env := newTestEnv(t)
	joinN(t, env, "room-1", 1)

	store := &failingStore{Store: env.store, err: errors.New("store down")}
	publisher := &capturingPublisher{}
	coordinator := game.NewCoordinator(game.DefaultConfig(), store, env.broadcast, env.clock, nil, publisher)

	if alive := coordinator.HandleTick(context.Background(), "room-1", 250*time.Millisecond); !alive {
		t.Fatalf("a failing tick must not stop the room")
	}

	failures := publisher.byType("simulation.tick_failure")
	if len(failures) != 1 {
		t.Fatalf("expected one tick_failure event, got %d", len(failures))
	}
	if failures[0].RoomID != "room-1" {
		t.Fatalf("expected failure tagged with room id, got %q", failures[0].RoomID)
	}
}
