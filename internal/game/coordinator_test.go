package game_test

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"testing"
	"time"

	"blast-arena/server/internal/game"
	"blast-arena/server/internal/state"
	"blast-arena/server/logging"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Unix(1700000000, 0)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type capturingPublisher struct {
	mu     sync.Mutex
	events []logging.Event
}

func (p *capturingPublisher) Publish(_ context.Context, event logging.Event) {
	p.mu.Lock()
	p.events = append(p.events, event)
	p.mu.Unlock()
}

func (p *capturingPublisher) byType(eventType logging.EventType) []logging.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []logging.Event
	for _, event := range p.events {
		if event.Type == eventType {
			out = append(out, event)
		}
	}
	return out
}

type capturingBroadcaster struct {
	mu     sync.Mutex
	events []broadcastRecord
}

type broadcastRecord struct {
	RoomID  string
	Event   string
	Payload any
}

func (b *capturingBroadcaster) BroadcastToRoom(roomID, event string, payload any) {
	b.mu.Lock()
	b.events = append(b.events, broadcastRecord{RoomID: roomID, Event: event, Payload: payload})
	b.mu.Unlock()
}

func (b *capturingBroadcaster) byEvent(event string) []broadcastRecord {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []broadcastRecord
	for _, record := range b.events {
		if record.Event == event {
			out = append(out, record)
		}
	}
	return out
}

type testEnv struct {
	coordinator *game.Coordinator
	store       *state.MemoryStore
	clock       *fakeClock
	publisher   *capturingPublisher
	broadcast   *capturingBroadcaster
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnvWithConfig(t, game.DefaultConfig())
}

func newTestEnvWithConfig(t *testing.T, cfg game.Config) *testEnv {
	t.Helper()
	store := state.NewMemoryStore()
	clock := newFakeClock()
	publisher := &capturingPublisher{}
	broadcast := &capturingBroadcaster{}
	coordinator := game.NewCoordinator(cfg, store, broadcast, clock, rand.New(rand.NewSource(1)), publisher)
	return &testEnv{
		coordinator: coordinator,
		store:       store,
		clock:       clock,
		publisher:   publisher,
		broadcast:   broadcast,
	}
}

func joinN(t *testing.T, env *testEnv, roomID string, count int) {
	t.Helper()
	for i := 0; i < count; i++ {
		accountID := string(rune('a'+i)) + "-player"
		if _, err := env.coordinator.Join(context.Background(), roomID, accountID); err != nil {
			t.Fatalf("unexpected join error for %s: %v", accountID, err)
		}
	}
}

func TestJoinCreatesRoomAndInitializesPlayer(t *testing.T) {
	env := newTestEnv(t)

	roomID, err := env.coordinator.Join(context.Background(), "", "alice")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if roomID == "" {
		t.Fatalf("expected a resolved room id")
	}

	player, err := env.store.GetPlayer(context.Background(), roomID, "alice")
	if err != nil {
		t.Fatalf("expected player record: %v", err)
	}
	if player.Health != 100 {
		t.Fatalf("expected full health on join, got %d", player.Health)
	}
	if player.Score != 0 {
		t.Fatalf("expected zero score on join, got %d", player.Score)
	}
	if player.X < 100 || player.X > 1900 || player.Y < 100 || player.Y > 1900 {
		t.Fatalf("spawn position out of range: (%v, %v)", player.X, player.Y)
	}
}

func TestJoinRejectsWhenRoomFull(t *testing.T) {
	env := newTestEnv(t)
	joinN(t, env, "room-1", 8)

	if _, err := env.coordinator.Join(context.Background(), "room-1", "ninth"); !errors.Is(err, game.ErrRoomFull) {
		t.Fatalf("expected ErrRoomFull, got %v", err)
	}

	users, err := env.store.RoomUsers(context.Background(), "room-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(users) != 8 {
		t.Fatalf("expected occupancy to stay 8, got %d", len(users))
	}
}

func TestRoomInitializesExactlyOnce(t *testing.T) {
	env := newTestEnv(t)

	if _, err := env.coordinator.Join(context.Background(), "room-1", "alice"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	first, err := env.store.GetRoom(context.Background(), "room-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !first.Initialized {
		t.Fatalf("expected room to be initialized after first join")
	}
	if len(first.Obstacles) != 30 {
		t.Fatalf("expected 30 obstacles, got %d", len(first.Obstacles))
	}
	if first.GameTime != 0 {
		t.Fatalf("expected game time 0, got %d", first.GameTime)
	}

	if _, err := env.coordinator.Join(context.Background(), "room-1", "bob"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := env.store.GetRoom(context.Background(), "room-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(second.Obstacles) != len(first.Obstacles) {
		t.Fatalf("obstacle count changed: %d vs %d", len(second.Obstacles), len(first.Obstacles))
	}
	for i := range first.Obstacles {
		if second.Obstacles[i] != first.Obstacles[i] {
			t.Fatalf("obstacle %d changed after second join", i)
		}
	}
}

func TestConcurrentFirstJoinsProduceOneLayout(t *testing.T) {
	env := newTestEnv(t)

	const joiners = 8
	var wg sync.WaitGroup
	errs := make([]error, joiners)
	for i := 0; i < joiners; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			accountID := string(rune('a'+i)) + "-racer"
			_, errs[i] = env.coordinator.Join(context.Background(), "race-room", accountID)
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("joiner %d failed: %v", i, err)
		}
	}

	room, err := env.store.GetRoom(context.Background(), "race-room")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(room.Obstacles) != 30 {
		t.Fatalf("expected a single 30-obstacle layout, got %d obstacles", len(room.Obstacles))
	}

	initEvents := env.publisher.byType("lifecycle.room_initialized")
	if len(initEvents) != 1 {
		t.Fatalf("expected exactly one room_initialized event, got %d", len(initEvents))
	}
}

// replayingStore runs each update closure once against a stale snapshot
// before committing against the live store, the way an optimistic transaction
// re-runs the closure on fresh state after a conflicting write.
type replayingStore struct {
	game.Store
	stale game.RoomState
}

func (s *replayingStore) UpdateRoom(ctx context.Context, roomID string, fn func(*game.RoomState) error) (game.RoomState, error) {
	draft := s.stale
	_ = fn(&draft)
	return s.Store.UpdateRoom(ctx, roomID, fn)
}

func TestJoinRetryDoesNotReplayInitialization(t *testing.T) {
	env := newTestEnv(t)
	joinN(t, env, "room-1", 1)

	// The first closure run sees an uninitialized room; the committed run
	// sees the room already initialized.
	store := &replayingStore{Store: env.store}
	publisher := &capturingPublisher{}
	coordinator := game.NewCoordinator(game.DefaultConfig(), store, env.broadcast, env.clock, rand.New(rand.NewSource(2)), publisher)

	if _, err := coordinator.Join(context.Background(), "room-1", "late-joiner"); err != nil {
		t.Fatalf("unexpected join error: %v", err)
	}

	initEvents := publisher.byType("lifecycle.room_initialized")
	if len(initEvents) != 0 {
		t.Fatalf("retried join replayed initialization: %d events", len(initEvents))
	}
}

func TestLeaveUnknownRoomIsNoop(t *testing.T) {
	env := newTestEnv(t)
	if err := env.coordinator.Leave(context.Background(), "ghost-room", "alice"); err != nil {
		t.Fatalf("expected leave of unknown room to be a no-op, got %v", err)
	}
}

func TestLeaveLastPlayerTearsRoomDown(t *testing.T) {
	env := newTestEnv(t)
	joinN(t, env, "room-1", 1)

	if err := env.coordinator.Leave(context.Background(), "room-1", "a-player"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := env.store.GetRoom(context.Background(), "room-1"); !errors.Is(err, game.ErrRoomNotFound) {
		t.Fatalf("expected room to be torn down, got %v", err)
	}
}

func TestSetPlayerDataUpdatesName(t *testing.T) {
	env := newTestEnv(t)
	joinN(t, env, "room-1", 1)

	if err := env.coordinator.SetPlayerData(context.Background(), "room-1", "a-player", "Crusher"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	player, err := env.store.GetPlayer(context.Background(), "room-1", "a-player")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if player.Name != "Crusher" {
		t.Fatalf("expected name Crusher, got %q", player.Name)
	}
}

func TestUpdatePositionClampsReportedHealth(t *testing.T) {
	env := newTestEnv(t)
	joinN(t, env, "room-1", 1)

	if err := env.coordinator.UpdatePosition(context.Background(), "room-1", "a-player", 500, 600, 1.5, 250); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	player, err := env.store.GetPlayer(context.Background(), "room-1", "a-player")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if player.Health != 100 {
		t.Fatalf("expected health clamped to 100, got %d", player.Health)
	}
	if player.X != 500 || player.Y != 600 || player.Angle != 1.5 {
		t.Fatalf("position not stored: %+v", player)
	}
}

func TestFireProjectileBroadcastsWithoutState(t *testing.T) {
	env := newTestEnv(t)
	joinN(t, env, "room-1", 1)

	before, err := env.store.GetRoom(context.Background(), "room-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	env.coordinator.FireProjectile(context.Background(), "room-1", game.Projectile{OwnerID: "a-player", X: 1, Y: 2, Angle: 3})

	fired := env.broadcast.byEvent(game.EventProjectileFired)
	if len(fired) != 1 {
		t.Fatalf("expected one projectileFired broadcast, got %d", len(fired))
	}

	after, err := env.store.GetRoom(context.Background(), "room-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if after.GameTime != before.GameTime || len(after.Powerups) != len(before.Powerups) {
		t.Fatalf("projectile fire mutated room state")
	}
}
