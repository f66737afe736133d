package game

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"blast-arena/server/logging"
	lifecyclelog "blast-arena/server/logging/lifecycle"
)

// Coordinator is the authoritative room coordinator: membership, combat
// state, powerup spawning, and the one-time obstacle layout. All room-state
// mutation funnels through the injected Store's atomic update primitive, so
// client calls and tick callbacks may interleave freely.
type Coordinator struct {
	cfg       Config
	store     Store
	broadcast Broadcaster
	clock     Clock
	publisher logging.Publisher
	scheduler RoomScheduler

	rngMu sync.Mutex
	rng   *rand.Rand

	nextPowerup atomic.Uint64
}

func NewCoordinator(cfg Config, store Store, broadcast Broadcaster, clock Clock, rng *rand.Rand, publisher logging.Publisher) *Coordinator {
	if broadcast == nil {
		broadcast = NopBroadcaster{}
	}
	if clock == nil {
		clock = ClockFunc(time.Now)
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if publisher == nil {
		publisher = logging.NopPublisher()
	}
	if len(cfg.PowerupTypes) == 0 {
		cfg.PowerupTypes = DefaultConfig().PowerupTypes
	}
	return &Coordinator{
		cfg:       cfg,
		store:     store,
		broadcast: broadcast,
		clock:     clock,
		rng:       rng,
		publisher: publisher,
	}
}

// SetScheduler wires the tick scheduler after construction (the scheduler
// needs the coordinator's tick handler first).
func (c *Coordinator) SetScheduler(s RoomScheduler) {
	c.scheduler = s
}

// Config returns the coordinator's gameplay configuration.
func (c *Coordinator) Config() Config {
	return c.cfg
}

// Join places accountID into the requested room, creating one when roomID is
// empty. The first joiner initializes the room exactly once; the store's
// atomic update guarantees concurrent first-joiners cannot produce competing
// obstacle layouts. Returns the resolved room id.
func (c *Coordinator) Join(ctx context.Context, roomID, accountID string) (string, error) {
	if roomID != "" {
		users, err := c.store.RoomUsers(ctx, roomID)
		if err != nil && !IsNotFound(err) {
			return "", fmt.Errorf("read occupancy for %s: %w", roomID, err)
		}
		if len(users) >= c.cfg.MaxPlayers {
			return "", ErrRoomFull
		}
	}

	resolved, err := c.store.JoinOrCreateRoom(ctx, roomID, accountID, c.cfg.MaxPlayers)
	if err != nil {
		return "", err
	}

	player := PlayerState{
		AccountID: accountID,
		X:         c.randomCoord(),
		Y:         c.randomCoord(),
		Health:    maxHealth,
	}
	if err := c.store.PutPlayer(ctx, resolved, accountID, player); err != nil {
		return "", fmt.Errorf("initialize player %s: %w", accountID, err)
	}

	initialized := false
	_, err = c.store.UpdateRoom(ctx, resolved, func(rs *RoomState) error {
		initialized = false
		if rs.Initialized {
			return nil
		}
		rs.Initialized = true
		rs.GameTime = 0
		rs.Obstacles = c.generateObstacles()
		rs.Powerups = make([]Powerup, 0)
		rs.LastPowerupSpawn = c.now()
		initialized = true
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("initialize room %s: %w", resolved, err)
	}
	if initialized {
		lifecyclelog.RoomInitialized(ctx, c.publisher, resolved, lifecyclelog.RoomInitializedPayload{
			ObstacleCount: c.cfg.ObstacleCount,
		})
	}

	if c.scheduler != nil {
		c.scheduler.Ensure(resolved)
	}

	lifecyclelog.PlayerJoined(ctx, c.publisher, resolved, playerRef(accountID), lifecyclelog.PlayerJoinedPayload{
		SpawnX: player.X,
		SpawnY: player.Y,
	})
	c.broadcast.BroadcastToRoom(resolved, EventPlayerJoined, player)

	return resolved, nil
}

// Leave removes accountID from the room. A no-op when the account was not a
// member; room teardown once empty belongs to the store.
func (c *Coordinator) Leave(ctx context.Context, roomID, accountID string) error {
	if err := c.store.LeaveRoom(ctx, roomID, accountID); err != nil {
		if IsNotFound(err) {
			return nil
		}
		return fmt.Errorf("leave room %s: %w", roomID, err)
	}
	lifecyclelog.PlayerLeft(ctx, c.publisher, roomID, playerRef(accountID))
	c.broadcast.BroadcastToRoom(roomID, EventPlayerLeft, map[string]string{"accountId": accountID})
	return nil
}

// SetPlayerData updates the caller's display name.
func (c *Coordinator) SetPlayerData(ctx context.Context, roomID, accountID, name string) error {
	state, err := c.store.UpdatePlayer(ctx, roomID, accountID, func(ps *PlayerState) error {
		ps.Name = name
		return nil
	})
	if err != nil {
		return fmt.Errorf("set player data for %s: %w", accountID, err)
	}
	c.broadcast.BroadcastToRoom(roomID, EventPlayerData, state)
	return nil
}

// UpdatePosition overwrites the caller's position, heading, and reported
// health. Health is clamped into [0, maxHealth] so the invariant holds even
// for out-of-range client reports.
func (c *Coordinator) UpdatePosition(ctx context.Context, roomID, accountID string, x, y, angle float64, health int) error {
	state, err := c.store.UpdatePlayer(ctx, roomID, accountID, func(ps *PlayerState) error {
		ps.X = x
		ps.Y = y
		ps.Angle = angle
		ps.Health = clampHealth(health)
		return nil
	})
	if err != nil {
		return fmt.Errorf("update position for %s: %w", accountID, err)
	}
	c.broadcast.BroadcastToRoom(roomID, EventPlayerMoved, state)
	return nil
}

// FireProjectile relays a shot to the room. Nothing is stored; trajectories
// are client-predicted.
func (c *Coordinator) FireProjectile(ctx context.Context, roomID string, projectile Projectile) {
	c.broadcast.BroadcastToRoom(roomID, EventProjectileFired, projectile)
}

func clampHealth(health int) int {
	if health < 0 {
		return 0
	}
	if health > maxHealth {
		return maxHealth
	}
	return health
}

// IsNotFound reports whether err marks an absent room or player.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrRoomNotFound) || errors.Is(err, ErrPlayerNotFound)
}

func playerRef(accountID string) logging.EntityRef {
	return logging.EntityRef{ID: accountID, Kind: logging.EntityKindPlayer}
}
