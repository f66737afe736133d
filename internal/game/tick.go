package game

import (
	"context"
	"errors"
	"fmt"
	"time"

	powerupslog "blast-arena/server/logging/powerups"
	simulationlog "blast-arena/server/logging/simulation"
)

// HandleTick advances one room by delta: accumulate game time, spawn a
// powerup when the spawn interval elapsed, and purge expired powerups.
//
// Errors never escape: a failing room must not halt the scheduler or affect
// other rooms, so every failure is published with the failing step and the
// tick moves on. The returned bool reports whether the room still exists;
// false tells the scheduler to stop ticking it.
func (c *Coordinator) HandleTick(ctx context.Context, roomID string, delta time.Duration) (alive bool) {
	defer func() {
		if r := recover(); r != nil {
			c.tickFailure(ctx, roomID, "panic", fmt.Errorf("%v", r))
			alive = true
		}
	}()

	now := c.now()

	room, err := c.store.UpdateRoom(ctx, roomID, func(rs *RoomState) error {
		rs.GameTime += delta.Milliseconds()
		return nil
	})
	if errors.Is(err, ErrRoomNotFound) {
		// Torn down between ticks.
		return false
	}
	if err != nil {
		c.tickFailure(ctx, roomID, "advance_time", err)
		return true
	}

	if now.Sub(room.LastPowerupSpawn) > c.cfg.PowerupSpawnInterval {
		if _, err := c.SpawnPowerup(ctx, roomID); err != nil {
			c.tickFailure(ctx, roomID, "spawn_powerup", err)
		}
	}

	if err := c.expirePowerups(ctx, roomID, now); err != nil {
		c.tickFailure(ctx, roomID, "expire_powerups", err)
	}
	return true
}

// expirePowerups drops entries older than the TTL. The store write is skipped
// entirely when nothing expired.
func (c *Coordinator) expirePowerups(ctx context.Context, roomID string, now time.Time) error {
	var expired []string
	_, err := c.store.UpdateRoom(ctx, roomID, func(rs *RoomState) error {
		expired = expired[:0]
		filtered := rs.Powerups[:0]
		for _, p := range rs.Powerups {
			if now.Sub(p.CreatedAt) < c.cfg.PowerupTTL {
				filtered = append(filtered, p)
			} else {
				expired = append(expired, p.ID)
			}
		}
		if len(expired) == 0 {
			return errRoomUnchanged
		}
		rs.Powerups = filtered
		return nil
	})
	if err != nil {
		if errors.Is(err, errRoomUnchanged) || errors.Is(err, ErrRoomNotFound) {
			return nil
		}
		return err
	}

	powerupslog.Expired(ctx, c.publisher, roomID, powerupslog.ExpiredPayload{Removed: len(expired)})
	c.broadcast.BroadcastToRoom(roomID, EventPowerupsExpired, map[string]any{"powerupIds": expired})
	return nil
}

func (c *Coordinator) tickFailure(ctx context.Context, roomID, step string, err error) {
	simulationlog.TickFailure(ctx, c.publisher, roomID, simulationlog.TickFailurePayload{
		Step:  step,
		Error: err.Error(),
	})
}
