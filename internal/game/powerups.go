package game

import (
	"context"
	"errors"
	"fmt"

	"blast-arena/server/logging"
	powerupslog "blast-arena/server/logging/powerups"
)

// SpawnPowerup places a new powerup uniformly in the spawn range and records
// the spawn timestamp. The powerup append and lastPowerupSpawn advance are
// persisted in one store update, so a failed write leaves neither behind.
func (c *Coordinator) SpawnPowerup(ctx context.Context, roomID string) (Powerup, error) {
	now := c.now()
	powerup := Powerup{
		ID:        fmt.Sprintf("powerup-%d-%d", now.UnixMilli(), c.nextPowerup.Add(1)),
		X:         c.randomCoord(),
		Y:         c.randomCoord(),
		Type:      c.cfg.PowerupTypes[c.randomIntn(len(c.cfg.PowerupTypes))],
		CreatedAt: now,
	}

	_, err := c.store.UpdateRoom(ctx, roomID, func(rs *RoomState) error {
		rs.Powerups = append(rs.Powerups, powerup)
		if now.After(rs.LastPowerupSpawn) {
			rs.LastPowerupSpawn = now
		}
		return nil
	})
	if err != nil {
		return Powerup{}, fmt.Errorf("spawn powerup in %s: %w", roomID, err)
	}

	powerupslog.Spawned(ctx, c.publisher, roomID, powerupRef(powerup.ID), powerupslog.SpawnedPayload{
		Type: string(powerup.Type),
		X:    powerup.X,
		Y:    powerup.Y,
	})
	c.broadcast.BroadcastToRoom(roomID, EventPowerupSpawned, powerup)
	return powerup, nil
}

// CollectPowerup removes the matching entry from the room's shared list. An
// unknown id is a no-op: the powerup was already collected or expired. The
// gameplay effect itself is applied by the caller, not here.
func (c *Coordinator) CollectPowerup(ctx context.Context, roomID, accountID, powerupID string) error {
	removed := false
	_, err := c.store.UpdateRoom(ctx, roomID, func(rs *RoomState) error {
		removed = false
		filtered := rs.Powerups[:0]
		for _, p := range rs.Powerups {
			if p.ID == powerupID {
				removed = true
				continue
			}
			filtered = append(filtered, p)
		}
		if !removed {
			return errRoomUnchanged
		}
		rs.Powerups = filtered
		return nil
	})
	if err != nil {
		if errors.Is(err, errRoomUnchanged) {
			return nil
		}
		return fmt.Errorf("collect powerup %s in %s: %w", powerupID, roomID, err)
	}

	powerupslog.Collected(ctx, c.publisher, roomID, playerRef(accountID), powerupRef(powerupID))
	c.broadcast.BroadcastToRoom(roomID, EventPowerupCollected, map[string]string{
		"powerupId": powerupID,
		"accountId": accountID,
	})
	return nil
}

func powerupRef(id string) logging.EntityRef {
	return logging.EntityRef{ID: id, Kind: logging.EntityKindPowerup}
}
