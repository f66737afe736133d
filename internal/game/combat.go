package game

import (
	"context"
	"errors"
	"fmt"

	"blast-arena/server/logging"
	combatlog "blast-arena/server/logging/combat"
)

// ApplyDamage subtracts damage from the target's health, clamping at zero.
// A missing target yields TargetFound=false with no side effect; callers must
// treat that as benign, since the target may already have left the room.
func (c *Coordinator) ApplyDamage(ctx context.Context, roomID, targetID, attackerID string, damage int) (DamageResult, error) {
	state, err := c.store.UpdatePlayer(ctx, roomID, targetID, func(ps *PlayerState) error {
		ps.Health -= damage
		if ps.Health < 0 {
			ps.Health = 0
		}
		if ps.Health > maxHealth {
			ps.Health = maxHealth
		}
		return nil
	})
	if errors.Is(err, ErrPlayerNotFound) {
		combatlog.TargetMissing(ctx, c.publisher, roomID, playerRef(attackerID), playerRef(targetID))
		return DamageResult{TargetFound: false}, nil
	}
	if err != nil {
		return DamageResult{}, fmt.Errorf("apply damage to %s: %w", targetID, err)
	}

	combatlog.Damage(ctx, c.publisher, roomID, playerRef(attackerID), playerRef(targetID), combatlog.DamagePayload{
		Amount:       damage,
		TargetHealth: state.Health,
	})
	c.broadcast.BroadcastToRoom(roomID, EventPlayerHit, map[string]any{
		"targetId":   targetID,
		"attackerId": attackerID,
		"damage":     damage,
		"health":     state.Health,
	})
	return DamageResult{TargetFound: true, Health: state.Health}, nil
}

// ResolveDeath resets the victim to full health (position respawn is a client
// decision) and credits the killer with one point when the killer is present
// and is not the victim. A missing killer record skips the score silently.
func (c *Coordinator) ResolveDeath(ctx context.Context, roomID, playerID, killerID string) error {
	_, err := c.store.UpdatePlayer(ctx, roomID, playerID, func(ps *PlayerState) error {
		ps.Health = maxHealth
		return nil
	})
	if err != nil && !errors.Is(err, ErrPlayerNotFound) {
		return fmt.Errorf("respawn %s: %w", playerID, err)
	}

	killerScored := false
	if killerID != "" && killerID != playerID {
		_, err := c.store.UpdatePlayer(ctx, roomID, killerID, func(ps *PlayerState) error {
			ps.Score++
			return nil
		})
		switch {
		case errors.Is(err, ErrPlayerNotFound):
			// Killer already left; the kill goes uncredited.
		case err != nil:
			return fmt.Errorf("credit killer %s: %w", killerID, err)
		default:
			killerScored = true
		}
	}

	var killer logging.EntityRef
	if killerID != "" && killerID != playerID {
		killer = playerRef(killerID)
	}
	combatlog.Death(ctx, c.publisher, roomID, playerRef(playerID), killer, combatlog.DeathPayload{
		KillerScored: killerScored,
	})
	c.broadcast.BroadcastToRoom(roomID, EventPlayerDied, map[string]string{
		"playerId": playerID,
		"killerId": killerID,
	})
	return nil
}
