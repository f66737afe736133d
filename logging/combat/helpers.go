package combat

import (
	"context"

	"blast-arena/server/logging"
)

const (
	// EventDamage is emitted when a hit deals damage to a target.
	EventDamage logging.EventType = "combat.damage"
	// EventTargetMissing is emitted when damage is applied to an absent target.
	EventTargetMissing logging.EventType = "combat.target_missing"
	// EventDeath is emitted when a player dies and respawns.
	EventDeath logging.EventType = "combat.death"
)

// DamagePayload captures the amount dealt to a single target.
type DamagePayload struct {
	Amount       int `json:"amount"`
	TargetHealth int `json:"targetHealth"`
}

// DeathPayload describes a resolved death.
type DeathPayload struct {
	KillerScored bool `json:"killerScored"`
}

// Damage publishes a combat damage event for a single target.
func Damage(ctx context.Context, pub logging.Publisher, roomID string, actor, target logging.EntityRef, payload DamagePayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventDamage,
		RoomID:   roomID,
		Actor:    actor,
		Targets:  []logging.EntityRef{target},
		Severity: logging.SeverityInfo,
		Category: logging.CategoryCombat,
		Payload:  payload,
	})
}

// TargetMissing publishes a benign missing-target event.
func TargetMissing(ctx context.Context, pub logging.Publisher, roomID string, actor, target logging.EntityRef) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventTargetMissing,
		RoomID:   roomID,
		Actor:    actor,
		Targets:  []logging.EntityRef{target},
		Severity: logging.SeverityDebug,
		Category: logging.CategoryCombat,
	})
}

// Death publishes a death event.
func Death(ctx context.Context, pub logging.Publisher, roomID string, victim, killer logging.EntityRef, payload DeathPayload) {
	if pub == nil {
		return
	}
	event := logging.Event{
		Type:     EventDeath,
		RoomID:   roomID,
		Actor:    victim,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryCombat,
		Payload:  payload,
	}
	if killer.ID != "" {
		event.Targets = []logging.EntityRef{killer}
	}
	pub.Publish(ctx, event)
}
