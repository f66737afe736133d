package powerups

import (
	"context"

	"blast-arena/server/logging"
)

const (
	// EventSpawned is emitted when a powerup is placed in a room.
	EventSpawned logging.EventType = "powerup.spawned"
	// EventCollected is emitted when a player removes a powerup.
	EventCollected logging.EventType = "powerup.collected"
	// EventExpired is emitted when the tick purges stale powerups.
	EventExpired logging.EventType = "powerup.expired"
)

// SpawnedPayload records placement details for one powerup.
type SpawnedPayload struct {
	Type string  `json:"type"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}

// ExpiredPayload records how many powerups a purge removed.
type ExpiredPayload struct {
	Removed int `json:"removed"`
}

// Spawned publishes a spawn event.
func Spawned(ctx context.Context, pub logging.Publisher, roomID string, powerup logging.EntityRef, payload SpawnedPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventSpawned,
		RoomID:   roomID,
		Actor:    powerup,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryGameplay,
		Payload:  payload,
	})
}

// Collected publishes a collection event.
func Collected(ctx context.Context, pub logging.Publisher, roomID string, player, powerup logging.EntityRef) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventCollected,
		RoomID:   roomID,
		Actor:    player,
		Targets:  []logging.EntityRef{powerup},
		Severity: logging.SeverityInfo,
		Category: logging.CategoryGameplay,
	})
}

// Expired publishes a purge event.
func Expired(ctx context.Context, pub logging.Publisher, roomID string, payload ExpiredPayload) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventExpired,
		RoomID:   roomID,
		Actor:    logging.EntityRef{ID: roomID, Kind: logging.EntityKindRoom},
		Severity: logging.SeverityDebug,
		Category: logging.CategoryGameplay,
		Payload:  payload,
	})
}
