package game

import "time"

// PowerupType enumerates the collectible kinds a room can spawn.
type PowerupType string

const (
	PowerupHealth PowerupType = "health"
	PowerupSpeed  PowerupType = "speed"
)

// Obstacle is a static collision feature placed once at room creation.
// Border obstacles are a deterministic function of the world bounds and are
// reconstructed by every client; they are never stored in room state.
type Obstacle struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Powerup is a transient collectible with a bounded lifetime.
type Powerup struct {
	ID        string      `json:"id"`
	X         float64     `json:"x"`
	Y         float64     `json:"y"`
	Type      PowerupType `json:"type"`
	CreatedAt time.Time   `json:"createdAt"`
}

// PlayerState holds the authoritative per-player fields within a room.
type PlayerState struct {
	AccountID string  `json:"accountId"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Angle     float64 `json:"angle"`
	Health    int     `json:"health"`
	Score     int     `json:"score"`
	Name      string  `json:"name,omitempty"`
}

// RoomState holds the shared room-scoped fields all clients reconcile against.
type RoomState struct {
	Initialized      bool       `json:"initialized"`
	GameTime         int64      `json:"gameTime"` // accumulated milliseconds
	Obstacles        []Obstacle `json:"obstacles"`
	Powerups         []Powerup  `json:"powerups"`
	LastPowerupSpawn time.Time  `json:"lastPowerupSpawn"`
}

const (
	maxHealth = 100

	// Broadcast event names, shared with the client protocol.
	EventPlayerJoined     = "playerJoined"
	EventPlayerLeft       = "playerLeft"
	EventPlayerData       = "playerData"
	EventPlayerMoved      = "playerMoved"
	EventProjectileFired  = "projectileFired"
	EventPlayerHit        = "playerHit"
	EventPlayerDied       = "playerDied"
	EventPowerupSpawned   = "powerupSpawned"
	EventPowerupCollected = "powerupCollected"
	EventPowerupsExpired  = "powerupsExpired"
)

// Projectile describes a fired shot. The server relays it to the room and
// stores nothing; trajectories are client-predicted.
type Projectile struct {
	OwnerID string  `json:"ownerId"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Angle   float64 `json:"angle"`
	Speed   float64 `json:"speed,omitempty"`
}

// DamageResult reports the outcome of a damage application. A missing target
// is a benign outcome, not an error: the target may simply have left.
type DamageResult struct {
	TargetFound bool `json:"targetFound"`
	Health      int  `json:"health"`
}
