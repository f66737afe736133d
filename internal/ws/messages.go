package ws

import (
	"encoding/json"

	"blast-arena/server/internal/game"
)

// Envelope wraps every WebSocket message in both directions.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Client → server message types.
const (
	msgJoin           = "join"
	msgLeave          = "leave"
	msgSetPlayerData  = "setPlayerData"
	msgUpdatePosition = "updatePosition"
	msgFireProjectile = "fireProjectile"
	msgPlayerHit      = "playerHit"
	msgPlayerDied     = "playerDied"
	msgSpawnPowerup   = "spawnPowerup"
	msgCollectPowerup = "collectPowerup"
	msgHeartbeat      = "heartbeat"
)

type joinRequest struct {
	RoomID string `json:"roomId,omitempty"`
}

type setPlayerDataRequest struct {
	Name string `json:"name"`
}

type updatePositionRequest struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Angle  float64 `json:"angle"`
	Health int     `json:"health"`
}

type playerHitRequest struct {
	TargetID   string `json:"targetId"`
	AttackerID string `json:"attackerId,omitempty"`
	Damage     int    `json:"damage"`
}

type playerDiedRequest struct {
	PlayerID string `json:"playerId"`
	KillerID string `json:"killerId,omitempty"`
}

type collectPowerupRequest struct {
	PowerupID string `json:"powerupId"`
}

type heartbeatRequest struct {
	ClientTime int64 `json:"clientTime"`
}

// Server → client messages.

type joinedMessage struct {
	Type      string             `json:"type"`
	RoomID    string             `json:"roomId"`
	AccountID string             `json:"accountId"`
	Players   []game.PlayerState `json:"players"`
	Obstacles []game.Obstacle    `json:"obstacles"`
	Powerups  []game.Powerup     `json:"powerups"`
	GameTime  int64              `json:"gameTime"`
}

type eventMessage struct {
	Type       string `json:"type"`
	Event      string `json:"event"`
	RoomID     string `json:"roomId"`
	Payload    any    `json:"payload,omitempty"`
	ServerTime int64  `json:"serverTime"`
}

type ackMessage struct {
	Type string `json:"type"`
	Op   string `json:"op"`
}

type resultMessage struct {
	Type   string `json:"type"`
	Op     string `json:"op"`
	Result any    `json:"result"`
}

type errorMessage struct {
	Type    string `json:"type"`
	Op      string `json:"op"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type heartbeatMessage struct {
	Type       string `json:"type"`
	ServerTime int64  `json:"serverTime"`
	ClientTime int64  `json:"clientTime"`
}
