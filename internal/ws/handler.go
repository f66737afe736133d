package ws

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"blast-arena/server/internal/game"
)

// handleMessage dispatches one inbound envelope to the coordinator and sends
// the reply on the caller's socket. Room-wide effects are broadcast by the
// coordinator itself.
func (h *Hub) handleMessage(ctx context.Context, c *Client, env Envelope) {
	if h.coordinator == nil {
		h.sendError(c, env.Type, "unavailable", "coordinator not ready")
		return
	}

	switch env.Type {
	case msgHeartbeat:
		var req heartbeatRequest
		decodePayload(env.Payload, &req)
		h.sendJSON(c, heartbeatMessage{
			Type:       msgHeartbeat,
			ServerTime: time.Now().UnixMilli(),
			ClientTime: req.ClientTime,
		})

	case msgJoin:
		var req joinRequest
		if !h.decode(c, env, &req) {
			return
		}
		roomID, err := h.coordinator.Join(ctx, req.RoomID, c.AccountID)
		if err != nil {
			h.replyError(c, env.Type, err)
			return
		}
		h.joinRoom(c, roomID)
		room, players, err := h.coordinator.Snapshot(ctx, roomID)
		if err != nil {
			h.replyError(c, env.Type, err)
			return
		}
		h.sendJSON(c, joinedMessage{
			Type:      "joined",
			RoomID:    roomID,
			AccountID: c.AccountID,
			Players:   players,
			Obstacles: room.Obstacles,
			Powerups:  room.Powerups,
			GameTime:  room.GameTime,
		})

	case msgLeave:
		roomID := c.room()
		if roomID == "" {
			h.sendJSON(c, ackMessage{Type: "ack", Op: env.Type})
			return
		}
		h.leaveRoom(c)
		if err := h.coordinator.Leave(ctx, roomID, c.AccountID); err != nil {
			h.replyError(c, env.Type, err)
			return
		}
		h.sendJSON(c, ackMessage{Type: "ack", Op: env.Type})

	case msgSetPlayerData:
		var req setPlayerDataRequest
		if !h.decode(c, env, &req) {
			return
		}
		roomID, ok := h.requireRoom(c, env.Type)
		if !ok {
			return
		}
		if err := h.coordinator.SetPlayerData(ctx, roomID, c.AccountID, req.Name); err != nil {
			h.replyError(c, env.Type, err)
			return
		}
		h.sendJSON(c, ackMessage{Type: "ack", Op: env.Type})

	case msgUpdatePosition:
		var req updatePositionRequest
		if !h.decode(c, env, &req) {
			return
		}
		roomID, ok := h.requireRoom(c, env.Type)
		if !ok {
			return
		}
		if err := h.coordinator.UpdatePosition(ctx, roomID, c.AccountID, req.X, req.Y, req.Angle, req.Health); err != nil {
			h.replyError(c, env.Type, err)
		}

	case msgFireProjectile:
		var req game.Projectile
		if !h.decode(c, env, &req) {
			return
		}
		roomID, ok := h.requireRoom(c, env.Type)
		if !ok {
			return
		}
		req.OwnerID = c.AccountID
		h.coordinator.FireProjectile(ctx, roomID, req)

	case msgPlayerHit:
		var req playerHitRequest
		if !h.decode(c, env, &req) {
			return
		}
		roomID, ok := h.requireRoom(c, env.Type)
		if !ok {
			return
		}
		attacker := req.AttackerID
		if attacker == "" {
			attacker = c.AccountID
		}
		result, err := h.coordinator.ApplyDamage(ctx, roomID, req.TargetID, attacker, req.Damage)
		if err != nil {
			h.replyError(c, env.Type, err)
			return
		}
		h.sendJSON(c, resultMessage{Type: "result", Op: env.Type, Result: result})

	case msgPlayerDied:
		var req playerDiedRequest
		if !h.decode(c, env, &req) {
			return
		}
		roomID, ok := h.requireRoom(c, env.Type)
		if !ok {
			return
		}
		playerID := req.PlayerID
		if playerID == "" {
			playerID = c.AccountID
		}
		if err := h.coordinator.ResolveDeath(ctx, roomID, playerID, req.KillerID); err != nil {
			h.replyError(c, env.Type, err)
			return
		}
		h.sendJSON(c, ackMessage{Type: "ack", Op: env.Type})

	case msgSpawnPowerup:
		roomID, ok := h.requireRoom(c, env.Type)
		if !ok {
			return
		}
		if !h.coordinator.Config().AllowClientSpawn {
			h.sendError(c, env.Type, "forbidden", "client powerup spawning is disabled")
			return
		}
		powerup, err := h.coordinator.SpawnPowerup(ctx, roomID)
		if err != nil {
			h.replyError(c, env.Type, err)
			return
		}
		h.sendJSON(c, resultMessage{Type: "result", Op: env.Type, Result: powerup})

	case msgCollectPowerup:
		var req collectPowerupRequest
		if !h.decode(c, env, &req) {
			return
		}
		roomID, ok := h.requireRoom(c, env.Type)
		if !ok {
			return
		}
		if err := h.coordinator.CollectPowerup(ctx, roomID, c.AccountID, req.PowerupID); err != nil {
			h.replyError(c, env.Type, err)
			return
		}
		h.sendJSON(c, ackMessage{Type: "ack", Op: env.Type})

	default:
		h.sendError(c, env.Type, "unknown_type", "unsupported message type")
	}
}

func (h *Hub) decode(c *Client, env Envelope, v any) bool {
	if err := decodePayload(env.Payload, v); err != nil {
		h.sendError(c, env.Type, "bad_payload", err.Error())
		return false
	}
	return true
}

func decodePayload(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, v)
}

// requireRoom resolves the caller's current room, erroring when the client
// has not joined one.
func (h *Hub) requireRoom(c *Client, op string) (string, bool) {
	roomID := c.room()
	if roomID == "" {
		h.sendError(c, op, "not_in_room", "join a room first")
		return "", false
	}
	return roomID, true
}

// replyError maps coordinator errors onto wire codes.
func (h *Hub) replyError(c *Client, op string, err error) {
	code := "store_failure"
	switch {
	case errors.Is(err, game.ErrRoomFull):
		code = "room_full"
	case errors.Is(err, game.ErrRoomNotFound):
		code = "room_not_found"
	case errors.Is(err, game.ErrPlayerNotFound):
		code = "player_not_found"
	}
	h.sendError(c, op, code, err.Error())
}
