package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"blast-arena/server/internal/game"
)

// Coordinator is the slice of the game coordinator the transport needs.
type Coordinator interface {
	Join(ctx context.Context, roomID, accountID string) (string, error)
	Leave(ctx context.Context, roomID, accountID string) error
	SetPlayerData(ctx context.Context, roomID, accountID, name string) error
	UpdatePosition(ctx context.Context, roomID, accountID string, x, y, angle float64, health int) error
	FireProjectile(ctx context.Context, roomID string, projectile game.Projectile)
	ApplyDamage(ctx context.Context, roomID, targetID, attackerID string, damage int) (game.DamageResult, error)
	ResolveDeath(ctx context.Context, roomID, playerID, killerID string) error
	SpawnPowerup(ctx context.Context, roomID string) (game.Powerup, error)
	CollectPowerup(ctx context.Context, roomID, accountID, powerupID string) error
	Snapshot(ctx context.Context, roomID string) (game.RoomState, []game.PlayerState, error)
	Config() game.Config
}

// ConnMetrics counts live connections. Optional.
type ConnMetrics interface {
	IncrWSConn()
	DecrWSConn()
}

type Config struct {
	WriteWait       time.Duration
	DisconnectAfter time.Duration
	ReadLimit       int64
	CheckOrigin     func(r *http.Request) bool
}

func DefaultConfig() Config {
	return Config{
		WriteWait:       10 * time.Second,
		DisconnectAfter: 60 * time.Second,
		ReadLimit:       4096,
	}
}

// Client is one connected player socket.
type Client struct {
	AccountID string

	mu     sync.Mutex
	roomID string
	conn   *websocket.Conn
	send   chan []byte
	closed bool
}

func (c *Client) room() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.roomID
}

func (c *Client) setRoom(roomID string) {
	c.mu.Lock()
	c.roomID = roomID
	c.mu.Unlock()
}

// enqueue hands data to the write pump without blocking the caller. A full
// backlog drops the connection; a stalled reader must not stall the room.
func (c *Client) enqueue(data []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

func (c *Client) close() {
	c.mu.Lock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
	c.mu.Unlock()
}

// Hub owns every connected client and the per-room broadcast groups. It
// implements game.Broadcaster.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
	rooms   map[string]map[string]*Client

	coordinator Coordinator
	cfg         Config
	logger      *slog.Logger
	metrics     ConnMetrics
	upgrader    websocket.Upgrader
	nextGuest   atomic.Uint64
}

func NewHub(cfg Config, logger *slog.Logger, metrics ConnMetrics) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Hub{
		clients: make(map[string]*Client),
		rooms:   make(map[string]map[string]*Client),
		cfg:     cfg,
		logger:  logger,
		metrics: metrics,
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     cfg.CheckOrigin,
	}
	return h
}

// SetCoordinator wires the game coordinator after construction (the
// coordinator needs the hub as its broadcaster first).
func (h *Hub) SetCoordinator(c Coordinator) {
	h.coordinator = c
}

var _ game.Broadcaster = (*Hub)(nil)

// ServeHTTP upgrades the connection and runs the read loop until the client
// disconnects.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	accountID := r.URL.Query().Get("account")
	if accountID == "" {
		accountID = fmt.Sprintf("player-%d", h.nextGuest.Add(1))
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("ws upgrade failed", "err", err)
		return
	}

	client := &Client{
		AccountID: accountID,
		conn:      conn,
		send:      make(chan []byte, 64),
	}
	h.register(client)
	if h.metrics != nil {
		h.metrics.IncrWSConn()
	}
	h.logger.Info("client connected", "account", accountID)

	go h.writePump(client)
	h.readPump(r.Context(), client)

	h.disconnect(r.Context(), client)
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if existing, ok := h.clients[c.AccountID]; ok {
		existing.close()
	}
	h.clients[c.AccountID] = c
}

// disconnect tears the client down and leaves its room on its behalf. A
// stale socket replaced by a reconnect must not leave on the account's
// behalf; the replacement owns the membership now.
func (h *Hub) disconnect(ctx context.Context, c *Client) {
	roomID := c.room()

	h.mu.Lock()
	current := h.clients[c.AccountID] == c
	if current {
		delete(h.clients, c.AccountID)
	}
	if roomID != "" {
		if members, ok := h.rooms[roomID]; ok {
			if members[c.AccountID] == c {
				delete(members, c.AccountID)
			}
			if len(members) == 0 {
				delete(h.rooms, roomID)
			}
		}
	}
	h.mu.Unlock()

	c.close()
	if c.conn != nil {
		c.conn.Close()
	}
	if h.metrics != nil {
		h.metrics.DecrWSConn()
	}

	if current && roomID != "" && h.coordinator != nil {
		if err := h.coordinator.Leave(context.WithoutCancel(ctx), roomID, c.AccountID); err != nil {
			h.logger.Error("leave on disconnect failed", "account", c.AccountID, "room", roomID, "err", err)
		}
	}
	h.logger.Info("client disconnected", "account", c.AccountID)
}

// joinRoom moves the client into a broadcast group.
func (h *Hub) joinRoom(c *Client, roomID string) {
	previous := c.room()

	h.mu.Lock()
	if previous != "" && previous != roomID {
		if members, ok := h.rooms[previous]; ok {
			delete(members, c.AccountID)
			if len(members) == 0 {
				delete(h.rooms, previous)
			}
		}
	}
	members, ok := h.rooms[roomID]
	if !ok {
		members = make(map[string]*Client)
		h.rooms[roomID] = members
	}
	members[c.AccountID] = c
	h.mu.Unlock()

	c.setRoom(roomID)
}

func (h *Hub) leaveRoom(c *Client) {
	roomID := c.room()
	if roomID == "" {
		return
	}
	h.mu.Lock()
	if members, ok := h.rooms[roomID]; ok {
		if members[c.AccountID] == c {
			delete(members, c.AccountID)
		}
		if len(members) == 0 {
			delete(h.rooms, roomID)
		}
	}
	h.mu.Unlock()
	c.setRoom("")
}

// BroadcastToRoom sends a named event to every subscriber of the room.
func (h *Hub) BroadcastToRoom(roomID, event string, payload any) {
	msg := eventMessage{
		Type:       "event",
		Event:      event,
		RoomID:     roomID,
		Payload:    payload,
		ServerTime: time.Now().UnixMilli(),
	}
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("marshal broadcast failed", "event", event, "err", err)
		return
	}

	h.mu.RLock()
	members := make([]*Client, 0, len(h.rooms[roomID]))
	for _, client := range h.rooms[roomID] {
		members = append(members, client)
	}
	h.mu.RUnlock()

	for _, client := range members {
		if !client.enqueue(data) {
			h.logger.Warn("send backlog full, dropping client", "account", client.AccountID)
			client.close()
		}
	}
}

func (h *Hub) writePump(c *Client) {
	for data := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(h.cfg.WriteWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			h.logger.Warn("write failed", "account", c.AccountID, "err", err)
			c.conn.Close()
			// Drain so close() never blocks a sender.
			for range c.send {
			}
			return
		}
	}
	c.conn.Close()
}

func (h *Hub) readPump(ctx context.Context, c *Client) {
	if h.cfg.ReadLimit > 0 {
		c.conn.SetReadLimit(h.cfg.ReadLimit)
	}
	for {
		c.conn.SetReadDeadline(time.Now().Add(h.cfg.DisconnectAfter))
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Warn("read failed", "account", c.AccountID, "err", err)
			}
			return
		}

		var env Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			h.sendError(c, "", "bad_message", "malformed envelope")
			continue
		}
		h.handleMessage(ctx, c, env)
	}
}

func (h *Hub) sendJSON(c *Client, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		h.logger.Error("marshal reply failed", "err", err)
		return
	}
	if !c.enqueue(data) {
		c.close()
	}
}

func (h *Hub) sendError(c *Client, op, code, message string) {
	h.sendJSON(c, errorMessage{Type: "error", Op: op, Code: code, Message: message})
}
