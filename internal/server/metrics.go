package server

import (
	"encoding/json"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"
)

// Metrics collects basic application counters and serves them as JSON.
type Metrics struct {
	wsConnections  atomic.Int64
	activeRooms    atomic.Int64
	roomsPlayed    atomic.Int64
	powerupSpawns  atomic.Int64
	startTime      time.Time
	activeSupplier func() int
}

func NewMetrics() *Metrics {
	return &Metrics{startTime: time.Now()}
}

// SetActiveRoomSupplier overrides the active-room gauge with a live source.
func (m *Metrics) SetActiveRoomSupplier(fn func() int) {
	m.activeSupplier = fn
}

func (m *Metrics) IncrWSConn()       { m.wsConnections.Add(1) }
func (m *Metrics) DecrWSConn()       { m.wsConnections.Add(-1) }
func (m *Metrics) IncrRooms()        { m.activeRooms.Add(1); m.roomsPlayed.Add(1) }
func (m *Metrics) DecrRooms()        { m.activeRooms.Add(-1) }
func (m *Metrics) IncrPowerupSpawn() { m.powerupSpawns.Add(1) }

// ServeHTTP exposes metrics as JSON at /metrics.
func (m *Metrics) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	activeRooms := m.activeRooms.Load()
	if m.activeSupplier != nil {
		activeRooms = int64(m.activeSupplier())
	}

	data := map[string]any{
		"uptime_seconds": int(time.Since(m.startTime).Seconds()),
		"ws_connections": m.wsConnections.Load(),
		"active_rooms":   activeRooms,
		"rooms_played":   m.roomsPlayed.Load(),
		"powerup_spawns": m.powerupSpawns.Load(),
		"goroutines":     runtime.NumGoroutine(),
		"heap_alloc_mb":  mem.HeapAlloc / 1024 / 1024,
		"sys_mb":         mem.Sys / 1024 / 1024,
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
}
