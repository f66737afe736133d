// Package scheduler drives the coordinator's tick handler at a fixed cadence,
// one goroutine per active room. Rooms tick independently; a slow or failing
// room never delays another.
package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// TickFunc advances one room by the elapsed duration. It reports whether the
// room still exists; false stops the room's ticker.
type TickFunc func(ctx context.Context, roomID string, delta time.Duration) bool

type roomRunner struct {
	cancel context.CancelFunc
}

// Scheduler owns a ticker loop per room.
type Scheduler struct {
	tick     TickFunc
	interval time.Duration
	logger   *slog.Logger

	mu      sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
	running map[string]*roomRunner
	wg      sync.WaitGroup

	// OnRoomStopped is invoked after a room's loop exits. Optional; used for
	// metrics.
	OnRoomStopped func(roomID string)
	OnRoomStarted func(roomID string)
}

func New(ctx context.Context, tick TickFunc, interval time.Duration, logger *slog.Logger) *Scheduler {
	if interval <= 0 {
		interval = 250 * time.Millisecond
	}
	if logger == nil {
		logger = slog.Default()
	}
	sctx, cancel := context.WithCancel(ctx)
	return &Scheduler{
		tick:     tick,
		interval: interval,
		logger:   logger,
		ctx:      sctx,
		cancel:   cancel,
		running:  make(map[string]*roomRunner),
	}
}

// Ensure starts tick delivery for roomID if not already running.
func (s *Scheduler) Ensure(roomID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ctx.Err() != nil {
		return
	}
	if _, ok := s.running[roomID]; ok {
		return
	}
	rctx, cancel := context.WithCancel(s.ctx)
	s.running[roomID] = &roomRunner{cancel: cancel}
	s.wg.Add(1)
	go s.runLoop(rctx, roomID)
	if s.OnRoomStarted != nil {
		s.OnRoomStarted(roomID)
	}
	s.logger.Info("room ticker started", "room", roomID)
}

// Stop cancels one room's ticker.
func (s *Scheduler) Stop(roomID string) {
	s.mu.Lock()
	runner, ok := s.running[roomID]
	s.mu.Unlock()
	if ok {
		runner.cancel()
	}
}

// Shutdown cancels every ticker and waits for the loops to exit.
func (s *Scheduler) Shutdown() {
	s.cancel()
	s.wg.Wait()
}

// Active returns the number of rooms currently ticking.
func (s *Scheduler) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.running)
}

func (s *Scheduler) runLoop(ctx context.Context, roomID string) {
	defer func() {
		s.mu.Lock()
		delete(s.running, roomID)
		s.mu.Unlock()
		s.wg.Done()
		if s.OnRoomStopped != nil {
			s.OnRoomStopped(roomID)
		}
		s.logger.Info("room ticker stopped", "room", roomID)
	}()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			delta := now.Sub(last)
			if delta <= 0 {
				delta = s.interval
			}
			last = now
			if !s.tick(ctx, roomID, delta) {
				return
			}
		}
	}
}
