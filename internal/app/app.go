// Package app wires the server together: configuration, logging, the room
// state store, the game coordinator, the tick scheduler, and the HTTP/WS
// surface.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"blast-arena/server/internal/config"
	"blast-arena/server/internal/game"
	"blast-arena/server/internal/scheduler"
	httpserver "blast-arena/server/internal/server"
	"blast-arena/server/internal/state"
	"blast-arena/server/internal/ws"
	"blast-arena/server/logging"
	powerupslog "blast-arena/server/logging/powerups"
	loggingsinks "blast-arena/server/logging/sinks"
)

func Run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := newLogger(cfg)
	logger.Info("starting server", "env", cfg.Env, "store", cfg.StoreBackend)

	router, cleanup, err := newEventRouter(cfg)
	if err != nil {
		return fmt.Errorf("construct logging router: %w", err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if cerr := router.Close(closeCtx); cerr != nil {
			logger.Error("close logging router", "err", cerr)
		}
		cleanup()
	}()

	store, err := newStore(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("construct store: %w", err)
	}

	metrics := httpserver.NewMetrics()

	hub := ws.NewHub(ws.Config{
		WriteWait:       cfg.WSWriteWait,
		DisconnectAfter: cfg.DisconnectAfter,
		ReadLimit:       cfg.WSReadLimit,
	}, logger, metrics)

	// Spawn events feed the metrics counter on their way to the router.
	publisher := logging.PublisherFunc(func(ctx context.Context, event logging.Event) {
		if event.Type == powerupslog.EventSpawned {
			metrics.IncrPowerupSpawn()
		}
		router.Publish(ctx, event)
	})

	coordinator := game.NewCoordinator(game.Config{
		MaxPlayers:           cfg.MaxPlayers,
		ObstacleCount:        cfg.ObstacleCount,
		SpawnMin:             cfg.SpawnMin,
		SpawnMax:             cfg.SpawnMax,
		PowerupSpawnInterval: cfg.PowerupSpawnInterval,
		PowerupTTL:           cfg.PowerupTTL,
		PowerupTypes:         game.DefaultConfig().PowerupTypes,
		AllowClientSpawn:     cfg.AllowClientSpawn,
	}, store, hub, nil, nil, publisher)
	hub.SetCoordinator(coordinator)

	sched := scheduler.New(ctx, coordinator.HandleTick, cfg.TickInterval, logger)
	sched.OnRoomStarted = func(string) { metrics.IncrRooms() }
	sched.OnRoomStopped = func(string) { metrics.DecrRooms() }
	coordinator.SetScheduler(sched)
	metrics.SetActiveRoomSupplier(sched.Active)

	handler := httpserver.NewHandler(hub, metrics, logger)
	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: handler}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		sched.Shutdown()
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown", "err", err)
	}
	sched.Shutdown()
	return nil
}

func newLogger(cfg *config.Config) *slog.Logger {
	var handler slog.Handler
	if cfg.Env == "production" {
		handler = slog.NewJSONHandler(os.Stdout, nil)
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
	}
	return slog.New(handler)
}

// newEventRouter builds the game-event router with the configured sinks.
func newEventRouter(cfg *config.Config) (*logging.Router, func(), error) {
	logCfg := logging.DefaultConfig()
	logCfg.EnabledSinks = cfg.LogSinks

	cleanup := func() {}
	var sinks []logging.NamedSink
	if logCfg.HasSink("console") {
		sinks = append(sinks, logging.NamedSink{
			Name: "console",
			Sink: loggingsinks.NewConsoleSink(os.Stdout, logCfg.Console),
		})
	}
	if logCfg.HasSink("json") && cfg.LogJSONPath != "" {
		file, err := os.OpenFile(cfg.LogJSONPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open event log %s: %w", cfg.LogJSONPath, err)
		}
		cleanup = func() { file.Close() }
		sinks = append(sinks, logging.NamedSink{
			Name: "json",
			Sink: loggingsinks.NewJSONSink(file, logCfg.JSON.FlushInterval),
		})
	}

	router, err := logging.NewRouter(nil, logCfg, sinks)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return router, cleanup, nil
}

func newStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (game.Store, error) {
	switch cfg.StoreBackend {
	case "redis":
		store, err := state.NewRedisStore(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return nil, err
		}
		logger.Info("using redis store", "addr", cfg.RedisAddr)
		return store, nil
	default:
		return state.NewMemoryStore(), nil
	}
}
