// Package config loads server configuration from the environment, with .env
// files as a development convenience.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env      string
	HTTPAddr string

	// StoreBackend selects the room state store: "memory" or "redis".
	StoreBackend  string
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	TickInterval    time.Duration
	WSWriteWait     time.Duration
	WSReadLimit     int64
	DisconnectAfter time.Duration

	MaxPlayers           int
	ObstacleCount        int
	SpawnMin             float64
	SpawnMax             float64
	PowerupSpawnInterval time.Duration
	PowerupTTL           time.Duration
	AllowClientSpawn     bool

	LogSinks    []string
	LogJSONPath string
}

func Load() (*Config, error) {
	env := getenv("ENV", "development")

	// Load .env.{ENV} first, then .env as fallback; neither overrides
	// variables already present in the environment.
	_ = godotenv.Load(".env." + env)
	_ = godotenv.Load()

	cfg := &Config{
		Env:      env,
		HTTPAddr: getenv("HTTP_ADDR", ":8080"),

		StoreBackend:  getenv("STORE_BACKEND", "memory"),
		RedisAddr:     getenv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getenv("REDIS_PASSWORD", ""),
		RedisDB:       getenvInt("REDIS_DB", 0),

		TickInterval:    time.Duration(getenvInt("TICK_INTERVAL_MS", 250)) * time.Millisecond,
		WSWriteWait:     time.Duration(getenvInt("WS_WRITE_WAIT_SEC", 10)) * time.Second,
		WSReadLimit:     int64(getenvInt("WS_READ_LIMIT", 4096)),
		DisconnectAfter: time.Duration(getenvInt("WS_DISCONNECT_AFTER_SEC", 60)) * time.Second,

		MaxPlayers:           getenvInt("MAX_PLAYERS", 8),
		ObstacleCount:        getenvInt("OBSTACLE_COUNT", 30),
		SpawnMin:             getenvFloat("SPAWN_MIN", 100),
		SpawnMax:             getenvFloat("SPAWN_MAX", 1900),
		PowerupSpawnInterval: time.Duration(getenvInt("POWERUP_SPAWN_INTERVAL_MS", 10000)) * time.Millisecond,
		PowerupTTL:           time.Duration(getenvInt("POWERUP_TTL_MS", 30000)) * time.Millisecond,
		AllowClientSpawn:     getenvBool("ALLOW_CLIENT_SPAWN", false),

		LogSinks:    []string{"console"},
		LogJSONPath: getenv("LOG_JSON_PATH", ""),
	}
	if cfg.LogJSONPath != "" {
		cfg.LogSinks = append(cfg.LogSinks, "json")
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.StoreBackend {
	case "memory", "redis":
	default:
		return fmt.Errorf("STORE_BACKEND must be memory or redis, got %q", c.StoreBackend)
	}
	if c.MaxPlayers <= 0 {
		return fmt.Errorf("MAX_PLAYERS must be positive, got %d", c.MaxPlayers)
	}
	if c.ObstacleCount < 0 {
		return fmt.Errorf("OBSTACLE_COUNT must not be negative, got %d", c.ObstacleCount)
	}
	if c.SpawnMax < c.SpawnMin {
		return fmt.Errorf("SPAWN_MAX %v below SPAWN_MIN %v", c.SpawnMax, c.SpawnMin)
	}
	if c.TickInterval <= 0 {
		return fmt.Errorf("TICK_INTERVAL_MS must be positive")
	}
	return nil
}

func getenv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getenvFloat(key string, fallback float64) float64 {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func getenvBool(key string, fallback bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
