package game

import "time"

// Config collects the gameplay constants for a coordinator. Values live here
// instead of package globals so tests and deployments can vary them.
type Config struct {
	MaxPlayers           int
	ObstacleCount        int
	SpawnMin             float64
	SpawnMax             float64
	PowerupSpawnInterval time.Duration
	PowerupTTL           time.Duration
	PowerupTypes         []PowerupType

	// AllowClientSpawn keeps the debug spawnPowerup RPC reachable. Production
	// rooms spawn only from the tick.
	AllowClientSpawn bool
}

func DefaultConfig() Config {
	return Config{
		MaxPlayers:           8,
		ObstacleCount:        30,
		SpawnMin:             100,
		SpawnMax:             1900,
		PowerupSpawnInterval: 10 * time.Second,
		PowerupTTL:           30 * time.Second,
		PowerupTypes:         []PowerupType{PowerupHealth, PowerupSpeed},
	}
}
