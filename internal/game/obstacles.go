package game

import "math/rand"

// GenerateObstacles scatters count obstacle coordinates uniformly over the
// spawn range [min, max]². Pure apart from the supplied random source; the
// same seeded source always yields the same layout.
func GenerateObstacles(count int, min, max float64, rng *rand.Rand) []Obstacle {
	if count < 0 {
		count = 0
	}
	obstacles := make([]Obstacle, 0, count)
	span := max - min
	if span < 0 {
		span = 0
	}
	for i := 0; i < count; i++ {
		obstacles = append(obstacles, Obstacle{
			X: min + rng.Float64()*span,
			Y: min + rng.Float64()*span,
		})
	}
	return obstacles
}

// generateObstacles draws the room layout using the coordinator's own source.
func (c *Coordinator) generateObstacles() []Obstacle {
	c.rngMu.Lock()
	defer c.rngMu.Unlock()
	rng := c.rng
	if rng == nil {
		rng = rand.New(rand.NewSource(rand.Int63()))
	}
	return GenerateObstacles(c.cfg.ObstacleCount, c.cfg.SpawnMin, c.cfg.SpawnMax, rng)
}
