package game_test

import (
	"math/rand"
	"testing"

	"blast-arena/server/internal/game"
)

func TestGenerateObstaclesCountAndRange(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	obstacles := game.GenerateObstacles(30, 100, 1900, rng)

	if len(obstacles) != 30 {
		t.Fatalf("expected 30 obstacles, got %d", len(obstacles))
	}
	for i, obstacle := range obstacles {
		if obstacle.X < 100 || obstacle.X > 1900 || obstacle.Y < 100 || obstacle.Y > 1900 {
			t.Fatalf("obstacle %d out of range: (%v, %v)", i, obstacle.X, obstacle.Y)
		}
	}
}

func TestGenerateObstaclesDeterministicPerSeed(t *testing.T) {
	first := game.GenerateObstacles(30, 100, 1900, rand.New(rand.NewSource(7)))
	second := game.GenerateObstacles(30, 100, 1900, rand.New(rand.NewSource(7)))

	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("same seed produced different layouts at index %d", i)
		}
	}

	other := game.GenerateObstacles(30, 100, 1900, rand.New(rand.NewSource(8)))
	same := true
	for i := range first {
		if first[i] != other[i] {
			same = false
			break
		}
	}
	if same {
		t.Fatalf("different seeds produced identical layouts")
	}
}

func TestGenerateObstaclesNegativeCount(t *testing.T) {
	obstacles := game.GenerateObstacles(-3, 100, 1900, rand.New(rand.NewSource(1)))
	if len(obstacles) != 0 {
		t.Fatalf("expected empty layout for negative count, got %d", len(obstacles))
	}
}
