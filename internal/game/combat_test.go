package game_test

import (
	"context"
	"testing"

	"blast-arena/server/internal/game"
)

func setHealth(t *testing.T, env *testEnv, roomID, accountID string, health int) {
	t.Helper()
	if _, err := env.store.UpdatePlayer(context.Background(), roomID, accountID, func(ps *game.PlayerState) error {
		ps.Health = health
		return nil
	}); err != nil {
		t.Fatalf("failed to set health: %v", err)
	}
}

func TestApplyDamageReducesHealth(t *testing.T) {
	env := newTestEnv(t)
	joinN(t, env, "room-1", 2)

	result, err := env.coordinator.ApplyDamage(context.Background(), "room-1", "a-player", "b-player", 30)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.TargetFound {
		t.Fatalf("expected target to be found")
	}
	if result.Health != 70 {
		t.Fatalf("expected health 70, got %d", result.Health)
	}
}

func TestApplyDamageClampsAtZero(t *testing.T) {
	env := newTestEnv(t)
	joinN(t, env, "room-1", 2)
	setHealth(t, env, "room-1", "a-player", 20)

	result, err := env.coordinator.ApplyDamage(context.Background(), "room-1", "a-player", "b-player", 150)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Health != 0 {
		t.Fatalf("expected health clamped to 0, got %d", result.Health)
	}
}

func TestApplyDamageMissingTargetIsBenign(t *testing.T) {
	env := newTestEnv(t)
	joinN(t, env, "room-1", 1)

	result, err := env.coordinator.ApplyDamage(context.Background(), "room-1", "ghost", "a-player", 30)
	if err != nil {
		t.Fatalf("expected benign outcome, got error: %v", err)
	}
	if result.TargetFound {
		t.Fatalf("expected TargetFound=false for missing target")
	}

	hits := env.broadcast.byEvent(game.EventPlayerHit)
	if len(hits) != 0 {
		t.Fatalf("expected no playerHit broadcast for missing target, got %d", len(hits))
	}
}

func TestResolveDeathResetsVictimAndCreditsKiller(t *testing.T) {
	env := newTestEnv(t)
	joinN(t, env, "room-1", 2)
	setHealth(t, env, "room-1", "a-player", 0)

	if err := env.coordinator.ResolveDeath(context.Background(), "room-1", "a-player", "b-player"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	victim, err := env.store.GetPlayer(context.Background(), "room-1", "a-player")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if victim.Health != 100 {
		t.Fatalf("expected victim health reset to 100, got %d", victim.Health)
	}

	killer, err := env.store.GetPlayer(context.Background(), "room-1", "b-player")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if killer.Score != 1 {
		t.Fatalf("expected killer score 1, got %d", killer.Score)
	}
}

func TestResolveDeathSelfKillScoresNothing(t *testing.T) {
	env := newTestEnv(t)
	joinN(t, env, "room-1", 1)
	setHealth(t, env, "room-1", "a-player", 0)

	if err := env.coordinator.ResolveDeath(context.Background(), "room-1", "a-player", "a-player"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	player, err := env.store.GetPlayer(context.Background(), "room-1", "a-player")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if player.Health != 100 {
		t.Fatalf("expected health reset to 100, got %d", player.Health)
	}
	if player.Score != 0 {
		t.Fatalf("expected no score on self kill, got %d", player.Score)
	}
}

func TestResolveDeathMissingKillerSkipsScore(t *testing.T) {
	env := newTestEnv(t)
	joinN(t, env, "room-1", 1)
	setHealth(t, env, "room-1", "a-player", 0)

	if err := env.coordinator.ResolveDeath(context.Background(), "room-1", "a-player", "ghost"); err != nil {
		t.Fatalf("expected missing killer to be skipped silently, got %v", err)
	}

	victim, err := env.store.GetPlayer(context.Background(), "room-1", "a-player")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if victim.Health != 100 {
		t.Fatalf("expected victim health reset to 100, got %d", victim.Health)
	}
}
