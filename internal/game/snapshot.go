package game

import (
	"context"
	"errors"
	"fmt"
)

// Snapshot returns the room's shared state plus every member's player state,
// the payload a freshly joined client synchronizes from.
func (c *Coordinator) Snapshot(ctx context.Context, roomID string) (RoomState, []PlayerState, error) {
	room, err := c.store.GetRoom(ctx, roomID)
	if err != nil {
		return RoomState{}, nil, fmt.Errorf("read room %s: %w", roomID, err)
	}
	users, err := c.store.RoomUsers(ctx, roomID)
	if err != nil {
		return RoomState{}, nil, fmt.Errorf("read room users %s: %w", roomID, err)
	}
	players := make([]PlayerState, 0, len(users))
	for _, accountID := range users {
		player, err := c.store.GetPlayer(ctx, roomID, accountID)
		if errors.Is(err, ErrPlayerNotFound) {
			// Left between the listing and the read.
			continue
		}
		if err != nil {
			return RoomState{}, nil, fmt.Errorf("read player %s: %w", accountID, err)
		}
		players = append(players, player)
	}
	return room, players, nil
}
