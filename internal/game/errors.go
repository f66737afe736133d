package game

import "errors"

var (
	// ErrRoomFull rejects a join once occupancy reaches the configured cap.
	ErrRoomFull = errors.New("room_full")
	// ErrRoomNotFound marks an operation against a torn-down room.
	ErrRoomNotFound = errors.New("room_not_found")
	// ErrPlayerNotFound marks a per-player update against an absent account.
	ErrPlayerNotFound = errors.New("player_not_found")

	// errRoomUnchanged aborts an UpdateRoom without writing. Used by the tick
	// expiry pass so an unchanged powerup list performs no store write.
	errRoomUnchanged = errors.New("room_unchanged")
)
