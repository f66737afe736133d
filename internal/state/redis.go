package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"blast-arena/server/internal/game"
)

const (
	keyRoomState   = "room:%s:state"
	keyRoomPlayers = "room:%s:players"

	// txRetries bounds optimistic-transaction retries under contention.
	txRetries = 32
)

// RedisStore keeps room state in Redis so several server processes can share
// rooms. Atomicity comes from WATCH transactions: a concurrent writer makes
// the transaction fail and the update closure re-runs on fresh state.
type RedisStore struct {
	rdb *redis.Client
}

var _ game.Store = (*RedisStore)(nil)

func NewRedisStore(ctx context.Context, addr, password string, db int) (*RedisStore, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &RedisStore{rdb: rdb}, nil
}

func NewRedisStoreWithClient(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

func stateKey(roomID string) string   { return fmt.Sprintf(keyRoomState, roomID) }
func playersKey(roomID string) string { return fmt.Sprintf(keyRoomPlayers, roomID) }

// withRetries runs a WATCH transaction until it commits or the retry budget
// runs out.
func (s *RedisStore) withRetries(ctx context.Context, fn func(*redis.Tx) error, keys ...string) error {
	for i := 0; i < txRetries; i++ {
		err := s.rdb.Watch(ctx, fn, keys...)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return fmt.Errorf("room transaction contention: %w", redis.TxFailedErr)
}

func (s *RedisStore) JoinOrCreateRoom(ctx context.Context, roomID, accountID string, capacity int) (string, error) {
	if roomID == "" {
		roomID = uuid.New().String()
	}
	players := playersKey(roomID)
	state := stateKey(roomID)

	err := s.withRetries(ctx, func(tx *redis.Tx) error {
		member, err := tx.HExists(ctx, players, accountID).Result()
		if err != nil {
			return err
		}
		count, err := tx.HLen(ctx, players).Result()
		if err != nil {
			return err
		}
		if !member && capacity > 0 && count >= int64(capacity) {
			return game.ErrRoomFull
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			if !member {
				placeholder, err := json.Marshal(game.PlayerState{AccountID: accountID})
				if err != nil {
					return err
				}
				pipe.HSet(ctx, players, accountID, placeholder)
			}
			empty, err := json.Marshal(game.RoomState{})
			if err != nil {
				return err
			}
			pipe.SetNX(ctx, state, empty, 0)
			return nil
		})
		return err
	}, players, state)
	if err != nil {
		return "", err
	}
	return roomID, nil
}

func (s *RedisStore) LeaveRoom(ctx context.Context, roomID, accountID string) error {
	players := playersKey(roomID)
	state := stateKey(roomID)

	return s.withRetries(ctx, func(tx *redis.Tx) error {
		member, err := tx.HExists(ctx, players, accountID).Result()
		if err != nil {
			return err
		}
		if !member {
			exists, err := tx.Exists(ctx, state).Result()
			if err != nil {
				return err
			}
			if exists == 0 {
				return game.ErrRoomNotFound
			}
			return nil
		}
		count, err := tx.HLen(ctx, players).Result()
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HDel(ctx, players, accountID)
			if count <= 1 {
				// Last member out tears the room down.
				pipe.Del(ctx, players, state)
			}
			return nil
		})
		return err
	}, players, state)
}

func (s *RedisStore) RoomUsers(ctx context.Context, roomID string) ([]string, error) {
	users, err := s.rdb.HKeys(ctx, playersKey(roomID)).Result()
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		exists, err := s.rdb.Exists(ctx, stateKey(roomID)).Result()
		if err != nil {
			return nil, err
		}
		if exists == 0 {
			return nil, game.ErrRoomNotFound
		}
	}
	return users, nil
}

func (s *RedisStore) GetRoom(ctx context.Context, roomID string) (game.RoomState, error) {
	raw, err := s.rdb.Get(ctx, stateKey(roomID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return game.RoomState{}, game.ErrRoomNotFound
	}
	if err != nil {
		return game.RoomState{}, err
	}
	var rs game.RoomState
	if err := json.Unmarshal(raw, &rs); err != nil {
		return game.RoomState{}, fmt.Errorf("decode room %s: %w", roomID, err)
	}
	return rs, nil
}

func (s *RedisStore) UpdateRoom(ctx context.Context, roomID string, fn func(*game.RoomState) error) (game.RoomState, error) {
	key := stateKey(roomID)
	var result game.RoomState

	err := s.withRetries(ctx, func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return game.ErrRoomNotFound
		}
		if err != nil {
			return err
		}
		var rs game.RoomState
		if err := json.Unmarshal(raw, &rs); err != nil {
			return fmt.Errorf("decode room %s: %w", roomID, err)
		}
		if err := fn(&rs); err != nil {
			return err
		}
		encoded, err := json.Marshal(rs)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, encoded, 0)
			return nil
		})
		if err != nil {
			return err
		}
		result = rs
		return nil
	}, key)
	if err != nil {
		return game.RoomState{}, err
	}
	return result, nil
}

func (s *RedisStore) GetPlayer(ctx context.Context, roomID, accountID string) (game.PlayerState, error) {
	raw, err := s.rdb.HGet(ctx, playersKey(roomID), accountID).Bytes()
	if errors.Is(err, redis.Nil) {
		return game.PlayerState{}, game.ErrPlayerNotFound
	}
	if err != nil {
		return game.PlayerState{}, err
	}
	var ps game.PlayerState
	if err := json.Unmarshal(raw, &ps); err != nil {
		return game.PlayerState{}, fmt.Errorf("decode player %s: %w", accountID, err)
	}
	return ps, nil
}

func (s *RedisStore) PutPlayer(ctx context.Context, roomID, accountID string, playerState game.PlayerState) error {
	encoded, err := json.Marshal(playerState)
	if err != nil {
		return err
	}
	return s.rdb.HSet(ctx, playersKey(roomID), accountID, encoded).Err()
}

func (s *RedisStore) UpdatePlayer(ctx context.Context, roomID, accountID string, fn func(*game.PlayerState) error) (game.PlayerState, error) {
	key := playersKey(roomID)
	var result game.PlayerState

	err := s.withRetries(ctx, func(tx *redis.Tx) error {
		raw, err := tx.HGet(ctx, key, accountID).Bytes()
		if errors.Is(err, redis.Nil) {
			return game.ErrPlayerNotFound
		}
		if err != nil {
			return err
		}
		var ps game.PlayerState
		if err := json.Unmarshal(raw, &ps); err != nil {
			return fmt.Errorf("decode player %s: %w", accountID, err)
		}
		if err := fn(&ps); err != nil {
			return err
		}
		encoded, err := json.Marshal(ps)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, key, accountID, encoded)
			return nil
		})
		if err != nil {
			return err
		}
		result = ps
		return nil
	}, key)
	if err != nil {
		return game.PlayerState{}, err
	}
	return result, nil
}
