package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/jwebster45206/realm-engine/pkg/actor"
	"github.com/jwebster45206/realm-engine/pkg/leaderboard"
)

// SavePlayer writes the record and its leaderboard score in one transaction.
func (r *RedisStorage) SavePlayer(ctx context.Context, p *actor.Player) error {
	if p == nil {
		return errors.New("player cannot be nil")
	}
	data, err := json.Marshal(p)
	if err != nil {
		r.logger.Error("Failed to marshal player", "player_id", p.ID, "error", err)
		return fmt.Errorf("failed to marshal player: %w", err)
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, playerKeyPrefix+p.ID, data, 0)
		pipe.ZAdd(ctx, playerBoardKey, redis.Z{Score: leaderboard.PlayerScore(p), Member: p.ID})
		return nil
	})
	if err != nil {
		r.logger.Error("Failed to save player", "player_id", p.ID, "error", err)
		return fmt.Errorf("failed to save player: %w", err)
	}
	return nil
}

func (r *RedisStorage) LoadPlayer(ctx context.Context, id string) (*actor.Player, error) {
	data, err := r.client.Get(ctx, playerKeyPrefix+id).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to load player", "player_id", id, "error", err)
		return nil, fmt.Errorf("failed to load player: %w", err)
	}

	var p actor.Player
	if err := json.Unmarshal([]byte(data), &p); err != nil {
		return nil, fmt.Errorf("failed to unmarshal player: %w", err)
	}
	return &p, nil
}

func (r *RedisStorage) CountPlayers(ctx context.Context) (int, error) {
	n, err := r.client.ZCard(ctx, playerBoardKey).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to count players: %w", err)
	}
	return int(n), nil
}

// TopPlayers reads the sorted set, then fetches the records in rank order.
func (r *RedisStorage) TopPlayers(ctx context.Context, n int) ([]*actor.Player, error) {
	if n <= 0 {
		return []*actor.Player{}, nil
	}
	ids, err := r.client.ZRevRange(ctx, playerBoardKey, 0, int64(n-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read player leaderboard: %w", err)
	}
	if len(ids) == 0 {
		return []*actor.Player{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = playerKeyPrefix + id
	}
	vals, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load players: %w", err)
	}

	out := make([]*actor.Player, 0, len(vals))
	for i, v := range vals {
		s, ok := v.(string)
		if !ok {
			r.logger.Warn("Leaderboard entry without player record", "player_id", ids[i])
			continue
		}
		var p actor.Player
		if err := json.Unmarshal([]byte(s), &p); err != nil {
			r.logger.Warn("Skipping corrupt player record", "player_id", ids[i], "error", err)
			continue
		}
		out = append(out, &p)
	}
	return out, nil
}
