package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/jwebster45206/realm-engine/pkg/world"
)

// AppendWorldEvent pushes to the head of the feed and trims it to world.FeedLimit.
func (r *RedisStorage) AppendWorldEvent(ctx context.Context, e world.Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to marshal world event: %w", err)
	}
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LPush(ctx, worldEventsKey, data)
		pipe.LTrim(ctx, worldEventsKey, 0, world.FeedLimit-1)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to append world event: %w", err)
	}
	return nil
}

// ListWorldEvents returns up to n events, newest first. n <= 0 returns the whole feed.
func (r *RedisStorage) ListWorldEvents(ctx context.Context, n int) ([]world.Event, error) {
	stop := int64(n - 1)
	if n <= 0 {
		stop = -1
	}
	raw, err := r.client.LRange(ctx, worldEventsKey, 0, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list world events: %w", err)
	}

	events := make([]world.Event, 0, len(raw))
	for _, s := range raw {
		var e world.Event
		if err := json.Unmarshal([]byte(s), &e); err != nil {
			r.logger.Warn("Skipping corrupt world event", "error", err)
			continue
		}
		events = append(events, e)
	}
	return events, nil
}
