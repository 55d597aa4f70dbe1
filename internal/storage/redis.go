package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/jwebster45206/realm-engine/pkg/storage"
)

// Redis keys.
const (
	playerKeyPrefix    = "player:"
	blueprintsKey      = "blueprints"
	worldEventsKey     = "world:events"
	npcsKey            = "npcs"
	sharesKey          = "shares"
	roomsKey           = "rooms"
	usersKey           = "users"
	userEmailKeyPrefix = "user-email:"
	playerBoardKey     = "leaderboard:players"
)

const lockRetryDelay = 25 * time.Millisecond

// releaseScript deletes a lock only if the caller still owns it.
var releaseScript = redis.NewScript(`
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("del", KEYS[1])
	else
		return 0
	end
`)

// RedisStorage implements storage.Storage using Redis for game records
// and the filesystem for static enemy data.
type RedisStorage struct {
	client  *redis.Client
	logger  *slog.Logger
	dataDir string
}

// Ensure RedisStorage implements Storage interface
var _ storage.Storage = (*RedisStorage)(nil)

// NewRedisStorage creates a new Redis storage instance. redisURL may be a
// redis:// URL or a bare host:port.
func NewRedisStorage(redisURL string, dataDir string, logger *slog.Logger) (*RedisStorage, error) {
	opts := &redis.Options{Addr: redisURL}
	if strings.Contains(redisURL, "://") {
		parsed, err := redis.ParseURL(redisURL)
		if err != nil {
			return nil, fmt.Errorf("invalid redis url: %w", err)
		}
		opts = parsed
	}
	return NewRedisStorageWithClient(redis.NewClient(opts), dataDir, logger), nil
}

// NewRedisStorageWithClient wraps an existing client.
func NewRedisStorageWithClient(client *redis.Client, dataDir string, logger *slog.Logger) *RedisStorage {
	if dataDir == "" {
		dataDir = "./data"
	}
	return &RedisStorage{
		client:  client,
		logger:  logger,
		dataDir: dataDir,
	}
}

// Client exposes the underlying connection for pub/sub and queue use.
func (r *RedisStorage) Client() *redis.Client {
	return r.client
}

// Health and lifecycle methods

func (r *RedisStorage) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

func (r *RedisStorage) Close() error {
	if err := r.client.Close(); err != nil {
		r.logger.Error("Failed to close Redis connection", "error", err)
		return err
	}
	r.logger.Info("Redis connection closed")
	return nil
}

// WaitForConnection waits for Redis to become available (used during startup)
func (r *RedisStorage) WaitForConnection(ctx context.Context) error {
	maxRetries := 30
	retryDelay := 2 * time.Second

	for i := 0; i < maxRetries; i++ {
		if err := r.Ping(ctx); err != nil {
			r.logger.Debug("Redis not ready yet", "error", err, "attempt", i+1)

			select {
			case <-ctx.Done():
				return fmt.Errorf("context cancelled while waiting for redis: %w", ctx.Err())
			case <-time.After(retryDelay):
				continue
			}
		}

		r.logger.Info("Redis connection established")
		return nil
	}

	return fmt.Errorf("redis did not become available after %d attempts", maxRetries)
}

// Lock takes key with a random owner token, retrying until ctx is done.
func (r *RedisStorage) Lock(ctx context.Context, key string, ttl time.Duration) (storage.Unlock, error) {
	token := uuid.New().String()

	for {
		ok, err := r.client.SetNX(ctx, key, token, ttl).Result()
		if err != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("%w: %s", storage.ErrLockTimeout, key)
			}
			return nil, fmt.Errorf("failed to acquire lock %s: %w", key, err)
		}
		if ok {
			break
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %s", storage.ErrLockTimeout, key)
		case <-time.After(lockRetryDelay):
		}
	}

	return func(ctx context.Context) error {
		if err := releaseScript.Run(ctx, r.client, []string{key}, token).Err(); err != nil {
			return fmt.Errorf("failed to release lock %s: %w", key, err)
		}
		return nil
	}, nil
}

// hashGet loads one JSON record from a hash. Missing fields return (nil, nil).
func hashGet[T any](ctx context.Context, r *RedisStorage, key, field string) (*T, error) {
	data, err := r.client.HGet(ctx, key, field).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load %s %s: %w", key, field, err)
	}
	var v T
	if err := json.Unmarshal([]byte(data), &v); err != nil {
		return nil, fmt.Errorf("failed to unmarshal %s %s: %w", key, field, err)
	}
	return &v, nil
}

func hashPut(ctx context.Context, r *RedisStorage, key, field string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %s %s: %w", key, field, err)
	}
	if err := r.client.HSet(ctx, key, field, data).Err(); err != nil {
		return fmt.Errorf("failed to save %s %s: %w", key, field, err)
	}
	return nil
}

// hashList returns every record in a hash. Corrupt entries are skipped.
func hashList[T any](ctx context.Context, r *RedisStorage, key string) ([]*T, error) {
	all, err := r.client.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", key, err)
	}
	out := make([]*T, 0, len(all))
	for field, data := range all {
		var v T
		if err := json.Unmarshal([]byte(data), &v); err != nil {
			r.logger.Warn("Skipping corrupt record", "key", key, "field", field, "error", err)
			continue
		}
		out = append(out, &v)
	}
	return out, nil
}
