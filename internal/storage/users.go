package storage

import (
	"context"
	"fmt"
	"sort"

	"github.com/redis/go-redis/v9"

	"github.com/jwebster45206/realm-engine/pkg/account"
	"github.com/jwebster45206/realm-engine/pkg/storage"
)

// CreateUser claims the email index with SETNX before writing the record.
func (r *RedisStorage) CreateUser(ctx context.Context, u *account.User) error {
	claimed, err := r.client.SetNX(ctx, userEmailKeyPrefix+u.Email, u.ID, 0).Result()
	if err != nil {
		return fmt.Errorf("failed to reserve email: %w", err)
	}
	if !claimed {
		return storage.ErrEmailTaken
	}
	if err := hashPut(ctx, r, usersKey, u.ID, u); err != nil {
		// Release the address so the user can retry.
		r.client.Del(ctx, userEmailKeyPrefix+u.Email)
		return err
	}
	return nil
}

func (r *RedisStorage) SaveUser(ctx context.Context, u *account.User) error {
	return hashPut(ctx, r, usersKey, u.ID, u)
}

func (r *RedisStorage) LoadUser(ctx context.Context, id string) (*account.User, error) {
	return hashGet[account.User](ctx, r, usersKey, id)
}

func (r *RedisStorage) LoadUserByEmail(ctx context.Context, email string) (*account.User, error) {
	id, err := r.client.Get(ctx, userEmailKeyPrefix+email).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up email: %w", err)
	}
	return r.LoadUser(ctx, id)
}

func (r *RedisStorage) ListUsers(ctx context.Context) ([]*account.User, error) {
	out, err := hashList[account.User](ctx, r, usersKey)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}
