package storage

import (
	"context"
	"sort"

	"github.com/jwebster45206/realm-engine/pkg/npc"
	"github.com/jwebster45206/realm-engine/pkg/room"
	"github.com/jwebster45206/realm-engine/pkg/share"
)

// NPCs, rooms and shares each live in a single hash keyed by id.
// Lists come back sorted by creation time, oldest first.

func (r *RedisStorage) SaveNPC(ctx context.Context, n *npc.NPC) error {
	return hashPut(ctx, r, npcsKey, n.ID, n)
}

func (r *RedisStorage) LoadNPC(ctx context.Context, id string) (*npc.NPC, error) {
	return hashGet[npc.NPC](ctx, r, npcsKey, id)
}

func (r *RedisStorage) ListNPCs(ctx context.Context) ([]*npc.NPC, error) {
	out, err := hashList[npc.NPC](ctx, r, npcsKey)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *RedisStorage) SaveRoom(ctx context.Context, rm *room.Room) error {
	return hashPut(ctx, r, roomsKey, rm.ID, rm)
}

func (r *RedisStorage) LoadRoom(ctx context.Context, id string) (*room.Room, error) {
	return hashGet[room.Room](ctx, r, roomsKey, id)
}

func (r *RedisStorage) ListRooms(ctx context.Context) ([]*room.Room, error) {
	out, err := hashList[room.Room](ctx, r, roomsKey)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *RedisStorage) SaveShare(ctx context.Context, s *share.Share) error {
	return hashPut(ctx, r, sharesKey, s.ID, s)
}

func (r *RedisStorage) LoadShare(ctx context.Context, id string) (*share.Share, error) {
	return hashGet[share.Share](ctx, r, sharesKey, id)
}

func (r *RedisStorage) ListShares(ctx context.Context) ([]*share.Share, error) {
	out, err := hashList[share.Share](ctx, r, sharesKey)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}
