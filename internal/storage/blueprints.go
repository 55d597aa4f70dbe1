package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jwebster45206/realm-engine/pkg/crafting"
)

// PutBlueprintIfAbsent relies on HSETNX so that concurrent discoverers of the
// same combination agree on a single winner.
func (r *RedisStorage) PutBlueprintIfAbsent(ctx context.Context, bp *crafting.Blueprint) (*crafting.Blueprint, bool, error) {
	data, err := json.Marshal(bp)
	if err != nil {
		return nil, false, fmt.Errorf("failed to marshal blueprint: %w", err)
	}

	created, err := r.client.HSetNX(ctx, blueprintsKey, bp.ID, data).Result()
	if err != nil {
		return nil, false, fmt.Errorf("failed to store blueprint: %w", err)
	}
	if created {
		r.logger.Debug("Blueprint created", "blueprint_id", bp.ID, "discovered_by", bp.DiscoveredBy)
		return bp, true, nil
	}

	existing, err := r.GetBlueprint(ctx, bp.ID)
	if err != nil {
		return nil, false, err
	}
	if existing == nil {
		return nil, false, fmt.Errorf("blueprint %s vanished after HSETNX", bp.ID)
	}
	return existing, false, nil
}

func (r *RedisStorage) GetBlueprint(ctx context.Context, id string) (*crafting.Blueprint, error) {
	return hashGet[crafting.Blueprint](ctx, r, blueprintsKey, id)
}

func (r *RedisStorage) CountBlueprints(ctx context.Context) (int, error) {
	n, err := r.client.HLen(ctx, blueprintsKey).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to count blueprints: %w", err)
	}
	return int(n), nil
}
