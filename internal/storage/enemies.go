package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/jwebster45206/realm-engine/pkg/encounter"
)

// ListArchetypes reads every valid enemy template under DATA_DIR/enemies.
// Unreadable or invalid files are skipped with a warning. A missing directory
// yields an empty list, leaving the factory on its built-in pool.
func (r *RedisStorage) ListArchetypes(ctx context.Context) ([]encounter.Archetype, error) {
	enemiesDir := filepath.Join(r.dataDir, "enemies")
	archetypes := []encounter.Archetype{}

	if _, err := os.Stat(enemiesDir); os.IsNotExist(err) {
		r.logger.Debug("Enemies directory does not exist", "path", enemiesDir)
		return archetypes, nil
	}

	err := filepath.WalkDir(enemiesDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || filepath.Ext(path) != ".json" {
			return nil
		}

		file, err := os.ReadFile(path)
		if err != nil {
			r.logger.Warn("Failed to read enemy file", "path", path, "error", err)
			return nil
		}

		var a encounter.Archetype
		if err := json.Unmarshal(file, &a); err != nil {
			r.logger.Warn("Failed to unmarshal enemy file", "path", path, "error", err)
			return nil
		}
		if err := a.Validate(); err != nil {
			r.logger.Warn("Invalid enemy file", "path", path, "error", err)
			return nil
		}

		archetypes = append(archetypes, a)
		return nil
	})
	if err != nil {
		r.logger.Error("Failed to walk enemies directory", "error", err)
		return nil, fmt.Errorf("failed to list enemies: %w", err)
	}

	sort.Slice(archetypes, func(i, j int) bool { return archetypes[i].Name < archetypes[j].Name })
	return archetypes, nil
}
