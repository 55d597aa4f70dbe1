package crafting

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Blueprint is a globally unique, immutable record of a discovered combination.
type Blueprint struct {
	ID           string    `json:"id"`
	Elements     []string  `json:"elements"`
	DiscoveredBy string    `json:"discovered_by"`
	T            time.Time `json:"t"`
}

// Discovery is the outcome of a discovery attempt.
type Discovery struct {
	Already   bool       `json:"already"`
	Blueprint *Blueprint `json:"blueprint"`
}

// Registry stores blueprints with first-writer-wins semantics.
// PutBlueprintIfAbsent must be atomic: when two callers race on the same id,
// exactly one gets created=true and the other receives the winner's record.
type Registry interface {
	PutBlueprintIfAbsent(ctx context.Context, bp *Blueprint) (stored *Blueprint, created bool, err error)
}

// Discover looks up the blueprint for a combination and creates it if absent.
// Existing records are returned untouched.
func Discover(ctx context.Context, reg Registry, discoverer string, elements []string) (*Discovery, error) {
	if len(elements) < MinElements {
		return nil, ErrTooFewElements
	}

	bp := &Blueprint{
		ID:           BlueprintID(elements),
		Elements:     append([]string(nil), elements...),
		DiscoveredBy: discoverer,
		T:            time.Now().UTC(),
	}

	stored, created, err := reg.PutBlueprintIfAbsent(ctx, bp)
	if err != nil {
		return nil, fmt.Errorf("failed to store blueprint: %w", err)
	}
	return &Discovery{Already: !created, Blueprint: stored}, nil
}

// MemoryRegistry is an in-process Registry guarded by a single mutex.
type MemoryRegistry struct {
	mu         sync.Mutex
	blueprints map[string]*Blueprint
}

var _ Registry = (*MemoryRegistry)(nil)

// NewMemoryRegistry creates an empty registry.
func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{blueprints: make(map[string]*Blueprint)}
}

func (m *MemoryRegistry) PutBlueprintIfAbsent(_ context.Context, bp *Blueprint) (*Blueprint, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.blueprints[bp.ID]; ok {
		return existing, false, nil
	}
	m.blueprints[bp.ID] = bp
	return bp, true, nil
}

// Get returns a blueprint by id.
func (m *MemoryRegistry) Get(id string) (*Blueprint, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	bp, ok := m.blueprints[id]
	return bp, ok
}

// Count returns the number of stored blueprints.
func (m *MemoryRegistry) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.blueprints)
}
