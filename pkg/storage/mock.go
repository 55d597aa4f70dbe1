package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jwebster45206/realm-engine/pkg/account"
	"github.com/jwebster45206/realm-engine/pkg/actor"
	"github.com/jwebster45206/realm-engine/pkg/crafting"
	"github.com/jwebster45206/realm-engine/pkg/encounter"
	"github.com/jwebster45206/realm-engine/pkg/leaderboard"
	"github.com/jwebster45206/realm-engine/pkg/npc"
	"github.com/jwebster45206/realm-engine/pkg/room"
	"github.com/jwebster45206/realm-engine/pkg/share"
	"github.com/jwebster45206/realm-engine/pkg/world"
)

// MockStorage is a mock implementation of Storage for testing.
// Records are deep-copied on the way in and out so callers never share state
// with the store, matching a real backend.
type MockStorage struct {
	mu         sync.RWMutex
	players    map[string][]byte
	npcs       map[string][]byte
	rooms      map[string][]byte
	shares     map[string][]byte
	users      map[string][]byte
	emails     map[string]string
	archetypes []encounter.Archetype
	blueprints *crafting.MemoryRegistry
	feed       *world.MemoryFeed
	pingError  error
	saveError  error

	lockMu sync.Mutex
	locks  map[string]time.Time
}

// Ensure MockStorage implements Storage interface
var _ Storage = (*MockStorage)(nil)

// NewMockStorage creates a new mock storage
func NewMockStorage() *MockStorage {
	return &MockStorage{
		players:    make(map[string][]byte),
		npcs:       make(map[string][]byte),
		rooms:      make(map[string][]byte),
		shares:     make(map[string][]byte),
		users:      make(map[string][]byte),
		emails:     make(map[string]string),
		blueprints: crafting.NewMemoryRegistry(),
		feed:       world.NewMemoryFeed(),
		locks:      make(map[string]time.Time),
	}
}

// SetPingError configures the mock to fail on ping with the given error
func (m *MockStorage) SetPingError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pingError = err
}

// SetSaveError makes every Save call fail with err. Nil restores normal behavior.
func (m *MockStorage) SetSaveError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saveError = err
}

// SetArchetypes configures the enemy templates returned by ListArchetypes.
func (m *MockStorage) SetArchetypes(a []encounter.Archetype) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.archetypes = a
}

// Ping mocks storage ping
func (m *MockStorage) Ping(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pingError
}

// Close mocks storage close
func (m *MockStorage) Close() error {
	return nil
}

func encode(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal record: %w", err)
	}
	return data, nil
}

func put(m *MockStorage, table map[string][]byte, id string, v any) error {
	data, err := encode(v)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveError != nil {
		return m.saveError
	}
	table[id] = data
	return nil
}

func get[T any](m *MockStorage, table map[string][]byte, id string) (*T, error) {
	m.mu.RLock()
	data, ok := table[id]
	m.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("failed to unmarshal record: %w", err)
	}
	return &v, nil
}

func list[T any](m *MockStorage, table map[string][]byte) ([]*T, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]string, 0, len(table))
	for id := range table {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := make([]*T, 0, len(ids))
	for _, id := range ids {
		var v T
		if err := json.Unmarshal(table[id], &v); err != nil {
			return nil, fmt.Errorf("failed to unmarshal record: %w", err)
		}
		out = append(out, &v)
	}
	return out, nil
}

// Lock mocks a per-key lock, polling until the key is free or ctx is done.
func (m *MockStorage) Lock(ctx context.Context, key string, ttl time.Duration) (Unlock, error) {
	for {
		m.lockMu.Lock()
		expires, held := m.locks[key]
		if !held || time.Now().After(expires) {
			m.locks[key] = time.Now().Add(ttl)
			m.lockMu.Unlock()
			return func(context.Context) error {
				m.lockMu.Lock()
				defer m.lockMu.Unlock()
				delete(m.locks, key)
				return nil
			}, nil
		}
		m.lockMu.Unlock()

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %s", ErrLockTimeout, key)
		case <-time.After(5 * time.Millisecond):
		}
	}
}

// Players

func (m *MockStorage) SavePlayer(ctx context.Context, p *actor.Player) error {
	if p == nil {
		return errors.New("player cannot be nil")
	}
	return put(m, m.players, p.ID, p)
}

func (m *MockStorage) LoadPlayer(ctx context.Context, id string) (*actor.Player, error) {
	return get[actor.Player](m, m.players, id)
}

func (m *MockStorage) CountPlayers(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.players), nil
}

func (m *MockStorage) TopPlayers(ctx context.Context, n int) ([]*actor.Player, error) {
	players, err := list[actor.Player](m, m.players)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(players, func(i, j int) bool {
		return leaderboard.PlayerScore(players[i]) > leaderboard.PlayerScore(players[j])
	})
	if n > 0 && len(players) > n {
		players = players[:n]
	}
	return players, nil
}

// Blueprints

func (m *MockStorage) PutBlueprintIfAbsent(ctx context.Context, bp *crafting.Blueprint) (*crafting.Blueprint, bool, error) {
	return m.blueprints.PutBlueprintIfAbsent(ctx, bp)
}

func (m *MockStorage) GetBlueprint(ctx context.Context, id string) (*crafting.Blueprint, error) {
	bp, ok := m.blueprints.Get(id)
	if !ok {
		return nil, nil
	}
	return bp, nil
}

func (m *MockStorage) CountBlueprints(ctx context.Context) (int, error) {
	return m.blueprints.Count(), nil
}

// World feed

func (m *MockStorage) AppendWorldEvent(ctx context.Context, e world.Event) error {
	m.feed.Add(e)
	return nil
}

func (m *MockStorage) ListWorldEvents(ctx context.Context, n int) ([]world.Event, error) {
	return m.feed.Recent(n), nil
}

// NPCs, rooms and shares

func (m *MockStorage) SaveNPC(ctx context.Context, n *npc.NPC) error {
	return put(m, m.npcs, n.ID, n)
}

func (m *MockStorage) LoadNPC(ctx context.Context, id string) (*npc.NPC, error) {
	return get[npc.NPC](m, m.npcs, id)
}

func (m *MockStorage) ListNPCs(ctx context.Context) ([]*npc.NPC, error) {
	return list[npc.NPC](m, m.npcs)
}

func (m *MockStorage) SaveRoom(ctx context.Context, r *room.Room) error {
	return put(m, m.rooms, r.ID, r)
}

func (m *MockStorage) LoadRoom(ctx context.Context, id string) (*room.Room, error) {
	return get[room.Room](m, m.rooms, id)
}

func (m *MockStorage) ListRooms(ctx context.Context) ([]*room.Room, error) {
	return list[room.Room](m, m.rooms)
}

func (m *MockStorage) SaveShare(ctx context.Context, s *share.Share) error {
	return put(m, m.shares, s.ID, s)
}

func (m *MockStorage) LoadShare(ctx context.Context, id string) (*share.Share, error) {
	return get[share.Share](m, m.shares, id)
}

func (m *MockStorage) ListShares(ctx context.Context) ([]*share.Share, error) {
	return list[share.Share](m, m.shares)
}

// Users

func (m *MockStorage) CreateUser(ctx context.Context, u *account.User) error {
	data, err := encode(u)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, taken := m.emails[u.Email]; taken {
		return ErrEmailTaken
	}
	m.emails[u.Email] = u.ID
	m.users[u.ID] = data
	return nil
}

func (m *MockStorage) SaveUser(ctx context.Context, u *account.User) error {
	return put(m, m.users, u.ID, u)
}

func (m *MockStorage) LoadUser(ctx context.Context, id string) (*account.User, error) {
	return get[account.User](m, m.users, id)
}

func (m *MockStorage) LoadUserByEmail(ctx context.Context, email string) (*account.User, error) {
	m.mu.RLock()
	id, ok := m.emails[email]
	m.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	return m.LoadUser(ctx, id)
}

func (m *MockStorage) ListUsers(ctx context.Context) ([]*account.User, error) {
	return list[account.User](m, m.users)
}

// Archetypes

func (m *MockStorage) ListArchetypes(ctx context.Context) ([]encounter.Archetype, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]encounter.Archetype(nil), m.archetypes...), nil
}
