package storage

import (
	"context"
	"errors"
	"time"

	"github.com/jwebster45206/realm-engine/pkg/account"
	"github.com/jwebster45206/realm-engine/pkg/actor"
	"github.com/jwebster45206/realm-engine/pkg/crafting"
	"github.com/jwebster45206/realm-engine/pkg/encounter"
	"github.com/jwebster45206/realm-engine/pkg/npc"
	"github.com/jwebster45206/realm-engine/pkg/room"
	"github.com/jwebster45206/realm-engine/pkg/share"
	"github.com/jwebster45206/realm-engine/pkg/world"
)

var (
	// ErrLockTimeout is returned when a record lock cannot be taken before the context ends.
	ErrLockTimeout = errors.New("timed out waiting for lock")

	// ErrEmailTaken is returned when registering an address that already has an account.
	ErrEmailTaken = errors.New("email already registered")
)

// Unlock releases a lock taken with Locker.Lock.
type Unlock func(ctx context.Context) error

// Locker provides single-writer scopes for read-modify-write cycles.
type Locker interface {
	// Lock blocks until the key is held or ctx is done. The lock expires after
	// ttl if it is never released.
	Lock(ctx context.Context, key string, ttl time.Duration) (Unlock, error)
}

// PlayerStore persists player records. LoadPlayer returns (nil, nil) when the
// player does not exist.
type PlayerStore interface {
	SavePlayer(ctx context.Context, p *actor.Player) error
	LoadPlayer(ctx context.Context, id string) (*actor.Player, error)
	CountPlayers(ctx context.Context) (int, error)
	// TopPlayers returns up to n players ordered by level, then xp.
	TopPlayers(ctx context.Context, n int) ([]*actor.Player, error)
}

// BlueprintStore is the global blueprint table.
type BlueprintStore interface {
	crafting.Registry
	GetBlueprint(ctx context.Context, id string) (*crafting.Blueprint, error)
	CountBlueprints(ctx context.Context) (int, error)
}

// WorldStore is the capped, newest-first world feed.
type WorldStore interface {
	AppendWorldEvent(ctx context.Context, e world.Event) error
	ListWorldEvents(ctx context.Context, n int) ([]world.Event, error)
}

// SocialStore persists NPCs, rooms and shares. Loads return (nil, nil) when missing.
type SocialStore interface {
	SaveNPC(ctx context.Context, n *npc.NPC) error
	LoadNPC(ctx context.Context, id string) (*npc.NPC, error)
	ListNPCs(ctx context.Context) ([]*npc.NPC, error)

	SaveRoom(ctx context.Context, r *room.Room) error
	LoadRoom(ctx context.Context, id string) (*room.Room, error)
	ListRooms(ctx context.Context) ([]*room.Room, error)

	SaveShare(ctx context.Context, s *share.Share) error
	LoadShare(ctx context.Context, id string) (*share.Share, error)
	ListShares(ctx context.Context) ([]*share.Share, error)
}

// UserStore persists accounts. CreateUser fails with ErrEmailTaken on a duplicate address.
type UserStore interface {
	CreateUser(ctx context.Context, u *account.User) error
	SaveUser(ctx context.Context, u *account.User) error
	LoadUser(ctx context.Context, id string) (*account.User, error)
	LoadUserByEmail(ctx context.Context, email string) (*account.User, error)
	ListUsers(ctx context.Context) ([]*account.User, error)
}

// ArchetypeSource loads enemy templates from static data.
type ArchetypeSource interface {
	ListArchetypes(ctx context.Context) ([]encounter.Archetype, error)
}

// Storage defines a unified interface for all storage operations.
// Game records live in Redis; enemy archetypes are read from the data directory.
type Storage interface {
	// Health and lifecycle
	Ping(ctx context.Context) error
	Close() error

	Locker
	PlayerStore
	BlueprintStore
	WorldStore
	SocialStore
	UserStore
	ArchetypeSource
}

// Lock key helpers shared by every implementation.
func PlayerLockKey(id string) string { return "lock:player:" + id }
func NPCLockKey(id string) string    { return "lock:npc:" + id }
func RoomLockKey(id string) string   { return "lock:room:" + id }
func ShareLockKey(id string) string  { return "lock:share:" + id }
func UserLockKey(id string) string   { return "lock:user:" + id }
