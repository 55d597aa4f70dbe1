package action

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jwebster45206/realm-engine/pkg/actor"
	"github.com/jwebster45206/realm-engine/pkg/combat"
	"github.com/jwebster45206/realm-engine/pkg/crafting"
	"github.com/jwebster45206/realm-engine/pkg/encounter"
	"github.com/jwebster45206/realm-engine/pkg/progression"
	"github.com/jwebster45206/realm-engine/pkg/rng"
	"github.com/jwebster45206/realm-engine/pkg/storage"
	"github.com/jwebster45206/realm-engine/pkg/world"
)

const (
	DefaultLockTTL = 10 * time.Second

	encounterChance = 0.5

	exploreXP        = 12
	craftXP          = 30
	discoverXP       = 50
	failedDiscoverXP = 8
	restXP           = 10
)

var spawnPrompts = []string{
	"You find a shimmering cluster of elemental shards.",
	"A low hum stirs the air. Someone once experimented here.",
	"A wandering merchant left a crate of strange things.",
}

// foundElements is the pool explore draws from when no encounter appears.
var foundElements = append(append([]string{}, actor.StarterElements...), "Copper", "Silver", "Sulfur", "Quartz")

// experimentSizes weights a two-element experiment twice as likely as three.
var experimentSizes = []int{2, 2, 3}

// Store is the persistence the dispatcher needs.
type Store interface {
	storage.Locker
	crafting.Registry
	LoadPlayer(ctx context.Context, id string) (*actor.Player, error)
	SavePlayer(ctx context.Context, p *actor.Player) error
	AppendWorldEvent(ctx context.Context, e world.Event) error
}

// Publisher fans world events out to live subscribers.
type Publisher interface {
	PublishWorldEvent(ctx context.Context, e world.Event) error
}

// Dispatcher runs actions against one player at a time. Each call holds the
// player's lock across load, mutation and save.
type Dispatcher struct {
	store     Store
	factory   *encounter.Factory
	resolver  *combat.Resolver
	src       rng.Source
	publisher Publisher
	logger    *slog.Logger
	lockTTL   time.Duration
}

// NewDispatcher creates a dispatcher. A nil factory uses the default enemy
// pool and a nil source uses the process-wide generator.
func NewDispatcher(store Store, factory *encounter.Factory, src rng.Source, logger *slog.Logger) *Dispatcher {
	if src == nil {
		src = rng.Default()
	}
	if factory == nil {
		factory = encounter.NewFactory(nil, src)
	}
	return &Dispatcher{
		store:    store,
		factory:  factory,
		resolver: combat.NewResolver(src),
		src:      src,
		logger:   logger,
		lockTTL:  DefaultLockTTL,
	}
}

// WithPublisher sets where world events are broadcast.
func (d *Dispatcher) WithPublisher(p Publisher) *Dispatcher {
	d.publisher = p
	return d
}

// WithLockTTL sets how long a player lock lives if never released.
func (d *Dispatcher) WithLockTTL(ttl time.Duration) *Dispatcher {
	if ttl > 0 {
		d.lockTTL = ttl
	}
	return d
}

// turn collects the side effects of one action on top of its result.
type turn struct {
	player *actor.Player
	events []string
}

func (t *turn) grant(amount int, reason string, src rng.Source) {
	for _, lu := range progression.GrantXP(t.player, amount, reason, src) {
		t.events = append(t.events, world.LevelReached(t.player.Name, lu.Level))
	}
}

// Dispatch executes one action. Domain failures such as an unknown player are
// reported in the Result; the returned error is reserved for storage failures.
func (d *Dispatcher) Dispatch(ctx context.Context, req Request) (*Result, error) {
	name := strings.ToLower(strings.TrimSpace(req.Action))

	if req.PlayerID == "" {
		return failure(name, KindPlayerNotFound, "player not found"), nil
	}

	lockCtx := ctx
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		lockCtx, cancel = context.WithTimeout(ctx, d.lockTTL)
		defer cancel()
	}
	unlock, err := d.store.Lock(lockCtx, storage.PlayerLockKey(req.PlayerID), d.lockTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to lock player: %w", err)
	}
	defer func() {
		if err := unlock(context.WithoutCancel(ctx)); err != nil {
			d.logger.Warn("Failed to release player lock", "player_id", req.PlayerID, "error", err)
		}
	}()

	p, err := d.store.LoadPlayer(ctx, req.PlayerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load player: %w", err)
	}
	if p == nil {
		return failure(name, KindPlayerNotFound, "player not found"), nil
	}

	t := &turn{player: p}
	var res *Result
	switch Name(name) {
	case Explore:
		res = d.explore(t)
	case Fight:
		res, err = d.fight(t, req.Payload)
	case Craft:
		res, err = d.craft(ctx, t, req.Payload)
	case Discover:
		res, err = d.discover(ctx, t)
	case Rest:
		res = d.rest(t)
	default:
		return failure(name, KindUnknownAction, "Unknown action"), nil
	}
	if err != nil {
		return nil, err
	}
	res.Action = name
	if res.ErrorKind != "" {
		return res, nil
	}

	if err := d.store.SavePlayer(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to save player: %w", err)
	}
	d.emit(ctx, t.events)

	d.logger.Debug("Action resolved", "player_id", p.ID, "action", name, "result", res.Outcome)
	res.OK = true
	res.Player = p
	return res, nil
}

// emit records world events after the player is saved. Feed failures are
// logged and do not fail the action, which has already been committed.
func (d *Dispatcher) emit(ctx context.Context, lines []string) {
	for _, line := range lines {
		e := world.NewEvent(line)
		if err := d.store.AppendWorldEvent(ctx, e); err != nil {
			d.logger.Error("Failed to append world event", "event", line, "error", err)
			continue
		}
		if d.publisher != nil {
			if err := d.publisher.PublishWorldEvent(ctx, e); err != nil {
				d.logger.Warn("Failed to publish world event", "event", line, "error", err)
			}
		}
	}
}

func (d *Dispatcher) explore(t *turn) *Result {
	p := t.player
	text := rng.Choice(d.src, spawnPrompts)

	if rng.Chance(d.src, encounterChance) {
		enemy := d.factory.Roll(p)
		p.AddEncounter(enemy)
		return &Result{Outcome: OutcomeEncounter, Text: text, Enemy: enemy}
	}

	found := rng.Choice(d.src, foundElements)
	p.Inventory.AddElements(found)
	p.Record(fmt.Sprintf("Found %s while exploring.", found))
	t.grant(exploreXP, "Exploration", d.src)
	return &Result{Outcome: OutcomeFound, Text: fmt.Sprintf("%s You discovered %s.", text, found)}
}

func (d *Dispatcher) fight(t *turn, raw json.RawMessage) (*Result, error) {
	var payload FightPayload
	if err := decodePayload(raw, &payload); err != nil {
		return failure("", KindInvalidPayload, err.Error()), nil
	}

	enemy, ok := t.player.Encounter(payload.EnemyID)
	if !ok {
		return failure("", KindEncounterNotFound, "no such encounter"), nil
	}

	cmd, err := combat.ParseCommand(payload.Cmd)
	if err != nil {
		return failure("", KindUnknownAction, err.Error()), nil
	}

	out, err := d.resolver.Resolve(t.player, enemy, cmd)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve fight: %w", err)
	}
	for _, lu := range out.LevelUps {
		t.events = append(t.events, world.LevelReached(t.player.Name, lu.Level))
	}

	res := &Result{Log: out.Log}
	switch out.Outcome {
	case combat.OutcomeVictory:
		res.Outcome = OutcomeVictory
		res.Loot = out.Loot
		res.XP = out.XP
	case combat.OutcomeFled:
		res.Outcome = OutcomeFled
	default:
		res.Outcome = OutcomeDraw
	}
	return res, nil
}

func (d *Dispatcher) craft(ctx context.Context, t *turn, raw json.RawMessage) (*Result, error) {
	var payload CraftPayload
	if err := decodePayload(raw, &payload); err != nil {
		return failure("", KindInvalidPayload, err.Error()), nil
	}
	elements := payload.Elements
	if len(elements) < crafting.MinElements {
		return failure("", KindInsufficientElements, "Need 2+ elements to craft."), nil
	}

	p := t.player
	if ok, missing := p.Inventory.HasElements(elements); !ok {
		return failure("", KindInsufficientElements, "Missing element: "+missing), nil
	}

	item, err := crafting.CraftItem(elements, d.src)
	if err != nil {
		return failure("", KindInsufficientElements, err.Error()), nil
	}
	disc, err := crafting.Discover(ctx, d.store, p.Name, elements)
	if err != nil {
		return nil, err
	}
	if !disc.Already {
		t.events = append(t.events, world.BlueprintDiscovered(p.Name, disc.Blueprint.Elements))
	}

	if crafting.ShouldConsume(d.src) {
		p.Inventory.RemoveElements(elements)
	}
	p.Inventory.AddItem(item)
	t.grant(craftXP, "Crafting", d.src)

	if !disc.Already {
		p.AddDiscovery(disc.Blueprint.ID)
		p.Record(fmt.Sprintf("Discovered blueprint: %s.", strings.Join(elements, ", ")))
	}
	return &Result{Outcome: OutcomeCrafted, Item: &item, Discovered: disc}, nil
}

func (d *Dispatcher) discover(ctx context.Context, t *turn) (*Result, error) {
	p := t.player
	inv := p.Inventory.Elements
	if len(inv) < crafting.MinElements {
		return failure("", KindInsufficientElements, "Not enough elements to experiment."), nil
	}

	k := min(rng.Choice(d.src, experimentSizes), len(inv))
	elements := sample(d.src, inv, k)
	joined := strings.Join(elements, ", ")

	disc, err := crafting.Discover(ctx, d.store, p.Name, elements)
	if err != nil {
		return nil, err
	}

	if disc.Already {
		t.grant(failedDiscoverXP, "Failed experiment", d.src)
		p.Record(fmt.Sprintf("Experimented with %s but found nothing new.", joined))
		return &Result{Outcome: OutcomeNothing, Message: "Already discovered."}, nil
	}

	t.events = append(t.events, world.BlueprintDiscovered(p.Name, elements))
	p.AddDiscovery(disc.Blueprint.ID)
	t.grant(discoverXP, "Blueprint discovery", d.src)
	p.Record(fmt.Sprintf("Experimented and discovered blueprint: %s.", joined))
	t.events = append(t.events, world.ExperimentSucceeded(p.Name, elements))
	p.Inventory.AddItem(crafting.ProtoItem(disc.Blueprint))

	return &Result{Outcome: OutcomeDiscovered, Blueprint: disc.Blueprint}, nil
}

func (d *Dispatcher) rest(t *turn) *Result {
	t.grant(restXP, "Rest", d.src)
	t.player.Record("Rested and reflected.")
	return &Result{Outcome: OutcomeRested}
}

// sample picks k distinct positions from items without replacement.
func sample(src rng.Source, items []string, k int) []string {
	idx := make([]int, len(items))
	for i := range idx {
		idx[i] = i
	}
	out := make([]string, 0, k)
	for i := 0; i < k; i++ {
		j := i + src.IntN(len(idx)-i)
		idx[i], idx[j] = idx[j], idx[i]
		out = append(out, items[idx[i]])
	}
	return out
}

func decodePayload(raw json.RawMessage, v any) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("invalid payload: %w", err)
	}
	return nil
}
