// Package encounter builds enemy instances scaled to a player's level.
package encounter

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jwebster45206/realm-engine/pkg/actor"
	"github.com/jwebster45206/realm-engine/pkg/rng"
)

// LevelScale is the per-level growth applied to archetype stats.
const LevelScale = 0.15

// Archetype is the template an encounter is rolled from.
type Archetype struct {
	Name    string   `json:"name"`
	HP      int      `json:"hp"`
	Attack  int      `json:"atk"`
	Agility int      `json:"agility"`
	Loot    []string `json:"loot"`
}

// Validate checks that an archetype can produce a fightable encounter.
func (a Archetype) Validate() error {
	if strings.TrimSpace(a.Name) == "" {
		return fmt.Errorf("archetype name is required")
	}
	if a.HP <= 0 {
		return fmt.Errorf("archetype %q: hp must be positive", a.Name)
	}
	if a.Attack < 0 || a.Agility < 0 {
		return fmt.Errorf("archetype %q: atk and agility cannot be negative", a.Name)
	}
	return nil
}

// DefaultArchetypes is the built-in enemy pool.
func DefaultArchetypes() []Archetype {
	return []Archetype{
		{Name: "Dust Wraith", HP: 20, Attack: 5, Agility: 6, Loot: []string{"Carbon"}},
		{Name: "Ironclad Rabble", HP: 40, Attack: 8, Agility: 3, Loot: []string{"Iron", "Sulfur"}},
		{Name: "Echohound", HP: 28, Attack: 6, Agility: 8, Loot: []string{"Leather", "Gold"}},
	}
}

// Factory rolls encounters from a fixed archetype pool.
type Factory struct {
	archetypes []Archetype
	src        rng.Source
}

// NewFactory creates a factory. An empty pool falls back to DefaultArchetypes,
// and a nil source falls back to the process-wide generator.
func NewFactory(archetypes []Archetype, src rng.Source) *Factory {
	if len(archetypes) == 0 {
		archetypes = DefaultArchetypes()
	}
	if src == nil {
		src = rng.Default()
	}
	return &Factory{archetypes: archetypes, src: src}
}

// Archetypes returns a copy of the pool.
func (f *Factory) Archetypes() []Archetype {
	return append([]Archetype(nil), f.archetypes...)
}

// Scale returns the stat multiplier for a level.
func Scale(level int) float64 {
	if level < 1 {
		level = 1
	}
	return 1 + float64(level-1)*LevelScale
}

// Roll picks an archetype uniformly and scales it to the player's level.
func (f *Factory) Roll(p *actor.Player) *actor.Encounter {
	return Build(rng.Choice(f.src, f.archetypes), p.Level)
}

// Build scales an archetype to a level and assigns a fresh id.
func Build(a Archetype, level int) *actor.Encounter {
	scale := Scale(level)
	hp := int(float64(a.HP) * scale)

	return &actor.Encounter{
		ID:      uuid.New().String(),
		Name:    a.Name,
		HP:      hp,
		MaxHP:   hp,
		Attack:  int(float64(a.Attack) * scale),
		Agility: int(float64(a.Agility) * scale),
		Loot:    append([]string(nil), a.Loot...),
	}
}
