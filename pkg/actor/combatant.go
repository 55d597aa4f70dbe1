package actor

import (
	"fmt"

	"github.com/jwebster45206/d20"
)

const defaultAC = 10

// Combatant is the runtime stat block of one side of a fight.
// It is rebuilt from the persisted record for every combat resolution.
type Combatant struct {
	Name  string
	Actor *d20.Actor
}

// NewPlayerCombatant builds a combatant from a player's stats and level.
// Players have no tracked health, so the actor carries a nominal single HP.
func NewPlayerCombatant(p *Player) (*Combatant, error) {
	if p == nil {
		return nil, fmt.Errorf("player cannot be nil")
	}

	attrs := p.Stats.ToAttributes()
	attrs["level"] = p.Level

	a, err := d20.NewActor(p.ID).
		WithHP(1).
		WithAC(defaultAC).
		WithAttributes(attrs).
		Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build player actor: %w", err)
	}

	a.SetInitiative(p.Stats.Agility)

	return &Combatant{Name: p.Name, Actor: a}, nil
}

// NewEnemyCombatant builds a combatant from an encounter, carrying its current HP.
func NewEnemyCombatant(e *Encounter) (*Combatant, error) {
	if e == nil {
		return nil, fmt.Errorf("encounter cannot be nil")
	}
	if e.MaxHP <= 0 {
		return nil, fmt.Errorf("encounter %s has no health", e.ID)
	}

	a, err := d20.NewActor(e.ID).
		WithHP(e.MaxHP).
		WithAC(defaultAC).
		WithAttributes(map[string]int{
			"attack":  e.Attack,
			"agility": e.Agility,
		}).
		Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build enemy actor: %w", err)
	}

	if e.HP != e.MaxHP {
		if err := a.SetHP(min(max(e.HP, 0), e.MaxHP)); err != nil {
			return nil, fmt.Errorf("failed to set HP: %w", err)
		}
	}
	a.SetInitiative(e.Agility)

	return &Combatant{Name: e.Name, Actor: a}, nil
}

// ActsBefore reports whether c takes the first turn against o. Ties go to c.
func (c *Combatant) ActsBefore(o *Combatant) bool {
	return c.Actor.Initiative() >= o.Actor.Initiative()
}

// Wound applies damage to the actor and mirrors the remaining health onto
// the encounter it was built from. Negative damage is ignored.
func (c *Combatant) Wound(e *Encounter, n int) {
	if n > 0 {
		c.Actor.SubHP(n)
	}
	if e != nil {
		e.HP = c.Actor.HP()
	}
}

// Down reports whether the actor has no health left.
func (c *Combatant) Down() bool {
	return c.Actor.IsKnockedOut()
}

// Stat returns an attribute value, or 0 when the actor lacks it.
func (c *Combatant) Stat(key string) int {
	if v, ok := c.Actor.Attribute(key); ok {
		return v
	}
	return 0
}
