// Package combat resolves turn-based fights between a player and an encounter.
package combat

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/jwebster45206/realm-engine/pkg/actor"
	"github.com/jwebster45206/realm-engine/pkg/progression"
	"github.com/jwebster45206/realm-engine/pkg/rng"
)

// Command is what the player does against an encounter.
type Command string

const (
	CommandAttack Command = "attack"
	CommandFlee   Command = "flee"
)

// ParseCommand maps a raw payload value to a Command. An empty value is an attack.
func ParseCommand(s string) (Command, error) {
	switch Command(strings.ToLower(strings.TrimSpace(s))) {
	case "", CommandAttack:
		return CommandAttack, nil
	case CommandFlee:
		return CommandFlee, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownCommand, s)
}

// ErrUnknownCommand is returned for fight commands other than attack or flee.
var ErrUnknownCommand = errors.New("unknown fight command")

// Outcome is the terminal state of one resolution.
type Outcome string

const (
	OutcomeVictory Outcome = "victory"
	OutcomeFled    Outcome = "fled"
	OutcomeDraw    Outcome = "draw"
)

const (
	// LogCap stops a fight that has produced more than this many log lines.
	LogCap = 30

	baseFleeChance    = 0.4
	fleeChancePerAgi  = 0.05
	evadeDivisor      = 20.0
	xpLossDivisor     = 4
	powerSpread       = 0.2
	victoryXPBase     = 40
	victoryXPVariance = 20
)

// Result reports what happened in one fight call.
type Result struct {
	Outcome  Outcome               `json:"result"`
	Log      []string              `json:"log"`
	Loot     []string              `json:"loot,omitempty"`
	XP       int                   `json:"xp,omitempty"`
	LevelUps []progression.LevelUp `json:"-"`
}

// Resolver runs fights with an injected random source.
type Resolver struct {
	src rng.Source
}

// NewResolver creates a resolver. A nil source uses the process-wide generator.
func NewResolver(src rng.Source) *Resolver {
	if src == nil {
		src = rng.Default()
	}
	return &Resolver{src: src}
}

// FleeChance is the probability a player escapes, clamped to [0, 1].
func FleeChance(agility int) float64 {
	return math.Max(0, math.Min(1, baseFleeChance+float64(agility-5)*fleeChancePerAgi))
}

// PlayerPower is the mean damage of a player's hit.
func PlayerPower(strength, level int) int {
	return strength + level/2
}

// Damage rolls a hit around power with a 20% standard deviation, never negative.
func Damage(src rng.Source, power int) int {
	mean := float64(power)
	return max(0, int(math.Round(rng.Gaussian(src, mean, powerSpread*mean))))
}

// Resolve plays out one fight command against an encounter the player holds.
// The player and encounter are mutated in place. A victory or successful
// flight removes the encounter from the player; a draw leaves it damaged.
func (r *Resolver) Resolve(p *actor.Player, e *actor.Encounter, cmd Command) (*Result, error) {
	if cmd != CommandAttack && cmd != CommandFlee {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCommand, cmd)
	}

	pc, err := actor.NewPlayerCombatant(p)
	if err != nil {
		return nil, err
	}
	ec, err := actor.NewEnemyCombatant(e)
	if err != nil {
		return nil, err
	}

	res := &Result{Log: []string{}}

	if cmd == CommandFlee {
		if rng.Chance(r.src, FleeChance(pc.Stat("agility"))) {
			p.RemoveEncounter(e.ID)
			p.Record(fmt.Sprintf("Fled from %s.", e.Name))
			res.Outcome = OutcomeFled
			res.Log = append(res.Log, "You fled successfully.")
			return res, nil
		}
		res.Log = append(res.Log, "Failed to flee! The fight begins.")
	}

	playerFirst := pc.ActsBefore(ec)
	for !ec.Down() {
		if playerFirst {
			r.playerHit(pc, ec, e, res)
			if ec.Down() {
				break
			}
			r.enemyHit(pc, ec, p, res, "attack")
		} else {
			r.enemyHit(pc, ec, p, res, "strike")
			r.playerHit(pc, ec, e, res)
		}

		// Initiative alternates every round.
		playerFirst = !playerFirst
		if len(res.Log) > LogCap {
			break
		}
	}

	if !ec.Down() {
		res.Outcome = OutcomeDraw
		return res, nil
	}

	loot := append([]string{}, e.Loot...)
	p.Inventory.AddElements(loot...)
	xp := victoryXPBase + r.src.IntN(victoryXPVariance+1)
	res.LevelUps = progression.GrantXP(p, xp, "Defeated "+e.Name, r.src)
	p.Record(fmt.Sprintf("Defeated %s and looted %s.", e.Name, strings.Join(loot, ", ")))
	p.RemoveEncounter(e.ID)

	res.Outcome = OutcomeVictory
	res.Loot = loot
	res.XP = xp
	return res, nil
}

func (r *Resolver) playerHit(pc, ec *actor.Combatant, e *actor.Encounter, res *Result) {
	dmg := Damage(r.src, PlayerPower(pc.Stat("strength"), pc.Stat("level")))
	ec.Wound(e, dmg)
	res.Log = append(res.Log, fmt.Sprintf("You hit %s for %d damage. (%d HP left)", e.Name, dmg, e.HP))
}

// enemyHit models a strike against the player. Players carry no health, so a
// landed strike costs experience instead.
func (r *Resolver) enemyHit(pc, ec *actor.Combatant, p *actor.Player, res *Result, verb string) {
	atk := ec.Stat("attack")
	dmg := Damage(r.src, atk)

	if rng.Chance(r.src, float64(pc.Stat("agility"))/evadeDivisor) {
		res.Log = append(res.Log, fmt.Sprintf("You evaded %s's %s.", ec.Name, verb))
		return
	}

	loss := atk / xpLossDivisor
	p.LoseXP(loss)
	res.Log = append(res.Log, fmt.Sprintf("%s hit you for %d. You lost %d XP.", ec.Name, dmg, loss))
}
