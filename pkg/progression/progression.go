// Package progression implements experience accumulation and the level curve.
package progression

import (
	"fmt"

	"github.com/jwebster45206/realm-engine/pkg/actor"
	"github.com/jwebster45206/realm-engine/pkg/rng"
)

// ThresholdGrowth is the multiplier applied to xp_to_next on every level-up.
const ThresholdGrowth = 1.5

// LevelUp describes one level gained during a grant.
type LevelUp struct {
	Level int    `json:"level"`
	Stat  string `json:"stat"`
}

// GrantXP adds experience to the player and rolls any overflow into level-ups,
// one level at a time. Each level raises a uniformly chosen stat by one.
// It returns the levels gained, in order; an empty slice means no level-up.
// Negative amounts are ignored.
func GrantXP(p *actor.Player, amount int, reason string, src rng.Source) []LevelUp {
	if amount < 0 {
		return nil
	}
	if src == nil {
		src = rng.Default()
	}

	p.XP += amount
	p.Record(fmt.Sprintf("Gained %d XP (%s).", amount, reason))

	if p.XPToNext <= 0 {
		p.XPToNext = actor.StartingXPToNext
	}

	var gained []LevelUp
	for p.XP >= p.XPToNext {
		p.XP -= p.XPToNext
		p.Level++
		p.XPToNext = int(float64(p.XPToNext) * ThresholdGrowth)

		stat := rng.Choice(src, actor.StatNames)
		// StatNames only holds known keys
		_ = p.Stats.Increment(stat)

		p.Record(fmt.Sprintf("Leveled up! Now level %d. +1 %s.", p.Level, stat))
		gained = append(gained, LevelUp{Level: p.Level, Stat: stat})
	}
	return gained
}
