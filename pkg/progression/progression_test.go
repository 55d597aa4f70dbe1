package progression

import (
	"testing"

	"github.com/jwebster45206/realm-engine/pkg/actor"
	"github.com/jwebster45206/realm-engine/pkg/rng"
)

func TestGrantXP_SingleLevel(t *testing.T) {
	p := actor.NewPlayer("Alice")
	src := &rng.Scripted{Ints: []int{0}}

	gained := GrantXP(p, 150, "test", src)

	if len(gained) != 1 {
		t.Fatalf("expected 1 level-up, got %d", len(gained))
	}
	if p.Level != 2 {
		t.Errorf("Level = %d, want 2", p.Level)
	}
	if p.XP != 50 {
		t.Errorf("XP = %d, want 50", p.XP)
	}
	if p.XPToNext != 150 {
		t.Errorf("XPToNext = %d, want 150", p.XPToNext)
	}
	if p.Stats.Strength != 6 {
		t.Errorf("Strength = %d, want 6 (scripted stat pick)", p.Stats.Strength)
	}
}

func TestGrantXP_ChronicleOrder(t *testing.T) {
	p := actor.NewPlayer("Alice")
	GrantXP(p, 100, "Exploration", &rng.Scripted{})

	got := []string{}
	for _, e := range p.Chronicle[1:] {
		got = append(got, e.E)
	}
	want := []string{
		"Gained 100 XP (Exploration).",
		"Leveled up! Now level 2. +1 strength.",
	}
	if len(got) != len(want) {
		t.Fatalf("chronicle = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("chronicle[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestGrantXP_MultipleLevels(t *testing.T) {
	p := actor.NewPlayer("Bob")
	// 100 + 150 + 225 = 475 to reach level 4
	gained := GrantXP(p, 500, "boss", &rng.Scripted{Ints: []int{0, 1, 2}})

	if len(gained) != 3 {
		t.Fatalf("expected 3 level-ups, got %d", len(gained))
	}
	if p.Level != 4 || p.XP != 25 || p.XPToNext != 337 {
		t.Errorf("got level=%d xp=%d next=%d, want 4/25/337", p.Level, p.XP, p.XPToNext)
	}
	if p.Stats != (actor.Stats{Strength: 6, Intelligence: 6, Agility: 6}) {
		t.Errorf("Stats = %+v, want one point in each", p.Stats)
	}
	for i, lu := range gained {
		if lu.Level != i+2 {
			t.Errorf("gained[%d].Level = %d, want %d", i, lu.Level, i+2)
		}
	}
}

func TestGrantXP_NoLevelUp(t *testing.T) {
	p := actor.NewPlayer("Carol")
	if gained := GrantXP(p, 99, "almost", nil); len(gained) != 0 {
		t.Errorf("expected no level-up, got %v", gained)
	}
	if p.Level != 1 || p.XP != 99 {
		t.Errorf("got level=%d xp=%d", p.Level, p.XP)
	}
}

func TestGrantXP_NegativeIgnored(t *testing.T) {
	p := actor.NewPlayer("Dana")
	before := len(p.Chronicle)
	GrantXP(p, -5, "oops", nil)
	if p.XP != 0 || len(p.Chronicle) != before {
		t.Errorf("negative grant mutated player: xp=%d chronicle=%d", p.XP, len(p.Chronicle))
	}
}

func TestGrantXP_InvariantHolds(t *testing.T) {
	amounts := []int{0, 1, 99, 100, 101, 249, 250, 1000, 12345, 1_000_000}
	for _, amount := range amounts {
		p := actor.NewPlayer("Eve")
		prevLevel := p.Level
		GrantXP(p, amount, "bulk", nil)
		if p.XP >= p.XPToNext {
			t.Errorf("amount %d: xp %d >= xp_to_next %d", amount, p.XP, p.XPToNext)
		}
		if p.XP < 0 {
			t.Errorf("amount %d: negative xp %d", amount, p.XP)
		}
		if p.Level < prevLevel {
			t.Errorf("amount %d: level decreased", amount)
		}
	}
}
