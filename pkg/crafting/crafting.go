// Package crafting turns inventory elements into items and content-addressed blueprints.
package crafting

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/jwebster45206/realm-engine/pkg/actor"
	"github.com/jwebster45206/realm-engine/pkg/rng"
)

const (
	// MinElements is the smallest combination that can be crafted or discovered.
	MinElements = 2

	// ConsumeChance is the probability that a craft uses up its inputs.
	// One draw covers the whole element set.
	ConsumeChance = 0.75

	hashLength = 10
)

// Rarity tiers.
const (
	RarityCommon    = "Common"
	RarityUncommon  = "Uncommon"
	RarityRare      = "Rare"
	RarityEpic      = "Epic"
	RarityLegendary = "Legendary"
	RarityUnique    = "Unique"
)

// ErrTooFewElements is returned when fewer than MinElements are supplied.
var ErrTooFewElements = errors.New("need at least 2 elements")

// CanonicalKey sorts the elements and joins them with hyphens, so every
// ordering of the same multiset produces the same key.
func CanonicalKey(elements []string) string {
	sorted := append([]string(nil), elements...)
	sort.Strings(sorted)
	return strings.Join(sorted, "-")
}

// ShortHash returns the first 10 hex characters of the SHA-256 of s.
func ShortHash(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])[:hashLength]
}

// BlueprintID is the content address of an element combination.
func BlueprintID(elements []string) string {
	return ShortHash(CanonicalKey(elements))
}

// RarityFor maps a uniform roll to a rarity tier.
func RarityFor(roll float64) string {
	switch {
	case roll > 0.97:
		return RarityLegendary
	case roll > 0.85:
		return RarityEpic
	case roll > 0.60:
		return RarityRare
	case roll > 0.30:
		return RarityUncommon
	default:
		return RarityCommon
	}
}

// PowerRange returns the inclusive bounds of an item's power for n elements.
func PowerRange(n int) (float64, float64) {
	return 10 + 3*float64(n), 100 + 3*float64(n)
}

// CraftItem builds an item from at least two elements. The name and flavor are
// derived from the elements; power and rarity are rolled.
func CraftItem(elements []string, src rng.Source) (actor.Item, error) {
	if len(elements) < MinElements {
		return actor.Item{}, ErrTooFewElements
	}
	if src == nil {
		src = rng.Default()
	}

	var initials strings.Builder
	for _, e := range elements {
		if r, _ := utf8.DecodeRuneInString(e); r != utf8.RuneError {
			initials.WriteRune(r)
		}
	}

	power := 10 + src.Float64()*90 + 3*float64(len(elements))
	power = math.Round(power*100) / 100

	return actor.Item{
		Name:     fmt.Sprintf("%s-%s Artifact", initials.String(), BlueprintID(elements)),
		Elements: append([]string(nil), elements...),
		Power:    power,
		Rarity:   RarityFor(src.Float64()),
		Flavor:   fmt.Sprintf("Forged from %s; it hums with echo-resonance.", strings.Join(elements, ", ")),
	}, nil
}

// ShouldConsume rolls the single consumption draw for a craft.
func ShouldConsume(src rng.Source) bool {
	return rng.Chance(src, ConsumeChance)
}

// ProtoItem is the reward for discovering a blueprint by experiment.
func ProtoItem(bp *Blueprint) actor.Item {
	return actor.Item{
		Name:     "Proto-" + bp.ID,
		Elements: append([]string(nil), bp.Elements...),
		Rarity:   RarityUnique,
	}
}
