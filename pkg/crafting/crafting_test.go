package crafting

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/jwebster45206/realm-engine/pkg/rng"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBlueprintID_PermutationInvariant(t *testing.T) {
	perms := [][]string{
		{"Iron", "Hydrogen", "Gold"},
		{"Gold", "Iron", "Hydrogen"},
		{"Hydrogen", "Gold", "Iron"},
	}
	want := BlueprintID(perms[0])
	assert.Len(t, want, 10)
	for _, p := range perms[1:] {
		assert.Equal(t, want, BlueprintID(p), "permutation %v", p)
	}

	assert.NotEqual(t, want, BlueprintID([]string{"Iron", "Gold"}))
	assert.NotEqual(t, BlueprintID([]string{"Iron", "Iron"}), BlueprintID([]string{"Iron"}))
}

func TestCanonicalKey(t *testing.T) {
	in := []string{"Sulfur", "Carbon", "Iron"}
	assert.Equal(t, "Carbon-Iron-Sulfur", CanonicalKey(in))
	assert.Equal(t, []string{"Sulfur", "Carbon", "Iron"}, in, "input must not be reordered")
}

func TestShortHash_Known(t *testing.T) {
	// sha256("abc") = ba7816bf8f01cfea...
	assert.Equal(t, "ba7816bf8f", ShortHash("abc"))
}

func TestRarityFor(t *testing.T) {
	tests := []struct {
		roll float64
		want string
	}{
		{0.0, RarityCommon},
		{0.30, RarityCommon},
		{0.31, RarityUncommon},
		{0.60, RarityUncommon},
		{0.61, RarityRare},
		{0.86, RarityEpic},
		{0.97, RarityEpic},
		{0.98, RarityLegendary},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, RarityFor(tt.roll), "roll %v", tt.roll)
	}
}

func TestCraftItem(t *testing.T) {
	elements := []string{"Iron", "Hydrogen"}
	item, err := CraftItem(elements, &rng.Scripted{Floats: []float64{0.5, 0.9}})
	require.NoError(t, err)

	assert.Equal(t, "IH-"+BlueprintID(elements)+" Artifact", item.Name)
	assert.Equal(t, 61.0, item.Power)
	assert.Equal(t, RarityEpic, item.Rarity)
	assert.Equal(t, "Forged from Iron, Hydrogen; it hums with echo-resonance.", item.Flavor)
	assert.Equal(t, elements, item.Elements)
}

func TestCraftItem_TooFewElements(t *testing.T) {
	_, err := CraftItem([]string{"Iron"}, nil)
	assert.ErrorIs(t, err, ErrTooFewElements)
}

func TestCraftItem_PowerInRange(t *testing.T) {
	rolls := []float64{0, 0.000001, 0.25, 0.5, 0.999999}
	for n := 2; n <= 6; n++ {
		elements := strings.Split(strings.Repeat("Iron,", n)[:5*n-1], ",")
		lo, hi := PowerRange(n)
		for _, roll := range rolls {
			item, err := CraftItem(elements, &rng.Scripted{Floats: []float64{roll}})
			require.NoError(t, err)
			assert.GreaterOrEqual(t, item.Power, lo, "n=%d roll=%v", n, roll)
			assert.LessOrEqual(t, item.Power, hi, "n=%d roll=%v", n, roll)
		}
	}
}

func TestCraftItem_PowerRoundedToCents(t *testing.T) {
	item, err := CraftItem([]string{"A", "B"}, &rng.Scripted{Floats: []float64{0.123456}})
	require.NoError(t, err)
	// 10 + 11.11104 + 6
	assert.Equal(t, 27.11, item.Power)
}

func TestShouldConsume(t *testing.T) {
	assert.True(t, ShouldConsume(&rng.Scripted{Floats: []float64{0.74}}))
	assert.False(t, ShouldConsume(&rng.Scripted{Floats: []float64{0.75}}))
}

func TestDiscover_FirstDiscovererWins(t *testing.T) {
	ctx := context.Background()
	reg := NewMemoryRegistry()

	first, err := Discover(ctx, reg, "Alice", []string{"Iron", "Hydrogen"})
	require.NoError(t, err)
	assert.False(t, first.Already)
	assert.Equal(t, "Alice", first.Blueprint.DiscoveredBy)

	second, err := Discover(ctx, reg, "Bob", []string{"Hydrogen", "Iron"})
	require.NoError(t, err)
	assert.True(t, second.Already)
	assert.Equal(t, "Alice", second.Blueprint.DiscoveredBy)
	assert.Equal(t, first.Blueprint.ID, second.Blueprint.ID)
	assert.Equal(t, 1, reg.Count())
}

func TestDiscover_TooFewElements(t *testing.T) {
	_, err := Discover(context.Background(), NewMemoryRegistry(), "Alice", []string{"Iron"})
	assert.ErrorIs(t, err, ErrTooFewElements)
}

func TestDiscover_ConcurrentSingleWinner(t *testing.T) {
	ctx := context.Background()
	reg := NewMemoryRegistry()

	const workers = 32
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			elements := []string{"Gold", "Sulfur"}
			if i%2 == 0 {
				elements = []string{"Sulfur", "Gold"}
			}
			d, err := Discover(ctx, reg, "racer", elements)
			if err != nil {
				t.Errorf("Discover() error = %v", err)
				return
			}
			if !d.Already {
				mu.Lock()
				created++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, created)
	assert.Equal(t, 1, reg.Count())
}

func TestProtoItem(t *testing.T) {
	bp := &Blueprint{ID: "abc123def0", Elements: []string{"Iron", "Gold"}}
	item := ProtoItem(bp)
	assert.Equal(t, "Proto-abc123def0", item.Name)
	assert.Equal(t, RarityUnique, item.Rarity)
}
