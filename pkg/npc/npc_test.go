package npc

import (
	"strings"
	"testing"

	"github.com/jwebster45206/realm-engine/pkg/rng"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerator_CreateFillsBlanks(t *testing.T) {
	g := NewGenerator(&rng.Scripted{})
	n := g.Create("user-1", Spec{}, nil)

	assert.Equal(t, "Elder Aldric the Wise", n.Name)
	assert.Equal(t, "curious", n.Trait)
	assert.Equal(t, "Elder Aldric the Wise was born in the shadow of the mountains. Their curious nature often got them into trouble. Now they seek adventure in the wider world.", n.Backstory)
	assert.Equal(t, "user-1", n.CreatorID)
	assert.NotEmpty(t, n.ID)
	assert.Empty(t, n.ParentID)
	assert.Empty(t, n.Lineage)

	require.Len(t, n.DialogueTree, 1)
	start := n.DialogueTree[0]
	assert.Equal(t, StartNodeID, start.ID)
	require.Len(t, start.Responses, 3)
	assert.Equal(t, "Ah, my story... Elder Aldric the Wise was born in the shadow of the mountains. But that's enough about me.", start.Responses[0].Response)
}

func TestGenerator_CreateKeepsProvidedFields(t *testing.T) {
	g := NewGenerator(nil)
	n := g.Create("u", Spec{Name: " Mira ", Trait: "stoic", Backstory: "Raised by crows. Fears nothing."}, nil)

	assert.Equal(t, "Mira", n.Name)
	assert.Equal(t, "stoic", n.Trait)
	assert.Equal(t, "Raised by crows. Fears nothing.", n.Backstory)

	reply, ok := n.Reply("ask_quest")
	assert.True(t, ok)
	assert.True(t, strings.Contains(reply, "stoic"))
}

func TestGenerator_RemixLineage(t *testing.T) {
	g := NewGenerator(nil)
	root := g.Create("alice", Spec{Name: "Root", Trait: "wise"}, nil)
	child := g.Remix("bob", root, Spec{Name: "Child"})
	grandchild := g.Remix("carol", child, Spec{Trait: "grumpy"})

	assert.Equal(t, 1, root.RemixCount)
	assert.Equal(t, 1, child.RemixCount)

	assert.Equal(t, "Child", child.Name)
	assert.Equal(t, "wise", child.Trait)
	assert.Equal(t, root.ID, child.ParentID)
	assert.Equal(t, []string{root.ID}, child.Lineage)

	assert.Equal(t, "Child", grandchild.Name)
	assert.Equal(t, "grumpy", grandchild.Trait)
	assert.Equal(t, []string{root.ID, child.ID}, grandchild.Lineage)
	assert.Equal(t, []string{root.ID}, child.Lineage, "child lineage must not be aliased")

	byID := map[string]*NPC{root.ID: root, child.ID: child}
	ancestors := Lineage(grandchild, func(id string) *NPC { return byID[id] })
	require.Len(t, ancestors, 2)
	assert.Equal(t, Ancestor{ID: root.ID, Name: "Root", CreatorID: "alice"}, ancestors[0])
	assert.Equal(t, "bob", ancestors[1].CreatorID)
}

func TestLineage_SkipsMissing(t *testing.T) {
	n := &NPC{Lineage: []string{"gone"}}
	assert.Empty(t, Lineage(n, func(string) *NPC { return nil }))
}

func TestReply(t *testing.T) {
	n := NewGenerator(nil).Create("u", Spec{}, nil)

	reply, ok := n.Reply("farewell")
	assert.True(t, ok)
	assert.Equal(t, "Safe travels, friend. May we meet again.", reply)

	_, ok = n.Reply("sing")
	assert.False(t, ok)
}

func TestPopular(t *testing.T) {
	npcs := []*NPC{
		{ID: "a", RemixCount: 1},
		{ID: "b", RemixCount: 2, ShareCount: 5},
		{ID: "c", ShareCount: 3},
	}
	top := Popular(npcs, 2)
	require.Len(t, top, 2)
	assert.Equal(t, "b", top[0].ID)
	assert.Equal(t, "c", top[1].ID)
	assert.Equal(t, "a", npcs[0].ID, "input order is preserved")
}
