// Package npc generates player-created characters from templates and tracks
// their remix lineage.
package npc

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jwebster45206/realm-engine/pkg/rng"
)

// StartNodeID is the id of the opening node of every dialogue tree.
const StartNodeID = "start"

var (
	Traits = []string{
		"curious", "brave", "cautious", "cheerful", "mysterious", "grumpy",
		"wise", "mischievous", "loyal", "ambitious", "quiet", "energetic",
		"protective", "cunning", "noble", "humble", "passionate", "stoic",
	}

	namePrefixes = []string{"Elder", "Young", "Master", "Dame", "Sir", "Captain", "Sage"}
	givenNames   = []string{"Aldric", "Thora", "Zephyr", "Lyra", "Kael", "Nyx", "Orion", "Iris"}
	nameSuffixes = []string{"the Wise", "the Bold", "the Swift", "the Kind", "the Mysterious"}

	dialogueStarters = []string{
		"Greetings, traveler. What brings you to these parts?",
		"Ah, a new face. I haven't seen you around here before.",
		"You look like someone who could use a good story.",
		"Be careful around here. Not everything is as it seems.",
		"I've been waiting for someone like you to arrive.",
		"The winds of fate have brought you here for a reason.",
		"Welcome, friend. Or perhaps... foe?",
		"Another soul lost in this vast world, I see.",
	}

	backstoryTemplates = []string{
		"%[1]s was born in the shadow of the mountains. Their %[2]s nature often got them into trouble. Now they seek adventure in the wider world.",
		"Once a simple villager, %[1]s's %[2]s personality led them to great discoveries. They carry the weight of ancient secrets. Their journey has only just begun.",
		"%[1]s wandered the lands for years, their %[2]s spirit never broken. They've seen kingdoms rise and fall. Now they offer wisdom to those who listen.",
		"In the depths of the forest, %[1]s found their calling. Their %[2]s demeanor hides a powerful determination. They protect what matters most to them.",
		"%[1]s emerged from the ruins of the old world, %[2]s and resolute. They speak of visions and prophecies yet to unfold. Some say they hold the key to the future.",
	}
)

// Response is one selectable reply inside a dialogue node.
type Response struct {
	ID       string `json:"id"`
	Text     string `json:"text"`
	Response string `json:"response"`
}

// DialogueNode is one step of an NPC conversation.
type DialogueNode struct {
	ID        string     `json:"id"`
	Text      string     `json:"text"`
	Responses []Response `json:"responses"`
}

// NPC is a user-created character.
type NPC struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	Trait        string         `json:"trait"`
	Backstory    string         `json:"backstory"`
	DialogueTree []DialogueNode `json:"dialogue_tree"`
	CreatorID    string         `json:"creator_id"`
	CreatedAt    time.Time      `json:"created_at"`
	RemixCount   int            `json:"remix_count"`
	ShareCount   int            `json:"share_count"`
	ParentID     string         `json:"parent_id,omitempty"`
	Lineage      []string       `json:"lineage"`
	Interactions int            `json:"interactions"`
}

// Popularity is the sort key for the popular list.
func (n *NPC) Popularity() int {
	return n.RemixCount + n.ShareCount
}

// Reply finds the response text for a dialogue option on the start node.
func (n *NPC) Reply(dialogueID string) (string, bool) {
	for _, node := range n.DialogueTree {
		if node.ID != StartNodeID {
			continue
		}
		for _, r := range node.Responses {
			if r.ID == dialogueID {
				return r.Response, true
			}
		}
	}
	return "", false
}

// Spec holds the optional fields a creator can set. Blank fields are generated.
type Spec struct {
	Name      string `json:"name,omitempty"`
	Trait     string `json:"trait,omitempty"`
	Backstory string `json:"backstory,omitempty"`
}

// Generator fills in NPC content from templates.
type Generator struct {
	src rng.Source
}

// NewGenerator creates a generator. A nil source uses the process-wide generator.
func NewGenerator(src rng.Source) *Generator {
	if src == nil {
		src = rng.Default()
	}
	return &Generator{src: src}
}

// Name generates a titled name such as "Sage Lyra the Bold".
func (g *Generator) Name() string {
	return fmt.Sprintf("%s %s %s",
		rng.Choice(g.src, namePrefixes),
		rng.Choice(g.src, givenNames),
		rng.Choice(g.src, nameSuffixes))
}

// Backstory renders one of the three-sentence templates.
func (g *Generator) Backstory(name, trait string) string {
	return fmt.Sprintf(rng.Choice(g.src, backstoryTemplates), name, trait)
}

// DialogueTree builds the opening node with its fixed replies.
func (g *Generator) DialogueTree(trait, backstory string) []DialogueNode {
	first, _, _ := strings.Cut(backstory, ".")
	return []DialogueNode{{
		ID:   StartNodeID,
		Text: rng.Choice(g.src, dialogueStarters),
		Responses: []Response{
			{
				ID:       "ask_about_past",
				Text:     "Tell me about yourself.",
				Response: fmt.Sprintf("Ah, my story... %s. But that's enough about me.", first),
			},
			{
				ID:       "ask_quest",
				Text:     "Do you need any help?",
				Response: fmt.Sprintf("Perhaps. I've been seeking someone %s enough to assist me with a delicate matter.", trait),
			},
			{
				ID:       "farewell",
				Text:     "I must go.",
				Response: "Safe travels, friend. May we meet again.",
			},
		},
	}}
}

// Create builds a new NPC for a creator. When parent is non-nil the NPC
// records it in its lineage.
func (g *Generator) Create(creatorID string, spec Spec, parent *NPC) *NPC {
	name := strings.TrimSpace(spec.Name)
	if name == "" {
		name = g.Name()
	}
	trait := strings.TrimSpace(spec.Trait)
	if trait == "" {
		trait = rng.Choice(g.src, Traits)
	}
	backstory := strings.TrimSpace(spec.Backstory)
	if backstory == "" {
		backstory = g.Backstory(name, trait)
	}

	n := &NPC{
		ID:           uuid.New().String(),
		Name:         name,
		Trait:        trait,
		Backstory:    backstory,
		DialogueTree: g.DialogueTree(trait, backstory),
		CreatorID:    creatorID,
		CreatedAt:    time.Now().UTC(),
		Lineage:      []string{},
	}
	if parent != nil {
		n.ParentID = parent.ID
		n.Lineage = append(append([]string{}, parent.Lineage...), parent.ID)
	}
	return n
}

// Remix copies the original, applying any non-blank overrides, and bumps the
// original's remix count.
func (g *Generator) Remix(creatorID string, original *NPC, changes Spec) *NPC {
	spec := Spec{Name: original.Name, Trait: original.Trait, Backstory: original.Backstory}
	if changes.Name != "" {
		spec.Name = changes.Name
	}
	if changes.Trait != "" {
		spec.Trait = changes.Trait
	}
	if changes.Backstory != "" {
		spec.Backstory = changes.Backstory
	}
	original.RemixCount++
	return g.Create(creatorID, spec, original)
}

// Ancestor is the attribution view of one lineage entry.
type Ancestor struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	CreatorID string `json:"creator_id"`
}

// Lineage resolves an NPC's ancestor ids, oldest first. Missing ancestors are skipped.
func Lineage(n *NPC, lookup func(id string) *NPC) []Ancestor {
	out := []Ancestor{}
	for _, id := range n.Lineage {
		if a := lookup(id); a != nil {
			out = append(out, Ancestor{ID: a.ID, Name: a.Name, CreatorID: a.CreatorID})
		}
	}
	return out
}

// Popular sorts by remix plus share count, highest first, and truncates to limit.
func Popular(npcs []*NPC, limit int) []*NPC {
	sorted := append([]*NPC(nil), npcs...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Popularity() > sorted[j].Popularity()
	})
	if limit > 0 && len(sorted) > limit {
		sorted = sorted[:limit]
	}
	return sorted
}
