package actor

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	StartingLocation = "The Shattered Shore"
	StartingXPToNext = 100
	BaseStatValue    = 5
)

// StarterElements are granted to every new player.
var StarterElements = []string{"Hydrogen", "Iron", "Gold", "Carbon", "Sulfur"}

// StatNames lists the stat keys in a fixed order.
var StatNames = []string{"strength", "intelligence", "agility"}

// Stats is a player's core stat block.
type Stats struct {
	Strength     int `json:"strength"`
	Intelligence int `json:"intelligence"`
	Agility      int `json:"agility"`
}

// ToAttributes converts Stats to a map for d20.Actor compatibility
func (s *Stats) ToAttributes() map[string]int {
	return map[string]int{
		"strength":     s.Strength,
		"intelligence": s.Intelligence,
		"agility":      s.Agility,
	}
}

// Increment raises the named stat by one.
func (s *Stats) Increment(stat string) error {
	switch stat {
	case "strength":
		s.Strength++
	case "intelligence":
		s.Intelligence++
	case "agility":
		s.Agility++
	default:
		return fmt.Errorf("unknown stat: %s", stat)
	}
	return nil
}

// Item is a crafted or awarded object in a player's inventory.
type Item struct {
	Name     string   `json:"name"`
	Elements []string `json:"elements,omitempty"`
	Power    float64  `json:"power,omitempty"`
	Rarity   string   `json:"rarity"`
	Flavor   string   `json:"flavor,omitempty"`
}

// Inventory holds raw elements (a multiset) and finished items.
type Inventory struct {
	Elements []string `json:"elements"`
	Items    []Item   `json:"items"`
}

// HasElements reports whether every requested element is held,
// counting duplicates.
func (inv *Inventory) HasElements(elements []string) (bool, string) {
	counts := make(map[string]int, len(inv.Elements))
	for _, e := range inv.Elements {
		counts[e]++
	}
	for _, e := range elements {
		if counts[e] == 0 {
			return false, e
		}
		counts[e]--
	}
	return true, ""
}

// AddElements appends elements to the inventory.
func (inv *Inventory) AddElements(elements ...string) {
	inv.Elements = append(inv.Elements, elements...)
}

// RemoveElements removes one occurrence of each element. Missing elements are ignored.
func (inv *Inventory) RemoveElements(elements []string) {
	for _, e := range elements {
		for i, held := range inv.Elements {
			if held == e {
				inv.Elements = append(inv.Elements[:i], inv.Elements[i+1:]...)
				break
			}
		}
	}
}

// AddItem stores an item.
func (inv *Inventory) AddItem(item Item) {
	inv.Items = append(inv.Items, item)
}

// ChronicleEntry is one line of a player's narrative log.
type ChronicleEntry struct {
	T time.Time `json:"t"`
	E string    `json:"e"`
}

// Player is the persisted record of one participant in the world.
type Player struct {
	ID          string                `json:"id"`
	Name        string                `json:"name"`
	CreatedAt   time.Time             `json:"created_at"`
	Level       int                   `json:"level"`
	XP          int                   `json:"xp"`
	XPToNext    int                   `json:"xp_to_next"`
	Stats       Stats                 `json:"stats"`
	Inventory   Inventory             `json:"inventory"`
	Location    string                `json:"location"`
	Discoveries []string              `json:"discoveries"`
	Encounters  map[string]*Encounter `json:"encounters,omitempty"`
	Chronicle   []ChronicleEntry      `json:"chronicle"`
}

// NewPlayer creates a level 1 player at the starting location.
func NewPlayer(name string) *Player {
	name = strings.TrimSpace(name)
	if name == "" {
		name = "Anonymous"
	}

	p := &Player{
		ID:        uuid.New().String(),
		Name:      name,
		CreatedAt: time.Now().UTC(),
		Level:     1,
		XP:        0,
		XPToNext:  StartingXPToNext,
		Stats: Stats{
			Strength:     BaseStatValue,
			Intelligence: BaseStatValue,
			Agility:      BaseStatValue,
		},
		Inventory: Inventory{
			Elements: append([]string(nil), StarterElements...),
			Items:    []Item{},
		},
		Location:    StartingLocation,
		Discoveries: []string{},
		Encounters:  make(map[string]*Encounter),
		Chronicle:   make([]ChronicleEntry, 0, 1),
	}
	p.Record(fmt.Sprintf("%s entered the world at %s.", p.Name, p.Location))
	return p
}

// Record appends an entry to the chronicle. Entries are never removed.
func (p *Player) Record(text string) {
	p.Chronicle = append(p.Chronicle, ChronicleEntry{T: time.Now().UTC(), E: text})
}

// Encounter returns the active encounter with the given id.
func (p *Player) Encounter(id string) (*Encounter, bool) {
	if p.Encounters == nil {
		return nil, false
	}
	e, ok := p.Encounters[id]
	return e, ok
}

// AddEncounter attaches an encounter to the player.
func (p *Player) AddEncounter(e *Encounter) {
	if p.Encounters == nil {
		p.Encounters = make(map[string]*Encounter)
	}
	p.Encounters[e.ID] = e
}

// RemoveEncounter detaches an encounter.
func (p *Player) RemoveEncounter(id string) {
	delete(p.Encounters, id)
}

// AddDiscovery records a blueprint id once.
func (p *Player) AddDiscovery(id string) {
	for _, d := range p.Discoveries {
		if d == id {
			return
		}
	}
	p.Discoveries = append(p.Discoveries, id)
}

// LoseXP reduces experience, never below zero.
func (p *Player) LoseXP(n int) {
	p.XP -= n
	if p.XP < 0 {
		p.XP = 0
	}
}
