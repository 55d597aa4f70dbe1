// Package world defines the global narrative feed shared by all players.
package world

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

const (
	// FeedLimit is the number of events the feed retains.
	FeedLimit = 200

	// SnapshotSize is how many events the world view returns.
	SnapshotSize = 50

	// PlayerSnapshotSize is how many events accompany a player view.
	PlayerSnapshotSize = 10
)

// Event is one line of the world feed.
type Event struct {
	T     time.Time `json:"t"`
	Event string    `json:"event"`
}

// NewEvent timestamps a feed line.
func NewEvent(text string) Event {
	return Event{T: time.Now().UTC(), Event: text}
}

// Snapshot is the public view of the world.
type Snapshot struct {
	Events          []Event `json:"events"`
	BlueprintsCount int     `json:"blueprints_count"`
}

// LevelReached is the feed line for a level-up.
func LevelReached(name string, level int) string {
	return fmt.Sprintf("%s reached level %d.", name, level)
}

// BlueprintDiscovered is the feed line for any newly created blueprint.
func BlueprintDiscovered(name string, elements []string) string {
	return fmt.Sprintf("Blueprint discovered: %s by %s", strings.Join(elements, ", "), name)
}

// ExperimentSucceeded is the feed line for a blueprint found by experimenting.
func ExperimentSucceeded(name string, elements []string) string {
	return fmt.Sprintf("%s discovered a new blueprint: %s", name, strings.Join(elements, ", "))
}

// MemoryFeed is an in-process feed, newest first, capped at FeedLimit.
type MemoryFeed struct {
	mu     sync.RWMutex
	events []Event
}

// NewMemoryFeed creates an empty feed.
func NewMemoryFeed() *MemoryFeed {
	return &MemoryFeed{}
}

// Add prepends an event and trims the feed.
func (f *MemoryFeed) Add(e Event) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.events = append([]Event{e}, f.events...)
	if len(f.events) > FeedLimit {
		f.events = f.events[:FeedLimit]
	}
}

// Recent returns up to n events, newest first.
func (f *MemoryFeed) Recent(n int) []Event {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if n <= 0 || n > len(f.events) {
		n = len(f.events)
	}
	return append([]Event{}, f.events[:n]...)
}
