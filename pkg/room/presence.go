package room

import (
	"sort"
	"sync"
)

// Presence tracks which users are currently connected to each room.
// It is process-wide state: create one at startup and Reset it on shutdown.
type Presence struct {
	mu    sync.Mutex
	rooms map[string]map[string]struct{}
}

// NewPresence creates an empty tracker.
func NewPresence() *Presence {
	return &Presence{rooms: make(map[string]map[string]struct{})}
}

// Add marks a user as present in a room.
func (p *Presence) Add(roomID, userID string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	users, ok := p.rooms[roomID]
	if !ok {
		users = make(map[string]struct{})
		p.rooms[roomID] = users
	}
	users[userID] = struct{}{}
}

// Remove drops a user from a room. Rooms with nobody left are forgotten.
func (p *Presence) Remove(roomID, userID string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	users, ok := p.rooms[roomID]
	if !ok {
		return
	}
	delete(users, userID)
	if len(users) == 0 {
		delete(p.rooms, roomID)
	}
}

// Clear forgets every participant of a room.
func (p *Presence) Clear(roomID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.rooms, roomID)
}

// Participants returns the users present in a room, sorted.
func (p *Presence) Participants(roomID string) []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]string, 0, len(p.rooms[roomID]))
	for id := range p.rooms[roomID] {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Reset clears all rooms.
func (p *Presence) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.rooms = make(map[string]map[string]struct{})
}
