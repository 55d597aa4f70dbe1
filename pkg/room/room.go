// Package room models shared play sessions: membership, chat and NPC interactions.
package room

import (
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	DefaultMaxPlayers = 4
	ChatLogLimit      = 100
	InteractionLimit  = 50
	DefaultListLimit  = 20
)

var (
	ErrRoomClosed  = errors.New("room is closed")
	ErrRoomFull    = errors.New("room is full")
	ErrNotCreator  = errors.New("only the room creator can close it")
	ErrInvalidName = errors.New("room name is required")
)

// ChatEntry is one message in a room's chat log.
type ChatEntry struct {
	UserID    string    `json:"user_id"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// Interaction records a player talking to the room's NPC.
type Interaction struct {
	UserID     string    `json:"user_id"`
	NPCID      string    `json:"npc_id"`
	DialogueID string    `json:"dialogue_id"`
	Response   string    `json:"response"`
	Timestamp  time.Time `json:"timestamp"`
}

// Room is a persisted play session.
type Room struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	CreatorID    string        `json:"creator_id"`
	NPCID        string        `json:"npc_id,omitempty"`
	MaxPlayers   int           `json:"max_players"`
	CreatedAt    time.Time     `json:"created_at"`
	Active       bool          `json:"active"`
	Players      []string      `json:"players"`
	ChatLog      []ChatEntry   `json:"chat_log"`
	Interactions []Interaction `json:"interactions"`
}

// New creates an active room with the creator as its first player.
func New(creatorID, name, npcID string, maxPlayers int) (*Room, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrInvalidName
	}
	if maxPlayers <= 0 {
		maxPlayers = DefaultMaxPlayers
	}
	return &Room{
		ID:           uuid.New().String(),
		Name:         name,
		CreatorID:    creatorID,
		NPCID:        npcID,
		MaxPlayers:   maxPlayers,
		CreatedAt:    time.Now().UTC(),
		Active:       true,
		Players:      []string{creatorID},
		ChatLog:      []ChatEntry{},
		Interactions: []Interaction{},
	}, nil
}

// HasPlayer reports whether the user has ever joined.
func (r *Room) HasPlayer(userID string) bool {
	for _, p := range r.Players {
		if p == userID {
			return true
		}
	}
	return false
}

// IsFull reports whether the room has reached its player cap.
func (r *Room) IsFull() bool {
	return len(r.Players) >= r.MaxPlayers
}

// Join adds a player to an active room. Existing members may rejoin a full room.
func (r *Room) Join(userID string) error {
	if !r.Active {
		return ErrRoomClosed
	}
	if r.HasPlayer(userID) {
		return nil
	}
	if r.IsFull() {
		return ErrRoomFull
	}
	r.Players = append(r.Players, userID)
	return nil
}

// AddChat appends a message, keeping the newest ChatLogLimit entries.
func (r *Room) AddChat(userID, message string) ChatEntry {
	entry := ChatEntry{UserID: userID, Message: message, Timestamp: time.Now().UTC()}
	r.ChatLog = append(r.ChatLog, entry)
	if over := len(r.ChatLog) - ChatLogLimit; over > 0 {
		r.ChatLog = append([]ChatEntry(nil), r.ChatLog[over:]...)
	}
	return entry
}

// AddInteraction appends an NPC interaction, keeping the newest InteractionLimit entries.
func (r *Room) AddInteraction(userID, npcID, dialogueID, response string) Interaction {
	in := Interaction{
		UserID:     userID,
		NPCID:      npcID,
		DialogueID: dialogueID,
		Response:   response,
		Timestamp:  time.Now().UTC(),
	}
	r.Interactions = append(r.Interactions, in)
	if over := len(r.Interactions) - InteractionLimit; over > 0 {
		r.Interactions = append([]Interaction(nil), r.Interactions[over:]...)
	}
	return in
}

// Close deactivates the room. Only the creator may close it.
func (r *Room) Close(userID string) error {
	if r.CreatorID != userID {
		return ErrNotCreator
	}
	r.Active = false
	return nil
}

// Joinable filters to active, non-full rooms, newest first, up to limit.
func Joinable(rooms []*Room, limit int) []*Room {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	out := make([]*Room, 0, len(rooms))
	for _, r := range rooms {
		if r.Active && !r.IsFull() {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}
