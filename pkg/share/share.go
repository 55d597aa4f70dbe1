// Package share tracks public links to NPCs and renders their preview page.
package share

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jwebster45206/realm-engine/pkg/npc"
)

const (
	DefaultPopularLimit = 10
	DefaultUserLimit    = 20

	// RemixWeight is how much a remix through a share counts against a view.
	RemixWeight = 5
)

// Share is a public link to an NPC.
type Share struct {
	ID             string    `json:"id"`
	UserID         string    `json:"user_id"`
	NPCID          string    `json:"npc_id"`
	NPCName        string    `json:"npc_name"`
	CreatedAt      time.Time `json:"created_at"`
	ViewCount      int       `json:"view_count"`
	RemixFromShare int       `json:"remix_from_share"`
}

// New creates a share of an NPC by a user.
func New(userID string, n *npc.NPC) *Share {
	return &Share{
		ID:        uuid.New().String(),
		UserID:    userID,
		NPCID:     n.ID,
		NPCName:   n.Name,
		CreatedAt: time.Now().UTC(),
	}
}

// URL is the public path of the share page.
func (s *Share) URL() string {
	return "/share/" + s.ID
}

// Score ranks shares for the popular list.
func (s *Share) Score() int {
	return s.ViewCount + s.RemixFromShare*RemixWeight
}

// Popular sorts shares by score, highest first.
func Popular(shares []*Share, limit int) []*Share {
	if limit <= 0 {
		limit = DefaultPopularLimit
	}
	out := append([]*Share(nil), shares...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score() > out[j].Score()
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// ForUser returns a user's shares, newest first.
func ForUser(shares []*Share, userID string, limit int) []*Share {
	if limit <= 0 {
		limit = DefaultUserLimit
	}
	out := []*Share{}
	for _, s := range shares {
		if s.UserID == userID {
			out = append(out, s)
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
