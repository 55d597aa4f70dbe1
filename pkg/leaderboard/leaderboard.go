// Package leaderboard scores creators, NPCs and players.
package leaderboard

import (
	"sort"
	"time"

	"github.com/jwebster45206/realm-engine/pkg/actor"
	"github.com/jwebster45206/realm-engine/pkg/npc"
	"github.com/jwebster45206/realm-engine/pkg/share"
)

const (
	// Period is the look-back window of the weekly and trending boards.
	Period = 7 * 24 * time.Hour

	WeeklyLimit       = 20
	DefaultBoardLimit = 10
)

// CreatorStats is one row of the weekly creator board.
type CreatorStats struct {
	CreatorID         string `json:"creator_id"`
	Username          string `json:"username"`
	NPCsCreated       int    `json:"npcs_created"`
	TotalRemixes      int    `json:"total_remixes"`
	TotalShares       int    `json:"total_shares"`
	TotalInteractions int    `json:"total_interactions"`
	ReputationScore   int    `json:"reputation_score"`
}

// Weekly is the creator board for the last Period.
type Weekly struct {
	Period      string          `json:"period"`
	StartDate   time.Time       `json:"start_date"`
	EndDate     time.Time       `json:"end_date"`
	TopCreators []*CreatorStats `json:"top_creators"`
}

// WeeklyBoard aggregates NPC and share activity per creator. Only creations
// and shares inside the period count toward npcs_created and total_shares;
// remixes, interactions and views are all-time.
func WeeklyBoard(now time.Time, npcs []*npc.NPC, shares []*share.Share, usernames map[string]string) Weekly {
	cutoff := now.Add(-Period)
	stats := map[string]*CreatorStats{}
	get := func(id string) *CreatorStats {
		s, ok := stats[id]
		if !ok {
			s = &CreatorStats{CreatorID: id, Username: usernames[id]}
			stats[id] = s
		}
		return s
	}

	for _, n := range npcs {
		if n.CreatorID == "" {
			continue
		}
		s := get(n.CreatorID)
		if !n.CreatedAt.Before(cutoff) {
			s.NPCsCreated++
		}
		s.TotalRemixes += n.RemixCount
		s.TotalInteractions += n.Interactions
	}

	for _, sh := range shares {
		if sh.UserID == "" {
			continue
		}
		s := get(sh.UserID)
		if !sh.CreatedAt.Before(cutoff) {
			s.TotalShares++
		}
		s.TotalInteractions += sh.ViewCount
		s.TotalRemixes += sh.RemixFromShare
	}

	rows := make([]*CreatorStats, 0, len(stats))
	for _, s := range stats {
		s.ReputationScore = s.NPCsCreated*10 + s.TotalRemixes*25 + s.TotalShares*5 + s.TotalInteractions
		rows = append(rows, s)
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].ReputationScore != rows[j].ReputationScore {
			return rows[i].ReputationScore > rows[j].ReputationScore
		}
		return rows[i].CreatorID < rows[j].CreatorID
	})
	if len(rows) > WeeklyLimit {
		rows = rows[:WeeklyLimit]
	}

	return Weekly{Period: "weekly", StartDate: cutoff, EndDate: now, TopCreators: rows}
}

// TrendingNPC is an NPC with its recent-activity score.
type TrendingNPC struct {
	*npc.NPC
	TrendingScore int `json:"trending_score"`
}

// Trending ranks NPCs created in the last Period by remix×3 + share×2 + interactions.
func Trending(now time.Time, npcs []*npc.NPC, limit int) []TrendingNPC {
	if limit <= 0 {
		limit = DefaultBoardLimit
	}
	cutoff := now.Add(-Period)
	out := []TrendingNPC{}
	for _, n := range npcs {
		if n.CreatedAt.Before(cutoff) {
			continue
		}
		out = append(out, TrendingNPC{
			NPC:           n,
			TrendingScore: n.RemixCount*3 + n.ShareCount*2 + n.Interactions,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].TrendingScore > out[j].TrendingScore
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Reputation totals a user's impact across their NPCs and shares.
func Reputation(userID string, npcs []*npc.NPC, shares []*share.Share) int {
	rep := 0
	for _, n := range npcs {
		if n.CreatorID == userID {
			rep += 10 + n.RemixCount*25 + n.ShareCount*5 + n.Interactions
		}
	}
	for _, s := range shares {
		if s.UserID == userID {
			rep += 5 + s.ViewCount + s.RemixFromShare*15
		}
	}
	return rep
}

// GlobalStats summarizes the whole platform.
type GlobalStats struct {
	TotalUsers        int `json:"total_users"`
	TotalNPCs         int `json:"total_npcs"`
	TotalRemixes      int `json:"total_remixes"`
	TotalShares       int `json:"total_shares"`
	TotalRooms        int `json:"total_rooms"`
	TotalInteractions int `json:"total_interactions"`
	TotalPlayers      int `json:"total_players"`
	TotalBlueprints   int `json:"total_blueprints"`
}

// Stats builds GlobalStats from the loaded collections and counts.
func Stats(users, rooms, players, blueprints int, npcs []*npc.NPC, shares []*share.Share) GlobalStats {
	gs := GlobalStats{
		TotalUsers:      users,
		TotalNPCs:       len(npcs),
		TotalShares:     len(shares),
		TotalRooms:      rooms,
		TotalPlayers:    players,
		TotalBlueprints: blueprints,
	}
	for _, n := range npcs {
		gs.TotalRemixes += n.RemixCount
		gs.TotalInteractions += n.Interactions
	}
	return gs
}

// levelWeight keeps xp from ever outranking a full level in PlayerScore.
const levelWeight = 1e9

// PlayerScore orders players by level, then by xp within the level.
func PlayerScore(p *actor.Player) float64 {
	xp := min(p.XP, int(levelWeight)-1)
	return float64(p.Level)*levelWeight + float64(xp)
}

// PlayerEntry is one row of the player board.
type PlayerEntry struct {
	Rank     int    `json:"rank"`
	PlayerID string `json:"player_id"`
	Name     string `json:"name"`
	Level    int    `json:"level"`
	XP       int    `json:"xp"`
}

// EntryFor builds a board row from a player.
func EntryFor(rank int, p *actor.Player) PlayerEntry {
	return PlayerEntry{Rank: rank, PlayerID: p.ID, Name: p.Name, Level: p.Level, XP: p.XP}
}

// MostRemixed sorts NPCs by remix count, highest first.
func MostRemixed(npcs []*npc.NPC, limit int) []*npc.NPC {
	if limit <= 0 {
		limit = DefaultBoardLimit
	}
	out := append([]*npc.NPC(nil), npcs...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].RemixCount > out[j].RemixCount
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}
