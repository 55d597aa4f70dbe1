package handlers

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwebster45206/realm-engine/pkg/account"
	"github.com/jwebster45206/realm-engine/pkg/actor"
	"github.com/jwebster45206/realm-engine/pkg/leaderboard"
	"github.com/jwebster45206/realm-engine/pkg/npc"
	"github.com/jwebster45206/realm-engine/pkg/room"
	"github.com/jwebster45206/realm-engine/pkg/share"
	"github.com/jwebster45206/realm-engine/pkg/storage"
)

var boardNow = time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC)

func seedBoards(t *testing.T) *storage.MockStorage {
	t.Helper()
	ctx := context.Background()
	store := storage.NewMockStorage()

	alice, err := account.New("alice@example.com", "alice", "hash")
	require.NoError(t, err)
	alice.ID = "alice"
	alice.Reputation = 42
	require.NoError(t, store.CreateUser(ctx, alice))

	require.NoError(t, store.SaveNPC(ctx, &npc.NPC{ID: "n1", CreatorID: "alice", CreatedAt: boardNow.Add(-time.Hour), RemixCount: 3, Interactions: 2}))
	require.NoError(t, store.SaveNPC(ctx, &npc.NPC{ID: "n2", CreatorID: "bob", CreatedAt: boardNow.Add(-30 * 24 * time.Hour), RemixCount: 5}))
	require.NoError(t, store.SaveShare(ctx, &share.Share{ID: "s1", UserID: "bob", NPCID: "n1", CreatedAt: boardNow.Add(-time.Hour), ViewCount: 4}))
	rm, err := room.New("alice", "Tavern", "", 0)
	require.NoError(t, err)
	require.NoError(t, store.SaveRoom(ctx, rm))

	for i, name := range []string{"Ann", "Ben", "Cy"} {
		p := actor.NewPlayer(name)
		p.Level = 1 + i%2
		p.XP = 10 * i
		require.NoError(t, store.SavePlayer(ctx, p))
	}
	return store
}

func newBoardMux(store storage.Storage) *http.ServeMux {
	h := NewLeaderboardHandler(store, testLogger())
	h.now = func() time.Time { return boardNow }
	return mux(h)
}

func TestLeaderboardHandler_Weekly(t *testing.T) {
	m := newBoardMux(seedBoards(t))

	w := do(t, m, http.MethodGet, "/v1/leaderboard/weekly", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	board := decode[leaderboard.Weekly](t, w)
	require.Len(t, board.TopCreators, 2)
	assert.Equal(t, "bob", board.TopCreators[0].CreatorID)
	assert.Equal(t, 5*25+1*5+4, board.TopCreators[0].ReputationScore)
	assert.Equal(t, "alice", board.TopCreators[1].Username)
	assert.Equal(t, 10+3*25+2, board.TopCreators[1].ReputationScore)
}

func TestLeaderboardHandler_NPCBoards(t *testing.T) {
	m := newBoardMux(seedBoards(t))

	w := do(t, m, http.MethodGet, "/v1/leaderboard/remixed?limit=1", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	remixed := decode[NPCListResponse](t, w).NPCs
	require.Len(t, remixed, 1)
	assert.Equal(t, "n2", remixed[0].ID)

	w = do(t, m, http.MethodGet, "/v1/leaderboard/trending", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	trending := decode[TrendingResponse](t, w).NPCs
	require.Len(t, trending, 1, "n2 is outside the window")
	assert.Equal(t, "n1", trending[0].ID)
	assert.Equal(t, 3*3+2, trending[0].TrendingScore)
}

func TestLeaderboardHandler_Players(t *testing.T) {
	m := newBoardMux(seedBoards(t))

	w := do(t, m, http.MethodGet, "/v1/leaderboard/players", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	players := decode[PlayerBoardResponse](t, w).Players
	require.Len(t, players, 3)
	assert.Equal(t, leaderboard.PlayerEntry{Rank: 1, PlayerID: players[0].PlayerID, Name: "Ben", Level: 2, XP: 10}, players[0])
	assert.Equal(t, "Cy", players[1].Name)
	assert.Equal(t, "Ann", players[2].Name)
	assert.Equal(t, 3, players[2].Rank)
}

func TestLeaderboardHandler_Stats(t *testing.T) {
	m := newBoardMux(seedBoards(t))

	w := do(t, m, http.MethodGet, "/v1/stats", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, leaderboard.GlobalStats{
		TotalUsers:        1,
		TotalNPCs:         2,
		TotalRemixes:      8,
		TotalShares:       1,
		TotalRooms:        1,
		TotalInteractions: 2,
		TotalPlayers:      3,
	}, decode[StatsResponse](t, w).Stats)
}

func TestLeaderboardHandler_Reputation(t *testing.T) {
	m := newBoardMux(seedBoards(t))

	w := do(t, m, http.MethodGet, "/v1/users/alice/reputation", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, ReputationResponse{UserID: "alice", Username: "alice", Reputation: 42}, decode[ReputationResponse](t, w))

	w = do(t, m, http.MethodGet, "/v1/users/nobody/reputation", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
