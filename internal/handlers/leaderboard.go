package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/jwebster45206/realm-engine/pkg/leaderboard"
	"github.com/jwebster45206/realm-engine/pkg/storage"
)

const maxPlayerBoard = 100

type TrendingResponse struct {
	NPCs []leaderboard.TrendingNPC `json:"npcs"`
}

type PlayerBoardResponse struct {
	Players []leaderboard.PlayerEntry `json:"players"`
}

type StatsResponse struct {
	Stats leaderboard.GlobalStats `json:"stats"`
}

type ReputationResponse struct {
	UserID     string `json:"user_id"`
	Username   string `json:"username"`
	Reputation int    `json:"reputation"`
}

// LeaderboardHandler serves the read-only boards and platform stats.
type LeaderboardHandler struct {
	storage storage.Storage
	logger  *slog.Logger
	now     func() time.Time
}

func NewLeaderboardHandler(s storage.Storage, logger *slog.Logger) *LeaderboardHandler {
	return &LeaderboardHandler{storage: s, logger: logger, now: time.Now}
}

// Register mounts:
//
//	GET /v1/leaderboard/weekly
//	GET /v1/leaderboard/remixed
//	GET /v1/leaderboard/trending
//	GET /v1/leaderboard/players
//	GET /v1/stats
//	GET /v1/users/{id}/reputation
func (h *LeaderboardHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /v1/leaderboard/weekly", h.handleWeekly)
	mux.HandleFunc("GET /v1/leaderboard/remixed", h.handleRemixed)
	mux.HandleFunc("GET /v1/leaderboard/trending", h.handleTrending)
	mux.HandleFunc("GET /v1/leaderboard/players", h.handlePlayers)
	mux.HandleFunc("GET /v1/stats", h.handleStats)
	mux.HandleFunc("GET /v1/users/{id}/reputation", h.handleReputation)
}

func (h *LeaderboardHandler) fail(w http.ResponseWriter, what string, err error) {
	h.logger.Error("Failed to load "+what, "error", err)
	writeError(w, h.logger, http.StatusInternalServerError, "Failed to load "+what)
}

func (h *LeaderboardHandler) handleWeekly(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	npcs, err := h.storage.ListNPCs(ctx)
	if err != nil {
		h.fail(w, "NPCs", err)
		return
	}
	shares, err := h.storage.ListShares(ctx)
	if err != nil {
		h.fail(w, "shares", err)
		return
	}
	users, err := h.storage.ListUsers(ctx)
	if err != nil {
		h.fail(w, "users", err)
		return
	}
	names := make(map[string]string, len(users))
	for _, u := range users {
		names[u.ID] = u.Username
	}
	writeJSON(w, h.logger, http.StatusOK, leaderboard.WeeklyBoard(h.now().UTC(), npcs, shares, names))
}

func (h *LeaderboardHandler) handleRemixed(w http.ResponseWriter, r *http.Request) {
	npcs, err := h.storage.ListNPCs(r.Context())
	if err != nil {
		h.fail(w, "NPCs", err)
		return
	}
	limit := queryLimit(r, leaderboard.DefaultBoardLimit, 100)
	writeJSON(w, h.logger, http.StatusOK, NPCListResponse{NPCs: leaderboard.MostRemixed(npcs, limit)})
}

func (h *LeaderboardHandler) handleTrending(w http.ResponseWriter, r *http.Request) {
	npcs, err := h.storage.ListNPCs(r.Context())
	if err != nil {
		h.fail(w, "NPCs", err)
		return
	}
	limit := queryLimit(r, leaderboard.DefaultBoardLimit, 100)
	writeJSON(w, h.logger, http.StatusOK, TrendingResponse{NPCs: leaderboard.Trending(h.now().UTC(), npcs, limit)})
}

func (h *LeaderboardHandler) handlePlayers(w http.ResponseWriter, r *http.Request) {
	players, err := h.storage.TopPlayers(r.Context(), queryLimit(r, leaderboard.DefaultBoardLimit, maxPlayerBoard))
	if err != nil {
		h.fail(w, "players", err)
		return
	}
	entries := make([]leaderboard.PlayerEntry, 0, len(players))
	for i, p := range players {
		entries = append(entries, leaderboard.EntryFor(i+1, p))
	}
	writeJSON(w, h.logger, http.StatusOK, PlayerBoardResponse{Players: entries})
}

func (h *LeaderboardHandler) handleStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	npcs, err := h.storage.ListNPCs(ctx)
	if err != nil {
		h.fail(w, "stats", err)
		return
	}
	shares, err := h.storage.ListShares(ctx)
	if err != nil {
		h.fail(w, "stats", err)
		return
	}
	users, err := h.storage.ListUsers(ctx)
	if err != nil {
		h.fail(w, "stats", err)
		return
	}
	rooms, err := h.storage.ListRooms(ctx)
	if err != nil {
		h.fail(w, "stats", err)
		return
	}
	players, err := h.storage.CountPlayers(ctx)
	if err != nil {
		h.fail(w, "stats", err)
		return
	}
	blueprints, err := h.storage.CountBlueprints(ctx)
	if err != nil {
		h.fail(w, "stats", err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, StatsResponse{
		Stats: leaderboard.Stats(len(users), len(rooms), players, blueprints, npcs, shares),
	})
}

func (h *LeaderboardHandler) handleReputation(w http.ResponseWriter, r *http.Request) {
	u, err := h.storage.LoadUser(r.Context(), r.PathValue("id"))
	if err != nil {
		h.fail(w, "user", err)
		return
	}
	if u == nil {
		writeError(w, h.logger, http.StatusNotFound, "User not found")
		return
	}
	writeJSON(w, h.logger, http.StatusOK, ReputationResponse{UserID: u.ID, Username: u.Username, Reputation: u.Reputation})
}
