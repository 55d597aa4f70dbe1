package handlers

import (
	"log/slog"
	"net/http"

	"github.com/jwebster45206/realm-engine/pkg/actor"
	"github.com/jwebster45206/realm-engine/pkg/storage"
	"github.com/jwebster45206/realm-engine/pkg/world"
)

type CreatePlayerRequest struct {
	Name string `json:"name"`
}

type PlayerResponse struct {
	Player *actor.Player   `json:"player"`
	World  *world.Snapshot `json:"world,omitempty"`
}

// PlayersHandler creates players and returns them with a slice of the world feed.
type PlayersHandler struct {
	storage storage.Storage
	logger  *slog.Logger
}

func NewPlayersHandler(s storage.Storage, logger *slog.Logger) *PlayersHandler {
	return &PlayersHandler{storage: s, logger: logger}
}

// Register mounts:
//
//	POST /v1/players
//	GET  /v1/players/{id}
func (h *PlayersHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /v1/players", h.handleCreate)
	mux.HandleFunc("GET /v1/players/{id}", h.handleGet)
}

func (h *PlayersHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req CreatePlayerRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.logger.Warn("Invalid player request", "error", err)
		writeError(w, h.logger, http.StatusBadRequest, "Invalid request body")
		return
	}

	p := actor.NewPlayer(req.Name)
	if err := h.storage.SavePlayer(r.Context(), p); err != nil {
		h.logger.Error("Failed to save player", "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to create player")
		return
	}

	h.logger.Info("Player created", "player_id", p.ID, "name", p.Name)
	writeJSON(w, h.logger, http.StatusCreated, PlayerResponse{Player: p})
}

func (h *PlayersHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	p, err := h.storage.LoadPlayer(r.Context(), id)
	if err != nil {
		h.logger.Error("Failed to load player", "player_id", id, "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to load player")
		return
	}
	if p == nil {
		writeError(w, h.logger, http.StatusNotFound, "Player not found")
		return
	}

	snap, err := snapshot(r, h.storage, world.PlayerSnapshotSize)
	if err != nil {
		h.logger.Error("Failed to load world snapshot", "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to load world")
		return
	}

	writeJSON(w, h.logger, http.StatusOK, PlayerResponse{Player: p, World: snap})
}
