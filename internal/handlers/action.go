package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/jwebster45206/realm-engine/pkg/action"
	"github.com/jwebster45206/realm-engine/pkg/storage"
)

// ActionDispatcher runs one player action.
type ActionDispatcher interface {
	Dispatch(ctx context.Context, req action.Request) (*action.Result, error)
}

// ActionHandler serves POST /v1/action.
type ActionHandler struct {
	dispatcher ActionDispatcher
	logger     *slog.Logger
}

func NewActionHandler(d ActionDispatcher, logger *slog.Logger) *ActionHandler {
	return &ActionHandler{dispatcher: d, logger: logger}
}

func (h *ActionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Only POST is supported.")
		return
	}

	var req action.Request
	if err := decodeBody(w, r, &req); err != nil {
		h.logger.Warn("Invalid action request", "error", err)
		writeError(w, h.logger, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.PlayerID == "" || req.Action == "" {
		writeError(w, h.logger, http.StatusBadRequest, "player_id and action are required")
		return
	}

	res, err := h.dispatcher.Dispatch(r.Context(), req)
	if errors.Is(err, storage.ErrLockTimeout) {
		h.logger.Warn("Player record busy",
			"player_id", req.PlayerID,
			"action", req.Action,
			"error", err)
		writeError(w, h.logger, http.StatusConflict, "Player is busy with another action; try again")
		return
	}
	if err != nil {
		h.logger.Error("Action failed",
			"player_id", req.PlayerID,
			"action", req.Action,
			"error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to process action")
		return
	}

	writeJSON(w, h.logger, statusFor(res), res)
}

// statusFor maps a result's error kind to an HTTP status.
func statusFor(res *action.Result) int {
	err := res.Err()
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, action.ErrPlayerNotFound), errors.Is(err, action.ErrEncounterNotFound):
		return http.StatusNotFound
	case errors.Is(err, action.ErrInsufficientElements):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusBadRequest
	}
}
