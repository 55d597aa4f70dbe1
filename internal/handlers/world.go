package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/jwebster45206/realm-engine/pkg/world"
)

// WorldReader is the read side of the world feed and blueprint table.
type WorldReader interface {
	ListWorldEvents(ctx context.Context, n int) ([]world.Event, error)
	CountBlueprints(ctx context.Context) (int, error)
}

func snapshot(r *http.Request, store WorldReader, n int) (*world.Snapshot, error) {
	events, err := store.ListWorldEvents(r.Context(), n)
	if err != nil {
		return nil, err
	}
	count, err := store.CountBlueprints(r.Context())
	if err != nil {
		return nil, err
	}
	if events == nil {
		events = []world.Event{}
	}
	return &world.Snapshot{Events: events, BlueprintsCount: count}, nil
}

// WorldHandler serves GET /v1/world.
type WorldHandler struct {
	store  WorldReader
	logger *slog.Logger
}

func NewWorldHandler(store WorldReader, logger *slog.Logger) *WorldHandler {
	return &WorldHandler{store: store, logger: logger}
}

func (h *WorldHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Only GET is supported.")
		return
	}

	snap, err := snapshot(r, h.store, world.SnapshotSize)
	if err != nil {
		h.logger.Error("Failed to load world snapshot", "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to load world")
		return
	}
	writeJSON(w, h.logger, http.StatusOK, snap)
}
