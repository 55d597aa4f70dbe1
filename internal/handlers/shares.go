package handlers

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/jwebster45206/realm-engine/pkg/moderation"
	"github.com/jwebster45206/realm-engine/pkg/npc"
	"github.com/jwebster45206/realm-engine/pkg/share"
	"github.com/jwebster45206/realm-engine/pkg/storage"
)

type ShareResponse struct {
	Share    *share.Share `json:"share"`
	ShareURL string       `json:"share_url,omitempty"`
	NPC      *npc.NPC     `json:"npc,omitempty"`
}

type ShareListResponse struct {
	Shares []*share.Share `json:"shares"`
}

// ShareHandler publishes NPCs through public links.
type ShareHandler struct {
	storage    storage.Storage
	limiter    *moderation.Limiter
	reputation ReputationQueue
	logger     *slog.Logger
}

func NewShareHandler(s storage.Storage, limiter *moderation.Limiter, logger *slog.Logger) *ShareHandler {
	return &ShareHandler{storage: s, limiter: limiter, logger: logger}
}

// WithReputation sets the queue reputation updates are sent to.
func (h *ShareHandler) WithReputation(q ReputationQueue) *ShareHandler {
	h.reputation = q
	return h
}

// Register mounts:
//
//	POST /v1/share/{npc_id}
//	GET  /v1/share/{id}
//	GET  /v1/shares/popular
//	GET  /v1/shares/user/{user_id}
//	GET  /share/{id}
func (h *ShareHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /v1/share/{npc_id}", h.handleCreate)
	mux.HandleFunc("GET /v1/share/{id}", h.handleGet)
	mux.HandleFunc("GET /v1/shares/popular", h.handlePopular)
	mux.HandleFunc("GET /v1/shares/user/{user_id}", h.handleForUser)
	mux.HandleFunc("GET /share/{id}", h.handlePage)
}

func (h *ShareHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.logger)
	if !ok {
		return
	}
	if !checkLimit(w, h.logger, h.limiter, userID, moderation.ActionShareCreate) {
		return
	}

	ctx := r.Context()
	npcID := r.PathValue("npc_id")
	var s *share.Share
	var creator string
	err := withLock(ctx, h.storage, storage.NPCLockKey(npcID), func() error {
		n, err := h.storage.LoadNPC(ctx, npcID)
		if err != nil {
			return err
		}
		if n == nil {
			return errNotFound
		}
		n.ShareCount++
		creator = n.CreatorID
		if err := h.storage.SaveNPC(ctx, n); err != nil {
			return err
		}
		s = share.New(userID, n)
		return h.storage.SaveShare(ctx, s)
	})
	if errors.Is(err, errNotFound) {
		writeError(w, h.logger, http.StatusNotFound, "NPC not found")
		return
	}
	if err != nil {
		h.logger.Error("Failed to share NPC", "npc_id", npcID, "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to share NPC")
		return
	}

	h.logger.Info("NPC shared", "share_id", s.ID, "npc_id", npcID, "user_id", userID)
	enqueueReputation(ctx, h.reputation, h.logger, userID, "share_created")
	if creator != userID {
		enqueueReputation(ctx, h.reputation, h.logger, creator, "npc_shared")
	}
	writeJSON(w, h.logger, http.StatusCreated, ShareResponse{Share: s, ShareURL: s.URL()})
}

// view counts one view of a share and loads its NPC.
func (h *ShareHandler) view(ctx context.Context, shareID string) (*share.Share, *npc.NPC, error) {
	var s *share.Share
	err := withLock(ctx, h.storage, storage.ShareLockKey(shareID), func() error {
		var err error
		s, err = h.storage.LoadShare(ctx, shareID)
		if err != nil {
			return err
		}
		if s == nil {
			return errNotFound
		}
		s.ViewCount++
		return h.storage.SaveShare(ctx, s)
	})
	if err != nil {
		return nil, nil, err
	}
	n, err := h.storage.LoadNPC(ctx, s.NPCID)
	if err != nil {
		return nil, nil, err
	}
	if n == nil {
		return nil, nil, errNotFound
	}
	enqueueReputation(ctx, h.reputation, h.logger, s.UserID, "share_viewed")
	return s, n, nil
}

func (h *ShareHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	s, n, err := h.view(r.Context(), r.PathValue("id"))
	if errors.Is(err, errNotFound) {
		writeError(w, h.logger, http.StatusNotFound, "Share not found")
		return
	}
	if err != nil {
		h.logger.Error("Failed to load share", "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to load share")
		return
	}
	writeJSON(w, h.logger, http.StatusOK, ShareResponse{Share: s, ShareURL: s.URL(), NPC: n})
}

func (h *ShareHandler) handlePage(w http.ResponseWriter, r *http.Request) {
	s, n, err := h.view(r.Context(), r.PathValue("id"))
	if errors.Is(err, errNotFound) {
		http.Error(w, "Share not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.logger.Error("Failed to load share", "error", err)
		http.Error(w, "Failed to load share", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := share.RenderPage(&buf, s, n); err != nil {
		h.logger.Error("Failed to render share page", "share_id", s.ID, "error", err)
		http.Error(w, "Failed to render page", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func (h *ShareHandler) handlePopular(w http.ResponseWriter, r *http.Request) {
	shares, err := h.storage.ListShares(r.Context())
	if err != nil {
		h.logger.Error("Failed to list shares", "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to list shares")
		return
	}
	writeJSON(w, h.logger, http.StatusOK, ShareListResponse{
		Shares: share.Popular(shares, queryLimit(r, share.DefaultPopularLimit, 100)),
	})
}

func (h *ShareHandler) handleForUser(w http.ResponseWriter, r *http.Request) {
	shares, err := h.storage.ListShares(r.Context())
	if err != nil {
		h.logger.Error("Failed to list shares", "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to list shares")
		return
	}
	writeJSON(w, h.logger, http.StatusOK, ShareListResponse{
		Shares: share.ForUser(shares, r.PathValue("user_id"), queryLimit(r, share.DefaultUserLimit, 100)),
	})
}
