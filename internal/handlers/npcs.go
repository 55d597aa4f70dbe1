package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/jwebster45206/realm-engine/pkg/moderation"
	"github.com/jwebster45206/realm-engine/pkg/npc"
	"github.com/jwebster45206/realm-engine/pkg/storage"
)

const defaultNPCListLimit = 10

var errNotFound = errors.New("not found")

type RemixRequest struct {
	npc.Spec
	ShareID string `json:"share_id,omitempty"`
}

type NPCResponse struct {
	NPC           *npc.NPC       `json:"npc"`
	Lineage       []npc.Ancestor `json:"lineage,omitempty"`
	OriginalNPCID string         `json:"original_npc_id,omitempty"`
}

type NPCListResponse struct {
	NPCs []*npc.NPC `json:"npcs"`
}

// NPCHandler creates, remixes and lists NPCs.
type NPCHandler struct {
	storage    storage.Storage
	generator  *npc.Generator
	limiter    *moderation.Limiter
	validator  *moderation.Validator
	reputation ReputationQueue
	logger     *slog.Logger
}

func NewNPCHandler(s storage.Storage, limiter *moderation.Limiter, validator *moderation.Validator, logger *slog.Logger) *NPCHandler {
	if validator == nil {
		validator = moderation.NewValidator(nil)
	}
	return &NPCHandler{
		storage:   s,
		generator: npc.NewGenerator(nil),
		limiter:   limiter,
		validator: validator,
		logger:    logger,
	}
}

// WithGenerator replaces the template generator.
func (h *NPCHandler) WithGenerator(g *npc.Generator) *NPCHandler {
	h.generator = g
	return h
}

// WithReputation sets the queue reputation updates are sent to.
func (h *NPCHandler) WithReputation(q ReputationQueue) *NPCHandler {
	h.reputation = q
	return h
}

// Register mounts:
//
//	POST /v1/npcs
//	GET  /v1/npcs/popular
//	GET  /v1/npcs/{id}
//	POST /v1/npcs/{id}/remix
func (h *NPCHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /v1/npcs", h.handleCreate)
	mux.HandleFunc("GET /v1/npcs/popular", h.handlePopular)
	mux.HandleFunc("GET /v1/npcs/{id}", h.handleGet)
	mux.HandleFunc("POST /v1/npcs/{id}/remix", h.handleRemix)
}

func (h *NPCHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.logger)
	if !ok {
		return
	}
	var spec npc.Spec
	if err := decodeBody(w, r, &spec); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "Invalid request body")
		return
	}
	if !checkLimit(w, h.logger, h.limiter, userID, moderation.ActionNPCCreate) {
		return
	}
	if err := h.validator.ValidateNPC(spec.Name, spec.Trait, spec.Backstory); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, err.Error())
		return
	}

	n := h.generator.Create(userID, spec, nil)
	if err := h.storage.SaveNPC(r.Context(), n); err != nil {
		h.logger.Error("Failed to save NPC", "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to create NPC")
		return
	}

	h.logger.Info("NPC created", "npc_id", n.ID, "creator_id", userID)
	enqueueReputation(r.Context(), h.reputation, h.logger, userID, "npc_created")
	writeJSON(w, h.logger, http.StatusCreated, NPCResponse{NPC: n})
}

func (h *NPCHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	n, err := h.storage.LoadNPC(r.Context(), r.PathValue("id"))
	if err != nil {
		h.logger.Error("Failed to load NPC", "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to load NPC")
		return
	}
	if n == nil {
		writeError(w, h.logger, http.StatusNotFound, "NPC not found")
		return
	}

	lineage := npc.Lineage(n, func(id string) *npc.NPC {
		a, err := h.storage.LoadNPC(r.Context(), id)
		if err != nil {
			h.logger.Warn("Failed to load ancestor", "npc_id", id, "error", err)
			return nil
		}
		return a
	})
	writeJSON(w, h.logger, http.StatusOK, NPCResponse{NPC: n, Lineage: lineage})
}

func (h *NPCHandler) handlePopular(w http.ResponseWriter, r *http.Request) {
	npcs, err := h.storage.ListNPCs(r.Context())
	if err != nil {
		h.logger.Error("Failed to list NPCs", "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to list NPCs")
		return
	}
	writeJSON(w, h.logger, http.StatusOK, NPCListResponse{
		NPCs: npc.Popular(npcs, queryLimit(r, defaultNPCListLimit, 100)),
	})
}

func (h *NPCHandler) handleRemix(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.logger)
	if !ok {
		return
	}
	var req RemixRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "Invalid request body")
		return
	}
	if !checkLimit(w, h.logger, h.limiter, userID, moderation.ActionNPCRemix) {
		return
	}
	if err := h.validator.ValidateNPC(req.Name, req.Trait, req.Backstory); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, err.Error())
		return
	}

	ctx := r.Context()
	originalID := r.PathValue("id")
	var remix *npc.NPC
	var originalCreator string
	err := withLock(ctx, h.storage, storage.NPCLockKey(originalID), func() error {
		original, err := h.storage.LoadNPC(ctx, originalID)
		if err != nil {
			return err
		}
		if original == nil {
			return errNotFound
		}
		originalCreator = original.CreatorID
		remix = h.generator.Remix(userID, original, req.Spec)
		if err := h.storage.SaveNPC(ctx, original); err != nil {
			return err
		}
		return h.storage.SaveNPC(ctx, remix)
	})
	if errors.Is(err, errNotFound) {
		writeError(w, h.logger, http.StatusNotFound, "Original NPC not found")
		return
	}
	if err != nil {
		h.logger.Error("Failed to remix NPC", "npc_id", originalID, "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to remix NPC")
		return
	}

	if req.ShareID != "" {
		h.creditShare(r, req.ShareID, originalID)
	}

	h.logger.Info("NPC remixed", "npc_id", remix.ID, "original_npc_id", originalID, "creator_id", userID)
	enqueueReputation(ctx, h.reputation, h.logger, userID, "npc_remixed")
	if originalCreator != userID {
		enqueueReputation(ctx, h.reputation, h.logger, originalCreator, "npc_remixed")
	}
	writeJSON(w, h.logger, http.StatusCreated, NPCResponse{NPC: remix, OriginalNPCID: originalID})
}

// creditShare counts a remix against the share it came through. Shares of a
// different NPC are ignored.
func (h *NPCHandler) creditShare(r *http.Request, shareID, npcID string) {
	ctx := r.Context()
	var owner string
	err := withLock(ctx, h.storage, storage.ShareLockKey(shareID), func() error {
		s, err := h.storage.LoadShare(ctx, shareID)
		if err != nil || s == nil || s.NPCID != npcID {
			return err
		}
		s.RemixFromShare++
		owner = s.UserID
		return h.storage.SaveShare(ctx, s)
	})
	if err != nil {
		h.logger.Warn("Failed to credit share remix", "share_id", shareID, "error", err)
		return
	}
	enqueueReputation(ctx, h.reputation, h.logger, owner, "share_remixed")
}
