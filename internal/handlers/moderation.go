package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/jwebster45206/realm-engine/pkg/moderation"
	"github.com/jwebster45206/realm-engine/pkg/storage"
)

type ReportRequest struct {
	ContentType string `json:"content_type"`
	ContentID   string `json:"content_id"`
	Reason      string `json:"reason"`
}

type RateLimitsResponse struct {
	RateLimits map[string]moderation.LimitStatus `json:"rate_limits"`
}

// ModerationHandler exposes quota status and content reports.
type ModerationHandler struct {
	storage storage.Storage
	limiter *moderation.Limiter
	logger  *slog.Logger
}

func NewModerationHandler(s storage.Storage, limiter *moderation.Limiter, logger *slog.Logger) *ModerationHandler {
	if limiter == nil {
		limiter = moderation.NewLimiter(nil)
	}
	return &ModerationHandler{storage: s, limiter: limiter, logger: logger}
}

// Register mounts:
//
//	GET  /v1/moderation/rate-limits
//	POST /v1/moderation/report
func (h *ModerationHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /v1/moderation/rate-limits", h.handleRateLimits)
	mux.HandleFunc("POST /v1/moderation/report", h.handleReport)
}

func (h *ModerationHandler) handleRateLimits(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.logger)
	if !ok {
		return
	}
	writeJSON(w, h.logger, http.StatusOK, RateLimitsResponse{RateLimits: h.limiter.Status(userID)})
}

func (h *ModerationHandler) handleReport(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r, h.logger)
	if !ok {
		return
	}
	var req ReportRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, h.logger, http.StatusBadRequest, "Invalid request body")
		return
	}
	report, err := moderation.NewReport(req.ContentType, req.ContentID, req.Reason)
	if err != nil {
		writeError(w, h.logger, http.StatusBadRequest, err.Error())
		return
	}

	ctx := r.Context()
	err = withLock(ctx, h.storage, storage.UserLockKey(userID), func() error {
		u, err := h.storage.LoadUser(ctx, userID)
		if err != nil {
			return err
		}
		if u == nil {
			return errNotFound
		}
		u.Reports = append(u.Reports, report)
		return h.storage.SaveUser(ctx, u)
	})
	if errors.Is(err, errNotFound) {
		writeError(w, h.logger, http.StatusUnauthorized, "User not found")
		return
	}
	if err != nil {
		h.logger.Error("Failed to record report", "user_id", userID, "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to record report")
		return
	}

	h.logger.Info("Content reported",
		"user_id", userID,
		"content_type", report.ContentType,
		"content_id", report.ContentID)
	writeJSON(w, h.logger, http.StatusCreated, SuccessResponse{Success: true})
}
