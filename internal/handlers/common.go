package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/jwebster45206/realm-engine/internal/auth"
	"github.com/jwebster45206/realm-engine/pkg/moderation"
	"github.com/jwebster45206/realm-engine/pkg/storage"
)

const maxBodyBytes = 1 << 20

type ErrorResponse struct {
	Error string `json:"error"`
}

// ReputationQueue schedules asynchronous reputation updates.
type ReputationQueue interface {
	EnqueueReputation(ctx context.Context, userID, reason string) error
}

func writeJSON(w http.ResponseWriter, logger *slog.Logger, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, logger *slog.Logger, status int, msg string) {
	writeJSON(w, logger, status, ErrorResponse{Error: msg})
}

// decodeBody reads a JSON body. An empty body leaves v untouched.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

// requireUser returns the authenticated user id or writes a 401.
func requireUser(w http.ResponseWriter, r *http.Request, logger *slog.Logger) (string, bool) {
	id, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, logger, http.StatusUnauthorized, "Authentication required")
		return "", false
	}
	return id, true
}

// queryLimit parses ?limit=, falling back to def and capping at max.
func queryLimit(r *http.Request, def, max int) int {
	n, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || n <= 0 {
		return def
	}
	return min(n, max)
}

// checkLimit applies a moderation limit, writing a 429 when exceeded.
func checkLimit(w http.ResponseWriter, logger *slog.Logger, limiter *moderation.Limiter, userID, action string) bool {
	if limiter == nil {
		return true
	}
	if err := limiter.Allow(userID, action); err != nil {
		writeError(w, logger, http.StatusTooManyRequests, err.Error())
		return false
	}
	return true
}

// enqueueReputation schedules a reputation update, logging failures.
func enqueueReputation(ctx context.Context, q ReputationQueue, logger *slog.Logger, userID, reason string) {
	if q == nil || userID == "" {
		return
	}
	if err := q.EnqueueReputation(ctx, userID, reason); err != nil {
		logger.Warn("Failed to enqueue reputation update", "user_id", userID, "error", err)
	}
}

// recordLockTTL bounds how long a handler holds a record lock.
const recordLockTTL = 5 * time.Second

// withLock runs fn while holding key. The wait is bounded by recordLockTTL.
func withLock(ctx context.Context, l storage.Locker, key string, fn func() error) error {
	lockCtx, cancel := context.WithTimeout(ctx, recordLockTTL)
	defer cancel()
	unlock, err := l.Lock(lockCtx, key, recordLockTTL)
	if err != nil {
		return err
	}
	defer func() { _ = unlock(context.WithoutCancel(ctx)) }()
	return fn()
}
