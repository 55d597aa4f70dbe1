package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/jwebster45206/realm-engine/pkg/account"
	"github.com/jwebster45206/realm-engine/pkg/leaderboard"
	"github.com/jwebster45206/realm-engine/pkg/npc"
	queuePkg "github.com/jwebster45206/realm-engine/pkg/queue"
	"github.com/jwebster45206/realm-engine/pkg/share"
	"github.com/jwebster45206/realm-engine/pkg/storage"
)

const (
	workerTimeout = 5 * time.Second
	lockWait      = 2 * time.Second
	lockTTL       = 30 * time.Second
)

// Queue is the request source a worker drains.
type Queue interface {
	BlockingDequeueRequest(ctx context.Context, timeout time.Duration) (*queuePkg.Request, error)
	EnqueueRequest(ctx context.Context, req *queuePkg.Request) error
}

// Store is the persistence reputation recomputation needs.
type Store interface {
	storage.Locker
	LoadUser(ctx context.Context, id string) (*account.User, error)
	SaveUser(ctx context.Context, u *account.User) error
	ListNPCs(ctx context.Context) ([]*npc.NPC, error)
	ListShares(ctx context.Context) ([]*share.Share, error)
}

// Worker processes background requests from the queue
type Worker struct {
	id     string
	queue  Queue
	store  Store
	log    *slog.Logger
	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a new worker instance
func New(q Queue, store Store, log *slog.Logger, workerID string) *Worker {
	ctx, cancel := context.WithCancel(context.Background())

	if workerID == "" {
		workerID = fmt.Sprintf("worker-%s", uuid.New().String()[:8])
	}

	return &Worker{
		id:     workerID,
		queue:  q,
		store:  store,
		log:    log.With("worker_id", workerID),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start begins processing requests from the queue. It returns after Stop.
func (w *Worker) Start() error {
	w.log.Info("Worker starting")

	for {
		select {
		case <-w.ctx.Done():
			w.log.Info("Worker shutting down")
			return nil
		default:
			if err := w.processNextRequest(); err != nil {
				w.log.Error("Error processing request", "error", err)
				// Continue processing even on error
				select {
				case <-w.ctx.Done():
				case <-time.After(time.Second):
				}
			}
		}
	}
}

// Stop gracefully shuts down the worker
func (w *Worker) Stop() {
	w.log.Info("Worker stop requested")
	w.cancel()
}

// processNextRequest pulls the next request from the queue and processes it
func (w *Worker) processNextRequest() error {
	req, err := w.queue.BlockingDequeueRequest(w.ctx, workerTimeout)
	if err != nil {
		return fmt.Errorf("failed to dequeue request: %w", err)
	}
	if req == nil {
		// Queue is empty or timeout occurred - this is normal
		return nil
	}

	w.log.Info("Received request from queue",
		"request_id", req.RequestID,
		"type", req.Type,
		"user_id", req.UserID,
	)

	switch req.Type {
	case queuePkg.RequestTypeReputation:
		err := w.recomputeReputation(req)
		if errors.Is(err, storage.ErrLockTimeout) {
			// Another writer holds the user; try again later.
			w.log.Info("User locked, re-queueing request", "request_id", req.RequestID, "user_id", req.UserID)
			if err := w.queue.EnqueueRequest(w.ctx, req); err != nil {
				return fmt.Errorf("failed to re-queue request: %w", err)
			}
			return nil
		}
		return err
	default:
		return fmt.Errorf("unknown request type: %s", req.Type)
	}
}

// recomputeReputation derives a user's reputation from their NPCs and shares
// and saves it under the user's lock.
func (w *Worker) recomputeReputation(req *queuePkg.Request) error {
	start := time.Now()

	lockCtx, cancel := context.WithTimeout(w.ctx, lockWait)
	defer cancel()
	unlock, err := w.store.Lock(lockCtx, storage.UserLockKey(req.UserID), lockTTL)
	if err != nil {
		return err
	}
	defer func() {
		if err := unlock(context.WithoutCancel(w.ctx)); err != nil {
			w.log.Warn("Failed to release user lock", "user_id", req.UserID, "error", err)
		}
	}()

	u, err := w.store.LoadUser(w.ctx, req.UserID)
	if err != nil {
		return fmt.Errorf("failed to load user: %w", err)
	}
	if u == nil {
		w.log.Warn("Dropping reputation request for unknown user", "user_id", req.UserID)
		return nil
	}

	npcs, err := w.store.ListNPCs(w.ctx)
	if err != nil {
		return fmt.Errorf("failed to list npcs: %w", err)
	}
	shares, err := w.store.ListShares(w.ctx)
	if err != nil {
		return fmt.Errorf("failed to list shares: %w", err)
	}

	u.Reputation = leaderboard.Reputation(u.ID, npcs, shares)
	if err := w.store.SaveUser(w.ctx, u); err != nil {
		return fmt.Errorf("failed to save user: %w", err)
	}

	w.log.Info("Reputation updated",
		"request_id", req.RequestID,
		"user_id", u.ID,
		"reputation", u.Reputation,
		"reason", req.Reason,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}
