package queue

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/jwebster45206/realm-engine/pkg/queue"
)

func setupTestRedis(t *testing.T) (*Client, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	client := NewClientFromRedis(redis.NewClient(&redis.Options{Addr: mr.Addr()}), logger)
	return client, mr
}

func TestRequestQueue_FIFO(t *testing.T) {
	client, mr := setupTestRedis(t)
	defer mr.Close()
	defer client.Close()

	q := NewRequestQueue(client)
	ctx := context.Background()

	for _, user := range []string{"u1", "u2", "u3"} {
		if err := q.EnqueueReputation(ctx, user, "test"); err != nil {
			t.Fatalf("EnqueueReputation() error = %v", err)
		}
	}

	depth, err := q.RequestQueueDepth(ctx)
	if err != nil {
		t.Fatalf("RequestQueueDepth() error = %v", err)
	}
	if depth != 3 {
		t.Errorf("depth = %d, want 3", depth)
	}

	for _, want := range []string{"u1", "u2", "u3"} {
		req, err := q.DequeueRequest(ctx)
		if err != nil {
			t.Fatalf("DequeueRequest() error = %v", err)
		}
		if req == nil || req.UserID != want {
			t.Fatalf("DequeueRequest() = %+v, want user %s", req, want)
		}
	}

	req, err := q.DequeueRequest(ctx)
	if err != nil || req != nil {
		t.Errorf("empty queue: got %+v, %v", req, err)
	}
}

func TestRequestQueue_RejectsInvalid(t *testing.T) {
	client, mr := setupTestRedis(t)
	defer mr.Close()
	defer client.Close()

	q := NewRequestQueue(client)
	if err := q.EnqueueRequest(context.Background(), &queue.Request{Type: queue.RequestTypeReputation}); err == nil {
		t.Error("expected error for request without user")
	}
}

func TestRequestQueue_BlockingDequeue(t *testing.T) {
	client, mr := setupTestRedis(t)
	defer mr.Close()
	defer client.Close()

	q := NewRequestQueue(client)
	ctx := context.Background()

	if err := q.EnqueueReputation(ctx, "u1", "test"); err != nil {
		t.Fatalf("EnqueueReputation() error = %v", err)
	}
	req, err := q.BlockingDequeueRequest(ctx, time.Second)
	if err != nil {
		t.Fatalf("BlockingDequeueRequest() error = %v", err)
	}
	if req == nil || req.UserID != "u1" {
		t.Fatalf("BlockingDequeueRequest() = %+v", req)
	}

	// A malformed entry surfaces as an error rather than blocking.
	mr.RPush(RequestsKey, "not json")
	if _, err := q.BlockingDequeueRequest(ctx, time.Second); err == nil {
		t.Error("expected parse error")
	}
}
