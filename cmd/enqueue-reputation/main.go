// Command enqueue-reputation queues reputation recomputes for users, for
// backfills or after manual data fixes.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/jwebster45206/realm-engine/internal/config"
	"github.com/jwebster45206/realm-engine/internal/logger"
	"github.com/jwebster45206/realm-engine/internal/services/queue"
	"github.com/jwebster45206/realm-engine/internal/storage"
)

func main() {
	reason := flag.String("reason", "manual", "reason recorded on each request")
	all := flag.Bool("all", false, "enqueue every registered user")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	log := logger.Setup(cfg)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	store, err := storage.NewRedisStorage(cfg.RedisURL, cfg.DataDir, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to connect to Redis: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = store.Close()
	}()

	userIDs := flag.Args()
	if *all {
		users, err := store.ListUsers(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to list users: %v\n", err)
			os.Exit(1)
		}
		for _, u := range users {
			userIDs = append(userIDs, u.ID)
		}
	}
	if len(userIDs) == 0 {
		fmt.Fprintln(os.Stderr, "usage: enqueue-reputation [-reason r] [-all] [user_id...]")
		os.Exit(2)
	}

	requests := queue.NewRequestQueue(queue.NewClientFromRedis(store.Client(), log))
	failed := 0
	for _, id := range userIDs {
		if err := requests.EnqueueReputation(ctx, id, *reason); err != nil {
			fmt.Printf("❌ %s: %v\n", id, err)
			failed++
			continue
		}
		fmt.Printf("✅ %s\n", id)
	}

	depth, err := requests.RequestQueueDepth(ctx)
	if err == nil {
		fmt.Printf("Queue depth: %d\n", depth)
	}
	if failed > 0 {
		os.Exit(1)
	}
}
