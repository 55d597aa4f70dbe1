package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jwebster45206/realm-engine/internal/auth"
	"github.com/jwebster45206/realm-engine/internal/config"
	"github.com/jwebster45206/realm-engine/internal/handlers"
	"github.com/jwebster45206/realm-engine/internal/logger"
	"github.com/jwebster45206/realm-engine/internal/middleware"
	"github.com/jwebster45206/realm-engine/internal/services/events"
	"github.com/jwebster45206/realm-engine/internal/services/queue"
	"github.com/jwebster45206/realm-engine/internal/storage"
	"github.com/jwebster45206/realm-engine/pkg/action"
	"github.com/jwebster45206/realm-engine/pkg/encounter"
	"github.com/jwebster45206/realm-engine/pkg/moderation"
	"github.com/jwebster45206/realm-engine/pkg/room"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	log := logger.Setup(cfg)

	log.Info("Starting Realm Engine API",
		"port", cfg.Port,
		"environment", cfg.Environment,
		"data_dir", cfg.DataDir)

	store, err := storage.NewRedisStorage(cfg.RedisURL, cfg.DataDir, log)
	if err != nil {
		log.Error("Failed to create storage", "error", err)
		os.Exit(1)
	}
	storageCtx, storageCancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer storageCancel()

	if err := store.WaitForConnection(storageCtx); err != nil {
		log.Error("Failed to connect to storage", "error", err)
		os.Exit(1)
	}
	log.Info("Storage connection established successfully")

	archetypes, err := store.ListArchetypes(storageCtx)
	if err != nil {
		log.Error("Failed to load enemy archetypes", "error", err)
		os.Exit(1)
	}
	factory := encounter.NewFactory(archetypes, nil)
	log.Info("Enemy pool loaded", "archetypes", len(factory.Archetypes()))

	broadcaster := events.NewBroadcaster(store.Client(), log)
	requests := queue.NewRequestQueue(queue.NewClientFromRedis(store.Client(), log))
	authService := auth.NewService(store, cfg.JWTSecret, cfg.TokenTTL)
	dispatcher := action.NewDispatcher(store, factory, nil, log).
		WithPublisher(broadcaster).
		WithLockTTL(cfg.PlayerLockTTL)

	// Process-wide trackers, cleared on shutdown.
	limiter := moderation.NewLimiter(moderation.DefaultLimits())
	presence := room.NewPresence()
	validator := moderation.NewValidator(nil)

	mux := http.NewServeMux()

	mux.Handle("GET /health", handlers.NewHealthHandler(store, log))
	mux.Handle("/v1/action", handlers.NewActionHandler(dispatcher, log))
	mux.Handle("/v1/world", handlers.NewWorldHandler(store, log))
	mux.Handle("/v1/events/world", handlers.NewEventsHandler(broadcaster, log))

	handlers.NewPlayersHandler(store, log).Register(mux)
	handlers.NewAuthHandler(authService, log).Register(mux)
	handlers.NewNPCHandler(store, limiter, validator, log).WithReputation(requests).Register(mux)
	handlers.NewRoomHandler(store, presence, limiter, validator, log).
		WithEvents(broadcaster).
		WithReputation(requests).
		Register(mux)
	handlers.NewShareHandler(store, limiter, log).WithReputation(requests).Register(mux)
	handlers.NewLeaderboardHandler(store, log).Register(mux)
	handlers.NewModerationHandler(store, limiter, log).Register(mux)

	handler := middleware.Chain(mux,
		middleware.Logger(log),
		middleware.RateLimit(middleware.NewIPLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)),
		middleware.OptionalAuth(authService),
	)
	server := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     handler,
		ReadTimeout: 15 * time.Second,
		// No WriteTimeout: SSE and websocket streams stay open.
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		log.Info("Server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Server is shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
	}

	presence.Reset()
	limiter.Reset()

	if err := store.Close(); err != nil {
		log.Error("Error closing storage connection", "error", err)
	}

	log.Info("Server exited")
}
