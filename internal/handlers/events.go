package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jwebster45206/realm-engine/pkg/world"
)

const keepaliveInterval = 30 * time.Second

// WorldSubscriber opens a pub/sub subscription to the world channel.
type WorldSubscriber interface {
	SubscribeWorld(ctx context.Context) *redis.PubSub
}

// EventsHandler streams world events as Server-Sent Events.
type EventsHandler struct {
	subscriber WorldSubscriber
	logger     *slog.Logger
}

func NewEventsHandler(s WorldSubscriber, logger *slog.Logger) *EventsHandler {
	return &EventsHandler{subscriber: s, logger: logger}
}

// ServeHTTP handles GET /v1/events/world.
func (h *EventsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.logger.Warn("Method not allowed for events endpoint",
			"method", r.Method,
			"path", r.URL.Path)
		writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Only GET is supported.")
		return
	}

	pubsub := h.subscriber.SubscribeWorld(r.Context())
	defer func() {
		if err := pubsub.Close(); err != nil {
			h.logger.Error("Failed to close pubsub", "error", err)
		}
	}()
	// Wait for the subscription so no event published after the handshake is lost.
	if _, err := pubsub.Receive(r.Context()); err != nil {
		h.logger.Error("Failed to subscribe to world events", "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to subscribe")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(http.StatusOK)

	h.logger.Info("SSE connection established", "remote_addr", r.RemoteAddr)

	msgChan := pubsub.Channel()
	keepalive := time.NewTicker(keepaliveInterval)
	defer keepalive.Stop()

	h.sendSSE(w, "connected", map[string]string{"message": "Connected to world feed"})

	for {
		select {
		case <-r.Context().Done():
			h.logger.Info("SSE client disconnected", "remote_addr", r.RemoteAddr)
			return

		case msg, ok := <-msgChan:
			if !ok {
				return
			}
			var e world.Event
			if err := json.Unmarshal([]byte(msg.Payload), &e); err != nil {
				h.logger.Error("Failed to unmarshal event", "error", err, "payload", msg.Payload)
				continue
			}
			h.sendSSE(w, "world", e)

		case <-keepalive.C:
			if _, err := fmt.Fprint(w, ": keepalive\n\n"); err != nil {
				h.logger.Error("Failed to write keepalive", "error", err)
				return
			}
			flush(w)
		}
	}
}

func (h *EventsHandler) sendSSE(w http.ResponseWriter, eventType string, data any) {
	dataJSON, err := json.Marshal(data)
	if err != nil {
		h.logger.Error("Failed to marshal SSE data", "error", err)
		return
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", eventType, dataJSON); err != nil {
		h.logger.Error("Failed to write event", "error", err)
		return
	}
	flush(w)
}

func flush(w http.ResponseWriter) {
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}
