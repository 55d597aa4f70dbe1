package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/jwebster45206/realm-engine/pkg/room"
	"github.com/jwebster45206/realm-engine/pkg/world"
)

// WorldChannel carries every world feed event.
const WorldChannel = "world-events"

// RoomChannel is the per-room pub/sub channel.
func RoomChannel(roomID string) string {
	return "room-events:" + roomID
}

// Broadcaster publishes events to Redis Pub/Sub for SSE and websocket distribution
type Broadcaster struct {
	redisClient *redis.Client
	logger      *slog.Logger
}

// NewBroadcaster creates a new event broadcaster
func NewBroadcaster(redisClient *redis.Client, logger *slog.Logger) *Broadcaster {
	return &Broadcaster{
		redisClient: redisClient,
		logger:      logger,
	}
}

// PublishWorldEvent fans a feed entry out to world subscribers.
func (b *Broadcaster) PublishWorldEvent(ctx context.Context, e world.Event) error {
	return b.publish(ctx, WorldChannel, e)
}

// PublishRoomEvent fans a room event out to that room's subscribers.
func (b *Broadcaster) PublishRoomEvent(ctx context.Context, e room.Event) error {
	if e.RoomID == "" {
		return fmt.Errorf("room event %q has no room id", e.Type)
	}
	return b.publish(ctx, RoomChannel(e.RoomID), e)
}

// SubscribeWorld opens a subscription to the world channel. The caller closes it.
func (b *Broadcaster) SubscribeWorld(ctx context.Context) *redis.PubSub {
	return b.redisClient.Subscribe(ctx, WorldChannel)
}

// SubscribeRoom opens a subscription to one room. The caller closes it.
func (b *Broadcaster) SubscribeRoom(ctx context.Context, roomID string) *redis.PubSub {
	return b.redisClient.Subscribe(ctx, RoomChannel(roomID))
}

func (b *Broadcaster) publish(ctx context.Context, channel string, event any) error {
	data, err := json.Marshal(event)
	if err != nil {
		b.logger.Error("Failed to marshal event", "error", err, "channel", channel)
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := b.redisClient.Publish(ctx, channel, data).Err(); err != nil {
		b.logger.Error("Failed to publish event", "error", err, "channel", channel)
		return fmt.Errorf("failed to publish event: %w", err)
	}

	b.logger.Debug("Event published", "channel", channel)
	return nil
}
