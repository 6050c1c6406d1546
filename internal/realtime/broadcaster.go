package realtime

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/persistence"
)

// Channel carries dashboard update notifications across instances.
const Channel = "helpdesk:updates"

// Message is the wire shape pushed to dashboard clients.
type Message struct {
	Event     string      `json:"event"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data,omitempty"`
}

// Broadcaster pushes update messages toward connected dashboards.
type Broadcaster interface {
	Broadcast(ctx context.Context, msg Message) error
}

// redisBroadcaster publishes through Redis pub/sub so every running
// instance's websocket hub sees the message.
type redisBroadcaster struct {
	rdb    *persistence.Redis
	logger *zap.Logger
}

// NewRedisBroadcaster builds a Broadcaster on top of the shared Redis client.
func NewRedisBroadcaster(rdb *persistence.Redis, logger *zap.Logger) Broadcaster {
	return &redisBroadcaster{rdb: rdb, logger: logger}
}

func (b *redisBroadcaster) Broadcast(ctx context.Context, msg Message) error {
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now().UTC()
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	if err := b.rdb.Client.Publish(ctx, Channel, payload).Err(); err != nil {
		b.logger.Warn("failed to publish realtime message",
			zap.String("event", msg.Event), zap.Error(err))
		return err
	}
	return nil
}

// Subscribe returns the pub/sub handle for the update channel. The caller
// owns the returned subscription.
func Subscribe(ctx context.Context, rdb *persistence.Redis) *redis.PubSub {
	return rdb.Client.Subscribe(ctx, Channel)
}
