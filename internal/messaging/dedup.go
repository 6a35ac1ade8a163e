package messaging

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/goldtouchmobile/booking-relay/pkg/logging"
)

// Deduper filters retried webhook deliveries. The transport does not promise
// exactly-once, so the webhook handler checks each delivery's message id here
// before routing it.
type Deduper interface {
	// FirstDelivery reports whether this message id has not been seen yet,
	// atomically claiming it when so.
	FirstDelivery(ctx context.Context, messageID string) bool
}

// RedisDeduper claims message ids with SET NX and a TTL. Fails open: if redis
// is unreachable the delivery is treated as first, because a duplicate
// transition downstream is a logged no-op while a dropped message is lost.
type RedisDeduper struct {
	client *redis.Client
	ttl    time.Duration
	logger *logging.Logger
}

// NewRedisDeduper creates a deduper with the given retention window.
func NewRedisDeduper(client *redis.Client, ttl time.Duration, logger *logging.Logger) *RedisDeduper {
	if logger == nil {
		logger = logging.Default()
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisDeduper{client: client, ttl: ttl, logger: logger}
}

// FirstDelivery claims the message id, returning false on a repeat.
func (d *RedisDeduper) FirstDelivery(ctx context.Context, messageID string) bool {
	if d == nil || d.client == nil || messageID == "" {
		return true
	}
	ok, err := d.client.SetNX(ctx, "sms:delivery:"+messageID, 1, d.ttl).Result()
	if err != nil {
		d.logger.Warn("delivery dedup unavailable, processing anyway", "error", err, "message_id", messageID)
		return true
	}
	if !ok {
		d.logger.Info("duplicate webhook delivery skipped", "message_id", messageID)
	}
	return ok
}

// NoopDeduper treats every delivery as first. Used when redis is not configured.
type NoopDeduper struct{}

// FirstDelivery always returns true.
func (NoopDeduper) FirstDelivery(ctx context.Context, messageID string) bool { return true }
