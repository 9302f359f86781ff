package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/blockmart/blockmart/pkg/models"
)

// DefaultChannel is the pub/sub channel events are published to when the
// configuration does not name one.
const DefaultChannel = "blockmart:events"

// Redis publishes events as JSON to a Redis pub/sub channel so external
// consumers (feeds, dashboards) can follow marketplace activity live.
type Redis struct {
	client  *redis.Client
	channel string
	logger  *zap.Logger
}

// NewRedis connects to Redis and returns a publishing notifier.
func NewRedis(addr, password string, db int, channel string, logger *zap.Logger) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	if channel == "" {
		channel = DefaultChannel
	}
	return &Redis{client: client, channel: channel, logger: logger}, nil
}

func (r *Redis) Publish(ctx context.Context, ev models.Event) {
	payload, err := json.Marshal(ev)
	if err != nil {
		r.logger.Error("failed to encode event", zap.Error(err))
		return
	}
	if err := r.client.Publish(ctx, r.channel, payload).Err(); err != nil {
		r.logger.Error("failed to publish event",
			zap.String("event_id", ev.ID.String()),
			zap.Error(err),
		)
	}
}

// Close releases the underlying Redis connection.
func (r *Redis) Close() error {
	return r.client.Close()
}
