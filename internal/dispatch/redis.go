package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/nhle/notification-center/internal/model"
)

// InboxChannel names the pub/sub channel carrying owner's notifications.
func InboxChannel(prefix, owner string) string {
	return fmt.Sprintf("%s:inbox:%s", prefix, owner)
}

// Redis subscribes to an owner's inbox channel. Payloads are JSON
// notifications; anything else is logged and skipped.
type Redis struct {
	// client must be a *redis.Client: redis.Cmdable does not declare
	// Subscribe.
	client  *redis.Client
	channel string
	logger  *zap.Logger
}

// NewRedis creates a channel on InboxChannel(prefix, owner).
func NewRedis(client *redis.Client, prefix, owner string, logger *zap.Logger) *Redis {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Redis{
		client:  client,
		channel: InboxChannel(prefix, owner),
		logger:  logger,
	}
}

// Name implements Channel.
func (r *Redis) Name() string { return "redis" }

// Run implements Channel.
func (r *Redis) Run(ctx context.Context, deliver func(model.Notification)) error {
	pubsub := r.client.Subscribe(ctx, r.channel)
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribing to %s: %w", r.channel, err)
	}
	r.logger.Info("subscribed", zap.String("channel", r.channel))

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return errors.New("redis subscription closed")
			}
			n, err := decodePayload(msg.Payload)
			if err != nil {
				r.logger.Warn("skipping inbox payload",
					zap.String("channel", r.channel),
					zap.Error(err),
				)
				continue
			}
			deliver(n)
		}
	}
}

// decodePayload parses one inbox message. A notification needs at least
// an id and a known category.
func decodePayload(payload string) (model.Notification, error) {
	var n model.Notification
	if err := json.Unmarshal([]byte(payload), &n); err != nil {
		return model.Notification{}, fmt.Errorf("decoding notification: %w", err)
	}
	if n.ID == "" {
		return model.Notification{}, errors.New("notification has no id")
	}
	if !n.Category.Valid() {
		return model.Notification{}, fmt.Errorf("unknown category %q", n.Category)
	}
	if !n.Priority.Valid() {
		n.Priority = model.PriorityMedium
	}
	return n, nil
}
