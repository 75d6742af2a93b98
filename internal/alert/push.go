package alert

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/nhle/notification-center/internal/model"
)

const publishTimeout = 2 * time.Second

// PushChannel is the Redis channel other devices of owner subscribe to.
func PushChannel(prefix, owner string) string {
	return fmt.Sprintf("%s:push:%s", prefix, owner)
}

// PushPublisher forwards notifications to the user's other devices over
// Redis pub/sub when push is enabled for their category.
type PushPublisher struct {
	client  redis.Cmdable
	channel string
}

// NewPushPublisher creates a publisher for owner's push channel.
func NewPushPublisher(client redis.Cmdable, prefix, owner string) *PushPublisher {
	return &PushPublisher{client: client, channel: PushChannel(prefix, owner)}
}

// Name identifies the effect in logs.
func (p *PushPublisher) Name() string { return "push" }

// OnAppend publishes n if prefs select its category.
func (p *PushPublisher) OnAppend(
	ctx context.Context,
	n model.Notification,
	prefs model.Preferences,
) error {
	if !prefs.PushWants(n.Category) {
		return nil
	}

	body, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("encoding push payload for %s: %w", n.ID, err)
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	if err := p.client.Publish(ctx, p.channel, body).Err(); err != nil {
		return fmt.Errorf("publishing %s to %s: %w", n.ID, p.channel, err)
	}
	return nil
}
