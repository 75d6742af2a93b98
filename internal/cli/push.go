// Package cli implements the non-interactive subcommands: enqueueing a
// notification from another process, listing the feed and patching
// preferences.
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/nhle/notification-center/internal/dispatch"
	"github.com/nhle/notification-center/internal/model"
	"github.com/nhle/notification-center/internal/store"
)

// PushOptions describes a notification given on the command line. JSON,
// when set, is decoded first and the remaining fields fill its gaps.
type PushOptions struct {
	JSON     string
	ID       string
	Category string
	Priority string
	Title    string
	Body     string
	Target   string
	Owner    string
}

// BuildNotification turns opts into a notification addressed to owner.
// A missing id gets a fresh uuid and a missing timestamp gets now.
func BuildNotification(opts PushOptions, owner string, now time.Time) (model.Notification, error) {
	var n model.Notification
	if opts.JSON != "" {
		if err := json.Unmarshal([]byte(opts.JSON), &n); err != nil {
			return model.Notification{}, fmt.Errorf("decoding notification json: %w", err)
		}
	}

	fill := func(dst *string, v string) {
		if *dst == "" {
			*dst = strings.TrimSpace(v)
		}
	}
	fill(&n.ID, opts.ID)
	fill(&n.Title, opts.Title)
	fill(&n.Body, opts.Body)
	fill(&n.ActionTarget, opts.Target)
	fill(&n.Owner, opts.Owner)
	if n.Category == "" {
		n.Category = model.Category(strings.TrimSpace(opts.Category))
	}
	if n.Priority == "" {
		n.Priority = model.Priority(strings.TrimSpace(opts.Priority))
	}

	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.Owner == "" {
		n.Owner = owner
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = now.UTC()
	}
	if n.Priority == "" {
		n.Priority = model.PriorityMedium
	}
	n.IsRead = false

	if !n.Category.Valid() {
		return model.Notification{}, fmt.Errorf("unknown category %q", n.Category)
	}
	if !n.Priority.Valid() {
		return model.Notification{}, fmt.Errorf("unknown priority %q", n.Priority)
	}
	if n.Title == "" {
		return model.Notification{}, errors.New("notification needs a title")
	}

	return n, nil
}

// Enqueue hands n to a running session through the local queue.
func Enqueue(ctx context.Context, q store.Queue, n model.Notification) error {
	if err := q.Enqueue(ctx, n); err != nil {
		return fmt.Errorf("enqueueing notification %s: %w", n.ID, err)
	}
	return nil
}

// Publish sends n to the owner's Redis inbox and reports how many
// sessions received it.
func Publish(ctx context.Context, client redis.Cmdable, prefix string, n model.Notification) (int64, error) {
	payload, err := json.Marshal(n)
	if err != nil {
		return 0, fmt.Errorf("encoding notification: %w", err)
	}
	receivers, err := client.Publish(ctx, dispatch.InboxChannel(prefix, n.Owner), payload).Result()
	if err != nil {
		return 0, fmt.Errorf("publishing notification %s: %w", n.ID, err)
	}
	return receivers, nil
}
