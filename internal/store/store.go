package store

import (
	"context"

	"github.com/nhle/notification-center/internal/model"
)

// Keys under which the feed persists its state.
const (
	KeyNotifications  = "notifications"
	KeyPreferences    = "notification-preferences"
	KeyDigestLastSent = "email-digest-sent-at"
)

// KV is the synchronous key-value primitive the feed persists through.
// Get reports ok=false when the key has never been written.
type KV interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
}

// Queue is a local at-most-once hand-off of notifications between
// processes. Claimed entries are removed as they are returned.
type Queue interface {
	Enqueue(ctx context.Context, n model.Notification) error
	Claim(ctx context.Context, owner string, limit int) ([]model.Notification, error)
}
