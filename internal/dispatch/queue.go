package dispatch

import (
	"context"
	"fmt"
	"time"

	"github.com/nhle/notification-center/internal/model"
	"github.com/nhle/notification-center/internal/store"
)

// claimBatch is the most rows claimed per poll.
const claimBatch = 32

// Queue polls the local pending-notification table. Rows are removed as
// they are claimed, so each is delivered at most once.
type Queue struct {
	queue    store.Queue
	owner    string
	interval time.Duration
}

// NewQueue creates a channel claiming owner's rows every interval.
func NewQueue(q store.Queue, owner string, interval time.Duration) *Queue {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return &Queue{queue: q, owner: owner, interval: interval}
}

// Name implements Channel.
func (q *Queue) Name() string { return "queue" }

// Run implements Channel. It drains once immediately, then on every tick.
func (q *Queue) Run(ctx context.Context, deliver func(model.Notification)) error {
	ticker := time.NewTicker(q.interval)
	defer ticker.Stop()

	for {
		if err := q.drain(ctx, deliver); err != nil {
			return err
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// drain claims until the queue reports fewer rows than a full batch.
func (q *Queue) drain(ctx context.Context, deliver func(model.Notification)) error {
	for {
		batch, err := q.queue.Claim(ctx, q.owner, claimBatch)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("claiming pending notifications: %w", err)
		}
		for _, n := range batch {
			deliver(n)
		}
		if len(batch) < claimBatch {
			return nil
		}
	}
}
