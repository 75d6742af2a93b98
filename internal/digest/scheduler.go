package digest

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/nhle/notification-center/internal/model"
	"github.com/nhle/notification-center/internal/store"
)

// Feed is the read side of the notification store a digest draws from.
type Feed interface {
	Notifications() []model.Notification
	Preferences() model.Preferences
}

// Scheduler mails periodic digests. The last send time is kept in the
// owner's key-value scope so restarts do not resend.
type Scheduler struct {
	kv        store.KV
	feed      Feed
	deliverer Deliverer
	from, to  string
	owner     string
	logger    *zap.Logger
}

// NewScheduler creates a scheduler delivering to cfg.To.
func NewScheduler(
	kv store.KV, feed Feed, d Deliverer,
	cfg model.EmailConfig, owner string, logger *zap.Logger,
) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	from := cfg.From
	if from == "" {
		from = cfg.To
	}
	return &Scheduler{
		kv:        kv,
		feed:      feed,
		deliverer: d,
		from:      from,
		to:        cfg.To,
		owner:     owner,
		logger:    logger,
	}
}

// Tick sends a digest when one is due and returns how many entries it
// carried. The first tick only records a baseline, so history that
// predates digests is never mailed. A failed delivery is retried on the
// next tick.
func (s *Scheduler) Tick(ctx context.Context, now time.Time) (int, error) {
	prefs := s.feed.Preferences()
	if !prefs.Email.Enabled || Period(prefs.Email.Frequency) == 0 {
		return 0, nil
	}

	last, ok, err := s.LastSent(ctx)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, s.record(ctx, now)
	}
	if !Due(prefs.Email.Frequency, last, now) {
		return 0, nil
	}

	return s.send(ctx, prefs, last, now)
}

// SendNow mails whatever accumulated since the last digest without
// waiting for the schedule. Without a previous digest it covers one
// period, or a day for instant delivery.
func (s *Scheduler) SendNow(ctx context.Context, now time.Time) (int, error) {
	prefs := s.feed.Preferences()
	if !prefs.Email.Enabled {
		return 0, nil
	}

	last, ok, err := s.LastSent(ctx)
	if err != nil {
		return 0, err
	}
	if !ok {
		period := Period(prefs.Email.Frequency)
		if period == 0 {
			period = 24 * time.Hour
		}
		last = now.Add(-period)
	}

	return s.send(ctx, prefs, last, now)
}

func (s *Scheduler) send(ctx context.Context, prefs model.Preferences, since, now time.Time) (int, error) {
	batch := Select(s.feed.Notifications(), prefs, since)
	if len(batch) == 0 {
		return 0, s.record(ctx, now)
	}

	msg, err := Compose(s.from, s.to, s.owner, batch, now)
	if err != nil {
		return 0, err
	}
	if err := s.deliverer.Deliver(ctx, s.from, s.to, msg); err != nil {
		return 0, fmt.Errorf("delivering digest: %w", err)
	}

	s.logger.Info("digest sent",
		zap.Int("count", len(batch)),
		zap.String("frequency", string(prefs.Email.Frequency)),
	)
	return len(batch), s.record(ctx, now)
}

// LastSent returns when the previous digest went out.
func (s *Scheduler) LastSent(ctx context.Context) (time.Time, bool, error) {
	raw, ok, err := s.kv.Get(ctx, store.KeyDigestLastSent)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("reading digest timestamp: %w", err)
	}
	if !ok {
		return time.Time{}, false, nil
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		s.logger.Warn("discarding unreadable digest timestamp", zap.String("value", raw))
		return time.Time{}, false, nil
	}
	return t, true, nil
}

func (s *Scheduler) record(ctx context.Context, now time.Time) error {
	if err := s.kv.Set(ctx, store.KeyDigestLastSent, now.UTC().Format(time.RFC3339Nano)); err != nil {
		return fmt.Errorf("recording digest timestamp: %w", err)
	}
	return nil
}

// Instant mails each matching notification as it is appended when the
// user chose instant delivery.
type Instant struct {
	deliverer Deliverer
	from, to  string
	owner     string
	now       func() time.Time
}

// NewInstant creates the per-append email effect.
func NewInstant(d Deliverer, cfg model.EmailConfig, owner string) *Instant {
	from := cfg.From
	if from == "" {
		from = cfg.To
	}
	return &Instant{deliverer: d, from: from, to: cfg.To, owner: owner, now: time.Now}
}

// Name implements alert.Effect.
func (i *Instant) Name() string { return "email" }

// OnAppend implements alert.Effect.
func (i *Instant) OnAppend(ctx context.Context, n model.Notification, prefs model.Preferences) error {
	if prefs.Email.Frequency != model.FrequencyInstant || !prefs.EmailWants(n.Category) {
		return nil
	}
	msg, err := Compose(i.from, i.to, i.owner, []model.Notification{n}, i.now())
	if err != nil {
		return err
	}
	if err := i.deliverer.Deliver(ctx, i.from, i.to, msg); err != nil {
		return fmt.Errorf("mailing notification %s: %w", n.ID, err)
	}
	return nil
}
