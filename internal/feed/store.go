// Package feed is the single source of truth for one user's notification
// feed: the ordered list, the transient filter and the persisted
// preferences. Every mutation goes through Store, is applied as one
// whole-list swap and is followed by exactly one persistence attempt.
package feed

import (
	"context"
	"encoding/json"
	"fmt"
	gosync "sync"
	"time"

	"go.uber.org/zap"

	"github.com/nhle/notification-center/internal/alert"
	"github.com/nhle/notification-center/internal/model"
	"github.com/nhle/notification-center/internal/store"
)

// persistTimeout bounds a single write to the key-value primitive.
const persistTimeout = 5 * time.Second

// effectTimeout bounds one side effect. Mail delivery dials and then
// talks to a remote server, so it needs well beyond a local write.
const effectTimeout = 90 * time.Second

// Store holds notifications, filter and preferences for one session.
type Store struct {
	mu            gosync.Mutex
	kv            store.KV
	logger        *zap.Logger
	sound         alert.SoundPlayer
	system        alert.SystemNotifier
	effects       []alert.Effect
	spawn         func(func())
	keepStored    bool
	notifications []model.Notification
	prefs         model.Preferences
	filter        model.FilterState
	closed        bool
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for swallowed failures.
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// WithSound sets the audio cue player.
func WithSound(p alert.SoundPlayer) Option {
	return func(s *Store) { s.sound = p }
}

// WithSystemNotifier sets the platform notifier.
func WithSystemNotifier(n alert.SystemNotifier) Option {
	return func(s *Store) { s.system = n }
}

// WithStoredPermission keeps the persisted system-notification permission
// on hydration instead of asking the platform notifier. Processes that
// never show notifications use it so they cannot clobber the stored state.
func WithStoredPermission() Option {
	return func(s *Store) { s.keepStored = true }
}

// WithEffects registers extra delivery channels run on every append.
func WithEffects(effects ...alert.Effect) Option {
	return func(s *Store) { s.effects = append(s.effects, effects...) }
}

// WithSpawner replaces how fire-and-forget side effects are started.
// Tests pass a function that runs them inline.
func WithSpawner(spawn func(func())) Option {
	return func(s *Store) { s.spawn = spawn }
}

// New creates an empty Store persisting through kv. Call Initialize
// before use.
func New(kv store.KV, opts ...Option) *Store {
	s := &Store{
		kv:            kv,
		logger:        zap.NewNop(),
		sound:         alert.NopSound{},
		system:        alert.NopSystem{},
		spawn:         func(f func()) { go f() },
		notifications: []model.Notification{},
		prefs:         model.DefaultPreferences(),
		filter:        model.AllFilter(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Initialize hydrates state from the key-value primitive. Missing or
// malformed data falls back to an empty list and default preferences;
// failures are logged, never returned.
func (s *Store) Initialize(ctx context.Context) {
	notifications := s.loadNotifications(ctx)
	prefs := s.loadPreferences(ctx)
	if !s.keepStored {
		prefs.Browser.Permission = s.system.Permission()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.notifications = notifications
	s.prefs = prefs
	s.filter = model.AllFilter()
	s.closed = false

	s.logger.Debug("feed hydrated",
		zap.Int("notifications", len(notifications)),
		zap.Int("unread", countUnread(notifications)),
	)
}

// Close tears the Store down. Later mutations are ignored.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}

func (s *Store) loadNotifications(ctx context.Context) []model.Notification {
	raw, ok, err := s.kv.Get(ctx, store.KeyNotifications)
	if err != nil {
		s.logger.Warn("reading notifications, starting empty", zap.Error(err))
		return []model.Notification{}
	}
	if !ok {
		return []model.Notification{}
	}

	list, err := decodeNotifications(raw)
	if err != nil {
		s.logger.Warn("malformed notifications, starting empty", zap.Error(err))
		return []model.Notification{}
	}
	return list
}

func (s *Store) loadPreferences(ctx context.Context) model.Preferences {
	raw, ok, err := s.kv.Get(ctx, store.KeyPreferences)
	if err != nil {
		s.logger.Warn("reading preferences, using defaults", zap.Error(err))
		return model.DefaultPreferences()
	}
	if !ok {
		return model.DefaultPreferences()
	}

	prefs, err := decodePreferences(raw)
	if err != nil {
		s.logger.Warn("malformed preferences, using defaults", zap.Error(err))
		return model.DefaultPreferences()
	}
	return prefs
}

// mutate applies fn to the current list under the lock. fn must return a
// new slice rather than editing its argument; when it reports no change
// nothing is persisted.
func (s *Store) mutate(op string, fn func([]model.Notification) ([]model.Notification, bool)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}

	next, changed := fn(s.notifications)
	if !changed {
		return
	}
	s.notifications = next
	s.persistNotificationsLocked(op)
}

// persistNotificationsLocked writes the list. Errors leave the in-memory
// state authoritative.
func (s *Store) persistNotificationsLocked(op string) {
	raw, err := encodeNotifications(s.notifications)
	if err != nil {
		s.logger.Error("encoding notifications", zap.String("op", op), zap.Error(err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	if err := s.kv.Set(ctx, store.KeyNotifications, raw); err != nil {
		s.logger.Warn("persisting notifications failed",
			zap.String("op", op), zap.Error(err))
	}
}

func (s *Store) persistPreferencesLocked() {
	raw, err := encodePreferences(s.prefs)
	if err != nil {
		s.logger.Error("encoding preferences", zap.Error(err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	if err := s.kv.Set(ctx, store.KeyPreferences, raw); err != nil {
		s.logger.Warn("persisting preferences failed", zap.Error(err))
	}
}

func encodeNotifications(list []model.Notification) (string, error) {
	if list == nil {
		list = []model.Notification{}
	}
	b, err := json.Marshal(list)
	if err != nil {
		return "", fmt.Errorf("marshaling notifications: %w", err)
	}
	return string(b), nil
}

func decodeNotifications(raw string) ([]model.Notification, error) {
	var list []model.Notification
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		return nil, fmt.Errorf("unmarshaling notifications: %w", err)
	}
	if list == nil {
		list = []model.Notification{}
	}
	return list, nil
}

func encodePreferences(p model.Preferences) (string, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("marshaling preferences: %w", err)
	}
	return string(b), nil
}

func decodePreferences(raw string) (model.Preferences, error) {
	prefs := model.DefaultPreferences()
	if err := json.Unmarshal([]byte(raw), &prefs); err != nil {
		return model.Preferences{}, fmt.Errorf("unmarshaling preferences: %w", err)
	}
	return prefs.Normalize(), nil
}

// ExportState returns the two persisted values exactly as they are
// written to storage.
func (s *Store) ExportState() (notifications string, preferences string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	notifications, err = encodeNotifications(s.notifications)
	if err != nil {
		return "", "", err
	}
	preferences, err = encodePreferences(s.prefs)
	if err != nil {
		return "", "", err
	}
	return notifications, preferences, nil
}
