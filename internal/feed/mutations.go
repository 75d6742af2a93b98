package feed

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/nhle/notification-center/internal/model"
)

// Append prepends n and fires the enabled side effects without waiting
// for them. Duplicate ids are not detected.
func (s *Store) Append(n model.Notification) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}

	next := make([]model.Notification, 0, len(s.notifications)+1)
	next = append(next, n)
	next = append(next, s.notifications...)
	s.notifications = next
	s.persistNotificationsLocked("append")

	prefs := s.prefs.Clone()
	s.mu.Unlock()

	s.fireSideEffects(n, prefs)
}

// MarkRead marks the entry with id as read. Unknown ids are a no-op.
func (s *Store) MarkRead(id string) {
	s.setRead("mark_read", id, true)
}

// MarkUnread marks the entry with id as unread. Unknown ids are a no-op.
func (s *Store) MarkUnread(id string) {
	s.setRead("mark_unread", id, false)
}

func (s *Store) setRead(op, id string, read bool) {
	s.mutate(op, func(list []model.Notification) ([]model.Notification, bool) {
		idx := indexOf(list, id)
		if idx < 0 || list[idx].IsRead == read {
			return list, false
		}
		next := cloneList(list)
		next[idx].IsRead = read
		return next, true
	})
}

// MarkAllRead marks every entry read with a single persist.
func (s *Store) MarkAllRead() {
	s.mutate("mark_all_read", func(list []model.Notification) ([]model.Notification, bool) {
		if countUnread(list) == 0 {
			return list, false
		}
		next := cloneList(list)
		for i := range next {
			next[i].IsRead = true
		}
		return next, true
	})
}

// DeleteOne removes the entry with id. Unknown ids are a no-op.
func (s *Store) DeleteOne(id string) {
	s.mutate("delete_one", func(list []model.Notification) ([]model.Notification, bool) {
		idx := indexOf(list, id)
		if idx < 0 {
			return list, false
		}
		next := make([]model.Notification, 0, len(list)-1)
		next = append(next, list[:idx]...)
		next = append(next, list[idx+1:]...)
		return next, true
	})
}

// DeleteAll removes every entry.
func (s *Store) DeleteAll() {
	s.mutate("delete_all", func(list []model.Notification) ([]model.Notification, bool) {
		return []model.Notification{}, true
	})
}

// ClearRead removes only the entries already read.
func (s *Store) ClearRead() {
	s.mutate("clear_read", func(list []model.Notification) ([]model.Notification, bool) {
		next := make([]model.Notification, 0, len(list))
		for _, n := range list {
			if !n.IsRead {
				next = append(next, n)
			}
		}
		return next, len(next) != len(list)
	})
}

// UpdatePreferences merges patch section by section and persists.
func (s *Store) UpdatePreferences(patch model.PreferencesPatch) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.prefs = patch.Apply(s.prefs)
	s.persistPreferencesLocked()
}

// setPermission mirrors a new platform permission into preferences.
func (s *Store) setPermission(p model.Permission) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || s.prefs.Browser.Permission == p {
		return
	}
	s.prefs.Browser.Permission = p
	s.persistPreferencesLocked()
}

// fireSideEffects starts every best-effort effect for n. None of them can
// fail the append.
func (s *Store) fireSideEffects(n model.Notification, prefs model.Preferences) {
	if prefs.Sound.Enabled {
		volume := prefs.Sound.Volume
		s.spawnEffect("sound", n.ID, func(context.Context) error {
			return s.sound.Play(volume)
		})
	}

	if prefs.Browser.Enabled {
		s.spawnEffect("system", n.ID, func(ctx context.Context) error {
			return s.showSystem(ctx, n)
		})
	}

	for _, e := range s.effects {
		s.spawnEffect(e.Name(), n.ID, func(ctx context.Context) error {
			return e.OnAppend(ctx, n, prefs)
		})
	}
}

// showSystem requests permission when still undecided, then shows n if
// granted. A denial is not an error.
func (s *Store) showSystem(ctx context.Context, n model.Notification) error {
	perm := s.system.Permission()
	if perm == model.PermissionDefault {
		var err error
		perm, err = s.system.RequestPermission(ctx)
		if err != nil {
			return fmt.Errorf("requesting notification permission: %w", err)
		}
		s.setPermission(perm)
	}
	if perm != model.PermissionGranted {
		return nil
	}
	return s.system.Show(n)
}

func (s *Store) spawnEffect(name, id string, fn func(context.Context) error) {
	s.spawn(func() {
		defer func() {
			if r := recover(); r != nil {
				s.logger.Error("side effect panicked",
					zap.String("effect", name),
					zap.String("id", id),
					zap.Any("panic", r),
				)
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), effectTimeout)
		defer cancel()

		if err := fn(ctx); err != nil {
			s.logger.Warn("side effect failed",
				zap.String("effect", name),
				zap.String("id", id),
				zap.Error(err),
			)
		}
	})
}

func indexOf(list []model.Notification, id string) int {
	for i, n := range list {
		if n.ID == id {
			return i
		}
	}
	return -1
}

func cloneList(list []model.Notification) []model.Notification {
	next := make([]model.Notification, len(list))
	copy(next, list)
	return next
}

func countUnread(list []model.Notification) int {
	count := 0
	for _, n := range list {
		if !n.IsRead {
			count++
		}
	}
	return count
}
