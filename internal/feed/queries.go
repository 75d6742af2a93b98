package feed

import "github.com/nhle/notification-center/internal/model"

// UnreadCount counts unread entries in the live list. It is recomputed
// on every call and never cached.
func (s *Store) UnreadCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return countUnread(s.notifications)
}

// Notifications returns a copy of the list, most recent first.
func (s *Store) Notifications() []model.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneList(s.notifications)
}

// Get returns the entry with id.
func (s *Store) Get(id string) (model.Notification, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if idx := indexOf(s.notifications, id); idx >= 0 {
		return s.notifications[idx], true
	}
	return model.Notification{}, false
}

// Projection returns the entries matching f in store order.
func (s *Store) Projection(f model.FilterState) []model.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return project(s.notifications, f)
}

// Visible is the projection of the current filter.
func (s *Store) Visible() []model.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return project(s.notifications, s.filter)
}

func project(list []model.Notification, f model.FilterState) []model.Notification {
	out := make([]model.Notification, 0, len(list))
	for _, n := range list {
		if f.Matches(n) {
			out = append(out, n)
		}
	}
	return out
}

// SetFilter replaces the transient filter. It is not persisted.
func (s *Store) SetFilter(f model.FilterState) {
	if f.Category == "" {
		f.Category = model.CategoryAll
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.filter = f
}

// Filter returns the current filter.
func (s *Store) Filter() model.FilterState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filter
}

// CategoryCounts counts entries per category over the unfiltered list,
// regardless of read state. CategoryAll holds the total.
func (s *Store) CategoryCounts() map[model.Category]int {
	s.mu.Lock()
	defer s.mu.Unlock()

	counts := make(map[model.Category]int, len(model.AllCategories())+1)
	for _, c := range model.AllCategories() {
		counts[c] = 0
	}
	for _, n := range s.notifications {
		counts[n.Category]++
	}
	counts[model.CategoryAll] = len(s.notifications)
	return counts
}

// Preferences returns a copy of the current preferences.
func (s *Store) Preferences() model.Preferences {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.prefs.Clone()
}
