package model

// CategoryAll matches every category in a FilterState.
const CategoryAll Category = "all"

// FilterState is the transient panel filter. It is never persisted.
type FilterState struct {
	Category   Category
	UnreadOnly bool
}

// AllFilter returns the filter that matches every notification.
func AllFilter() FilterState {
	return FilterState{Category: CategoryAll}
}

// Matches reports whether n passes both constraints of f.
// An empty category is treated as CategoryAll.
func (f FilterState) Matches(n Notification) bool {
	if f.Category != CategoryAll && f.Category != "" && n.Category != f.Category {
		return false
	}
	if f.UnreadOnly && n.IsRead {
		return false
	}
	return true
}
