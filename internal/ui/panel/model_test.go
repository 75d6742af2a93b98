package panel

import (
	"context"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/notification-center/internal/feed"
	"github.com/nhle/notification-center/internal/keys"
	"github.com/nhle/notification-center/internal/model"
	"github.com/nhle/notification-center/internal/store"
	"github.com/nhle/notification-center/tests/testutil"
)

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// newPanel returns an open panel over a feed holding, most recent first:
// n3 (offer, target), n2 (message, read), n1 (interview, no target).
func newPanel(t *testing.T) (Model, *feed.Store) {
	t.Helper()

	f := feed.New(store.NewMemoryKV(), feed.WithSpawner(func(fn func()) { fn() }))
	f.Initialize(context.Background())
	t.Cleanup(f.Close)

	f.Append(testutil.Notification("n1", model.CategoryInterview, false, 0))
	f.Append(testutil.Notification("n2", model.CategoryMessage, true, 1))
	offer := testutil.Notification("n3", model.CategoryOffer, false, 2)
	offer.ActionTarget = "/offers/n3"
	f.Append(offer)

	m := New(f, keys.DefaultKeyMap(), 60, 40)
	m.SetRegion(40, 60, 40)
	m.Open()
	return m, f
}

func TestPanelStartsClosed(t *testing.T) {
	f := feed.New(store.NewMemoryKV())
	m := New(f, keys.DefaultKeyMap(), 60, 40)

	assert.False(t, m.IsOpen())
	assert.Empty(t, m.View())

	m.Toggle()
	assert.True(t, m.IsOpen())
	m.Toggle()
	assert.False(t, m.IsOpen())
}

func TestPanelCloseTriggers(t *testing.T) {
	tests := []struct {
		name string
		msg  tea.Msg
		open bool
	}{
		{"escape", tea.KeyMsg{Type: tea.KeyEsc}, false},
		{"close key", runes("n"), false},
		{"click left of panel", tea.MouseMsg{X: 10, Y: 5, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft}, false},
		{"click inside panel", tea.MouseMsg{X: 45, Y: 5, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft}, true},
		{"mouse motion outside", tea.MouseMsg{X: 10, Y: 5, Action: tea.MouseActionMotion}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, _ := newPanel(t)
			m, _ = m.Update(tt.msg)
			assert.Equal(t, tt.open, m.IsOpen())
		})
	}
}

func TestPanelActivateWithTarget(t *testing.T) {
	m, f := newPanel(t)

	sel, ok := m.Selected()
	require.True(t, ok)
	require.Equal(t, "n3", sel.ID)

	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	nav, ok := cmd().(NavigateMsg)
	require.True(t, ok)
	assert.Equal(t, "/offers/n3", nav.Target)
	assert.Equal(t, "n3", nav.From.ID)
	assert.True(t, nav.From.IsRead)
	assert.False(t, m.IsOpen())

	n, _ := f.Get("n3")
	assert.True(t, n.IsRead)
	assert.Equal(t, 1, f.UnreadCount())
}

func TestPanelActivateWithoutTargetStaysOpen(t *testing.T) {
	m, f := newPanel(t)

	m, _ = m.Update(runes("j"))
	m, _ = m.Update(runes("j"))
	sel, _ := m.Selected()
	require.Equal(t, "n1", sel.ID)

	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
	assert.True(t, m.IsOpen())

	n, _ := f.Get("n1")
	assert.True(t, n.IsRead)
}

func TestPanelActivateAlreadyReadStillNavigates(t *testing.T) {
	m, f := newPanel(t)
	f.MarkRead("n3")

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	nav, ok := cmd().(NavigateMsg)
	require.True(t, ok)
	assert.Equal(t, "/offers/n3", nav.Target)
}

func TestPanelFilters(t *testing.T) {
	m, f := newPanel(t)

	m, _ = m.Update(runes("2"))
	assert.Equal(t, model.CategoryMessage, f.Filter().Category)
	sel, ok := m.Selected()
	require.True(t, ok)
	assert.Equal(t, "n2", sel.ID)

	m, _ = m.Update(runes("u"))
	assert.True(t, f.Filter().UnreadOnly)
	_, ok = m.Selected()
	assert.False(t, ok, "the only message is read")
	assert.Contains(t, m.View(), EmptyMessage)

	m, _ = m.Update(runes("0"))
	assert.Equal(t, model.FilterState{Category: model.CategoryAll, UnreadOnly: true}, f.Filter())
	sel, _ = m.Selected()
	assert.Equal(t, "n3", sel.ID)
}

func TestPanelActions(t *testing.T) {
	t.Run("toggle read", func(t *testing.T) {
		m, f := newPanel(t)
		m, _ = m.Update(runes("m"))
		n, _ := f.Get("n3")
		assert.True(t, n.IsRead)

		_, _ = m.Update(runes("m"))
		n, _ = f.Get("n3")
		assert.False(t, n.IsRead)
	})

	t.Run("mark all read", func(t *testing.T) {
		m, f := newPanel(t)
		_, _ = m.Update(runes("A"))
		assert.Zero(t, f.UnreadCount())
		assert.Len(t, f.Notifications(), 3)
	})

	t.Run("delete one", func(t *testing.T) {
		m, f := newPanel(t)
		m, _ = m.Update(runes("d"))
		_, ok := f.Get("n3")
		assert.False(t, ok)
		sel, _ := m.Selected()
		assert.Equal(t, "n2", sel.ID)
	})

	t.Run("clear read", func(t *testing.T) {
		m, f := newPanel(t)
		_, _ = m.Update(runes("c"))
		assert.Len(t, f.Notifications(), 2)
		_, ok := f.Get("n2")
		assert.False(t, ok)
	})

	t.Run("delete all", func(t *testing.T) {
		m, f := newPanel(t)
		m, _ = m.Update(runes("D"))
		assert.Empty(t, f.Notifications())
		assert.Contains(t, m.View(), EmptyMessage)
	})
}

func TestPanelIgnoresInputWhileClosed(t *testing.T) {
	m, f := newPanel(t)
	m.Close()

	_, cmd := m.Update(runes("D"))
	assert.Nil(t, cmd)
	assert.Len(t, f.Notifications(), 3)
}

func TestPanelViewShowsCountsAndBadges(t *testing.T) {
	m, _ := newPanel(t)
	view := m.View()

	assert.Contains(t, view, "2 unread")
	assert.Contains(t, view, "All (3)")
	assert.Contains(t, view, "Offers (1)")
	assert.Contains(t, view, "Reminders (0)")
	assert.Contains(t, view, "Offers n3")
}

func TestRelativeTime(t *testing.T) {
	now := testutil.BaseTime

	tests := []struct {
		ago  time.Duration
		want string
	}{
		{10 * time.Second, "just now"},
		{5 * time.Minute, "5m ago"},
		{3 * time.Hour, "3h ago"},
		{2 * 24 * time.Hour, "2d ago"},
		{14 * 24 * time.Hour, "2w ago"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, relativeTime(now.Add(-tt.ago), now))
	}

	assert.Equal(t, "Jan 01", relativeTime(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), now))
	assert.Empty(t, relativeTime(time.Time{}, now))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcd…", truncate("abcdefghij", 5))
}
