package app

import (
	"context"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nhle/notification-center/internal/dispatch"
	"github.com/nhle/notification-center/internal/feed"
	"github.com/nhle/notification-center/internal/model"
	"github.com/nhle/notification-center/internal/store"
	"github.com/nhle/notification-center/internal/ui/command"
	configview "github.com/nhle/notification-center/internal/ui/config"
	"github.com/nhle/notification-center/internal/ui/panel"
	"github.com/nhle/notification-center/internal/ui/prefs"
	"github.com/nhle/notification-center/tests/testutil"
)

func newTestModel(t *testing.T) Model {
	t.Helper()

	cfg := &model.AppConfig{User: "alice"}
	f := feed.New(store.NewMemoryKV(), feed.WithSpawner(func(fn func()) { fn() }))
	f.Initialize(context.Background())

	s := &Session{
		Config:     cfg,
		Logger:     zap.NewNop(),
		Feed:       f,
		Dispatcher: dispatch.New(cfg.User, zap.NewNop()),
	}
	t.Cleanup(s.Dispatcher.Stop)

	m := New(context.Background(), s)
	next, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return next.(Model)
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	out, ok := next.(Model)
	require.True(t, ok)
	return out, cmd
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestViewBeforeSize(t *testing.T) {
	m := New(context.Background(), &Session{Config: &model.AppConfig{User: "alice"}})
	assert.Equal(t, "Loading...", m.View())
}

func TestIncomingNotificationIsAppended(t *testing.T) {
	m := newTestModel(t)

	m, cmd := update(t, m, dispatch.NotificationMsg{
		Notification: testutil.Notification("n1", model.CategoryOffer, false, 0),
	})
	assert.NotNil(t, cmd, "keeps listening for the next notification")
	assert.Equal(t, 1, m.Feed().UnreadCount())
	assert.Contains(t, m.View(), "🔔 1")
}

func TestPanelToggle(t *testing.T) {
	m := newTestModel(t)
	m.Feed().Append(testutil.Notification("n1", model.CategoryInterview, false, 0))

	m, _ = update(t, m, runes("n"))
	require.True(t, m.panel.IsOpen())
	assert.Contains(t, m.View(), "Interviews n1")

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.False(t, m.panel.IsOpen())
}

func TestNavigateSetsRoute(t *testing.T) {
	m := newTestModel(t)
	n := testutil.Notification("n3", model.CategoryOffer, true, 0)

	m, _ = update(t, m, panel.NavigateMsg{Target: "/offers/n3", From: n})
	assert.Equal(t, "/offers/n3", m.routeView.Target())
	assert.Contains(t, m.View(), "/offers/n3")

	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	m, _ = update(t, m, cmd())
	assert.Empty(t, m.routeView.Target())
}

func TestActivateFromPanelNavigates(t *testing.T) {
	m := newTestModel(t)
	n := testutil.Notification("n1", model.CategoryInterview, false, 0)
	n.ActionTarget = "/interviews/n1"
	m.Feed().Append(n)

	m, _ = update(t, m, runes("n"))
	m, cmd := update(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.False(t, m.panel.IsOpen())

	m, _ = update(t, m, cmd())
	assert.Equal(t, "/interviews/n1", m.routeView.Target())
	assert.Zero(t, m.Feed().UnreadCount())
}

func TestCommands(t *testing.T) {
	seed := func(m Model) {
		m.Feed().Append(testutil.Notification("n1", model.CategoryOffer, false, 0))
		m.Feed().Append(testutil.Notification("n2", model.CategoryMessage, true, 1))
	}

	t.Run("read all", func(t *testing.T) {
		m := newTestModel(t)
		seed(m)
		update(t, m, command.CommandMsg("read all"))
		assert.Zero(t, m.Feed().UnreadCount())
	})

	t.Run("clear read", func(t *testing.T) {
		m := newTestModel(t)
		seed(m)
		update(t, m, command.CommandMsg("clear read"))
		require.Len(t, m.Feed().Notifications(), 1)
		assert.Equal(t, "n1", m.Feed().Notifications()[0].ID)
	})

	t.Run("filter category opens panel", func(t *testing.T) {
		m := newTestModel(t)
		seed(m)
		m, _ = update(t, m, command.CommandMsg("filter offer"))
		assert.Equal(t, model.CategoryOffer, m.Feed().Filter().Category)
		assert.True(t, m.panel.IsOpen())
	})

	t.Run("unknown category", func(t *testing.T) {
		m := newTestModel(t)
		m, _ = update(t, m, command.CommandMsg("filter spam"))
		assert.Contains(t, m.statusMsg, "unknown category")
		assert.Equal(t, model.CategoryAll, m.Feed().Filter().Category)
	})

	t.Run("digest without email", func(t *testing.T) {
		m := newTestModel(t)
		m, cmd := update(t, m, command.CommandMsg("digest"))
		assert.Nil(t, cmd)
		assert.Equal(t, "email is not configured", m.statusMsg)
	})

	t.Run("unknown command", func(t *testing.T) {
		m := newTestModel(t)
		m, _ = update(t, m, command.CommandMsg("launch"))
		assert.Equal(t, `unknown command "launch"`, m.statusMsg)
	})
}

func TestCommandPaletteRoundTrip(t *testing.T) {
	m := newTestModel(t)

	m, _ = update(t, m, runes(":"))
	require.Equal(t, ViewCommand, m.currentView)

	// Global keys are typed into the palette while it is open.
	m, _ = update(t, m, runes("q"))
	assert.Equal(t, ViewCommand, m.currentView)

	m, _ = update(t, m, command.CancelMsg{})
	assert.Equal(t, ViewHome, m.currentView)
}

func TestHelpToggle(t *testing.T) {
	m := newTestModel(t)

	m, _ = update(t, m, runes("?"))
	require.Equal(t, ViewHelp, m.currentView)
	assert.Contains(t, m.View(), "Keyboard Shortcuts")

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, ViewHome, m.currentView)
}

func TestPreferencesSaved(t *testing.T) {
	m := newTestModel(t)

	m, _ = update(t, m, runes("p"))
	require.Equal(t, ViewPrefs, m.currentView)

	sound := model.SoundPrefs{Enabled: false, Volume: 20}
	m, cmd := update(t, m, prefs.SavedMsg{Patch: model.PreferencesPatch{Sound: &sound}})
	assert.Nil(t, cmd)
	assert.Equal(t, ViewHome, m.currentView)
	assert.Equal(t, sound, m.Feed().Preferences().Sound)
	assert.Equal(t, "preferences saved", m.statusMsg)
}

func TestQuitStopsDispatcher(t *testing.T) {
	m := newTestModel(t)

	_, cmd := update(t, m, runes("q"))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
	assert.Nil(t, m.session.Dispatcher.Next()())
}

func TestSettingsView(t *testing.T) {
	m := newTestModel(t)

	m, _ = update(t, m, runes("s"))
	require.Equal(t, ViewSettings, m.currentView)
	assert.Contains(t, m.View(), "Connections")

	m, _ = update(t, m, configview.ConfigDoneMsg{Saved: true})
	assert.Equal(t, ViewHome, m.currentView)
	assert.Equal(t, "connections saved, restart to apply", m.statusMsg)
}
