package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/nhle/notification-center/internal/dispatch"
	"github.com/nhle/notification-center/internal/feed"
	"github.com/nhle/notification-center/internal/keys"
	"github.com/nhle/notification-center/internal/model"
	"github.com/nhle/notification-center/internal/ui"
	"github.com/nhle/notification-center/internal/ui/command"
	configview "github.com/nhle/notification-center/internal/ui/config"
	helpview "github.com/nhle/notification-center/internal/ui/help"
	"github.com/nhle/notification-center/internal/ui/panel"
	"github.com/nhle/notification-center/internal/ui/prefs"
	"github.com/nhle/notification-center/internal/ui/route"
)

// defaultDigestInterval is how often the digest schedule is checked.
const defaultDigestInterval = time.Minute

// ViewState represents the current active view in the application.
type ViewState int

const (
	ViewHome ViewState = iota
	ViewHelp
	ViewCommand
	ViewPrefs
	ViewSettings
)

// digestTickMsg fires when the digest schedule should be checked.
type digestTickMsg time.Time

// digestResultMsg reports a digest attempt.
type digestResultMsg struct {
	sent int
	err  error
}

// passwordSavedMsg reports storing the mail password.
type passwordSavedMsg struct {
	err error
}

// Model is the root Bubble Tea model: it owns the session's services,
// routes input to the active view and renders the frame.
type Model struct {
	currentView  ViewState
	previousView ViewState
	layout       ui.Layout
	session      *Session
	keys         *keys.KeyMap
	panel        panel.Model
	helpView     helpview.Model
	commandView  command.Model
	prefsView    prefs.Model
	configView   configview.Model
	routeView    route.Model
	ctx          context.Context
	statusMsg    string
	ready        bool
}

// New creates the root model for s.
func New(ctx context.Context, s *Session) Model {
	k := keys.DefaultKeyMap()

	return Model{
		currentView: ViewHome,
		session:     s,
		keys:        k,
		panel:       panel.New(s.Feed, k, 48, 24),
		helpView:    helpview.New(k, 80, 24),
		commandView: command.New(80, 24),
		routeView:   route.New(k, 80, 24),
		ctx:         ctx,
	}
}

// Init starts the dispatcher and the digest schedule.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.session.Dispatcher.Start(m.ctx),
		m.scheduleDigest(),
	)
}

// Update handles messages and dispatches to the active view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		m.ready = true
		contentWidth := m.layout.ContentWidth()
		contentHeight := m.layout.ContentHeight()
		m.panel.SetRegion(m.layout.PanelLeft(), m.layout.PanelWidth(), contentHeight)
		m.helpView.SetSize(contentWidth, contentHeight)
		m.commandView.SetSize(contentWidth, contentHeight)
		m.resizeRoute()
		switch m.currentView {
		case ViewPrefs:
			m.prefsView.SetSize(contentWidth, contentHeight)
		case ViewSettings:
			m.configView.SetSize(contentWidth, contentHeight)
		}
		return m, nil

	case dispatch.NotificationMsg:
		m.session.Feed.Append(msg.Notification)
		if m.panel.IsOpen() {
			m.panel.Refresh()
		}
		return m, m.session.Dispatcher.Next()

	case panel.NavigateMsg:
		m.routeView.Navigate(msg.Target, msg.From)
		m.resizeRoute()
		return m, nil

	case route.BackMsg:
		m.routeView.Home()
		return m, nil

	case digestTickMsg:
		return m, tea.Batch(m.runDigest(time.Time(msg)), m.scheduleDigest())

	case digestResultMsg:
		switch {
		case msg.err != nil:
			m.statusMsg = "digest failed: " + msg.err.Error()
		case msg.sent > 0:
			m.statusMsg = fmt.Sprintf("digest sent with %d notifications", msg.sent)
		}
		return m, nil

	case prefs.SavedMsg:
		m.session.Feed.UpdatePreferences(msg.Patch)
		m.currentView = m.previousView
		m.statusMsg = "preferences saved"
		if msg.MailPassword != "" {
			return m, m.saveMailPassword(msg.MailPassword)
		}
		return m, nil

	case prefs.ClosedMsg:
		m.currentView = m.previousView
		return m, nil

	case configview.ConfigDoneMsg:
		m.currentView = m.previousView
		if msg.Saved {
			m.statusMsg = "connections saved, restart to apply"
		}
		return m, nil

	case passwordSavedMsg:
		if msg.err != nil {
			m.statusMsg = "could not store mail password: " + msg.err.Error()
		}
		return m, nil

	case command.CommandMsg:
		m.currentView = m.previousView
		cmd := m.executeCommand(string(msg))
		return m, cmd

	case command.CancelMsg:
		m.currentView = m.previousView
		return m, nil

	case tea.MouseMsg:
		if m.currentView == ViewHome {
			wasOpen := m.panel.IsOpen()
			m.panel, _ = m.panel.Update(msg)
			if wasOpen != m.panel.IsOpen() {
				m.resizeRoute()
			}
		}
		return m, nil

	case tea.KeyMsg:
		m.statusMsg = ""
		if next, cmd, handled := m.handleGlobalKey(msg); handled {
			return next, cmd
		}
	}

	return m.updateActiveView(msg)
}

// handleGlobalKey processes keys that work regardless of focus. Text
// entry views only see ctrl+c here.
func (m Model) handleGlobalKey(msg tea.KeyMsg) (tea.Model, tea.Cmd, bool) {
	if msg.String() == "ctrl+c" {
		return m, m.quit(), true
	}
	switch m.currentView {
	case ViewPrefs, ViewSettings, ViewCommand:
		return m, nil, false
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, m.quit(), true

	case key.Matches(msg, m.keys.Help):
		if m.currentView == ViewHelp {
			m.currentView = m.previousView
			return m, nil, true
		}
		m.previousView = m.currentView
		m.currentView = ViewHelp
		return m, nil, true
	}

	if m.currentView == ViewHelp {
		if key.Matches(msg, m.keys.Back) {
			m.currentView = m.previousView
		}
		return m, nil, true
	}

	// The open panel owns the remaining keys.
	if m.panel.IsOpen() {
		return m, nil, false
	}

	switch {
	case key.Matches(msg, m.keys.TogglePanel):
		m.panel.Open()
		m.resizeRoute()
		return m, nil, true

	case key.Matches(msg, m.keys.Preferences):
		return m.openPrefs()

	case key.Matches(msg, m.keys.Settings):
		return m.openSettings()

	case key.Matches(msg, m.keys.Command):
		m.previousView = m.currentView
		m.currentView = ViewCommand
		cmd := m.commandView.Focus()
		return m, cmd, true
	}

	return m, nil, false
}

func (m Model) openPrefs() (tea.Model, tea.Cmd, bool) {
	m.previousView = m.currentView
	m.currentView = ViewPrefs
	m.prefsView = prefs.New(
		m.session.Feed.Preferences(),
		m.session.AskMailPassword(),
		m.layout.ContentWidth(),
		m.layout.ContentHeight(),
	)
	return m, m.prefsView.Init(), true
}

func (m Model) openSettings() (tea.Model, tea.Cmd, bool) {
	m.previousView = m.currentView
	m.currentView = ViewSettings
	m.configView = configview.New(
		*m.session.Config,
		m.session.ConfigPath,
		nil, nil,
		m.layout.ContentWidth(),
		m.layout.ContentHeight(),
	)
	return m, m.configView.Init(), true
}

func (m Model) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.currentView {
	case ViewHome:
		if !m.panel.IsOpen() {
			m.routeView, cmd = m.routeView.Update(msg)
			return m, cmd
		}
		m.panel, cmd = m.panel.Update(msg)
		if !m.panel.IsOpen() {
			m.resizeRoute()
		}
	case ViewHelp:
		m.helpView, cmd = m.helpView.Update(msg)
	case ViewCommand:
		m.commandView, cmd = m.commandView.Update(msg)
	case ViewPrefs:
		m.prefsView, cmd = m.prefsView.Update(msg)
	case ViewSettings:
		m.configView, cmd = m.configView.Update(msg)
	}

	return m, cmd
}

// executeCommand handles a command string from the command palette.
func (m *Model) executeCommand(cmd string) tea.Cmd {
	f := m.session.Feed

	switch {
	case cmd == "read all":
		f.MarkAllRead()
	case cmd == "clear read":
		f.ClearRead()
	case cmd == "delete all":
		f.DeleteAll()
	case cmd == "unread":
		filter := f.Filter()
		filter.UnreadOnly = !filter.UnreadOnly
		f.SetFilter(filter)
	case strings.HasPrefix(cmd, "filter "):
		c := model.Category(strings.TrimSpace(strings.TrimPrefix(cmd, "filter ")))
		if c != model.CategoryAll && !c.Valid() {
			m.statusMsg = fmt.Sprintf("unknown category %q", c)
			return nil
		}
		filter := f.Filter()
		filter.Category = c
		f.SetFilter(filter)
		m.panel.Open()
		m.resizeRoute()
	case cmd == "digest":
		return m.runDigestNow()
	case cmd == "prefs":
		next, c, _ := m.openPrefs()
		*m = next.(Model)
		return c
	case cmd == "settings":
		next, c, _ := m.openSettings()
		*m = next.(Model)
		return c
	case cmd == "quit", cmd == "q":
		return m.quit()
	default:
		m.statusMsg = fmt.Sprintf("unknown command %q", cmd)
		return nil
	}

	m.panel.Refresh()
	return nil
}

func (m Model) quit() tea.Cmd {
	m.session.Dispatcher.Stop()
	return tea.Quit
}

func (m Model) scheduleDigest() tea.Cmd {
	if m.session.Digest == nil {
		return nil
	}
	interval := m.session.DigestInterval
	if interval <= 0 {
		interval = defaultDigestInterval
	}
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return digestTickMsg(t)
	})
}

func (m Model) runDigest(now time.Time) tea.Cmd {
	return m.digestCmd(func(ctx context.Context) (int, error) {
		return m.session.Digest.Tick(ctx, now)
	})
}

// runDigestNow mails pending entries without waiting for the schedule.
func (m *Model) runDigestNow() tea.Cmd {
	if m.session.Digest == nil {
		m.statusMsg = "email is not configured"
		return nil
	}
	return m.digestCmd(func(ctx context.Context) (int, error) {
		return m.session.Digest.SendNow(ctx, time.Now())
	})
}

func (m Model) digestCmd(run func(context.Context) (int, error)) tea.Cmd {
	logger := m.session.Logger
	ctx := m.ctx
	return func() tea.Msg {
		sent, err := run(ctx)
		if err != nil {
			logger.Warn("digest failed", zap.Error(err))
		}
		return digestResultMsg{sent: sent, err: err}
	}
}

func (m Model) saveMailPassword(password string) tea.Cmd {
	save := m.session.SaveMailPassword
	return func() tea.Msg {
		return passwordSavedMsg{err: save(password)}
	}
}

// View renders the full frame.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	header := m.layout.RenderHeader("Notification Center", m.unreadBadge())
	content := m.renderContent()
	statusBar := m.layout.RenderStatusBar(m.keyHints())

	return m.layout.RenderWithFrame(header, content, statusBar)
}

// unreadBadge is recomputed from the feed on every render.
func (m Model) unreadBadge() string {
	unread := m.session.Feed.UnreadCount()
	if unread == 0 {
		return "🔔"
	}
	return fmt.Sprintf("🔔 %d", unread)
}

func (m Model) renderContent() string {
	height := m.layout.ContentHeight()

	switch m.currentView {
	case ViewHelp:
		return m.helpView.View()
	case ViewCommand:
		return m.commandView.View()
	case ViewPrefs:
		return m.prefsView.View()
	case ViewSettings:
		return m.configView.View()
	}

	if !m.panel.IsOpen() {
		return m.routeView.View()
	}

	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		lipgloss.NewStyle().Width(m.layout.PanelLeft()).Height(height).Render(m.routeView.View()),
		m.panel.View(),
	)
}

// resizeRoute fits the page into whatever the panel leaves free.
func (m *Model) resizeRoute() {
	width := m.layout.ContentWidth()
	if m.panel.IsOpen() {
		width = m.layout.PanelLeft()
	}
	m.routeView.SetSize(width, m.layout.ContentHeight())
}

func (m Model) keyHints() string {
	if m.statusMsg != "" {
		return m.statusMsg
	}

	switch m.currentView {
	case ViewHelp:
		return "? or esc close help"
	case ViewCommand:
		return "enter run | esc cancel"
	case ViewPrefs, ViewSettings:
		return "enter next | esc cancel"
	}
	if m.panel.IsOpen() {
		return "0-6 category | u unread | m read | A all read | d delete | D delete all | c clear read | esc close"
	}
	if m.routeView.Target() != "" {
		return "j/k scroll | esc home | n notifications | p preferences | ? help | q quit"
	}
	return "q quit | ? help | n notifications | p preferences | s connections | : command"
}

// Feed exposes the session feed, mainly for tests.
func (m Model) Feed() *feed.Store {
	return m.session.Feed
}
