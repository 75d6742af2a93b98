package panel

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/notification-center/internal/feed"
	"github.com/nhle/notification-center/internal/keys"
	"github.com/nhle/notification-center/internal/model"
	"github.com/nhle/notification-center/internal/theme"
)

// EmptyMessage is shown whenever the current projection has no entries.
const EmptyMessage = "No notifications to show."

// NavigateMsg asks the app to route to Target. It is emitted when an
// entry with an action target is activated; From is that entry.
type NavigateMsg struct {
	Target string
	From   model.Notification
}

// Model is the notification panel docked on the right edge. It starts
// closed.
type Model struct {
	feed *feed.Store
	keys *keys.KeyMap
	list list.Model
	now  func() time.Time

	open   bool
	left   int
	width  int
	height int
}

// New creates a closed panel reading from f.
func New(f *feed.Store, k *keys.KeyMap, width, height int) Model {
	m := Model{
		feed: f,
		keys: k,
		now:  time.Now,
	}

	l := list.New([]list.Item{}, ItemDelegate{now: m.now, width: width}, width, height)
	l.SetShowTitle(false)
	l.SetShowStatusBar(false)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.DisableQuitKeybindings()
	m.list = l

	m.SetRegion(0, width, height)
	return m
}

// Open shows the panel with a fresh projection.
func (m *Model) Open() {
	m.open = true
	m.Refresh()
}

// Close hides the panel.
func (m *Model) Close() {
	m.open = false
}

// Toggle flips between open and closed.
func (m *Model) Toggle() {
	if m.open {
		m.Close()
		return
	}
	m.Open()
}

// IsOpen reports whether the panel is showing.
func (m Model) IsOpen() bool {
	return m.open
}

// SetRegion places the panel: left is its first screen column.
func (m *Model) SetRegion(left, width, height int) {
	m.left = left
	m.width = width
	m.height = height
	m.list.SetDelegate(ItemDelegate{now: m.now, width: m.innerWidth()})
	m.list.SetSize(m.innerWidth(), max(height-2, 0))
}

// Refresh reloads the visible entries from the feed, keeping the cursor
// within range.
func (m *Model) Refresh() {
	visible := m.feed.Visible()
	items := make([]list.Item, len(visible))
	for i, n := range visible {
		items[i] = Item{Notification: n}
	}

	idx := m.list.Index()
	m.list.SetItems(items)
	if idx >= len(items) {
		idx = len(items) - 1
	}
	if idx >= 0 {
		m.list.Select(idx)
	}
}

// Selected returns the entry under the cursor.
func (m Model) Selected() (model.Notification, bool) {
	it, ok := m.list.SelectedItem().(Item)
	if !ok {
		return model.Notification{}, false
	}
	return it.Notification, true
}

// Update handles key and mouse input while the panel is open.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if !m.open {
		return m, nil
	}

	switch msg := msg.(type) {
	case tea.MouseMsg:
		if msg.Action == tea.MouseActionPress && msg.X < m.left {
			m.Close()
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back), key.Matches(msg, m.keys.TogglePanel):
		m.Close()
		return m, nil

	case key.Matches(msg, m.keys.Up):
		m.list.CursorUp()
		return m, nil

	case key.Matches(msg, m.keys.Down):
		m.list.CursorDown()
		return m, nil

	case key.Matches(msg, m.keys.Activate):
		return m.activate()

	case key.Matches(msg, m.keys.FilterAll):
		m.setCategory(model.CategoryAll)
		return m, nil

	case key.Matches(msg, m.keys.UnreadOnly):
		f := m.feed.Filter()
		f.UnreadOnly = !f.UnreadOnly
		m.feed.SetFilter(f)
		m.Refresh()
		return m, nil

	case key.Matches(msg, m.keys.ToggleRead):
		if n, ok := m.Selected(); ok {
			if n.IsRead {
				m.feed.MarkUnread(n.ID)
			} else {
				m.feed.MarkRead(n.ID)
			}
			m.Refresh()
		}
		return m, nil

	case key.Matches(msg, m.keys.MarkAllRead):
		m.feed.MarkAllRead()
		m.Refresh()
		return m, nil

	case key.Matches(msg, m.keys.Delete):
		if n, ok := m.Selected(); ok {
			m.feed.DeleteOne(n.ID)
			m.Refresh()
		}
		return m, nil

	case key.Matches(msg, m.keys.DeleteAll):
		m.feed.DeleteAll()
		m.Refresh()
		return m, nil

	case key.Matches(msg, m.keys.ClearRead):
		m.feed.ClearRead()
		m.Refresh()
		return m, nil
	}

	for i, b := range m.keys.FilterCategories {
		if key.Matches(msg, b) && i < len(model.AllCategories()) {
			m.setCategory(model.AllCategories()[i])
			return m, nil
		}
	}

	return m, nil
}

// activate marks the selected entry read, then navigates and closes if
// it carries a target.
func (m Model) activate() (Model, tea.Cmd) {
	n, ok := m.Selected()
	if !ok {
		return m, nil
	}

	m.feed.MarkRead(n.ID)
	m.Refresh()

	if !n.HasAction() {
		return m, nil
	}

	m.Close()
	n.IsRead = true
	return m, func() tea.Msg {
		return NavigateMsg{Target: n.ActionTarget, From: n}
	}
}

func (m *Model) setCategory(c model.Category) {
	f := m.feed.Filter()
	f.Category = c
	m.feed.SetFilter(f)
	m.list.Select(0)
	m.Refresh()
}

func (m Model) innerWidth() int {
	return max(m.width-4, 0)
}

// View renders the panel, or nothing while closed.
func (m Model) View() string {
	if !m.open {
		return ""
	}

	inner := m.innerWidth()
	unread := m.feed.UnreadCount()

	title := lipgloss.NewStyle().Bold(true).Render("Notifications")
	if unread > 0 {
		title += " " + theme.UnreadBadgeStyle.Render(fmt.Sprintf("%d unread", unread))
	}

	tabs := m.renderTabs(inner)

	hints := theme.HelpStyle.Render("enter open · m read · A all read · d delete · c clear read · esc close")

	chrome := []string{title, tabs, ""}
	used := lipgloss.Height(strings.Join(chrome, "\n")) + lipgloss.Height(hints) + 1
	bodyHeight := max(m.height-2-used, 1)

	var body string
	if len(m.list.Items()) == 0 {
		body = lipgloss.NewStyle().
			Foreground(theme.ColorGray).
			Width(inner).
			Height(bodyHeight).
			Render(EmptyMessage)
	} else {
		l := m.list
		l.SetHeight(bodyHeight)
		body = l.View()
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		append(chrome, body, "", hints)...,
	)

	return theme.PanelStyle.
		Width(max(m.width-2, 0)).
		Height(max(m.height-2, 0)).
		Render(content)
}

// renderTabs lays out the category filters with their unfiltered counts,
// wrapping at width.
func (m Model) renderTabs(width int) string {
	counts := m.feed.CategoryCounts()
	f := m.feed.Filter()

	type tab struct {
		key    string
		label  string
		count  int
		active bool
	}

	tabs := []tab{{"0", "All", counts[model.CategoryAll], f.Category == model.CategoryAll}}
	for i, c := range model.AllCategories() {
		tabs = append(tabs, tab{fmt.Sprint(i + 1), c.Label(), counts[c], f.Category == c})
	}

	var lines []string
	var line string
	for _, t := range tabs {
		text := fmt.Sprintf("%s %s (%d)", t.key, t.label, t.count)
		style := theme.TabStyle
		if t.active {
			style = theme.ActiveTabStyle
		}
		rendered := style.Render(text)

		switch {
		case line == "":
			line = rendered
		case lipgloss.Width(line)+2+lipgloss.Width(rendered) > width:
			lines = append(lines, line)
			line = rendered
		default:
			line += "  " + rendered
		}
	}
	if line != "" {
		lines = append(lines, line)
	}

	toggle := "[ ] unread only"
	if f.UnreadOnly {
		toggle = "[x] unread only"
	}
	lines = append(lines, theme.HelpStyle.Render("u "+toggle))

	return strings.Join(lines, "\n")
}
