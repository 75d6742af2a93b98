// Package route renders the page a notification navigated to.
package route

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/notification-center/internal/keys"
	"github.com/nhle/notification-center/internal/model"
	"github.com/nhle/notification-center/internal/theme"
)

// HomeMessage is shown before anything has been opened.
const HomeMessage = "Press n to open your notifications."

// BackMsg asks the app to return to the home page.
type BackMsg struct{}

// Model is the current page: a target and the notification that led
// there. The zero target is the home page.
type Model struct {
	target   string
	from     model.Notification
	viewport viewport.Model
	keys     *keys.KeyMap
	width    int
	height   int
}

// New creates the route view on the home page.
func New(k *keys.KeyMap, width, height int) Model {
	vp := viewport.New(width, height)
	vp.Style = lipgloss.NewStyle().Padding(1, 2)

	m := Model{viewport: vp, keys: k, width: width, height: height}
	m.viewport.SetContent(m.renderContent())
	return m
}

// Navigate switches to target.
func (m *Model) Navigate(target string, from model.Notification) {
	m.target = target
	m.from = from
	m.viewport.SetContent(m.renderContent())
	m.viewport.GotoTop()
}

// Home returns to the home page.
func (m *Model) Home() {
	m.Navigate("", model.Notification{})
}

// Target returns the current route, empty on the home page.
func (m Model) Target() string {
	return m.target
}

// Update scrolls the page; esc leaves it.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && key.Matches(msg, m.keys.Back) {
		if m.target == "" {
			return m, nil
		}
		return m, func() tea.Msg { return BackMsg{} }
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// View renders the page.
func (m Model) View() string {
	return m.viewport.View()
}

// SetSize updates the page dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height
	m.viewport.SetContent(m.renderContent())
}

func (m Model) renderContent() string {
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite)

	if m.target == "" {
		return lipgloss.JoinVertical(lipgloss.Left,
			titleStyle.Render("Home"),
			"",
			theme.HelpStyle.Render(HomeMessage),
		)
	}

	n := m.from
	sections := []string{
		lipgloss.NewStyle().Bold(true).Foreground(theme.ColorBlue).Render(m.target),
		"",
	}

	if n.ID != "" {
		metaStyle := lipgloss.NewStyle().Foreground(theme.ColorGray)
		valStyle := lipgloss.NewStyle().Foreground(theme.ColorWhite)

		badges := lipgloss.JoinHorizontal(lipgloss.Top,
			theme.CategoryStyle(n.Category).Render(n.Category.Label()),
			"  ",
			theme.PriorityStyle(n.Priority).Render(strings.ToUpper(string(n.Priority))),
		)

		sepWidth := max(min(m.width-6, 80), 1)
		separator := lipgloss.NewStyle().
			Foreground(theme.ColorSubtle).
			Render(strings.Repeat("─", sepWidth))

		sections = append(sections,
			metaStyle.Render("Opened from"),
			titleStyle.Render(n.Title),
			badges,
			"",
			fmt.Sprintf("%s  %s", metaStyle.Render("Received:"),
				valStyle.Render(n.CreatedAt.Local().Format("2006-01-02 15:04"))),
			"",
			separator,
			"",
		)

		body := n.Body
		if body == "" {
			body = lipgloss.NewStyle().Foreground(theme.ColorGray).Italic(true).Render("No details")
		}
		sections = append(sections, body, "")
	}

	sections = append(sections, theme.HelpStyle.Render("esc returns home"))
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}
