package help

import (
	"strings"

	"github.com/charmbracelet/bubbles/help"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/notification-center/internal/keys"
	"github.com/nhle/notification-center/internal/model"
	"github.com/nhle/notification-center/internal/theme"
)

// sectionTitles label the groups of keys.KeyMap.FullHelp in order.
var sectionTitles = []string{"Navigation", "Views", "Filters", "Actions"}

// Model is the help overlay view.
type Model struct {
	keys   *keys.KeyMap
	help   help.Model
	width  int
	height int
}

// New creates a new help view model.
func New(keys *keys.KeyMap, width, height int) Model {
	h := help.New()
	h.ShowAll = true
	return Model{
		keys:   keys,
		help:   h,
		width:  width,
		height: height,
	}
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages for the help view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	return m, nil
}

// View renders the help overlay: one block per key group, then a legend
// of category colors and priority badges.
func (m Model) View() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)
	sectionStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorBlue)

	var blocks []string
	for i, group := range m.keys.FullHelp() {
		title := ""
		if i < len(sectionTitles) {
			title = sectionTitles[i]
		}
		blocks = append(blocks, lipgloss.JoinVertical(lipgloss.Left,
			sectionStyle.Render(title),
			m.help.ShortHelpView(group),
		))
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render("Keyboard Shortcuts"),
		strings.Join(blocks, "\n\n"),
		"",
		sectionStyle.Render("Legend"),
		legend(),
	)

	return theme.PanelStyle.
		Width(m.width - 4).
		Height(m.height - 4).
		Render(content)
}

func legend() string {
	var cats []string
	for _, c := range model.AllCategories() {
		cats = append(cats, theme.CategoryStyle(c).Render(c.Label()))
	}

	var prios []string
	for _, p := range []model.Priority{model.PriorityUrgent, model.PriorityHigh, model.PriorityMedium, model.PriorityLow} {
		prios = append(prios, theme.PriorityStyle(p).Render(strings.ToUpper(string(p))))
	}

	return strings.Join(cats, "  ") + "\n" + strings.Join(prios, "  ")
}

// SetSize updates the help view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.help.Width = width - 8
}
