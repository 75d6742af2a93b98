package panel

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/notification-center/internal/model"
	"github.com/nhle/notification-center/internal/theme"
)

// Item wraps a notification for the bubbles list.
type Item struct {
	Notification model.Notification
}

// FilterValue implements list.Item.
func (i Item) FilterValue() string { return i.Notification.Title }

// ItemDelegate renders one notification as three lines: heading, body
// and meta.
type ItemDelegate struct {
	now   func() time.Time
	width int
}

// Height returns the number of lines each item takes.
func (d ItemDelegate) Height() int { return 3 }

// Spacing returns the number of blank lines between items.
func (d ItemDelegate) Spacing() int { return 1 }

// Update handles per-item messages (unused).
func (d ItemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd {
	return nil
}

// Render draws a single notification.
func (d ItemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, ok := item.(Item)
	if !ok {
		return
	}
	n := it.Notification

	dot := " "
	title := n.Title
	if n.IsRead {
		title = theme.ReadTitleStyle.Render(title)
	} else {
		dot = theme.UnreadDotStyle.Render("●")
	}

	heading := fmt.Sprintf("%s %s %s", dot, title, priorityBadge(n.Priority))

	body := truncate(n.Body, d.width-4)
	meta := fmt.Sprintf("%s · %s",
		theme.CategoryStyle(n.Category).Render(n.Category.Label()),
		lipgloss.NewStyle().Foreground(theme.ColorGray).Render(relativeTime(n.CreatedAt, d.now())),
	)
	if n.HasAction() {
		meta += lipgloss.NewStyle().Foreground(theme.ColorGray).Render("  ↵ open")
	}

	block := strings.Join([]string{heading, "  " + body, "  " + meta}, "\n")

	if index == m.Index() {
		block = theme.SelectedItemStyle.Render(block)
	} else {
		block = theme.ListItemStyle.Render(block)
	}

	fmt.Fprint(w, block)
}

// priorityBadge labels high and urgent entries. Lower priorities get no
// badge.
func priorityBadge(p model.Priority) string {
	switch p {
	case model.PriorityUrgent, model.PriorityHigh:
		return theme.PriorityStyle(p).Render(strings.ToUpper(string(p)))
	}
	return ""
}

// relativeTime returns a human-friendly time relative to now.
func relativeTime(t, now time.Time) string {
	if t.IsZero() {
		return ""
	}

	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	case d < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	case d < 30*24*time.Hour:
		return fmt.Sprintf("%dw ago", int(d.Hours()/24/7))
	default:
		return t.Format("Jan 02")
	}
}

// truncate shortens s to at most n cells, ending with an ellipsis.
func truncate(s string, n int) string {
	if n <= 1 || lipgloss.Width(s) <= n {
		return s
	}
	runes := []rune(s)
	for len(runes) > 0 && lipgloss.Width(string(runes))+1 > n {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "…"
}
