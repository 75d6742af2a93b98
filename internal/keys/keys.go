package keys

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the global keybindings for the application.
type KeyMap struct {
	// Navigation
	Down key.Binding
	Up   key.Binding

	// Activate opens the focused notification's target.
	Activate key.Binding

	// Back / Quit
	Back key.Binding
	Quit key.Binding

	// Panel and forms
	TogglePanel key.Binding
	Preferences key.Binding
	Settings    key.Binding

	// Command palette
	Command key.Binding

	// Help toggle
	Help key.Binding

	// Category filters
	FilterAll        key.Binding
	FilterCategories []key.Binding
	UnreadOnly       key.Binding

	// Actions
	ToggleRead  key.Binding
	MarkAllRead key.Binding
	Delete      key.Binding
	DeleteAll   key.Binding
	ClearRead   key.Binding
}

// DefaultKeyMap returns the default set of keybindings. FilterCategories
// is in model.AllCategories order.
func DefaultKeyMap() *KeyMap {
	return &KeyMap{
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/↓", "down"),
		),
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/↑", "up"),
		),
		Activate: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "open"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "close"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		TogglePanel: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "notifications"),
		),
		Preferences: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "preferences"),
		),
		Settings: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "connections"),
		),
		Command: key.NewBinding(
			key.WithKeys(":"),
			key.WithHelp(":", "command palette"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "toggle help"),
		),
		FilterAll: key.NewBinding(
			key.WithKeys("0"),
			key.WithHelp("0", "all"),
		),
		FilterCategories: []key.Binding{
			key.NewBinding(key.WithKeys("1"), key.WithHelp("1", "applications")),
			key.NewBinding(key.WithKeys("2"), key.WithHelp("2", "messages")),
			key.NewBinding(key.WithKeys("3"), key.WithHelp("3", "interviews")),
			key.NewBinding(key.WithKeys("4"), key.WithHelp("4", "offers")),
			key.NewBinding(key.WithKeys("5"), key.WithHelp("5", "system")),
			key.NewBinding(key.WithKeys("6"), key.WithHelp("6", "reminders")),
		},
		UnreadOnly: key.NewBinding(
			key.WithKeys("u"),
			key.WithHelp("u", "unread only"),
		),
		ToggleRead: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "toggle read"),
		),
		MarkAllRead: key.NewBinding(
			key.WithKeys("A"),
			key.WithHelp("A", "mark all read"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "delete"),
		),
		DeleteAll: key.NewBinding(
			key.WithKeys("D"),
			key.WithHelp("D", "delete all"),
		),
		ClearRead: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "clear read"),
		),
	}
}

// ShortHelp returns the most essential keybindings for the compact help view.
func (k *KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{
		k.TogglePanel, k.Up, k.Down, k.Activate,
		k.Back, k.Quit, k.Help,
	}
}

// FullHelp returns all keybindings grouped by category for the expanded
// help view.
func (k *KeyMap) FullHelp() [][]key.Binding {
	filters := append([]key.Binding{k.FilterAll}, k.FilterCategories...)
	filters = append(filters, k.UnreadOnly)

	return [][]key.Binding{
		{k.Up, k.Down, k.Activate, k.Back, k.Quit},
		{k.TogglePanel, k.Preferences, k.Settings, k.Command, k.Help},
		filters,
		{k.ToggleRead, k.MarkAllRead, k.Delete, k.DeleteAll, k.ClearRead},
	}
}
