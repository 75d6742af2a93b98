package prefs

import (
	"errors"
	"slices"
	"strconv"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/notification-center/internal/model"
)

// SavedMsg is sent when the form completes. MailPassword is empty unless
// the user typed a new one.
type SavedMsg struct {
	Patch        model.PreferencesPatch
	MailPassword string
}

// ClosedMsg is sent when the form is dismissed without saving.
type ClosedMsg struct{}

// fields holds the values huh binds to. It lives behind a pointer so
// copies of Model keep writing to the same place.
type fields struct {
	soundEnabled  bool
	volume        string
	systemEnabled bool

	emailEnabled    bool
	emailFrequency  string
	emailCategories []string

	pushEnabled    bool
	pushCategories []string

	mailPassword string
}

// Model is the preferences form.
type Model struct {
	form   *huh.Form
	f      *fields
	base   model.Preferences
	done   bool
	width  int
	height int
}

// New builds a form pre-filled from prefs. askPassword adds a mail
// password field stored in the keyring.
func New(prefs model.Preferences, askPassword bool, width, height int) Model {
	f := &fields{
		soundEnabled:    prefs.Sound.Enabled,
		volume:          strconv.Itoa(prefs.Sound.Volume),
		systemEnabled:   prefs.Browser.Enabled,
		emailEnabled:    prefs.Email.Enabled,
		emailFrequency:  string(prefs.Email.Frequency),
		emailCategories: categoryStrings(prefs.Email.Categories),
		pushEnabled:     prefs.Push.Enabled,
		pushCategories:  categoryStrings(prefs.Push.Categories),
	}

	m := Model{
		f:      f,
		base:   prefs.Clone(),
		width:  width,
		height: height,
	}
	m.form = m.buildForm(askPassword)
	return m
}

func (m Model) buildForm(askPassword bool) *huh.Form {
	emailGroup := []huh.Field{
		huh.NewConfirm().
			Title("Email notifications").
			Value(&m.f.emailEnabled),
		huh.NewSelect[string]().
			Title("Frequency").
			Options(
				huh.NewOption("Instant", string(model.FrequencyInstant)),
				huh.NewOption("Daily digest", string(model.FrequencyDaily)),
				huh.NewOption("Weekly digest", string(model.FrequencyWeekly)),
			).
			Value(&m.f.emailFrequency),
		huh.NewMultiSelect[string]().
			Title("Email categories").
			Options(categoryOptions()...).
			Value(&m.f.emailCategories),
	}
	if askPassword {
		emailGroup = append(emailGroup,
			huh.NewInput().
				Title("Mail password").
				Description("Leave empty to keep the stored password").
				EchoMode(huh.EchoModePassword).
				Value(&m.f.mailPassword),
		)
	}

	km := huh.NewDefaultKeyMap()
	km.Quit = key.NewBinding(key.WithKeys("esc", "ctrl+c"), key.WithHelp("esc", "cancel"))

	return huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Sound").
				Description("Ring the terminal bell on new notifications").
				Value(&m.f.soundEnabled),
			huh.NewInput().
				Title("Volume").
				Description("0-100; 0 is silent").
				Value(&m.f.volume).
				Validate(validateVolume),
			huh.NewConfirm().
				Title("Desktop notifications").
				Description("Show a system notification for each new entry").
				Value(&m.f.systemEnabled),
		).Title("Alerts"),
		huh.NewGroup(emailGroup...).Title("Email"),
		huh.NewGroup(
			huh.NewConfirm().
				Title("Push to other devices").
				Value(&m.f.pushEnabled),
			huh.NewMultiSelect[string]().
				Title("Push categories").
				Options(categoryOptions()...).
				Value(&m.f.pushCategories),
		).Title("Push"),
	).
		WithKeyMap(km).
		WithWidth(m.formWidth()).
		WithShowHelp(true)
}

// Init returns the form's initial command.
func (m Model) Init() tea.Cmd {
	return m.form.Init()
}

// Update forwards input to the form and reports completion.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.done {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		m.done = true
		saved := SavedMsg{Patch: m.Patch(), MailPassword: m.f.mailPassword}
		return m, func() tea.Msg { return saved }
	case huh.StateAborted:
		m.done = true
		return m, func() tea.Msg { return ClosedMsg{} }
	}

	return m, cmd
}

// Patch converts the current field values into a full patch. The
// browser permission is carried over unchanged.
func (m Model) Patch() model.PreferencesPatch {
	volume, err := strconv.Atoi(m.f.volume)
	if err != nil {
		volume = m.base.Sound.Volume
	}

	return model.PreferencesPatch{
		Sound: &model.SoundPrefs{
			Enabled: m.f.soundEnabled,
			Volume:  volume,
		},
		Browser: &model.BrowserPrefs{
			Enabled:    m.f.systemEnabled,
			Permission: m.base.Browser.Permission,
		},
		Email: &model.EmailPrefs{
			Enabled:    m.f.emailEnabled,
			Frequency:  model.EmailFrequency(m.f.emailFrequency),
			Categories: toCategories(m.f.emailCategories),
		},
		Push: &model.PushPrefs{
			Enabled:    m.f.pushEnabled,
			Categories: toCategories(m.f.pushCategories),
		},
	}
}

// View renders the form.
func (m Model) View() string {
	return lipgloss.NewStyle().
		Padding(1, 2).
		Width(m.width).
		Height(m.height).
		Render(m.form.View())
}

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.form = m.form.WithWidth(m.formWidth())
}

func (m Model) formWidth() int {
	return min(max(m.width-4, 40), 100)
}

func validateVolume(s string) error {
	v, err := strconv.Atoi(s)
	if err != nil {
		return errors.New("volume must be a number")
	}
	if v < 0 || v > 100 {
		return errors.New("volume must be between 0 and 100")
	}
	return nil
}

func categoryOptions() []huh.Option[string] {
	opts := make([]huh.Option[string], 0, len(model.AllCategories()))
	for _, c := range model.AllCategories() {
		opts = append(opts, huh.NewOption(c.Label(), string(c)))
	}
	return opts
}

func categoryStrings(cs []model.Category) []string {
	out := make([]string, 0, len(cs))
	for _, c := range cs {
		out = append(out, string(c))
	}
	return out
}

// toCategories keeps AllCategories order regardless of selection order.
func toCategories(values []string) []model.Category {
	out := make([]model.Category, 0, len(values))
	for _, c := range model.AllCategories() {
		if slices.Contains(values, string(c)) {
			out = append(out, c)
		}
	}
	return out
}
