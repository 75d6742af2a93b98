package config

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/notification-center/internal/credential"
	"github.com/nhle/notification-center/internal/model"
	"github.com/nhle/notification-center/internal/theme"
)

// ConfigMode represents the current state of the connections view.
type ConfigMode int

const (
	ModeForm   ConfigMode = iota // Editing
	ModeSaving                   // Writing config and keyring
	ModeResult                   // Showing the save result
)

// ConfigDoneMsg signals the view should close. Saved is true when new
// settings were written.
type ConfigDoneMsg struct {
	Saved bool
}

// savedMsg is sent after the config file and keyring were written.
type savedMsg struct {
	err error
}

// SaveFunc persists cfg; the default writes the YAML config file.
type SaveFunc func(cfg *model.AppConfig) error

// SecretFunc stores a secret under key; the default is the keyring.
type SecretFunc func(key, value string) error

// ForgetFunc removes the secret stored under key; the default is the
// keyring.
type ForgetFunc func(key string) error

// fields is shared by copies of Model so huh's bound pointers stay valid.
type fields struct {
	transport   string
	from        string
	to          string
	smtpHost    string
	smtpPort    string
	imapHost    string
	imapPort    string
	username    string
	password    string
	mailbox     string
	tls         bool
	redisOn     bool
	redisAddr   string
	redisPfx    string
	redisPass   string
	systemOn    bool
	syntheticOn bool
}

// Model edits the connection settings of the config file: mail
// transport, Redis push and local alert switches.
type Model struct {
	mode    ConfigMode
	base    model.AppConfig
	form    *huh.Form
	f       *fields
	spinner spinner.Model
	err     error
	save    SaveFunc
	secret  SecretFunc
	forget  ForgetFunc

	width, height int
}

// New creates the connections view prefilled from cfg. Nil save or
// secret functions fall back to writing path and the system keyring.
func New(cfg model.AppConfig, path string, save SaveFunc, secret SecretFunc, width, height int) Model {
	if save == nil {
		save = func(c *model.AppConfig) error { return model.SaveConfig(path, c) }
	}
	if secret == nil {
		secret = credential.Set
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := Model{
		mode:    ModeForm,
		base:    cfg,
		spinner: sp,
		save:    save,
		secret:  secret,
		forget:  credential.Delete,
		width:   width,
		height:  height,
		f: &fields{
			transport:   cfg.Email.Transport,
			from:        cfg.Email.From,
			to:          cfg.Email.To,
			smtpHost:    cfg.Email.SMTPHost,
			smtpPort:    cfg.Email.SMTPPort,
			imapHost:    cfg.Email.IMAPHost,
			imapPort:    cfg.Email.IMAPPort,
			username:    cfg.Email.Username,
			mailbox:     cfg.Email.Mailbox,
			tls:         cfg.Email.TLS,
			redisOn:     cfg.Redis.Enabled,
			redisAddr:   cfg.Redis.Addr,
			redisPfx:    cfg.Redis.Prefix,
			systemOn:    cfg.Alerts.System.Allow,
			syntheticOn: cfg.Dispatch.Synthetic.Enabled,
		},
	}
	if m.f.transport == "" {
		m.f.transport = "smtp"
	}
	m.form = m.buildForm()
	return m
}

// Init starts the form.
func (m Model) Init() tea.Cmd {
	return m.form.Init()
}

// Update handles messages for the connections view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case savedMsg:
		m.mode = ModeResult
		m.err = msg.err
		return m, nil

	case spinner.TickMsg:
		if m.mode != ModeSaving {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if m.mode == ModeResult {
			return m.handleResultKeys(msg)
		}
	}

	if m.mode != ModeForm {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		m.mode = ModeSaving
		return m, tea.Batch(m.spinner.Tick, m.persist())
	case huh.StateAborted:
		return m, func() tea.Msg { return ConfigDoneMsg{} }
	}

	return m, cmd
}

var (
	retryKey = key.NewBinding(key.WithKeys("r"))
	closeKey = key.NewBinding(key.WithKeys("enter", "esc"))
)

func (m Model) handleResultKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case m.err != nil && key.Matches(msg, retryKey):
		m.mode = ModeForm
		m.err = nil
		m.form = m.buildForm()
		return m, m.form.Init()
	case key.Matches(msg, closeKey):
		saved := m.err == nil
		return m, func() tea.Msg { return ConfigDoneMsg{Saved: saved} }
	}
	return m, nil
}

// Config returns the settings as edited.
func (m Model) Config() model.AppConfig {
	cfg := m.base
	f := m.f

	cfg.Email.Transport = f.transport
	cfg.Email.From = strings.TrimSpace(f.from)
	cfg.Email.To = strings.TrimSpace(f.to)
	cfg.Email.SMTPHost = strings.TrimSpace(f.smtpHost)
	cfg.Email.SMTPPort = strings.TrimSpace(f.smtpPort)
	cfg.Email.IMAPHost = strings.TrimSpace(f.imapHost)
	cfg.Email.IMAPPort = strings.TrimSpace(f.imapPort)
	cfg.Email.Username = strings.TrimSpace(f.username)
	cfg.Email.Mailbox = strings.TrimSpace(f.mailbox)
	cfg.Email.TLS = f.tls

	cfg.Redis.Enabled = f.redisOn
	cfg.Redis.Addr = strings.TrimSpace(f.redisAddr)
	cfg.Redis.Prefix = strings.TrimSpace(f.redisPfx)

	cfg.Alerts.System.Allow = f.systemOn
	cfg.Dispatch.Synthetic.Enabled = f.syntheticOn
	return cfg
}

// persist writes the config file, then any new secrets. Secrets never go
// into the file. Secrets filed under a username or Redis address that was
// changed or cleared are removed.
func (m Model) persist() tea.Cmd {
	cfg := m.Config()
	oldUser, oldAddr := m.base.Email.Username, m.base.Redis.Addr
	mailPassword := m.f.password
	redisPassword := m.f.redisPass
	save, secret, forget := m.save, m.secret, m.forget

	return func() tea.Msg {
		if err := save(&cfg); err != nil {
			return savedMsg{err: err}
		}
		if oldUser != "" && oldUser != cfg.Email.Username {
			if err := forget(credential.MailPasswordKey(oldUser)); err != nil {
				return savedMsg{err: fmt.Errorf("removing old mail password: %w", err)}
			}
		}
		if oldAddr != "" && oldAddr != cfg.Redis.Addr {
			if err := forget(credential.RedisPasswordKey(oldAddr)); err != nil {
				return savedMsg{err: fmt.Errorf("removing old redis password: %w", err)}
			}
		}
		if mailPassword != "" && cfg.Email.Username != "" {
			if err := secret(credential.MailPasswordKey(cfg.Email.Username), mailPassword); err != nil {
				return savedMsg{err: fmt.Errorf("saving mail password: %w", err)}
			}
		}
		if redisPassword != "" {
			if err := secret(credential.RedisPasswordKey(cfg.Redis.Addr), redisPassword); err != nil {
				return savedMsg{err: fmt.Errorf("saving redis password: %w", err)}
			}
		}
		return savedMsg{}
	}
}

func (m *Model) buildForm() *huh.Form {
	f := m.f

	keymap := huh.NewDefaultKeyMap()
	keymap.Quit = key.NewBinding(key.WithKeys("esc", "ctrl+c"), key.WithHelp("esc", "cancel"))

	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Mail transport").
				Description("SMTP sends mail; IMAP files it into a mailbox").
				Options(huh.NewOption("SMTP", "smtp"), huh.NewOption("IMAP", "imap")).
				Value(&f.transport),
			huh.NewInput().
				Title("To").
				Description("Address digests are delivered to").
				Placeholder("you@example.com").
				Value(&f.to),
			huh.NewInput().
				Title("From").
				Placeholder("notifications@example.com").
				Value(&f.from),
			huh.NewInput().
				Title("Username").
				Description("Mail account username").
				Value(&f.username),
			huh.NewInput().
				Title("Password").
				Description("Leave empty to keep the stored password").
				EchoMode(huh.EchoModePassword).
				Value(&f.password),
			huh.NewConfirm().
				Title("Use TLS").
				Affirmative("Yes").
				Negative("No").
				Value(&f.tls),
		).Title("Email"),
		huh.NewGroup(
			huh.NewInput().
				Title("SMTP Host").
				Placeholder("smtp.example.com").
				Value(&f.smtpHost),
			huh.NewInput().
				Title("SMTP Port").
				Placeholder("587").
				Value(&f.smtpPort).
				Validate(validatePort),
		).Title("SMTP").WithHideFunc(func() bool { return f.transport != "smtp" }),
		huh.NewGroup(
			huh.NewInput().
				Title("IMAP Host").
				Placeholder("imap.example.com").
				Value(&f.imapHost),
			huh.NewInput().
				Title("IMAP Port").
				Placeholder("993").
				Value(&f.imapPort).
				Validate(validatePort),
			huh.NewInput().
				Title("Mailbox").
				Placeholder("Notifications").
				Value(&f.mailbox),
		).Title("IMAP").WithHideFunc(func() bool { return f.transport != "imap" }),
		huh.NewGroup(
			huh.NewConfirm().
				Title("Redis push").
				Description("Receive and forward notifications over Redis pub/sub").
				Value(&f.redisOn),
			huh.NewInput().
				Title("Redis address").
				Placeholder("localhost:6379").
				Value(&f.redisAddr).
				Validate(validateAddr),
			huh.NewInput().
				Title("Channel prefix").
				Placeholder("notifications").
				Value(&f.redisPfx),
			huh.NewInput().
				Title("Redis password").
				Description("Leave empty to keep the stored password").
				EchoMode(huh.EchoModePassword).
				Value(&f.redisPass),
		).Title("Push"),
		huh.NewGroup(
			huh.NewConfirm().
				Title("Desktop notifications").
				Description("Allow terminal desktop notifications (OSC 9)").
				Value(&f.systemOn),
			huh.NewConfirm().
				Title("Demo events").
				Description("Generate sample notifications periodically").
				Value(&f.syntheticOn),
		).Title("Local"),
	).WithKeyMap(keymap).WithWidth(m.formWidth())
}

// View renders the connections view.
func (m Model) View() string {
	style := lipgloss.NewStyle().
		Padding(1, 2).
		Width(m.width).
		Height(m.height)

	switch m.mode {
	case ModeSaving:
		return style.Render(m.spinner.View() + " Saving settings...")

	case ModeResult:
		hint := lipgloss.NewStyle().Foreground(theme.ColorGray)
		if m.err != nil {
			errStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorRed)
			return style.Render(errStyle.Render("Saving failed") + "\n\n" +
				m.err.Error() + "\n\n" + hint.Render("r retry | enter/esc back"))
		}
		okStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorGreen)
		return style.Render(okStyle.Render("Settings saved") + "\n\n" +
			"Restart to reconnect with the new settings.\n\n" +
			hint.Render("enter/esc back"))
	}

	title := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite).MarginBottom(1).
		Render("Connections")
	return style.Render(lipgloss.JoinVertical(lipgloss.Left, title, m.form.View()))
}

// SetSize updates the view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	if m.form != nil {
		m.form = m.form.WithWidth(m.formWidth())
	}
}

func (m Model) formWidth() int {
	w := m.width - 8
	if w < 40 {
		w = 40
	}
	if w > 100 {
		w = 100
	}
	return w
}

// --- Validators ---

func validatePort(s string) error {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	for _, c := range strings.TrimSpace(s) {
		if c < '0' || c > '9' {
			return fmt.Errorf("port must be a number")
		}
	}
	return nil
}

func validateAddr(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	i := strings.LastIndex(s, ":")
	if i <= 0 || i == len(s)-1 {
		return fmt.Errorf("address must be host:port")
	}
	return validatePort(s[i+1:])
}
