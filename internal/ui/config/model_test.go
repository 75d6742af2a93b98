package config

import (
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/notification-center/internal/model"
)

type recorder struct {
	saved     *model.AppConfig
	secrets   map[string]string
	forgotten []string
	saveErr   error
	forgetErr error
}

func (r *recorder) save(cfg *model.AppConfig) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	r.saved = cfg
	return nil
}

func (r *recorder) secret(key, value string) error {
	if r.secrets == nil {
		r.secrets = map[string]string{}
	}
	r.secrets[key] = value
	return nil
}

func (r *recorder) forget(key string) error {
	if r.forgetErr != nil {
		return r.forgetErr
	}
	r.forgotten = append(r.forgotten, key)
	return nil
}

func baseConfig() model.AppConfig {
	return model.AppConfig{
		User: "alice",
		Email: model.EmailConfig{
			Transport: "smtp",
			To:        "alice@example.com",
			SMTPHost:  "smtp.example.com",
			SMTPPort:  "587",
			TLS:       true,
		},
		Redis: model.RedisConfig{Addr: "localhost:6379", Prefix: "notifications"},
	}
}

func TestConfigRoundTripsPrefilledValues(t *testing.T) {
	cfg := baseConfig()
	m := New(cfg, "", nil, nil, 80, 30)
	assert.Equal(t, cfg, m.Config())
}

func TestPersistWritesConfigAndSecrets(t *testing.T) {
	r := &recorder{}
	m := New(baseConfig(), "", r.save, r.secret, 80, 30)

	m.f.transport = "imap"
	m.f.imapHost = " imap.example.com "
	m.f.username = "alice"
	m.f.password = "hunter2"
	m.f.redisOn = true
	m.f.redisPass = "s3cret"

	msg := m.persist()()
	require.Equal(t, savedMsg{}, msg)

	require.NotNil(t, r.saved)
	assert.Equal(t, "imap", r.saved.Email.Transport)
	assert.Equal(t, "imap.example.com", r.saved.Email.IMAPHost)
	assert.True(t, r.saved.Redis.Enabled)
	assert.Equal(t, map[string]string{
		"mail-password:alice":           "hunter2",
		"redis-password:localhost:6379": "s3cret",
	}, r.secrets)
}

func TestPersistKeepsStoredPasswordsWhenEmpty(t *testing.T) {
	r := &recorder{}
	m := New(baseConfig(), "", r.save, r.secret, 80, 30)
	m.f.username = "alice"

	require.Equal(t, savedMsg{}, m.persist()())
	assert.Empty(t, r.secrets)
}

func TestPersistForgetsSecretsOfReplacedAccounts(t *testing.T) {
	cfg := baseConfig()
	cfg.Email.Username = "alice@old.example.com"

	t.Run("changed", func(t *testing.T) {
		r := &recorder{}
		m := New(cfg, "", r.save, r.secret, 80, 30)
		m.forget = r.forget
		m.f.username = "alice@new.example.com"
		m.f.password = "fresh"
		m.f.redisAddr = "redis.internal:6380"

		require.Equal(t, savedMsg{}, m.persist()())
		assert.Equal(t, []string{
			"mail-password:alice@old.example.com",
			"redis-password:localhost:6379",
		}, r.forgotten)
		assert.Equal(t, map[string]string{"mail-password:alice@new.example.com": "fresh"}, r.secrets)
	})

	t.Run("cleared username", func(t *testing.T) {
		r := &recorder{}
		m := New(cfg, "", r.save, r.secret, 80, 30)
		m.forget = r.forget
		m.f.username = "  "

		require.Equal(t, savedMsg{}, m.persist()())
		assert.Equal(t, []string{"mail-password:alice@old.example.com"}, r.forgotten)
	})

	t.Run("unchanged", func(t *testing.T) {
		r := &recorder{}
		m := New(cfg, "", r.save, r.secret, 80, 30)
		m.forget = r.forget

		require.Equal(t, savedMsg{}, m.persist()())
		assert.Empty(t, r.forgotten)
	})

	t.Run("failure reported", func(t *testing.T) {
		r := &recorder{forgetErr: errors.New("keyring locked")}
		m := New(cfg, "", r.save, r.secret, 80, 30)
		m.forget = r.forget
		m.f.username = "bob"

		msg, ok := m.persist()().(savedMsg)
		require.True(t, ok)
		require.Error(t, msg.err)
		assert.Contains(t, msg.err.Error(), "keyring locked")
	})
}

func TestSaveFailureShowsRetry(t *testing.T) {
	r := &recorder{saveErr: errors.New("read-only file system")}
	m := New(baseConfig(), "", r.save, r.secret, 80, 30)

	m, _ = m.Update(m.persist()())
	require.Equal(t, ModeResult, m.mode)
	assert.Contains(t, m.View(), "read-only file system")

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")})
	assert.Equal(t, ModeForm, m.mode)
	assert.NoError(t, m.err)
}

func TestResultClosesWithSavedFlag(t *testing.T) {
	m := New(baseConfig(), "", (&recorder{}).save, nil, 80, 30)

	m, _ = m.Update(savedMsg{})
	assert.Contains(t, m.View(), "Settings saved")

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.Equal(t, ConfigDoneMsg{Saved: true}, cmd())
}

func TestValidators(t *testing.T) {
	assert.NoError(t, validatePort(""))
	assert.NoError(t, validatePort("993"))
	assert.Error(t, validatePort("99a"))

	assert.NoError(t, validateAddr(""))
	assert.NoError(t, validateAddr("localhost:6379"))
	assert.Error(t, validateAddr("localhost"))
	assert.Error(t, validateAddr(":6379"))
	assert.Error(t, validateAddr("localhost:"))
}
