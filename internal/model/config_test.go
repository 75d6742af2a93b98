package model

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	t.Setenv("USER", "alice")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "alice", cfg.User)
	assert.True(t, cfg.Dispatch.Queue.Enabled)
	assert.Equal(t, 2, cfg.Dispatch.Queue.PollIntervalSec)
	assert.False(t, cfg.Redis.Enabled)
	assert.Equal(t, "notifications", cfg.Redis.Prefix)
	assert.Equal(t, "Notifications", cfg.Email.Mailbox)
	assert.NotEmpty(t, cfg.Storage.Path)
}

func TestLoadConfigFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
user: bob
dispatch:
  synthetic:
    enabled: true
    interval_sec: 10
redis:
  enabled: true
  addr: redis:6379
email:
  transport: imap
  imap_host: mail.example.com
  to: bob@example.com
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "bob", cfg.User)
	assert.True(t, cfg.Dispatch.Synthetic.Enabled)
	assert.Equal(t, 10, cfg.Dispatch.Synthetic.IntervalSec)
	assert.Equal(t, "redis:6379", cfg.Redis.Addr)
	assert.True(t, cfg.Email.Configured())
	assert.Equal(t, "993", cfg.Email.IMAPPort, "defaults fill unset keys")
}

func TestLoadConfigEnvOverride(t *testing.T) {
	t.Setenv("NOTIFICATIONS_USER", "carol")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "carol", cfg.User)
}

func TestLoadConfigRejectsBrokenYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("user: [unclosed"), 0o600))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestSaveConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	cfg.User = "dave"
	cfg.Redis.Prefix = "jobs"

	require.NoError(t, SaveConfig(path, cfg))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "dave", loaded.User)
	assert.Equal(t, "jobs", loaded.Redis.Prefix)
}

func TestEmailConfigured(t *testing.T) {
	assert.False(t, EmailConfig{}.Configured())
	assert.False(t, EmailConfig{Transport: "smtp", To: "a@b.c"}.Configured())
	assert.True(t, EmailConfig{Transport: "smtp", To: "a@b.c", From: "n@b.c", SMTPHost: "smtp"}.Configured())
}
