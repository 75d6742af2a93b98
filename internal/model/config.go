package model

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// StorageConfig locates the local SQLite database.
type StorageConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

// LogConfig controls the file logger. The terminal belongs to the UI, so
// logs never go to stdout.
type LogConfig struct {
	Path  string `mapstructure:"path" yaml:"path"`
	Level string `mapstructure:"level" yaml:"level"`
}

// DisplayConfig holds UI/rendering preferences.
type DisplayConfig struct {
	Theme string `mapstructure:"theme" yaml:"theme"`
}

// SyntheticConfig configures the demo event generator.
type SyntheticConfig struct {
	Enabled     bool `mapstructure:"enabled" yaml:"enabled"`
	IntervalSec int  `mapstructure:"interval_sec" yaml:"interval_sec"`
}

// QueueConfig configures polling of the local pending-notification queue.
type QueueConfig struct {
	Enabled         bool `mapstructure:"enabled" yaml:"enabled"`
	PollIntervalSec int  `mapstructure:"poll_interval_sec" yaml:"poll_interval_sec"`
}

// DispatchConfig selects the channels that feed the dispatcher.
type DispatchConfig struct {
	Synthetic SyntheticConfig `mapstructure:"synthetic" yaml:"synthetic"`
	Queue     QueueConfig     `mapstructure:"queue" yaml:"queue"`
}

// RedisConfig configures the push transport.
type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled" yaml:"enabled"`
	Addr     string `mapstructure:"addr" yaml:"addr"`
	Password string `mapstructure:"password" yaml:"password"`
	DB       int    `mapstructure:"db" yaml:"db"`
	Prefix   string `mapstructure:"prefix" yaml:"prefix"`
}

// SystemAlertConfig gates OS-level notifications.
type SystemAlertConfig struct {
	Allow bool `mapstructure:"allow" yaml:"allow"`
}

// AlertsConfig groups side-effect settings that are not user preferences.
type AlertsConfig struct {
	System SystemAlertConfig `mapstructure:"system" yaml:"system"`
}

// EmailConfig holds mail transport settings. The password is kept in the
// system keyring, never in this file.
type EmailConfig struct {
	// Transport is "smtp" or "imap".
	Transport string `mapstructure:"transport" yaml:"transport"`
	From      string `mapstructure:"from" yaml:"from"`
	To        string `mapstructure:"to" yaml:"to"`
	SMTPHost  string `mapstructure:"smtp_host" yaml:"smtp_host"`
	SMTPPort  string `mapstructure:"smtp_port" yaml:"smtp_port"`
	IMAPHost  string `mapstructure:"imap_host" yaml:"imap_host"`
	IMAPPort  string `mapstructure:"imap_port" yaml:"imap_port"`
	Username  string `mapstructure:"username" yaml:"username"`
	Mailbox   string `mapstructure:"mailbox" yaml:"mailbox"`
	TLS       bool   `mapstructure:"tls" yaml:"tls"`
}

// Configured reports whether enough is set to attempt delivery.
func (e EmailConfig) Configured() bool {
	if e.To == "" {
		return false
	}
	switch e.Transport {
	case "smtp":
		return e.SMTPHost != "" && e.From != ""
	case "imap":
		return e.IMAPHost != ""
	}
	return false
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	User     string         `mapstructure:"user" yaml:"user"`
	Storage  StorageConfig  `mapstructure:"storage" yaml:"storage"`
	Log      LogConfig      `mapstructure:"log" yaml:"log"`
	Display  DisplayConfig  `mapstructure:"display" yaml:"display"`
	Dispatch DispatchConfig `mapstructure:"dispatch" yaml:"dispatch"`
	Redis    RedisConfig    `mapstructure:"redis" yaml:"redis"`
	Alerts   AlertsConfig   `mapstructure:"alerts" yaml:"alerts"`
	Email    EmailConfig    `mapstructure:"email" yaml:"email"`
}

// configDir returns ~/.config/notifications, or "." without a home dir.
func configDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "notifications")
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/notifications/config.yaml.
func DefaultConfigPath() string {
	return filepath.Join(configDir(), "config.yaml")
}

// defaultUser is the OS user name, used when no user is configured.
func defaultUser() string {
	if u := os.Getenv("USER"); u != "" {
		return u
	}
	return "local"
}

// setDefaults registers every default on v so missing keys resolve.
func setDefaults(v *viper.Viper) {
	dir := configDir()
	v.SetDefault("user", defaultUser())
	v.SetDefault("storage.path", filepath.Join(dir, "notifications.db"))
	v.SetDefault("log.path", filepath.Join(dir, "notifications.log"))
	v.SetDefault("log.level", "info")
	v.SetDefault("display.theme", "default")
	v.SetDefault("dispatch.synthetic.enabled", false)
	v.SetDefault("dispatch.synthetic.interval_sec", 45)
	v.SetDefault("dispatch.queue.enabled", true)
	v.SetDefault("dispatch.queue.poll_interval_sec", 2)
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.prefix", "notifications")
	v.SetDefault("alerts.system.allow", true)
	v.SetDefault("email.transport", "smtp")
	v.SetDefault("email.smtp_port", "587")
	v.SetDefault("email.imap_port", "993")
	v.SetDefault("email.mailbox", "Notifications")
	v.SetDefault("email.tls", true)
}

// newViper builds a viper instance bound to path with defaults and
// NOTIFICATIONS_* environment overrides.
func newViper(path string) *viper.Viper {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("notifications")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// If the file does not exist, defaults (plus environment overrides) apply.
func LoadConfig(path string) (*AppConfig, error) {
	v := newViper(path)

	if err := v.ReadInConfig(); err != nil {
		var pathErr *os.PathError
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &pathErr) && !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	cfg := &AppConfig{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if cfg.User == "" {
		cfg.User = defaultUser()
	}
	if cfg.Dispatch.Synthetic.IntervalSec <= 0 {
		cfg.Dispatch.Synthetic.IntervalSec = 45
	}
	if cfg.Dispatch.Queue.PollIntervalSec <= 0 {
		cfg.Dispatch.Queue.PollIntervalSec = 2
	}

	return cfg, nil
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("user", cfg.User)
	v.Set("storage", cfg.Storage)
	v.Set("log", cfg.Log)
	v.Set("display", cfg.Display)
	v.Set("dispatch", cfg.Dispatch)
	v.Set("redis", cfg.Redis)
	v.Set("alerts", cfg.Alerts)
	v.Set("email", cfg.Email)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
