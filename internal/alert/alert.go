// Package alert holds the best-effort side effects fired when a
// notification arrives: an audio cue, a system notification, and
// preference-gated delivery channels such as push and instant email.
package alert

import (
	"context"
	"errors"

	"github.com/nhle/notification-center/internal/model"
)

// ErrPermissionDenied is returned by Show when the platform refuses
// system notifications.
var ErrPermissionDenied = errors.New("system notification permission not granted")

// SoundPlayer plays a short tone at volume 0-100.
type SoundPlayer interface {
	Play(volume int) error
}

// SystemNotifier wraps the platform notification API. Permission reports
// the current state; RequestPermission may prompt and returns the result.
type SystemNotifier interface {
	Permission() model.Permission
	RequestPermission(ctx context.Context) (model.Permission, error)
	Show(n model.Notification) error
}

// Effect is an extra delivery channel run for every appended
// notification. Implementations decide from prefs whether to act.
type Effect interface {
	Name() string
	OnAppend(ctx context.Context, n model.Notification, prefs model.Preferences) error
}

// NopSound never plays anything.
type NopSound struct{}

// Play does nothing.
func (NopSound) Play(int) error { return nil }

// NopSystem is a notifier whose permission is always denied.
type NopSystem struct{}

// Permission always reports denied.
func (NopSystem) Permission() model.Permission { return model.PermissionDenied }

// RequestPermission always reports denied.
func (NopSystem) RequestPermission(context.Context) (model.Permission, error) {
	return model.PermissionDenied, nil
}

// Show always fails with ErrPermissionDenied.
func (NopSystem) Show(model.Notification) error { return ErrPermissionDenied }
