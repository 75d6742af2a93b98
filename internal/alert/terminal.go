package alert

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	gosync "sync"

	"github.com/mattn/go-isatty"

	"github.com/nhle/notification-center/internal/model"
)

// BellPlayer rings the terminal bell. Terminals have no volume control, so
// any volume above zero rings once and zero stays silent.
type BellPlayer struct {
	mu gosync.Mutex
	w  io.Writer
}

// NewBellPlayer creates a BellPlayer writing to w.
func NewBellPlayer(w io.Writer) *BellPlayer {
	return &BellPlayer{w: w}
}

// Play writes BEL to the terminal.
func (b *BellPlayer) Play(volume int) error {
	if model.ClampVolume(volume) == 0 {
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, err := io.WriteString(b.w, "\a"); err != nil {
		return fmt.Errorf("ringing bell: %w", err)
	}
	return nil
}

// OSCNotifier raises desktop notifications through the OSC 9 escape
// sequence understood by iTerm2, kitty, WezTerm, foot and others.
type OSCNotifier struct {
	mu         gosync.Mutex
	w          io.Writer
	available  bool
	permission model.Permission
}

// NewOSCNotifier creates a notifier writing to f. Notifications are only
// possible when allow is true and f is a terminal.
func NewOSCNotifier(f *os.File, allow bool) *OSCNotifier {
	tty := isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	return newOSCNotifier(f, allow && tty)
}

func newOSCNotifier(w io.Writer, available bool) *OSCNotifier {
	perm := model.PermissionDefault
	if !available {
		perm = model.PermissionDenied
	}
	return &OSCNotifier{w: w, available: available, permission: perm}
}

// Permission returns the current permission state.
func (o *OSCNotifier) Permission() model.Permission {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.permission
}

// RequestPermission grants the permission when the terminal supports it.
// A denied state is final for the session.
func (o *OSCNotifier) RequestPermission(_ context.Context) (model.Permission, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.permission == model.PermissionDefault && o.available {
		o.permission = model.PermissionGranted
	}
	return o.permission, nil
}

// Show writes the notification as an OSC 9 sequence.
func (o *OSCNotifier) Show(n model.Notification) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.permission != model.PermissionGranted {
		return ErrPermissionDenied
	}

	text := sanitizeOSC(n.Title)
	if body := sanitizeOSC(n.Body); body != "" {
		text += ": " + body
	}

	if _, err := fmt.Fprintf(o.w, "\x1b]9;%s\x07", text); err != nil {
		return fmt.Errorf("writing system notification: %w", err)
	}
	return nil
}

// sanitizeOSC strips control characters that would terminate or corrupt
// the escape sequence.
func sanitizeOSC(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f {
			return ' '
		}
		return r
	}, strings.TrimSpace(s))
}
