package dispatch

import (
	"context"
	"errors"
	gosync "sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/nhle/notification-center/internal/model"
)

// NotificationMsg is a tea.Msg carrying one delivered notification. The
// receiver appends it to the feed and calls Next to keep listening.
type NotificationMsg struct {
	Notification model.Notification
}

// Channel is a source of fully-formed notifications. Run blocks until ctx
// is cancelled or the transport fails, calling deliver once per
// notification in send order.
type Channel interface {
	Name() string
	Run(ctx context.Context, deliver func(model.Notification)) error
}

const (
	// bufferSize bounds how far channels can run ahead of the UI loop.
	bufferSize = 64

	// restartDelay is the pause before a failed channel is run again.
	restartDelay = 5 * time.Second
)

// Dispatcher fans registered channels into a single ordered stream that
// the Bubble Tea loop consumes one message at a time.
type Dispatcher struct {
	owner    string
	logger   *zap.Logger
	channels []Channel

	out  chan model.Notification
	done chan struct{}

	mu       gosync.Mutex
	cancel   context.CancelFunc
	wg       gosync.WaitGroup
	running  bool
	stopped  bool
	restarts time.Duration
}

// New creates a Dispatcher for owner's session.
func New(owner string, logger *zap.Logger, channels ...Channel) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		owner:    owner,
		logger:   logger,
		channels: channels,
		out:      make(chan model.Notification, bufferSize),
		done:     make(chan struct{}),
		restarts: restartDelay,
	}
}

// Owner returns the session owner notifications are addressed to.
func (d *Dispatcher) Owner() string {
	return d.owner
}

// Start runs every channel in its own goroutine and returns the command
// that waits for the first notification. Calling Start twice is a no-op.
func (d *Dispatcher) Start(ctx context.Context) tea.Cmd {
	d.mu.Lock()
	if d.running || d.stopped {
		d.mu.Unlock()
		return nil
	}
	d.running = true
	ctx, d.cancel = context.WithCancel(ctx)
	d.mu.Unlock()

	for _, ch := range d.channels {
		d.wg.Add(1)
		go d.run(ctx, ch)
	}

	return d.Next()
}

// Stop cancels every channel and unblocks any pending Next.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	d.stopped = true
	d.running = false
	cancel := d.cancel
	d.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	close(d.done)
	d.wg.Wait()
}

// Send delivers n to the stream. Notifications for another owner are
// dropped, and an empty owner is filled with the session owner. Send
// blocks while the buffer is full and reports false once stopped.
func (d *Dispatcher) Send(n model.Notification) bool {
	if n.Owner == "" {
		n.Owner = d.owner
	}
	if n.Owner != d.owner {
		d.logger.Debug("dropping notification for another owner",
			zap.String("id", n.ID),
			zap.String("owner", n.Owner),
		)
		return false
	}

	select {
	case <-d.done:
		return false
	default:
	}

	select {
	case d.out <- n:
		return true
	case <-d.done:
		return false
	}
}

// Next returns a tea.Cmd that waits for the next notification. It
// yields nil once the dispatcher is stopped.
func (d *Dispatcher) Next() tea.Cmd {
	return func() tea.Msg {
		select {
		case n := <-d.out:
			return NotificationMsg{Notification: n}
		case <-d.done:
			return nil
		}
	}
}

// run keeps ch running until ctx ends, restarting it after failures.
func (d *Dispatcher) run(ctx context.Context, ch Channel) {
	defer d.wg.Done()

	deliver := func(n model.Notification) { d.Send(n) }

	for {
		err := ch.Run(ctx, deliver)
		if ctx.Err() != nil {
			return
		}
		if err != nil && !errors.Is(err, context.Canceled) {
			d.logger.Warn("channel failed",
				zap.String("channel", ch.Name()),
				zap.Error(err),
			)
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(d.restarts):
		}
	}
}
