package dispatch

import (
	"context"
	"errors"
	gosync "sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/notification-center/internal/model"
	"github.com/nhle/notification-center/tests/testutil"
)

// sliceChannel delivers a fixed list, then idles until cancelled.
type sliceChannel struct {
	items []model.Notification
}

func (c *sliceChannel) Name() string { return "slice" }

func (c *sliceChannel) Run(ctx context.Context, deliver func(model.Notification)) error {
	for _, n := range c.items {
		deliver(n)
	}
	<-ctx.Done()
	return nil
}

// failingChannel fails every run and counts attempts.
type failingChannel struct {
	runs atomic.Int32
}

func (c *failingChannel) Name() string { return "failing" }

func (c *failingChannel) Run(context.Context, func(model.Notification)) error {
	c.runs.Add(1)
	return errors.New("connection refused")
}

func receive(t *testing.T, d *Dispatcher) model.Notification {
	t.Helper()

	msgCh := make(chan any, 1)
	go func() { msgCh <- d.Next()() }()

	select {
	case msg := <-msgCh:
		nm, ok := msg.(NotificationMsg)
		require.True(t, ok, "expected NotificationMsg, got %T", msg)
		return nm.Notification
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for notification")
		return model.Notification{}
	}
}

func TestDispatcherOwnerFiltering(t *testing.T) {
	d := New("alice", nil)
	defer d.Stop()

	other := testutil.Notification("n1", model.CategoryMessage, false, 0)
	other.Owner = "bob"
	assert.False(t, d.Send(other))

	unaddressed := testutil.Notification("n2", model.CategoryMessage, false, 1)
	unaddressed.Owner = ""
	assert.True(t, d.Send(unaddressed))

	got := receive(t, d)
	assert.Equal(t, "n2", got.ID)
	assert.Equal(t, "alice", got.Owner)
}

func TestDispatcherPreservesSendOrder(t *testing.T) {
	d := New("alice", nil)
	defer d.Stop()

	for _, id := range []string{"a", "b", "c"} {
		require.True(t, d.Send(testutil.Notification(id, model.CategoryOffer, false, 0)))
	}

	assert.Equal(t, "a", receive(t, d).ID)
	assert.Equal(t, "b", receive(t, d).ID)
	assert.Equal(t, "c", receive(t, d).ID)
}

func TestDispatcherStartRunsChannels(t *testing.T) {
	ch := &sliceChannel{items: []model.Notification{
		testutil.Notification("n1", model.CategoryInterview, false, 0),
		testutil.Notification("n2", model.CategoryInterview, false, 1),
	}}
	d := New("alice", nil, ch)
	defer d.Stop()

	cmd := d.Start(context.Background())
	require.NotNil(t, cmd)
	assert.Nil(t, d.Start(context.Background()), "second start is a no-op")

	msg, ok := cmd().(NotificationMsg)
	require.True(t, ok)
	assert.Equal(t, "n1", msg.Notification.ID)
	assert.Equal(t, "n2", receive(t, d).ID)
}

func TestDispatcherStopUnblocksNext(t *testing.T) {
	d := New("alice", nil, &sliceChannel{})
	d.Start(context.Background())

	var wg gosync.WaitGroup
	wg.Add(1)
	var msg any = "unset"
	go func() {
		defer wg.Done()
		msg = d.Next()()
	}()

	d.Stop()
	wg.Wait()
	assert.Nil(t, msg)
	assert.False(t, d.Send(testutil.Notification("late", model.CategorySystem, false, 0)))
	assert.NotPanics(t, d.Stop)
}

func TestDispatcherRestartsFailedChannel(t *testing.T) {
	ch := &failingChannel{}
	d := New("alice", nil, ch)
	d.restarts = 10 * time.Millisecond
	defer d.Stop()

	d.Start(context.Background())

	assert.Eventually(t, func() bool { return ch.runs.Load() >= 3 }, 2*time.Second, 5*time.Millisecond)
}

func TestQueueChannelClaimsOwnRows(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	for i, id := range []string{"q1", "q2", "q3"} {
		require.NoError(t, s.Enqueue(ctx, testutil.Notification(id, model.CategoryApplication, false, i)))
	}
	bobs := testutil.Notification("b1", model.CategoryApplication, false, 0)
	bobs.Owner = "bob"
	require.NoError(t, s.Enqueue(ctx, bobs))

	got := make(chan model.Notification, 8)
	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan error, 1)
	go func() {
		done <- NewQueue(s, "alice", 10*time.Millisecond).Run(runCtx, func(n model.Notification) { got <- n })
	}()

	var ids []string
	for range 3 {
		select {
		case n := <-got:
			ids = append(ids, n.ID)
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for queued notification")
		}
	}
	cancel()
	require.NoError(t, <-done)

	assert.Equal(t, []string{"q1", "q2", "q3"}, ids)

	pending, err := s.PendingCount(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, 1, pending)

	pending, err = s.PendingCount(ctx, "alice")
	require.NoError(t, err)
	assert.Zero(t, pending)
}

func TestSyntheticGenerate(t *testing.T) {
	s := NewSynthetic(time.Minute)
	fixed := testutil.BaseTime
	s.now = func() time.Time { return fixed }

	seen := map[string]bool{}
	for range 50 {
		n := s.Generate()
		assert.NotEmpty(t, n.ID)
		assert.False(t, seen[n.ID], "ids are unique")
		seen[n.ID] = true

		assert.True(t, n.Category.Valid())
		assert.True(t, n.Priority.Valid())
		assert.False(t, n.IsRead)
		assert.Empty(t, n.Owner)
		assert.NotEmpty(t, n.Title)
		assert.Equal(t, fixed, n.CreatedAt)
	}
}

func TestDecodePayload(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		wantErr bool
	}{
		{"valid", `{"id":"x1","category":"offer","priority":"urgent","title":"Offer","createdAt":"2026-03-02T09:00:00Z"}`, false},
		{"not json", `offer!`, true},
		{"missing id", `{"category":"offer"}`, true},
		{"unknown category", `{"id":"x2","category":"newsletter"}`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := decodePayload(tt.payload)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, model.CategoryOffer, n.Category)
			assert.Equal(t, model.PriorityUrgent, n.Priority)
		})
	}

	n, err := decodePayload(`{"id":"x3","category":"system"}`)
	require.NoError(t, err)
	assert.Equal(t, model.PriorityMedium, n.Priority, "missing priority defaults")
}

func TestInboxChannel(t *testing.T) {
	assert.Equal(t, "notifications:inbox:alice", InboxChannel("notifications", "alice"))
}
