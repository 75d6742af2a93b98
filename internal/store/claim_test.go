package store

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/nhle/notification-center/internal/model"
)

func TestClaimLogsAndDropsUndecodableRows(t *testing.T) {
	ctx := context.Background()
	s, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	defer s.Close()

	core, logs := observer.New(zapcore.WarnLevel)
	s.SetLogger(zap.New(core))

	good := model.Notification{
		ID:        "ok",
		Category:  model.CategorySystem,
		Priority:  model.PriorityLow,
		Title:     "fine",
		CreatedAt: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC),
		Owner:     "alice",
	}
	payload, err := json.Marshal(good)
	require.NoError(t, err)

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO pending_notifications (id, owner, payload) VALUES
		('bad', 'alice', '{not json'),
		('ok', 'alice', ?)`, string(payload))
	require.NoError(t, err)

	claimed, err := s.Claim(ctx, "alice", 10)
	require.NoError(t, err)
	require.Len(t, claimed, 1)
	assert.Equal(t, "ok", claimed[0].ID)

	left, err := s.PendingCount(ctx, "alice")
	require.NoError(t, err)
	assert.Zero(t, left)

	entries := logs.FilterMessage("dropping undecodable pending notification").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "alice", entries[0].ContextMap()["owner"])
}

func TestSetLoggerNilSilences(t *testing.T) {
	s, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	defer s.Close()

	s.SetLogger(nil)
	assert.NotNil(t, s.logger)
}
