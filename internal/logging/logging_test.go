package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWritesJSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "app.log")

	logger, err := New(path, "debug")
	require.NoError(t, err)
	logger.Debug("hydrated feed")
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"hydrated feed"`)
}

func TestNewEmptyPathIsNop(t *testing.T) {
	logger, err := New("", "info")
	require.NoError(t, err)
	assert.NotNil(t, logger)
}
