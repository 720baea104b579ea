package logger_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dorkmail/logger"
)

func TestNew_WritesToFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "harvest.log")

	log, err := logger.New(logger.Config{Level: "info", Encoding: "json", OutputPaths: []string{path}})
	require.NoError(t, err)

	log.With("session_id", "abc").Info("Downloaded", "url", "https://example.com", "error", errors.New("boom"))
	log.Debug("hidden at info level")
	require.NoError(t, log.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	out := string(data)
	assert.Contains(t, out, `"msg":"Downloaded"`)
	assert.Contains(t, out, `"session_id":"abc"`)
	assert.Contains(t, out, `"url":"https://example.com"`)
	assert.Contains(t, out, `"error":"boom"`)
	assert.NotContains(t, out, "hidden at info level")
}

func TestNew_UnbalancedFields(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "harvest.log")

	log, err := logger.New(logger.Config{Encoding: "json", OutputPaths: []string{path}})
	require.NoError(t, err)

	log.Warn("odd fields", "dangling")
	require.NoError(t, log.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "missing value")
}

func TestNewNop(t *testing.T) {
	t.Parallel()

	log := logger.NewNop()
	log.Error("discarded", "k", 1)
	assert.NotNil(t, log.With("k", "v"))
}
