package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/example/storefront/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWritesToConfiguredPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")

	log, err := New(config.LogConfig{Level: "debug", Encoding: "json", OutputPaths: []string{path}})
	require.NoError(t, err)

	log.Debug("order shipped")
	require.NoError(t, log.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"order shipped"`)
	assert.Contains(t, string(data), `"level":"debug"`)
}

func TestNewRejectsBadSettings(t *testing.T) {
	_, err := New(config.LogConfig{Level: "loud"})
	assert.ErrorContains(t, err, "invalid log level")

	_, err = New(config.LogConfig{Encoding: "xml"})
	assert.ErrorContains(t, err, "invalid log encoding")
}

func TestNewDefaults(t *testing.T) {
	log, err := New(config.LogConfig{Encoding: "console", OutputPaths: []string{filepath.Join(t.TempDir(), "x.log")}})
	require.NoError(t, err)
	assert.NotNil(t, log)
}
