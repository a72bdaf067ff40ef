package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, 10, cfg.PollAttempts)
	assert.Equal(t, 500*time.Millisecond, cfg.PollMinInterval)
	assert.Equal(t, time.Second, cfg.PollMaxInterval)
	assert.Equal(t, 5*time.Second, cfg.PushTimeout)
	assert.Equal(t, PushWebSocket, cfg.PushTransport)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("POLL_ATTEMPTS", "3")
	t.Setenv("PUSH_TIMEOUT", "250ms")
	t.Setenv("PUSH_TRANSPORT", PushNATS)

	cfg := Load()

	assert.Equal(t, 3, cfg.PollAttempts)
	assert.Equal(t, 250*time.Millisecond, cfg.PushTimeout)
	assert.Equal(t, PushNATS, cfg.PushTransport)
}

func TestLoadInvalidValuesFallBack(t *testing.T) {
	t.Setenv("POLL_ATTEMPTS", "many")
	t.Setenv("POLL_MAX_INTERVAL", "soon")

	cfg := Load()

	assert.Equal(t, 10, cfg.PollAttempts)
	assert.Equal(t, time.Second, cfg.PollMaxInterval)
}

func TestLoadFileOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "warden.yaml")
	err := os.WriteFile(path, []byte("api_url: http://api.example.com/v1\npoll_attempts: 4\npush_transport: none\n"), 0o600)
	require.NoError(t, err)

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, "http://api.example.com/v1", cfg.APIURL)
	assert.Equal(t, 4, cfg.PollAttempts)
	assert.Equal(t, PushNone, cfg.PushTransport)
	assert.Equal(t, 5*time.Second, cfg.PushTimeout)
}

func TestLoadFileMissing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
