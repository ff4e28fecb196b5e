package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"VAUDIO_HOME",
		"VAUDIO_BRIDGE_SOCKET",
		"VAUDIO_BRIDGE_WORKERS",
		"VAUDIO_BRIDGE_DEBUG",
		"VAUDIO_BRIDGE_LOG_FILE",
		"VAUDIO_BRIDGE_CALL_TIMEOUT",
		"VAUDIO_BRIDGE_WRITE_TIMEOUT",
		"VAUDIO_BRIDGE_MAX_MESSAGE_SIZE",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 0, cfg.Workers)
	assert.False(t, cfg.Debug)
	assert.Equal(t, 5*time.Second, cfg.CallTimeout)
	assert.Equal(t, 10*time.Second, cfg.WriteTimeout)
	assert.Equal(t, 4<<20, cfg.MaxMessageSize)
}

func TestLoad_FromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("VAUDIO_HOME", "/srv/vaudio")
	t.Setenv("VAUDIO_BRIDGE_SOCKET", "/run/vaudio.sock")
	t.Setenv("VAUDIO_BRIDGE_WORKERS", "3")
	t.Setenv("VAUDIO_BRIDGE_DEBUG", "true")
	t.Setenv("VAUDIO_BRIDGE_CALL_TIMEOUT", "250ms")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "/srv/vaudio", cfg.Home)
	assert.Equal(t, "/run/vaudio.sock", cfg.Socket)
	assert.Equal(t, 3, cfg.Workers)
	assert.True(t, cfg.Debug)
	assert.Equal(t, 250*time.Millisecond, cfg.CallTimeout)
}

func TestLoad_Errors(t *testing.T) {
	t.Run("unparsable", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("VAUDIO_BRIDGE_WORKERS", "many")
		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "parse env:")
	})
	t.Run("negative", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("VAUDIO_BRIDGE_WORKERS", "-1")
		_, err := Load()
		assert.ErrorContains(t, err, "workers")
	})
}
