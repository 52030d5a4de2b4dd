package relayconfig

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadServerDefaults(t *testing.T) {
	cfg := LoadServer()
	require.Equal(t, 8080, cfg.Port)
	require.Equal(t, 30, cfg.RetentionDays)
	require.Equal(t, "0.0.0.0:8080", cfg.Addr())
}

func TestLoadServerReadsEnv(t *testing.T) {
	t.Setenv("RELAY_HOST", "127.0.0.1")
	t.Setenv("RELAY_PORT", "9090")
	t.Setenv("RELAY_RETENTION_DAYS", "7")
	t.Setenv("RELAY_REQUEST_TIMEOUT", "2s")

	cfg := LoadServer()
	require.Equal(t, "127.0.0.1:9090", cfg.Addr())
	require.Equal(t, 7, cfg.RetentionDays)
	require.Equal(t, 2*time.Second, cfg.RequestTimeout)
}

func TestLoadServerIgnoresInvalidInt(t *testing.T) {
	t.Setenv("RELAY_PORT", "not-a-number")
	cfg := LoadServer()
	require.Equal(t, 8080, cfg.Port)
}
