package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdir switches the working directory for the duration of the test (testing.T.Chdir needs Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}

func TestLoad_Defaults(t *testing.T) {
	chdir(t, t.TempDir())
	for _, key := range []string{
		"REMOTE_DRIVER", "MIRROR_DRIVER", "SUPABASE_URL", "SUPABASE_ANON_KEY", "DATABASE_URL",
		"DB_HOST", "DB_PORT", "DB_NAME", "DB_USER", "DB_PASSWORD", "DB_SSLMODE",
		"SERVER_HOST", "SERVER_PORT", "MIRROR_KEY_PREFIX", "REMOTE_TIMEOUT_SECONDS", "MONITOR_INTERVAL_SECONDS",
		"JWT_ISSUER", "APP_ENV", "STORE_IDLE_TTL", "STORE_SWEEP_INTERVAL",
	} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, RemoteREST, cfg.Remote.Driver)
	assert.Equal(t, MirrorBolt, cfg.Mirror.Driver)
	assert.Equal(t, "lucid", cfg.Mirror.KeyPrefix)
	assert.Equal(t, 10*time.Second, cfg.Remote.Timeout)
	assert.Equal(t, 30*time.Second, cfg.Monitor.Interval)
	assert.False(t, cfg.RESTConfigured())
	assert.Empty(t, cfg.Database.URL)
	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, "0.0.0.0:8080", cfg.Address())
	assert.Empty(t, cfg.JWT.Issuer)
	assert.Equal(t, 30*time.Minute, cfg.Store.IdleTTL)
	assert.Equal(t, 5*time.Minute, cfg.Store.SweepInterval)
	assert.Equal(t, "development", cfg.Environment)
}

func TestLoad_FromEnvironment(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("REMOTE_DRIVER", "rest")
	t.Setenv("SUPABASE_URL", "https://project.supabase.co")
	t.Setenv("SUPABASE_ANON_KEY", "anon")
	t.Setenv("REMOTE_TIMEOUT_SECONDS", "3")
	t.Setenv("MIRROR_DRIVER", "redis")
	t.Setenv("MONITOR_INTERVAL_SECONDS", "1m")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.RESTConfigured())
	assert.Equal(t, 3*time.Second, cfg.Remote.Timeout)
	assert.Equal(t, MirrorRedis, cfg.Mirror.Driver)
	assert.Equal(t, time.Minute, cfg.Monitor.Interval)
}

func TestLoad_RejectsUnknownDrivers(t *testing.T) {
	chdir(t, t.TempDir())

	t.Setenv("REMOTE_DRIVER", "firebase")
	_, err := Load()
	assert.ErrorContains(t, err, "REMOTE_DRIVER")

	t.Setenv("REMOTE_DRIVER", "none")
	t.Setenv("MIRROR_DRIVER", "sqlite")
	_, err = Load()
	assert.ErrorContains(t, err, "MIRROR_DRIVER")
}
