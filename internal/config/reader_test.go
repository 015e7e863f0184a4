package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvReaderDefaults(t *testing.T) {
	t.Setenv("ENV", EnvDev)
	t.Setenv("REMOTE_BASE_URL", "http://localhost:4000/api")

	cfg, err := NewEnvReader().Read()
	require.NoError(t, err)

	assert.Equal(t, EnvDev, cfg.Env)
	assert.Equal(t, 10*time.Second, cfg.Remote.Timeout)
	assert.Equal(t, CacheDriverFile, cfg.Cache.Driver)
	assert.Equal(t, "tasksync", cfg.Cache.Namespace)
	assert.Equal(t, 15*time.Second, cfg.Sync.MonitorInterval)
	assert.Zero(t, cfg.Sync.MaxAttempts)
	assert.Equal(t, "8080", cfg.HTTP.Port)
}

func TestEnvReaderRequiresBaseURL(t *testing.T) {
	t.Setenv("ENV", EnvDev)
	t.Setenv("REMOTE_BASE_URL", "")
	require.NoError(t, os.Unsetenv("REMOTE_BASE_URL"))

	_, err := NewEnvReader().Read()
	assert.Error(t, err)
}

func TestFileReader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	err := os.WriteFile(path, []byte(`
env: local
remote:
  base_url: http://localhost:4000/api
  timeout: 3s
cache:
  driver: sqlite
  path: /tmp/tasksync.db
sync:
  max_attempts: 5
`), 0o600)
	require.NoError(t, err)

	cfg, err := NewFileReader(path).Read()
	require.NoError(t, err)

	assert.Equal(t, EnvLocal, cfg.Env)
	assert.Equal(t, 3*time.Second, cfg.Remote.Timeout)
	assert.Equal(t, CacheDriverSQLite, cfg.Cache.Driver)
	assert.Equal(t, "/tmp/tasksync.db", cfg.Cache.Path)
	assert.Equal(t, 5, cfg.Sync.MaxAttempts)
}

func TestValidate(t *testing.T) {
	cfg := &Config{Cache: CacheConfig{Driver: "redis"}}
	assert.ErrorIs(t, cfg.Validate(), ErrUnknownCacheDriver)

	cfg = &Config{Cache: CacheConfig{Driver: CacheDriverPostgres}}
	assert.Error(t, cfg.Validate())

	cfg = &Config{Cache: CacheConfig{Driver: CacheDriverMemory}, Sync: SyncConfig{MaxAttempts: -1}}
	assert.Error(t, cfg.Validate())

	cfg = &Config{Cache: CacheConfig{Driver: CacheDriverMemory}}
	assert.NoError(t, cfg.Validate())
}
