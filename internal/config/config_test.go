package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DoyleJ11/moodplay-backend/internal/kv"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.CORSOrigins)
	assert.Equal(t, kv.BackendBadger, cfg.Store.Backend)
	assert.False(t, cfg.Suggest.Enabled)
	assert.Equal(t, 50*time.Millisecond, cfg.Games.RollTick)
	assert.Equal(t, 11, cfg.Games.RollTicks)
	assert.Equal(t, time.Second, cfg.Games.ComputerRollWait)
	assert.Equal(t, 500*time.Millisecond, cfg.Games.ComputerMarkWait)
	assert.Equal(t, time.Second, cfg.Games.MismatchHide)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("MOODPLAY_ADDR", ":9999")
	t.Setenv("MOODPLAY_STORE_BACKEND", "memory")
	t.Setenv("MOODPLAY_GAMES_ROLL_TICKS", "3")
	t.Setenv("MOODPLAY_CORS_ORIGINS", "https://a.example,https://b.example")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, ":9999", cfg.Addr)
	assert.Equal(t, kv.BackendMemory, cfg.Store.Backend)
	assert.Equal(t, 3, cfg.Games.RollTicks)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
}

func TestLoad_DotEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("MOODPLAY_SUGGEST_MODEL=test-model\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("MOODPLAY_SUGGEST_MODEL") })

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "test-model", cfg.Suggest.Model)
}

func TestValidate(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	bad := cfg
	bad.LogLevel = "loud"
	bad.Store.Backend = kv.BackendPostgres
	bad.Suggest.Enabled = true
	err = bad.Validate()
	require.ErrorIs(t, err, ErrInvalid)
	assert.Contains(t, err.Error(), "LOG_LEVEL")
	assert.Contains(t, err.Error(), "STORE_POSTGRES_DSN")
	assert.Contains(t, err.Error(), "SUGGEST_API_KEY")

	bad = cfg
	bad.Store.Backend = "etcd"
	assert.ErrorIs(t, bad.Validate(), ErrInvalid)
}
