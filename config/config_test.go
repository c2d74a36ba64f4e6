package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 1, cfg.Battle.Format)
	assert.Equal(t, 500, cfg.Battle.MaxTurns)
	assert.Equal(t, "none", cfg.Database.Mode)
	assert.Equal(t, time.Hour, cfg.Database.MySQLMaxLife)
	assert.Equal(t, 500*time.Millisecond, cfg.Database.FlushInterval)
	assert.Equal(t, 24*time.Hour, cfg.Cache.SnapshotTTL)
}

func TestLoad_SampleFile(t *testing.T) {
	cfg, err := Load("config.yaml")
	require.NoError(t, err)
	assert.True(t, cfg.Log.Debug)
	assert.Equal(t, "sqlite", cfg.Database.Mode)
	assert.Equal(t, 8, cfg.Sim.Runs)
	assert.Equal(t, "starter", cfg.Battle.PlayerTeam)
	assert.Empty(t, cfg.Cache.RedisAddr)
}

func TestLoad_Overrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "c.yaml")
	require.NoError(t, os.WriteFile(path, []byte("battle:\n  format: 2\n  seed: 99\nsim:\n  parallel: 0\n"), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Battle.Format)
	assert.Equal(t, int64(99), cfg.Battle.Seed)
	assert.Equal(t, 1, cfg.Sim.Parallel, "parallel is clamped")
	assert.Equal(t, "rival", cfg.Battle.EnemyTeam, "unset keys keep defaults")
}

func TestLoad_Invalid(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")
	assert.Error(t, err)

	dir := t.TempDir()
	for name, body := range map[string]string{
		"format.yaml": "battle:\n  format: 3\n",
		"runs.yaml":   "sim:\n  runs: 0\n",
		"mode.yaml":   "database:\n  mode: embedded_xml\n",
	} {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(body), 0644))
		_, err := Load(path)
		assert.Error(t, err, name)
	}
}
