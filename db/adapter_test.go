package db

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kasuganosora/battlecore/config"
)

func TestOpen_Modes(t *testing.T) {
	mem, err := Open(config.DatabaseConfig{Mode: ModeMemory})
	require.NoError(t, err)
	require.NoError(t, mem.Exec("CREATE TABLE t (id INTEGER)").Error)
	require.NoError(t, mem.Exec("INSERT INTO t VALUES (1)").Error)
	var n int64
	require.NoError(t, mem.Raw("SELECT COUNT(*) FROM t").Scan(&n).Error)
	assert.Equal(t, int64(1), n)

	file, err := Open(config.DatabaseConfig{Mode: ModeSQLite, SQLitePath: filepath.Join(t.TempDir(), "b.db")})
	require.NoError(t, err)
	assert.NoError(t, file.Exec("SELECT 1").Error)

	_, err = Open(config.DatabaseConfig{Mode: ModeNone})
	assert.Error(t, err)
	_, err = Open(config.DatabaseConfig{Mode: "embedded_xml"})
	assert.ErrorContains(t, err, "unknown mode")
}
