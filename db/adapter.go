package db

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/kasuganosora/battlecore/config"
	dbmysql "github.com/kasuganosora/battlecore/db/mysql"
	dbsqlite "github.com/kasuganosora/battlecore/db/sqlite"
)

const (
	ModeNone   = "none"
	ModeMemory = "memory"
	ModeSQLite = "sqlite"
	ModeMySQL  = "mysql"
)

// Open returns a *gorm.DB for the configured database mode. ModeNone means
// battles are not persisted and is rejected here; callers check it first.
func Open(cfg config.DatabaseConfig) (*gorm.DB, error) {
	switch cfg.Mode {
	case ModeMemory:
		return dbsqlite.Open(dbsqlite.MemoryPath)
	case ModeSQLite:
		return dbsqlite.Open(cfg.SQLitePath)
	case ModeMySQL:
		return dbmysql.Open(cfg.MySQLDSN, dbmysql.Pool{
			MaxOpen: cfg.MySQLMaxOpen,
			MaxIdle: cfg.MySQLMaxIdle,
			MaxLife: cfg.MySQLMaxLife,
		})
	case ModeNone:
		return nil, fmt.Errorf("db: persistence disabled (mode %q)", cfg.Mode)
	default:
		return nil, fmt.Errorf("db: unknown mode %q", cfg.Mode)
	}
}
