package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Log      LogConfig      `mapstructure:"log"`
	Data     DataConfig     `mapstructure:"data"`
	Battle   BattleConfig   `mapstructure:"battle"`
	Sim      SimConfig      `mapstructure:"sim"`
	Database DatabaseConfig `mapstructure:"database"`
	Cache    CacheConfig    `mapstructure:"cache"`
}

type LogConfig struct {
	Debug bool `mapstructure:"debug"`
}

type DataConfig struct {
	Path string `mapstructure:"path"` // directory holding the YAML catalogue
}

type BattleConfig struct {
	Format     int    `mapstructure:"format"` // 1 = single, 2 = double
	Seed       int64  `mapstructure:"seed"`
	MaxTurns   int    `mapstructure:"max_turns"`
	Wild       bool   `mapstructure:"wild"`
	PlayerTeam string `mapstructure:"player_team"`
	EnemyTeam  string `mapstructure:"enemy_team"`
}

type SimConfig struct {
	Runs     int `mapstructure:"runs"`
	Parallel int `mapstructure:"parallel"`
	// EventBuf is the per-battle broadcast queue size.
	EventBuf int `mapstructure:"event_buf"`
}

type DatabaseConfig struct {
	Mode         string        `mapstructure:"mode"` // none | memory | sqlite | mysql
	SQLitePath   string        `mapstructure:"sqlite_path"`
	MySQLDSN     string        `mapstructure:"mysql_dsn"`
	MySQLMaxOpen int           `mapstructure:"mysql_max_open"`
	MySQLMaxIdle int           `mapstructure:"mysql_max_idle"`
	MySQLMaxLife time.Duration `mapstructure:"mysql_max_life"`
	// BatchSize and FlushInterval tune the battle log writer.
	BatchSize     int           `mapstructure:"batch_size"`
	FlushInterval time.Duration `mapstructure:"flush_interval"`
}

type CacheConfig struct {
	RedisAddr       string        `mapstructure:"redis_addr"`
	RedisPassword   string        `mapstructure:"redis_password"`
	RedisDB         int           `mapstructure:"redis_db"`
	LocalGCInterval time.Duration `mapstructure:"local_gc_interval"`
	LocalPubSubBuf  int           `mapstructure:"local_pubsub_buf"`
	SnapshotTTL     time.Duration `mapstructure:"snapshot_ttl"`
}

// Load reads config from the given YAML file path. An empty path yields the
// defaults.
func Load(path string) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("log.debug", false)
	v.SetDefault("data.path", "./data")
	v.SetDefault("battle.format", 1)
	v.SetDefault("battle.seed", 1)
	v.SetDefault("battle.max_turns", 500)
	v.SetDefault("battle.wild", false)
	v.SetDefault("battle.player_team", "starter")
	v.SetDefault("battle.enemy_team", "rival")
	v.SetDefault("sim.runs", 1)
	v.SetDefault("sim.parallel", 4)
	v.SetDefault("sim.event_buf", 256)
	v.SetDefault("database.mode", "none")
	v.SetDefault("database.sqlite_path", "./battles.db")
	v.SetDefault("database.mysql_max_open", 50)
	v.SetDefault("database.mysql_max_idle", 10)
	v.SetDefault("database.mysql_max_life", "1h")
	v.SetDefault("database.batch_size", 16)
	v.SetDefault("database.flush_interval", "500ms")
	v.SetDefault("cache.local_gc_interval", "30s")
	v.SetDefault("cache.local_pubsub_buf", 256)
	v.SetDefault("cache.snapshot_ttl", "24h")

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Battle.Format != 1 && c.Battle.Format != 2 {
		return fmt.Errorf("config: battle.format must be 1 or 2, got %d", c.Battle.Format)
	}
	if c.Sim.Runs < 1 {
		return fmt.Errorf("config: sim.runs must be at least 1, got %d", c.Sim.Runs)
	}
	if c.Sim.Parallel < 1 {
		c.Sim.Parallel = 1
	}
	switch c.Database.Mode {
	case "none", "memory", "sqlite", "mysql":
	default:
		return fmt.Errorf("config: unknown database.mode %q", c.Database.Mode)
	}
	return nil
}
