package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/kasuganosora/battlecore/battlelog"
	"github.com/kasuganosora/battlecore/broadcast"
	"github.com/kasuganosora/battlecore/cache"
	"github.com/kasuganosora/battlecore/config"
	dbadapter "github.com/kasuganosora/battlecore/db"
	"github.com/kasuganosora/battlecore/game/attr"
	"github.com/kasuganosora/battlecore/game/battle"
	"github.com/kasuganosora/battlecore/model"
	"github.com/kasuganosora/battlecore/resource"
	"github.com/kasuganosora/battlecore/sim"
)

func main() {
	cfgPath := flag.String("config", "config/config.yaml", "path to the config file")
	runs := flag.Int("runs", 0, "override sim.runs")
	seed := flag.Int64("seed", 0, "override battle.seed")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if *runs > 0 {
		cfg.Sim.Runs = *runs
	}
	if *seed != 0 {
		cfg.Battle.Seed = *seed
	}

	// ---- Logger ----
	var logger *zap.Logger
	var logErr error
	if cfg.Log.Debug {
		logger, logErr = zap.NewDevelopment()
	} else {
		logger, logErr = zap.NewProduction()
	}
	if logErr != nil {
		log.Fatalf("logger: %v", logErr)
	}
	defer logger.Sync()

	// ---- Catalogue ----
	res := resource.NewLoader(cfg.Data.Path)
	if err := res.Load(); err != nil {
		logger.Fatal("resource load failed", zap.String("path", cfg.Data.Path), zap.Error(err))
	}
	registry := attr.NewRegistry()
	if err := battle.CompileCatalog(registry, res.Data, res.Data.MoveIDs(), res.Data.AbilityIDs()); err != nil {
		logger.Fatal("compile catalogue failed", zap.Error(err))
	}
	logger.Info("catalogue loaded",
		zap.Int("moves", len(res.Moves)),
		zap.Int("abilities", len(res.Abilities)),
		zap.Int("species", len(res.Species)),
		zap.Strings("teams", res.TeamNames()))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ---- Database ----
	var logSvc *battlelog.Service
	if cfg.Database.Mode != dbadapter.ModeNone {
		db, err := dbadapter.Open(cfg.Database)
		if err != nil {
			logger.Fatal("db open failed", zap.String("mode", cfg.Database.Mode), zap.Error(err))
		}
		if err := model.AutoMigrate(db); err != nil {
			logger.Fatal("db migrate failed", zap.Error(err))
		}
		logSvc = battlelog.New(db, logger, battlelog.Options{
			BatchSize:     cfg.Database.BatchSize,
			FlushInterval: cfg.Database.FlushInterval,
		})
		defer logSvc.Stop(context.Background())
		logger.Info("DB initialized", zap.String("mode", cfg.Database.Mode))
	}

	// ---- Cache / PubSub ----
	backend, err := cache.New(cfg.Cache)
	if err != nil {
		logger.Fatal("cache init failed", zap.Error(err))
	}
	defer func() {
		if err := backend.Close(); err != nil {
			logger.Warn("cache close failed", zap.Error(err))
		}
	}()
	pub := broadcast.New(backend.Cache, backend.PubSub, logger, broadcast.Options{
		QueueSize:   cfg.Sim.EventBuf * cfg.Sim.Parallel,
		SnapshotTTL: cfg.Cache.SnapshotTTL,
	})
	defer pub.Stop(context.Background())
	logger.Info("Cache initialized", zap.Bool("redis", cfg.Cache.RedisAddr != ""))

	// ---- Simulation ----
	runner := &sim.Runner{
		Loader:        res,
		Attrs:         registry,
		Battle:        cfg.Battle,
		Sim:           cfg.Sim,
		Log:           logSvc,
		Publisher:     pub,
		Logger:        logger,
		ProgressEvery: 5 * time.Second,
	}
	report, err := runner.Run(ctx)
	if err != nil {
		logger.Error("simulation failed", zap.Error(err))
		return
	}

	counts := report.Counts()
	fields := []zap.Field{
		zap.Int("battles", len(report.Outcomes)),
		zap.Float64("avg_turns", report.AverageTurns()),
		zap.Duration("elapsed", report.Elapsed),
		zap.Int64("events_dropped", pub.Dropped()),
	}
	for r := battle.ResultVictory; r <= battle.ResultDraw; r++ {
		fields = append(fields, zap.Int(r.String(), counts[r]))
	}
	logger.Info("simulation complete", fields...)
}
