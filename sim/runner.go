package sim

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kasuganosora/battlecore/battlelog"
	"github.com/kasuganosora/battlecore/broadcast"
	"github.com/kasuganosora/battlecore/config"
	"github.com/kasuganosora/battlecore/game/attr"
	"github.com/kasuganosora/battlecore/game/battle"
	"github.com/kasuganosora/battlecore/resource"
)

// ErrStalled is returned when an AI-driven battle stops without a result.
var ErrStalled = errors.New("sim: battle waiting for a decision")

// Outcome is the result of one simulated battle.
type Outcome struct {
	BattleID string
	Seed     int64
	Result   battle.Result
	Turns    int
	Events   int
}

// Report aggregates a simulation run.
type Report struct {
	Outcomes []Outcome
	Elapsed  time.Duration
}

// Counts tallies outcomes by result.
func (r *Report) Counts() map[battle.Result]int {
	out := make(map[battle.Result]int)
	for _, o := range r.Outcomes {
		out[o.Result]++
	}
	return out
}

// AverageTurns is the mean battle length, or 0 for an empty report.
func (r *Report) AverageTurns() float64 {
	if len(r.Outcomes) == 0 {
		return 0
	}
	total := 0
	for _, o := range r.Outcomes {
		total += o.Turns
	}
	return float64(total) / float64(len(r.Outcomes))
}

// Runner plays seeded AI-vs-AI battles concurrently. Log and Publisher are
// optional.
type Runner struct {
	Loader    *resource.ResourceLoader
	Attrs     *attr.Registry // nil = each battle compiles its own
	Battle    config.BattleConfig
	Sim       config.SimConfig
	Log       *battlelog.Service
	Publisher *broadcast.Publisher
	Logger    *zap.Logger

	// ProgressEvery logs a progress line at this interval. 0 disables it.
	ProgressEvery time.Duration
}

// Run plays Sim.Runs battles with seeds Battle.Seed+i, at most Sim.Parallel at
// a time. The first failing battle cancels the rest.
func (r *Runner) Run(ctx context.Context) (*Report, error) {
	logger := r.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	player, err := r.Loader.Team(r.Battle.PlayerTeam)
	if err != nil {
		return nil, fmt.Errorf("player team: %w", err)
	}
	enemy, err := r.Loader.Team(r.Battle.EnemyTeam)
	if err != nil {
		return nil, fmt.Errorf("enemy team: %w", err)
	}

	runs := r.Sim.Runs
	if runs < 1 {
		runs = 1
	}
	parallel := r.Sim.Parallel
	if parallel < 1 {
		parallel = 1
	}

	start := time.Now()
	outcomes := make([]Outcome, runs)
	var done atomic.Int64

	stopProgress := r.startProgress(logger, &done, runs)
	defer stopProgress()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(parallel)
	for i := 0; i < runs; i++ {
		seed := r.Battle.Seed + int64(i)
		g.Go(func() error {
			o, err := r.runOne(gctx, logger, seed, player, enemy)
			if err != nil {
				return fmt.Errorf("seed %d: %w", seed, err)
			}
			outcomes[i] = o
			done.Add(1)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.SliceStable(outcomes, func(a, b int) bool { return outcomes[a].Seed < outcomes[b].Seed })
	return &Report{Outcomes: outcomes, Elapsed: time.Since(start)}, nil
}

func (r *Runner) runOne(ctx context.Context, logger *zap.Logger, seed int64, player, enemy []battle.CombatantConfig) (Outcome, error) {
	rec := &battle.RecorderSink{}
	sink := battle.MultiSink{rec}
	if r.Publisher != nil {
		sink = append(sink, r.Publisher)
	}

	b, err := battle.NewBattle(battle.BattleConfig{
		Data:     r.Loader.Data,
		Logger:   logger,
		Seed:     seed,
		Attrs:    r.Attrs,
		Sink:     sink,
		Format:   battle.Format(r.Battle.Format),
		Wild:     r.Battle.Wild,
		MaxTurns: r.Battle.MaxTurns,
	})
	if err != nil {
		return Outcome{}, err
	}
	for _, c := range player {
		if _, err := b.AddCombatant(battle.SidePlayer, c); err != nil {
			return Outcome{}, err
		}
	}
	for _, c := range enemy {
		if _, err := b.AddCombatant(battle.SideEnemy, c); err != nil {
			return Outcome{}, err
		}
	}

	startedAt := time.Now()
	if err := b.Start(); err != nil {
		return Outcome{}, err
	}
	if err := b.RunToNextDecisionPoint(ctx); err != nil {
		return Outcome{}, err
	}
	if b.Result() == battle.ResultNone {
		return Outcome{}, ErrStalled
	}

	if r.Log != nil && !r.Log.Save(battlelog.SummaryOf(b, startedAt, rec.Notes)) {
		logger.Warn("battle log queue full, record dropped", zap.String("battle_id", b.ID()))
	}
	if r.Publisher != nil {
		if err := r.Publisher.StoreSnapshot(ctx, b.Snapshot()); err != nil {
			logger.Warn("store snapshot failed", zap.String("battle_id", b.ID()), zap.Error(err))
		}
	}

	return Outcome{
		BattleID: b.ID(),
		Seed:     seed,
		Result:   b.Result(),
		Turns:    b.Turn(),
		Events:   len(rec.Notes),
	}, nil
}

// startProgress logs completed/total on a ticker until the returned func is
// called.
func (r *Runner) startProgress(logger *zap.Logger, done *atomic.Int64, total int) func() {
	if r.ProgressEvery <= 0 {
		return func() {}
	}
	ticker := time.NewTicker(r.ProgressEvery)
	stopCh := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-ticker.C:
				logger.Info("sim progress", zap.Int64("done", done.Load()), zap.Int("total", total))
			case <-stopCh:
				ticker.Stop()
				return
			}
		}
	}()
	return func() {
		close(stopCh)
		wg.Wait()
	}
}
