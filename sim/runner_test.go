package sim

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kasuganosora/battlecore/battlelog"
	"github.com/kasuganosora/battlecore/broadcast"
	"github.com/kasuganosora/battlecore/config"
	"github.com/kasuganosora/battlecore/game/attr"
	"github.com/kasuganosora/battlecore/game/battle"
	"github.com/kasuganosora/battlecore/resource"
	"github.com/kasuganosora/battlecore/testutil"
)

func loadCatalogue(t *testing.T) (*resource.ResourceLoader, *attr.Registry) {
	t.Helper()
	rl := resource.NewLoader(filepath.Join("..", "data"))
	require.NoError(t, rl.Load())
	r := attr.NewRegistry()
	require.NoError(t, battle.CompileCatalog(r, rl.Data, rl.Data.MoveIDs(), rl.Data.AbilityIDs()))
	return rl, r
}

func newRunner(t *testing.T, runs, parallel int) *Runner {
	t.Helper()
	rl, reg := loadCatalogue(t)
	return &Runner{
		Loader: rl,
		Attrs:  reg,
		Battle: config.BattleConfig{
			Format:     1,
			Seed:       42,
			MaxTurns:   200,
			PlayerTeam: "starter",
			EnemyTeam:  "rival",
		},
		Sim:    config.SimConfig{Runs: runs, Parallel: parallel},
		Logger: zap.NewNop(),
	}
}

func TestRunner_Deterministic(t *testing.T) {
	ctx := context.Background()
	a, err := newRunner(t, 4, 4).Run(ctx)
	require.NoError(t, err)
	b, err := newRunner(t, 4, 1).Run(ctx)
	require.NoError(t, err)

	require.Len(t, a.Outcomes, 4)
	require.Len(t, b.Outcomes, 4)
	for i := range a.Outcomes {
		oa, ob := a.Outcomes[i], b.Outcomes[i]
		assert.Equal(t, int64(42+i), oa.Seed)
		assert.NotEqual(t, battle.ResultNone, oa.Result)
		assert.Equal(t, oa.Seed, ob.Seed)
		assert.Equal(t, oa.Result, ob.Result, "seed %d", oa.Seed)
		assert.Equal(t, oa.Turns, ob.Turns, "seed %d", oa.Seed)
		assert.Equal(t, oa.Events, ob.Events, "seed %d", oa.Seed)
		assert.NotEqual(t, oa.BattleID, ob.BattleID)
	}
}

func TestRunner_DoubleBattles(t *testing.T) {
	r := newRunner(t, 2, 2)
	r.Battle.Format = 2
	rep, err := r.Run(context.Background())
	require.NoError(t, err)
	for _, o := range rep.Outcomes {
		assert.NotEqual(t, battle.ResultNone, o.Result)
	}
}

func TestRunner_PersistsAndBroadcasts(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	c, ps := testutil.SetupTestCache(t)
	svc := battlelog.New(db, zap.NewNop(), battlelog.Options{BatchSize: 2, FlushInterval: 10 * time.Millisecond})
	pub := broadcast.New(c, ps, zap.NewNop(), broadcast.Options{QueueSize: 1 << 16})

	r := newRunner(t, 3, 2)
	r.Log = svc
	r.Publisher = pub
	rep, err := r.Run(ctx)
	require.NoError(t, err)
	svc.Stop(ctx)
	pub.Stop(ctx)
	require.Zero(t, pub.Dropped())

	recent, err := c.LRange(ctx, broadcast.RecentKey, 0, -1)
	require.NoError(t, err)
	assert.Len(t, recent, 3)

	for _, o := range rep.Outcomes {
		rec, err := svc.Load(ctx, o.BattleID)
		require.NoError(t, err)
		assert.Equal(t, o.Seed, rec.Seed)
		assert.Equal(t, o.Result.String(), rec.Result)
		assert.Equal(t, o.Turns, rec.Turns)
		assert.Len(t, rec.Actions, o.Events)
		assert.Contains(t, recent, o.BattleID)

		snap, err := pub.LoadSnapshot(ctx, o.BattleID)
		require.NoError(t, err)
		assert.Equal(t, o.BattleID, snap.ID)

		status, err := c.HGetAll(ctx, broadcast.StatusKey(o.BattleID))
		require.NoError(t, err)
		assert.Equal(t, o.Result.String(), status["result"])
	}
}

func TestRunner_UnknownTeam(t *testing.T) {
	r := newRunner(t, 1, 1)
	r.Battle.EnemyTeam = "nobody"
	_, err := r.Run(context.Background())
	assert.ErrorIs(t, err, battle.ErrNotFound)
}

func TestRunner_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newRunner(t, 2, 1).Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunner_Progress(t *testing.T) {
	r := newRunner(t, 2, 1)
	r.ProgressEvery = time.Millisecond
	_, err := r.Run(context.Background())
	assert.NoError(t, err)
}

func TestReport_Counts(t *testing.T) {
	rep := &Report{Outcomes: []Outcome{
		{Result: battle.ResultVictory, Turns: 4},
		{Result: battle.ResultVictory, Turns: 6},
		{Result: battle.ResultDraw, Turns: 11},
	}}
	assert.Equal(t, map[battle.Result]int{battle.ResultVictory: 2, battle.ResultDraw: 1}, rep.Counts())
	assert.Equal(t, 7.0, rep.AverageTurns())
	assert.Zero(t, (&Report{}).AverageTurns())
}
