package broadcast

import (
	"context"
	"encoding/json"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kasuganosora/battlecore/cache"
	"github.com/kasuganosora/battlecore/config"
	"github.com/kasuganosora/battlecore/game/battle"
	"github.com/kasuganosora/battlecore/testutil"
)

func nop() *zap.Logger { return zap.NewNop() }

func note(seq, turn int, evt battle.BattleEvent) battle.Notification {
	return battle.Notification{BattleID: "b1", Seq: seq, Turn: turn, Event: evt}
}

func TestPublisher_PublishesInOrder(t *testing.T) {
	c, ps := testutil.SetupTestCache(t)
	ctx := context.Background()

	envs, cancel, err := Watch(ctx, ps, "b1")
	require.NoError(t, err)
	defer cancel()

	p := New(c, ps, nop(), Options{})
	p.Notify(note(1, 0, battle.EventTurnStart{Turn: 1}))
	p.Notify(note(2, 1, battle.EventTurnEnd{Turn: 1}))
	p.Notify(note(3, 1, battle.EventBattleEnd{Result: battle.ResultVictory, Turns: 1}))
	p.Stop(ctx)

	var got []Envelope
	for len(got) < 3 {
		select {
		case env := <-envs:
			got = append(got, env)
		case <-time.After(time.Second):
			t.Fatalf("received %d of 3 envelopes", len(got))
		}
	}
	for i, env := range got {
		assert.Equal(t, i+1, env.Seq)
		assert.Equal(t, "b1", env.BattleID)
	}
	assert.Equal(t, "turn_start", got[0].Type)
	assert.JSONEq(t, `{"result":1,"turns":1}`, string(got[2].Event))

	status, err := c.HGetAll(ctx, StatusKey("b1"))
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"seq": "3", "turn": "1", "type": "battle_end", "result": "victory"}, status)
}

func TestPublisher_NotifyNeverBlocks(t *testing.T) {
	c, ps := testutil.SetupTestCache(t)
	p := &Publisher{cache: c, pubsub: ps, ch: make(chan battle.Notification, 1), stopCh: make(chan struct{}), logger: nop()}

	done := make(chan struct{})
	go func() {
		for i := 1; i <= 5; i++ {
			p.Notify(note(i, 1, battle.EventTurnEnd{Turn: 1}))
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Notify blocked on a full queue")
	}
	assert.Equal(t, int64(4), p.Dropped())
}

func TestPublisher_StoreSnapshot(t *testing.T) {
	c, ps := testutil.SetupTestCache(t)
	ctx := context.Background()
	p := New(c, ps, nop(), Options{SnapshotTTL: time.Minute})
	defer p.Stop(ctx)

	require.NoError(t, p.StoreSnapshot(ctx, battle.BattleSnapshot{ID: "b1", Seed: 9, Turn: 4, Result: battle.ResultDraw}),
		"status hash may not exist yet")
	require.NoError(t, p.StoreSnapshot(ctx, battle.BattleSnapshot{ID: "b2", Turn: 2}))

	snap, err := p.LoadSnapshot(ctx, "b1")
	require.NoError(t, err)
	assert.Equal(t, int64(9), snap.Seed)
	assert.Equal(t, 4, snap.Turn)
	assert.Equal(t, battle.ResultDraw, snap.Result)

	recent, err := c.LRange(ctx, RecentKey, 0, -1)
	require.NoError(t, err)
	assert.Equal(t, []string{"b2", "b1"}, recent)

	_, err = p.LoadSnapshot(ctx, "missing")
	assert.Error(t, err)
}

// A whole battle streamed through the publisher arrives complete.
func TestPublisher_AsBattleSink(t *testing.T) {
	c, ps := testutil.SetupTestCache(t)
	ctx := context.Background()
	p := New(c, ps, nop(), Options{})

	d := battle.NewStaticData()
	d.AddMove(&battle.MoveData{ID: 1, Name: "Tackle", Type: battle.TypeNormal, Category: battle.CategoryPhysical, Power: 40, Accuracy: 100, PP: 35})
	d.AddSpecies(&battle.SpeciesData{ID: 1, Name: "Normie", Types: []battle.Type{battle.TypeNormal},
		BaseStats: [battle.PermanentStats]int{80, 80, 80, 80, 80, 80}})

	b, err := battle.NewBattle(battle.BattleConfig{ID: "live", Data: d, Logger: nop(), Seed: 1, Sink: p})
	require.NoError(t, err)
	for _, side := range []battle.Side{battle.SidePlayer, battle.SideEnemy} {
		_, err := b.AddCombatant(side, battle.CombatantConfig{SpeciesID: 1, Moves: []int{1},
			Stats: [battle.PermanentStats]int{40, 50, 50, 50, 50, 50 + int(side)}})
		require.NoError(t, err)
	}

	envs, cancel, err := Watch(ctx, ps, "live")
	require.NoError(t, err)
	defer cancel()

	require.NoError(t, b.Start())
	require.NoError(t, b.RunToNextDecisionPoint(ctx))
	p.Stop(ctx)

	want := len(b.ActionLog())
	var last Envelope
	for i := 0; i < want; i++ {
		select {
		case last = <-envs:
			assert.Equal(t, i+1, last.Seq)
		case <-time.After(time.Second):
			t.Fatalf("received %d of %d envelopes", i, want)
		}
	}
	assert.Equal(t, "battle_end", last.Type)
	assert.Zero(t, p.Dropped())
}

// A watcher nobody reads from must still shut down on cancel.
func TestWatch_CancelWithoutReader(t *testing.T) {
	backend, err := cache.New(config.CacheConfig{LocalPubSubBuf: 2})
	require.NoError(t, err)
	defer backend.Close()
	ctx := context.Background()
	before := runtime.NumGoroutine()

	_, cancel, err := Watch(ctx, backend.PubSub, "idle")
	require.NoError(t, err)
	for i := 1; i <= 20; i++ {
		env, err := json.Marshal(Envelope{BattleID: "idle", Seq: i, Type: "turn_end", Event: json.RawMessage(`{}`)})
		require.NoError(t, err)
		require.NoError(t, backend.PubSub.Publish(ctx, Channel("idle"), string(env)))
	}
	time.Sleep(20 * time.Millisecond)
	cancel()

	assert.Eventually(t, func() bool { return runtime.NumGoroutine() <= before },
		time.Second, 10*time.Millisecond, "watch goroutines still running")
}

func TestWatch_ContextEndsStream(t *testing.T) {
	_, ps := testutil.SetupTestCache(t)
	ctx, cancel := context.WithCancel(context.Background())
	envs, stop, err := Watch(ctx, ps, "b1")
	require.NoError(t, err)
	defer stop()

	cancel()
	select {
	case _, ok := <-envs:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("stream still open after context cancel")
	}
}
