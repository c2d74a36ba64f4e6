package battle

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// duel is a one-on-one field with a bench slot on each side.
func duel(t *testing.T, seed int64, player, enemy int) (*Battle, *RecorderSink) {
	t.Helper()
	return fieldBattle(t, BattleConfig{Seed: seed},
		[]CombatantConfig{mon(player, 160, 60, moveTackle), mon(speciesNormal, 160, 60, moveTackle)},
		[]CombatantConfig{mon(enemy, 160, 50, moveTackle), mon(speciesNormal, 160, 50, moveTackle)})
}

func TestStatus_SleepBlocksAtLeastOneMove(t *testing.T) {
	for seed := int64(1); seed <= 40; seed++ {
		b, _ := duel(t, seed, speciesNormal, speciesNormal)
		p := b.Active(SlotPlayer)
		require.True(t, b.trySetStatus(p, StatusSleep, b.Active(SlotEnemy)))
		assert.GreaterOrEqual(t, p.statusTurns, 2, "seed %d", seed)
		assert.LessOrEqual(t, p.statusTurns, 4, "seed %d", seed)

		blocked := 0
		for !b.statusAllowsMove(p) {
			blocked++
			require.Less(t, blocked, 10, "seed %d never woke", seed)
		}
		assert.GreaterOrEqual(t, blocked, 1, "seed %d", seed)
		assert.LessOrEqual(t, blocked, 3, "seed %d", seed)
		assert.Equal(t, StatusNone, p.Status())
	}
}

func TestStatus_MoveCancel(t *testing.T) {
	tests := []struct {
		name        string
		status      StatusEffect
		curedOnPass bool
	}{
		{"freeze thaws when it lets the move through", StatusFreeze, true},
		{"paralysis stays after a move goes through", StatusParalysis, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, rec := duel(t, 5, speciesNormal, speciesNormal)
			p := b.Active(SlotPlayer)

			passed, blocked := 0, 0
			for i := 0; i < 200; i++ {
				p.status = tt.status
				p.turn = TurnData{}
				if b.statusAllowsMove(p) {
					passed++
					assert.False(t, p.turn.Cancelled)
					if tt.curedOnPass {
						assert.Equal(t, StatusNone, p.Status())
					} else {
						assert.Equal(t, tt.status, p.Status())
					}
					continue
				}
				blocked++
				assert.True(t, p.turn.Cancelled)
				assert.Equal(t, tt.status, p.Status())
			}
			assert.Positive(t, passed)
			assert.Positive(t, blocked)

			cancels := eventsOf[EventMoveCancelled](rec)
			require.Len(t, cancels, blocked)
			for _, e := range cancels {
				assert.Equal(t, tt.status.String(), e.Reason)
			}
		})
	}
}

func TestResidual_StatusDamage(t *testing.T) {
	tests := []struct {
		name   string
		status StatusEffect
		hp     []int
	}{
		{"burn takes a sixteenth", StatusBurn, []int{150, 140, 130}},
		{"poison takes an eighth", StatusPoison, []int{140, 120, 100}},
		{"toxic escalates", StatusToxic, []int{150, 130, 100}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, _ := duel(t, 1, speciesNormal, speciesNormal)
			p, e := b.Active(SlotPlayer), b.Active(SlotEnemy)
			p.status = tt.status

			for i, want := range tt.hp {
				require.NoError(t, (&PostTurnStatusPhase{b: b}).Run(nil))
				assert.Equal(t, want, p.HP(), "tick %d", i+1)
			}
			assert.Equal(t, e.MaxHP(), e.HP())
		})
	}
}

func TestResidual_ToxicCounterResetsOnSwitch(t *testing.T) {
	b, _ := duel(t, 1, speciesNormal, speciesNormal)
	p := b.Active(SlotPlayer)
	p.status = StatusToxic

	tick := func() { require.NoError(t, (&PostTurnStatusPhase{b: b}).Run(nil)) }
	tick()
	tick()
	require.Equal(t, 130, p.HP())
	require.Equal(t, 2, p.statusTurns)

	b.withdraw(p)
	assert.Zero(t, p.statusTurns)
	assert.Equal(t, StatusToxic, p.Status())
	b.summon(p, SlotPlayer)

	tick()
	assert.Equal(t, 120, p.HP(), "back to a sixteenth")
}

func TestWeather_ChipDamage(t *testing.T) {
	tests := []struct {
		name    string
		weather WeatherType
		species int
		want    int
	}{
		{"sandstorm chips normal", WeatherSandstorm, speciesNormal, 150},
		{"sandstorm spares rock", WeatherSandstorm, speciesRock, 160},
		{"sandstorm spares ground", WeatherSandstorm, speciesGround, 160},
		{"sandstorm spares steel", WeatherSandstorm, speciesSteel, 160},
		{"hail chips normal", WeatherHail, speciesNormal, 150},
		{"hail spares ice", WeatherHail, speciesIce, 160},
		{"hail chips rock", WeatherHail, speciesRock, 150},
		{"rain does not chip", WeatherRain, speciesNormal, 160},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, _ := duel(t, 1, tt.species, speciesNormal)
			require.True(t, b.field.SetWeather(tt.weather, 5))
			require.NoError(t, (&WeatherPhase{b: b}).Run(nil))

			assert.Equal(t, tt.want, b.Active(SlotPlayer).HP())
			assert.Equal(t, 4, b.field.Weather().TurnsLeft)
		})
	}
}

func TestTerrain_GrassyHealsGrounded(t *testing.T) {
	b, rec := duel(t, 1, speciesNormal, speciesFlyer)
	p, e := b.Active(SlotPlayer), b.Active(SlotEnemy)
	p.setHP(100)
	e.setHP(100)

	require.True(t, b.field.SetTerrain(TerrainGrassy, 5))
	require.NoError(t, (&WeatherPhase{b: b}).Run(nil))

	assert.Equal(t, 110, p.HP())
	assert.Equal(t, 100, e.HP(), "the flyer is not grounded")
	heals := eventsOf[EventHeal](rec)
	require.Len(t, heals, 1)
	assert.Equal(t, SourceTerrain, heals[0].Source)
}

func TestTerrain_BlocksStatus(t *testing.T) {
	tests := []struct {
		name    string
		terrain TerrainType
		status  StatusEffect
		species int
		want    bool
	}{
		{"misty blocks burn", TerrainMisty, StatusBurn, speciesNormal, false},
		{"misty blocks sleep", TerrainMisty, StatusSleep, speciesNormal, false},
		{"misty blocks poison", TerrainMisty, StatusPoison, speciesNormal, false},
		{"misty misses the airborne", TerrainMisty, StatusBurn, speciesFlyer, true},
		{"electric blocks sleep", TerrainElectric, StatusSleep, speciesNormal, false},
		{"electric allows poison", TerrainElectric, StatusPoison, speciesNormal, true},
		{"electric misses the airborne", TerrainElectric, StatusSleep, speciesFlyer, true},
		{"no terrain", TerrainNone, StatusSleep, speciesNormal, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, _ := duel(t, 1, tt.species, speciesNormal)
			if tt.terrain != TerrainNone {
				require.True(t, b.field.SetTerrain(tt.terrain, 5))
			}
			p := b.Active(SlotPlayer)

			assert.Equal(t, tt.want, b.trySetStatus(p, tt.status, b.Active(SlotEnemy)))
			if !tt.want {
				assert.Equal(t, StatusNone, p.Status())
			}
		})
	}
}

func TestTerrain_MistyBlocksConfusion(t *testing.T) {
	b, _ := duel(t, 1, speciesNormal, speciesNormal)
	require.True(t, b.field.SetTerrain(TerrainMisty, 5))

	assert.False(t, b.tags.Add(b.Active(SlotPlayer), TagConfused, 3, AddOptions{}))
}

func TestHazard_StealthRockScalesWithEffectiveness(t *testing.T) {
	tests := []struct {
		name    string
		species int
		want    int
	}{
		{"neutral takes an eighth", speciesNormal, 140},
		{"weak takes a quarter", speciesFire, 120},
		{"airborne is still hit", speciesFlyer, 120},
		{"resistant takes a sixteenth", speciesGround, 150},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, _ := fieldBattle(t, BattleConfig{Seed: 1},
				[]CombatantConfig{mon(speciesNormal, 160, 60, moveTackle)},
				[]CombatantConfig{mon(speciesNormal, 160, 50, moveTackle), mon(tt.species, 160, 50, moveTackle)})
			require.True(t, b.field.AddTag(ArenaStealthRock, 0, 0, 1, ArenaEnemy))

			in := b.parties[SideEnemy][1]
			b.withdraw(b.Active(SlotEnemy))
			b.summon(in, SlotEnemy)

			assert.Equal(t, tt.want, in.HP())
			assert.True(t, b.field.HasTag(ArenaStealthRock, ArenaEnemy))
		})
	}
}

func TestHazard_ToxicSpikes(t *testing.T) {
	tests := []struct {
		name     string
		layers   int
		species  int
		want     StatusEffect
		tagStays bool
	}{
		{"one layer poisons", 1, speciesNormal, StatusPoison, true},
		{"two layers badly poison", 2, speciesNormal, StatusToxic, true},
		{"grounded poison type absorbs", 2, speciesPoison, StatusNone, false},
		{"airborne is untouched", 1, speciesFlyer, StatusNone, true},
		{"steel is immune but leaves them", 1, speciesSteel, StatusNone, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, _ := fieldBattle(t, BattleConfig{Seed: 1},
				[]CombatantConfig{mon(speciesNormal, 160, 60, moveTackle)},
				[]CombatantConfig{mon(speciesNormal, 160, 50, moveTackle), mon(tt.species, 160, 50, moveTackle)})
			for i := 0; i < tt.layers; i++ {
				require.True(t, b.field.AddTag(ArenaToxicSpikes, 0, 0, 1, ArenaEnemy))
			}
			require.Equal(t, tt.layers, b.field.GetTag(ArenaToxicSpikes, ArenaEnemy).Layers)

			in := b.parties[SideEnemy][1]
			b.withdraw(b.Active(SlotEnemy))
			b.summon(in, SlotEnemy)

			assert.Equal(t, tt.want, in.Status())
			assert.Equal(t, tt.tagStays, b.field.HasTag(ArenaToxicSpikes, ArenaEnemy))
		})
	}
}

func TestSafeguard_BlocksOpposingStatus(t *testing.T) {
	tests := []struct {
		name   string
		source func(b *Battle) *Combatant
		want   bool
	}{
		{"opponent", func(b *Battle) *Combatant { return b.Active(SlotEnemy) }, false},
		{"ally", func(b *Battle) *Combatant { return b.parties[SidePlayer][1] }, true},
		{"no source", func(*Battle) *Combatant { return nil }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, _ := duel(t, 1, speciesNormal, speciesNormal)
			require.True(t, b.field.AddTag(ArenaSafeguard, 5, 0, 1, ArenaPlayer))
			p := b.Active(SlotPlayer)

			assert.Equal(t, tt.want, b.trySetStatus(p, StatusParalysis, tt.source(b)))
		})
	}

	t.Run("other side is not covered", func(t *testing.T) {
		b, _ := duel(t, 1, speciesNormal, speciesNormal)
		require.True(t, b.field.AddTag(ArenaSafeguard, 5, 0, 1, ArenaPlayer))
		assert.True(t, b.trySetStatus(b.Active(SlotEnemy), StatusBurn, b.Active(SlotPlayer)))
	})
}

func TestMist_BlocksOpposingDrops(t *testing.T) {
	tests := []struct {
		name   string
		source func(b *Battle) *Combatant
		delta  int
		want   int
	}{
		{"opposing drop", func(b *Battle) *Combatant { return b.Active(SlotEnemy) }, -1, 0},
		{"opposing raise", func(b *Battle) *Combatant { return b.Active(SlotEnemy) }, 1, 1},
		{"own drop", func(b *Battle) *Combatant { return b.Active(SlotPlayer) }, -1, -1},
		{"no source", func(*Battle) *Combatant { return nil }, -2, -2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, _ := duel(t, 1, speciesNormal, speciesNormal)
			require.True(t, b.field.AddTag(ArenaMist, 5, 0, 1, ArenaPlayer))
			p := b.Active(SlotPlayer)

			ph := &StatStageChangePhase{b: b, target: p, source: tt.source(b), stats: []Stat{StatAtk, StatDef}, delta: tt.delta}
			require.NoError(t, ph.Run(nil))
			assert.Equal(t, tt.want, p.Stage(StatAtk))
			assert.Equal(t, tt.want, p.Stage(StatDef))
		})
	}
}

func TestRage_Lapses(t *testing.T) {
	tests := []struct {
		name string
		cmd  *TurnCommand
		kept bool
	}{
		{"same move keeps it", &TurnCommand{Kind: CommandFight, MoveID: moveRage}, true},
		{"another move ends it", &TurnCommand{Kind: CommandFight, MoveID: moveTackle}, false},
		{"switching ends it", &TurnCommand{Kind: CommandSwitch}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, rec, p, _ := tagBattle(t)
			require.True(t, b.tags.Add(p, TagRage, Indefinite, AddOptions{SourceMove: moveRage, Source: p}))

			b.tags.Lapse(p.id, LapseAfterHit)
			assert.Equal(t, 1, p.Stage(StatAtk))
			require.Len(t, eventsOf[EventTagActivated](rec), 1)

			p.turn.Command = tt.cmd
			b.tags.Lapse(p.id, LapsePreMove)
			assert.Equal(t, tt.kept, b.tags.Has(p.id, TagRage))
			assert.False(t, p.turn.Cancelled)
		})
	}
}

func TestBattle_RageBuildsOnEachHit(t *testing.T) {
	ctx := context.Background()
	b, _ := newTestBattle(t, BattleConfig{Seed: 4},
		[]CombatantConfig{mon(speciesNormal, 400, 80, moveRage)},
		[]CombatantConfig{mon(speciesNormal, 400, 50, moveTackle)})
	require.NoError(t, b.Start())
	p := b.Party(SidePlayer)[0]

	require.NoError(t, b.RunTurn(ctx))
	assert.True(t, b.tags.Has(p.id, TagRage))
	assert.Equal(t, 1, p.Stage(StatAtk))

	require.NoError(t, b.RunTurn(ctx))
	assert.Equal(t, 2, p.Stage(StatAtk))
}

func TestRecharging_LastsUntilTheNextMove(t *testing.T) {
	b, rec, p, _ := tagBattle(t)
	require.True(t, b.tags.Add(p, TagRecharging, 1, AddOptions{SourceMove: moveHyperBeam, Source: p}))

	b.tags.Lapse(p.id, LapseTurnEnd)
	require.True(t, b.tags.Has(p.id, TagRecharging), "the turn it was used on does not count")

	b.tags.Lapse(p.id, LapsePreMove)
	assert.True(t, p.turn.Cancelled)
	assert.False(t, b.tags.Has(p.id, TagRecharging))
	cancels := eventsOf[EventMoveCancelled](rec)
	require.Len(t, cancels, 1)
	assert.Equal(t, TagRecharging.String(), cancels[0].Reason)
}

func TestBattle_RechargeSkipsTheNextTurn(t *testing.T) {
	ctx := context.Background()
	b, rec := newTestBattle(t, BattleConfig{Seed: 2},
		[]CombatantConfig{mon(speciesNormal, 300, 80, moveHyperBeam)},
		[]CombatantConfig{mon(speciesNormal, 999, 50, moveSplash)})
	require.NoError(t, b.Start())
	p, e := b.Party(SidePlayer)[0], b.Party(SideEnemy)[0]

	require.NoError(t, b.RunTurn(ctx))
	require.Less(t, e.HP(), e.MaxHP())
	assert.True(t, b.tags.Has(p.id, TagRecharging), "still set after the attack turn ends")
	assert.Equal(t, 4, p.Moves()[0].PP)
	hpAfterBeam := e.HP()

	require.NoError(t, b.RunTurn(ctx))
	assert.Equal(t, hpAfterBeam, e.HP())
	assert.False(t, b.tags.Has(p.id, TagRecharging))
	assert.Equal(t, 4, p.Moves()[0].PP, "recharging costs no PP")
	cancels := eventsOf[EventMoveCancelled](rec)
	require.Len(t, cancels, 1)
	assert.Equal(t, TagRecharging.String(), cancels[0].Reason)

	require.NoError(t, b.RunTurn(ctx))
	assert.Less(t, e.HP(), hpAfterBeam)
	assert.Equal(t, 3, p.Moves()[0].PP)
}
