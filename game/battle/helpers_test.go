package battle

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func nop() *zap.Logger { return zap.NewNop() }

const (
	moveTackle = iota + 1
	moveQuickAttack
	moveEmber
	moveProtect
	moveTrickRoom
	moveThunderWave
	moveFutureSight
	moveWish
	moveSwordsDance
	moveSolarBeam
	moveSpikes
	moveFakeOut
	moveRecover
	moveSubstitute
	moveConfuseRay
	moveSplash
	moveLeechSeed
	moveRage
	moveHyperBeam
)

const (
	abilityPlain = iota + 1
	abilitySereneGrace
	abilityShieldDust
	abilityLevitate
	abilitySpeedBoost
	abilityIntimidate
	abilityMagicGuard
)

const (
	speciesNormal = iota + 1
	speciesFire
	speciesGrass
	speciesGhost
	speciesFlyer
	speciesRock
	speciesGround
	speciesSteel
	speciesIce
	speciesPoison
)

const (
	itemPotion = iota + 1
	itemScarf
)

func newTestData() *StaticData {
	d := NewStaticData()

	moves := []*MoveData{
		{ID: moveTackle, Name: "Tackle", Type: TypeNormal, Category: CategoryPhysical, Power: 40, Accuracy: 100, PP: 35, Flags: FlagContact},
		{ID: moveQuickAttack, Name: "Quick Attack", Type: TypeNormal, Category: CategoryPhysical, Power: 40, Accuracy: 100, PP: 30, Priority: 1, Flags: FlagContact},
		{ID: moveEmber, Name: "Ember", Type: TypeFire, Category: CategorySpecial, Power: 40, Accuracy: 100, PP: 25, EffectChance: 10,
			Attrs: []AttrSpec{{Name: "status_effect", Params: AttrParams{"status": "burn"}}}},
		{ID: moveProtect, Name: "Protect", Type: TypeNormal, Category: CategoryStatus, PP: 10, Priority: 4, EffectChance: -1, Target: TargetUser,
			Attrs: []AttrSpec{{Name: "protect"}}},
		{ID: moveTrickRoom, Name: "Trick Room", Type: TypePsychic, Category: CategoryStatus, PP: 5, Priority: -7, EffectChance: -1, Target: TargetBothSides,
			Attrs: []AttrSpec{{Name: "add_arena_tag", Params: AttrParams{"tag": "trick_room", "side": "both"}}}},
		{ID: moveThunderWave, Name: "Thunder Wave", Type: TypeElectric, Category: CategoryStatus, Accuracy: 90, PP: 20, EffectChance: -1,
			Attrs: []AttrSpec{{Name: "status_effect", Params: AttrParams{"status": "paralysis"}}}},
		{ID: moveFutureSight, Name: "Future Sight", Type: TypePsychic, Category: CategorySpecial, Power: 120, Accuracy: 100, PP: 10,
			Attrs: []AttrSpec{{Name: "delayed_attack"}}},
		{ID: moveWish, Name: "Wish", Type: TypeNormal, Category: CategoryStatus, PP: 10, EffectChance: -1, Target: TargetUser,
			Attrs: []AttrSpec{{Name: "wish"}}},
		{ID: moveSwordsDance, Name: "Swords Dance", Type: TypeNormal, Category: CategoryStatus, PP: 20, EffectChance: -1, Target: TargetUser,
			Attrs: []AttrSpec{{Name: "stat_stage_change", Params: AttrParams{"stats": "atk", "delta": "2", "self": "true"}}}},
		{ID: moveSolarBeam, Name: "Solar Beam", Type: TypeGrass, Category: CategorySpecial, Power: 120, Accuracy: 100, PP: 10,
			Attrs: []AttrSpec{{Name: "charge", Params: AttrParams{"skip_weather": "sunny"}}}},
		{ID: moveSpikes, Name: "Spikes", Type: TypeGround, Category: CategoryStatus, PP: 20, EffectChance: -1, Target: TargetOpponentSide,
			Attrs: []AttrSpec{{Name: "add_arena_tag", Params: AttrParams{"tag": "spikes", "side": "opponent"}}}},
		{ID: moveFakeOut, Name: "Fake Out", Type: TypeNormal, Category: CategoryPhysical, Power: 40, Accuracy: 100, PP: 10, Priority: 3, Flags: FlagContact,
			Attrs: []AttrSpec{{Name: "first_turn_only"}}},
		{ID: moveRecover, Name: "Recover", Type: TypeNormal, Category: CategoryStatus, PP: 5, EffectChance: -1, Target: TargetUser,
			Attrs: []AttrSpec{{Name: "heal", Params: AttrParams{"ratio": "0.5"}}}},
		{ID: moveSubstitute, Name: "Substitute", Type: TypeNormal, Category: CategoryStatus, PP: 10, EffectChance: -1, Target: TargetUser,
			Attrs: []AttrSpec{{Name: "substitute"}}},
		{ID: moveConfuseRay, Name: "Confuse Ray", Type: TypeGhost, Category: CategoryStatus, Accuracy: 100, PP: 10, EffectChance: -1,
			Attrs: []AttrSpec{{Name: "add_battler_tag", Params: AttrParams{"tag": "confused", "min_turns": "2", "max_turns": "5"}}}},
		{ID: moveSplash, Name: "Splash", Type: TypeNormal, Category: CategoryStatus, PP: 40, Target: TargetUser},
		{ID: moveLeechSeed, Name: "Leech Seed", Type: TypeGrass, Category: CategoryStatus, Accuracy: 90, PP: 10, EffectChance: -1,
			Attrs: []AttrSpec{{Name: "add_battler_tag", Params: AttrParams{"tag": "seeded"}}}},
		{ID: moveRage, Name: "Rage", Type: TypeNormal, Category: CategoryPhysical, Power: 20, Accuracy: 100, PP: 20, Flags: FlagContact,
			Attrs: []AttrSpec{{Name: "add_battler_tag", Params: AttrParams{"tag": "rage", "self": "true"}}}},
		{ID: moveHyperBeam, Name: "Hyper Beam", Type: TypeNormal, Category: CategorySpecial, Power: 150, Accuracy: 100, PP: 5,
			Attrs: []AttrSpec{{Name: "add_battler_tag", Params: AttrParams{"tag": "recharging", "self": "true", "min_turns": "1"}}}},
	}
	for _, m := range moves {
		d.AddMove(m)
	}

	d.AddAbility(&AbilityData{ID: abilityPlain, Name: "Plain"})
	d.AddAbility(&AbilityData{ID: abilitySereneGrace, Name: "Serene Grace",
		Attrs: []AttrSpec{{Name: "effect_chance_multiplier", Params: AttrParams{"multiplier": "2"}}}})
	d.AddAbility(&AbilityData{ID: abilityShieldDust, Name: "Shield Dust",
		Attrs: []AttrSpec{{Name: "ignore_move_effects"}}})
	d.AddAbility(&AbilityData{ID: abilityLevitate, Name: "Levitate",
		Attrs: []AttrSpec{{Name: "type_immunity", Params: AttrParams{"type": "ground", "airborne": "true"}}}})
	d.AddAbility(&AbilityData{ID: abilitySpeedBoost, Name: "Speed Boost",
		Attrs: []AttrSpec{{Name: "post_turn_stat_stage", Params: AttrParams{"stats": "spd"}}}})
	d.AddAbility(&AbilityData{ID: abilityIntimidate, Name: "Intimidate",
		Attrs: []AttrSpec{{Name: "post_summon_stat_stage", Params: AttrParams{"stats": "atk"}}}})
	d.AddAbility(&AbilityData{ID: abilityMagicGuard, Name: "Magic Guard",
		Attrs: []AttrSpec{{Name: "block_indirect_damage"}}})

	base := [PermanentStats]int{80, 80, 80, 80, 80, 80}
	d.AddSpecies(&SpeciesData{ID: speciesNormal, Name: "Normie", Types: []Type{TypeNormal}, BaseStats: base, Abilities: []int{abilityPlain}})
	d.AddSpecies(&SpeciesData{ID: speciesFire, Name: "Flamy", Types: []Type{TypeFire}, BaseStats: base, Abilities: []int{abilityPlain}})
	d.AddSpecies(&SpeciesData{ID: speciesGrass, Name: "Leafy", Types: []Type{TypeGrass}, BaseStats: base, Abilities: []int{abilityPlain}})
	d.AddSpecies(&SpeciesData{ID: speciesGhost, Name: "Spooky", Types: []Type{TypeGhost}, BaseStats: base, Abilities: []int{abilityPlain}})
	d.AddSpecies(&SpeciesData{ID: speciesFlyer, Name: "Birdy", Types: []Type{TypeNormal, TypeFlying}, BaseStats: base, Abilities: []int{abilityPlain}})
	d.AddSpecies(&SpeciesData{ID: speciesRock, Name: "Pebble", Types: []Type{TypeRock}, BaseStats: base, Abilities: []int{abilityPlain}})
	d.AddSpecies(&SpeciesData{ID: speciesGround, Name: "Muddy", Types: []Type{TypeGround}, BaseStats: base, Abilities: []int{abilityPlain}})
	d.AddSpecies(&SpeciesData{ID: speciesSteel, Name: "Bolt", Types: []Type{TypeSteel}, BaseStats: base, Abilities: []int{abilityPlain}})
	d.AddSpecies(&SpeciesData{ID: speciesIce, Name: "Frosty", Types: []Type{TypeIce}, BaseStats: base, Abilities: []int{abilityPlain}})
	d.AddSpecies(&SpeciesData{ID: speciesPoison, Name: "Sludgy", Types: []Type{TypePoison}, BaseStats: base, Abilities: []int{abilityPlain}})

	d.AddItem(&ItemData{ID: itemPotion, Name: "Potion", Kind: ItemMedicine, HealAmount: 20, Cures: []StatusEffect{StatusPoison}})
	d.AddItem(&ItemData{ID: itemScarf, Name: "Scarf", Kind: ItemHeld, StatMultipliers: map[Stat]float64{StatSpd: 1.5}})

	d.SetEffectiveness(TypeNormal, TypeGhost, 0)
	d.SetEffectiveness(TypeGhost, TypeNormal, 0)
	d.SetEffectiveness(TypeFire, TypeGrass, 2)
	d.SetEffectiveness(TypeFire, TypeFire, 0.5)
	d.SetEffectiveness(TypeGrass, TypeFire, 0.5)
	d.SetEffectiveness(TypeElectric, TypeGround, 0)
	d.SetEffectiveness(TypeRock, TypeFire, 2)
	d.SetEffectiveness(TypeRock, TypeFlying, 2)
	d.SetEffectiveness(TypeRock, TypeGround, 0.5)
	return d
}

// mon builds a combatant config with flat stats: hp and speed as given,
// 50 in everything else.
func mon(species, hp, spd int, moves ...int) CombatantConfig {
	return CombatantConfig{
		SpeciesID: species,
		Stats:     [PermanentStats]int{hp, 50, 50, 50, 50, spd},
		Moves:     moves,
	}
}

// newTestBattle creates an unstarted battle with one party per side.
func newTestBattle(t *testing.T, cfg BattleConfig, player, enemy []CombatantConfig) (*Battle, *RecorderSink) {
	t.Helper()
	rec := &RecorderSink{}
	if cfg.Data == nil {
		cfg.Data = newTestData()
	}
	if cfg.Logger == nil {
		cfg.Logger = nop()
	}
	if cfg.Sink == nil {
		cfg.Sink = rec
	}
	if cfg.ID == "" {
		cfg.ID = "test-battle"
	}
	b, err := NewBattle(cfg)
	require.NoError(t, err)
	for _, c := range player {
		_, err := b.AddCombatant(SidePlayer, c)
		require.NoError(t, err)
	}
	for _, c := range enemy {
		_, err := b.AddCombatant(SideEnemy, c)
		require.NoError(t, err)
	}
	return b, rec
}

// fieldBattle places each side's first combatant on the field without
// running the scheduler, for tests that drive one mechanism directly.
func fieldBattle(t *testing.T, cfg BattleConfig, player, enemy []CombatantConfig) (*Battle, *RecorderSink) {
	t.Helper()
	b, rec := newTestBattle(t, cfg, player, enemy)
	b.started = true
	b.turn = 1
	b.summon(b.parties[SidePlayer][0], SlotPlayer)
	b.summon(b.parties[SideEnemy][0], SlotEnemy)
	return b, rec
}

// eventsOf returns the recorded events of type T.
func eventsOf[T BattleEvent](rec *RecorderSink) []T {
	var out []T
	for _, n := range rec.Notes {
		if e, ok := n.Event.(T); ok {
			out = append(out, e)
		}
	}
	return out
}

// logKinds returns the kinds of log entries matching actor or target id.
func logFor(b *Battle, kind string) []ActionLogEntry {
	var out []ActionLogEntry
	for _, e := range b.ActionLog() {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}
