package battle

import (
	"fmt"
	"math"

	"github.com/kasuganosora/battlecore/game/attr"
)

func init() {
	registerAttr("status_effect", newStatusEffectAttr)
	registerAttr("stat_stage_change", newStatStageChangeAttr)
	registerAttr("add_battler_tag", newAddBattlerTagAttr)
	registerAttr("add_field_battler_tag", newAddFieldBattlerTagAttr)
	registerAttr("add_arena_tag", newAddArenaTagAttr)
	registerAttr("weather", newWeatherAttr)
	registerAttr("terrain", newTerrainAttr)
	registerAttr("delayed_attack", func(AttrParams) (bindable, error) { return &DelayedAttackAttr{}, nil })
	registerAttr("wish", newWishAttr)
	registerAttr("heal", newHealAttr)
	registerAttr("drain", newDrainAttr)
	registerAttr("recoil", newRecoilAttr)
	registerAttr("first_turn_only", func(AttrParams) (bindable, error) { return &FirstTurnOnlyAttr{}, nil })
	registerAttr("charge", newChargeAttr)
	registerAttr("protect", newProtectAttr)
	registerAttr("substitute", func(AttrParams) (bindable, error) { return &SubstituteAttr{}, nil })
	registerAttr("stockpile", func(AttrParams) (bindable, error) { return &StockpileAttr{}, nil })
	registerAttr("increment_priority", newIncrementPriorityAttr)
}

// Move attributes marked self act on the user once per use, on the first
// target, without an effect chance roll. The rest act on each target only
// when the chance fired.

// moveFailed reports a rule failure of a move whose effect is its purpose.
func moveFailed(ctx *HitContext, reason string) {
	if ctx.Chance.Guaranteed() {
		ctx.Battle.emit(EventMoveFailed{User: RefCombatant(ctx.User), MoveID: ctx.Move.ID, Reason: reason})
	}
}

// effectTarget returns who a hit effect acts on, or nil if it should not
// act for this target.
func effectTarget(ctx *HitContext, self bool) *Combatant {
	if self {
		if !ctx.FirstTarget || ctx.User.IsFainted() {
			return nil
		}
		return ctx.User
	}
	if !ctx.Fires || ctx.Target.IsFainted() {
		return nil
	}
	return ctx.Target
}

// StatusEffectAttr inflicts a primary status.
type StatusEffectAttr struct {
	Effect StatusEffect
	Self   bool
}

func newStatusEffectAttr(p AttrParams) (bindable, error) {
	s, err := ParseStatus(p.String("status", ""))
	if err != nil {
		return nil, err
	}
	if s == StatusNone || s == StatusFaint {
		return nil, fmt.Errorf("status %s cannot be inflicted", s)
	}
	self, err := p.Bool("self", false)
	if err != nil {
		return nil, err
	}
	return &StatusEffectAttr{Effect: s, Self: self}, nil
}

func (a *StatusEffectAttr) bind(r *attr.Registry, src attr.Source, name string) {
	attr.Register[HitContext](r, src, PointHitEffect, name, a)
}

func (a *StatusEffectAttr) Apply(ctx *HitContext) attr.Result {
	target := effectTarget(ctx, a.Self)
	if target == nil {
		return attr.Skipped
	}
	if !ctx.Battle.canSetStatus(target, a.Effect, ctx.User) {
		moveFailed(ctx, FailNoEffect)
		return attr.Skipped
	}
	ctx.Battle.queueStatus(target, a.Effect, ctx.User)
	return attr.Applied
}

// StatStageChangeAttr shifts stat stages.
type StatStageChangeAttr struct {
	Stats []Stat
	Delta int
	Self  bool
}

func newStatStageChangeAttr(p AttrParams) (bindable, error) {
	stats, err := parseStats(p, "stats")
	if err != nil {
		return nil, err
	}
	delta, err := p.Int("delta", 0)
	if err != nil {
		return nil, err
	}
	if delta == 0 {
		return nil, fmt.Errorf("param delta: must not be zero")
	}
	self, err := p.Bool("self", false)
	if err != nil {
		return nil, err
	}
	return &StatStageChangeAttr{Stats: stats, Delta: delta, Self: self}, nil
}

func (a *StatStageChangeAttr) bind(r *attr.Registry, src attr.Source, name string) {
	attr.Register[HitContext](r, src, PointHitEffect, name, a)
}

func (a *StatStageChangeAttr) Apply(ctx *HitContext) attr.Result {
	target := effectTarget(ctx, a.Self)
	if target == nil {
		return attr.Skipped
	}
	ctx.Battle.queueStatStage(target, ctx.User, a.Stats, a.Delta)
	return attr.Applied
}

// AddBattlerTagAttr attaches a battler tag for a random number of turns in
// [MinTurns, MaxTurns]. Zero turns means indefinite.
type AddBattlerTagAttr struct {
	Tag      BattlerTagType
	MinTurns int
	MaxTurns int
	Self     bool
}

func newAddBattlerTagAttr(p AttrParams) (bindable, error) {
	t, err := ParseBattlerTagType(p.String("tag", ""))
	if err != nil {
		return nil, err
	}
	lo, err := p.Int("min_turns", 0)
	if err != nil {
		return nil, err
	}
	hi, err := p.Int("max_turns", lo)
	if err != nil {
		return nil, err
	}
	if hi < lo {
		return nil, fmt.Errorf("max_turns %d below min_turns %d", hi, lo)
	}
	self, err := p.Bool("self", false)
	if err != nil {
		return nil, err
	}
	return &AddBattlerTagAttr{Tag: t, MinTurns: lo, MaxTurns: hi, Self: self}, nil
}

func (a *AddBattlerTagAttr) bind(r *attr.Registry, src attr.Source, name string) {
	attr.Register[HitContext](r, src, PointHitEffect, name, a)
}

func (a *AddBattlerTagAttr) Apply(ctx *HitContext) attr.Result {
	target := effectTarget(ctx, a.Self)
	if target == nil {
		return attr.Skipped
	}
	b := ctx.Battle
	turns := b.rng.Int(a.MaxTurns-a.MinTurns+1, a.MinTurns)
	if !b.tags.Add(target, a.Tag, turns, AddOptions{SourceMove: ctx.Move.ID, Source: ctx.User}) {
		moveFailed(ctx, FailNoEffect)
		return attr.Skipped
	}
	return attr.Applied
}

// AddFieldBattlerTagAttr attaches a battler tag to every combatant on the
// field (Perish Song).
type AddFieldBattlerTagAttr struct {
	Tag   BattlerTagType
	Turns int
}

func newAddFieldBattlerTagAttr(p AttrParams) (bindable, error) {
	t, err := ParseBattlerTagType(p.String("tag", ""))
	if err != nil {
		return nil, err
	}
	turns, err := p.Int("turns", 0)
	if err != nil {
		return nil, err
	}
	return &AddFieldBattlerTagAttr{Tag: t, Turns: turns}, nil
}

func (a *AddFieldBattlerTagAttr) bind(r *attr.Registry, src attr.Source, name string) {
	attr.Register[UseContext](r, src, PointMoveUse, name, a)
}

func (a *AddFieldBattlerTagAttr) Apply(ctx *UseContext) attr.Result {
	b := ctx.Battle
	added := 0
	for _, c := range b.activeCombatants() {
		if b.tags.Add(c, a.Tag, a.Turns, AddOptions{SourceMove: ctx.Move.ID, Source: ctx.User}) {
			added++
		}
	}
	if added == 0 {
		ctx.Failed = true
	}
	ctx.Deferred = true
	return attr.Applied
}

// ArenaTarget selects the side an arena tag lands on, relative to the user.
type ArenaTarget int

const (
	ArenaTargetUser ArenaTarget = iota
	ArenaTargetOpponent
	ArenaTargetBoth
)

// AddArenaTagAttr sets up a field effect.
type AddArenaTagAttr struct {
	Tag    ArenaTagType
	Turns  int
	Target ArenaTarget
}

func newAddArenaTagAttr(p AttrParams) (bindable, error) {
	t, err := ParseArenaTagType(p.String("tag", ""))
	if err != nil {
		return nil, err
	}
	turns, err := p.Int("turns", DefaultArenaTurns(t))
	if err != nil {
		return nil, err
	}
	a := &AddArenaTagAttr{Tag: t, Turns: turns}
	switch side := p.String("side", "user"); side {
	case "user":
		a.Target = ArenaTargetUser
	case "opponent":
		a.Target = ArenaTargetOpponent
	case "both":
		a.Target = ArenaTargetBoth
	default:
		return nil, fmt.Errorf("param side: unknown side %q", side)
	}
	return a, nil
}

func (a *AddArenaTagAttr) bind(r *attr.Registry, src attr.Source, name string) {
	attr.Register[UseContext](r, src, PointMoveUse, name, a)
}

func (a *AddArenaTagAttr) Apply(ctx *UseContext) attr.Result {
	side := ArenaBoth
	switch a.Target {
	case ArenaTargetUser:
		side = ArenaSideOf(ctx.User.side)
	case ArenaTargetOpponent:
		side = ArenaSideOf(ctx.User.side.Opposite())
	}
	added := ctx.Battle.field.AddTag(a.Tag, a.Turns, ctx.Move.ID, ctx.User.id, side)
	// Reusing a cancelling effect ends it, which is the move working.
	if !added && arenaBehaviorOf(a.Tag).policy != OverlapCancel {
		ctx.Failed = true
	}
	ctx.Deferred = true
	return attr.Applied
}

// WeatherAttr changes the weather.
type WeatherAttr struct {
	Weather WeatherType
	Turns   int
}

func newWeatherAttr(p AttrParams) (bindable, error) {
	w, err := ParseWeather(p.String("weather", ""))
	if err != nil {
		return nil, err
	}
	turns, err := p.Int("turns", DefaultFieldTurns)
	if err != nil {
		return nil, err
	}
	return &WeatherAttr{Weather: w, Turns: turns}, nil
}

func (a *WeatherAttr) bind(r *attr.Registry, src attr.Source, name string) {
	attr.Register[UseContext](r, src, PointMoveUse, name, a)
}

func (a *WeatherAttr) Apply(ctx *UseContext) attr.Result {
	if !ctx.Battle.field.SetWeather(a.Weather, a.Turns) {
		ctx.Failed = true
	}
	ctx.Deferred = true
	return attr.Applied
}

// TerrainAttr changes the terrain.
type TerrainAttr struct {
	Terrain TerrainType
	Turns   int
}

func newTerrainAttr(p AttrParams) (bindable, error) {
	t, err := ParseTerrain(p.String("terrain", ""))
	if err != nil {
		return nil, err
	}
	turns, err := p.Int("turns", DefaultFieldTurns)
	if err != nil {
		return nil, err
	}
	return &TerrainAttr{Terrain: t, Turns: turns}, nil
}

func (a *TerrainAttr) bind(r *attr.Registry, src attr.Source, name string) {
	attr.Register[UseContext](r, src, PointMoveUse, name, a)
}

func (a *TerrainAttr) Apply(ctx *UseContext) attr.Result {
	if !ctx.Battle.field.SetTerrain(a.Terrain, a.Turns) {
		ctx.Failed = true
	}
	ctx.Deferred = true
	return attr.Applied
}

// DelayedAttackAttr queues the move against the target's slot instead of
// hitting now (Future Sight, Doom Desire).
type DelayedAttackAttr struct{}

func (a *DelayedAttackAttr) bind(r *attr.Registry, src attr.Source, name string) {
	attr.Register[UseContext](r, src, PointMoveUse, name, a)
}

func (a *DelayedAttackAttr) Apply(ctx *UseContext) attr.Result {
	if len(ctx.Targets) == 0 {
		return attr.Skipped
	}
	pm := ctx.Battle.field.positional
	slot := ctx.Targets[0].slot
	if !pm.CanAddTag(PositionalDelayedAttack, slot) {
		ctx.Failed = true
		return attr.Applied
	}
	pm.AddTag(PositionalDelayedAttack, slot, ctx.User, ctx.Move.ID, 0)
	ctx.Battle.emit(EventPositionalAdded{Tag: PositionalDelayedAttack, Slot: slot, Source: RefCombatant(ctx.User)})
	ctx.Deferred = true
	return attr.Applied
}

// WishAttr queues a heal on the user's slot for the end of the next turn.
type WishAttr struct {
	Ratio float64
}

func newWishAttr(p AttrParams) (bindable, error) {
	r, err := p.Float("ratio", 0.5)
	if err != nil {
		return nil, err
	}
	return &WishAttr{Ratio: r}, nil
}

func (a *WishAttr) bind(r *attr.Registry, src attr.Source, name string) {
	attr.Register[UseContext](r, src, PointMoveUse, name, a)
}

func (a *WishAttr) Apply(ctx *UseContext) attr.Result {
	pm := ctx.Battle.field.positional
	slot := ctx.User.slot
	if !pm.CanAddTag(PositionalWish, slot) {
		ctx.Failed = true
		return attr.Applied
	}
	amount := max(1, int(float64(ctx.User.MaxHP())*a.Ratio))
	pm.AddTag(PositionalWish, slot, ctx.User, ctx.Move.ID, amount)
	ctx.Battle.emit(EventPositionalAdded{Tag: PositionalWish, Slot: slot, Source: RefCombatant(ctx.User)})
	ctx.Deferred = true
	return attr.Applied
}

// HealAttr restores a fraction of the target's max HP (Recover).
type HealAttr struct {
	Ratio float64
}

func newHealAttr(p AttrParams) (bindable, error) {
	r, err := p.Float("ratio", 0.5)
	if err != nil {
		return nil, err
	}
	return &HealAttr{Ratio: r}, nil
}

func (a *HealAttr) bind(r *attr.Registry, src attr.Source, name string) {
	attr.Register[HitContext](r, src, PointHitEffect, name, a)
}

func (a *HealAttr) Apply(ctx *HitContext) attr.Result {
	target := effectTarget(ctx, false)
	if target == nil {
		return attr.Skipped
	}
	if target.IsFullHP() {
		moveFailed(ctx, FailNoEffect)
		return attr.Skipped
	}
	ctx.Battle.healHP(target, max(1, int(float64(target.MaxHP())*a.Ratio)), SourceMove)
	return attr.Applied
}

// DrainAttr heals the user by a fraction of the damage dealt.
type DrainAttr struct {
	Ratio float64
}

func newDrainAttr(p AttrParams) (bindable, error) {
	r, err := p.Float("ratio", 0.5)
	if err != nil {
		return nil, err
	}
	return &DrainAttr{Ratio: r}, nil
}

func (a *DrainAttr) bind(r *attr.Registry, src attr.Source, name string) {
	attr.Register[HitContext](r, src, PointHitEffect, name, a)
}

func (a *DrainAttr) Apply(ctx *HitContext) attr.Result {
	if ctx.Damage <= 0 || ctx.User.IsFainted() {
		return attr.Skipped
	}
	ctx.Battle.healHP(ctx.User, max(1, int(float64(ctx.Damage)*a.Ratio)), SourceMove)
	return attr.Applied
}

// RecoilAttr hurts the user by a fraction of the damage dealt.
type RecoilAttr struct {
	Ratio float64
}

func newRecoilAttr(p AttrParams) (bindable, error) {
	r, err := p.Float("ratio", 0.25)
	if err != nil {
		return nil, err
	}
	return &RecoilAttr{Ratio: r}, nil
}

func (a *RecoilAttr) bind(r *attr.Registry, src attr.Source, name string) {
	attr.Register[HitContext](r, src, PointHitEffect, name, a)
}

func (a *RecoilAttr) Apply(ctx *HitContext) attr.Result {
	if ctx.Damage <= 0 || ctx.User.IsFainted() {
		return attr.Skipped
	}
	ctx.Battle.indirectDamage(ctx.User, max(1, int(float64(ctx.Damage)*a.Ratio)), SourceRecoil)
	return attr.Applied
}

// FirstTurnOnlyAttr fails the move unless this is the user's first turn on
// the field (Fake Out).
type FirstTurnOnlyAttr struct{}

func (a *FirstTurnOnlyAttr) bind(r *attr.Registry, src attr.Source, name string) {
	attr.Register[MoveConditionContext](r, src, PointMoveCondition, name, a)
}

func (a *FirstTurnOnlyAttr) Apply(ctx *MoveConditionContext) attr.Result {
	if ctx.User.firstTurn == ctx.Battle.turn {
		return attr.Skipped
	}
	ctx.Failed = true
	return attr.Stop
}

// ChargeAttr spends the first turn charging and strikes on the next one.
// In SkipWeather the move strikes at once.
type ChargeAttr struct {
	SkipWeather WeatherType
}

func newChargeAttr(p AttrParams) (bindable, error) {
	a := &ChargeAttr{}
	if w := p.String("skip_weather", ""); w != "" {
		wt, err := ParseWeather(w)
		if err != nil {
			return nil, err
		}
		a.SkipWeather = wt
	}
	return a, nil
}

func (a *ChargeAttr) bind(r *attr.Registry, src attr.Source, name string) {
	attr.Register[UseContext](r, src, PointMoveUse, name, a)
}

func (a *ChargeAttr) Apply(ctx *UseContext) attr.Result {
	b, user := ctx.Battle, ctx.User
	if ctx.Mode == UseFollowUp && b.tags.Has(user.id, TagCharging) {
		b.tags.Remove(user.id, TagCharging)
		user.forcedMoveID = 0
		return attr.Applied
	}
	if a.SkipWeather != WeatherNone && b.field.weather.Type == a.SkipWeather {
		return attr.Skipped
	}
	b.tags.Add(user, TagCharging, Indefinite, AddOptions{SourceMove: ctx.Move.ID, Source: user})
	user.forcedMoveID = ctx.Move.ID
	ctx.Deferred = true
	return attr.Stop
}

// ProtectAttr shields the user for the rest of the turn. Each consecutive
// use succeeds a third as often as the last.
type ProtectAttr struct {
	Tag BattlerTagType
}

func newProtectAttr(p AttrParams) (bindable, error) {
	t, err := ParseBattlerTagType(p.String("tag", TagProtected.String()))
	if err != nil {
		return nil, err
	}
	if t != TagProtected && t != TagEndure {
		return nil, fmt.Errorf("param tag: %s is not a protection", t)
	}
	return &ProtectAttr{Tag: t}, nil
}

func (a *ProtectAttr) bind(r *attr.Registry, src attr.Source, name string) {
	attr.Register[UseContext](r, src, PointMoveUse, name, a)
}

func (a *ProtectAttr) Apply(ctx *UseContext) attr.Result {
	b, user := ctx.Battle, ctx.User
	ctx.Deferred = true
	if n := user.protectStreak; n > 0 && !b.rng.Percent(100/math.Pow(3, float64(n))) {
		ctx.Failed = true
		return attr.Applied
	}
	if !b.tags.Add(user, a.Tag, 1, AddOptions{SourceMove: ctx.Move.ID, Source: user}) {
		ctx.Failed = true
		return attr.Applied
	}
	user.protectStreak++
	user.turn.Protecting = true
	return attr.Applied
}

// SubstituteAttr trades a quarter of the user's max HP for a decoy that
// takes hits in its place.
type SubstituteAttr struct{}

func (a *SubstituteAttr) bind(r *attr.Registry, src attr.Source, name string) {
	attr.Register[UseContext](r, src, PointMoveUse, name, a)
}

func (a *SubstituteAttr) Apply(ctx *UseContext) attr.Result {
	b, user := ctx.Battle, ctx.User
	ctx.Deferred = true
	cost := user.MaxHP() / 4
	if b.tags.Has(user.id, TagSubstitute) || cost == 0 || user.hp <= cost {
		ctx.Failed = true
		return attr.Applied
	}
	if !b.tags.Add(user, TagSubstitute, Indefinite, AddOptions{SourceMove: ctx.Move.ID, Source: user}) {
		ctx.Failed = true
		return attr.Applied
	}
	user.setHP(user.hp - cost)
	b.emit(EventDamage{Target: RefCombatant(user), Amount: cost, HPAfter: user.hp, Source: SourceSubstitute})
	b.tags.Get(user.id, TagSubstitute).Data = cost
	return attr.Applied
}

// StockpileAttr adds a stockpile charge, up to the tag's stack limit.
type StockpileAttr struct{}

func (a *StockpileAttr) bind(r *attr.Registry, src attr.Source, name string) {
	attr.Register[UseContext](r, src, PointMoveUse, name, a)
}

func (a *StockpileAttr) Apply(ctx *UseContext) attr.Result {
	ctx.Deferred = true
	if !ctx.Battle.tags.Add(ctx.User, TagStockpiling, Indefinite, AddOptions{SourceMove: ctx.Move.ID, Source: ctx.User}) {
		ctx.Failed = true
	}
	return attr.Applied
}

// IncrementPriorityAttr raises the move's priority for a grounded user on
// the given terrain (Grassy Glide). Without a terrain it always applies.
type IncrementPriorityAttr struct {
	Terrain TerrainType
	Amount  int
}

func newIncrementPriorityAttr(p AttrParams) (bindable, error) {
	a := &IncrementPriorityAttr{}
	if t := p.String("terrain", ""); t != "" {
		tt, err := ParseTerrain(t)
		if err != nil {
			return nil, err
		}
		a.Terrain = tt
	}
	n, err := p.Int("amount", 1)
	if err != nil {
		return nil, err
	}
	a.Amount = n
	return a, nil
}

func (a *IncrementPriorityAttr) bind(r *attr.Registry, src attr.Source, name string) {
	attr.Register[PriorityContext](r, src, PointMovePriority, name, a)
}

func (a *IncrementPriorityAttr) Apply(ctx *PriorityContext) attr.Result {
	if a.Terrain != TerrainNone {
		b := ctx.Battle
		if b.field.terrain.Type != a.Terrain || !b.isGrounded(ctx.User) {
			return attr.Skipped
		}
	}
	ctx.Priority += a.Amount
	return attr.Applied
}
