package battle

import (
	"fmt"

	"github.com/kasuganosora/battlecore/game/attr"
)

func init() {
	registerAttr("effect_chance_multiplier", newEffectChanceMultiplier)
	registerAttr("ignore_move_effects", func(AttrParams) (bindable, error) { return &IgnoreMoveEffectsAttr{}, nil })
	registerAttr("type_immunity", newTypeImmunity)
	registerAttr("post_defend_contact_status", newPostDefendContactStatus)
	registerAttr("post_defend_contact_damage", newPostDefendContactDamage)
	registerAttr("post_summon_weather", newPostSummonWeather)
	registerAttr("post_summon_stat_stage", newPostSummonStatStage)
	registerAttr("post_turn_stat_stage", newPostTurnStatStage)
	registerAttr("weather_speed_multiplier", newWeatherSpeedMultiplier)
	registerAttr("status_move_priority", newStatusMovePriority)
	registerAttr("status_immunity", newStatusImmunity)
	registerAttr("tag_immunity", newTagImmunity)
	registerAttr("low_power_boost", newLowPowerBoost)
	registerAttr("received_type_power", newReceivedTypePower)
	registerAttr("block_indirect_damage", func(AttrParams) (bindable, error) { return &BlockIndirectDamageAttr{}, nil })
}

// EffectChanceMultiplierAttr scales the chance of the holder's own moves'
// secondary effects (Serene Grace).
type EffectChanceMultiplierAttr struct {
	Multiplier float64
}

func newEffectChanceMultiplier(p AttrParams) (bindable, error) {
	m, err := p.Float("multiplier", 2)
	if err != nil {
		return nil, err
	}
	return &EffectChanceMultiplierAttr{Multiplier: m}, nil
}

func (a *EffectChanceMultiplierAttr) bind(r *attr.Registry, src attr.Source, name string) {
	attr.Register[HitContext](r, src, PointEffectChance, name, a)
}

func (a *EffectChanceMultiplierAttr) Apply(ctx *HitContext) attr.Result {
	if ctx.Holder != ctx.User || ctx.Chance.Guaranteed() || ctx.Chance.Value() <= 0 {
		return attr.Skipped
	}
	ctx.Chance.Scale(a.Multiplier)
	return attr.Applied
}

// IgnoreMoveEffectsAttr blocks secondary effects of moves that hit the
// holder (Shield Dust). Effects that are a move's primary purpose still
// apply.
type IgnoreMoveEffectsAttr struct{}

func (a *IgnoreMoveEffectsAttr) bind(r *attr.Registry, src attr.Source, name string) {
	attr.Register[HitContext](r, src, PointEffectChance, name, a)
}

func (a *IgnoreMoveEffectsAttr) Apply(ctx *HitContext) attr.Result {
	if ctx.Holder != ctx.Target || ctx.Target == ctx.User || ctx.Chance.Guaranteed() {
		return attr.Skipped
	}
	ctx.Chance.Zero()
	return attr.Applied
}

// TypeImmunityAttr negates moves of one type aimed at the holder, optionally
// healing it (Volt Absorb). With Airborne set the holder also counts as off
// the ground (Levitate).
type TypeImmunityAttr struct {
	Type      Type
	HealRatio float64
	Airborne  bool
}

func newTypeImmunity(p AttrParams) (bindable, error) {
	t, err := ParseType(p.String("type", ""))
	if err != nil {
		return nil, err
	}
	heal, err := p.Float("heal", 0)
	if err != nil {
		return nil, err
	}
	air, err := p.Bool("airborne", false)
	if err != nil {
		return nil, err
	}
	return &TypeImmunityAttr{Type: t, HealRatio: heal, Airborne: air}, nil
}

func (a *TypeImmunityAttr) bind(r *attr.Registry, src attr.Source, name string) {
	attr.Register[HitContext](r, src, PointPreDefend, name, a)
	if a.Airborne {
		attr.Register[AirborneContext](r, src, PointAirborne, name, attr.HandlerFunc[AirborneContext](a.applyAirborne))
	}
}

func (a *TypeImmunityAttr) Apply(ctx *HitContext) attr.Result {
	if ctx.Holder != ctx.Target || ctx.User == ctx.Target || ctx.Move.Type != a.Type {
		return attr.Skipped
	}
	ctx.Cancelled = true
	b := ctx.Battle
	b.emit(EventImmune{Target: RefCombatant(ctx.Target), MoveID: ctx.Move.ID})
	if a.HealRatio > 0 {
		b.healHP(ctx.Target, max(1, int(float64(ctx.Target.MaxHP())*a.HealRatio)), SourceAbility)
	}
	return attr.Stop
}

func (a *TypeImmunityAttr) applyAirborne(ctx *AirborneContext) attr.Result {
	ctx.Airborne = true
	return attr.Stop
}

// PostDefendContactStatusAttr may inflict a status on a combatant that hits
// the holder with a contact move (Static).
type PostDefendContactStatusAttr struct {
	Chance float64
	Effect StatusEffect
}

func newPostDefendContactStatus(p AttrParams) (bindable, error) {
	chance, err := p.Float("chance", 30)
	if err != nil {
		return nil, err
	}
	effect, err := ParseStatus(p.String("status", ""))
	if err != nil {
		return nil, err
	}
	return &PostDefendContactStatusAttr{Chance: chance, Effect: effect}, nil
}

func (a *PostDefendContactStatusAttr) bind(r *attr.Registry, src attr.Source, name string) {
	attr.Register[HitContext](r, src, PointPostDefend, name, a)
}

func (a *PostDefendContactStatusAttr) Apply(ctx *HitContext) attr.Result {
	if !contactHit(ctx) || ctx.User.status != StatusNone {
		return attr.Skipped
	}
	b := ctx.Battle
	if !b.rng.Percent(a.Chance) {
		return attr.Skipped
	}
	b.queueStatus(ctx.User, a.Effect, ctx.Holder)
	return attr.Applied
}

// PostDefendContactDamageAttr hurts a combatant that hits the holder with a
// contact move (Rough Skin).
type PostDefendContactDamageAttr struct {
	Denominator int
}

func newPostDefendContactDamage(p AttrParams) (bindable, error) {
	den, err := p.Int("denominator", 8)
	if err != nil {
		return nil, err
	}
	if den <= 0 {
		return nil, fmt.Errorf("denominator must be positive, got %d", den)
	}
	return &PostDefendContactDamageAttr{Denominator: den}, nil
}

func (a *PostDefendContactDamageAttr) bind(r *attr.Registry, src attr.Source, name string) {
	attr.Register[HitContext](r, src, PointPostDefend, name, a)
}

func (a *PostDefendContactDamageAttr) Apply(ctx *HitContext) attr.Result {
	if !contactHit(ctx) {
		return attr.Skipped
	}
	ctx.Battle.indirectDamage(ctx.User, ctx.User.hpFraction(a.Denominator), SourceAbility)
	return attr.Applied
}

// contactHit reports whether the holder was just struck by a live opponent's
// contact move.
func contactHit(ctx *HitContext) bool {
	return ctx.Holder == ctx.Target && ctx.User != ctx.Target && ctx.Damage > 0 &&
		ctx.Move.Flags.Has(FlagContact) && !ctx.User.IsFainted()
}

// PostSummonWeatherAttr sets the weather when the holder enters the field
// (Drizzle, Drought, Sand Stream).
type PostSummonWeatherAttr struct {
	Weather WeatherType
	Turns   int
}

func newPostSummonWeather(p AttrParams) (bindable, error) {
	w, err := ParseWeather(p.String("weather", ""))
	if err != nil {
		return nil, err
	}
	turns, err := p.Int("turns", DefaultFieldTurns)
	if err != nil {
		return nil, err
	}
	return &PostSummonWeatherAttr{Weather: w, Turns: turns}, nil
}

func (a *PostSummonWeatherAttr) bind(r *attr.Registry, src attr.Source, name string) {
	attr.Register[SummonContext](r, src, PointPostSummon, name, a)
}

func (a *PostSummonWeatherAttr) Apply(ctx *SummonContext) attr.Result {
	if !ctx.Battle.field.SetWeather(a.Weather, a.Turns) {
		return attr.Skipped
	}
	return attr.Applied
}

// PostSummonStatStageAttr changes opponents' stages when the holder enters
// the field (Intimidate).
type PostSummonStatStageAttr struct {
	Stats []Stat
	Delta int
	Self  bool
}

func newPostSummonStatStage(p AttrParams) (bindable, error) {
	stats, err := parseStats(p, "stats")
	if err != nil {
		return nil, err
	}
	delta, err := p.Int("delta", -1)
	if err != nil {
		return nil, err
	}
	self, err := p.Bool("self", false)
	if err != nil {
		return nil, err
	}
	return &PostSummonStatStageAttr{Stats: stats, Delta: delta, Self: self}, nil
}

func (a *PostSummonStatStageAttr) bind(r *attr.Registry, src attr.Source, name string) {
	attr.Register[SummonContext](r, src, PointPostSummon, name, a)
}

func (a *PostSummonStatStageAttr) Apply(ctx *SummonContext) attr.Result {
	b := ctx.Battle
	targets := b.opponents(ctx.Holder)
	if a.Self {
		targets = []*Combatant{ctx.Holder}
	}
	if len(targets) == 0 {
		return attr.Skipped
	}
	for _, t := range targets {
		b.queueStatStage(t, ctx.Holder, a.Stats, a.Delta)
	}
	return attr.Applied
}

// PostTurnStatStageAttr raises the holder's stages at the end of every full
// turn it spent on the field (Speed Boost).
type PostTurnStatStageAttr struct {
	Stats []Stat
	Delta int
}

func newPostTurnStatStage(p AttrParams) (bindable, error) {
	stats, err := parseStats(p, "stats")
	if err != nil {
		return nil, err
	}
	delta, err := p.Int("delta", 1)
	if err != nil {
		return nil, err
	}
	return &PostTurnStatStageAttr{Stats: stats, Delta: delta}, nil
}

func (a *PostTurnStatStageAttr) bind(r *attr.Registry, src attr.Source, name string) {
	attr.Register[TurnEndContext](r, src, PointPostTurn, name, a)
}

func (a *PostTurnStatStageAttr) Apply(ctx *TurnEndContext) attr.Result {
	if ctx.Holder.firstTurn > ctx.Battle.turn {
		return attr.Skipped
	}
	for _, s := range a.Stats {
		ctx.Battle.changeStage(ctx.Holder, s, a.Delta)
	}
	return attr.Applied
}

// WeatherSpeedMultiplierAttr multiplies the holder's speed in one weather
// (Swift Swim, Chlorophyll).
type WeatherSpeedMultiplierAttr struct {
	Weather    WeatherType
	Multiplier float64
}

func newWeatherSpeedMultiplier(p AttrParams) (bindable, error) {
	w, err := ParseWeather(p.String("weather", ""))
	if err != nil {
		return nil, err
	}
	m, err := p.Float("multiplier", 2)
	if err != nil {
		return nil, err
	}
	return &WeatherSpeedMultiplierAttr{Weather: w, Multiplier: m}, nil
}

func (a *WeatherSpeedMultiplierAttr) bind(r *attr.Registry, src attr.Source, name string) {
	attr.Register[SpeedContext](r, src, PointSpeed, name, a)
}

func (a *WeatherSpeedMultiplierAttr) Apply(ctx *SpeedContext) attr.Result {
	if ctx.Battle.field.weather.Type != a.Weather {
		return attr.Skipped
	}
	ctx.Multiplier *= a.Multiplier
	return attr.Applied
}

// StatusMovePriorityAttr raises the priority of the holder's status moves
// (Prankster).
type StatusMovePriorityAttr struct {
	Amount int
}

func newStatusMovePriority(p AttrParams) (bindable, error) {
	n, err := p.Int("amount", 1)
	if err != nil {
		return nil, err
	}
	return &StatusMovePriorityAttr{Amount: n}, nil
}

func (a *StatusMovePriorityAttr) bind(r *attr.Registry, src attr.Source, name string) {
	attr.Register[PriorityContext](r, src, PointMovePriority, name, a)
}

func (a *StatusMovePriorityAttr) Apply(ctx *PriorityContext) attr.Result {
	if ctx.Move.Category != CategoryStatus {
		return attr.Skipped
	}
	ctx.Priority += a.Amount
	return attr.Applied
}

// StatusImmunityAttr keeps the listed statuses off the holder (Limber,
// Insomnia).
type StatusImmunityAttr struct {
	Effects []StatusEffect
}

func newStatusImmunity(p AttrParams) (bindable, error) {
	names := p.List("statuses")
	if len(names) == 0 {
		return nil, fmt.Errorf("param statuses: none given")
	}
	a := &StatusImmunityAttr{}
	for _, n := range names {
		s, err := ParseStatus(n)
		if err != nil {
			return nil, err
		}
		a.Effects = append(a.Effects, s)
	}
	return a, nil
}

func (a *StatusImmunityAttr) bind(r *attr.Registry, src attr.Source, name string) {
	attr.Register[StatusContext](r, src, PointStatusImmunity, name, a)
}

func (a *StatusImmunityAttr) Apply(ctx *StatusContext) attr.Result {
	for _, e := range a.Effects {
		if e == ctx.Effect {
			ctx.Blocked = true
			return attr.Stop
		}
	}
	return attr.Skipped
}

// TagImmunityAttr keeps the listed battler tags off the holder (Own Tempo,
// Inner Focus).
type TagImmunityAttr struct {
	Tags []BattlerTagType
}

func newTagImmunity(p AttrParams) (bindable, error) {
	names := p.List("tags")
	if len(names) == 0 {
		return nil, fmt.Errorf("param tags: none given")
	}
	a := &TagImmunityAttr{}
	for _, n := range names {
		t, err := ParseBattlerTagType(n)
		if err != nil {
			return nil, err
		}
		a.Tags = append(a.Tags, t)
	}
	return a, nil
}

func (a *TagImmunityAttr) bind(r *attr.Registry, src attr.Source, name string) {
	attr.Register[TagContext](r, src, PointTagImmunity, name, a)
}

func (a *TagImmunityAttr) Apply(ctx *TagContext) attr.Result {
	for _, t := range a.Tags {
		if t == ctx.Tag {
			ctx.Blocked = true
			return attr.Stop
		}
	}
	return attr.Skipped
}

// LowPowerBoostAttr boosts the holder's weak moves (Technician).
type LowPowerBoostAttr struct {
	Threshold  int
	Multiplier float64
}

func newLowPowerBoost(p AttrParams) (bindable, error) {
	th, err := p.Int("threshold", 60)
	if err != nil {
		return nil, err
	}
	m, err := p.Float("multiplier", 1.5)
	if err != nil {
		return nil, err
	}
	return &LowPowerBoostAttr{Threshold: th, Multiplier: m}, nil
}

func (a *LowPowerBoostAttr) bind(r *attr.Registry, src attr.Source, name string) {
	attr.Register[HitContext](r, src, PointMovePower, name, a)
}

func (a *LowPowerBoostAttr) Apply(ctx *HitContext) attr.Result {
	if ctx.Holder != ctx.User || ctx.Move.Power > a.Threshold {
		return attr.Skipped
	}
	ctx.Power *= a.Multiplier
	return attr.Applied
}

// ReceivedTypePowerAttr weakens moves of the listed types aimed at the
// holder (Thick Fat).
type ReceivedTypePowerAttr struct {
	Types      []Type
	Multiplier float64
}

func newReceivedTypePower(p AttrParams) (bindable, error) {
	names := p.List("types")
	if len(names) == 0 {
		return nil, fmt.Errorf("param types: none given")
	}
	m, err := p.Float("multiplier", 0.5)
	if err != nil {
		return nil, err
	}
	a := &ReceivedTypePowerAttr{Multiplier: m}
	for _, n := range names {
		t, err := ParseType(n)
		if err != nil {
			return nil, err
		}
		a.Types = append(a.Types, t)
	}
	return a, nil
}

func (a *ReceivedTypePowerAttr) bind(r *attr.Registry, src attr.Source, name string) {
	attr.Register[HitContext](r, src, PointMovePower, name, a)
}

func (a *ReceivedTypePowerAttr) Apply(ctx *HitContext) attr.Result {
	if ctx.Holder != ctx.Target {
		return attr.Skipped
	}
	for _, t := range a.Types {
		if t == ctx.Move.Type {
			ctx.Power *= a.Multiplier
			return attr.Applied
		}
	}
	return attr.Skipped
}

// BlockIndirectDamageAttr prevents all damage that is not a direct hit
// (Magic Guard).
type BlockIndirectDamageAttr struct{}

func (a *BlockIndirectDamageAttr) bind(r *attr.Registry, src attr.Source, name string) {
	attr.Register[DamageContext](r, src, PointIndirectDamage, name, a)
}

func (a *BlockIndirectDamageAttr) Apply(ctx *DamageContext) attr.Result {
	ctx.Blocked = true
	return attr.Stop
}
