package battle

import (
	"fmt"
	"sort"

	"github.com/kasuganosora/battlecore/game/attr"
	"github.com/kasuganosora/battlecore/game/rng"
)

// EffectChance is the percent chance that a move's secondary effects fire on
// one target. Attributes may scale it or zero it out before it is rolled.
// Once zeroed it stays zero.
type EffectChance struct {
	value      float64
	guaranteed bool
	blocked    bool
}

// NewEffectChance starts from a move's declared chance. A negative base
// marks effects that are the move's primary purpose and always apply.
func NewEffectChance(base int) EffectChance {
	if base < 0 {
		return EffectChance{guaranteed: true, value: 100}
	}
	return EffectChance{value: float64(min(base, 100))}
}

// Scale multiplies the chance, capped at 100. A chance that is zero,
// guaranteed or blocked is left alone.
func (c *EffectChance) Scale(mult float64) {
	if c.blocked || c.guaranteed || c.value <= 0 {
		return
	}
	c.value = min(100, c.value*mult)
}

// Zero blocks the effect for the rest of the pipeline.
func (c *EffectChance) Zero() {
	c.blocked = true
	c.value = 0
}

func (c EffectChance) Value() float64   { return c.value }
func (c EffectChance) Guaranteed() bool { return c.guaranteed && !c.blocked }
func (c EffectChance) Blocked() bool    { return c.blocked }

// Roll decides whether the effect fires. A blocked chance never does and
// consumes no draw.
func (c EffectChance) Roll(src *rng.Source) bool {
	if c.blocked {
		return false
	}
	if c.guaranteed {
		return true
	}
	return src.Percent(c.value)
}

// Context types, one per family of extension points. Holder is the
// combatant whose ability is being asked, when abilities of both sides run
// at the same point.

type PriorityContext struct {
	Battle   *Battle
	User     *Combatant
	Move     *MoveData
	Priority int
}

type SpeedContext struct {
	Battle     *Battle
	Holder     *Combatant
	Multiplier float64
}

type MoveConditionContext struct {
	Battle  *Battle
	User    *Combatant
	Move    *MoveData
	Targets []*Combatant
	Failed  bool
}

// UseContext runs once per move use, before any target is hit. Field-wide
// moves do all of their work here.
type UseContext struct {
	Battle  *Battle
	User    *Combatant
	Move    *MoveData
	Mode    MoveUseMode
	Targets []*Combatant
	Failed  bool
	// Deferred ends the use without hitting anyone, as on a charge turn.
	Deferred bool
}

// HitContext follows a move into one target.
type HitContext struct {
	Battle *Battle
	User   *Combatant
	Target *Combatant
	Holder *Combatant
	Move   *MoveData
	// FirstTarget is set for the first target of the use so self effects
	// apply once.
	FirstTarget   bool
	Power         float64
	Damage        int
	Critical      bool
	Effectiveness float64
	Chance        EffectChance
	// Fires is the result of rolling Chance, set before PointHitEffect.
	Fires     bool
	Cancelled bool
}

type SummonContext struct {
	Battle *Battle
	Holder *Combatant
}

type TurnEndContext struct {
	Battle *Battle
	Holder *Combatant
}

type StatusContext struct {
	Battle  *Battle
	Holder  *Combatant
	Source  *Combatant
	Effect  StatusEffect
	Blocked bool
}

type TagContext struct {
	Battle  *Battle
	Holder  *Combatant
	Tag     BattlerTagType
	Blocked bool
}

type DamageContext struct {
	Battle  *Battle
	Holder  *Combatant
	Amount  int
	Source  string
	Blocked bool
}

type AirborneContext struct {
	Battle   *Battle
	Holder   *Combatant
	Airborne bool
}

// Extension points.
var (
	PointMovePriority   = attr.NewPoint[PriorityContext]("move_priority")
	PointSpeed          = attr.NewPoint[SpeedContext]("speed")
	PointMoveCondition  = attr.NewPoint[MoveConditionContext]("move_condition")
	PointMoveUse        = attr.NewPoint[UseContext]("move_use")
	PointPreDefend      = attr.NewPoint[HitContext]("pre_defend")
	PointMovePower      = attr.NewPoint[HitContext]("move_power")
	PointEffectChance   = attr.NewPoint[HitContext]("effect_chance")
	PointHitEffect      = attr.NewPoint[HitContext]("hit_effect")
	PointPostDefend     = attr.NewPoint[HitContext]("post_defend")
	PointPostSummon     = attr.NewPoint[SummonContext]("post_summon")
	PointPostTurn       = attr.NewPoint[TurnEndContext]("post_turn")
	PointStatusImmunity = attr.NewPoint[StatusContext]("status_immunity")
	PointTagImmunity    = attr.NewPoint[TagContext]("tag_immunity")
	PointIndirectDamage = attr.NewPoint[DamageContext]("indirect_damage")
	PointAirborne       = attr.NewPoint[AirborneContext]("airborne")
)

// bindable is an attribute built from data. It registers itself at the
// point or points it serves.
type bindable interface {
	bind(r *attr.Registry, src attr.Source, name string)
}

type attrFactory func(p AttrParams) (bindable, error)

var attrFactories = map[string]attrFactory{}

// registerAttr adds a named attribute factory. Names are global across
// abilities and moves.
func registerAttr(name string, f attrFactory) {
	if _, dup := attrFactories[name]; dup {
		panic(fmt.Sprintf("battle: attribute %q registered twice", name))
	}
	attrFactories[name] = f
}

// AttrNames lists every attribute name data files may use.
func AttrNames() []string {
	names := make([]string, 0, len(attrFactories))
	for n := range attrFactories {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// CompileAttrs builds the attributes in specs and binds them to src in
// declaration order.
func CompileAttrs(r *attr.Registry, src attr.Source, specs []AttrSpec) error {
	for _, spec := range specs {
		f, ok := attrFactories[spec.Name]
		if !ok {
			return fmt.Errorf("%s: unknown attribute %q", src, spec.Name)
		}
		a, err := f(spec.Params)
		if err != nil {
			return fmt.Errorf("%s: attribute %s: %w", src, spec.Name, err)
		}
		a.bind(r, src, spec.Name)
	}
	return nil
}

// CompileCatalog compiles the attributes of every listed move and ability
// into r. The registry can then be shared by any number of battles.
func CompileCatalog(r *attr.Registry, data DataProvider, moveIDs, abilityIDs []int) error {
	for _, id := range moveIDs {
		m, err := data.Move(id)
		if err != nil {
			return err
		}
		if err := CompileAttrs(r, attr.Move(id), m.Attrs); err != nil {
			return err
		}
	}
	for _, id := range abilityIDs {
		a, err := data.Ability(id)
		if err != nil {
			return err
		}
		if err := CompileAttrs(r, attr.Ability(id), a.Attrs); err != nil {
			return err
		}
	}
	return nil
}

// abilityHit runs the holder's abilities at a hit point.
func (b *Battle) abilityHit(p attr.Point[HitContext], holder *Combatant, ctx *HitContext) attr.Outcome {
	ctx.Holder = holder
	out := attr.ApplyAll(b.attrs, holder.abilitySources(), p, ctx)
	ctx.Holder = nil
	return out
}

// parseStats reads a comma separated stat list.
func parseStats(p AttrParams, key string) ([]Stat, error) {
	names := p.List(key)
	if len(names) == 0 {
		return nil, fmt.Errorf("param %s: no stats", key)
	}
	out := make([]Stat, 0, len(names))
	for _, n := range names {
		s, err := ParseStat(n)
		if err != nil {
			return nil, err
		}
		if s == StatHP {
			return nil, fmt.Errorf("param %s: hp has no stage", key)
		}
		out = append(out, s)
	}
	return out, nil
}
