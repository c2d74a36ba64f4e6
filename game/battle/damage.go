package battle

import (
	"math"

	"github.com/kasuganosora/battlecore/game/attr"
)

// damageInfo describes where damage came from, for events and the log.
type damageInfo struct {
	Source        string
	Critical      bool
	Effectiveness float64
}

// critDenominator gives a 1 in 24 critical hit chance.
const critDenominator = 24

// typeEffectiveness multiplies the chart entries of an attack type against
// each of the defender's types. Ground moves do not reach airborne
// defenders.
func (b *Battle) typeEffectiveness(t Type, def *Combatant) float64 {
	if t == TypeUnknown {
		return 1
	}
	if t == TypeGround && !b.isGrounded(def) {
		return 0
	}
	mult := 1.0
	for _, dt := range def.types {
		if t == TypeGround && dt == TypeFlying {
			// Handled by isGrounded; a grounded flying type takes neutral damage.
			continue
		}
		mult *= b.data.TypeEffectiveness(t, dt)
	}
	return mult
}

// isGrounded reports whether ground-based effects reach c.
func (b *Battle) isGrounded(c *Combatant) bool {
	if c.HasType(TypeFlying) {
		return false
	}
	ctx := &AirborneContext{Battle: b, Holder: c}
	attr.ApplyAll(b.attrs, c.abilitySources(), PointAirborne, ctx)
	return !ctx.Airborne
}

// itemMultiplier is the held item's multiplier on stat s.
func (b *Battle) itemMultiplier(c *Combatant, s Stat) float64 {
	if c.itemID == 0 {
		return 1
	}
	item, err := b.data.Item(c.itemID)
	if err != nil || item.Kind != ItemHeld {
		return 1
	}
	if m, ok := item.StatMultipliers[s]; ok && m > 0 {
		return m
	}
	return 1
}

// calcDamage computes the damage of one hit:
//
//	base = floor(floor(floor(2*L/5+2) * P * A / D) / 50) + 2
//
// then weather, critical, random 85..100%, STAB, type, burn and screen
// modifiers in that order. A critical hit ignores the attacker's negative
// and the defender's positive stages.
func (b *Battle) calcDamage(user, target *Combatant, move *MoveData, power float64, critical bool, eff float64) int {
	if power <= 0 || eff <= 0 {
		return 0
	}
	atkStat, defStat := StatAtk, StatDef
	if move.Category == CategorySpecial {
		atkStat, defStat = StatSpAtk, StatSpDef
	}
	atkStage, defStage := user.Stage(atkStat), target.Stage(defStat)
	if critical {
		atkStage = max(0, atkStage)
		defStage = min(0, defStage)
	}
	atk := float64(max(1, user.Stat(atkStat))) * StageMultiplier(atkStage) * b.itemMultiplier(user, atkStat)
	def := float64(max(1, target.Stat(defStat))) * StageMultiplier(defStage) * b.itemMultiplier(target, defStat)

	level := float64(user.level)
	base := math.Floor(math.Floor(math.Floor(2*level/5+2)*power*atk/def)/50) + 2

	dmg := base * b.field.weather.Type.damageMultiplier(move.Type)
	if b.isGrounded(user) {
		dmg *= b.field.terrain.Type.damageMultiplier(move.Type)
	}
	if critical {
		dmg = math.Floor(dmg * 1.5)
	}
	dmg = math.Floor(dmg * float64(b.rng.Int(16, 85)) / 100)
	if user.HasType(move.Type) {
		dmg = math.Floor(dmg * 1.5)
	}
	dmg = math.Floor(dmg * eff)
	if user.status == StatusBurn && move.Category == CategoryPhysical {
		dmg = math.Floor(dmg * 0.5)
	}
	if !critical && b.screened(target, move.Category) {
		if b.format == FormatDouble {
			dmg = math.Floor(dmg * 2 / 3)
		} else {
			dmg = math.Floor(dmg * 0.5)
		}
	}
	return max(1, int(dmg))
}

// screened reports whether a screen on the target's side weakens moves of
// category cat.
func (b *Battle) screened(target *Combatant, cat MoveCategory) bool {
	side := ArenaSideOf(target.side)
	switch cat {
	case CategoryPhysical:
		return b.field.HasTag(ArenaReflect, side)
	case CategorySpecial:
		return b.field.HasTag(ArenaLightScreen, side)
	}
	return false
}

// rollCritical decides whether a hit is critical.
func (b *Battle) rollCritical() bool {
	return b.rng.Int(critDenominator, 0) == 0
}

// accuracyCheck decides whether move hits target. Moves with no accuracy
// never miss.
func (b *Battle) accuracyCheck(user, target *Combatant, move *MoveData) bool {
	if move.Accuracy <= 0 || user == target {
		return true
	}
	stage := min(MaxStage, max(MinStage, user.Stage(StatAccuracy)-target.Stage(StatEvasion)))
	return b.rng.Percent(float64(move.Accuracy) * AccuracyStageMultiplier(stage))
}

// confusionDamage is the typeless 40 power physical hit a confused
// combatant deals itself.
func (b *Battle) confusionDamage(c *Combatant) int {
	level := float64(c.level)
	atk := float64(max(1, c.Stat(StatAtk))) * StageMultiplier(c.Stage(StatAtk))
	def := float64(max(1, c.Stat(StatDef))) * StageMultiplier(c.Stage(StatDef))
	base := math.Floor(math.Floor(math.Floor(2*level/5+2)*40*atk/def)/50) + 2
	return max(1, int(math.Floor(base*float64(b.rng.Int(16, 85))/100)))
}
