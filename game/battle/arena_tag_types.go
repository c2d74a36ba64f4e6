package battle

import "fmt"

// arenaBehavior is the per-type rule set of an arena tag. Nil hooks are
// no-ops.
type arenaBehavior struct {
	policy    OverlapPolicy
	maxLayers int
	// turns is the default duration used when a move does not give one.
	turns      int
	onAdd      func(b *Battle, tag *ArenaTag)
	onRemove   func(b *Battle, tag *ArenaTag)
	onSwitchIn func(b *Battle, tag *ArenaTag, c *Combatant)
	lapse      func(b *Battle, tag *ArenaTag)
}

var arenaBehaviors map[ArenaTagType]*arenaBehavior

func init() {
	arenaBehaviors = map[ArenaTagType]*arenaBehavior{
		ArenaSpikes: {
			policy:     OverlapLayer,
			maxLayers:  3,
			onSwitchIn: spikesSwitchIn,
		},
		ArenaToxicSpikes: {
			policy:     OverlapLayer,
			maxLayers:  2,
			onSwitchIn: toxicSpikesSwitchIn,
		},
		ArenaStealthRock: {
			policy: OverlapReject,
			onSwitchIn: func(b *Battle, _ *ArenaTag, c *Combatant) {
				eff := b.typeEffectiveness(TypeRock, c)
				if eff <= 0 {
					return
				}
				b.indirectDamage(c, max(1, int(float64(c.MaxHP())*eff/8)), SourceHazard)
			},
		},
		ArenaReflect:     {policy: OverlapReject, turns: 5},
		ArenaLightScreen: {policy: OverlapReject, turns: 5},
		// Tailwind counts the turn it is set up on.
		ArenaTailwind:  {policy: OverlapReject, turns: 4},
		ArenaTrickRoom: {policy: OverlapCancel, turns: 5},
		ArenaSafeguard: {policy: OverlapReject, turns: 5},
		ArenaMist:      {policy: OverlapReject, turns: 5},
		ArenaFireGrassPledge: {
			policy: OverlapRefresh,
			turns:  4,
			lapse: func(b *Battle, tag *ArenaTag) {
				for _, c := range b.activeCombatants() {
					if tag.Side.covers(c.side) && !c.HasType(TypeFire) {
						b.indirectDamage(c, c.hpFraction(8), SourceArena)
					}
				}
			},
		},
		ArenaWaterFirePledge:  {policy: OverlapRefresh, turns: 4},
		ArenaGrassWaterPledge: {policy: OverlapRefresh, turns: 4},
	}
}

func arenaBehaviorOf(t ArenaTagType) *arenaBehavior {
	beh, ok := arenaBehaviors[t]
	if !ok {
		panic(fmt.Errorf("battle: no behavior for arena tag %d", int(t)))
	}
	return beh
}

// DefaultArenaTurns returns the usual duration of an arena tag type; 0 means
// it lasts until removed.
func DefaultArenaTurns(t ArenaTagType) int {
	return arenaBehaviorOf(t).turns
}

// spikesSwitchIn deals 1/8, 1/6 or 1/4 of max HP by layer count.
func spikesSwitchIn(b *Battle, tag *ArenaTag, c *Combatant) {
	if !b.isGrounded(c) {
		return
	}
	den := [...]int{8, 6, 4}[min(tag.Layers, 3)-1]
	b.indirectDamage(c, c.hpFraction(den), SourceHazard)
}

// toxicSpikesSwitchIn poisons a grounded combatant, or badly poisons it with
// two layers. A grounded poison type absorbs the spikes instead.
func toxicSpikesSwitchIn(b *Battle, tag *ArenaTag, c *Combatant) {
	if !b.isGrounded(c) {
		return
	}
	if c.HasType(TypePoison) {
		b.field.removeTag(tag)
		return
	}
	effect := StatusPoison
	if tag.Layers >= 2 {
		effect = StatusToxic
	}
	b.trySetStatus(c, effect, nil)
}
