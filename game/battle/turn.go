package battle

import (
	"sort"

	"github.com/kasuganosora/battlecore/game/attr"
	"github.com/kasuganosora/battlecore/game/rng"
)

// OrderEntry is one combatant's chosen command with its ordering keys.
type OrderEntry struct {
	Combatant *Combatant
	Command   TurnCommand
	// Forced commands (switch, item, run) act ahead of every move.
	Forced   bool
	Priority int
	Speed    int
}

// TurnManager determines the action order for a battle turn.
type TurnManager interface {
	// MakeActionOrder sorts entries into acting order. reversed inverts the
	// speed comparison. The input slice is not modified.
	MakeActionOrder(entries []OrderEntry, reversed bool, src *rng.Source) []OrderEntry
}

// DefaultTurnManager orders forced commands first, then by priority bracket,
// then by effective speed. Entries with equal keys are shuffled with the
// battle RNG, each tie group independently.
type DefaultTurnManager struct{}

func (DefaultTurnManager) MakeActionOrder(entries []OrderEntry, reversed bool, src *rng.Source) []OrderEntry {
	out := append([]OrderEntry(nil), entries...)

	faster := func(a, b OrderEntry) bool {
		if reversed {
			return a.Speed < b.Speed
		}
		return a.Speed > b.Speed
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Forced != b.Forced {
			return a.Forced
		}
		if a.Priority != b.Priority {
			return a.Priority > b.Priority
		}
		return faster(a, b)
	})

	for start := 0; start < len(out); {
		end := start + 1
		for end < len(out) && sameKeys(out[start], out[end]) {
			end++
		}
		if end-start > 1 {
			group := out[start:end]
			src.Shuffle(len(group), func(i, j int) { group[i], group[j] = group[j], group[i] })
		}
		start = end
	}
	return out
}

func sameKeys(a, b OrderEntry) bool {
	return a.Forced == b.Forced && a.Priority == b.Priority && a.Speed == b.Speed
}

// EffectiveSpeed is c's speed for turn ordering: the speed stat, floored at
// 1, times its stage multiplier, held item, abilities, paralysis and side
// effects.
func (b *Battle) EffectiveSpeed(c *Combatant) int {
	v := float64(max(1, c.Stat(StatSpd)))
	v *= StageMultiplier(c.Stage(StatSpd))
	v *= b.itemMultiplier(c, StatSpd)

	ctx := &SpeedContext{Battle: b, Holder: c, Multiplier: 1}
	attr.ApplyAll(b.attrs, c.abilitySources(), PointSpeed, ctx)
	v *= ctx.Multiplier

	if c.status == StatusParalysis {
		v *= 0.5
	}
	side := ArenaSideOf(c.side)
	if b.field.HasTag(ArenaTailwind, side) {
		v *= 2
	}
	if b.field.HasTag(ArenaGrassWaterPledge, side) {
		v *= 0.25
	}
	return max(1, int(v))
}

// movePriority is the priority bracket of c using move, after ability and
// move attributes.
func (b *Battle) movePriority(c *Combatant, move *MoveData) int {
	ctx := &PriorityContext{Battle: b, User: c, Move: move, Priority: move.Priority}
	attr.ApplyAll(b.attrs, c.abilitySources(), PointMovePriority, ctx)
	attr.Apply(b.attrs, attr.Move(move.ID), PointMovePriority, ctx)
	return ctx.Priority
}

// orderEntries builds the ordering keys of every active combatant holding a
// command, in slot order.
func (b *Battle) orderEntries() []OrderEntry {
	var entries []OrderEntry
	for _, c := range b.activeCombatants() {
		cmd := c.turn.Command
		if cmd == nil {
			continue
		}
		e := OrderEntry{Combatant: c, Command: *cmd, Forced: cmd.Kind.forced(), Speed: b.EffectiveSpeed(c)}
		if cmd.Kind == CommandFight {
			if move, err := b.data.Move(cmd.MoveID); err == nil {
				e.Priority = b.movePriority(c, move)
			}
		}
		entries = append(entries, e)
	}
	return entries
}
