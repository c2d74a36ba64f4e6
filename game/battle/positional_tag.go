package battle

import (
	"fmt"

	"go.uber.org/zap"
)

// PositionalTagType identifies a delayed effect aimed at a field slot.
type PositionalTagType int

const (
	// PositionalDelayedAttack strikes whoever holds the slot two turns after
	// the move was used.
	PositionalDelayedAttack PositionalTagType = iota + 1
	// PositionalWish heals whoever holds the slot at the end of the next turn.
	PositionalWish
)

func (t PositionalTagType) String() string {
	switch t {
	case PositionalDelayedAttack:
		return "delayed_attack"
	case PositionalWish:
		return "wish"
	}
	return fmt.Sprintf("positional(%d)", int(t))
}

// PositionalTag is a pending slot-scoped effect. It is not owned by the
// combatant in the slot and survives that combatant being replaced.
type PositionalTag struct {
	Type       PositionalTagType `json:"type"`
	TurnsLeft  int               `json:"turns_left"`
	TargetSlot BattlerIndex      `json:"target_slot"`
	SourceID   int               `json:"source_id"`
	SourceMove int               `json:"source_move"`
	// Amount is fixed when the tag is created, such as the HP a wish restores.
	Amount int `json:"amount"`
	// Seq is the creation order.
	Seq int `json:"seq"`
}

type positionalBehavior struct {
	turns         int
	shouldTrigger func(b *Battle, tag *PositionalTag) bool
	trigger       func(b *Battle, tag *PositionalTag)
}

var positionalBehaviors map[PositionalTagType]*positionalBehavior

func init() {
	positionalBehaviors = map[PositionalTagType]*positionalBehavior{
		PositionalDelayedAttack: {
			turns: 3,
			shouldTrigger: func(b *Battle, tag *PositionalTag) bool {
				t := b.Active(tag.TargetSlot)
				return t != nil && t.onField()
			},
			trigger: triggerDelayedAttack,
		},
		PositionalWish: {
			turns: 2,
			shouldTrigger: func(b *Battle, tag *PositionalTag) bool {
				t := b.Active(tag.TargetSlot)
				return t != nil && t.onField() && !t.IsFullHP()
			},
			trigger: func(b *Battle, tag *PositionalTag) {
				b.healHP(b.Active(tag.TargetSlot), tag.Amount, SourcePositional)
			},
		},
	}
}

func positionalBehaviorOf(t PositionalTagType) *positionalBehavior {
	beh, ok := positionalBehaviors[t]
	if !ok {
		panic(fmt.Errorf("battle: no behavior for positional tag %d", int(t)))
	}
	return beh
}

// PositionalTagManager holds pending positional effects in creation order.
type PositionalTagManager struct {
	tags []*PositionalTag
	seq  int
}

func newPositionalTagManager() *PositionalTagManager {
	return &PositionalTagManager{}
}

// CanAddTag reports whether no effect of type t already targets slot.
func (m *PositionalTagManager) CanAddTag(t PositionalTagType, slot BattlerIndex) bool {
	for _, tag := range m.tags {
		if tag.Type == t && tag.TargetSlot == slot {
			return false
		}
	}
	return true
}

// AddTag queues an effect against slot. It does not check CanAddTag.
func (m *PositionalTagManager) AddTag(t PositionalTagType, slot BattlerIndex, source *Combatant, sourceMove, amount int) *PositionalTag {
	m.seq++
	tag := &PositionalTag{
		Type:       t,
		TurnsLeft:  positionalBehaviorOf(t).turns,
		TargetSlot: slot,
		SourceMove: sourceMove,
		Amount:     amount,
		Seq:        m.seq,
	}
	if source != nil {
		tag.SourceID = source.id
	}
	m.tags = append(m.tags, tag)
	return tag
}

// Tags returns copies of the pending effects in creation order.
func (m *PositionalTagManager) Tags() []PositionalTag {
	out := make([]PositionalTag, len(m.tags))
	for i, t := range m.tags {
		out[i] = *t
	}
	return out
}

// ActivateAll ticks every pending effect down once. Effects that reach zero
// trigger, oldest first, if their predicate still holds; the rest are kept.
// Effects added while triggering wait for the next call.
func (m *PositionalTagManager) ActivateAll(b *Battle) {
	pending := m.tags
	m.tags = nil
	var keep []*PositionalTag
	for _, tag := range pending {
		tag.TurnsLeft--
		if tag.TurnsLeft > 0 {
			keep = append(keep, tag)
			continue
		}
		beh := positionalBehaviorOf(tag.Type)
		if !beh.shouldTrigger(b, tag) {
			b.logger.Debug("positional tag lapsed without trigger",
				zap.Stringer("tag", tag.Type), zap.Int("slot", int(tag.TargetSlot)))
			continue
		}
		b.emit(EventPositionalTriggered{Tag: tag.Type, Slot: tag.TargetSlot})
		beh.trigger(b, tag)
	}
	m.tags = append(keep, m.tags...)
}

// triggerDelayedAttack resolves the stored move from its original user
// against the slot's current occupant, whether or not the user is still on
// the field.
func triggerDelayedAttack(b *Battle, tag *PositionalTag) {
	target := b.Active(tag.TargetSlot)
	source := b.Combatant(tag.SourceID)
	move, err := b.data.Move(tag.SourceMove)
	if err != nil || source == nil {
		b.logger.Warn("delayed attack lost its source",
			zap.Int("source", tag.SourceID), zap.Int("move", tag.SourceMove), zap.Error(err))
		return
	}
	eff := b.typeEffectiveness(move.Type, target)
	if eff == 0 {
		b.emit(EventImmune{Target: RefCombatant(target), MoveID: move.ID})
		return
	}
	dmg := b.calcDamage(source, target, move, float64(move.Power), false, eff)
	b.dealDamage(target, dmg, damageInfo{Source: SourcePositional, Effectiveness: eff})
}
