package battle

// tagBehaviors is the battler tag rule table. It is filled in init because the
// hooks reach back into the registry that reads it.
var tagBehaviors map[BattlerTagType]*tagBehavior

func init() {
	tagBehaviors = map[BattlerTagType]*tagBehavior{
		TagConfused: {
			lapseTypes: []LapseType{LapseMove},
			lapse:      lapseConfused,
		},
		TagFlinched: {
			lapseTypes: []LapseType{LapsePreMove, LapseTurnEnd},
			lapse: func(b *Battle, owner *Combatant, _ *BattlerTag, lt LapseType) bool {
				if lt == LapsePreMove {
					owner.turn.Cancelled = true
					b.emit(EventMoveCancelled{User: RefCombatant(owner), Reason: TagFlinched.String()})
				}
				return false
			},
		},
		TagProtected: {
			lapseTypes: []LapseType{LapseTurnEnd, LapseCustom},
			lapse: func(b *Battle, owner *Combatant, _ *BattlerTag, lt LapseType) bool {
				if lt == LapseCustom {
					b.emit(EventTagActivated{Target: RefCombatant(owner), Tag: TagProtected})
				}
				return true
			},
		},
		TagSeeded: {
			lapseTypes: []LapseType{LapseTurnEnd},
			canAdd: func(_ *Battle, owner *Combatant) bool {
				return !owner.HasType(TypeGrass)
			},
			lapse: lapseSeeded,
		},
		TagBound: {
			lapseTypes: []LapseType{LapseTurnEnd},
			lapse: func(b *Battle, owner *Combatant, _ *BattlerTag, _ LapseType) bool {
				b.emit(EventTagActivated{Target: RefCombatant(owner), Tag: TagBound})
				b.indirectDamage(owner, owner.hpFraction(8), SourceTag)
				return true
			},
		},
		TagPerishSong: {
			lapseTypes: []LapseType{LapseTurnEnd},
			lapse: func(b *Battle, owner *Combatant, _ *BattlerTag, _ LapseType) bool {
				b.emit(EventTagActivated{Target: RefCombatant(owner), Tag: TagPerishSong})
				return true
			},
			onRemove: func(b *Battle, owner *Combatant, _ *BattlerTag, reason RemoveReason) {
				if reason == RemoveExpired && !owner.IsFainted() {
					b.dealDamage(owner, owner.hp, damageInfo{Source: SourceTag})
				}
			},
		},
		TagCharging: {
			lapseTypes: []LapseType{LapseCustom},
		},
		TagRecharging: {
			lapseTypes: []LapseType{LapsePreMove},
			lapse: func(b *Battle, owner *Combatant, _ *BattlerTag, _ LapseType) bool {
				owner.turn.Cancelled = true
				b.emit(EventMoveCancelled{User: RefCombatant(owner), Reason: TagRecharging.String()})
				return false
			},
		},
		TagSubstitute: {
			lapseTypes: []LapseType{LapseHit},
			lapse: func(b *Battle, owner *Combatant, tag *BattlerTag, _ LapseType) bool {
				b.emit(EventTagActivated{Target: RefCombatant(owner), Tag: TagSubstitute})
				return tag.Data > 0
			},
		},
		TagDrowsy: {
			lapseTypes: []LapseType{LapseTurnEnd},
			canAdd: func(b *Battle, owner *Combatant) bool {
				return owner.status == StatusNone && !b.tags.Has(owner.id, TagSubstitute)
			},
			onRemove: func(b *Battle, owner *Combatant, _ *BattlerTag, reason RemoveReason) {
				if reason == RemoveExpired && !owner.IsFainted() {
					b.queueStatus(owner, StatusSleep, nil)
				}
			},
		},
		TagStockpiling: {
			lapseTypes: []LapseType{LapseCustom},
			maxStacks:  3,
			onAdd: func(b *Battle, owner *Combatant, _ *BattlerTag) {
				b.changeStage(owner, StatDef, 1)
				b.changeStage(owner, StatSpDef, 1)
			},
		},
		TagRage: {
			lapseTypes: []LapseType{LapsePreMove, LapseAfterHit},
			lapse: func(b *Battle, owner *Combatant, tag *BattlerTag, lt LapseType) bool {
				if lt == LapsePreMove {
					cmd := owner.turn.Command
					return cmd != nil && cmd.Kind == CommandFight && cmd.MoveID == tag.SourceMove
				}
				if !owner.IsFainted() {
					b.emit(EventTagActivated{Target: RefCombatant(owner), Tag: TagRage})
					b.changeStage(owner, StatAtk, 1)
				}
				return true
			},
		},
		TagEndure: {
			lapseTypes: []LapseType{LapseTurnEnd, LapseCustom},
			lapse: func(b *Battle, owner *Combatant, _ *BattlerTag, lt LapseType) bool {
				if lt == LapseCustom {
					b.emit(EventTagActivated{Target: RefCombatant(owner), Tag: TagEndure})
				}
				return true
			},
		},
	}
}

// lapseConfused hurts the owner instead of letting it act one time in three.
// On its last counted turn the owner snaps out without rolling.
func lapseConfused(b *Battle, owner *Combatant, tag *BattlerTag, _ LapseType) bool {
	if tag.TurnsLeft <= 1 {
		return true
	}
	b.emit(EventTagActivated{Target: RefCombatant(owner), Tag: TagConfused})
	if b.rng.Int(3, 0) == 0 {
		owner.turn.Cancelled = true
		b.dealDamage(owner, b.confusionDamage(owner), damageInfo{Source: SourceConfusion})
	}
	return true
}

// lapseSeeded drains the owner and heals whoever now stands in the seeder's
// slot.
func lapseSeeded(b *Battle, owner *Combatant, tag *BattlerTag, _ LapseType) bool {
	if tag.SourceSlot == NoSlot {
		return true
	}
	receiver := b.Active(tag.SourceSlot)
	if receiver == nil || receiver.IsFainted() {
		return true
	}
	b.emit(EventTagActivated{Target: RefCombatant(owner), Tag: TagSeeded})
	if drained := b.indirectDamage(owner, owner.hpFraction(8), SourceTag); drained > 0 {
		b.healHP(receiver, drained, SourceTag)
	}
	return true
}
