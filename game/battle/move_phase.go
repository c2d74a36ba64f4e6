package battle

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/kasuganosora/battlecore/game/attr"
	"github.com/kasuganosora/battlecore/game/phase"
)

// MovePhase is one combatant's attempt to use a move: the checks that can
// stop it, PP, targeting and the per-use attributes. Hitting the targets is
// queued as a MoveEffectPhase.
type MovePhase struct {
	b    *Battle
	user *Combatant
	cmd  TurnCommand
}

func (p *MovePhase) Name() string { return "move" }

func (p *MovePhase) Run(s *phase.Scheduler) error {
	b, user := p.b, p.user
	if !user.onField() || user.turn.Acted {
		b.logger.Debug("move skipped", zap.Stringer("combatant", user))
		return nil
	}
	move, err := b.data.Move(p.cmd.MoveID)
	if err != nil {
		return fmt.Errorf("move phase: %w", err)
	}
	user.turn.Acted = true
	followUp := p.cmd.mode == UseFollowUp

	b.tags.Lapse(user.id, LapsePreMove)
	if user.turn.Cancelled || !b.statusAllowsMove(user) {
		b.interruptMove(user)
		s.EnqueueNext(&MoveEndPhase{b: b, user: user})
		return nil
	}

	idx := user.moveIndex(move.ID)
	if !followUp && (idx < 0 || user.moves[idx].PP <= 0) {
		b.failMove(user, move, FailNoPP)
		s.EnqueueNext(&MoveEndPhase{b: b, user: user})
		return nil
	}

	b.tags.Lapse(user.id, LapseMove)
	if user.turn.Cancelled || !user.onField() {
		b.interruptMove(user)
		if user.onField() {
			s.EnqueueNext(&MoveEndPhase{b: b, user: user})
		}
		return nil
	}

	b.emit(EventMoveUsed{User: RefCombatant(user), MoveID: move.ID})
	if !followUp {
		user.moves[idx].PP--
	}
	user.lastMoveID = move.ID

	targets := b.resolveTargets(user, move, p.cmd.Target)
	if move.Target.hitsCombatants() && len(targets) == 0 {
		b.failMove(user, move, FailNoTarget)
		s.EnqueueNext(&MoveEndPhase{b: b, user: user})
		return nil
	}

	src := attr.Move(move.ID)
	cond := &MoveConditionContext{Battle: b, User: user, Move: move, Targets: targets}
	attr.Apply(b.attrs, src, PointMoveCondition, cond)
	if cond.Failed {
		b.failMove(user, move, FailCondition)
		s.EnqueueNext(&MoveEndPhase{b: b, user: user})
		return nil
	}

	use := &UseContext{Battle: b, User: user, Move: move, Mode: p.cmd.mode, Targets: targets}
	attr.Apply(b.attrs, src, PointMoveUse, use)
	switch {
	case use.Failed:
		b.failMove(user, move, FailNoEffect)
	case !use.Deferred && move.Target.hitsCombatants():
		s.EnqueueNext(&MoveEffectPhase{b: b, user: user, move: move, targets: targets})
	}
	s.EnqueueNext(&MoveEndPhase{b: b, user: user})
	return nil
}

// statusAllowsMove applies sleep, freeze and paralysis to a move attempt.
func (b *Battle) statusAllowsMove(c *Combatant) bool {
	switch c.status {
	case StatusSleep:
		c.statusTurns--
		if c.statusTurns <= 0 {
			b.cureStatus(c)
			return true
		}
	case StatusFreeze:
		if b.rng.Percent(20) {
			b.cureStatus(c)
			return true
		}
	case StatusParalysis:
		if !b.rng.Percent(25) {
			return true
		}
	default:
		return true
	}
	c.turn.Cancelled = true
	b.emit(EventMoveCancelled{User: RefCombatant(c), Reason: c.status.String()})
	return false
}

// interruptMove abandons any move c was in the middle of.
func (b *Battle) interruptMove(c *Combatant) {
	c.turn.Failed = true
	if c.forcedMoveID != 0 {
		c.forcedMoveID = 0
		b.tags.Remove(c.id, TagCharging)
	}
}

func (b *Battle) failMove(c *Combatant, move *MoveData, reason string) {
	c.turn.Failed = true
	b.emit(EventMoveFailed{User: RefCombatant(c), MoveID: move.ID, Reason: reason})
}

// resolveTargets picks the combatants a move is aimed at. A single target
// that is gone is replaced by the first opponent still standing.
func (b *Battle) resolveTargets(user *Combatant, move *MoveData, slot BattlerIndex) []*Combatant {
	switch move.Target {
	case TargetNearOther:
		if t := b.Active(slot); t != nil && t.onField() && t.side != user.side {
			return []*Combatant{t}
		}
		if opp := b.opponents(user); len(opp) > 0 {
			return opp[:1]
		}
		return nil
	case TargetUser:
		return []*Combatant{user}
	case TargetAllOpponents:
		return b.opponents(user)
	case TargetAllOthers:
		var out []*Combatant
		for _, c := range b.activeCombatants() {
			if c != user {
				out = append(out, c)
			}
		}
		return out
	}
	return nil
}

// MoveEffectPhase resolves a move against each of its targets in turn.
type MoveEffectPhase struct {
	b       *Battle
	user    *Combatant
	move    *MoveData
	targets []*Combatant
}

func (p *MoveEffectPhase) Name() string { return "move_effect" }

func (p *MoveEffectPhase) Run(*phase.Scheduler) error {
	b, user := p.b, p.user
	hit, selfDone := false, false
	for _, target := range p.targets {
		if user.IsFainted() {
			break
		}
		if !target.onField() {
			continue
		}
		ctx := &HitContext{
			Battle:        b,
			User:          user,
			Target:        target,
			Move:          p.move,
			FirstTarget:   !selfDone,
			Power:         float64(p.move.Power),
			Effectiveness: 1,
			Chance:        NewEffectChance(p.move.EffectChance),
		}
		landed, effects := b.hitTarget(ctx)
		hit = hit || landed
		selfDone = selfDone || effects
	}
	if !hit {
		user.turn.Failed = true
	}
	b.tags.Lapse(user.id, LapseMoveEffect)
	return nil
}

// hitTarget runs one target through protection, accuracy, damage and
// effects. It reports whether the move connected and whether the move's
// effects ran.
func (b *Battle) hitTarget(ctx *HitContext) (landed, effects bool) {
	user, target, move := ctx.User, ctx.Target, ctx.Move
	self := target == user

	if !self {
		if !move.Flags.Has(FlagIgnoreProtect) && b.tags.Has(target.id, TagProtected) {
			b.tags.LapseCustom(target.id, TagProtected)
			b.emit(EventMoveFailed{User: RefCombatant(user), MoveID: move.ID, Reason: FailBlocked})
			return false, false
		}
		if !b.accuracyCheck(user, target, move) {
			b.emit(EventMiss{User: RefCombatant(user), Target: RefCombatant(target)})
			return false, false
		}
		if b.abilityHit(PointPreDefend, target, ctx).Stopped || ctx.Cancelled {
			return false, false
		}
	}

	var sub *BattlerTag
	if !self && !move.Flags.Has(FlagIgnoreSubstitute) {
		sub = b.tags.Get(target.id, TagSubstitute)
	}

	if move.IsDamaging() {
		ctx.Effectiveness = b.typeEffectiveness(move.Type, target)
		if ctx.Effectiveness == 0 {
			b.emit(EventImmune{Target: RefCombatant(target), MoveID: move.ID})
			return false, false
		}
		b.abilityHit(PointMovePower, user, ctx)
		if !self {
			b.abilityHit(PointMovePower, target, ctx)
		}
		ctx.Critical = b.rollCritical()
		ctx.Damage = b.calcDamage(user, target, move, ctx.Power, ctx.Critical, ctx.Effectiveness)

		if sub != nil {
			sub.Data -= ctx.Damage
			b.tags.Lapse(target.id, LapseHit)
			return true, false
		}
		ctx.Damage = b.dealDamage(target, ctx.Damage, damageInfo{
			Source:        SourceMove,
			Critical:      ctx.Critical,
			Effectiveness: ctx.Effectiveness,
		})
		target.turn.HitsTaken++
		b.tags.Lapse(target.id, LapseHit)
		b.tags.Lapse(target.id, LapseAfterHit)
	} else if sub != nil {
		b.emit(EventMoveFailed{User: RefCombatant(user), MoveID: move.ID, Reason: FailBlocked})
		return false, false
	}

	if b.field.HasTag(ArenaWaterFirePledge, ArenaSideOf(user.side)) {
		ctx.Chance.Scale(2)
	}
	b.abilityHit(PointEffectChance, user, ctx)
	if !self {
		b.abilityHit(PointEffectChance, target, ctx)
	}
	src := attr.Move(move.ID)
	if attr.Has(b.attrs, src, PointHitEffect) {
		ctx.Fires = ctx.Chance.Roll(b.rng)
	}
	attr.Apply(b.attrs, src, PointHitEffect, ctx)
	if !self {
		b.abilityHit(PointPostDefend, target, ctx)
	}
	return true, true
}

// MoveEndPhase closes a move attempt.
type MoveEndPhase struct {
	b    *Battle
	user *Combatant
}

func (p *MoveEndPhase) Name() string { return "move_end" }

func (p *MoveEndPhase) Run(*phase.Scheduler) error {
	user := p.user
	if !user.turn.Protecting {
		user.protectStreak = 0
	}
	if !user.onField() {
		return nil
	}
	p.b.tags.Lapse(user.id, LapseAfterMove)
	return nil
}
