package battle

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/kasuganosora/battlecore/game/attr"
	"github.com/kasuganosora/battlecore/game/phase"
)

// Phases check their preconditions when they run, not when they are queued:
// a phase whose subject left the field in between is skipped.

// SummonPhase sends a party member into an empty slot.
type SummonPhase struct {
	b          *Battle
	slot       BattlerIndex
	partyIndex int
}

func (p *SummonPhase) Name() string { return "summon" }

func (p *SummonPhase) Run(*phase.Scheduler) error {
	b := p.b
	if cur := b.Active(p.slot); cur != nil && cur.onField() {
		b.logger.Debug("summon skipped: slot occupied", zap.Int("slot", int(p.slot)))
		return nil
	}
	if err := b.validateReplacement(p.slot.Side(), p.partyIndex); err != nil {
		b.logger.Debug("summon skipped", zap.Error(err))
		return nil
	}
	b.summon(b.parties[p.slot.Side()][p.partyIndex], p.slot)
	return nil
}

// summon puts c into slot and applies the side's entry effects.
func (b *Battle) summon(c *Combatant, slot BattlerIndex) {
	c.slot = slot
	b.active[slot] = c
	c.turn = TurnData{}
	c.firstTurn = b.turn
	if b.turnStarted {
		c.firstTurn = b.turn + 1
	}
	b.emit(EventSummon{Combatant: RefCombatant(c), HP: c.hp, MaxHP: c.MaxHP()})
	b.field.applySwitchIn(c)
}

// withdraw takes c off the field. Everything scoped to its time on the field
// is dropped.
func (b *Battle) withdraw(c *Combatant) {
	b.emit(EventWithdraw{Combatant: RefCombatant(c)})
	b.tags.ClearOwner(c.id)
	c.resetStages()
	c.forcedMoveID = 0
	c.protectStreak = 0
	if c.status == StatusToxic {
		c.statusTurns = 0
	}
	if c.slot != NoSlot && b.active[c.slot] == c {
		b.active[c.slot] = nil
	}
	c.slot = NoSlot
}

// PostSummonPhase runs the entry abilities of the combatant in slot.
type PostSummonPhase struct {
	b    *Battle
	slot BattlerIndex
}

func (p *PostSummonPhase) Name() string { return "post_summon" }

func (p *PostSummonPhase) Run(*phase.Scheduler) error {
	c := p.b.Active(p.slot)
	if c == nil || !c.onField() {
		return nil
	}
	attr.ApplyAll(p.b.attrs, c.abilitySources(), PointPostSummon, &SummonContext{Battle: p.b, Holder: c})
	return nil
}

// TurnInitPhase opens a turn: fills empty slots, then collects commands.
type TurnInitPhase struct {
	b *Battle
}

func (p *TurnInitPhase) Name() string { return "turn_init" }

func (p *TurnInitPhase) Run(s *phase.Scheduler) error {
	b := p.b
	b.turn++
	b.turnStarted = false
	b.pending = nil
	b.logger.Debug("battle turn start", zap.Int("turn", b.turn))

	for _, c := range b.activeCombatants() {
		c.turn = TurnData{}
	}
	for _, slot := range b.slots() {
		if c := b.active[slot]; c == nil || c.IsFainted() {
			s.EnqueueNext(&ReplacementPhase{b: b, slot: slot})
		}
	}
	for _, slot := range b.slots() {
		s.EnqueueNext(&CommandPhase{b: b, slot: slot})
	}
	s.EnqueueNext(&TurnStartPhase{b: b})
	return nil
}

// CommandPhase gets the command of the combatant in slot. It suspends the
// battle until the slot's decision provider has one.
type CommandPhase struct {
	b    *Battle
	slot BattlerIndex
}

func (p *CommandPhase) Name() string { return "command" }

func (p *CommandPhase) Run(*phase.Scheduler) error {
	b := p.b
	c := b.Active(p.slot)
	if c == nil || !c.onField() || c.turn.Command != nil {
		return nil
	}
	if cmd, ok := b.forcedCommand(c); ok {
		c.turn.Command = &cmd
		return nil
	}

	cmd, err := b.deciders[c.side].ChooseCommand(b, c)
	if errors.Is(err, ErrDecisionPending) {
		b.requestDecision(PendingDecision{Slot: p.slot})
		return phase.ErrAwaitDecision
	}
	b.clearPending(p.slot)
	if err != nil {
		b.logger.Warn("no command chosen", zap.Stringer("combatant", c), zap.Error(err))
		return nil
	}
	valid, err := b.ValidateCommand(c, cmd)
	if err != nil {
		b.logger.Warn("command rejected", zap.Stringer("combatant", c), zap.Error(err))
		return nil
	}
	c.turn.Command = &valid
	return nil
}

// requestDecision records that the battle waits on d. The request event is
// emitted once, however many times the phase is retried.
func (b *Battle) requestDecision(d PendingDecision) {
	for _, q := range b.pending {
		if q == d {
			return
		}
	}
	b.pending = append(b.pending, d)
	b.emit(EventDecisionRequest{Slot: d.Slot, Replacement: d.Replacement})
}

func (b *Battle) clearPending(slot BattlerIndex) {
	out := b.pending[:0]
	for _, q := range b.pending {
		if q.Slot != slot {
			out = append(out, q)
		}
	}
	b.pending = out
}

// TurnStartPhase orders the turn's commands and queues them, followed by the
// end of turn phases.
type TurnStartPhase struct {
	b *Battle
}

func (p *TurnStartPhase) Name() string { return "turn_start" }

func (p *TurnStartPhase) Run(s *phase.Scheduler) error {
	b := p.b
	reversed := b.field.HasTag(ArenaTrickRoom, ArenaBoth)
	order := b.turnMgr.MakeActionOrder(b.orderEntries(), reversed, b.rng)

	refs := make([]CombatantRef, len(order))
	for i, e := range order {
		refs[i] = RefCombatant(e.Combatant)
	}
	b.turnStarted = true
	b.emit(EventTurnStart{Turn: b.turn, Order: refs})

	for _, e := range order {
		switch e.Command.Kind {
		case CommandFight:
			s.EnqueueNext(&MovePhase{b: b, user: e.Combatant, cmd: e.Command})
		case CommandSwitch:
			s.EnqueueNext(&SwitchPhase{b: b, out: e.Combatant, partyIndex: e.Command.PartyIndex})
		case CommandItem:
			s.EnqueueNext(&ItemPhase{b: b, user: e.Combatant, cmd: e.Command})
		case CommandRun:
			s.EnqueueNext(&RunPhase{b: b, user: e.Combatant})
		}
	}
	s.EnqueueNext(&WeatherPhase{b: b})
	s.EnqueueNext(&PositionalTagPhase{b: b})
	s.EnqueueNext(&PostTurnStatusPhase{b: b})
	s.EnqueueNext(&TurnEndPhase{b: b})
	return nil
}

// SwitchPhase swaps an active combatant for a bench member.
type SwitchPhase struct {
	b          *Battle
	out        *Combatant
	partyIndex int
}

func (p *SwitchPhase) Name() string { return "switch" }

func (p *SwitchPhase) Run(s *phase.Scheduler) error {
	b, out := p.b, p.out
	if !out.onField() {
		return nil
	}
	if b.trapped(out) {
		b.logger.Debug("switch skipped: trapped", zap.Stringer("combatant", out))
		return nil
	}
	if err := b.validateReplacement(out.side, p.partyIndex); err != nil {
		b.logger.Debug("switch skipped", zap.Error(err))
		return nil
	}
	slot := out.slot
	out.turn.Acted = true
	b.withdraw(out)
	b.summon(b.parties[out.side][p.partyIndex], slot)
	s.EnqueueNext(&PostSummonPhase{b: b, slot: slot})
	return nil
}

// ReplacementPhase fills a slot left empty by a faint.
type ReplacementPhase struct {
	b    *Battle
	slot BattlerIndex
}

func (p *ReplacementPhase) Name() string { return "replacement" }

func (p *ReplacementPhase) Run(s *phase.Scheduler) error {
	b := p.b
	if c := b.Active(p.slot); c != nil && c.onField() {
		return nil
	}
	side := p.slot.Side()
	if !b.hasBench(side) {
		return nil
	}
	idx, err := b.deciders[side].ChooseReplacement(b, p.slot)
	if errors.Is(err, ErrDecisionPending) {
		b.requestDecision(PendingDecision{Slot: p.slot, Replacement: true})
		return phase.ErrAwaitDecision
	}
	b.clearPending(p.slot)
	if err != nil {
		return fmt.Errorf("replacement for slot %d: %w", p.slot, err)
	}
	if err := b.validateReplacement(side, idx); err != nil {
		return fmt.Errorf("replacement for slot %d: %w", p.slot, err)
	}
	b.summon(b.parties[side][idx], p.slot)
	s.EnqueueNext(&PostSummonPhase{b: b, slot: p.slot})
	return nil
}

// ItemPhase uses a medicine on a party member.
type ItemPhase struct {
	b    *Battle
	user *Combatant
	cmd  TurnCommand
}

func (p *ItemPhase) Name() string { return "item" }

func (p *ItemPhase) Run(*phase.Scheduler) error {
	b, user := p.b, p.user
	if !user.onField() {
		return nil
	}
	item, err := b.data.Item(p.cmd.ItemID)
	if err != nil {
		return fmt.Errorf("item phase: %w", err)
	}
	party := b.parties[user.side]
	if p.cmd.PartyIndex < 0 || p.cmd.PartyIndex >= len(party) {
		return nil
	}
	target := party[p.cmd.PartyIndex]
	if target.IsFainted() {
		return nil
	}
	user.turn.Acted = true
	b.emit(EventItemUsed{User: RefCombatant(user), Target: RefCombatant(target), ItemID: item.ID})
	b.healHP(target, item.HealAmount, SourceItem)
	for _, cure := range item.Cures {
		if target.status == cure {
			b.cureStatus(target)
			break
		}
	}
	return nil
}

// escapeRatio is the chance of the first run attempt. Each failure adds
// escapeStep.
const (
	escapeRatio = 0.5
	escapeStep  = 0.1
)

// RunPhase tries to flee a wild battle.
type RunPhase struct {
	b    *Battle
	user *Combatant
}

func (p *RunPhase) Name() string { return "run" }

func (p *RunPhase) Run(*phase.Scheduler) error {
	b, user := p.b, p.user
	if !user.onField() || !b.wild {
		return nil
	}
	user.turn.Acted = true
	ok := !b.trapped(user) && b.rng.Float64() < escapeRatio+escapeStep*float64(b.runAttempts)
	b.emit(EventRunAttempt{Combatant: RefCombatant(user), Success: ok})
	if !ok {
		b.runAttempts++
		return nil
	}
	b.endBattle(ResultFled)
	return nil
}

// StatusEffectPhase inflicts a primary status queued by a move or ability.
type StatusEffectPhase struct {
	b      *Battle
	target *Combatant
	effect StatusEffect
	source *Combatant
}

func (p *StatusEffectPhase) Name() string { return "status_effect" }

func (p *StatusEffectPhase) Run(*phase.Scheduler) error {
	if !p.target.onField() {
		return nil
	}
	p.b.trySetStatus(p.target, p.effect, p.source)
	return nil
}

// StatStageChangePhase shifts stat stages queued by a move or ability. Mist
// blocks drops caused by the other side.
type StatStageChangePhase struct {
	b      *Battle
	target *Combatant
	source *Combatant
	stats  []Stat
	delta  int
}

func (p *StatStageChangePhase) Name() string { return "stat_stage_change" }

func (p *StatStageChangePhase) Run(*phase.Scheduler) error {
	b, t := p.b, p.target
	if !t.onField() {
		return nil
	}
	if p.delta < 0 && p.source != nil && p.source.side != t.side &&
		b.field.HasTag(ArenaMist, ArenaSideOf(t.side)) {
		b.logger.Debug("stat drop blocked by mist", zap.Stringer("combatant", t))
		return nil
	}
	for _, st := range p.stats {
		b.changeStage(t, st, p.delta)
	}
	return nil
}

// FaintPhase takes a combatant at zero HP off the field and checks whether
// the battle is over.
type FaintPhase struct {
	b *Battle
	c *Combatant
}

func (p *FaintPhase) Name() string { return "faint" }

func (p *FaintPhase) Run(s *phase.Scheduler) error {
	b, c := p.b, p.c
	if c.status == StatusFaint || c.hp > 0 {
		return nil
	}
	b.emit(EventFaint{Combatant: RefCombatant(c)})
	b.tags.ClearOwner(c.id)
	c.status = StatusFaint
	c.statusTurns = 0
	c.forcedMoveID = 0
	c.protectStreak = 0
	c.resetStages()
	if c.slot != NoSlot && b.active[c.slot] == c {
		b.active[c.slot] = nil
	}
	c.slot = NoSlot

	// With more faints still queued, the last one decides the result.
	for _, o := range b.combatants {
		if o.hp == 0 && o.status != StatusFaint {
			return nil
		}
	}
	if r := b.checkBattleEnd(); r != ResultNone {
		s.EnqueueNext(&BattleEndPhase{b: b, result: r})
	}
	return nil
}

// BattleEndPhase records the result and halts the scheduler.
type BattleEndPhase struct {
	b      *Battle
	result Result
}

func (p *BattleEndPhase) Name() string { return "battle_end" }

func (p *BattleEndPhase) Run(*phase.Scheduler) error {
	p.b.endBattle(p.result)
	return nil
}

// WeatherPhase deals weather damage, applies grassy terrain healing and
// ticks both down.
type WeatherPhase struct {
	b *Battle
}

func (p *WeatherPhase) Name() string { return "weather" }

func (p *WeatherPhase) Run(*phase.Scheduler) error {
	b := p.b
	w := b.field.weather.Type
	for _, c := range b.activeCombatants() {
		if w.chips(c) {
			b.indirectDamage(c, c.hpFraction(16), SourceWeather)
		}
	}
	if b.field.terrain.Type == TerrainGrassy {
		for _, c := range b.activeCombatants() {
			if b.isGrounded(c) {
				b.healHP(c, c.hpFraction(16), SourceTerrain)
			}
		}
	}
	b.field.lapseWeather()
	return nil
}

// PositionalTagPhase resolves positional effects that come due this turn.
type PositionalTagPhase struct {
	b *Battle
}

func (p *PositionalTagPhase) Name() string { return "positional_tag" }

func (p *PositionalTagPhase) Run(*phase.Scheduler) error {
	p.b.field.positional.ActivateAll(p.b)
	return nil
}

// PostTurnStatusPhase deals status damage and runs end of turn abilities.
type PostTurnStatusPhase struct {
	b *Battle
}

func (p *PostTurnStatusPhase) Name() string { return "post_turn_status" }

func (p *PostTurnStatusPhase) Run(*phase.Scheduler) error {
	b := p.b
	for _, c := range b.activeCombatants() {
		if !c.onField() {
			continue
		}
		switch c.status {
		case StatusBurn:
			b.indirectDamage(c, c.hpFraction(16), SourceStatus)
		case StatusPoison:
			b.indirectDamage(c, c.hpFraction(8), SourceStatus)
		case StatusToxic:
			c.statusTurns = min(c.statusTurns+1, 15)
			b.indirectDamage(c, max(1, c.MaxHP()*c.statusTurns/16), SourceStatus)
		}
		if !c.onField() {
			continue
		}
		attr.ApplyAll(b.attrs, c.abilitySources(), PointPostTurn, &TurnEndContext{Battle: b, Holder: c})
	}
	return nil
}

// TurnEndPhase sweeps the end of turn lapses of battler and arena tags.
type TurnEndPhase struct {
	b *Battle
}

func (p *TurnEndPhase) Name() string { return "turn_end" }

func (p *TurnEndPhase) Run(s *phase.Scheduler) error {
	b := p.b
	for _, c := range b.activeCombatants() {
		b.tags.Lapse(c.id, LapseTurnEnd)
	}
	b.field.LapseTags()
	s.EnqueueNext(&TurnCompletePhase{b: b})
	return nil
}

// TurnCompletePhase closes the turn once everything it caused has resolved,
// and queues the next one.
type TurnCompletePhase struct {
	b *Battle
}

func (p *TurnCompletePhase) Name() string { return "turn_complete" }

func (p *TurnCompletePhase) Run(s *phase.Scheduler) error {
	b := p.b
	b.emit(EventTurnEnd{Turn: b.turn})
	b.turnDone = true
	if b.turn >= b.maxTurns {
		b.endBattle(ResultDraw)
		return nil
	}
	s.EnqueueEnd(&TurnInitPhase{b: b})
	return nil
}
