package battle

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kasuganosora/battlecore/game/attr"
	"github.com/kasuganosora/battlecore/game/phase"
	"github.com/kasuganosora/battlecore/game/rng"
)

var (
	// ErrNotStarted is returned by run entry points before Start.
	ErrNotStarted = errors.New("battle: not started")
	// ErrBattleOver is returned once the battle has a result.
	ErrBattleOver = errors.New("battle: already over")
)

// DefaultMaxTurns ends a battle in a draw when no limit is configured.
const DefaultMaxTurns = 500

// BattleConfig configures a Battle.
type BattleConfig struct {
	ID     string // empty = random UUID
	Data   DataProvider
	Logger *zap.Logger
	Seed   int64
	// Attrs is a compiled attribute registry shared between battles. When nil
	// the battle compiles the moves and abilities of its own combatants.
	Attrs   *attr.Registry
	TurnMgr TurnManager // nil = DefaultTurnManager
	Sink    Sink        // nil = discard
	Format  Format      // 0 = FormatSingle
	// Wild battles can be run from.
	Wild     bool
	Player   DecisionProvider // nil = AIDecisions
	Enemy    DecisionProvider // nil = AIDecisions
	MaxTurns int              // 0 = DefaultMaxTurns
}

// Battle is one running battle. It is not safe for concurrent use: a single
// goroutine drives it through Start and the run entry points.
type Battle struct {
	id       string
	format   Format
	wild     bool
	maxTurns int

	data     DataProvider
	attrs    *attr.Registry
	ownAttrs bool
	compiled map[attr.Source]bool
	rng      *rng.Source
	sched    *phase.Scheduler
	sink     Sink
	logger   *zap.Logger
	turnMgr  TurnManager
	deciders [2]DecisionProvider

	parties    [2][]*Combatant
	active     [4]*Combatant
	combatants map[int]*Combatant
	nextID     int

	tags  *TagRegistry
	field *Field

	turn        int
	seq         int
	log         []ActionLogEntry
	result      Result
	started     bool
	pending     []PendingDecision
	runAttempts int
	// turnStarted is set once the turn's actions are ordered. A combatant
	// entering after that point first acts next turn.
	turnStarted bool
	turnDone    bool
}

// NewBattle creates a battle. Combatants are added with AddCombatant before
// Start.
func NewBattle(cfg BattleConfig) (*Battle, error) {
	if cfg.Data == nil {
		return nil, errors.New("battle: no data provider")
	}
	if cfg.ID == "" {
		cfg.ID = uuid.NewString()
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.TurnMgr == nil {
		cfg.TurnMgr = DefaultTurnManager{}
	}
	if cfg.Sink == nil {
		cfg.Sink = nopSink{}
	}
	if cfg.Format != FormatDouble {
		cfg.Format = FormatSingle
	}
	if cfg.Player == nil {
		cfg.Player = AIDecisions{}
	}
	if cfg.Enemy == nil {
		cfg.Enemy = AIDecisions{}
	}
	if cfg.MaxTurns <= 0 {
		cfg.MaxTurns = DefaultMaxTurns
	}

	logger := cfg.Logger.With(zap.String("battle_id", cfg.ID))
	b := &Battle{
		id:         cfg.ID,
		format:     cfg.Format,
		wild:       cfg.Wild,
		maxTurns:   cfg.MaxTurns,
		data:       cfg.Data,
		attrs:      cfg.Attrs,
		rng:        rng.New(cfg.Seed),
		sched:      phase.New(logger),
		sink:       cfg.Sink,
		logger:     logger,
		turnMgr:    cfg.TurnMgr,
		deciders:   [2]DecisionProvider{cfg.Player, cfg.Enemy},
		combatants: make(map[int]*Combatant),
		nextID:     1,
	}
	if b.attrs == nil {
		b.attrs = attr.NewRegistry()
		b.ownAttrs = true
		b.compiled = make(map[attr.Source]bool)
	}
	b.tags = newTagRegistry(b)
	b.field = newField(b)
	return b, nil
}

// AddCombatant appends a combatant to side's party.
func (b *Battle) AddCombatant(side Side, cfg CombatantConfig) (*Combatant, error) {
	if b.started {
		return nil, errors.New("battle: cannot add combatants after start")
	}
	sp, err := b.data.Species(cfg.SpeciesID)
	if err != nil {
		return nil, err
	}
	c, err := newCombatant(b.nextID, side, len(b.parties[side]), sp, cfg, b.data)
	if err != nil {
		return nil, err
	}
	if b.ownAttrs {
		if err := b.compileFor(c); err != nil {
			return nil, err
		}
	}
	b.nextID++
	b.parties[side] = append(b.parties[side], c)
	b.combatants[c.id] = c
	return c, nil
}

// compileFor compiles the attributes of c's moves and abilities into the
// battle's private registry.
func (b *Battle) compileFor(c *Combatant) error {
	for _, m := range c.moves {
		src := attr.Move(m.MoveID)
		if b.compiled[src] {
			continue
		}
		md, err := b.data.Move(m.MoveID)
		if err != nil {
			return err
		}
		if err := CompileAttrs(b.attrs, src, md.Attrs); err != nil {
			return err
		}
		b.compiled[src] = true
	}
	for _, src := range c.abilitySources() {
		if b.compiled[src] {
			continue
		}
		ad, err := b.data.Ability(src.ID)
		if err != nil {
			return err
		}
		if err := CompileAttrs(b.attrs, src, ad.Attrs); err != nil {
			return err
		}
		b.compiled[src] = true
	}
	return nil
}

// Start sends out each side's leads and queues the first turn.
func (b *Battle) Start() error {
	if b.started {
		return errors.New("battle: already started")
	}
	for s, party := range b.parties {
		if !partyAlive(party) {
			return fmt.Errorf("battle: %s side has no combatant able to fight", Side(s))
		}
	}
	b.started = true
	b.turnStarted = true
	b.logger.Info("battle start",
		zap.Int64("seed", b.rng.Seed()), zap.Int("format", int(b.format)), zap.Bool("wild", b.wild))
	b.emit(EventBattleStart{
		BattleID: b.id,
		Seed:     b.rng.Seed(),
		Player:   snapshotParty(b, b.parties[SidePlayer]),
		Enemy:    snapshotParty(b, b.parties[SideEnemy]),
	})

	var leads []BattlerIndex
	for s := SidePlayer; s <= SideEnemy; s++ {
		next := 0
		for pos := 0; pos < int(b.format); pos++ {
			for next < len(b.parties[s]) && b.parties[s][next].IsFainted() {
				next++
			}
			if next >= len(b.parties[s]) {
				break
			}
			slot := slotFor(s, pos)
			b.sched.EnqueueEnd(&SummonPhase{b: b, slot: slot, partyIndex: next})
			leads = append(leads, slot)
			next++
		}
	}
	for _, slot := range leads {
		b.sched.EnqueueEnd(&PostSummonPhase{b: b, slot: slot})
	}
	b.sched.EnqueueEnd(&TurnInitPhase{b: b})
	return nil
}

// RunTurn runs until the current turn ends. It returns ErrDecisionPending
// when the battle is waiting for a command; submit it and call RunTurn again
// to carry on from the same point.
func (b *Battle) RunTurn(ctx context.Context) error {
	if err := b.runnable(); err != nil {
		return err
	}
	b.turnDone = false
	if err := b.sched.RunUntil(ctx, func() bool { return b.turnDone }); err != nil {
		return err
	}
	if !b.turnDone && !b.sched.Halted() && b.sched.State() == phase.StateSuspended {
		return ErrDecisionPending
	}
	return nil
}

// RunToNextDecisionPoint runs until the battle needs outside input or ends.
// PendingDecisions reports what it is waiting for.
func (b *Battle) RunToNextDecisionPoint(ctx context.Context) error {
	if err := b.runnable(); err != nil {
		return err
	}
	return b.sched.Run(ctx)
}

func (b *Battle) runnable() error {
	if !b.started {
		return ErrNotStarted
	}
	if b.result != ResultNone {
		return ErrBattleOver
	}
	return nil
}

// Forfeit ends the battle with side conceding.
func (b *Battle) Forfeit(side Side) error {
	if err := b.runnable(); err != nil {
		return err
	}
	if side == SidePlayer {
		b.endBattle(ResultForfeit)
	} else {
		b.endBattle(ResultVictory)
	}
	return nil
}

// endBattle records the result and stops the scheduler.
func (b *Battle) endBattle(r Result) {
	if b.result != ResultNone {
		return
	}
	b.result = r
	b.pending = nil
	b.logger.Info("battle end", zap.Stringer("result", r), zap.Int("turns", b.turn))
	b.emit(EventBattleEnd{Result: r, Turns: b.turn})
	b.sched.Halt()
}

// checkBattleEnd returns the result if either side has nobody left.
func (b *Battle) checkBattleEnd() Result {
	playerAlive := partyAlive(b.parties[SidePlayer])
	enemyAlive := partyAlive(b.parties[SideEnemy])
	switch {
	case !playerAlive && !enemyAlive:
		return ResultDraw
	case !enemyAlive:
		return ResultVictory
	case !playerAlive:
		return ResultDefeat
	}
	return ResultNone
}

func partyAlive(party []*Combatant) bool {
	for _, c := range party {
		if !c.IsFainted() {
			return true
		}
	}
	return false
}

func (b *Battle) ID() string                  { return b.id }
func (b *Battle) Turn() int                   { return b.turn }
func (b *Battle) Result() Result              { return b.result }
func (b *Battle) Field() *Field               { return b.field }
func (b *Battle) Tags() *TagRegistry          { return b.tags }
func (b *Battle) Format() Format              { return b.format }
func (b *Battle) Seed() int64                 { return b.rng.Seed() }
func (b *Battle) Wild() bool                   { return b.wild }
func (b *Battle) Combatant(id int) *Combatant { return b.combatants[id] }

// Party returns side's combatants in party order.
func (b *Battle) Party(side Side) []*Combatant {
	return append([]*Combatant(nil), b.parties[side]...)
}

// Active returns the combatant in slot, or nil.
func (b *Battle) Active(slot BattlerIndex) *Combatant {
	if slot < 0 || int(slot) >= len(b.active) {
		return nil
	}
	return b.active[slot]
}

// PendingDecisions lists the slots the battle is waiting on.
func (b *Battle) PendingDecisions() []PendingDecision {
	return append([]PendingDecision(nil), b.pending...)
}

// slots lists the field slots in use for the battle's format, player side
// first.
func (b *Battle) slots() []BattlerIndex {
	out := make([]BattlerIndex, 0, 2*int(b.format))
	for s := SidePlayer; s <= SideEnemy; s++ {
		for pos := 0; pos < int(b.format); pos++ {
			out = append(out, slotFor(s, pos))
		}
	}
	return out
}

// activeCombatants returns the combatants on the field in slot order.
func (b *Battle) activeCombatants() []*Combatant {
	var out []*Combatant
	for _, c := range b.active {
		if c != nil && c.onField() {
			out = append(out, c)
		}
	}
	return out
}

// opponents returns the combatants on the field opposing c, in slot order.
func (b *Battle) opponents(c *Combatant) []*Combatant {
	var out []*Combatant
	for _, o := range b.activeCombatants() {
		if o.side != c.side {
			out = append(out, o)
		}
	}
	return out
}

// hasBench reports whether side has a healthy combatant off the field.
func (b *Battle) hasBench(side Side) bool {
	for _, c := range b.parties[side] {
		if !c.IsFainted() && !c.IsActive() {
			return true
		}
	}
	return false
}

// emit numbers evt, appends it to the action log and hands it to the sink.
func (b *Battle) emit(evt BattleEvent) {
	b.seq++
	b.record(evt)
	b.sink.Notify(Notification{BattleID: b.id, Seq: b.seq, Turn: b.turn, Event: evt})
}

// dealDamage takes amt HP from c and queues its faint at zero. A combatant
// enduring survives a hit from a move with 1 HP.
func (b *Battle) dealDamage(c *Combatant, amt int, info damageInfo) int {
	if c == nil || amt <= 0 || c.IsFainted() {
		return 0
	}
	if amt >= c.hp && info.Source == SourceMove && b.tags.LapseCustom(c.id, TagEndure) {
		amt = c.hp - 1
		if amt <= 0 {
			return 0
		}
	}
	dealt := -c.setHP(c.hp - amt)
	c.turn.DamageTaken += dealt
	b.emit(EventDamage{
		Target:        RefCombatant(c),
		Amount:        dealt,
		HPAfter:       c.hp,
		Source:        info.Source,
		Critical:      info.Critical,
		Effectiveness: info.Effectiveness,
	})
	if c.hp == 0 {
		b.sched.EnqueueNext(&FaintPhase{b: b, c: c})
	}
	return dealt
}

// indirectDamage is damage that is not a direct hit: weather, status, tags,
// hazards and recoil. Abilities may block it.
func (b *Battle) indirectDamage(c *Combatant, amt int, src string) int {
	if c == nil || amt <= 0 || c.IsFainted() {
		return 0
	}
	ctx := &DamageContext{Battle: b, Holder: c, Amount: amt, Source: src}
	attr.ApplyAll(b.attrs, c.abilitySources(), PointIndirectDamage, ctx)
	if ctx.Blocked {
		return 0
	}
	return b.dealDamage(c, ctx.Amount, damageInfo{Source: src})
}

// healHP restores up to amt HP and returns the amount restored.
func (b *Battle) healHP(c *Combatant, amt int, src string) int {
	if c == nil || amt <= 0 || c.IsFainted() {
		return 0
	}
	healed := c.setHP(c.hp + amt)
	if healed > 0 {
		b.emit(EventHeal{Target: RefCombatant(c), Amount: healed, HPAfter: c.hp, Source: src})
	}
	return healed
}

// changeStage shifts one stat stage now and reports the change applied.
func (b *Battle) changeStage(c *Combatant, s Stat, delta int) int {
	applied := c.addStage(s, delta)
	b.emit(EventStatStage{Target: RefCombatant(c), Stat: s, Delta: applied, Stage: c.Stage(s)})
	return applied
}

// queueStatStage schedules a stat stage change to run right after the
// current phase.
func (b *Battle) queueStatStage(target, source *Combatant, stats []Stat, delta int) {
	b.sched.EnqueueNext(&StatStageChangePhase{b: b, target: target, source: source, stats: stats, delta: delta})
}

// queueStatus schedules a status infliction to run right after the current
// phase.
func (b *Battle) queueStatus(c *Combatant, effect StatusEffect, source *Combatant) {
	b.sched.EnqueueNext(&StatusEffectPhase{b: b, target: c, effect: effect, source: source})
}

// canSetStatus reports whether effect could be inflicted on c by source
// (nil for the field).
func (b *Battle) canSetStatus(c *Combatant, effect StatusEffect, source *Combatant) bool {
	if c.IsFainted() || c.status != StatusNone {
		return false
	}
	switch effect {
	case StatusBurn:
		if c.HasType(TypeFire) {
			return false
		}
	case StatusFreeze:
		if c.HasType(TypeIce) || b.field.weather.Type == WeatherSunny {
			return false
		}
	case StatusParalysis:
		if c.HasType(TypeElectric) {
			return false
		}
	case StatusPoison, StatusToxic:
		if c.HasType(TypePoison) || c.HasType(TypeSteel) {
			return false
		}
	}
	if source != nil && source.side != c.side && b.field.HasTag(ArenaSafeguard, ArenaSideOf(c.side)) {
		return false
	}
	if b.isGrounded(c) {
		switch b.field.terrain.Type {
		case TerrainMisty:
			return false
		case TerrainElectric:
			if effect == StatusSleep {
				return false
			}
		}
	}
	ctx := &StatusContext{Battle: b, Holder: c, Source: source, Effect: effect}
	attr.ApplyAll(b.attrs, c.abilitySources(), PointStatusImmunity, ctx)
	return !ctx.Blocked
}

// trySetStatus inflicts effect if nothing prevents it.
func (b *Battle) trySetStatus(c *Combatant, effect StatusEffect, source *Combatant) bool {
	if !b.canSetStatus(c, effect, source) {
		return false
	}
	c.status = effect
	c.statusTurns = 0
	if effect == StatusSleep {
		c.statusTurns = b.rng.Int(3, 2)
	}
	b.emit(EventStatusApplied{Target: RefCombatant(c), Status: effect})
	return true
}

// cureStatus clears c's primary status.
func (b *Battle) cureStatus(c *Combatant) {
	if c.status == StatusNone || c.status == StatusFaint {
		return
	}
	old := c.status
	c.status = StatusNone
	c.statusTurns = 0
	b.emit(EventStatusCured{Target: RefCombatant(c), Status: old})
}

// canAddTag applies the field and ability rules that can block a new tag.
func (b *Battle) canAddTag(owner *Combatant, t BattlerTagType, beh *tagBehavior) bool {
	if owner.IsFainted() {
		return false
	}
	if beh.canAdd != nil && !beh.canAdd(b, owner) {
		return false
	}
	if (t == TagConfused || t == TagDrowsy) && b.field.terrain.Type == TerrainMisty && b.isGrounded(owner) {
		return false
	}
	if t == TagDrowsy && b.field.terrain.Type == TerrainElectric && b.isGrounded(owner) {
		return false
	}
	ctx := &TagContext{Battle: b, Holder: owner, Tag: t}
	attr.ApplyAll(b.attrs, owner.abilitySources(), PointTagImmunity, ctx)
	return !ctx.Blocked
}
