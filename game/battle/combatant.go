package battle

import (
	"fmt"

	"github.com/kasuganosora/battlecore/game/attr"
)

// MaxMoves is the size of a combatant's moveset.
const MaxMoves = 4

// MoveSlot is one known move and its remaining uses.
type MoveSlot struct {
	MoveID int `json:"move_id"`
	PP     int `json:"pp"`
	MaxPP  int `json:"max_pp"`
}

// CombatantConfig describes a combatant to add to a party.
type CombatantConfig struct {
	SpeciesID int
	Name      string // defaults to the species name
	Level     int    // defaults to 50
	AbilityID int    // defaults to the species' first ability
	PassiveID int
	ItemID    int
	Moves     []int
	// Stats overrides the computed permanent stats when any entry is non-zero.
	Stats [PermanentStats]int
	// HP starts below max when positive.
	HP int
}

// TurnData is per-turn scratch state, reset at the start of every turn.
type TurnData struct {
	Command     *TurnCommand
	Acted       bool
	Cancelled   bool
	Failed      bool
	HitsTaken   int
	DamageTaken int
	// Protecting is set when a protection move succeeded this turn.
	Protecting bool
}

// Combatant is one participant in the battle. Its tags are owned by the
// battle's TagRegistry and looked up by ID.
type Combatant struct {
	id         int
	species    *SpeciesData
	name       string
	side       Side
	partyIndex int
	slot       BattlerIndex
	level      int

	hp     int
	stats  [PermanentStats]int
	stages [StagedStats]int
	types  []Type

	abilityID int
	passiveID int
	itemID    int
	moves     []MoveSlot

	status      StatusEffect
	statusTurns int

	turn          TurnData
	lastMoveID    int
	protectStreak int
	// firstTurn is the first turn the combatant can act after entering the
	// field.
	firstTurn int
	// forcedMoveID is a move the combatant must continue next turn.
	forcedMoveID int
}

func newCombatant(id int, side Side, partyIndex int, sp *SpeciesData, cfg CombatantConfig, data DataProvider) (*Combatant, error) {
	level := cfg.Level
	if level <= 0 {
		level = 50
	}
	c := &Combatant{
		id:         id,
		species:    sp,
		name:       cfg.Name,
		side:       side,
		partyIndex: partyIndex,
		slot:       NoSlot,
		level:      level,
		abilityID:  cfg.AbilityID,
		passiveID:  cfg.PassiveID,
		itemID:     cfg.ItemID,
		types:      append([]Type(nil), sp.Types...),
	}
	if c.name == "" {
		c.name = sp.Name
	}
	if c.abilityID == 0 && len(sp.Abilities) > 0 {
		c.abilityID = sp.Abilities[0]
	}

	override := false
	for _, v := range cfg.Stats {
		if v != 0 {
			override = true
			break
		}
	}
	if override {
		c.stats = cfg.Stats
	} else {
		c.stats = computeStats(sp.BaseStats, level)
	}
	if c.stats[StatHP] < 1 {
		c.stats[StatHP] = 1
	}
	c.hp = c.stats[StatHP]
	if cfg.HP > 0 && cfg.HP < c.hp {
		c.hp = cfg.HP
	}

	if len(cfg.Moves) > MaxMoves {
		return nil, fmt.Errorf("combatant %s: %d moves, at most %d", c.name, len(cfg.Moves), MaxMoves)
	}
	for _, id := range cfg.Moves {
		m, err := data.Move(id)
		if err != nil {
			return nil, fmt.Errorf("combatant %s: %w", c.name, err)
		}
		c.moves = append(c.moves, MoveSlot{MoveID: id, PP: m.PP, MaxPP: m.PP})
	}
	return c, nil
}

// computeStats derives permanent stats from base stats at a level.
func computeStats(base [PermanentStats]int, level int) [PermanentStats]int {
	var out [PermanentStats]int
	out[StatHP] = 2*base[StatHP]*level/100 + level + 10
	for s := StatAtk; s <= StatSpd; s++ {
		out[s] = 2*base[s]*level/100 + 5
	}
	return out
}

func (c *Combatant) ID() int                { return c.id }
func (c *Combatant) Name() string           { return c.name }
func (c *Combatant) Side() Side             { return c.side }
func (c *Combatant) PartyIndex() int        { return c.partyIndex }
func (c *Combatant) Slot() BattlerIndex     { return c.slot }
func (c *Combatant) Level() int             { return c.level }
func (c *Combatant) HP() int                { return c.hp }
func (c *Combatant) MaxHP() int             { return c.stats[StatHP] }
func (c *Combatant) SpeciesID() int         { return c.species.ID }
func (c *Combatant) AbilityID() int         { return c.abilityID }
func (c *Combatant) PassiveID() int         { return c.passiveID }
func (c *Combatant) ItemID() int            { return c.itemID }
func (c *Combatant) Status() StatusEffect   { return c.status }
func (c *Combatant) Turn() *TurnData        { return &c.turn }
func (c *Combatant) LastMoveID() int        { return c.lastMoveID }
func (c *Combatant) Types() []Type          { return append([]Type(nil), c.types...) }
func (c *Combatant) IsFainted() bool        { return c.hp <= 0 || c.status == StatusFaint }
func (c *Combatant) IsActive() bool         { return c.slot != NoSlot }
func (c *Combatant) Moves() []MoveSlot      { return append([]MoveSlot(nil), c.moves...) }
func (c *Combatant) Stat(s Stat) int        { return c.stats[s] }
func (c *Combatant) IsFullHP() bool         { return c.hp >= c.stats[StatHP] }
func (c *Combatant) Stage(s Stat) int       { return c.stages[s.stageIndex()] }
func (c *Combatant) String() string         { return fmt.Sprintf("%s#%d", c.name, c.id) }
func (c *Combatant) onField() bool          { return c.IsActive() && !c.IsFainted() }
func (c *Combatant) hpFraction(den int) int { return max(1, c.MaxHP()/den) }

// HasType reports whether the combatant currently has type t.
func (c *Combatant) HasType(t Type) bool {
	for _, ct := range c.types {
		if ct == t {
			return true
		}
	}
	return false
}

// abilitySources lists the primary then the passive ability for the
// attribute pipeline.
func (c *Combatant) abilitySources() []attr.Source {
	srcs := make([]attr.Source, 0, 2)
	if c.abilityID != 0 {
		srcs = append(srcs, attr.Ability(c.abilityID))
	}
	if c.passiveID != 0 && c.passiveID != c.abilityID {
		srcs = append(srcs, attr.Ability(c.passiveID))
	}
	return srcs
}

// addStage shifts a staged stat, clamped to the stage bounds, and returns the
// change actually applied.
func (c *Combatant) addStage(s Stat, delta int) int {
	i := s.stageIndex()
	before := c.stages[i]
	c.stages[i] = min(MaxStage, max(MinStage, before+delta))
	return c.stages[i] - before
}

func (c *Combatant) resetStages() { c.stages = [StagedStats]int{} }

// setHP clamps v to [0, max] and returns the signed change.
func (c *Combatant) setHP(v int) int {
	v = min(c.MaxHP(), max(0, v))
	delta := v - c.hp
	c.hp = v
	return delta
}

// moveIndex returns the moveset index of moveID or -1.
func (c *Combatant) moveIndex(moveID int) int {
	for i, m := range c.moves {
		if m.MoveID == moveID {
			return i
		}
	}
	return -1
}

// usableMoves returns the indices of moves with PP left.
func (c *Combatant) usableMoves() []int {
	var out []int
	for i, m := range c.moves {
		if m.PP > 0 {
			out = append(out, i)
		}
	}
	return out
}

// StageMultiplier returns the stat multiplier of a battle stage:
// max(2, 2+s) / max(2, 2-s).
func StageMultiplier(stage int) float64 {
	return float64(max(2, 2+stage)) / float64(max(2, 2-stage))
}

// AccuracyStageMultiplier is the accuracy/evasion variant:
// max(3, 3+s) / max(3, 3-s).
func AccuracyStageMultiplier(stage int) float64 {
	return float64(max(3, 3+stage)) / float64(max(3, 3-stage))
}
