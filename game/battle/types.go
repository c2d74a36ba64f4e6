package battle

import (
	"fmt"
	"strings"
)

// Stat indexes a combatant's stat table. HP through Spd are permanent stats;
// Atk through Evasion carry battle stages.
type Stat int

const (
	StatHP Stat = iota
	StatAtk
	StatDef
	StatSpAtk
	StatSpDef
	StatSpd
	StatAccuracy
	StatEvasion
)

// Number of permanent stats (HP..Spd) and number of staged stats (Atk..Evasion).
const (
	PermanentStats = 6
	StagedStats    = 7
)

// Stage bounds shared by every staged stat.
const (
	MinStage = -6
	MaxStage = 6
)

var statNames = map[Stat]string{
	StatHP:       "hp",
	StatAtk:      "atk",
	StatDef:      "def",
	StatSpAtk:    "spatk",
	StatSpDef:    "spdef",
	StatSpd:      "spd",
	StatAccuracy: "accuracy",
	StatEvasion:  "evasion",
}

func (s Stat) String() string {
	if n, ok := statNames[s]; ok {
		return n
	}
	return fmt.Sprintf("stat(%d)", int(s))
}

// ParseStat resolves a stat name as used in data files.
func ParseStat(name string) (Stat, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for s, n := range statNames {
		if n == name {
			return s, nil
		}
	}
	return 0, fmt.Errorf("unknown stat %q", name)
}

// stageIndex maps a staged stat to its slot in Combatant.stages.
func (s Stat) stageIndex() int { return int(s) - 1 }

// StatusEffect is a combatant's single primary status condition.
type StatusEffect int

const (
	StatusNone StatusEffect = iota
	StatusPoison
	StatusToxic
	StatusParalysis
	StatusSleep
	StatusFreeze
	StatusBurn
	StatusFaint
)

var statusNames = map[StatusEffect]string{
	StatusNone:      "none",
	StatusPoison:    "poison",
	StatusToxic:     "toxic",
	StatusParalysis: "paralysis",
	StatusSleep:     "sleep",
	StatusFreeze:    "freeze",
	StatusBurn:      "burn",
	StatusFaint:     "faint",
}

func (s StatusEffect) String() string {
	if n, ok := statusNames[s]; ok {
		return n
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// ParseStatus resolves a status name as used in data files.
func ParseStatus(name string) (StatusEffect, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for s, n := range statusNames {
		if n == name {
			return s, nil
		}
	}
	return 0, fmt.Errorf("unknown status %q", name)
}

// Type is an elemental type shared by moves and species.
type Type int

const (
	TypeUnknown Type = iota
	TypeNormal
	TypeFighting
	TypeFlying
	TypePoison
	TypeGround
	TypeRock
	TypeBug
	TypeGhost
	TypeSteel
	TypeFire
	TypeWater
	TypeGrass
	TypeElectric
	TypePsychic
	TypeIce
	TypeDragon
	TypeDark
	TypeFairy
)

var typeNames = []string{
	"unknown", "normal", "fighting", "flying", "poison", "ground", "rock", "bug", "ghost",
	"steel", "fire", "water", "grass", "electric", "psychic", "ice", "dragon", "dark", "fairy",
}

func (t Type) String() string {
	if int(t) >= 0 && int(t) < len(typeNames) {
		return typeNames[t]
	}
	return fmt.Sprintf("type(%d)", int(t))
}

// ParseType resolves a type name as used in data files.
func ParseType(name string) (Type, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for i, n := range typeNames {
		if n == name {
			return Type(i), nil
		}
	}
	return TypeUnknown, fmt.Errorf("unknown type %q", name)
}

// MoveCategory decides which attack and defense stats a move uses.
type MoveCategory int

const (
	CategoryPhysical MoveCategory = iota
	CategorySpecial
	CategoryStatus
)

// ParseCategory resolves a move category name.
func ParseCategory(name string) (MoveCategory, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "physical":
		return CategoryPhysical, nil
	case "special":
		return CategorySpecial, nil
	case "status":
		return CategoryStatus, nil
	}
	return 0, fmt.Errorf("unknown move category %q", name)
}

// MoveTarget describes who a move may be aimed at.
type MoveTarget int

const (
	// TargetNearOther is a single opposing combatant chosen by the command.
	TargetNearOther MoveTarget = iota
	TargetUser
	TargetAllOpponents
	TargetAllOthers
	TargetUserSide
	TargetOpponentSide
	TargetBothSides
)

var targetNames = map[string]MoveTarget{
	"near_other":    TargetNearOther,
	"user":          TargetUser,
	"all_opponents": TargetAllOpponents,
	"all_others":    TargetAllOthers,
	"user_side":     TargetUserSide,
	"opponent_side": TargetOpponentSide,
	"both_sides":    TargetBothSides,
}

// ParseTarget resolves a move target name.
func ParseTarget(name string) (MoveTarget, error) {
	if t, ok := targetNames[strings.ToLower(strings.TrimSpace(name))]; ok {
		return t, nil
	}
	return 0, fmt.Errorf("unknown move target %q", name)
}

// hitsCombatants reports whether the move resolves per target combatant
// rather than against the field.
func (t MoveTarget) hitsCombatants() bool {
	switch t {
	case TargetUserSide, TargetOpponentSide, TargetBothSides:
		return false
	}
	return true
}

// MoveFlag is a bit set of move properties.
type MoveFlag uint32

const (
	FlagContact MoveFlag = 1 << iota
	FlagSound
	FlagIgnoreProtect
	FlagIgnoreSubstitute
	FlagPunch
)

var flagNames = map[string]MoveFlag{
	"contact":           FlagContact,
	"sound":             FlagSound,
	"ignore_protect":    FlagIgnoreProtect,
	"ignore_substitute": FlagIgnoreSubstitute,
	"punch":             FlagPunch,
}

// ParseFlags folds a list of flag names into a MoveFlag set.
func ParseFlags(names []string) (MoveFlag, error) {
	var f MoveFlag
	for _, n := range names {
		v, ok := flagNames[strings.ToLower(strings.TrimSpace(n))]
		if !ok {
			return 0, fmt.Errorf("unknown move flag %q", n)
		}
		f |= v
	}
	return f, nil
}

func (f MoveFlag) Has(flag MoveFlag) bool { return f&flag != 0 }

// Side is one half of the battle.
type Side int

const (
	SidePlayer Side = iota
	SideEnemy
)

func (s Side) String() string {
	if s == SidePlayer {
		return "player"
	}
	return "enemy"
}

// Opposite returns the other side.
func (s Side) Opposite() Side { return 1 - s }

// ArenaSide scopes an arena tag to one side or the whole field.
type ArenaSide int

const (
	ArenaBoth ArenaSide = iota
	ArenaPlayer
	ArenaEnemy
)

func (s ArenaSide) String() string {
	switch s {
	case ArenaPlayer:
		return "player"
	case ArenaEnemy:
		return "enemy"
	}
	return "both"
}

// ArenaSideOf returns the arena scope covering side s.
func ArenaSideOf(s Side) ArenaSide {
	if s == SidePlayer {
		return ArenaPlayer
	}
	return ArenaEnemy
}

// covers reports whether a tag scoped to a applies to side s.
func (a ArenaSide) covers(s Side) bool {
	return a == ArenaBoth || a == ArenaSideOf(s)
}

// BattlerIndex is a field slot. Player slots come first, then enemy slots.
type BattlerIndex int

const (
	SlotPlayer BattlerIndex = iota
	SlotPlayer2
	SlotEnemy
	SlotEnemy2
)

// NoSlot marks a combatant on the bench or a command without a target.
const NoSlot BattlerIndex = -1

// Side returns the side that owns the slot.
func (i BattlerIndex) Side() Side {
	if i >= SlotEnemy {
		return SideEnemy
	}
	return SidePlayer
}

// Position is the slot's index within its side.
func (i BattlerIndex) Position() int { return int(i) % 2 }

// slotFor builds the slot at position pos on side s.
func slotFor(s Side, pos int) BattlerIndex {
	return BattlerIndex(int(s)*2 + pos)
}

// Format is the number of combatants each side keeps on the field.
type Format int

const (
	FormatSingle Format = 1
	FormatDouble Format = 2
)

// CommandKind is the kind of action chosen for a turn.
type CommandKind int

const (
	CommandFight CommandKind = iota
	CommandSwitch
	CommandItem
	CommandRun
)

func (k CommandKind) String() string {
	switch k {
	case CommandFight:
		return "fight"
	case CommandSwitch:
		return "switch"
	case CommandItem:
		return "item"
	case CommandRun:
		return "run"
	}
	return fmt.Sprintf("command(%d)", int(k))
}

// forced reports whether the command acts ahead of every move.
func (k CommandKind) forced() bool { return k != CommandFight }

// Result is the outcome of a finished battle.
type Result int

const (
	ResultNone Result = iota
	ResultVictory
	ResultDefeat
	ResultFled
	ResultForfeit
	ResultDraw
)

func (r Result) String() string {
	switch r {
	case ResultVictory:
		return "victory"
	case ResultDefeat:
		return "defeat"
	case ResultFled:
		return "fled"
	case ResultForfeit:
		return "forfeit"
	case ResultDraw:
		return "draw"
	}
	return "none"
}
