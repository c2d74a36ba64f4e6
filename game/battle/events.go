package battle

// BattleEvent is a discrete notification for the presentation layer. The
// core signals that something happened; playback is the subscriber's job.
type BattleEvent interface {
	EventType() string
}

// CombatantRef identifies a combatant in event payloads.
type CombatantRef struct {
	ID   int          `json:"id"`
	Name string       `json:"name"`
	Side Side         `json:"side"`
	Slot BattlerIndex `json:"slot"`
}

// RefCombatant builds a CombatantRef.
func RefCombatant(c *Combatant) CombatantRef {
	return CombatantRef{ID: c.id, Name: c.name, Side: c.side, Slot: c.slot}
}

// --- Concrete event types ---

type EventBattleStart struct {
	BattleID string              `json:"battle_id"`
	Seed     int64               `json:"seed"`
	Player   []CombatantSnapshot `json:"player"`
	Enemy    []CombatantSnapshot `json:"enemy"`
}

func (EventBattleStart) EventType() string { return "battle_start" }

type EventTurnStart struct {
	Turn  int            `json:"turn"`
	Order []CombatantRef `json:"order"`
}

func (EventTurnStart) EventType() string { return "turn_start" }

type EventDecisionRequest struct {
	Slot        BattlerIndex `json:"slot"`
	Replacement bool         `json:"replacement,omitempty"`
}

func (EventDecisionRequest) EventType() string { return "decision_request" }

type EventSummon struct {
	Combatant CombatantRef `json:"combatant"`
	HP        int          `json:"hp"`
	MaxHP     int          `json:"max_hp"`
}

func (EventSummon) EventType() string { return "summon" }

type EventWithdraw struct {
	Combatant CombatantRef `json:"combatant"`
}

func (EventWithdraw) EventType() string { return "withdraw" }

type EventMoveUsed struct {
	User   CombatantRef `json:"user"`
	MoveID int          `json:"move_id"`
}

func (EventMoveUsed) EventType() string { return "move_used" }

// Move failure reasons.
const (
	FailNoTarget  = "no_target"
	FailCondition = "condition"
	FailNoPP      = "no_pp"
	FailBlocked   = "blocked"
	FailNoEffect  = "no_effect"
)

type EventMoveFailed struct {
	User   CombatantRef `json:"user"`
	MoveID int          `json:"move_id"`
	Reason string       `json:"reason"`
}

func (EventMoveFailed) EventType() string { return "move_failed" }

type EventMoveCancelled struct {
	User   CombatantRef `json:"user"`
	Reason string       `json:"reason"` // tag or status name
}

func (EventMoveCancelled) EventType() string { return "move_cancelled" }

type EventMiss struct {
	User   CombatantRef `json:"user"`
	Target CombatantRef `json:"target"`
}

func (EventMiss) EventType() string { return "miss" }

type EventImmune struct {
	Target CombatantRef `json:"target"`
	MoveID int          `json:"move_id"`
}

func (EventImmune) EventType() string { return "immune" }

// Damage sources other than a move hit.
const (
	SourceMove       = "move"
	SourceConfusion  = "confusion"
	SourceRecoil     = "recoil"
	SourceStatus     = "status"
	SourceWeather    = "weather"
	SourceHazard     = "hazard"
	SourceTag        = "tag"
	SourceAbility    = "ability"
	SourcePositional = "positional"
	SourceArena      = "arena"
	SourceSubstitute = "substitute"
	SourceItem       = "item"
	SourceTerrain    = "terrain"
)

type EventDamage struct {
	Target        CombatantRef `json:"target"`
	Amount        int          `json:"amount"`
	HPAfter       int          `json:"hp_after"`
	Source        string       `json:"source"`
	Critical      bool         `json:"critical,omitempty"`
	Effectiveness float64      `json:"effectiveness,omitempty"`
}

func (EventDamage) EventType() string { return "damage" }

type EventHeal struct {
	Target  CombatantRef `json:"target"`
	Amount  int          `json:"amount"`
	HPAfter int          `json:"hp_after"`
	Source  string       `json:"source"`
}

func (EventHeal) EventType() string { return "heal" }

type EventStatusApplied struct {
	Target CombatantRef `json:"target"`
	Status StatusEffect `json:"status"`
}

func (EventStatusApplied) EventType() string { return "status_applied" }

type EventStatusCured struct {
	Target CombatantRef `json:"target"`
	Status StatusEffect `json:"status"`
}

func (EventStatusCured) EventType() string { return "status_cured" }

type EventStatStage struct {
	Target CombatantRef `json:"target"`
	Stat   Stat         `json:"stat"`
	Delta  int          `json:"delta"` // 0 means the stage was already at its bound
	Stage  int          `json:"stage"`
}

func (EventStatStage) EventType() string { return "stat_stage" }

type EventTagAdded struct {
	Target CombatantRef   `json:"target"`
	Tag    BattlerTagType `json:"tag"`
	Turns  int            `json:"turns"`
}

func (EventTagAdded) EventType() string { return "tag_added" }

type EventTagActivated struct {
	Target CombatantRef   `json:"target"`
	Tag    BattlerTagType `json:"tag"`
}

func (EventTagActivated) EventType() string { return "tag_activated" }

type EventTagRemoved struct {
	Target CombatantRef   `json:"target"`
	Tag    BattlerTagType `json:"tag"`
	Reason RemoveReason   `json:"reason"`
}

func (EventTagRemoved) EventType() string { return "tag_removed" }

type EventArenaTagAdded struct {
	Tag    ArenaTagType `json:"tag"`
	Side   ArenaSide    `json:"side"`
	Turns  int          `json:"turns"`
	Layers int          `json:"layers,omitempty"`
}

func (EventArenaTagAdded) EventType() string { return "arena_tag_added" }

type EventArenaTagRemoved struct {
	Tag  ArenaTagType `json:"tag"`
	Side ArenaSide    `json:"side"`
}

func (EventArenaTagRemoved) EventType() string { return "arena_tag_removed" }

type EventWeather struct {
	Weather WeatherType `json:"weather"`
	Turns   int         `json:"turns"`
}

func (EventWeather) EventType() string { return "weather" }

type EventTerrain struct {
	Terrain TerrainType `json:"terrain"`
	Turns   int         `json:"turns"`
}

func (EventTerrain) EventType() string { return "terrain" }

type EventPositionalAdded struct {
	Tag    PositionalTagType `json:"tag"`
	Slot   BattlerIndex      `json:"slot"`
	Source CombatantRef      `json:"source"`
}

func (EventPositionalAdded) EventType() string { return "positional_added" }

type EventPositionalTriggered struct {
	Tag  PositionalTagType `json:"tag"`
	Slot BattlerIndex      `json:"slot"`
}

func (EventPositionalTriggered) EventType() string { return "positional_triggered" }

type EventFaint struct {
	Combatant CombatantRef `json:"combatant"`
}

func (EventFaint) EventType() string { return "faint" }

type EventItemUsed struct {
	User   CombatantRef `json:"user"`
	Target CombatantRef `json:"target"`
	ItemID int          `json:"item_id"`
}

func (EventItemUsed) EventType() string { return "item_used" }

type EventRunAttempt struct {
	Combatant CombatantRef `json:"combatant"`
	Success   bool         `json:"success"`
}

func (EventRunAttempt) EventType() string { return "run_attempt" }

type EventTurnEnd struct {
	Turn int `json:"turn"`
}

func (EventTurnEnd) EventType() string { return "turn_end" }

type EventBattleEnd struct {
	Result Result `json:"result"`
	Turns  int    `json:"turns"`
}

func (EventBattleEnd) EventType() string { return "battle_end" }
