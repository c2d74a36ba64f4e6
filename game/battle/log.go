package battle

// ActionLogEntry is one line of the battle's action log, derived from an
// emitted event.
type ActionLogEntry struct {
	Seq      int    `json:"seq"`
	Turn     int    `json:"turn"`
	Kind     string `json:"kind"`
	ActorID  int    `json:"actor_id,omitempty"`
	MoveID   int    `json:"move_id,omitempty"`
	TargetID int    `json:"target_id,omitempty"`
	Amount   int    `json:"amount,omitempty"`
	Outcome  string `json:"outcome,omitempty"`
}

// ActionLog returns a copy of the log so far.
func (b *Battle) ActionLog() []ActionLogEntry {
	return append([]ActionLogEntry(nil), b.log...)
}

func (b *Battle) record(evt BattleEvent) {
	e := ActionLogEntry{Seq: b.seq, Turn: b.turn, Kind: evt.EventType()}
	switch ev := evt.(type) {
	case EventSummon:
		e.ActorID = ev.Combatant.ID
		e.Amount = ev.HP
	case EventWithdraw:
		e.ActorID = ev.Combatant.ID
	case EventMoveUsed:
		e.ActorID = ev.User.ID
		e.MoveID = ev.MoveID
	case EventMoveFailed:
		e.ActorID = ev.User.ID
		e.MoveID = ev.MoveID
		e.Outcome = ev.Reason
	case EventMoveCancelled:
		e.ActorID = ev.User.ID
		e.Outcome = ev.Reason
	case EventMiss:
		e.ActorID = ev.User.ID
		e.TargetID = ev.Target.ID
	case EventImmune:
		e.TargetID = ev.Target.ID
		e.MoveID = ev.MoveID
	case EventDamage:
		e.TargetID = ev.Target.ID
		e.Amount = ev.Amount
		e.Outcome = ev.Source
		if ev.Critical {
			e.Outcome += ",critical"
		}
	case EventHeal:
		e.TargetID = ev.Target.ID
		e.Amount = ev.Amount
		e.Outcome = ev.Source
	case EventStatusApplied:
		e.TargetID = ev.Target.ID
		e.Outcome = ev.Status.String()
	case EventStatusCured:
		e.TargetID = ev.Target.ID
		e.Outcome = ev.Status.String()
	case EventStatStage:
		e.TargetID = ev.Target.ID
		e.Amount = ev.Delta
		e.Outcome = ev.Stat.String()
	case EventTagAdded:
		e.TargetID = ev.Target.ID
		e.Amount = ev.Turns
		e.Outcome = ev.Tag.String()
	case EventTagActivated:
		e.TargetID = ev.Target.ID
		e.Outcome = ev.Tag.String()
	case EventTagRemoved:
		e.TargetID = ev.Target.ID
		e.Outcome = ev.Tag.String()
	case EventArenaTagAdded:
		e.Amount = ev.Turns
		e.Outcome = ev.Tag.String() + "@" + ev.Side.String()
	case EventArenaTagRemoved:
		e.Outcome = ev.Tag.String() + "@" + ev.Side.String()
	case EventWeather:
		e.Amount = ev.Turns
		e.Outcome = ev.Weather.String()
	case EventTerrain:
		e.Amount = ev.Turns
		e.Outcome = ev.Terrain.String()
	case EventPositionalAdded:
		e.ActorID = ev.Source.ID
		e.Outcome = ev.Tag.String()
	case EventPositionalTriggered:
		e.Outcome = ev.Tag.String()
	case EventFaint:
		e.TargetID = ev.Combatant.ID
	case EventItemUsed:
		e.ActorID = ev.User.ID
		e.TargetID = ev.Target.ID
	case EventRunAttempt:
		e.ActorID = ev.Combatant.ID
		if ev.Success {
			e.Outcome = "escaped"
		} else {
			e.Outcome = "failed"
		}
	case EventBattleEnd:
		e.Outcome = ev.Result.String()
	}
	b.log = append(b.log, e)
}
