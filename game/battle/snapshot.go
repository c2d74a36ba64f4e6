package battle

// CombatantSnapshot is a read-only copy of a combatant's state.
type CombatantSnapshot struct {
	ID         int              `json:"id"`
	Name       string           `json:"name"`
	SpeciesID  int              `json:"species_id"`
	Side       Side             `json:"side"`
	PartyIndex int              `json:"party_index"`
	Slot       BattlerIndex     `json:"slot"`
	Level      int              `json:"level"`
	HP         int              `json:"hp"`
	MaxHP      int              `json:"max_hp"`
	Status     StatusEffect     `json:"status"`
	Stages     [StagedStats]int `json:"stages"`
	Types      []Type           `json:"types"`
	AbilityID  int              `json:"ability_id"`
	PassiveID  int              `json:"passive_id,omitempty"`
	ItemID     int              `json:"item_id,omitempty"`
	Moves      []MoveSlot       `json:"moves"`
	Tags       []BattlerTag     `json:"tags,omitempty"`
}

// BattleSnapshot is a read-only copy of the whole battle state.
type BattleSnapshot struct {
	ID         string              `json:"id"`
	Seed       int64               `json:"seed"`
	Turn       int                 `json:"turn"`
	Result     Result              `json:"result"`
	Player     []CombatantSnapshot `json:"player"`
	Enemy      []CombatantSnapshot `json:"enemy"`
	Weather    Weather             `json:"weather"`
	Terrain    Terrain             `json:"terrain"`
	ArenaTags  []ArenaTag          `json:"arena_tags,omitempty"`
	Positional []PositionalTag     `json:"positional,omitempty"`
	RNGDraws   uint64              `json:"rng_draws"`
}

// SnapshotCombatant copies c's state. Tags are included when b is not nil.
func SnapshotCombatant(b *Battle, c *Combatant) CombatantSnapshot {
	snap := CombatantSnapshot{
		ID:         c.id,
		Name:       c.name,
		SpeciesID:  c.species.ID,
		Side:       c.side,
		PartyIndex: c.partyIndex,
		Slot:       c.slot,
		Level:      c.level,
		HP:         c.hp,
		MaxHP:      c.MaxHP(),
		Status:     c.status,
		Stages:     c.stages,
		Types:      c.Types(),
		AbilityID:  c.abilityID,
		PassiveID:  c.passiveID,
		ItemID:     c.itemID,
		Moves:      c.Moves(),
	}
	if b != nil {
		snap.Tags = b.tags.All(c.id)
	}
	return snap
}

func snapshotParty(b *Battle, party []*Combatant) []CombatantSnapshot {
	out := make([]CombatantSnapshot, len(party))
	for i, c := range party {
		out[i] = SnapshotCombatant(b, c)
	}
	return out
}

// Snapshot copies the battle state.
func (b *Battle) Snapshot() BattleSnapshot {
	return BattleSnapshot{
		ID:         b.id,
		Seed:       b.rng.Seed(),
		Turn:       b.turn,
		Result:     b.result,
		Player:     snapshotParty(b, b.parties[SidePlayer]),
		Enemy:      snapshotParty(b, b.parties[SideEnemy]),
		Weather:    b.field.weather,
		Terrain:    b.field.terrain,
		ArenaTags:  b.field.Tags(),
		Positional: b.field.positional.Tags(),
		RNGDraws:   b.rng.Draws(),
	}
}
