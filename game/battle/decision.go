package battle

import (
	"errors"
	"fmt"
)

var (
	// ErrDecisionPending is returned by a DecisionProvider that has no
	// answer yet. The battle suspends until one is submitted.
	ErrDecisionPending = errors.New("battle: decision pending")
	// ErrInvalidCommand is returned for a command the combatant cannot
	// carry out.
	ErrInvalidCommand = errors.New("battle: invalid command")
	// ErrTrapped is returned for a switch or run while the combatant is
	// trapped.
	ErrTrapped = errors.New("battle: combatant is trapped")
)

// MoveUseMode says how a move came to be used.
type MoveUseMode int

const (
	// UseNormal is a move chosen by command. It costs PP.
	UseNormal MoveUseMode = iota
	// UseFollowUp is a move the engine makes the combatant use, such as the
	// second turn of a charging move. It costs no PP.
	UseFollowUp
)

// TurnCommand is the action chosen for one combatant for one turn.
type TurnCommand struct {
	Kind CommandKind `json:"kind"`
	// MoveSlot indexes the moveset for CommandFight.
	MoveSlot int `json:"move_slot"`
	// MoveID is filled in from MoveSlot when the command is validated.
	MoveID int          `json:"move_id"`
	Target BattlerIndex `json:"target"`
	// PartyIndex is the switch-in for CommandSwitch and the item's target for
	// CommandItem.
	PartyIndex int `json:"party_index"`
	ItemID     int `json:"item_id"`

	mode MoveUseMode
}

// DecisionProvider supplies commands for one side.
type DecisionProvider interface {
	// ChooseCommand returns c's command for this turn.
	ChooseCommand(b *Battle, c *Combatant) (TurnCommand, error)
	// ChooseReplacement returns the party index to send into an empty slot.
	ChooseReplacement(b *Battle, slot BattlerIndex) (int, error)
}

// PendingDecision is a slot waiting for input.
type PendingDecision struct {
	Slot        BattlerIndex `json:"slot"`
	Replacement bool         `json:"replacement"`
}

// ManualDecisions answers from commands submitted by a caller, typically a
// human player. Until a command is submitted the battle waits.
type ManualDecisions struct {
	commands     map[BattlerIndex]TurnCommand
	replacements map[BattlerIndex]int
}

// NewManualDecisions creates an empty ManualDecisions.
func NewManualDecisions() *ManualDecisions {
	return &ManualDecisions{
		commands:     make(map[BattlerIndex]TurnCommand),
		replacements: make(map[BattlerIndex]int),
	}
}

// Submit validates cmd for the combatant in slot and stores it.
func (m *ManualDecisions) Submit(b *Battle, slot BattlerIndex, cmd TurnCommand) error {
	c := b.Active(slot)
	if c == nil || !c.onField() {
		return fmt.Errorf("slot %d: %w", slot, ErrInvalidCommand)
	}
	valid, err := b.ValidateCommand(c, cmd)
	if err != nil {
		return err
	}
	m.commands[slot] = valid
	return nil
}

// SubmitReplacement stores the party index to send into slot.
func (m *ManualDecisions) SubmitReplacement(b *Battle, slot BattlerIndex, partyIndex int) error {
	if err := b.validateReplacement(slot.Side(), partyIndex); err != nil {
		return err
	}
	m.replacements[slot] = partyIndex
	return nil
}

func (m *ManualDecisions) ChooseCommand(_ *Battle, c *Combatant) (TurnCommand, error) {
	cmd, ok := m.commands[c.slot]
	if !ok {
		return TurnCommand{}, ErrDecisionPending
	}
	delete(m.commands, c.slot)
	return cmd, nil
}

func (m *ManualDecisions) ChooseReplacement(_ *Battle, slot BattlerIndex) (int, error) {
	idx, ok := m.replacements[slot]
	if !ok {
		return 0, ErrDecisionPending
	}
	delete(m.replacements, slot)
	return idx, nil
}

// ValidateCommand checks cmd against c and the battle state and returns it
// with derived fields filled in. A missing or stale target is redirected
// to a live opponent.
func (b *Battle) ValidateCommand(c *Combatant, cmd TurnCommand) (TurnCommand, error) {
	switch cmd.Kind {
	case CommandFight:
		if cmd.MoveSlot < 0 || cmd.MoveSlot >= len(c.moves) {
			return cmd, fmt.Errorf("move slot %d: %w", cmd.MoveSlot, ErrInvalidCommand)
		}
		slot := c.moves[cmd.MoveSlot]
		if slot.PP <= 0 {
			return cmd, fmt.Errorf("move %d has no PP: %w", slot.MoveID, ErrInvalidCommand)
		}
		move, err := b.data.Move(slot.MoveID)
		if err != nil {
			return cmd, err
		}
		cmd.MoveID = move.ID
		if move.Target == TargetNearOther {
			t := b.Active(cmd.Target)
			if t == nil || !t.onField() || t.side == c.side {
				cmd.Target = NoSlot
				if opp := b.opponents(c); len(opp) > 0 {
					cmd.Target = opp[0].slot
				}
			}
		} else {
			cmd.Target = NoSlot
		}
	case CommandSwitch:
		if b.trapped(c) {
			return cmd, ErrTrapped
		}
		if err := b.validateReplacement(c.side, cmd.PartyIndex); err != nil {
			return cmd, err
		}
	case CommandItem:
		item, err := b.data.Item(cmd.ItemID)
		if err != nil {
			return cmd, err
		}
		if item.Kind != ItemMedicine {
			return cmd, fmt.Errorf("item %s cannot be used: %w", item.Name, ErrInvalidCommand)
		}
		party := b.parties[c.side]
		if cmd.PartyIndex < 0 || cmd.PartyIndex >= len(party) || party[cmd.PartyIndex].IsFainted() {
			return cmd, fmt.Errorf("item target %d: %w", cmd.PartyIndex, ErrInvalidCommand)
		}
	case CommandRun:
		if !b.wild {
			return cmd, fmt.Errorf("cannot run from this battle: %w", ErrInvalidCommand)
		}
		if b.trapped(c) {
			return cmd, ErrTrapped
		}
	default:
		return cmd, fmt.Errorf("command kind %d: %w", cmd.Kind, ErrInvalidCommand)
	}
	cmd.mode = UseNormal
	return cmd, nil
}

// validateReplacement checks that the party member at idx can enter the
// field.
func (b *Battle) validateReplacement(side Side, idx int) error {
	party := b.parties[side]
	if idx < 0 || idx >= len(party) {
		return fmt.Errorf("party index %d: %w", idx, ErrInvalidCommand)
	}
	c := party[idx]
	if c.IsFainted() || c.IsActive() {
		return fmt.Errorf("%s cannot switch in: %w", c, ErrInvalidCommand)
	}
	return nil
}

// trapped reports whether c is held on the field.
func (b *Battle) trapped(c *Combatant) bool {
	return b.tags.Has(c.id, TagBound)
}

// forcedCommand returns the command c must use this turn without asking,
// if any.
func (b *Battle) forcedCommand(c *Combatant) (TurnCommand, bool) {
	moveID := c.forcedMoveID
	if moveID == 0 && b.tags.Has(c.id, TagRecharging) {
		moveID = c.lastMoveID
	}
	if moveID == 0 {
		return TurnCommand{}, false
	}
	cmd := TurnCommand{Kind: CommandFight, MoveSlot: c.moveIndex(moveID), MoveID: moveID, Target: NoSlot, mode: UseFollowUp}
	if opp := b.opponents(c); len(opp) > 0 {
		cmd.Target = opp[0].slot
	}
	return cmd, true
}
