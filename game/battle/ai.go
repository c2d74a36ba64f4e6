package battle

import (
	"fmt"

	"github.com/kasuganosora/battlecore/game/rng"
)

// AIDecisions picks commands for a side without outside input. Moves are
// rated against a randomly chosen opponent and one is drawn by weighted
// selection, so the choice is reproducible from the battle seed.
type AIDecisions struct{}

// Move ratings. Higher is preferred.
const (
	ratingImmune     = 0
	ratingResisted   = 3
	ratingStatus     = 4
	ratingNeutral    = 5
	ratingSuper      = 7
	ratingSTABBonus  = 1
	ratingLowHPBonus = 1
)

type ratedMove struct {
	slot   int
	rating int
}

func (AIDecisions) ChooseCommand(b *Battle, c *Combatant) (TurnCommand, error) {
	opponents := b.opponents(c)
	usable := c.usableMoves()
	if len(opponents) == 0 || len(usable) == 0 {
		return TurnCommand{}, fmt.Errorf("%s has nothing to do: %w", c, ErrInvalidCommand)
	}
	target := rng.Pick(b.rng, opponents)

	rated := make([]ratedMove, 0, len(usable))
	for _, i := range usable {
		move, err := b.data.Move(c.moves[i].MoveID)
		if err != nil {
			return TurnCommand{}, err
		}
		if r := b.rateMove(c, target, move); r > 0 {
			rated = append(rated, ratedMove{slot: i, rating: r})
		}
	}
	if len(rated) == 0 {
		// Every move is useless against this target; use any of them.
		rated = append(rated, ratedMove{slot: usable[0], rating: 1})
	}

	chosen := weightedSelect(rated, b.rng)
	return TurnCommand{Kind: CommandFight, MoveSlot: chosen.slot, Target: target.slot}, nil
}

func (AIDecisions) ChooseReplacement(b *Battle, slot BattlerIndex) (int, error) {
	for i, c := range b.parties[slot.Side()] {
		if !c.IsFainted() && !c.IsActive() {
			return i, nil
		}
	}
	return 0, fmt.Errorf("no replacement for slot %d: %w", slot, ErrInvalidCommand)
}

// rateMove scores move used by c against target.
func (b *Battle) rateMove(c, target *Combatant, move *MoveData) int {
	if !move.IsDamaging() {
		return ratingStatus
	}
	eff := b.typeEffectiveness(move.Type, target)
	var r int
	switch {
	case eff == 0:
		return ratingImmune
	case eff > 1:
		r = ratingSuper
	case eff < 1:
		r = ratingResisted
	default:
		r = ratingNeutral
	}
	if c.HasType(move.Type) {
		r += ratingSTABBonus
	}
	if target.hp*4 <= target.MaxHP() {
		r += ratingLowHPBonus
	}
	return r
}

// weightedSelect keeps the moves rated within 2 of the best and draws one
// with weight rating - (best - 3).
func weightedSelect(moves []ratedMove, src *rng.Source) ratedMove {
	if len(moves) == 1 {
		return moves[0]
	}

	maxRating := 0
	for _, m := range moves {
		if m.rating > maxRating {
			maxRating = m.rating
		}
	}

	threshold := maxRating - 2
	var filtered []ratedMove
	for _, m := range moves {
		if m.rating >= threshold {
			filtered = append(filtered, m)
		}
	}
	if len(filtered) == 0 {
		filtered = moves
	}

	base := maxRating - 3
	weights := make([]int, len(filtered))
	for i, m := range filtered {
		weights[i] = max(1, m.rating-base)
	}
	return filtered[src.WeightedIndex(weights)]
}
