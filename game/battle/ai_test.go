package battle

import (
	"errors"
	"testing"

	"github.com/kasuganosora/battlecore/game/rng"
)

func TestWeightedSelectSingle(t *testing.T) {
	src := rng.New(1)
	got := weightedSelect([]ratedMove{{slot: 2, rating: 5}}, src)
	if got.slot != 2 {
		t.Errorf("slot = %d, want 2", got.slot)
	}
	if src.Draws() != 0 {
		t.Errorf("single choice drew %d values", src.Draws())
	}
}

func TestWeightedSelectDropsWeakMoves(t *testing.T) {
	moves := []ratedMove{{slot: 0, rating: 8}, {slot: 1, rating: 3}}
	for seed := int64(1); seed <= 100; seed++ {
		if got := weightedSelect(moves, rng.New(seed)); got.slot != 0 {
			t.Fatalf("seed %d: picked slot %d rated %d", seed, got.slot, got.rating)
		}
	}
}

func TestWeightedSelectSpreadsCloseMoves(t *testing.T) {
	moves := []ratedMove{{slot: 0, rating: 7}, {slot: 1, rating: 5}, {slot: 2, rating: 6}}
	counts := map[int]int{}
	for seed := int64(1); seed <= 600; seed++ {
		counts[weightedSelect(moves, rng.New(seed)).slot]++
	}
	for slot := 0; slot < 3; slot++ {
		if counts[slot] == 0 {
			t.Errorf("slot %d never picked: %v", slot, counts)
		}
	}
	// Weights are 3, 1 and 2.
	if counts[0] <= counts[1] {
		t.Errorf("best move not favoured: %v", counts)
	}
}

func TestRateMove(t *testing.T) {
	b, _ := fieldBattle(t, BattleConfig{},
		[]CombatantConfig{mon(speciesFire, 200, 50, moveEmber, moveTackle, moveThunderWave)},
		[]CombatantConfig{mon(speciesGrass, 200, 50, moveTackle)})
	user, target := b.Active(SlotPlayer), b.Active(SlotEnemy)

	rate := func(id int) int {
		m, err := b.data.Move(id)
		if err != nil {
			t.Fatal(err)
		}
		return b.rateMove(user, target, m)
	}

	if got := rate(moveEmber); got != ratingSuper+ratingSTABBonus {
		t.Errorf("super effective STAB = %d", got)
	}
	if got := rate(moveTackle); got != ratingNeutral {
		t.Errorf("neutral = %d", got)
	}
	if got := rate(moveThunderWave); got != ratingStatus {
		t.Errorf("status = %d", got)
	}

	target.hp = target.MaxHP() / 4
	if got := rate(moveTackle); got != ratingNeutral+ratingLowHPBonus {
		t.Errorf("neutral vs low hp = %d", got)
	}
}

func TestAIChooseCommandSkipsImmuneMoves(t *testing.T) {
	b, _ := fieldBattle(t, BattleConfig{Seed: 4},
		[]CombatantConfig{mon(speciesNormal, 200, 50, moveTackle, moveEmber)},
		[]CombatantConfig{mon(speciesGhost, 200, 50, moveTackle)})
	user := b.Active(SlotPlayer)

	for i := 0; i < 20; i++ {
		cmd, err := AIDecisions{}.ChooseCommand(b, user)
		if err != nil {
			t.Fatal(err)
		}
		if cmd.MoveSlot != 1 || cmd.Target != SlotEnemy {
			t.Fatalf("picked slot %d target %d, want Ember at the enemy", cmd.MoveSlot, cmd.Target)
		}
	}
}

func TestAIChooseCommandFallsBackWhenNothingWorks(t *testing.T) {
	b, _ := fieldBattle(t, BattleConfig{},
		[]CombatantConfig{mon(speciesNormal, 200, 50, moveTackle)},
		[]CombatantConfig{mon(speciesGhost, 200, 50, moveTackle)})

	cmd, err := AIDecisions{}.ChooseCommand(b, b.Active(SlotPlayer))
	if err != nil {
		t.Fatal(err)
	}
	if cmd.Kind != CommandFight || cmd.MoveSlot != 0 {
		t.Errorf("cmd = %+v, want Tackle", cmd)
	}
}

func TestAIChooseCommandNoPP(t *testing.T) {
	b, _ := fieldBattle(t, BattleConfig{},
		[]CombatantConfig{mon(speciesNormal, 200, 50, moveTackle)},
		[]CombatantConfig{mon(speciesNormal, 200, 50, moveTackle)})
	user := b.Active(SlotPlayer)
	user.moves[0].PP = 0

	if _, err := (AIDecisions{}).ChooseCommand(b, user); !errors.Is(err, ErrInvalidCommand) {
		t.Errorf("err = %v, want ErrInvalidCommand", err)
	}
}

func TestAIChooseReplacement(t *testing.T) {
	b, _ := fieldBattle(t, BattleConfig{},
		[]CombatantConfig{mon(speciesNormal, 200, 50, moveTackle)},
		[]CombatantConfig{
			mon(speciesNormal, 200, 50, moveTackle),
			mon(speciesNormal, 200, 50, moveTackle),
			mon(speciesNormal, 200, 50, moveTackle),
		})
	b.parties[SideEnemy][1].status = StatusFaint
	b.parties[SideEnemy][1].hp = 0

	idx, err := AIDecisions{}.ChooseReplacement(b, SlotEnemy)
	if err != nil {
		t.Fatal(err)
	}
	if idx != 2 {
		t.Errorf("replacement = %d, want 2", idx)
	}

	if _, err := (AIDecisions{}).ChooseReplacement(b, SlotPlayer); !errors.Is(err, ErrInvalidCommand) {
		t.Errorf("empty bench err = %v", err)
	}
}
