// Package rng provides the seeded random source a battle draws all of its
// randomness from. Two battles built from the same seed and fed the same
// decisions make the same sequence of draws.
package rng

import "math/rand"

// Source is a deterministic random source scoped to a single battle.
// It is not safe for concurrent use; a battle has exactly one mutator.
type Source struct {
	r     *rand.Rand
	seed  int64
	draws uint64
}

// New creates a Source seeded with seed.
func New(seed int64) *Source {
	return &Source{r: rand.New(rand.NewSource(seed)), seed: seed}
}

// Seed returns the seed the source was created with.
func (s *Source) Seed() int64 { return s.seed }

// Draws returns how many values have been drawn so far.
func (s *Source) Draws() uint64 { return s.draws }

// Int returns a value in [min, min+bound). A bound of 1 or less returns min
// without consuming a draw.
func (s *Source) Int(bound, min int) int {
	if bound <= 1 {
		return min
	}
	s.draws++
	return min + s.r.Intn(bound)
}

// Float64 returns a value in [0, 1).
func (s *Source) Float64() float64 {
	s.draws++
	return s.r.Float64()
}

// Percent reports whether a roll in [0, 100) lands under chance.
// Chances of 0 or less never succeed and chances of 100 or more always do;
// neither consumes a draw.
func (s *Source) Percent(chance float64) bool {
	if chance <= 0 {
		return false
	}
	if chance >= 100 {
		return true
	}
	return float64(s.Int(100, 0)) < chance
}

// Shuffle permutes n elements in place with Fisher–Yates, calling swap for
// each exchange.
func (s *Source) Shuffle(n int, swap func(i, j int)) {
	for i := n - 1; i > 0; i-- {
		j := s.Int(i+1, 0)
		if i != j {
			swap(i, j)
		}
	}
}

// WeightedIndex picks an index with probability proportional to its weight.
// Non-positive weights are never chosen. Returns -1 if no weight is positive.
func (s *Source) WeightedIndex(weights []int) int {
	total := 0
	for _, w := range weights {
		if w > 0 {
			total += w
		}
	}
	if total == 0 {
		return -1
	}
	roll := s.Int(total, 0)
	for i, w := range weights {
		if w <= 0 {
			continue
		}
		roll -= w
		if roll < 0 {
			return i
		}
	}
	return len(weights) - 1
}

// WithOffset runs fn against a temporary source derived from this source's
// seed plus offset. The parent source is not advanced, so the outcome of fn
// does not shift any later draw.
func (s *Source) WithOffset(offset int64, fn func(*Source)) {
	fn(New(s.seed + offset))
}

// Pick returns a uniformly chosen element of items. It panics on an empty
// slice.
func Pick[T any](s *Source, items []T) T {
	return items[s.Int(len(items), 0)]
}
