package rng

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSameSeedSameSequence(t *testing.T) {
	a, b := New(1234), New(1234)
	for i := 0; i < 100; i++ {
		require.Equal(t, a.Int(1000, 0), b.Int(1000, 0))
	}
	assert.Equal(t, a.Draws(), b.Draws())
}

func TestInt_Range(t *testing.T) {
	s := New(7)
	for i := 0; i < 500; i++ {
		v := s.Int(4, 2)
		assert.GreaterOrEqual(t, v, 2)
		assert.Less(t, v, 6)
	}
}

func TestInt_SmallBoundReturnsMin(t *testing.T) {
	s := New(7)
	assert.Equal(t, 5, s.Int(1, 5))
	assert.Equal(t, 5, s.Int(0, 5))
	assert.Equal(t, uint64(0), s.Draws())
}

func TestPercent_Extremes(t *testing.T) {
	s := New(1)
	assert.False(t, s.Percent(0))
	assert.False(t, s.Percent(-5))
	assert.True(t, s.Percent(100))
	assert.Equal(t, uint64(0), s.Draws())
}

func TestShuffle_IsPermutation(t *testing.T) {
	s := New(99)
	items := []int{1, 2, 3, 4, 5, 6}
	s.Shuffle(len(items), func(i, j int) { items[i], items[j] = items[j], items[i] })
	assert.ElementsMatch(t, []int{1, 2, 3, 4, 5, 6}, items)
}

func TestWeightedIndex(t *testing.T) {
	s := New(3)
	assert.Equal(t, -1, s.WeightedIndex([]int{0, -1}))
	for i := 0; i < 50; i++ {
		assert.Equal(t, 1, s.WeightedIndex([]int{0, 5, 0}))
	}

	counts := make([]int, 2)
	for i := 0; i < 2000; i++ {
		counts[s.WeightedIndex([]int{1, 3})]++
	}
	assert.Greater(t, counts[1], counts[0])
}

func TestWithOffset_DoesNotAdvanceParent(t *testing.T) {
	a, b := New(42), New(42)
	a.WithOffset(10, func(d *Source) {
		d.Int(100, 0)
		d.Int(100, 0)
	})
	assert.Equal(t, b.Int(100, 0), a.Int(100, 0))

	var first, second int
	a.WithOffset(10, func(d *Source) { first = d.Int(1000, 0) })
	a.WithOffset(10, func(d *Source) { second = d.Int(1000, 0) })
	assert.Equal(t, first, second)
}

func TestPick(t *testing.T) {
	s := New(5)
	items := []string{"a", "b", "c"}
	for i := 0; i < 20; i++ {
		assert.Contains(t, items, Pick(s, items))
	}
}
