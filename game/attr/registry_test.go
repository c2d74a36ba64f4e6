package attr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type chanceCtx struct {
	Chance float64
	Fired  []string
}

type otherCtx struct {
	Value int
}

var (
	pointChance = NewPoint[chanceCtx]("chance")
	pointOther  = NewPoint[otherCtx]("other")
)

func record(name string, res Result) Handler[chanceCtx] {
	return HandlerFunc[chanceCtx](func(c *chanceCtx) Result {
		c.Fired = append(c.Fired, name)
		return res
	})
}

func TestApply_DeclarationOrder(t *testing.T) {
	r := NewRegistry()
	src := Move(1)
	Register(r, src, pointChance, "a", record("a", Applied))
	Register(r, src, pointChance, "b", record("b", Skipped))
	Register(r, src, pointChance, "c", record("c", Applied))

	ctx := &chanceCtx{}
	out := Apply(r, src, pointChance, ctx)
	assert.Equal(t, []string{"a", "b", "c"}, ctx.Fired)
	assert.Equal(t, 2, out.Applied)
	assert.False(t, out.Stopped)
}

func TestApply_StopShortCircuits(t *testing.T) {
	r := NewRegistry()
	src := Ability(9)
	Register(r, src, pointChance, "a", record("a", Stop))
	Register(r, src, pointChance, "b", record("b", Applied))

	ctx := &chanceCtx{}
	out := Apply(r, src, pointChance, ctx)
	assert.Equal(t, []string{"a"}, ctx.Fired)
	assert.True(t, out.Stopped)
}

func TestApply_PointsAreIsolated(t *testing.T) {
	r := NewRegistry()
	src := Move(2)
	Register(r, src, pointChance, "a", record("a", Applied))
	Register(r, src, pointOther, "o", HandlerFunc[otherCtx](func(c *otherCtx) Result {
		c.Value++
		return Applied
	}))

	o := &otherCtx{}
	Apply(r, src, pointOther, o)
	assert.Equal(t, 1, o.Value)

	c := &chanceCtx{}
	Apply(r, src, pointChance, c)
	assert.Equal(t, []string{"a"}, c.Fired)
}

func TestApply_NilContextPanics(t *testing.T) {
	r := NewRegistry()
	assert.Panics(t, func() { Apply[chanceCtx](r, Move(1), pointChance, nil) })
}

func TestApplyAll_StopCarriesAcrossSources(t *testing.T) {
	r := NewRegistry()
	Register(r, Ability(1), pointChance, "primary", record("primary", Stop))
	Register(r, Ability(2), pointChance, "passive", record("passive", Applied))

	ctx := &chanceCtx{}
	out := ApplyAll(r, []Source{Ability(1), Ability(2)}, pointChance, ctx)
	assert.Equal(t, []string{"primary"}, ctx.Fired)
	assert.True(t, out.Stopped)
}

func TestUnregister(t *testing.T) {
	r := NewRegistry()
	src := Move(3)
	Register(r, src, pointChance, "keep", record("keep", Applied))
	Register(r, src, pointChance, "drop", record("drop", Applied))
	r.Unregister(src, "drop")

	require.Equal(t, []string{"keep"}, Names(r, src, pointChance))
	r.Unregister(src, "keep")
	assert.False(t, Has(r, src, pointChance))
}

func TestSourcesDoNotCollide(t *testing.T) {
	r := NewRegistry()
	Register(r, Move(5), pointChance, "move", record("move", Applied))
	assert.False(t, Has(r, Ability(5), pointChance))
	assert.True(t, Has(r, Move(5), pointChance))
}
