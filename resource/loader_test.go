package resource

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kasuganosora/battlecore/game/attr"
	"github.com/kasuganosora/battlecore/game/battle"
)

// writeFile writes content to dir/name.
func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
}

// setupMinimalDataDir creates a temp directory with the smallest catalogue
// Load accepts.
func setupMinimalDataDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, dir, "moves.yaml", `
- id: 1
  name: Tackle
  type: normal
  category: physical
  power: 40
  accuracy: 100
  pp: 35
  flags: [contact]
- id: 2
  name: Swords Dance
  type: normal
  category: status
  pp: 20
  effect_chance: -1
  target: user
  attrs:
    - name: stat_stage_change
      params: {stats: [atk, def], delta: 2, self: true}
`)
	writeFile(t, dir, "abilities.yaml", `
- id: 1
  name: Serene Grace
  attrs:
    - name: effect_chance_multiplier
      params: {multiplier: 2}
`)
	writeFile(t, dir, "species.yaml", `
- id: 1
  name: Normie
  types: [normal]
  base_stats: {hp: 80, atk: 70, def: 60, spatk: 50, spdef: 40, spd: 90}
  abilities: [1]
`)
	writeFile(t, dir, "items.yaml", `
- id: 1
  name: Antidote
  kind: medicine
  cures: [poison, toxic]
- id: 2
  name: Scarf
  stat_multipliers: {spd: 1.5}
`)
	writeFile(t, dir, "type_chart.yaml", `
- {attack: normal, defense: ghost, multiplier: 0}
`)
	return dir
}

func TestNewLoader(t *testing.T) {
	rl := NewLoader("/data")
	require.NotNil(t, rl)
	assert.Equal(t, "/data", rl.DataPath)
	assert.NotNil(t, rl.Teams)
	assert.NotNil(t, rl.Data)
}

func TestLoader_Load_InvalidPath(t *testing.T) {
	rl := NewLoader("/nonexistent/path")
	assert.Error(t, rl.Load())
}

func TestLoader_Load_Success(t *testing.T) {
	rl := NewLoader(setupMinimalDataDir(t))
	require.NoError(t, rl.Load())

	m, err := rl.Data.Move(2)
	require.NoError(t, err)
	assert.Equal(t, battle.CategoryStatus, m.Category)
	assert.Equal(t, battle.TargetUser, m.Target)
	assert.Equal(t, -1, m.EffectChance)
	require.Len(t, m.Attrs, 1)
	assert.Equal(t, "atk,def", m.Attrs[0].Params["stats"])
	assert.Equal(t, "2", m.Attrs[0].Params["delta"])
	assert.Equal(t, "true", m.Attrs[0].Params["self"])

	tackle, err := rl.Data.Move(1)
	require.NoError(t, err)
	assert.Equal(t, battle.TargetNearOther, tackle.Target)
	assert.True(t, tackle.Flags.Has(battle.FlagContact))

	s, err := rl.Data.Species(1)
	require.NoError(t, err)
	assert.Equal(t, [battle.PermanentStats]int{80, 70, 60, 50, 40, 90}, s.BaseStats)
	assert.Equal(t, []battle.Type{battle.TypeNormal}, s.Types)

	antidote, err := rl.Data.Item(1)
	require.NoError(t, err)
	assert.Equal(t, battle.ItemMedicine, antidote.Kind)
	assert.Equal(t, []battle.StatusEffect{battle.StatusPoison, battle.StatusToxic}, antidote.Cures)
	scarf, err := rl.Data.Item(2)
	require.NoError(t, err)
	assert.Equal(t, battle.ItemHeld, scarf.Kind)
	assert.Equal(t, 1.5, scarf.StatMultipliers[battle.StatSpd])

	assert.Equal(t, 0.0, rl.Data.TypeEffectiveness(battle.TypeNormal, battle.TypeGhost))
	assert.Equal(t, 1.0, rl.Data.TypeEffectiveness(battle.TypeFire, battle.TypeGhost))

	assert.Empty(t, rl.Teams, "teams.yaml is optional")
}

func TestLoader_Load_BadEntries(t *testing.T) {
	cases := map[string]struct{ file, content string }{
		"unknown type":     {"moves.yaml", "- {id: 1, name: X, type: plasma, category: physical}"},
		"unknown category": {"moves.yaml", "- {id: 1, name: X, type: normal, category: magic}"},
		"unknown flag":     {"moves.yaml", "- {id: 1, name: X, type: normal, category: physical, flags: [spin]}"},
		"no species type":  {"species.yaml", "- {id: 1, name: X}"},
		"bad base stat":    {"species.yaml", "- {id: 1, name: X, types: [normal], base_stats: {evasion: 3}}"},
		"unknown kind":     {"items.yaml", "- {id: 1, name: X, kind: key}"},
		"chart type":       {"type_chart.yaml", "- {attack: normal, defense: plasma, multiplier: 2}"},
		"malformed yaml":   {"abilities.yaml", "- id: [1"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			dir := setupMinimalDataDir(t)
			writeFile(t, dir, tc.file, tc.content)
			assert.Error(t, NewLoader(dir).Load())
		})
	}
}

func TestLoader_Teams(t *testing.T) {
	dir := setupMinimalDataDir(t)
	writeFile(t, dir, "teams.yaml", `
alpha:
  - {species: 1, level: 30, item: 2, moves: [1, 2]}
`)
	rl := NewLoader(dir)
	require.NoError(t, rl.Load())

	team, err := rl.Team("alpha")
	require.NoError(t, err)
	require.Len(t, team, 1)
	assert.Equal(t, 1, team[0].SpeciesID)
	assert.Equal(t, 30, team[0].Level)
	assert.Equal(t, 2, team[0].ItemID)
	assert.Equal(t, []int{1, 2}, team[0].Moves)
	assert.Equal(t, []string{"alpha"}, rl.TeamNames())

	_, err = rl.Team("beta")
	assert.ErrorIs(t, err, battle.ErrNotFound)
}

func TestLoader_TeamsReferToKnownData(t *testing.T) {
	dir := setupMinimalDataDir(t)
	writeFile(t, dir, "teams.yaml", "alpha:\n  - {species: 1, moves: [99]}\n")
	assert.ErrorIs(t, NewLoader(dir).Load(), battle.ErrNotFound)

	writeFile(t, dir, "teams.yaml", "alpha: []\n")
	assert.Error(t, NewLoader(dir).Load())
}

func TestLoader_MoveByName(t *testing.T) {
	rl := NewLoader(setupMinimalDataDir(t))
	require.NoError(t, rl.Load())

	m := rl.MoveByName("swords dance")
	require.NotNil(t, m)
	assert.Equal(t, 2, m.ID)
	assert.Nil(t, rl.MoveByName("Hyper Beam"))
}

func TestParamString(t *testing.T) {
	assert.Equal(t, "", paramString(nil))
	assert.Equal(t, "burn", paramString("burn"))
	assert.Equal(t, "2", paramString(2))
	assert.Equal(t, "0.5", paramString(0.5))
	assert.Equal(t, "true", paramString(true))
	assert.Equal(t, "fire,ice", paramString([]any{"fire", "ice"}))
}

// The shipped catalogue must load and compile into one attribute registry.
func TestLoader_ShippedCatalogue(t *testing.T) {
	rl := NewLoader(filepath.Join("..", "data"))
	require.NoError(t, rl.Load())

	r := attr.NewRegistry()
	require.NoError(t, battle.CompileCatalog(r, rl.Data, rl.Data.MoveIDs(), rl.Data.AbilityIDs()))

	for _, name := range []string{"starter", "rival", "wild"} {
		team, err := rl.Team(name)
		require.NoError(t, err, name)
		assert.NotEmpty(t, team)
	}
}
