package resource

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kasuganosora/battlecore/game/battle"
)

// ---- Catalogue file structures ----

// AttrEntry declares one effect attribute by factory name. Params may hold
// scalars or lists; lists are joined with commas.
type AttrEntry struct {
	Name   string         `yaml:"name"`
	Params map[string]any `yaml:"params"`
}

type MoveEntry struct {
	ID       int    `yaml:"id"`
	Name     string `yaml:"name"`
	Type     string `yaml:"type"`
	Category string `yaml:"category"`
	Power    int    `yaml:"power"`
	Accuracy int    `yaml:"accuracy"`
	PP       int    `yaml:"pp"`
	Priority int    `yaml:"priority"`
	// EffectChance of -1 marks effects that always apply.
	EffectChance int         `yaml:"effect_chance"`
	Target       string      `yaml:"target"`
	Flags        []string    `yaml:"flags"`
	Attrs        []AttrEntry `yaml:"attrs"`
}

type AbilityEntry struct {
	ID    int         `yaml:"id"`
	Name  string      `yaml:"name"`
	Attrs []AttrEntry `yaml:"attrs"`
}

// SpeciesEntry lists base stats by stat name (hp, atk, def, spatk, spdef, spd).
type SpeciesEntry struct {
	ID        int            `yaml:"id"`
	Name      string         `yaml:"name"`
	Types     []string       `yaml:"types"`
	BaseStats map[string]int `yaml:"base_stats"`
	Abilities []int          `yaml:"abilities"`
}

type ItemEntry struct {
	ID              int                `yaml:"id"`
	Name            string             `yaml:"name"`
	Kind            string             `yaml:"kind"` // held | medicine
	Heal            int                `yaml:"heal"`
	Cures           []string           `yaml:"cures"`
	StatMultipliers map[string]float64 `yaml:"stat_multipliers"`
}

// ChartEntry is one type chart cell. Missing cells are neutral.
type ChartEntry struct {
	Attack     string  `yaml:"attack"`
	Defense    string  `yaml:"defense"`
	Multiplier float64 `yaml:"multiplier"`
}

// MemberEntry is one combatant of a named team.
type MemberEntry struct {
	Species int    `yaml:"species"`
	Name    string `yaml:"name"`
	Level   int    `yaml:"level"`
	Ability int    `yaml:"ability"`
	Passive int    `yaml:"passive"`
	Item    int    `yaml:"item"`
	Moves   []int  `yaml:"moves"`
}

// ---- ResourceLoader ----

// ResourceLoader reads the static data catalogue from a directory of YAML
// files and exposes it as a battle.DataProvider.
type ResourceLoader struct {
	DataPath string

	Moves     []*MoveEntry
	Abilities []*AbilityEntry
	Species   []*SpeciesEntry
	Items     []*ItemEntry
	Chart     []*ChartEntry
	// Teams are named parties, optional.
	Teams map[string][]MemberEntry

	// Data is built by Load.
	Data *battle.StaticData
}

// NewLoader creates a ResourceLoader for dataPath.
func NewLoader(dataPath string) *ResourceLoader {
	return &ResourceLoader{
		DataPath: dataPath,
		Teams:    make(map[string][]MemberEntry),
		Data:     battle.NewStaticData(),
	}
}

// Load reads every catalogue file and builds Data.
func (rl *ResourceLoader) Load() error {
	loaders := []func() error{
		rl.loadMoves,
		rl.loadAbilities,
		rl.loadSpecies,
		rl.loadItems,
		rl.loadChart,
		rl.loadTeams,
	}
	for _, fn := range loaders {
		if err := fn(); err != nil {
			return err
		}
	}
	return rl.build()
}

func (rl *ResourceLoader) path(file string) string {
	return filepath.Join(rl.DataPath, file)
}

func loadYAMLList[T any](path string) ([]*T, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("resource: read %s: %w", path, err)
	}
	var arr []*T
	if err := yaml.Unmarshal(data, &arr); err != nil {
		return nil, fmt.Errorf("resource: parse %s: %w", path, err)
	}
	return arr, nil
}

func (rl *ResourceLoader) loadMoves() error {
	var err error
	rl.Moves, err = loadYAMLList[MoveEntry](rl.path("moves.yaml"))
	return err
}

func (rl *ResourceLoader) loadAbilities() error {
	var err error
	rl.Abilities, err = loadYAMLList[AbilityEntry](rl.path("abilities.yaml"))
	return err
}

func (rl *ResourceLoader) loadSpecies() error {
	var err error
	rl.Species, err = loadYAMLList[SpeciesEntry](rl.path("species.yaml"))
	return err
}

func (rl *ResourceLoader) loadItems() error {
	var err error
	rl.Items, err = loadYAMLList[ItemEntry](rl.path("items.yaml"))
	return err
}

func (rl *ResourceLoader) loadChart() error {
	var err error
	rl.Chart, err = loadYAMLList[ChartEntry](rl.path("type_chart.yaml"))
	return err
}

// loadTeams reads teams.yaml when present.
func (rl *ResourceLoader) loadTeams() error {
	data, err := os.ReadFile(rl.path("teams.yaml"))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("resource: read teams.yaml: %w", err)
	}
	if err := yaml.Unmarshal(data, &rl.Teams); err != nil {
		return fmt.Errorf("resource: parse teams.yaml: %w", err)
	}
	return nil
}

// ---- Conversion ----

func (rl *ResourceLoader) build() error {
	d := battle.NewStaticData()
	for _, e := range rl.Moves {
		if e == nil {
			continue
		}
		m, err := e.toData()
		if err != nil {
			return fmt.Errorf("resource: move %d (%s): %w", e.ID, e.Name, err)
		}
		d.AddMove(m)
	}
	for _, e := range rl.Abilities {
		if e == nil {
			continue
		}
		d.AddAbility(&battle.AbilityData{ID: e.ID, Name: e.Name, Attrs: toAttrSpecs(e.Attrs)})
	}
	for _, e := range rl.Species {
		if e == nil {
			continue
		}
		s, err := e.toData()
		if err != nil {
			return fmt.Errorf("resource: species %d (%s): %w", e.ID, e.Name, err)
		}
		d.AddSpecies(s)
	}
	for _, e := range rl.Items {
		if e == nil {
			continue
		}
		it, err := e.toData()
		if err != nil {
			return fmt.Errorf("resource: item %d (%s): %w", e.ID, e.Name, err)
		}
		d.AddItem(it)
	}
	for _, e := range rl.Chart {
		if e == nil {
			continue
		}
		atk, err := battle.ParseType(e.Attack)
		if err != nil {
			return fmt.Errorf("resource: type chart: %w", err)
		}
		def, err := battle.ParseType(e.Defense)
		if err != nil {
			return fmt.Errorf("resource: type chart: %w", err)
		}
		d.SetEffectiveness(atk, def, e.Multiplier)
	}
	rl.Data = d
	return rl.validateTeams()
}

func (e *MoveEntry) toData() (*battle.MoveData, error) {
	t, err := battle.ParseType(e.Type)
	if err != nil {
		return nil, err
	}
	cat, err := battle.ParseCategory(e.Category)
	if err != nil {
		return nil, err
	}
	target := battle.TargetNearOther
	if e.Target != "" {
		if target, err = battle.ParseTarget(e.Target); err != nil {
			return nil, err
		}
	}
	flags, err := battle.ParseFlags(e.Flags)
	if err != nil {
		return nil, err
	}
	return &battle.MoveData{
		ID:           e.ID,
		Name:         e.Name,
		Type:         t,
		Category:     cat,
		Power:        e.Power,
		Accuracy:     e.Accuracy,
		PP:           e.PP,
		Priority:     e.Priority,
		EffectChance: e.EffectChance,
		Target:       target,
		Flags:        flags,
		Attrs:        toAttrSpecs(e.Attrs),
	}, nil
}

func (e *SpeciesEntry) toData() (*battle.SpeciesData, error) {
	s := &battle.SpeciesData{ID: e.ID, Name: e.Name, Abilities: e.Abilities}
	if len(e.Types) == 0 {
		return nil, errors.New("no types")
	}
	for _, n := range e.Types {
		t, err := battle.ParseType(n)
		if err != nil {
			return nil, err
		}
		s.Types = append(s.Types, t)
	}
	for name, v := range e.BaseStats {
		st, err := battle.ParseStat(name)
		if err != nil {
			return nil, err
		}
		if int(st) >= battle.PermanentStats {
			return nil, fmt.Errorf("stat %s has no base value", st)
		}
		s.BaseStats[st] = v
	}
	return s, nil
}

func (e *ItemEntry) toData() (*battle.ItemData, error) {
	it := &battle.ItemData{ID: e.ID, Name: e.Name, HealAmount: e.Heal}
	switch strings.ToLower(e.Kind) {
	case "", "held":
		it.Kind = battle.ItemHeld
	case "medicine":
		it.Kind = battle.ItemMedicine
	default:
		return nil, fmt.Errorf("unknown item kind %q", e.Kind)
	}
	for _, n := range e.Cures {
		s, err := battle.ParseStatus(n)
		if err != nil {
			return nil, err
		}
		it.Cures = append(it.Cures, s)
	}
	if len(e.StatMultipliers) > 0 {
		it.StatMultipliers = make(map[battle.Stat]float64, len(e.StatMultipliers))
		for name, m := range e.StatMultipliers {
			st, err := battle.ParseStat(name)
			if err != nil {
				return nil, err
			}
			it.StatMultipliers[st] = m
		}
	}
	return it, nil
}

func toAttrSpecs(entries []AttrEntry) []battle.AttrSpec {
	if len(entries) == 0 {
		return nil
	}
	out := make([]battle.AttrSpec, 0, len(entries))
	for _, e := range entries {
		spec := battle.AttrSpec{Name: e.Name}
		if len(e.Params) > 0 {
			spec.Params = make(battle.AttrParams, len(e.Params))
			for k, v := range e.Params {
				spec.Params[k] = paramString(v)
			}
		}
		out = append(out, spec)
	}
	return out
}

// paramString flattens a decoded YAML value into the string form
// battle.AttrParams expects.
func paramString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []any:
		parts := make([]string, 0, len(x))
		for _, p := range x {
			parts = append(parts, paramString(p))
		}
		return strings.Join(parts, ",")
	default:
		return fmt.Sprint(x)
	}
}

// validateTeams checks that every team member refers to known data.
func (rl *ResourceLoader) validateTeams() error {
	for name, members := range rl.Teams {
		if len(members) == 0 {
			return fmt.Errorf("resource: team %q is empty", name)
		}
		for i, m := range members {
			if _, err := rl.Data.Species(m.Species); err != nil {
				return fmt.Errorf("resource: team %q member %d: %w", name, i, err)
			}
			for _, id := range m.Moves {
				if _, err := rl.Data.Move(id); err != nil {
					return fmt.Errorf("resource: team %q member %d: %w", name, i, err)
				}
			}
		}
	}
	return nil
}

// ---- Lookups ----

// Team returns the named team as combatant configs.
func (rl *ResourceLoader) Team(name string) ([]battle.CombatantConfig, error) {
	members, ok := rl.Teams[name]
	if !ok {
		return nil, fmt.Errorf("resource: team %q: %w", name, battle.ErrNotFound)
	}
	out := make([]battle.CombatantConfig, 0, len(members))
	for _, m := range members {
		out = append(out, battle.CombatantConfig{
			SpeciesID: m.Species,
			Name:      m.Name,
			Level:     m.Level,
			AbilityID: m.Ability,
			PassiveID: m.Passive,
			ItemID:    m.Item,
			Moves:     append([]int(nil), m.Moves...),
		})
	}
	return out, nil
}

// TeamNames returns the loaded team names.
func (rl *ResourceLoader) TeamNames() []string {
	names := make([]string, 0, len(rl.Teams))
	for n := range rl.Teams {
		names = append(names, n)
	}
	return names
}

// MoveByName finds a move by its display name, case-insensitively.
func (rl *ResourceLoader) MoveByName(name string) *MoveEntry {
	for _, m := range rl.Moves {
		if m != nil && strings.EqualFold(m.Name, name) {
			return m
		}
	}
	return nil
}
