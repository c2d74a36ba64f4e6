package battle

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ErrNotFound is returned when static data has no entry for an id.
var ErrNotFound = errors.New("battle: data not found")

// AttrSpec declares one attribute on a move or ability by factory name.
type AttrSpec struct {
	Name   string
	Params AttrParams
}

// AttrParams are the raw parameters of an AttrSpec.
type AttrParams map[string]string

// String returns the named parameter or def.
func (p AttrParams) String(key, def string) string {
	if v, ok := p[key]; ok && v != "" {
		return v
	}
	return def
}

// Int returns the named parameter as an int, or def if it is absent.
func (p AttrParams) Int(key string, def int) (int, error) {
	v, ok := p[key]
	if !ok || v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("param %s: %w", key, err)
	}
	return n, nil
}

// Float returns the named parameter as a float64, or def if it is absent.
func (p AttrParams) Float(key string, def float64) (float64, error) {
	v, ok := p[key]
	if !ok || v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("param %s: %w", key, err)
	}
	return f, nil
}

// Bool returns the named parameter as a bool, or def if it is absent.
func (p AttrParams) Bool(key string, def bool) (bool, error) {
	v, ok := p[key]
	if !ok || v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("param %s: %w", key, err)
	}
	return b, nil
}

// List splits a comma separated parameter.
func (p AttrParams) List(key string) []string {
	v, ok := p[key]
	if !ok || v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := parts[:0]
	for _, s := range parts {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// MoveData is the read-only descriptor of a move.
type MoveData struct {
	ID       int
	Name     string
	Type     Type
	Category MoveCategory
	Power    int
	// Accuracy in percent; 0 or less never misses.
	Accuracy int
	PP       int
	Priority int
	// EffectChance is the percent chance of secondary effects. Negative
	// means the move's effects are its primary purpose and always apply.
	EffectChance int
	Target       MoveTarget
	Flags        MoveFlag
	Attrs        []AttrSpec
}

// IsDamaging reports whether the move deals direct damage.
func (m *MoveData) IsDamaging() bool {
	return m.Category != CategoryStatus && m.Power > 0
}

// AbilityData is the read-only descriptor of an ability.
type AbilityData struct {
	ID    int
	Name  string
	Attrs []AttrSpec
}

// SpeciesData is the read-only descriptor of a species.
type SpeciesData struct {
	ID        int
	Name      string
	Types     []Type
	BaseStats [PermanentStats]int
	Abilities []int
}

// ItemKind separates held items from items used as a command.
type ItemKind int

const (
	ItemHeld ItemKind = iota
	ItemMedicine
)

// ItemData is the read-only descriptor of an item.
type ItemData struct {
	ID   int
	Name string
	Kind ItemKind
	// HealAmount restores a fixed amount of HP when used as medicine.
	HealAmount int
	// Cures lists the statuses the item removes when used.
	Cures []StatusEffect
	// StatMultipliers apply while the item is held.
	StatMultipliers map[Stat]float64
}

// DataProvider is the static data collaborator the battle reads from. Data
// is treated as immutable for the lifetime of a battle.
type DataProvider interface {
	Move(id int) (*MoveData, error)
	Ability(id int) (*AbilityData, error)
	Species(id int) (*SpeciesData, error)
	Item(id int) (*ItemData, error)
	// TypeEffectiveness returns the damage multiplier of an attack type
	// against one defending type.
	TypeEffectiveness(attack, defense Type) float64
}

// StaticData is an in-memory DataProvider.
type StaticData struct {
	moves     map[int]*MoveData
	abilities map[int]*AbilityData
	species   map[int]*SpeciesData
	items     map[int]*ItemData
	chart     map[[2]Type]float64
}

// NewStaticData creates an empty StaticData.
func NewStaticData() *StaticData {
	return &StaticData{
		moves:     make(map[int]*MoveData),
		abilities: make(map[int]*AbilityData),
		species:   make(map[int]*SpeciesData),
		items:     make(map[int]*ItemData),
		chart:     make(map[[2]Type]float64),
	}
}

func (d *StaticData) AddMove(m *MoveData)       { d.moves[m.ID] = m }
func (d *StaticData) AddAbility(a *AbilityData) { d.abilities[a.ID] = a }
func (d *StaticData) AddSpecies(s *SpeciesData) { d.species[s.ID] = s }
func (d *StaticData) AddItem(i *ItemData)       { d.items[i.ID] = i }

// SetEffectiveness records a type chart entry. Missing entries are neutral.
func (d *StaticData) SetEffectiveness(attack, defense Type, mult float64) {
	d.chart[[2]Type{attack, defense}] = mult
}

func (d *StaticData) Move(id int) (*MoveData, error) {
	if m, ok := d.moves[id]; ok {
		return m, nil
	}
	return nil, fmt.Errorf("move %d: %w", id, ErrNotFound)
}

func (d *StaticData) Ability(id int) (*AbilityData, error) {
	if a, ok := d.abilities[id]; ok {
		return a, nil
	}
	return nil, fmt.Errorf("ability %d: %w", id, ErrNotFound)
}

func (d *StaticData) Species(id int) (*SpeciesData, error) {
	if s, ok := d.species[id]; ok {
		return s, nil
	}
	return nil, fmt.Errorf("species %d: %w", id, ErrNotFound)
}

func (d *StaticData) Item(id int) (*ItemData, error) {
	if i, ok := d.items[id]; ok {
		return i, nil
	}
	return nil, fmt.Errorf("item %d: %w", id, ErrNotFound)
}

func (d *StaticData) TypeEffectiveness(attack, defense Type) float64 {
	if m, ok := d.chart[[2]Type{attack, defense}]; ok {
		return m
	}
	return 1
}

// MoveIDs returns every move id in ascending order.
func (d *StaticData) MoveIDs() []int { return sortedKeys(d.moves) }

// AbilityIDs returns every ability id in ascending order.
func (d *StaticData) AbilityIDs() []int { return sortedKeys(d.abilities) }

// SpeciesIDs returns every species id in ascending order.
func (d *StaticData) SpeciesIDs() []int { return sortedKeys(d.species) }

func sortedKeys[V any](m map[int]V) []int {
	ids := make([]int, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}
