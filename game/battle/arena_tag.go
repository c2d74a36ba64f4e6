package battle

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// ArenaTagType identifies a field- or side-scoped effect.
type ArenaTagType int

const (
	ArenaSpikes ArenaTagType = iota + 1
	ArenaToxicSpikes
	ArenaStealthRock
	ArenaReflect
	ArenaLightScreen
	ArenaTailwind
	ArenaTrickRoom
	ArenaSafeguard
	ArenaMist
	// Combined pledge effects.
	ArenaFireGrassPledge
	ArenaWaterFirePledge
	ArenaGrassWaterPledge
)

var arenaTagNames = map[ArenaTagType]string{
	ArenaSpikes:           "spikes",
	ArenaToxicSpikes:      "toxic_spikes",
	ArenaStealthRock:      "stealth_rock",
	ArenaReflect:          "reflect",
	ArenaLightScreen:      "light_screen",
	ArenaTailwind:         "tailwind",
	ArenaTrickRoom:        "trick_room",
	ArenaSafeguard:        "safeguard",
	ArenaMist:             "mist",
	ArenaFireGrassPledge:  "fire_grass_pledge",
	ArenaWaterFirePledge:  "water_fire_pledge",
	ArenaGrassWaterPledge: "grass_water_pledge",
}

func (t ArenaTagType) String() string {
	if n, ok := arenaTagNames[t]; ok {
		return n
	}
	return fmt.Sprintf("arena_tag(%d)", int(t))
}

// ParseArenaTagType resolves an arena tag name as used in data files.
func ParseArenaTagType(name string) (ArenaTagType, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for t, n := range arenaTagNames {
		if n == name {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown arena tag %q", name)
}

// OverlapPolicy decides what adding an already present arena tag does.
type OverlapPolicy int

const (
	// OverlapReject leaves the existing tag alone and fails the add.
	OverlapReject OverlapPolicy = iota
	// OverlapRefresh resets the existing tag's duration.
	OverlapRefresh
	// OverlapCancel removes the existing tag and fails the add.
	OverlapCancel
	// OverlapLayer stacks another layer up to the type's maximum.
	OverlapLayer
)

// ArenaTag is one active field effect. SourceID is for attribution only.
type ArenaTag struct {
	Type ArenaTagType `json:"type"`
	// TurnsLeft of 0 or less never expires.
	TurnsLeft  int       `json:"turns_left"`
	SourceID   int       `json:"source_id"`
	SourceMove int       `json:"source_move"`
	Side       ArenaSide `json:"side"`
	Layers     int       `json:"layers"`
}

// Field holds everything scoped to the battlefield rather than a combatant:
// weather, terrain, arena tags and positional effects.
type Field struct {
	b          *Battle
	weather    Weather
	terrain    Terrain
	tags       []*ArenaTag
	positional *PositionalTagManager
}

func newField(b *Battle) *Field {
	return &Field{b: b, positional: newPositionalTagManager()}
}

func (f *Field) Weather() Weather                  { return f.weather }
func (f *Field) Terrain() Terrain                  { return f.terrain }
func (f *Field) Positional() *PositionalTagManager { return f.positional }

// HasTag reports whether a tag of type t applies to side.
func (f *Field) HasTag(t ArenaTagType, side ArenaSide) bool { return f.GetTag(t, side) != nil }

// SetWeather starts weather w for turns turns. It fails if w is already
// active.
func (f *Field) SetWeather(w WeatherType, turns int) bool {
	if f.weather.Type == w {
		return false
	}
	f.weather = Weather{Type: w, TurnsLeft: turns}
	if w == WeatherNone {
		f.weather.TurnsLeft = 0
	}
	f.b.emit(EventWeather{Weather: w, Turns: f.weather.TurnsLeft})
	return true
}

// SetTerrain starts terrain t for turns turns. It fails if t is already
// active.
func (f *Field) SetTerrain(t TerrainType, turns int) bool {
	if f.terrain.Type == t {
		return false
	}
	f.terrain = Terrain{Type: t, TurnsLeft: turns}
	if t == TerrainNone {
		f.terrain.TurnsLeft = 0
	}
	f.b.emit(EventTerrain{Terrain: t, Turns: f.terrain.TurnsLeft})
	return true
}

// AddTag adds an arena tag on side, or applies the type's overlap policy if
// one is already there. It reports whether a tag was added or changed.
func (f *Field) AddTag(t ArenaTagType, turns, sourceMove, sourceID int, side ArenaSide) bool {
	beh := arenaBehaviorOf(t)
	if existing := f.GetTag(t, side); existing != nil {
		switch beh.policy {
		case OverlapRefresh:
			existing.TurnsLeft = turns
			f.b.emit(EventArenaTagAdded{Tag: t, Side: existing.Side, Turns: turns, Layers: existing.Layers})
			return true
		case OverlapCancel:
			f.removeTag(existing)
			return false
		case OverlapLayer:
			if existing.Layers >= beh.maxLayers {
				return false
			}
			existing.Layers++
			f.b.emit(EventArenaTagAdded{Tag: t, Side: existing.Side, Turns: existing.TurnsLeft, Layers: existing.Layers})
			return true
		default:
			return false
		}
	}

	tag := &ArenaTag{
		Type:       t,
		TurnsLeft:  turns,
		SourceID:   sourceID,
		SourceMove: sourceMove,
		Side:       side,
		Layers:     1,
	}
	f.tags = append(f.tags, tag)
	f.b.logger.Debug("arena tag added",
		zap.Stringer("tag", t), zap.Stringer("side", side), zap.Int("turns", turns))
	f.b.emit(EventArenaTagAdded{Tag: t, Side: side, Turns: turns, Layers: 1})
	if beh.onAdd != nil {
		beh.onAdd(f.b, tag)
	}
	return true
}

// GetTag returns the tag of type t that applies to side. A tag on both sides
// matches any side, and side ArenaBoth matches a tag on either side.
func (f *Field) GetTag(t ArenaTagType, side ArenaSide) *ArenaTag {
	for _, tag := range f.tags {
		if tag.Type != t {
			continue
		}
		if side == ArenaBoth || tag.Side == ArenaBoth || tag.Side == side {
			return tag
		}
	}
	return nil
}

// RemoveTagOnSide removes the tag of type t that applies to side.
func (f *Field) RemoveTagOnSide(t ArenaTagType, side ArenaSide) bool {
	tag := f.GetTag(t, side)
	if tag == nil {
		return false
	}
	f.removeTag(tag)
	return true
}

// Tags returns copies of the active arena tags in the order they were added.
func (f *Field) Tags() []ArenaTag {
	out := make([]ArenaTag, len(f.tags))
	for i, t := range f.tags {
		out[i] = *t
	}
	return out
}

// LapseTags runs each tag's end of turn effect, then ticks counted tags down
// and removes those that reach zero.
func (f *Field) LapseTags() {
	for _, tag := range append([]*ArenaTag(nil), f.tags...) {
		if !f.present(tag) {
			continue
		}
		if beh := arenaBehaviorOf(tag.Type); beh.lapse != nil {
			beh.lapse(f.b, tag)
		}
		if tag.TurnsLeft <= 0 {
			continue
		}
		tag.TurnsLeft--
		if tag.TurnsLeft <= 0 {
			f.removeTag(tag)
		}
	}
}

// applySwitchIn runs the entry effects of every tag covering c's side.
func (f *Field) applySwitchIn(c *Combatant) {
	for _, tag := range append([]*ArenaTag(nil), f.tags...) {
		if !tag.Side.covers(c.side) || !f.present(tag) || c.IsFainted() {
			continue
		}
		if beh := arenaBehaviorOf(tag.Type); beh.onSwitchIn != nil {
			beh.onSwitchIn(f.b, tag, c)
		}
	}
}

// lapseWeather ticks weather and terrain down, clearing them at zero.
func (f *Field) lapseWeather() {
	if f.weather.Type != WeatherNone && f.weather.TurnsLeft > 0 {
		f.weather.TurnsLeft--
		if f.weather.TurnsLeft == 0 {
			f.SetWeather(WeatherNone, 0)
		}
	}
	if f.terrain.Type != TerrainNone && f.terrain.TurnsLeft > 0 {
		f.terrain.TurnsLeft--
		if f.terrain.TurnsLeft == 0 {
			f.SetTerrain(TerrainNone, 0)
		}
	}
}

func (f *Field) present(tag *ArenaTag) bool {
	for _, t := range f.tags {
		if t == tag {
			return true
		}
	}
	return false
}

func (f *Field) removeTag(tag *ArenaTag) {
	for i, t := range f.tags {
		if t == tag {
			f.tags = append(f.tags[:i:i], f.tags[i+1:]...)
			break
		}
	}
	f.b.emit(EventArenaTagRemoved{Tag: tag.Type, Side: tag.Side})
	if beh := arenaBehaviorOf(tag.Type); beh.onRemove != nil {
		beh.onRemove(f.b, tag)
	}
}
