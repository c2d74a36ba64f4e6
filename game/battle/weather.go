package battle

import (
	"fmt"
	"strings"
)

// DefaultFieldTurns is how long weather and terrain last when a move or
// ability does not say otherwise.
const DefaultFieldTurns = 5

// WeatherType is the battle-wide weather.
type WeatherType int

const (
	WeatherNone WeatherType = iota
	WeatherSunny
	WeatherRain
	WeatherSandstorm
	WeatherHail
)

var weatherNames = []string{"none", "sunny", "rain", "sandstorm", "hail"}

func (w WeatherType) String() string {
	if int(w) >= 0 && int(w) < len(weatherNames) {
		return weatherNames[w]
	}
	return fmt.Sprintf("weather(%d)", int(w))
}

// ParseWeather resolves a weather name as used in data files.
func ParseWeather(name string) (WeatherType, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for i, n := range weatherNames {
		if n == name {
			return WeatherType(i), nil
		}
	}
	return WeatherNone, fmt.Errorf("unknown weather %q", name)
}

// damageMultiplier is the weather modifier on a move of type t.
func (w WeatherType) damageMultiplier(t Type) float64 {
	switch {
	case w == WeatherSunny && t == TypeFire, w == WeatherRain && t == TypeWater:
		return 1.5
	case w == WeatherSunny && t == TypeWater, w == WeatherRain && t == TypeFire:
		return 0.5
	}
	return 1
}

// chips reports whether the weather deals residual damage to c.
func (w WeatherType) chips(c *Combatant) bool {
	switch w {
	case WeatherSandstorm:
		return !c.HasType(TypeRock) && !c.HasType(TypeGround) && !c.HasType(TypeSteel)
	case WeatherHail:
		return !c.HasType(TypeIce)
	}
	return false
}

// TerrainType is the battle-wide terrain. Terrain only affects grounded
// combatants.
type TerrainType int

const (
	TerrainNone TerrainType = iota
	TerrainElectric
	TerrainGrassy
	TerrainMisty
	TerrainPsychic
)

var terrainNames = []string{"none", "electric", "grassy", "misty", "psychic"}

func (t TerrainType) String() string {
	if int(t) >= 0 && int(t) < len(terrainNames) {
		return terrainNames[t]
	}
	return fmt.Sprintf("terrain(%d)", int(t))
}

// ParseTerrain resolves a terrain name as used in data files.
func ParseTerrain(name string) (TerrainType, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for i, n := range terrainNames {
		if n == name {
			return TerrainType(i), nil
		}
	}
	return TerrainNone, fmt.Errorf("unknown terrain %q", name)
}

// damageMultiplier is the terrain modifier on a move of type t used by a
// grounded attacker.
func (t TerrainType) damageMultiplier(mt Type) float64 {
	switch {
	case t == TerrainElectric && mt == TypeElectric,
		t == TerrainGrassy && mt == TypeGrass,
		t == TerrainPsychic && mt == TypePsychic:
		return 1.3
	}
	return 1
}

// Weather is the active weather and its remaining turns.
type Weather struct {
	Type      WeatherType `json:"type"`
	TurnsLeft int         `json:"turns_left"`
}

// Terrain is the active terrain and its remaining turns.
type Terrain struct {
	Type      TerrainType `json:"type"`
	TurnsLeft int         `json:"turns_left"`
}
