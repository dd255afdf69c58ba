// Package atmosphere evolves the environmental state of a session: a 24 hour
// day/night cycle, wind and dust storms.
package atmosphere

import (
	"math"

	"github.com/san-kum/trackevo/internal/constants"
)

// State is the environment seen by the surface simulation.
type State struct {
	AmbientTemp        float64 `json:"ambient_temp" yaml:"ambient_temp"`
	TrackAmbientTemp   float64 `json:"track_ambient_temp" yaml:"track_ambient_temp"`
	SolarRadiation     float64 `json:"solar_radiation" yaml:"solar_radiation"`
	WindSpeed          float64 `json:"wind_speed" yaml:"wind_speed"`
	WindDirection      float64 `json:"wind_direction" yaml:"wind_direction"`
	Humidity           float64 `json:"humidity" yaml:"humidity"`
	DustStormIntensity float64 `json:"dust_storm_intensity" yaml:"dust_storm_intensity"`
}

// DefaultState is a mild, calm afternoon.
func DefaultState() State {
	return State{
		AmbientTemp:      constants.BaseAmbientTemp,
		TrackAmbientTemp: 25,
		WindSpeed:        2,
		Humidity:         0.5,
	}
}

// Patch force-sets any subset of the environment. Nil fields are left alone.
type Patch struct {
	AmbientTemp        *float64 `json:"ambient_temp,omitempty" yaml:"ambient_temp,omitempty"`
	TrackAmbientTemp   *float64 `json:"track_ambient_temp,omitempty" yaml:"track_ambient_temp,omitempty"`
	SolarRadiation     *float64 `json:"solar_radiation,omitempty" yaml:"solar_radiation,omitempty"`
	WindSpeed          *float64 `json:"wind_speed,omitempty" yaml:"wind_speed,omitempty"`
	WindDirection      *float64 `json:"wind_direction,omitempty" yaml:"wind_direction,omitempty"`
	Humidity           *float64 `json:"humidity,omitempty" yaml:"humidity,omitempty"`
	DustStormIntensity *float64 `json:"dust_storm_intensity,omitempty" yaml:"dust_storm_intensity,omitempty"`
}

// Options configures a new Atmosphere.
type Options struct {
	Initial   State
	StartHour float64
	// TimeScale is simulated seconds per real second. Zero means 1.
	TimeScale float64
	Source    Source
}

// Atmosphere owns the single environment instance of a simulation context.
type Atmosphere struct {
	state     State
	clock     float64 // seconds since midnight
	timeScale float64
	src       Source
}

// New builds an Atmosphere. A nil Source falls back to a generator seeded with 1.
func New(opts Options) *Atmosphere {
	src := opts.Source
	if src == nil {
		src = NewSource(1)
	}
	scale := opts.TimeScale
	if scale <= 0 {
		scale = 1
	}
	a := &Atmosphere{state: opts.Initial, timeScale: scale, src: src}
	a.SetTimeOfDay(opts.StartHour)
	return a
}

// Tick advances the clock by dt real seconds and evolves the environment.
func (a *Atmosphere) Tick(dt float64) {
	a.clock = math.Mod(a.clock+dt*a.timeScale, constants.SecondsPerDay)
	if a.clock < 0 {
		a.clock += constants.SecondsPerDay
	}

	factor := SolarFactor(a.TimeOfDay())
	a.state.SolarRadiation = constants.PeakSolarRadiation * factor
	a.state.AmbientTemp = constants.BaseAmbientTemp + constants.SolarAmbientGain*factor +
		noise(a.src, constants.AmbientNoise)

	a.state.WindSpeed = clamp(a.state.WindSpeed+noise(a.src, constants.WindNoise), 0, constants.MaxWindSpeed)

	if chance(a.src, constants.StormChance) {
		a.state.DustStormIntensity = math.Min(1, a.state.DustStormIntensity+constants.StormGrowth)
	} else {
		a.state.DustStormIntensity = math.Max(0, a.state.DustStormIntensity-constants.StormDecay)
	}
}

// SolarFactor is max(0, sin((hour-6)/12·π)): zero at night, one at noon.
func SolarFactor(hour float64) float64 {
	return math.Max(0, math.Sin((hour-constants.SunriseHour)/constants.DaylightHours*math.Pi))
}

// Snapshot returns a copy of the current environment.
func (a *Atmosphere) Snapshot() State { return a.state }

// ApplyOverrides force-sets the fields present in p.
func (a *Atmosphere) ApplyOverrides(p Patch) {
	if p.AmbientTemp != nil {
		a.state.AmbientTemp = *p.AmbientTemp
	}
	if p.TrackAmbientTemp != nil {
		a.state.TrackAmbientTemp = *p.TrackAmbientTemp
	}
	if p.SolarRadiation != nil {
		a.state.SolarRadiation = *p.SolarRadiation
	}
	if p.WindSpeed != nil {
		a.state.WindSpeed = math.Max(0, *p.WindSpeed)
	}
	if p.WindDirection != nil {
		a.state.WindDirection = *p.WindDirection
	}
	if p.Humidity != nil {
		a.state.Humidity = clamp(*p.Humidity, 0, 1)
	}
	if p.DustStormIntensity != nil {
		a.state.DustStormIntensity = clamp(*p.DustStormIntensity, 0, 1)
	}
}

// SetTimeOfDay moves the clock to hour, wrapped to [0,24).
func (a *Atmosphere) SetTimeOfDay(hour float64) {
	h := math.Mod(hour, constants.HoursPerDay)
	if h < 0 {
		h += constants.HoursPerDay
	}
	a.clock = h * constants.SecondsPerHour
}

// TimeOfDay reports the clock in hours, in [0,24).
func (a *Atmosphere) TimeOfDay() float64 {
	return a.clock / constants.SecondsPerHour
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
