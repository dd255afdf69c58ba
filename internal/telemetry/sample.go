// Package telemetry turns surface state into flat named samples and streams
// them to websocket viewers.
//
// Sampling is strictly read-only. The feed never sees the grid, only frames
// the host loop publishes.
package telemetry

import (
	"sort"

	"github.com/san-kum/trackevo/internal/atmosphere"
	"github.com/san-kum/trackevo/internal/grip"
	"github.com/san-kum/trackevo/internal/surface"
)

// Source is the read side of an evolution manager.
type Source interface {
	Grid() *surface.Grid
	QueryGrip(s, d float64) grip.Result
	Atmosphere() atmosphere.State
}

// Samples maps a dotted name to a value.
type Samples map[string]float64

// Keys returns the sample names in sorted order.
func (s Samples) Keys() []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Sample reads the cell, grip and environment at (s, d).
func Sample(src Source, s, d float64) Samples {
	c := src.Grid().CellAt(s, d)
	g := src.QueryGrip(s, d)
	env := src.Atmosphere()

	return Samples{
		"cell.rubber":          c.Rubber,
		"cell.marbles":         c.Marbles,
		"cell.dust":            c.Dust,
		"cell.surface_temp":    c.SurfaceTemp,
		"cell.subsurface_temp": c.SubSurfaceTemp,
		"cell.heat_flux":       c.HeatFlux,
		"cell.passing_volume":  c.PassingVolume,

		"grip.multiplier": g.Multiplier,
		"grip.rubber":     g.Components.Rubber,
		"grip.marbles":    g.Components.Marbles,
		"grip.dust":       g.Components.Dust,
		"grip.thermal":    g.Components.Thermal,

		"env.ambient_temp":       env.AmbientTemp,
		"env.track_ambient_temp": env.TrackAmbientTemp,
		"env.solar_radiation":    env.SolarRadiation,
		"env.wind_speed":         env.WindSpeed,
		"env.wind_direction":     env.WindDirection,
		"env.humidity":           env.Humidity,
		"env.dust_storm":         env.DustStormIntensity,
	}
}

// Probe is a named sampling position.
type Probe struct {
	Name string  `json:"name" yaml:"name"`
	S    float64 `json:"s" yaml:"s"`
	D    float64 `json:"d" yaml:"d"`
}

// Frame is one broadcast unit.
type Frame struct {
	Frame   uint64             `json:"frame"`
	Time    float64            `json:"time"`
	Hour    float64            `json:"hour"`
	Probes  map[string]Samples `json:"probes"`
	Metrics map[string]float64 `json:"metrics,omitempty"`
}

// Capture samples every probe.
func Capture(src Source, frame uint64, t, hour float64, probes []Probe) Frame {
	f := Frame{
		Frame:  frame,
		Time:   t,
		Hour:   hour,
		Probes: make(map[string]Samples, len(probes)),
	}
	for _, p := range probes {
		f.Probes[p.Name] = Sample(src, p.S, p.D)
	}
	return f
}
