package physics

import (
	"math"

	"github.com/san-kum/trackevo/internal/atmosphere"
	"github.com/san-kum/trackevo/internal/config"
	"github.com/san-kum/trackevo/internal/constants"
	"github.com/san-kum/trackevo/internal/surface"
)

// Thermal integrates surface and sub-surface temperatures.
type Thermal struct {
	grid *surface.Grid
	cfg  *config.Evolution
}

// NewThermal binds the simulator to a grid and a live config. cfg is read on
// every call, so patches take effect on the next step.
func NewThermal(g *surface.Grid, cfg *config.Evolution) *Thermal {
	return &Thermal{grid: g, cfg: cfg}
}

// Flux holds the heat-flux terms for one cell, in W.
type Flux struct {
	Solar      float64
	Convective float64
	Conductive float64
	Radiative  float64
}

// Total sums the terms.
func (f Flux) Total() float64 {
	return f.Solar + f.Convective + f.Conductive + f.Radiative
}

// CellFlux evaluates the flux terms for a cell at surface temperature ts and
// sub-surface temperature tsub.
func CellFlux(env atmosphere.State, cfg *config.Evolution, ts, tsub float64) Flux {
	tsK := ts + constants.KelvinOffset
	skyK := env.AmbientTemp + constants.KelvinOffset - constants.SkyTempDepression
	return Flux{
		Solar:      constants.SolarAbsorptivity * env.SolarRadiation,
		Convective: cfg.ConvectionCoefficient * (env.AmbientTemp - ts),
		Conductive: cfg.ThermalConductivity * (tsub - ts) / constants.ConductionDepth,
		Radiative:  -constants.Emissivity * constants.StefanBoltzmann * (math.Pow(tsK, 4) - math.Pow(skyK, 4)),
	}
}

// HeatCapacity is the per-cell mass times specific heat, in J/K.
func (th *Thermal) HeatCapacity() float64 {
	return constants.CellMass * th.cfg.TrackSpecificHeat
}

// Integrate advances every cell by one explicit-Euler step of dt seconds.
func (th *Thermal) Integrate(env atmosphere.State, dt float64) {
	buf := th.grid.RawBuffer()
	capacity := th.HeatCapacity()
	relax := constants.SubSurfaceRelax * dt

	for base := 0; base < len(buf); base += surface.Stride {
		ts := buf[base+int(surface.FieldSurfaceTemp)]
		tsub := buf[base+int(surface.FieldSubSurfaceTemp)]

		total := CellFlux(env, th.cfg, ts, tsub).Total()

		buf[base+int(surface.FieldSurfaceTemp)] = ts + total*dt/capacity
		buf[base+int(surface.FieldSubSurfaceTemp)] = tsub + (ts-tsub)*relax
		buf[base+int(surface.FieldHeatFlux)] = total
	}
}

// InjectHeat adds joules of heat to the surface of the cell at (s, d).
func (th *Thermal) InjectHeat(s, d, joules float64) {
	dT := joules / th.HeatCapacity()
	si, li := th.grid.IndicesOf(s, d)
	th.grid.Update(si, li, func(c *surface.Cell) {
		c.SurfaceTemp += dT
	})
}
