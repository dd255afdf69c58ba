package physics

import (
	"math"

	"github.com/san-kum/trackevo/internal/atmosphere"
	"github.com/san-kum/trackevo/internal/constants"
	"github.com/san-kum/trackevo/internal/surface"
)

// Relaxation applies the slow background processes of an idle surface.
type Relaxation struct {
	grid *surface.Grid
	row  []float64
}

func NewRelaxation(g *surface.Grid) *Relaxation {
	return &Relaxation{grid: g, row: make([]float64, g.Dims().LatSegments)}
}

// RelaxPassive settles dust, blows marbles away and glazes heavy rubber.
func (r *Relaxation) RelaxPassive(env atmosphere.State, idleDustRate, dt float64) {
	buf := r.grid.RawBuffer()
	dustGain := dt * idleDustRate * (1 + constants.StormDustGain*env.DustStormIntensity)
	marbleLoss := (constants.MarbleBaseDecay + env.WindSpeed*constants.MarbleWindDecay) * dt
	glaze := constants.RubberGlazeRate * dt

	for base := 0; base < len(buf); base += surface.Stride {
		dust := base + int(surface.FieldDust)
		buf[dust] = math.Min(1, math.Max(0, buf[dust]+dustGain))

		marbles := base + int(surface.FieldMarbles)
		buf[marbles] = math.Max(0, buf[marbles]-marbleLoss)

		rubber := base + int(surface.FieldRubber)
		if buf[rubber] > constants.RubberGlazeThreshold {
			buf[rubber] -= glaze
		}
	}
}

// DiffuseHeat blurs surface temperature laterally. The two edge columns are
// left untouched and there is no longitudinal exchange.
func (r *Relaxation) DiffuseHeat(dt float64) {
	dims := r.grid.Dims()
	buf := r.grid.RawBuffer()
	rate := constants.LateralDiffusion * dt

	for si := 0; si < dims.SSegments; si++ {
		for li := 0; li < dims.LatSegments; li++ {
			r.row[li] = buf[r.grid.Offset(si, li)+int(surface.FieldSurfaceTemp)]
		}
		for li := 1; li < dims.LatSegments-1; li++ {
			avg := (r.row[li-1] + r.row[li+1]) / 2
			buf[r.grid.Offset(si, li)+int(surface.FieldSurfaceTemp)] = r.row[li] + (avg-r.row[li])*rate
		}
	}
}
