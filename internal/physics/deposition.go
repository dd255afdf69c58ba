package physics

import (
	"math"

	"github.com/san-kum/trackevo/internal/config"
	"github.com/san-kum/trackevo/internal/constants"
	"github.com/san-kum/trackevo/internal/surface"
)

// Deposit is the material change requested by one contact, before clamping.
type Deposit struct {
	Rubber  float64
	Marbles float64
	Dust    float64
}

// Deposition writes tire contact effects into the grid.
type Deposition struct {
	grid  *surface.Grid
	cfg   *config.Evolution
	frame float64
}

func NewDeposition(g *surface.Grid, cfg *config.Evolution) *Deposition {
	return &Deposition{grid: g, cfg: cfg}
}

// Stamp sets the frame recorded in LastFrame by subsequent writes.
func (dp *Deposition) Stamp(frame uint64) { dp.frame = float64(frame) }

// ContactDeposit computes the deltas for one contact without touching the grid.
func ContactDeposit(cfg *config.Evolution, pressure, slip, dt float64) Deposit {
	return Deposit{
		Rubber:  cfg.RubberTransferCoefficient * pressure * math.Max(0, 1-constants.RubberSlipCutoffGain*slip) * dt,
		Marbles: cfg.MarbleDiscardRate * pressure * math.Max(0, slip-constants.MarbleSlipThreshold) * dt,
		Dust:    -constants.TrafficDustCleaning * pressure * dt,
	}
}

// OnTireContact applies one car's contact at (s, d) and returns the
// requested deltas.
func (dp *Deposition) OnTireContact(s, d, pressure, slip, dt float64) Deposit {
	dep := ContactDeposit(dp.cfg, pressure, slip, dt)
	si, li := dp.grid.IndicesOf(s, d)

	dp.grid.Update(si, li, func(c *surface.Cell) {
		c.Rubber += dep.Rubber
		c.Marbles += dep.Marbles
		c.Dust += dep.Dust
		c.PassingVolume++
		c.LastFrame = dp.frame
	})

	if dep.Marbles > 0 {
		dp.scatterMarbles(si, li, dep.Marbles)
	}
	return dep
}

// scatterMarbles throws a quarter of amount onto each lateral neighbour.
// Neighbours outside the track receive nothing.
func (dp *Deposition) scatterMarbles(si, li int, amount float64) {
	share := amount * constants.MarbleScatterShare
	lat := dp.grid.Dims().LatSegments
	for _, n := range [2]int{li - 1, li + 1} {
		if n < 0 || n >= lat {
			continue
		}
		dp.grid.Update(si, n, func(c *surface.Cell) {
			c.Marbles += share
		})
	}
}

// ApplyGlobalDust adds a non-negative amount of dust to every cell.
func (dp *Deposition) ApplyGlobalDust(amount float64) {
	buf := dp.grid.RawBuffer()
	for i := int(surface.FieldDust); i < len(buf); i += surface.Stride {
		buf[i] = math.Min(1, buf[i]+amount)
	}
}
