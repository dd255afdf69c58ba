package metrics

import (
	"github.com/san-kum/trackevo/internal/atmosphere"
	"github.com/san-kum/trackevo/internal/physics"
	"github.com/san-kum/trackevo/internal/surface"
)

// RacingLineGrip averages the unscaled grip multiplier along the lateral
// offset d over the whole lap.
type RacingLineGrip struct {
	name    string
	profile physics.Profile
	offset  float64
	sum     float64
	samples int
}

func NewRacingLineGrip(p physics.Profile, d float64) *RacingLineGrip {
	return &RacingLineGrip{name: "racing_line_grip", profile: p, offset: d}
}

func (r *RacingLineGrip) Name() string { return r.name }

func (r *RacingLineGrip) Observe(g *surface.Grid, env atmosphere.State) {
	dims := g.Dims()
	_, li := g.IndicesOf(0, r.offset)
	total := 0.0
	for si := 0; si < dims.SSegments; si++ {
		total += r.profile.Grip(g.Cell(si, li)).Multiplier
	}
	r.sum += total / float64(dims.SSegments)
	r.samples++
}

func (r *RacingLineGrip) Value() float64 {
	if r.samples == 0 {
		return 0
	}
	return r.sum / float64(r.samples)
}

func (r *RacingLineGrip) Reset() {
	r.sum = 0
	r.samples = 0
}

// GripCoverage is the share of cells whose grip stays at or above a
// threshold, averaged over observations.
type GripCoverage struct {
	name      string
	profile   physics.Profile
	threshold float64
	covered   float64
	samples   int
}

func NewGripCoverage(p physics.Profile, threshold float64) *GripCoverage {
	return &GripCoverage{name: "grip_coverage", profile: p, threshold: threshold}
}

func (c *GripCoverage) Name() string { return c.name }

func (c *GripCoverage) Observe(g *surface.Grid, env atmosphere.State) {
	dims := g.Dims()
	ok := 0
	for si := 0; si < dims.SSegments; si++ {
		for li := 0; li < dims.LatSegments; li++ {
			if c.profile.Grip(g.Cell(si, li)).Multiplier >= c.threshold {
				ok++
			}
		}
	}
	c.covered += float64(ok) / float64(dims.Cells())
	c.samples++
}

func (c *GripCoverage) Value() float64 {
	if c.samples == 0 {
		return 1.0
	}
	return c.covered / float64(c.samples)
}

func (c *GripCoverage) Reset() {
	c.covered = 0
	c.samples = 0
}
