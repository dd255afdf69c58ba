// Package metrics summarises a surface over a session. Every metric follows
// the same Name/Observe/Value/Reset cycle and is fed by the evolution manager
// after each tick that advanced the simulation.
package metrics

import (
	"github.com/san-kum/trackevo/internal/atmosphere"
	"github.com/san-kum/trackevo/internal/physics"
	"github.com/san-kum/trackevo/internal/surface"
)

type Metric interface {
	Name() string
	Observe(g *surface.Grid, env atmosphere.State)
	Value() float64
	Reset()
}

// CoverageThreshold is the grip level counted as a fully usable surface.
const CoverageThreshold = 1.0

// Standard returns the metric set reported by a session run under profile p.
func Standard(p physics.Profile) []Metric {
	return []Metric{
		NewMeanRubber(),
		NewMeanMarbles(),
		NewMeanDust(),
		NewMeanTemp(),
		NewPeakTemp(),
		NewStormExposure(),
		NewRacingLineGrip(p, 0),
		NewGripCoverage(p, CoverageThreshold),
	}
}
