package metrics

import (
	"math"

	"github.com/san-kum/trackevo/internal/atmosphere"
	"github.com/san-kum/trackevo/internal/surface"
)

// PeakTemp tracks the hottest surface cell seen.
type PeakTemp struct {
	name    string
	peak    float64
	samples int
}

func NewPeakTemp() *PeakTemp {
	return &PeakTemp{name: "peak_surface_temp", peak: math.Inf(-1)}
}

func (p *PeakTemp) Name() string { return p.name }

func (p *PeakTemp) Observe(g *surface.Grid, env atmosphere.State) {
	buf := g.RawBuffer()
	for i := int(surface.FieldSurfaceTemp); i < len(buf); i += surface.Stride {
		p.peak = math.Max(p.peak, buf[i])
	}
	p.samples++
}

func (p *PeakTemp) Value() float64 {
	if p.samples == 0 {
		return 0
	}
	return p.peak
}

func (p *PeakTemp) Reset() {
	p.peak = math.Inf(-1)
	p.samples = 0
}

// StormExposure is the mean dust-storm intensity over all observations.
type StormExposure struct {
	name    string
	sum     float64
	samples int
}

func NewStormExposure() *StormExposure {
	return &StormExposure{name: "storm_exposure"}
}

func (s *StormExposure) Name() string { return s.name }

func (s *StormExposure) Observe(g *surface.Grid, env atmosphere.State) {
	s.sum += env.DustStormIntensity
	s.samples++
}

func (s *StormExposure) Value() float64 {
	if s.samples == 0 {
		return 0
	}
	return s.sum / float64(s.samples)
}

func (s *StormExposure) Reset() {
	s.sum = 0
	s.samples = 0
}
