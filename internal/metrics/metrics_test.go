package metrics

import (
	"math"
	"testing"

	"github.com/san-kum/trackevo/internal/atmosphere"
	"github.com/san-kum/trackevo/internal/physics"
	"github.com/san-kum/trackevo/internal/surface"
)

func newTestGrid(t *testing.T, initial surface.Cell) *surface.Grid {
	t.Helper()
	g, err := surface.NewGrid(surface.Dims{SSegments: 10, LatSegments: 4, TrackLength: 100, TrackWidth: 8})
	if err != nil {
		t.Fatalf("new grid: %v", err)
	}
	g.Reset(initial)
	return g
}

func TestChannelMean(t *testing.T) {
	g := newTestGrid(t, surface.Cell{Rubber: 0.5})
	m := NewMeanRubber()

	m.Observe(g, atmosphere.State{})
	if math.Abs(m.Value()-0.5) > 1e-12 {
		t.Errorf("expected 0.5, got %f", m.Value())
	}

	g.WriteCell(2, 1, surface.Cell{Rubber: 1})
	m.Observe(g, atmosphere.State{})
	want := (0.5 + (39*0.5+1)/40) / 2
	if math.Abs(m.Value()-want) > 1e-12 {
		t.Errorf("expected %f, got %f", want, m.Value())
	}

	m.Reset()
	if m.Value() != 0 {
		t.Error("expected zero after reset")
	}
}

func TestPeakTemp(t *testing.T) {
	g := newTestGrid(t, surface.Cell{SurfaceTemp: -5})
	m := NewPeakTemp()

	if m.Value() != 0 {
		t.Errorf("expected 0 before observations, got %f", m.Value())
	}

	m.Observe(g, atmosphere.State{})
	if m.Value() != -5 {
		t.Errorf("expected -5, got %f", m.Value())
	}

	g.WriteCell(9, 3, surface.Cell{SurfaceTemp: 60})
	m.Observe(g, atmosphere.State{})
	g.WriteCell(9, 3, surface.Cell{SurfaceTemp: 20})
	m.Observe(g, atmosphere.State{})
	if m.Value() != 60 {
		t.Errorf("expected peak 60 to stick, got %f", m.Value())
	}
}

func TestStormExposure(t *testing.T) {
	g := newTestGrid(t, surface.Cell{})
	m := NewStormExposure()

	m.Observe(g, atmosphere.State{DustStormIntensity: 0.2})
	m.Observe(g, atmosphere.State{DustStormIntensity: 0.4})
	if math.Abs(m.Value()-0.3) > 1e-12 {
		t.Errorf("expected 0.3, got %f", m.Value())
	}
}

func TestRacingLineGrip(t *testing.T) {
	g := newTestGrid(t, surface.Cell{Rubber: 1, SurfaceTemp: 42})

	tests := []struct {
		profile physics.Profile
		want    float64
	}{
		{physics.ProfileStandard, 1.06},
		{physics.ProfileExtended, 1 + 0.08*(1-math.Exp(-5))},
	}

	for _, tt := range tests {
		t.Run(tt.profile.String(), func(t *testing.T) {
			m := NewRacingLineGrip(tt.profile, 0)
			m.Observe(g, atmosphere.State{})
			if math.Abs(m.Value()-tt.want) > 1e-9 {
				t.Errorf("expected %f, got %f", tt.want, m.Value())
			}
		})
	}
}

func TestGripCoverage(t *testing.T) {
	g := newTestGrid(t, surface.Cell{SurfaceTemp: 42})
	m := NewGripCoverage(physics.ProfileStandard, CoverageThreshold)

	m.Observe(g, atmosphere.State{})
	if m.Value() != 1 {
		t.Errorf("expected full coverage on a clean surface, got %f", m.Value())
	}

	for si := 0; si < 5; si++ {
		for li := 0; li < 4; li++ {
			g.WriteCell(si, li, surface.Cell{Dust: 1, SurfaceTemp: 42})
		}
	}
	m.Reset()
	m.Observe(g, atmosphere.State{})
	if math.Abs(m.Value()-0.5) > 1e-12 {
		t.Errorf("expected half coverage, got %f", m.Value())
	}
}

func TestStandardNamesUnique(t *testing.T) {
	seen := make(map[string]bool)
	for _, m := range Standard(physics.ProfileStandard) {
		if seen[m.Name()] {
			t.Errorf("duplicate metric name %s", m.Name())
		}
		seen[m.Name()] = true
	}
	if len(seen) != 8 {
		t.Errorf("expected 8 metrics, got %d", len(seen))
	}
}
