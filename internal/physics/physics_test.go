package physics

import (
	"math"
	"testing"

	"github.com/san-kum/trackevo/internal/atmosphere"
	"github.com/san-kum/trackevo/internal/config"
	"github.com/san-kum/trackevo/internal/surface"
)

func newTestGrid(t *testing.T, lat int) *surface.Grid {
	t.Helper()
	g, err := surface.NewGrid(surface.Dims{SSegments: 20, LatSegments: lat, TrackLength: 200, TrackWidth: 10})
	if err != nil {
		t.Fatalf("new grid: %v", err)
	}
	g.Reset(surface.Cell{SurfaceTemp: 20, SubSurfaceTemp: 20})
	return g
}

func nightEnv() atmosphere.State {
	env := atmosphere.DefaultState()
	env.AmbientTemp = 20
	env.SolarRadiation = 0
	return env
}

func approx(a, b, tol float64) bool { return math.Abs(a-b) <= tol }

func TestIntegrateMatchesFluxBalance(t *testing.T) {
	g := newTestGrid(t, 5)
	cfg := config.DefaultEvolution()
	th := NewThermal(g, &cfg)

	g.WriteCell(3, 2, surface.Cell{SurfaceTemp: 35, SubSurfaceTemp: 25})
	env := nightEnv()
	env.SolarRadiation = 600

	flux := CellFlux(env, &cfg, 35, 25)
	th.Integrate(env, 0.1)

	c := g.Cell(3, 2)
	want := 35 + flux.Total()*0.1/(5*cfg.TrackSpecificHeat)
	if !approx(c.SurfaceTemp, want, 1e-12) {
		t.Errorf("expected surface %.12f, got %.12f", want, c.SurfaceTemp)
	}
	if !approx(c.SubSurfaceTemp, 25+10*0.01*0.1, 1e-12) {
		t.Errorf("sub-surface did not relax toward surface: %.12f", c.SubSurfaceTemp)
	}
	if c.HeatFlux != flux.Total() {
		t.Errorf("heat flux not recorded: %g vs %g", c.HeatFlux, flux.Total())
	}
}

func TestFluxTermSigns(t *testing.T) {
	cfg := config.DefaultEvolution()
	env := nightEnv()

	f := CellFlux(env, &cfg, 20, 20)
	if f.Solar != 0 || f.Convective != 0 || f.Conductive != 0 {
		t.Errorf("expected only radiative loss at equilibrium, got %+v", f)
	}
	if f.Radiative >= 0 {
		t.Errorf("surface must radiate to the colder sky, got %g", f.Radiative)
	}

	env.SolarRadiation = 1000
	f = CellFlux(env, &cfg, 20, 30)
	if f.Solar != 900 {
		t.Errorf("expected 900 W absorbed, got %g", f.Solar)
	}
	if f.Conductive <= 0 {
		t.Errorf("warmer sub-surface should heat the surface, got %g", f.Conductive)
	}
}

func TestIntegrateStaysBounded(t *testing.T) {
	g := newTestGrid(t, 5)
	cfg := config.DefaultEvolution()
	th := NewThermal(g, &cfg)
	env := nightEnv()
	env.AmbientTemp = 30
	env.SolarRadiation = 1000

	for i := 0; i < 20000; i++ {
		th.Integrate(env, cfg.SimulationStepDt)
	}

	for _, v := range g.Channel(surface.FieldSurfaceTemp) {
		if math.IsNaN(v) || v < 20 || v > 100 {
			t.Fatalf("surface temperature diverged: %g", v)
		}
	}
}

func TestInjectHeat(t *testing.T) {
	g := newTestGrid(t, 5)
	cfg := config.DefaultEvolution()
	th := NewThermal(g, &cfg)

	th.InjectHeat(55, 0, 4500)

	if c := g.CellAt(55, 0); !approx(c.SurfaceTemp, 21, 1e-12) {
		t.Errorf("expected +1°C, got %g", c.SurfaceTemp)
	}
	if c := g.CellAt(65, 0); c.SurfaceTemp != 20 {
		t.Error("heat leaked into neighbouring cell")
	}
}

func TestOnTireContactLowSlip(t *testing.T) {
	g := newTestGrid(t, 5)
	cfg := config.DefaultEvolution()
	dep := NewDeposition(g, &cfg)
	si, li := g.IndicesOf(50, 0)
	g.WriteCell(si, li, surface.Cell{Dust: 0.5, SurfaceTemp: 20})

	before := g.Cell(si, li)
	dep.Stamp(7)
	d := dep.OnTireContact(50, 0, 1, 0, 1)
	after := g.Cell(si, li)

	if after.Rubber <= before.Rubber {
		t.Errorf("rubber did not increase: %g -> %g", before.Rubber, after.Rubber)
	}
	if after.Dust >= before.Dust {
		t.Errorf("dust did not decrease: %g -> %g", before.Dust, after.Dust)
	}
	if after.Marbles != before.Marbles || d.Marbles != 0 {
		t.Errorf("marbles changed below slip threshold")
	}
	if after.PassingVolume != 1 {
		t.Errorf("expected passing volume 1, got %g", after.PassingVolume)
	}
	if after.LastFrame != 7 {
		t.Errorf("expected frame stamp 7, got %g", after.LastFrame)
	}
	if !approx(after.Rubber, 0.002, 1e-15) || !approx(after.Dust, 0.45, 1e-15) {
		t.Errorf("unexpected deltas: %+v", after)
	}
}

func TestContactDepositSlipRegimes(t *testing.T) {
	cfg := config.DefaultEvolution()

	tests := []struct {
		name        string
		slip        float64
		rubberZero  bool
		marblesZero bool
	}{
		{"grip", 0.05, false, true},
		{"threshold", 0.1, false, true},
		{"sliding", 0.3, false, false},
		{"cutoff", 0.5, true, false},
		{"spinning", 1.0, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := ContactDeposit(&cfg, 1.5, tt.slip, 0.01)
			if (d.Rubber == 0) != tt.rubberZero {
				t.Errorf("rubber delta %g", d.Rubber)
			}
			if (d.Marbles == 0) != tt.marblesZero {
				t.Errorf("marble delta %g", d.Marbles)
			}
			if d.Dust >= 0 {
				t.Errorf("traffic must always clean dust, got %g", d.Dust)
			}
		})
	}
}

func TestScatterMarbles(t *testing.T) {
	g := newTestGrid(t, 5)
	cfg := config.DefaultEvolution()
	dep := NewDeposition(g, &cfg)

	d := dep.OnTireContact(50, 0, 1, 0.6, 1)
	si, li := g.IndicesOf(50, 0)

	if !approx(d.Marbles, 0.005, 1e-15) {
		t.Fatalf("expected marble delta 0.005, got %g", d.Marbles)
	}
	if got := g.Value(si, li, surface.FieldMarbles); !approx(got, 0.005, 1e-15) {
		t.Errorf("center marbles %g", got)
	}
	for _, n := range []int{li - 1, li + 1} {
		if got := g.Value(si, n, surface.FieldMarbles); !approx(got, 0.00125, 1e-15) {
			t.Errorf("neighbour %d marbles %g", n, got)
		}
	}
	if got := g.Value(si, li+2, surface.FieldMarbles); got != 0 {
		t.Errorf("scatter reached two cells away: %g", got)
	}
}

func TestScatterMarblesAtEdge(t *testing.T) {
	g := newTestGrid(t, 5)
	cfg := config.DefaultEvolution()
	dep := NewDeposition(g, &cfg)

	dep.OnTireContact(50, -5, 1, 0.6, 1)
	si, li := g.IndicesOf(50, -5)
	if li != 0 {
		t.Fatalf("expected left edge column, got %d", li)
	}

	if got := g.Value(si, 1, surface.FieldMarbles); !approx(got, 0.00125, 1e-15) {
		t.Errorf("inner neighbour marbles %g", got)
	}
	if got := g.Value(si, 4, surface.FieldMarbles); got != 0 {
		t.Errorf("scatter wrapped to the opposite edge: %g", got)
	}
}

func TestApplyGlobalDust(t *testing.T) {
	g := newTestGrid(t, 5)
	cfg := config.DefaultEvolution()
	dep := NewDeposition(g, &cfg)
	g.WriteCell(0, 0, surface.Cell{Dust: 0.99, Rubber: 0.4, SurfaceTemp: 20})

	dep.ApplyGlobalDust(0.05)

	if got := g.Value(0, 0, surface.FieldDust); got != 1 {
		t.Errorf("expected clamp at 1, got %g", got)
	}
	if got := g.Value(5, 3, surface.FieldDust); !approx(got, 0.05, 1e-15) {
		t.Errorf("expected 0.05, got %g", got)
	}
	if got := g.Value(0, 0, surface.FieldRubber); got != 0.4 {
		t.Errorf("rubber touched: %g", got)
	}
}
