// Package traffic drives an evolution manager with synthetic cars lapping a
// track on a shared racing line.
//
// The line is a sinusoidal weave across the track with Corners apexes per
// lap. Curvature sets each car's speed, vertical load and slip, so corners
// collect marbles and heat while straights collect rubber.
package traffic

import (
	"math"
	"math/rand"

	"github.com/san-kum/trackevo/internal/evolution"
	"github.com/san-kum/trackevo/internal/grip"
	"github.com/san-kum/trackevo/internal/surface"
)

const (
	DefaultCorners  = 12
	DefaultMaxSpeed = 80.0
	DefaultMinSpeed = 25.0

	lineFraction = 0.35 // racing line swing as a share of track width
	laneJitter   = 0.4  // per-car lateral spread in metres
	slipNoise    = 0.05
)

// Sink receives tire contacts. *evolution.Manager satisfies it.
type Sink interface {
	ApplyContact(c evolution.Contact) grip.Result
}

type Options struct {
	Cars     int
	Corners  int
	MaxSpeed float64
	MinSpeed float64
	Seed     int64
}

func DefaultOptions() Options {
	return Options{
		Cars:     10,
		Corners:  DefaultCorners,
		MaxSpeed: DefaultMaxSpeed,
		MinSpeed: DefaultMinSpeed,
		Seed:     1,
	}
}

// Car is one synthetic vehicle.
type Car struct {
	ID    int
	S     float64
	D     float64
	Speed float64
	Load  float64
	Slip  float64
	Grip  float64
	Laps  int

	lane float64
}

type Traffic struct {
	dims surface.Dims
	opts Options
	cars []Car
	rng  *rand.Rand
}

// New spaces the cars evenly around the lap.
func New(dims surface.Dims, opts Options) *Traffic {
	if opts.Cars < 0 {
		opts.Cars = 0
	}
	if opts.Corners <= 0 {
		opts.Corners = DefaultCorners
	}
	if opts.MaxSpeed <= 0 {
		opts.MaxSpeed = DefaultMaxSpeed
	}
	if opts.MinSpeed <= 0 || opts.MinSpeed > opts.MaxSpeed {
		opts.MinSpeed = math.Min(DefaultMinSpeed, opts.MaxSpeed)
	}

	t := &Traffic{
		dims: dims,
		opts: opts,
		cars: make([]Car, opts.Cars),
		rng:  rand.New(rand.NewSource(opts.Seed)),
	}
	for i := range t.cars {
		t.cars[i] = Car{
			ID:   i,
			S:    float64(i) / float64(opts.Cars) * dims.TrackLength,
			lane: (t.rng.Float64()*2 - 1) * laneJitter,
			Grip: 1,
		}
	}
	return t
}

// Curvature is the normalised bend in [0, 1] at arc length s. Zero on the
// straights, one at an apex.
func (t *Traffic) Curvature(s float64) float64 {
	phase := 2 * math.Pi * float64(t.opts.Corners) * s / t.dims.TrackLength
	return math.Abs(math.Sin(phase))
}

// Line is the racing line's lateral offset at s.
func (t *Traffic) Line(s float64) float64 {
	phase := 2 * math.Pi * float64(t.opts.Corners) * s / t.dims.TrackLength
	return lineFraction * t.dims.TrackWidth * math.Sin(phase/2)
}

// Step moves every car by dt and reports its contact to sink.
func (t *Traffic) Step(dt float64, sink Sink) {
	if !(dt > 0) {
		return
	}
	for i := range t.cars {
		c := &t.cars[i]
		k := t.Curvature(c.S)

		target := t.opts.MaxSpeed - (t.opts.MaxSpeed-t.opts.MinSpeed)*k
		c.Speed = target * math.Min(1, c.Grip)
		c.Load = math.Min(2, 1+0.8*k)
		c.Slip = clamp(0.02+0.5*k*k+(t.rng.Float64()*2-1)*slipNoise, 0, 1)
		c.D = t.Line(c.S) + c.lane

		r := sink.ApplyContact(evolution.Contact{
			S:     c.S,
			D:     c.D,
			Load:  c.Load,
			Slip:  c.Slip,
			Speed: c.Speed,
			Dt:    dt,
		})
		c.Grip = r.Multiplier

		c.S += c.Speed * dt
		for c.S >= t.dims.TrackLength {
			c.S -= t.dims.TrackLength
			c.Laps++
		}
	}
}

// Cars returns a copy of the field.
func (t *Traffic) Cars() []Car {
	out := make([]Car, len(t.cars))
	copy(out, t.cars)
	return out
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
