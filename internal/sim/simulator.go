package sim

import (
	"context"
	"log/slog"

	"github.com/san-kum/trackevo/internal/config"
	"github.com/san-kum/trackevo/internal/evolution"
	"github.com/san-kum/trackevo/internal/metrics"
	"github.com/san-kum/trackevo/internal/traffic"
)

// Session couples a manager with the cars driving over it.
type Session struct {
	cfg       *config.Config
	mgr       *evolution.Manager
	cars      *traffic.Traffic
	metrics   []metrics.Metric
	observers []Observer
	elapsed   float64
}

// New builds a session from a copy of cfg. The standard metric set is
// registered on the manager.
func New(cfg *config.Config, logger *slog.Logger) (*Session, error) {
	opts, err := evolution.OptionsFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	opts.Logger = logger

	mgr, err := evolution.New(opts)
	if err != nil {
		return nil, err
	}

	own := *cfg
	s := &Session{
		cfg:     &own,
		mgr:     mgr,
		cars:    traffic.New(cfg.Track, traffic.Options{Cars: cfg.Cars, Seed: cfg.Seed}),
		metrics: metrics.Standard(mgr.Profile()),
	}
	for _, m := range s.metrics {
		mgr.AddMetric(m)
	}
	return s, nil
}

func (s *Session) AddObserver(o Observer)      { s.observers = append(s.observers, o) }
func (s *Session) Config() *config.Config      { return s.cfg }
func (s *Session) Manager() *evolution.Manager { return s.mgr }
func (s *Session) Traffic() *traffic.Traffic   { return s.cars }
func (s *Session) Metrics() []metrics.Metric   { return s.metrics }
func (s *Session) Elapsed() float64            { return s.elapsed }

// SetCars replaces the field with n freshly spaced cars.
func (s *Session) SetCars(n int) {
	s.cfg.Cars = n
	s.cars = traffic.New(s.cfg.Track, traffic.Options{Cars: n, Seed: s.cfg.Seed})
}

// Step advances the cars and the surface by one frame of dt.
func (s *Session) Step(dt float64) {
	s.cars.Step(dt, s.mgr)
	s.mgr.Tick(dt)
	s.elapsed += dt
	for _, o := range s.observers {
		o.OnFrame(s, s.elapsed)
	}
}

// Run advances the session for cfg.Duration and reports the metric values at
// the end. A cancelled context stops the run between frames and returns the
// partial result with the context error.
func (s *Session) Run(ctx context.Context, cfg Config) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	frames := int(cfg.Duration / cfg.Dt)
	every := max(cfg.SampleEvery, 1)
	result := &Result{
		Times:    make([]float64, 0, frames/every+1),
		MeanGrip: make([]float64, 0, frames/every+1),
		Metrics:  make(map[string]float64),
	}

	for i := 0; i < frames; i++ {
		select {
		case <-ctx.Done():
			s.collect(result)
			return result, ctx.Err()
		default:
		}

		s.Step(cfg.Dt)
		result.Frames++
		if result.Frames%every == 0 {
			result.Times = append(result.Times, s.elapsed)
			result.MeanGrip = append(result.MeanGrip, s.MeanGrip())
		}
	}

	s.collect(result)
	return result, nil
}

func (s *Session) collect(r *Result) {
	r.Elapsed = s.elapsed
	for k, v := range s.mgr.MetricValues() {
		r.Metrics[k] = v
	}
}

// MeanGrip averages the scaled grip over every cell.
func (s *Session) MeanGrip() float64 {
	field := s.mgr.GripField()
	if len(field) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range field {
		sum += v
	}
	return sum / float64(len(field))
}
