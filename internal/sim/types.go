// Package sim runs track sessions: an evolution manager driven by traffic,
// advanced in fixed frames for a set duration.
package sim

import "fmt"

// Observer is notified after every frame.
type Observer interface {
	OnFrame(s *Session, t float64)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(s *Session, t float64)

func (f ObserverFunc) OnFrame(s *Session, t float64) { f(s, t) }

type Config struct {
	Dt       float64
	Duration float64
	// SampleEvery sets how many frames pass between grip samples in the
	// result. Zero samples every frame.
	SampleEvery int
}

func (c Config) Validate() error {
	if !(c.Dt > 0) {
		return fmt.Errorf("dt must be positive, got %f", c.Dt)
	}
	if !(c.Duration > 0) {
		return fmt.Errorf("duration must be positive, got %f", c.Duration)
	}
	if c.SampleEvery < 0 {
		return fmt.Errorf("sample interval must not be negative, got %d", c.SampleEvery)
	}
	return nil
}

type Result struct {
	Frames   int
	Elapsed  float64
	Times    []float64
	MeanGrip []float64
	Metrics  map[string]float64
}

// FinalGrip returns the last sampled mean grip, or zero without samples.
func (r *Result) FinalGrip() float64 {
	if len(r.MeanGrip) == 0 {
		return 0
	}
	return r.MeanGrip[len(r.MeanGrip)-1]
}
