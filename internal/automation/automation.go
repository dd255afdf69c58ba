// Package automation runs scripted sessions: scenarios that change the
// conditions between steps of one evolving surface, and parameter sweeps
// that compare independent sessions.
package automation

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/trackevo/internal/atmosphere"
	"github.com/san-kum/trackevo/internal/config"
	"github.com/san-kum/trackevo/internal/evolution"
	"github.com/san-kum/trackevo/internal/sim"
)

// Scenario defines a scripted session sequence
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Preset      string         `yaml:"preset"`
	Steps       []ScenarioStep `yaml:"steps"`
}

// ScenarioStep is a single step in a scenario. Unset fields keep the
// conditions left by the previous step.
type ScenarioStep struct {
	Name        string           `yaml:"name"`
	Duration    float64          `yaml:"duration"`
	Cars        *int             `yaml:"cars,omitempty"`
	Hour        *float64         `yaml:"hour,omitempty"`
	Grip        *float64         `yaml:"grip,omitempty"`
	Environment atmosphere.Patch `yaml:"environment,omitempty"`
	Evolution   config.Patch     `yaml:"evolution,omitempty"`
	SaveAs      string           `yaml:"save_as,omitempty"`
}

// StepResult holds the state at the end of one step.
type StepResult struct {
	Name     string
	Start    float64
	End      float64
	Hour     float64
	MeanGrip float64
	Metrics  map[string]float64
}

// RunOptions are shared by scenario and sweep runs.
type RunOptions struct {
	Dt     float64
	Logger *slog.Logger
	// Store receives summaries of steps with SaveAs set. Nil skips saving.
	Store evolution.SummarySaver
}

func (o RunOptions) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.Default()
	}
	return o.Logger
}

// LoadScenario loads a scenario from a YAML file
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, fmt.Errorf("parse scenario %s: %w", path, err)
	}
	if err := scenario.Validate(); err != nil {
		return nil, err
	}

	return &scenario, nil
}

func (sc *Scenario) Validate() error {
	if len(sc.Steps) == 0 {
		return fmt.Errorf("scenario %q has no steps", sc.Name)
	}
	if sc.Preset != "" && config.GetPreset(sc.Preset) == nil {
		return fmt.Errorf("scenario %q: unknown preset %s", sc.Name, sc.Preset)
	}
	for i, step := range sc.Steps {
		if !(step.Duration > 0) {
			return fmt.Errorf("step %d: duration must be positive, got %f", i+1, step.Duration)
		}
		if step.Cars != nil && *step.Cars < 0 {
			return fmt.Errorf("step %d: negative car count", i+1)
		}
	}
	return nil
}

// BaseConfig returns the config the scenario starts from.
func (sc *Scenario) BaseConfig() *config.Config {
	if sc.Preset != "" {
		if cfg := config.GetPreset(sc.Preset); cfg != nil {
			return cfg
		}
	}
	return config.DefaultConfig()
}

// RunScenario executes all steps on one session so the surface carries over
// from step to step.
func RunScenario(ctx context.Context, scenario *Scenario, base *config.Config, opts RunOptions) ([]StepResult, error) {
	logger := opts.logger()
	s, err := sim.New(base, logger)
	if err != nil {
		return nil, err
	}
	mgr := s.Manager()
	results := make([]StepResult, 0, len(scenario.Steps))

	for i, step := range scenario.Steps {
		name := step.Name
		if name == "" {
			name = fmt.Sprintf("step-%d", i+1)
		}
		logger.Info("running scenario step", "step", i+1, "of", len(scenario.Steps), "name", name)

		if err := mgr.SetConfig(step.Evolution); err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}
		mgr.ApplyEnvironmentOverrides(step.Environment)
		if step.Hour != nil {
			mgr.SetTimeOfDay(*step.Hour)
		}
		if step.Grip != nil {
			mgr.SetGlobalGripMultiplier(*step.Grip)
		}
		if step.Cars != nil {
			s.SetCars(*step.Cars)
		}

		start := s.Elapsed()
		res, err := s.Run(ctx, sim.Config{Dt: opts.Dt, Duration: step.Duration})
		if err != nil {
			return results, fmt.Errorf("step %d run: %w", i+1, err)
		}

		results = append(results, StepResult{
			Name:     name,
			Start:    start,
			End:      s.Elapsed(),
			Hour:     mgr.TimeOfDay(),
			MeanGrip: res.FinalGrip(),
			Metrics:  res.Metrics,
		})

		if step.SaveAs != "" && opts.Store != nil {
			mgr.SaveSummary(opts.Store, step.SaveAs)
		}
	}

	return results, nil
}

// ParameterSweep runs independent sessions across a range of one evolution
// parameter.
type ParameterSweep struct {
	ParamName string
	ParamMin  float64
	ParamMax  float64
	NumSteps  int
	Duration  float64
}

// SweepResult holds results from a parameter sweep
type SweepResult struct {
	ParamValue float64
	MeanGrip   float64
	Metrics    map[string]float64
}

// Values returns the evenly spaced parameter values of the sweep.
func (sw *ParameterSweep) Values() []float64 {
	if sw.NumSteps == 1 {
		return []float64{sw.ParamMin}
	}
	paramStep := (sw.ParamMax - sw.ParamMin) / float64(sw.NumSteps-1)
	out := make([]float64, sw.NumSteps)
	for i := range out {
		out[i] = sw.ParamMin + float64(i)*paramStep
	}
	return out
}

// RunSweep executes a parameter sweep. Sessions run concurrently and results
// are ordered by parameter value. A value the config rejects fails the sweep.
func RunSweep(ctx context.Context, sweep *ParameterSweep, base *config.Config, opts RunOptions) ([]SweepResult, error) {
	if sweep.NumSteps < 1 {
		return nil, fmt.Errorf("sweep needs at least one step, got %d", sweep.NumSteps)
	}
	duration := sweep.Duration
	if duration <= 0 {
		duration = base.Duration
	}

	values := sweep.Values()
	cfgs := make([]config.Config, len(values))
	for i, v := range values {
		p, err := config.FloatPatch(sweep.ParamName, v)
		if err != nil {
			return nil, err
		}
		cfgs[i] = *base
		cfgs[i].Evolution = base.Evolution.Apply(p)
		if err := cfgs[i].Validate(); err != nil {
			return nil, fmt.Errorf("%s=%g: %w", sweep.ParamName, v, err)
		}
	}

	logger := opts.logger()
	results := make([]SweepResult, len(values))
	errs := make([]error, len(values))

	var wg sync.WaitGroup
	for i := range values {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()

			s, err := sim.New(&cfgs[idx], logger)
			if err != nil {
				errs[idx] = err
				return
			}
			res, err := s.Run(ctx, sim.Config{Dt: opts.Dt, Duration: duration})
			if err != nil {
				errs[idx] = err
				return
			}
			results[idx] = SweepResult{
				ParamValue: values[idx],
				MeanGrip:   res.FinalGrip(),
				Metrics:    res.Metrics,
			}
			logger.Debug("sweep point done", "param", sweep.ParamName, "value", values[idx])
		}(i)
	}

	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	return results, nil
}

// Best returns the sweep point with the highest (or lowest) value of metric.
func Best(results []SweepResult, metric string, maximize bool) (SweepResult, bool) {
	if len(results) == 0 {
		return SweepResult{}, false
	}
	best := results[0]
	for _, r := range results[1:] {
		v, b := r.Metrics[metric], best.Metrics[metric]
		if (maximize && v > b) || (!maximize && v < b) {
			best = r
		}
	}
	return best, true
}
