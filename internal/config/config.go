package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/san-kum/trackevo/internal/atmosphere"
	"github.com/san-kum/trackevo/internal/constants"
	"github.com/san-kum/trackevo/internal/surface"
	"gopkg.in/yaml.v3"
)

const (
	DefaultRubberTransfer  = 0.002
	DefaultMarbleDiscard   = 0.01
	DefaultDustDeposition  = 0.00002
	DefaultSpecificHeat    = 900.0
	DefaultConductivity    = 0.75
	DefaultConvection      = 10.0
	DefaultStepDt          = 0.1
	DefaultMaxSubSteps     = 10
	DefaultSSegments       = 512
	DefaultLatSegments     = 16
	DefaultTrackLength     = 4300.0
	DefaultTrackWidth      = 14.0
	DefaultInitialDust     = 0.1
	DefaultStartHour       = 12.0
	DefaultVisualization   = "grip"
	DefaultProfile         = "standard"
	DefaultDataDir         = ".trackevo"
	DefaultSessionDuration = 600.0
)

// VisualizationModes lists the accepted visualization tags.
var VisualizationModes = []string{"none", "grip", "rubber", "marbles", "dust", "temperature"}

var (
	// ErrInvalid indicates a configuration value outside its valid range.
	ErrInvalid = errors.New("config: invalid value")

	// ErrUnstable indicates thermal constants that make the explicit step diverge.
	ErrUnstable = errors.New("config: thermal step unstable")
)

// FieldError names the offending configuration field.
type FieldError struct {
	Field   string
	Value   any
	Wrapped error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%v: %s=%v", e.Wrapped, e.Field, e.Value)
}

func (e *FieldError) Unwrap() error { return e.Wrapped }

// Evolution holds the tunable rates of the surface simulation.
type Evolution struct {
	Enabled                   bool    `yaml:"enabled" json:"enabled"`
	RubberTransferCoefficient float64 `yaml:"rubber_transfer_coefficient" json:"rubber_transfer_coefficient"`
	MarbleDiscardRate         float64 `yaml:"marble_discard_rate" json:"marble_discard_rate"`
	DustDepositionRate        float64 `yaml:"dust_deposition_rate" json:"dust_deposition_rate"`
	TrackSpecificHeat         float64 `yaml:"track_specific_heat" json:"track_specific_heat"`
	ThermalConductivity       float64 `yaml:"thermal_conductivity" json:"thermal_conductivity"`
	ConvectionCoefficient     float64 `yaml:"convection_coefficient" json:"convection_coefficient"`
	SimulationStepDt          float64 `yaml:"simulation_step_dt" json:"simulation_step_dt"`
	VisualizationMode         string  `yaml:"visualization_mode" json:"visualization_mode"`
	MaxSubSteps               int     `yaml:"max_sub_steps" json:"max_sub_steps"`
	PassiveEvery              int     `yaml:"passive_every" json:"passive_every"`
	FrictionHeatFactor        float64 `yaml:"friction_heat_factor" json:"friction_heat_factor"`
}

// DefaultEvolution returns the reference tuning.
func DefaultEvolution() Evolution {
	return Evolution{
		Enabled:                   true,
		RubberTransferCoefficient: DefaultRubberTransfer,
		MarbleDiscardRate:         DefaultMarbleDiscard,
		DustDepositionRate:        DefaultDustDeposition,
		TrackSpecificHeat:         DefaultSpecificHeat,
		ThermalConductivity:       DefaultConductivity,
		ConvectionCoefficient:     DefaultConvection,
		SimulationStepDt:          DefaultStepDt,
		VisualizationMode:         DefaultVisualization,
		MaxSubSteps:               DefaultMaxSubSteps,
		FrictionHeatFactor:        constants.FrictionHeatFactor,
	}
}

// Validate rejects values that would make the simulation meaningless or
// numerically unstable.
func (e Evolution) Validate() error {
	nonNegative := []struct {
		name string
		v    float64
	}{
		{"rubber_transfer_coefficient", e.RubberTransferCoefficient},
		{"marble_discard_rate", e.MarbleDiscardRate},
		{"dust_deposition_rate", e.DustDepositionRate},
		{"thermal_conductivity", e.ThermalConductivity},
		{"convection_coefficient", e.ConvectionCoefficient},
		{"friction_heat_factor", e.FrictionHeatFactor},
	}
	for _, f := range nonNegative {
		if !(f.v >= 0) {
			return &FieldError{Field: f.name, Value: f.v, Wrapped: ErrInvalid}
		}
	}
	if !(e.TrackSpecificHeat > 0) {
		return &FieldError{Field: "track_specific_heat", Value: e.TrackSpecificHeat, Wrapped: ErrInvalid}
	}
	if !(e.SimulationStepDt > 0) {
		return &FieldError{Field: "simulation_step_dt", Value: e.SimulationStepDt, Wrapped: ErrInvalid}
	}
	if e.MaxSubSteps < 1 {
		return &FieldError{Field: "max_sub_steps", Value: e.MaxSubSteps, Wrapped: ErrInvalid}
	}
	if e.PassiveEvery < 0 {
		return &FieldError{Field: "passive_every", Value: e.PassiveEvery, Wrapped: ErrInvalid}
	}
	if !validMode(e.VisualizationMode) {
		return &FieldError{Field: "visualization_mode", Value: e.VisualizationMode, Wrapped: ErrInvalid}
	}
	if n := e.StabilityNumber(); n >= 1 {
		return &FieldError{Field: "simulation_step_dt", Value: e.SimulationStepDt, Wrapped: ErrUnstable}
	}
	if e.DiffusionNumber() > 1 {
		return &FieldError{Field: "passive_every", Value: e.PassiveEvery, Wrapped: ErrUnstable}
	}
	return nil
}

// DiffusionNumber is the lateral blend fraction of one passive pass. Above 1
// the blur overshoots the neighbour average.
func (e Evolution) DiffusionNumber() float64 {
	return constants.LateralDiffusion * e.SimulationStepDt * float64(e.PassiveEvery)
}

// StabilityNumber is the explicit-Euler amplification bound of the linear
// thermal terms for one sub-step. Values at or above 1 oscillate or diverge.
func (e Evolution) StabilityNumber() float64 {
	linear := e.ConvectionCoefficient + e.ThermalConductivity/constants.ConductionDepth
	return e.SimulationStepDt * linear / (constants.CellMass * e.TrackSpecificHeat)
}

func validMode(m string) bool {
	for _, v := range VisualizationModes {
		if v == m {
			return true
		}
	}
	return false
}

// Config is a full session description.
type Config struct {
	Track       surface.Dims     `yaml:"track"`
	Seed        int64            `yaml:"seed"`
	StartHour   float64          `yaml:"start_hour"`
	TimeScale   float64          `yaml:"time_scale"`
	Profile     string           `yaml:"profile"`
	InitialDust float64          `yaml:"initial_dust"`
	Duration    float64          `yaml:"duration"`
	Cars        int              `yaml:"cars"`
	Evolution   Evolution        `yaml:"evolution"`
	Environment atmosphere.State `yaml:"environment"`
}

func DefaultConfig() *Config {
	return &Config{
		Track: surface.Dims{
			SSegments:   DefaultSSegments,
			LatSegments: DefaultLatSegments,
			TrackLength: DefaultTrackLength,
			TrackWidth:  DefaultTrackWidth,
		},
		Seed:        1,
		StartHour:   DefaultStartHour,
		TimeScale:   1,
		Profile:     DefaultProfile,
		InitialDust: DefaultInitialDust,
		Duration:    DefaultSessionDuration,
		Cars:        10,
		Evolution:   DefaultEvolution(),
		Environment: atmosphere.DefaultState(),
	}
}

// Validate checks the whole session description.
func (c *Config) Validate() error {
	if err := c.Track.Validate(); err != nil {
		return err
	}
	if c.InitialDust < 0 || c.InitialDust > 1 {
		return &FieldError{Field: "initial_dust", Value: c.InitialDust, Wrapped: ErrInvalid}
	}
	if c.TimeScale < 0 {
		return &FieldError{Field: "time_scale", Value: c.TimeScale, Wrapped: ErrInvalid}
	}
	if c.Cars < 0 {
		return &FieldError{Field: "cars", Value: c.Cars, Wrapped: ErrInvalid}
	}
	return c.Evolution.Validate()
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
