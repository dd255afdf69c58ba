package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Patch is a merge-patch over Evolution: nil fields keep their current value.
type Patch struct {
	Enabled                   *bool    `yaml:"enabled,omitempty" json:"enabled,omitempty"`
	RubberTransferCoefficient *float64 `yaml:"rubber_transfer_coefficient,omitempty" json:"rubber_transfer_coefficient,omitempty"`
	MarbleDiscardRate         *float64 `yaml:"marble_discard_rate,omitempty" json:"marble_discard_rate,omitempty"`
	DustDepositionRate        *float64 `yaml:"dust_deposition_rate,omitempty" json:"dust_deposition_rate,omitempty"`
	TrackSpecificHeat         *float64 `yaml:"track_specific_heat,omitempty" json:"track_specific_heat,omitempty"`
	ThermalConductivity       *float64 `yaml:"thermal_conductivity,omitempty" json:"thermal_conductivity,omitempty"`
	ConvectionCoefficient     *float64 `yaml:"convection_coefficient,omitempty" json:"convection_coefficient,omitempty"`
	SimulationStepDt          *float64 `yaml:"simulation_step_dt,omitempty" json:"simulation_step_dt,omitempty"`
	VisualizationMode         *string  `yaml:"visualization_mode,omitempty" json:"visualization_mode,omitempty"`
	MaxSubSteps               *int     `yaml:"max_sub_steps,omitempty" json:"max_sub_steps,omitempty"`
	PassiveEvery              *int     `yaml:"passive_every,omitempty" json:"passive_every,omitempty"`
	FrictionHeatFactor        *float64 `yaml:"friction_heat_factor,omitempty" json:"friction_heat_factor,omitempty"`
}

// Apply returns e with every non-nil field of p merged in. e is not modified.
func (e Evolution) Apply(p Patch) Evolution {
	if p.Enabled != nil {
		e.Enabled = *p.Enabled
	}
	if p.RubberTransferCoefficient != nil {
		e.RubberTransferCoefficient = *p.RubberTransferCoefficient
	}
	if p.MarbleDiscardRate != nil {
		e.MarbleDiscardRate = *p.MarbleDiscardRate
	}
	if p.DustDepositionRate != nil {
		e.DustDepositionRate = *p.DustDepositionRate
	}
	if p.TrackSpecificHeat != nil {
		e.TrackSpecificHeat = *p.TrackSpecificHeat
	}
	if p.ThermalConductivity != nil {
		e.ThermalConductivity = *p.ThermalConductivity
	}
	if p.ConvectionCoefficient != nil {
		e.ConvectionCoefficient = *p.ConvectionCoefficient
	}
	if p.SimulationStepDt != nil {
		e.SimulationStepDt = *p.SimulationStepDt
	}
	if p.VisualizationMode != nil {
		e.VisualizationMode = *p.VisualizationMode
	}
	if p.MaxSubSteps != nil {
		e.MaxSubSteps = *p.MaxSubSteps
	}
	if p.PassiveEvery != nil {
		e.PassiveEvery = *p.PassiveEvery
	}
	if p.FrictionHeatFactor != nil {
		e.FrictionHeatFactor = *p.FrictionHeatFactor
	}
	return e
}

// Empty reports whether p sets nothing.
func (p Patch) Empty() bool {
	return p == Patch{}
}

// LoadPatch reads a YAML merge-patch. Keys absent from the file stay nil.
func LoadPatch(path string) (Patch, error) {
	var p Patch
	data, err := os.ReadFile(path)
	if err != nil {
		return p, err
	}
	if err := yaml.Unmarshal(data, &p); err != nil {
		return p, fmt.Errorf("parse patch %s: %w", path, err)
	}
	return p, nil
}

// Bool, Float, Int and String build patch fields inline.
func Bool(v bool) *bool        { return &v }
func Float(v float64) *float64 { return &v }
func Int(v int) *int           { return &v }
func String(v string) *string  { return &v }

// SweepFields lists the float fields FloatPatch accepts, by yaml name.
var SweepFields = []string{
	"rubber_transfer_coefficient",
	"marble_discard_rate",
	"dust_deposition_rate",
	"track_specific_heat",
	"thermal_conductivity",
	"convection_coefficient",
	"simulation_step_dt",
	"friction_heat_factor",
}

// FloatPatch builds a patch setting the float field named by its yaml key.
func FloatPatch(field string, v float64) (Patch, error) {
	var p Patch
	switch field {
	case "rubber_transfer_coefficient":
		p.RubberTransferCoefficient = &v
	case "marble_discard_rate":
		p.MarbleDiscardRate = &v
	case "dust_deposition_rate":
		p.DustDepositionRate = &v
	case "track_specific_heat":
		p.TrackSpecificHeat = &v
	case "thermal_conductivity":
		p.ThermalConductivity = &v
	case "convection_coefficient":
		p.ConvectionCoefficient = &v
	case "simulation_step_dt":
		p.SimulationStepDt = &v
	case "friction_heat_factor":
		p.FrictionHeatFactor = &v
	default:
		return p, fmt.Errorf("%w: unknown field %q", ErrInvalid, field)
	}
	return p, nil
}
