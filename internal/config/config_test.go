package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Evolution.SimulationStepDt != 0.1 {
		t.Errorf("expected step 0.1, got %f", cfg.Evolution.SimulationStepDt)
	}
	if !cfg.Evolution.Enabled {
		t.Error("evolution should be enabled by default")
	}
	if cfg.Evolution.PassiveEvery != 0 {
		t.Error("passive relaxation should be off by default")
	}
}

func TestEvolutionValidate(t *testing.T) {
	tests := []struct {
		name  string
		patch Patch
		want  error
	}{
		{"zero specific heat", Patch{TrackSpecificHeat: Float(0)}, ErrInvalid},
		{"negative specific heat", Patch{TrackSpecificHeat: Float(-900)}, ErrInvalid},
		{"zero step", Patch{SimulationStepDt: Float(0)}, ErrInvalid},
		{"negative rubber rate", Patch{RubberTransferCoefficient: Float(-1)}, ErrInvalid},
		{"no sub steps", Patch{MaxSubSteps: Int(0)}, ErrInvalid},
		{"unknown mode", Patch{VisualizationMode: String("wetness")}, ErrInvalid},
		{"huge step", Patch{SimulationStepDt: Float(1000)}, ErrUnstable},
		{"tiny heat capacity", Patch{TrackSpecificHeat: Float(0.01)}, ErrUnstable},
		{"diffusion overshoot", Patch{PassiveEvery: Int(30)}, ErrUnstable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := DefaultEvolution().Apply(tt.patch).Validate()
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
			var fe *FieldError
			if !errors.As(err, &fe) || fe.Field == "" {
				t.Errorf("expected field error, got %T", err)
			}
		})
	}
}

func TestApplyMerges(t *testing.T) {
	base := DefaultEvolution()
	merged := base.Apply(Patch{Enabled: Bool(false), MarbleDiscardRate: Float(0.5)})

	if merged.Enabled {
		t.Error("enabled not patched")
	}
	if merged.MarbleDiscardRate != 0.5 {
		t.Errorf("marble rate not patched: %f", merged.MarbleDiscardRate)
	}
	if merged.RubberTransferCoefficient != base.RubberTransferCoefficient {
		t.Error("unset field changed")
	}
	if !base.Enabled {
		t.Error("apply must not modify the receiver")
	}
	if !(Patch{}).Empty() {
		t.Error("zero patch should be empty")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.yaml")
	cfg := DefaultConfig()
	cfg.Track.SSegments = 64
	cfg.Evolution.PassiveEvery = 5
	cfg.Profile = "extended"

	if err := Save(path, cfg); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if loaded.Track.SSegments != 64 || loaded.Evolution.PassiveEvery != 5 || loaded.Profile != "extended" {
		t.Errorf("round trip lost values: %+v", loaded)
	}
}

func TestLoadPartialKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.yaml")
	if err := os.WriteFile(path, []byte("seed: 42\nevolution:\n  max_sub_steps: 3\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Seed != 42 || cfg.Evolution.MaxSubSteps != 3 {
		t.Errorf("values not loaded: %+v", cfg)
	}
	if cfg.Evolution.TrackSpecificHeat != DefaultSpecificHeat {
		t.Errorf("default lost: %f", cfg.Evolution.TrackSpecificHeat)
	}
	if cfg.Track.LatSegments != DefaultLatSegments {
		t.Errorf("track default lost: %d", cfg.Track.LatSegments)
	}
}

func TestLoadPatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "patch.yaml")
	if err := os.WriteFile(path, []byte("enabled: false\nconvection_coefficient: 14.5\n"), 0644); err != nil {
		t.Fatal(err)
	}

	p, err := LoadPatch(path)
	if err != nil {
		t.Fatalf("load patch failed: %v", err)
	}
	if p.Enabled == nil || *p.Enabled {
		t.Error("enabled not parsed")
	}
	if p.ConvectionCoefficient == nil || *p.ConvectionCoefficient != 14.5 {
		t.Error("convection not parsed")
	}
	if p.TrackSpecificHeat != nil {
		t.Error("absent key must stay nil")
	}
}

func TestGetPreset(t *testing.T) {
	for _, name := range ListPresets() {
		cfg := GetPreset(name)
		if cfg == nil {
			t.Fatalf("preset %s missing", name)
		}
		if err := cfg.Validate(); err != nil {
			t.Errorf("preset %s invalid: %v", name, err)
		}
	}

	if GetPreset("nonexistent") != nil {
		t.Error("expected nil for nonexistent preset")
	}
	if GetPreset("night").StartHour != 21 {
		t.Error("night preset not applied")
	}
	if DefaultConfig().StartHour == 21 {
		t.Error("preset leaked into defaults")
	}
}

func TestFloatPatch(t *testing.T) {
	for _, field := range SweepFields {
		p, err := FloatPatch(field, 0.5)
		if err != nil {
			t.Errorf("%s: %v", field, err)
			continue
		}
		if p.Empty() {
			t.Errorf("%s: patch sets nothing", field)
		}
	}

	p, _ := FloatPatch("marble_discard_rate", 0.07)
	if got := DefaultEvolution().Apply(p).MarbleDiscardRate; got != 0.07 {
		t.Errorf("expected 0.07, got %f", got)
	}

	if _, err := FloatPatch("enabled", 1); !errors.Is(err, ErrInvalid) {
		t.Errorf("expected ErrInvalid for non-float field, got %v", err)
	}
}
