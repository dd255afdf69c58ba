package config

import "sort"

// Presets are named session tunings. Each entry is applied over DefaultConfig.
var Presets = map[string]func(*Config){
	"practice": func(c *Config) {
		c.Cars = 6
		c.Duration = 900
	},
	"qualifying": func(c *Config) {
		c.Cars = 20
		c.Duration = 600
		c.InitialDust = 0.04
		c.Evolution.RubberTransferCoefficient = 0.003
	},
	"race": func(c *Config) {
		c.Cars = 20
		c.Duration = 3600
		c.InitialDust = 0.02
		c.Evolution.MarbleDiscardRate = 0.015
		c.Evolution.PassiveEvery = 10
	},
	"night": func(c *Config) {
		c.StartHour = 21
		c.Environment.AmbientTemp = 16
		c.Environment.TrackAmbientTemp = 18
		c.Evolution.VisualizationMode = "temperature"
	},
	"desert": func(c *Config) {
		c.InitialDust = 0.35
		c.Profile = "extended"
		c.Environment.WindSpeed = 7
		c.Environment.Humidity = 0.1
		c.Evolution.DustDepositionRate = 0.0001
		c.Evolution.VisualizationMode = "dust"
	},
	"timelapse": func(c *Config) {
		c.TimeScale = 60
		c.Duration = 1440
		c.Evolution.PassiveEvery = 1
	},
}

// GetPreset returns a fresh config with the named preset applied, or nil.
func GetPreset(name string) *Config {
	apply, ok := Presets[name]
	if !ok {
		return nil
	}
	cfg := DefaultConfig()
	apply(cfg)
	return cfg
}

// ListPresets returns the preset names in sorted order.
func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
