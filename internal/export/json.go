// Package export writes surface snapshots to files: JSON dumps of every
// channel for offline analysis and SVG images of one channel.
package export

import (
	"encoding/json"
	"io"
	"os"

	"github.com/san-kum/trackevo/internal/atmosphere"
	"github.com/san-kum/trackevo/internal/evolution"
	"github.com/san-kum/trackevo/internal/surface"
)

// Snapshot is the full surface state at one moment.
type Snapshot struct {
	TrackID     string               `json:"track_id"`
	Dims        surface.Dims         `json:"dims"`
	Frame       uint64               `json:"frame"`
	Elapsed     float64              `json:"elapsed"`
	Hour        float64              `json:"hour"`
	Profile     string               `json:"profile"`
	GlobalGrip  float64              `json:"global_grip"`
	Environment atmosphere.State     `json:"environment"`
	Channels    map[string][]float64 `json:"channels"`
	Grip        []float64            `json:"grip"`
	Metrics     map[string]float64   `json:"metrics,omitempty"`
}

// Capture copies every channel of the manager's grid.
func Capture(trackID string, mgr *evolution.Manager, elapsed float64) Snapshot {
	channels := make(map[string][]float64, surface.Stride)
	for f := surface.Field(0); int(f) < surface.Stride; f++ {
		channels[f.String()] = mgr.Field(f)
	}
	return Snapshot{
		TrackID:     trackID,
		Dims:        mgr.Grid().Dims(),
		Frame:       mgr.Frame(),
		Elapsed:     elapsed,
		Hour:        mgr.TimeOfDay(),
		Profile:     mgr.Profile().String(),
		GlobalGrip:  mgr.GlobalGripMultiplier(),
		Environment: mgr.Atmosphere(),
		Channels:    channels,
		Grip:        mgr.GripField(),
		Metrics:     mgr.MetricValues(),
	}
}

func WriteJSON(w io.Writer, snap Snapshot) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(snap)
}

func ExportJSON(path string, snap Snapshot) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return WriteJSON(file, snap)
}

func ExportSVG(path, svg string) error {
	return os.WriteFile(path, []byte(svg), 0644)
}
