package evolution

import "github.com/san-kum/trackevo/internal/surface"

// Field copies one raw channel of the grid, s-major.
func (m *Manager) Field(f surface.Field) []float64 {
	return m.grid.Channel(f)
}

// GripField evaluates the scaled grip multiplier of every cell, s-major.
func (m *Manager) GripField() []float64 {
	dims := m.grid.Dims()
	out := make([]float64, 0, dims.Cells())
	for si := 0; si < dims.SSegments; si++ {
		for li := 0; li < dims.LatSegments; li++ {
			r := m.profile.Grip(m.grid.Cell(si, li))
			out = append(out, r.Multiplier*m.globalGrip)
		}
	}
	return out
}

// VisualField returns the channel selected by the config's visualization
// mode. ok is false for mode "none".
func (m *Manager) VisualField() (values []float64, ok bool) {
	switch m.cfg.VisualizationMode {
	case "none":
		return nil, false
	case "grip":
		return m.GripField(), true
	case "temperature":
		return m.Field(surface.FieldSurfaceTemp), true
	}
	f, known := surface.ParseField(m.cfg.VisualizationMode)
	if !known {
		return nil, false
	}
	return m.Field(f), true
}
