package surface

// Field is the offset of a value inside one cell's stride.
type Field int

const (
	FieldRubber Field = iota
	FieldMarbles
	FieldDust
	FieldSurfaceTemp
	FieldSubSurfaceTemp
	FieldHeatFlux
	FieldPassingVolume
	FieldLastFrame

	// Stride is the number of float64 values per cell.
	Stride = int(FieldLastFrame) + 1
)

var fieldNames = [Stride]string{
	"rubber", "marbles", "dust", "surface_temp",
	"subsurface_temp", "heat_flux", "passing_volume", "last_frame",
}

func (f Field) String() string {
	if f < 0 || int(f) >= Stride {
		return "unknown"
	}
	return fieldNames[f]
}

// ParseField maps a field name back to its offset.
func ParseField(name string) (Field, bool) {
	for i, n := range fieldNames {
		if n == name {
			return Field(i), true
		}
	}
	return 0, false
}

// Cell is the logical view of one grid cell.
type Cell struct {
	Rubber         float64
	Marbles        float64
	Dust           float64
	SurfaceTemp    float64
	SubSurfaceTemp float64
	HeatFlux       float64
	PassingVolume  float64
	LastFrame      float64
}

func (c *Cell) load(buf []float64) {
	c.Rubber = buf[FieldRubber]
	c.Marbles = buf[FieldMarbles]
	c.Dust = buf[FieldDust]
	c.SurfaceTemp = buf[FieldSurfaceTemp]
	c.SubSurfaceTemp = buf[FieldSubSurfaceTemp]
	c.HeatFlux = buf[FieldHeatFlux]
	c.PassingVolume = buf[FieldPassingVolume]
	c.LastFrame = buf[FieldLastFrame]
}

func (c Cell) store(buf []float64) {
	buf[FieldRubber] = clamp01(c.Rubber)
	buf[FieldMarbles] = clamp01(c.Marbles)
	buf[FieldDust] = clamp01(c.Dust)
	buf[FieldSurfaceTemp] = c.SurfaceTemp
	buf[FieldSubSurfaceTemp] = c.SubSurfaceTemp
	buf[FieldHeatFlux] = c.HeatFlux
	buf[FieldPassingVolume] = c.PassingVolume
	buf[FieldLastFrame] = c.LastFrame
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
