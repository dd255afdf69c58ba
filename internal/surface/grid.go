package surface

import "math"

// Dims fixes the grid topology for a session.
type Dims struct {
	SSegments   int     `yaml:"s_segments" json:"s_segments"`
	LatSegments int     `yaml:"lat_segments" json:"lat_segments"`
	TrackLength float64 `yaml:"track_length" json:"track_length"`
	TrackWidth  float64 `yaml:"track_width" json:"track_width"`
}

// MinLatSegments is the smallest lateral resolution with an interior column.
const MinLatSegments = 3

// Validate reports whether the dimensions can back a grid.
func (d Dims) Validate() error {
	if d.SSegments < 1 {
		return &DimensionError{Field: "s_segments", Value: float64(d.SSegments), Wrapped: ErrInvalidDimensions}
	}
	if d.LatSegments < MinLatSegments {
		return &DimensionError{Field: "lat_segments", Value: float64(d.LatSegments), Wrapped: ErrInvalidDimensions}
	}
	if !(d.TrackLength > 0) {
		return &DimensionError{Field: "track_length", Value: d.TrackLength, Wrapped: ErrInvalidTrack}
	}
	if !(d.TrackWidth > 0) {
		return &DimensionError{Field: "track_width", Value: d.TrackWidth, Wrapped: ErrInvalidTrack}
	}
	return nil
}

// Cells returns the total number of cells.
func (d Dims) Cells() int { return d.SSegments * d.LatSegments }

// Grid is the packed per-cell buffer.
type Grid struct {
	dims Dims
	data []float64
}

// NewGrid allocates a zeroed grid. Dimensions are immutable afterwards.
func NewGrid(d Dims) (*Grid, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return &Grid{dims: d, data: make([]float64, d.Cells()*Stride)}, nil
}

// Dims reports the grid topology.
func (g *Grid) Dims() Dims { return g.dims }

// RawBuffer exposes the backing slice for bulk passes.
func (g *Grid) RawBuffer() []float64 { return g.data }

// Offset returns the buffer offset of the first field of cell (sIdx, latIdx).
func (g *Grid) Offset(sIdx, latIdx int) int {
	return (sIdx*g.dims.LatSegments + latIdx) * Stride
}

// IndicesOf maps a continuous (s, d) position to grid indices.
func (g *Grid) IndicesOf(s, d float64) (int, int) {
	length := g.dims.TrackLength
	s = math.Mod(s, length)
	if s < 0 {
		s += length
	}
	sIdx := int(s / length * float64(g.dims.SSegments))
	if sIdx >= g.dims.SSegments {
		sIdx = g.dims.SSegments - 1
	}

	norm := (d + g.dims.TrackWidth/2) / g.dims.TrackWidth
	if norm < 0 || math.IsNaN(norm) {
		norm = 0
	}
	if norm > 0.999 {
		norm = 0.999
	}
	latIdx := int(norm * float64(g.dims.LatSegments))
	return sIdx, latIdx
}

// Position returns the (s, d) center of cell (sIdx, latIdx).
func (g *Grid) Position(sIdx, latIdx int) (float64, float64) {
	s := (float64(sIdx) + 0.5) / float64(g.dims.SSegments) * g.dims.TrackLength
	d := (float64(latIdx)+0.5)/float64(g.dims.LatSegments)*g.dims.TrackWidth - g.dims.TrackWidth/2
	return s, d
}

// Cell reads cell (sIdx, latIdx).
func (g *Grid) Cell(sIdx, latIdx int) Cell {
	var c Cell
	off := g.Offset(sIdx, latIdx)
	c.load(g.data[off : off+Stride])
	return c
}

// CellAt reads the cell containing (s, d).
func (g *Grid) CellAt(s, d float64) Cell {
	return g.Cell(g.IndicesOf(s, d))
}

// WriteCell stores c, clamping rubber, marbles and dust to [0,1].
func (g *Grid) WriteCell(sIdx, latIdx int, c Cell) {
	off := g.Offset(sIdx, latIdx)
	c.store(g.data[off : off+Stride])
}

// Update is the canonical read-modify-write path for a single cell.
func (g *Grid) Update(sIdx, latIdx int, fn func(*Cell)) {
	off := g.Offset(sIdx, latIdx)
	buf := g.data[off : off+Stride]
	var c Cell
	c.load(buf)
	fn(&c)
	c.store(buf)
}

// Value reads one field of cell (sIdx, latIdx).
func (g *Grid) Value(sIdx, latIdx int, f Field) float64 {
	return g.data[g.Offset(sIdx, latIdx)+int(f)]
}

// Channel copies one field of every cell into a row-major slice
// (s-major, lateral-minor).
func (g *Grid) Channel(f Field) []float64 {
	out := make([]float64, g.dims.Cells())
	for i := range out {
		out[i] = g.data[i*Stride+int(f)]
	}
	return out
}

// Reset overwrites every cell with initial.
func (g *Grid) Reset(initial Cell) {
	for i := 0; i < g.dims.Cells(); i++ {
		initial.store(g.data[i*Stride : (i+1)*Stride])
	}
}

// Averages holds grid-wide means.
type Averages struct {
	Rubber  float64
	Marbles float64
	Dust    float64
	Temp    float64
}

// Averages computes the mean rubber, marbles, dust and surface temperature.
func (g *Grid) Averages() Averages {
	var a Averages
	n := g.dims.Cells()
	for i := 0; i < n; i++ {
		base := i * Stride
		a.Rubber += g.data[base+int(FieldRubber)]
		a.Marbles += g.data[base+int(FieldMarbles)]
		a.Dust += g.data[base+int(FieldDust)]
		a.Temp += g.data[base+int(FieldSurfaceTemp)]
	}
	count := float64(n)
	a.Rubber /= count
	a.Marbles /= count
	a.Dust /= count
	a.Temp /= count
	return a
}
