package surface

import (
	"errors"
	"slices"
	"testing"
)

func testDims() Dims {
	return Dims{SSegments: 100, LatSegments: 10, TrackLength: 1000, TrackWidth: 12}
}

func newTestGrid(t *testing.T) *Grid {
	t.Helper()
	g, err := NewGrid(testDims())
	if err != nil {
		t.Fatalf("new grid: %v", err)
	}
	return g
}

func TestNewGridRejectsBadDims(t *testing.T) {
	tests := []struct {
		name string
		dims Dims
		want error
	}{
		{"zero s segments", Dims{SSegments: 0, LatSegments: 5, TrackLength: 10, TrackWidth: 10}, ErrInvalidDimensions},
		{"two lateral segments", Dims{SSegments: 5, LatSegments: 2, TrackLength: 10, TrackWidth: 10}, ErrInvalidDimensions},
		{"zero length", Dims{SSegments: 5, LatSegments: 5, TrackLength: 0, TrackWidth: 10}, ErrInvalidTrack},
		{"negative width", Dims{SSegments: 5, LatSegments: 5, TrackLength: 10, TrackWidth: -1}, ErrInvalidTrack},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewGrid(tt.dims)
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestIndicesOfPeriodicInS(t *testing.T) {
	g := newTestGrid(t)
	length := g.Dims().TrackLength

	positions := []struct{ s, d float64 }{
		{0, 0}, {12.5, -3.3}, {555.5, 5.9}, {999.5, -6}, {-42.5, 1.1}, {2345.5, 100},
	}
	for _, p := range positions {
		si, li := g.IndicesOf(p.s, p.d)
		si2, li2 := g.IndicesOf(p.s+length, p.d)
		if si != si2 || li != li2 {
			t.Errorf("s=%.2f d=%.2f: (%d,%d) != (%d,%d) after one lap", p.s, p.d, si, li, si2, li2)
		}
		if si < 0 || si >= g.Dims().SSegments {
			t.Errorf("s index %d out of range", si)
		}
		if li < 0 || li >= g.Dims().LatSegments {
			t.Errorf("lateral index %d out of range", li)
		}
	}
}

func TestIndicesOfClampsLaterally(t *testing.T) {
	g := newTestGrid(t)

	_, left := g.IndicesOf(0, -50)
	_, right := g.IndicesOf(0, 50)
	_, edge := g.IndicesOf(0, 6)

	if left != 0 {
		t.Errorf("expected left clamp to 0, got %d", left)
	}
	if right != 9 {
		t.Errorf("expected right clamp to 9, got %d", right)
	}
	if edge != 9 {
		t.Errorf("expected right edge in last column, got %d", edge)
	}
}

func TestWriteCellClamps(t *testing.T) {
	g := newTestGrid(t)

	tests := []struct {
		in, want float64
	}{
		{1.5, 1.0},
		{-0.2, 0.0},
		{0.4, 0.4},
	}

	for _, tt := range tests {
		g.WriteCell(3, 4, Cell{Rubber: tt.in, Marbles: tt.in, Dust: tt.in, SurfaceTemp: -15, HeatFlux: -300})
		c := g.Cell(3, 4)
		if c.Rubber != tt.want || c.Marbles != tt.want || c.Dust != tt.want {
			t.Errorf("write %.2f: got rubber=%.2f marbles=%.2f dust=%.2f, want %.2f",
				tt.in, c.Rubber, c.Marbles, c.Dust, tt.want)
		}
		if c.SurfaceTemp != -15 || c.HeatFlux != -300 {
			t.Errorf("thermal fields must not be clamped: %+v", c)
		}
	}
}

func TestUpdateTouchesOnlyOneCell(t *testing.T) {
	g := newTestGrid(t)
	before := slices.Clone(g.RawBuffer())

	g.Update(7, 2, func(c *Cell) {
		c.Rubber += 0.3
		c.PassingVolume++
	})

	after := g.RawBuffer()
	off := g.Offset(7, 2)
	for i := range after {
		inCell := i >= off && i < off+Stride
		if !inCell && after[i] != before[i] {
			t.Fatalf("buffer index %d changed outside updated cell", i)
		}
	}
	if g.Value(7, 2, FieldRubber) != 0.3 {
		t.Errorf("expected rubber 0.3, got %f", g.Value(7, 2, FieldRubber))
	}
	if g.Value(7, 2, FieldPassingVolume) != 1 {
		t.Errorf("expected passing volume 1, got %f", g.Value(7, 2, FieldPassingVolume))
	}
}

func TestCellAtMatchesIndices(t *testing.T) {
	g := newTestGrid(t)
	si, li := g.IndicesOf(333, 2)
	g.WriteCell(si, li, Cell{Rubber: 0.7, SurfaceTemp: 31})

	c := g.CellAt(333, 2)
	if c.Rubber != 0.7 || c.SurfaceTemp != 31 {
		t.Errorf("unexpected cell %+v", c)
	}
}

func TestResetAndAverages(t *testing.T) {
	g := newTestGrid(t)
	g.Reset(Cell{Dust: 0.2, SurfaceTemp: 25, SubSurfaceTemp: 25})
	g.WriteCell(0, 0, Cell{Rubber: 1, Dust: 0.2, SurfaceTemp: 25})

	avg := g.Averages()
	cells := float64(g.Dims().Cells())
	if want := 1 / cells; avg.Rubber != want {
		t.Errorf("expected avg rubber %g, got %g", want, avg.Rubber)
	}
	if avg.Temp != 25 {
		t.Errorf("expected avg temp 25, got %g", avg.Temp)
	}
	if avg.Marbles != 0 {
		t.Errorf("expected avg marbles 0, got %g", avg.Marbles)
	}
}

func TestChannelAndPosition(t *testing.T) {
	g := newTestGrid(t)
	g.WriteCell(4, 6, Cell{Marbles: 0.5})

	ch := g.Channel(FieldMarbles)
	if len(ch) != g.Dims().Cells() {
		t.Fatalf("expected %d values, got %d", g.Dims().Cells(), len(ch))
	}
	if ch[4*g.Dims().LatSegments+6] != 0.5 {
		t.Error("channel layout mismatch")
	}

	s, d := g.Position(4, 6)
	si, li := g.IndicesOf(s, d)
	if si != 4 || li != 6 {
		t.Errorf("position round trip gave (%d,%d)", si, li)
	}
}

func TestParseField(t *testing.T) {
	for f := FieldRubber; f <= FieldLastFrame; f++ {
		got, ok := ParseField(f.String())
		if !ok || got != f {
			t.Errorf("field %d did not round trip through %q", f, f.String())
		}
	}
	if _, ok := ParseField("wetness"); ok {
		t.Error("expected unknown field to fail")
	}
}
