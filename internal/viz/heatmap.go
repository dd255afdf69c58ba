package viz

import (
	"math"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/trackevo/internal/surface"
)

// Range is the value span mapped onto a palette.
type Range struct {
	Lo, Hi float64
}

// Normalize maps v into [0,1]. A degenerate range maps everything to 0.5.
func (r Range) Normalize(v float64) float64 {
	if !(r.Hi > r.Lo) {
		return 0.5
	}
	return clampUnit((v - r.Lo) / (r.Hi - r.Lo))
}

var modeRanges = map[string]Range{
	"grip":        {0.8, 1.1},
	"rubber":      {0, 1},
	"marbles":     {0, 0.2},
	"dust":        {0, 0.3},
	"temperature": {10, 60},
}

// ModeRange returns the fixed display span of a visualization mode.
func ModeRange(mode string) (Range, bool) {
	r, ok := modeRanges[mode]
	return r, ok
}

// AutoRange spans the finite values present.
func AutoRange(values []float64) Range {
	lo, hi := minMax(values)
	if math.IsInf(lo, 0) || math.IsInf(hi, 0) {
		return Range{0, 1}
	}
	return Range{lo, hi}
}

// glyphRamp goes from empty to full.
const glyphRamp = " .:-=+*#%@"

// Heatmap draws an s × lateral channel at a fixed character size. Columns run
// along the lap, rows across the track with row 0 at the most negative d.
type Heatmap struct {
	Cols    int
	Rows    int
	Palette Palette
}

// Resample averages values (s-major, as returned by Grid.Channel) into
// Rows × Cols bins. Cols and Rows are capped at the grid resolution.
func (h Heatmap) Resample(values []float64, dims surface.Dims) [][]float64 {
	cols := min(max(h.Cols, 1), dims.SSegments)
	rows := min(max(h.Rows, 1), dims.LatSegments)

	out := make([][]float64, rows)
	for r := range out {
		out[r] = make([]float64, cols)
		liLo, liHi := r*dims.LatSegments/rows, (r+1)*dims.LatSegments/rows
		for c := range out[r] {
			siLo, siHi := c*dims.SSegments/cols, (c+1)*dims.SSegments/cols
			sum := 0.0
			for si := siLo; si < siHi; si++ {
				for li := liLo; li < liHi; li++ {
					sum += values[si*dims.LatSegments+li]
				}
			}
			out[r][c] = sum / float64((siHi-siLo)*(liHi-liLo))
		}
	}
	return out
}

// Glyphs renders the heatmap with an ASCII density ramp and no colour.
func (h Heatmap) Glyphs(values []float64, dims surface.Dims, rng Range) string {
	bins := h.Resample(values, dims)
	last := len(glyphRamp) - 1
	var b strings.Builder
	for r, row := range bins {
		if r > 0 {
			b.WriteByte('\n')
		}
		for _, v := range row {
			b.WriteByte(glyphRamp[int(math.Round(rng.Normalize(v)*float64(last)))])
		}
	}
	return b.String()
}

// Render paints the heatmap with full blocks coloured by the palette.
func (h Heatmap) Render(values []float64, dims surface.Dims, rng Range) string {
	bins := h.Resample(values, dims)
	styles := make(map[lipgloss.Color]lipgloss.Style)
	var b strings.Builder
	for r, row := range bins {
		if r > 0 {
			b.WriteByte('\n')
		}
		for _, v := range row {
			col := h.Palette.Color(rng.Normalize(v))
			st, ok := styles[col]
			if !ok {
				st = lipgloss.NewStyle().Foreground(col)
				styles[col] = st
			}
			b.WriteString(st.Render("█"))
		}
	}
	return b.String()
}

// Legend renders the palette ramp with its bounds.
func (h Heatmap) Legend(rng Range, width int) string {
	var b strings.Builder
	for i := 0; i < width; i++ {
		t := float64(i) / float64(max(width-1, 1))
		b.WriteString(lipgloss.NewStyle().Foreground(h.Palette.Color(t)).Render("█"))
	}
	return subtleStyle.Render(formatBound(rng.Lo)) + " " + b.String() + " " + subtleStyle.Render(formatBound(rng.Hi))
}

func formatBound(v float64) string {
	return strconv.FormatFloat(v, 'g', 3, 64)
}
