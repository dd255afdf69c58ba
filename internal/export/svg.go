package export

import (
	"fmt"
	"strings"

	"github.com/san-kum/trackevo/internal/surface"
	"github.com/san-kum/trackevo/internal/viz"
)

// HeatmapSVG draws one s-major channel as a grid of coloured cells. The lap
// runs left to right and the most negative lateral offset is the top row.
func HeatmapSVG(values []float64, dims surface.Dims, rng viz.Range, pal viz.Palette, cellW, cellH float64) string {
	if len(values) != dims.Cells() || dims.Cells() == 0 {
		return ""
	}

	width := float64(dims.SSegments) * cellW
	height := float64(dims.LatSegments) * cellH

	var sb strings.Builder

	// SVG header
	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f" shape-rendering="crispEdges">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
<g>
`, width, height, width, height))

	for si := 0; si < dims.SSegments; si++ {
		for li := 0; li < dims.LatSegments; li++ {
			v := values[si*dims.LatSegments+li]
			fill := string(pal.Color(rng.Normalize(v)))
			sb.WriteString(fmt.Sprintf(`<rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" fill="%s"/>
`, float64(si)*cellW, float64(li)*cellH, cellW, cellH, fill))
		}
	}

	sb.WriteString("</g>\n</svg>")
	return sb.String()
}

// ProfileToSVG plots a series of values, such as grip along the lap, as a
// single path.
func ProfileToSVG(values []float64, width, height int, strokeColor string) string {
	if len(values) < 2 {
		return ""
	}

	// Find bounds
	minY, maxY := values[0], values[0]
	for _, v := range values {
		if v < minY {
			minY = v
		}
		if v > maxY {
			maxY = v
		}
	}

	// Add padding
	rangeY := maxY - minY
	if rangeY == 0 {
		rangeY = 1
	}
	minY -= rangeY * 0.1
	maxY += rangeY * 0.1
	rangeY = maxY - minY
	stepX := float64(width) / float64(len(values)-1)

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
<path fill="none" stroke="%s" stroke-width="1.5" d="M`,
		width, height, width, height, strokeColor))

	for i, v := range values {
		x := float64(i) * stepX
		y := float64(height) - (v-minY)/rangeY*float64(height)

		if i == 0 {
			sb.WriteString(fmt.Sprintf("%.1f,%.1f", x, y))
		} else {
			sb.WriteString(fmt.Sprintf(" L%.1f,%.1f", x, y))
		}
	}

	sb.WriteString(`"/>
</svg>`)
	return sb.String()
}
