package viz

import "strings"

// brailleBits maps a (row, col) dot inside one 2x4 braille cell to its bit.
var brailleBits = [4][2]rune{
	{0x01, 0x08},
	{0x02, 0x10},
	{0x04, 0x20},
	{0x40, 0x80},
}

const brailleBlank = 0x2800

// Canvas is a braille dot matrix with twice the character width and four
// times the character height in resolution.
type Canvas struct {
	Width, Height int
	cells         [][]rune
}

func NewCanvas(w, h int) *Canvas {
	c := &Canvas{Width: w, Height: h, cells: make([][]rune, h)}
	for i := range c.cells {
		c.cells[i] = make([]rune, w)
	}
	c.Clear()
	return c
}

// Set lights the dot at (x, y) in dot coordinates. Out-of-range dots are
// ignored.
func (c *Canvas) Set(x, y int) {
	if x < 0 || y < 0 || x >= c.Width*2 || y >= c.Height*4 {
		return
	}
	c.cells[y/4][x/2] |= brailleBits[y%4][x%2]
}

// Plot lights the dot nearest to the normalised position (u, v) in [0,1]².
func (c *Canvas) Plot(u, v float64) {
	x := int(clampUnit(u) * float64(c.Width*2-1))
	y := int(clampUnit(v) * float64(c.Height*4-1))
	c.Set(x, y)
}

// Polyline joins consecutive normalised points.
func (c *Canvas) Polyline(us, vs []float64) {
	for i := 1; i < len(us) && i < len(vs); i++ {
		x0 := int(clampUnit(us[i-1]) * float64(c.Width*2-1))
		y0 := int(clampUnit(vs[i-1]) * float64(c.Height*4-1))
		x1 := int(clampUnit(us[i]) * float64(c.Width*2-1))
		y1 := int(clampUnit(vs[i]) * float64(c.Height*4-1))
		c.line(x0, y0, x1, y1)
	}
}

// line is Bresenham's algorithm.
func (c *Canvas) line(x0, y0, x1, y1 int) {
	dx, dy := abs(x1-x0), abs(y1-y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	err := dx - dy
	for {
		c.Set(x0, y0)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x0 += sx
		}
		if e2 < dx {
			err += dx
			y0 += sy
		}
	}
}

func (c *Canvas) Clear() {
	for _, row := range c.cells {
		for j := range row {
			row[j] = brailleBlank
		}
	}
}

func (c *Canvas) String() string {
	var b strings.Builder
	for i, row := range c.cells {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(string(row))
	}
	return b.String()
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
