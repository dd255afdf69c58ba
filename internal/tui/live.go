// Package tui renders a session to a plain ANSI terminal without taking over
// the keyboard. It is meant for long unattended runs where the interactive
// viewer is not wanted.
package tui

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/san-kum/trackevo/internal/evolution"
	"github.com/san-kum/trackevo/internal/sim"
	"github.com/san-kum/trackevo/internal/surface"
	"github.com/san-kum/trackevo/internal/traffic"
	"github.com/san-kum/trackevo/internal/viz"
)

const (
	width       = 70
	height      = 12
	clearScreen = "\033[2J\033[H"
	hideCursor  = "\033[?25l"
	showCursor  = "\033[?25h"
)

// LiveRenderer redraws the surface and the cars at most frameRate times per
// second. It implements sim.Observer.
type LiveRenderer struct {
	title     string
	frameRate int
	lastFrame time.Time
	out       io.Writer
	now       func() time.Time
	canvas    [][]rune
	heat      viz.Heatmap
}

func NewLiveRenderer(title string, frameRate int, out io.Writer) *LiveRenderer {
	canvas := make([][]rune, height)
	for i := range canvas {
		canvas[i] = make([]rune, width)
	}
	return &LiveRenderer{
		title:     title,
		frameRate: max(frameRate, 1),
		out:       out,
		now:       time.Now,
		canvas:    canvas,
		heat:      viz.Heatmap{Cols: width, Rows: height},
	}
}

func (r *LiveRenderer) OnFrame(s *sim.Session, t float64) {
	now := r.now()
	if now.Sub(r.lastFrame) < time.Second/time.Duration(r.frameRate) {
		return
	}
	r.lastFrame = now

	mgr := s.Manager()
	dims := mgr.Grid().Dims()

	r.clear()
	r.drawSurface(mgr, dims)
	r.drawCars(s.Traffic().Cars(), dims)
	r.render(mgr, t)
}

func (r *LiveRenderer) clear() {
	for y := range r.canvas {
		for x := range r.canvas[y] {
			r.canvas[y][x] = ' '
		}
	}
}

func (r *LiveRenderer) set(x, y int, c rune) {
	if x >= 0 && x < width && y >= 0 && y < height {
		r.canvas[y][x] = c
	}
}

func (r *LiveRenderer) drawSurface(mgr *evolution.Manager, dims surface.Dims) {
	mode := mgr.Config().VisualizationMode
	values, ok := mgr.VisualField()
	if !ok {
		return
	}
	rng, fixed := viz.ModeRange(mode)
	if !fixed {
		rng = viz.AutoRange(values)
	}
	for y, row := range strings.Split(r.heat.Glyphs(values, dims, rng), "\n") {
		for x, c := range []rune(row) {
			r.set(x, y, c)
		}
	}
}

func (r *LiveRenderer) drawCars(cars []traffic.Car, dims surface.Dims) {
	for _, c := range cars {
		x := int(c.S / dims.TrackLength * width)
		y := int((c.D/dims.TrackWidth + 0.5) * height)
		r.set(x, min(y, height-1), 'O')
	}
}

func (r *LiveRenderer) render(mgr *evolution.Manager, t float64) {
	var b strings.Builder
	b.WriteString(clearScreen)
	b.WriteString(fmt.Sprintf("  %s  t=%.0fs  %05.2fh  frame %d\n", r.title, t, mgr.TimeOfDay(), mgr.Frame()))
	b.WriteString("  " + strings.Repeat("-", width) + "\n")

	for _, row := range r.canvas {
		b.WriteString("  ")
		b.WriteString(string(row))
		b.WriteString("\n")
	}

	b.WriteString("  " + strings.Repeat("-", width) + "\n")

	avg := mgr.Grid().Averages()
	env := mgr.Atmosphere()
	b.WriteString(fmt.Sprintf("  %s  rubber=%.3f marbles=%.3f dust=%.3f temp=%.1fC wind=%.1f storm=%.2f\n",
		mgr.Config().VisualizationMode, avg.Rubber, avg.Marbles, avg.Dust, avg.Temp, env.WindSpeed, env.DustStormIntensity))

	fmt.Fprint(r.out, b.String())
}

func (r *LiveRenderer) Start() { fmt.Fprint(r.out, hideCursor) }
func (r *LiveRenderer) Stop()  { fmt.Fprint(r.out, showCursor) }
