package metrics

import (
	"github.com/san-kum/trackevo/internal/atmosphere"
	"github.com/san-kum/trackevo/internal/surface"
)

// ChannelMean averages one grid channel over every cell and every
// observation.
type ChannelMean struct {
	name    string
	field   surface.Field
	sum     float64
	samples int
}

func NewChannelMean(name string, f surface.Field) *ChannelMean {
	return &ChannelMean{name: name, field: f}
}

func NewMeanRubber() *ChannelMean  { return NewChannelMean("mean_rubber", surface.FieldRubber) }
func NewMeanMarbles() *ChannelMean { return NewChannelMean("mean_marbles", surface.FieldMarbles) }
func NewMeanDust() *ChannelMean    { return NewChannelMean("mean_dust", surface.FieldDust) }
func NewMeanTemp() *ChannelMean    { return NewChannelMean("mean_surface_temp", surface.FieldSurfaceTemp) }

func (c *ChannelMean) Name() string { return c.name }

func (c *ChannelMean) Observe(g *surface.Grid, env atmosphere.State) {
	buf := g.RawBuffer()
	n := g.Dims().Cells()
	total := 0.0
	for i := int(c.field); i < len(buf); i += surface.Stride {
		total += buf[i]
	}
	c.sum += total / float64(n)
	c.samples++
}

func (c *ChannelMean) Value() float64 {
	if c.samples == 0 {
		return 0
	}
	return c.sum / float64(c.samples)
}

func (c *ChannelMean) Reset() {
	c.sum = 0
	c.samples = 0
}
