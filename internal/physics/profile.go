package physics

import (
	"fmt"

	"github.com/san-kum/trackevo/internal/atmosphere"
	"github.com/san-kum/trackevo/internal/grip"
	"github.com/san-kum/trackevo/internal/surface"
)

// Profile selects the rule set driving a simulation context.
type Profile int

const (
	// ProfileStandard runs the reference deposition, thermal and grip model.
	ProfileStandard Profile = iota
	// ProfileExtended adds temperature degradation, heavy-slip marbles,
	// crosswind marble migration, speed-dependent dust cleaning and the
	// saturating rubber grip curve.
	ProfileExtended
)

func (p Profile) String() string {
	switch p {
	case ProfileStandard:
		return "standard"
	case ProfileExtended:
		return "extended"
	default:
		return fmt.Sprintf("profile(%d)", int(p))
	}
}

// ParseProfile maps a profile name to its value.
func ParseProfile(name string) (Profile, error) {
	switch name {
	case "", "standard":
		return ProfileStandard, nil
	case "extended":
		return ProfileExtended, nil
	}
	return ProfileStandard, fmt.Errorf("unknown rule profile: %s", name)
}

// Grip evaluates c under the profile's grip curve.
func (p Profile) Grip(c surface.Cell) grip.Result {
	if p == ProfileExtended {
		return grip.OfWithRubberCurve(c)
	}
	return grip.Of(c)
}

// Extended applies the extended rule set to a grid.
type Extended struct {
	grid *surface.Grid
	row  []surface.Cell
}

func NewExtended(g *surface.Grid) *Extended {
	return &Extended{grid: g, row: make([]surface.Cell, g.Dims().LatSegments)}
}

// Contact adds heavy-slip marbles and speed cleaning at (s, d).
func (x *Extended) Contact(s, d, load, slip, speed, dt float64) {
	marbles := MarbleGeneration(slip, load, dt)
	cleaned := DustCleaning(speed, 1, dt)
	if marbles == 0 && cleaned == 0 {
		return
	}
	si, li := x.grid.IndicesOf(s, d)
	x.grid.Update(si, li, func(c *surface.Cell) {
		c.Marbles += marbles
		c.Dust -= cleaned
	})
}

// Step degrades overheated rubber and migrates marbles with the crosswind.
func (x *Extended) Step(env atmosphere.State, dt float64) {
	dims := x.grid.Dims()
	for si := 0; si < dims.SSegments; si++ {
		for li := range x.row {
			c := x.grid.Cell(si, li)
			c.Rubber -= RubberDegradation(c.SurfaceTemp, dt)
			x.row[li] = c
		}
		MigrateMarbles(x.row, env.WindSpeed, env.WindDirection, dt)
		for li, c := range x.row {
			x.grid.WriteCell(si, li, c)
		}
	}
}
