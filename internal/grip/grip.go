// Package grip converts one surface cell into a grip multiplier.
//
// Every function here is pure: the result depends only on the cell passed in.
package grip

import (
	"math"

	"github.com/san-kum/trackevo/internal/constants"
	"github.com/san-kum/trackevo/internal/surface"
)

// Components breaks a multiplier into its additive terms.
type Components struct {
	Base    float64 `json:"base"`
	Rubber  float64 `json:"rubber"`
	Marbles float64 `json:"marbles"`
	Dust    float64 `json:"dust"`
	Thermal float64 `json:"thermal"`
}

// Sum adds base and all terms.
func (c Components) Sum() float64 {
	return c.Base + c.Rubber + c.Marbles + c.Dust + c.Thermal
}

// Result is the grip available at one cell.
type Result struct {
	Multiplier float64    `json:"multiplier"`
	Components Components `json:"components"`
}

// Scaled returns r with the multiplier scaled by k. Components are left as
// computed from the cell.
func (r Result) Scaled(k float64) Result {
	r.Multiplier *= k
	return r
}

// Of computes the grip of c. The multiplier never drops below
// constants.GripFloor.
func Of(c surface.Cell) Result {
	return solve(c, c.Rubber*constants.GripRubberGain)
}

// OfWithRubberCurve is Of with the saturating S-curve rubber response.
func OfWithRubberCurve(c surface.Cell) Result {
	return solve(c, RubberCurve(c.Rubber)-1)
}

// RubberCurve is the saturating grip response to rubber density:
// 1 + 0.08·(1 − e^(−5·density)).
func RubberCurve(density float64) float64 {
	return 1 + constants.ExtendedRubberGain*(1-math.Exp(-constants.ExtendedRubberShape*density))
}

// ThermalTerm is the parabolic penalty around the optimal surface temperature.
func ThermalTerm(surfaceTemp float64) float64 {
	dev := surfaceTemp - constants.GripOptimalTemp
	return -constants.GripThermalPenalty * dev * dev
}

func solve(c surface.Cell, rubberTerm float64) Result {
	comp := Components{
		Base:    1,
		Rubber:  rubberTerm,
		Marbles: -c.Marbles * constants.GripMarblePenalty,
		Dust:    -c.Dust * constants.GripDustPenalty,
		Thermal: ThermalTerm(c.SurfaceTemp),
	}
	return Result{
		Multiplier: math.Max(constants.GripFloor, comp.Sum()),
		Components: comp,
	}
}
