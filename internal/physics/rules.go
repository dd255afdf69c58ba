package physics

import (
	"math"

	"github.com/san-kum/trackevo/internal/constants"
	"github.com/san-kum/trackevo/internal/grip"
	"github.com/san-kum/trackevo/internal/surface"
)

// RubberDegradation is the rubber lost over dt at surface temperature temp.
// It is zero up to 45°C and grows exponentially above.
func RubberDegradation(temp, dt float64) float64 {
	if temp <= constants.DegradationOnsetTemp {
		return 0
	}
	excess := (temp - constants.DegradationOnsetTemp) / constants.DegradationScale
	return constants.DegradationRate * math.Expm1(excess) * dt
}

// MarbleGeneration is the debris shed over dt by a tire sliding above the
// 0.4 slip threshold.
func MarbleGeneration(slip, load, dt float64) float64 {
	excess := slip - constants.ExtendedSlipThreshold
	if excess <= 0 {
		return 0
	}
	return constants.ExtendedMarbleRate * excess * load * dt
}

// DustCleaning is the dust swept away over dt by volume cars passing faster
// than 10 m/s.
func DustCleaning(speed, volume, dt float64) float64 {
	excess := speed - constants.DustCleaningSpeed
	if excess <= 0 {
		return 0
	}
	return constants.DustCleaningRate * excess * volume * dt
}

// RubberGripCurve is the S-curve grip response to rubber density.
func RubberGripCurve(density float64) float64 {
	return grip.RubberCurve(density)
}

// MigrateMarbles pushes marbles across a lateral row of cells with the
// crosswind. windDir is in radians relative to the direction of travel;
// positive crosswind moves material toward higher indices. Material at the
// row edge stays put, so the row total is conserved.
func MigrateMarbles(row []surface.Cell, windSpeed, windDir, dt float64) {
	cross := windSpeed * math.Sin(windDir)
	frac := math.Min(1, constants.MarbleMigrationRate*math.Abs(cross)*dt)
	if frac == 0 || len(row) < 2 {
		return
	}
	step := 1
	if cross < 0 {
		step = -1
	}

	moved := make([]float64, len(row))
	for i := range row {
		j := i + step
		if j < 0 || j >= len(row) {
			continue
		}
		out := row[i].Marbles * frac
		moved[i] -= out
		moved[j] += out
	}
	for i := range row {
		row[i].Marbles += moved[i]
	}
}
