package evolution

import "math"

// drainEpsilon absorbs rounding when dt sums land exactly on a step boundary.
const drainEpsilon = 1e-9

// Accumulator converts a variable calling cadence into whole fixed steps.
type Accumulator struct {
	pending float64
	dropped float64
}

// Advance adds dt and returns how many steps of size step to run, never more
// than maxSteps. Time beyond the cap is discarded and reported as dropped.
func (a *Accumulator) Advance(dt, step float64, maxSteps int) (steps int, dropped float64) {
	if !(dt > 0) || !(step > 0) {
		return 0, 0
	}
	a.pending += dt

	n := int(math.Floor(a.pending/step + drainEpsilon))
	a.pending = math.Max(0, a.pending-float64(n)*step)

	if n > maxSteps {
		dropped = float64(n-maxSteps) * step
		a.dropped += dropped
		n = maxSteps
	}
	return n, dropped
}

// Pending is the carried-over time not yet simulated.
func (a *Accumulator) Pending() float64 { return a.pending }

// Dropped is the total simulated time discarded by the cap.
func (a *Accumulator) Dropped() float64 { return a.dropped }

// Reset clears carried-over time.
func (a *Accumulator) Reset() { a.pending = 0 }
