// Package physics evolves the surface grid.
//
// Each process mutates a shared [surface.Grid] in place:
//
//   - [Thermal]: explicit-Euler heat-flux integration per cell
//   - [Deposition]: rubber, marble and dust writes from tire contact
//   - [Relaxation]: background dust/marble/rubber drift and lateral heat blur
//   - [Extended]: alternate formulas selected by [ProfileExtended]
//
// The pure formulas of the extended rule set ([RubberDegradation],
// [MarbleGeneration], [MigrateMarbles], [DustCleaning], [RubberGripCurve])
// can also be called on their own.
//
// # Stability
//
// Thermal integration is explicit; callers must keep the step size fixed and
// small. See [config.Evolution.StabilityNumber].
//
//	th := physics.NewThermal(grid, &cfg)
//	for acc >= cfg.SimulationStepDt {
//	    th.Integrate(env, cfg.SimulationStepDt)
//	    acc -= cfg.SimulationStepDt
//	}
package physics
