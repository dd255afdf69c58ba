// Package viz renders track surfaces in the terminal.
//
// It has two layers:
//
//   - [Heatmap]: resamples any grid channel to a fixed character grid and
//     paints it with a [Palette]. Used by the CLI for one-shot output.
//   - [Model]: a Bubble Tea program that drives an evolution manager with
//     synthetic traffic and redraws the heatmap every frame. [Picker] puts a
//     preset menu in front of it.
//
// # Key Bindings
//
//	Space - Pause/Resume
//	V     - Cycle visualization channel
//	+/-   - Simulation speed
//	Up/Dn - Global grip multiplier
//	S     - Toggle dust storm
//	N     - Skip one hour
//	?     - Help
//	Q     - Quit
package viz
