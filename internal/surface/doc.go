// Package surface provides the packed track-surface grid.
//
// The grid is parameterized by arc-length s (wrapping modulo the track
// length) and lateral offset d (clamped to the track half-width). Every cell
// holds eight float64 fields stored contiguously in one flat buffer:
//
//   - [FieldRubber], [FieldMarbles], [FieldDust]: material coverage in [0,1]
//   - [FieldSurfaceTemp], [FieldSubSurfaceTemp]: temperatures in °C
//   - [FieldHeatFlux]: last integrated heat flux in W
//   - [FieldPassingVolume]: monotonic count of tire contacts
//   - [FieldLastFrame]: frame of the last write
//
// # Example
//
//	g, _ := surface.NewGrid(surface.Dims{SSegments: 512, LatSegments: 16, TrackLength: 4300, TrackWidth: 14})
//	si, li := g.IndicesOf(s, d)
//	g.Update(si, li, func(c *surface.Cell) { c.Rubber += 0.01 })
//
// # Indexing
//
// Raw index methods do not bounds-check; callers must pass indices obtained
// from [Grid.IndicesOf] or within [Dims]. Material fields are clamped to
// [0,1] on every write through [Grid.WriteCell] and [Grid.Update].
//
// # Thread Safety
//
// Grid instances are NOT thread-safe. The buffer has a single writer per
// simulation context.
package surface
