// Package analysis provides spectral tools for surface profiles.
//
// A profile is a channel sampled along the lap at one lateral offset, for
// example grip on the racing line. The spectrum shows how often the surface
// changes character per lap:
//
//   - [FFT]: transform of a real series, zero-padded to a power of two
//   - [PowerSpectrum]: magnitude of the positive frequencies
//   - [Dominant]: the strongest periodic component of a lap profile
//
// # Corner Spacing
//
// Rubber builds up where cars brake and turn, so the dominant component of a
// grip profile usually matches the corner count:
//
//	c := analysis.Dominant(profile, trackLength)
//	fmt.Printf("%d cycles per lap, every %.0f m\n", c.Cycles, c.Wavelength)
package analysis
