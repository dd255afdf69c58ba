package analysis

import (
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

// FFT transforms data, zero-padded to the next power of two.
func FFT(data []float64) []complex128 {
	padded := make([]float64, nextPow2(len(data)))
	copy(padded, data)
	return fft.FFTReal(padded)
}

func nextPow2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

func PowerSpectrum(data []float64) []float64 {
	spectrum := FFT(data)
	ps := make([]float64, len(spectrum)/2)

	for i := range ps {
		ps[i] = cmplx.Abs(spectrum[i])
	}

	return ps
}

// Component is one periodic part of a lap profile.
type Component struct {
	Cycles     int     // per lap
	Wavelength float64 // metres
	Power      float64
}

// Dominant finds the strongest non-constant component of a profile sampled
// evenly over one lap of length metres. The mean is removed first so a flat
// offset never wins. A flat or too short profile returns the zero Component.
func Dominant(profile []float64, length float64) Component {
	if len(profile) < 2 {
		return Component{}
	}

	mean := 0.0
	for _, v := range profile {
		mean += v
	}
	mean /= float64(len(profile))

	centred := make([]float64, len(profile))
	for i, v := range profile {
		centred[i] = v - mean
	}

	ps := PowerSpectrum(centred)
	if len(ps) < 2 {
		return Component{}
	}
	best := 1
	for k := 2; k < len(ps); k++ {
		if ps[k] > ps[best] {
			best = k
		}
	}
	if ps[best] < 1e-12 {
		return Component{}
	}

	// bins are per padded length; rescale to cycles over the real lap
	scale := float64(len(profile)) / float64(nextPow2(len(profile)))
	cycles := int(math.Round(float64(best) * scale))
	c := Component{Cycles: cycles, Power: ps[best]}
	if cycles > 0 {
		c.Wavelength = length / float64(cycles)
	}
	return c
}
