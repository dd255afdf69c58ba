package atmosphere

import "math/rand"

// Source supplies uniform samples in [0,1). *rand.Rand satisfies it.
type Source interface {
	Float64() float64
}

// NewSource returns a seeded generator.
func NewSource(seed int64) Source {
	return rand.New(rand.NewSource(seed))
}

// noise draws a uniform sample in [-amp, amp).
func noise(src Source, amp float64) float64 {
	return (src.Float64()*2 - 1) * amp
}

// chance reports a Bernoulli event with probability p.
func chance(src Source, p float64) bool {
	return src.Float64() < p
}
