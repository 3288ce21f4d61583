package analysis

import "github.com/san-kum/bondmd/internal/potential"

// PairFlux reduces raw cross-section samples to the scalar heat flux
// through the plane, F . (vi + vj) / 2 per force evaluation.
func PairFlux(samples []potential.FluxSample) []float64 {
	out := make([]float64, len(samples))
	for i, s := range samples {
		for c := 0; c < 3; c++ {
			out[i] += 0.5 * s.F[c] * (s.VI[c] + s.VJ[c])
		}
	}
	return out
}
