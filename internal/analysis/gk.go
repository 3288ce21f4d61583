// Package analysis post-processes run time series: heat-current
// autocorrelation and its Green-Kubo running integral, and power spectra
// for cross-section flux samples.
package analysis

import (
	"fmt"

	"github.com/san-kum/bondmd/internal/md"
)

// Autocorrelation averages x(t)*x(t+lag) over time origins for lags
// [0, maxLag). maxLag must leave at least one origin per lag.
func Autocorrelation(series []float64, maxLag int) ([]float64, error) {
	n := len(series)
	if maxLag < 1 || maxLag >= n {
		return nil, fmt.Errorf("analysis: max lag %d out of range for %d samples", maxLag, n)
	}
	acf := make([]float64, maxLag)
	for lag := 0; lag < maxLag; lag++ {
		sum := 0.0
		origins := n - lag
		for t := 0; t < origins; t++ {
			sum += series[t] * series[t+lag]
		}
		acf[lag] = sum / float64(origins)
	}
	return acf, nil
}

// RunningIntegral returns the trapezoidal cumulative integral of a series
// sampled at spacing dt. The first element is zero.
func RunningIntegral(series []float64, dt float64) []float64 {
	out := make([]float64, len(series))
	for i := 1; i < len(series); i++ {
		out[i] = out[i-1] + 0.5*dt*(series[i-1]+series[i])
	}
	return out
}

// Conductivity converts a heat-current autocorrelation into the running
// Green-Kubo thermal conductivity, 1/(kB T^2 V) * integral of the ACF, in
// natural units (eV, Angstrom, amu).
func Conductivity(acf []float64, dt, volume, temp float64) ([]float64, error) {
	if volume <= 0 || temp <= 0 {
		return nil, fmt.Errorf("analysis: volume %g and temperature %g must be positive", volume, temp)
	}
	scale := 1.0 / (md.KB * temp * temp * volume)
	integral := RunningIntegral(acf, dt)
	for i := range integral {
		integral[i] *= scale
	}
	return integral, nil
}
