package analysis

import (
	"math"
	"testing"

	"github.com/san-kum/bondmd/internal/md"
	"github.com/san-kum/bondmd/internal/potential"
)

func TestAutocorrelationConstantSeries(t *testing.T) {
	series := []float64{3, 3, 3, 3, 3, 3, 3, 3}
	acf, err := Autocorrelation(series, 4)
	if err != nil {
		t.Fatalf("autocorrelation: %v", err)
	}
	for lag, v := range acf {
		if math.Abs(v-9) > 1e-12 {
			t.Errorf("lag %d: expected 9, got %f", lag, v)
		}
	}
}

func TestAutocorrelationAlternatingSeries(t *testing.T) {
	series := []float64{1, -1, 1, -1, 1, -1}
	acf, err := Autocorrelation(series, 2)
	if err != nil {
		t.Fatalf("autocorrelation: %v", err)
	}
	if math.Abs(acf[0]-1) > 1e-12 {
		t.Errorf("expected 1 at lag 0, got %f", acf[0])
	}
	if math.Abs(acf[1]+1) > 1e-12 {
		t.Errorf("expected -1 at lag 1, got %f", acf[1])
	}
}

func TestAutocorrelationBadLag(t *testing.T) {
	series := []float64{1, 2, 3}
	if _, err := Autocorrelation(series, 0); err == nil {
		t.Error("expected error for zero max lag")
	}
	if _, err := Autocorrelation(series, 3); err == nil {
		t.Error("expected error for max lag equal to series length")
	}
}

func TestRunningIntegralConstant(t *testing.T) {
	series := []float64{2, 2, 2, 2, 2}
	dt := 0.5
	out := RunningIntegral(series, dt)
	if out[0] != 0 {
		t.Errorf("expected zero first element, got %f", out[0])
	}
	for i := 1; i < len(out); i++ {
		want := 2 * dt * float64(i)
		if math.Abs(out[i]-want) > 1e-12 {
			t.Errorf("index %d: expected %f, got %f", i, want, out[i])
		}
	}
}

func TestRunningIntegralLinear(t *testing.T) {
	// trapezoid rule is exact for linear functions
	series := []float64{0, 1, 2, 3, 4}
	out := RunningIntegral(series, 1)
	want := []float64{0, 0.5, 2, 4.5, 8}
	for i := range want {
		if math.Abs(out[i]-want[i]) > 1e-12 {
			t.Errorf("index %d: expected %f, got %f", i, want[i], out[i])
		}
	}
}

func TestConductivityScale(t *testing.T) {
	acf := []float64{1, 1, 1}
	dt, volume, temp := 1.0, 1000.0, 300.0
	kappa, err := Conductivity(acf, dt, volume, temp)
	if err != nil {
		t.Fatalf("conductivity: %v", err)
	}
	scale := 1.0 / (md.KB * temp * temp * volume)
	if math.Abs(kappa[2]-2*scale) > 1e-18 {
		t.Errorf("expected %e, got %e", 2*scale, kappa[2])
	}
}

func TestConductivityValidation(t *testing.T) {
	acf := []float64{1, 1}
	if _, err := Conductivity(acf, 1, 0, 300); err == nil {
		t.Error("expected error for zero volume")
	}
	if _, err := Conductivity(acf, 1, 1000, -1); err == nil {
		t.Error("expected error for negative temperature")
	}
}

func TestFFTImpulse(t *testing.T) {
	fft := FFT([]float64{1, 0, 0, 0})
	for k, v := range fft {
		if math.Abs(real(v)-1) > 1e-12 || math.Abs(imag(v)) > 1e-12 {
			t.Errorf("bin %d: expected 1+0i, got %v", k, v)
		}
	}
}

func TestFFTSingleTone(t *testing.T) {
	n := 64
	data := make([]float64, n)
	for i := range data {
		data[i] = math.Cos(2 * math.Pi * 4 * float64(i) / float64(n))
	}
	fft := FFT(data)
	for k := 0; k < n/2; k++ {
		mag := math.Sqrt(real(fft[k])*real(fft[k]) + imag(fft[k])*imag(fft[k]))
		if k == 4 {
			if math.Abs(mag-float64(n)/2) > 1e-9 {
				t.Errorf("expected peak %f at bin 4, got %f", float64(n)/2, mag)
			}
		} else if mag > 1e-9 {
			t.Errorf("bin %d: expected silence, got %f", k, mag)
		}
	}
}

func TestPairFlux(t *testing.T) {
	samples := []potential.FluxSample{
		{F: [3]float64{2, 0, 0}, VI: [3]float64{1, 0, 0}, VJ: [3]float64{3, 0, 0}},
		{F: [3]float64{1, 1, 1}, VI: [3]float64{0.5, -0.5, 1}, VJ: [3]float64{0.5, 0.5, -1}},
	}
	flux := PairFlux(samples)
	if len(flux) != 2 {
		t.Fatalf("expected 2 values, got %d", len(flux))
	}
	// F . (vi + vj) / 2 per sample
	if math.Abs(flux[0]-4) > 1e-12 {
		t.Errorf("expected 4, got %f", flux[0])
	}
	if math.Abs(flux[1]-0.5) > 1e-12 {
		t.Errorf("expected 0.5, got %f", flux[1])
	}
}

func TestSpectrumTruncatesToPowerOfTwo(t *testing.T) {
	data := make([]float64, 100) // prefix of 64 is used
	data[0] = 1
	ps := Spectrum(data)
	if len(ps) != 32 {
		t.Fatalf("expected 32 bins, got %d", len(ps))
	}
	for k, v := range ps {
		if math.Abs(v-1) > 1e-12 {
			t.Errorf("bin %d: expected flat spectrum of an impulse, got %f", k, v)
		}
	}
}
