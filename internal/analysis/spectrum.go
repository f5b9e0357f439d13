package analysis

import (
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
	"github.com/mjibson/go-dsp/window"
)

// Bin is one frequency bin of a one-sided amplitude spectrum.
type Bin struct {
	Freq  float64 // Hz
	Power float64
}

// Spectrum returns the one-sided amplitude spectrum of samples taken every
// dt seconds. The mean is removed and a Hann window applied first.
func Spectrum(samples []float64, dt float64) []Bin {
	n := len(samples)
	if n < 4 || dt <= 0 {
		return nil
	}

	x := make([]float64, n)
	mean := 0.0
	for _, v := range samples {
		mean += v
	}
	mean /= float64(n)
	for i, v := range samples {
		x[i] = v - mean
	}
	window.Apply(x, window.Hann)

	coeffs := fft.FFTReal(x)
	bins := make([]Bin, n/2+1)
	for k := range bins {
		bins[k] = Bin{
			Freq:  float64(k) / (float64(n) * dt),
			Power: 2 * cmplx.Abs(coeffs[k]) / float64(n),
		}
	}
	return bins
}

// Dominant returns the strongest non-DC bin. It reports false when the
// signal is too short or flat.
func Dominant(samples []float64, dt float64) (Bin, bool) {
	bins := Spectrum(samples, dt)
	if len(bins) < 2 {
		return Bin{}, false
	}
	best := bins[1]
	for _, b := range bins[2:] {
		if b.Power > best.Power {
			best = b
		}
	}
	return best, best.Power > 1e-12
}

func Powers(bins []Bin) []float64 {
	out := make([]float64, len(bins))
	for i, b := range bins {
		out[i] = b.Power
	}
	return out
}
