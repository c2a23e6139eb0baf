package dsp

import (
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
)

// FFT provides forward real-valued transforms for spectral analysis.
// The underlying plan is stateless, so one instance can be reused across
// windows.
type FFT struct{}

// NewFFT creates a new FFT calculator.
func NewFFT() *FFT {
	return &FFT{}
}

// Compute computes the forward FFT of a real-valued signal.
// mjibson/go-dsp handles all sizes, including non-power-of-2.
func (f *FFT) Compute(x []float64) []complex128 {
	if len(x) == 0 {
		return []complex128{}
	}
	return fft.FFTReal(x)
}

// MagnitudeSpectrum computes the forward FFT and returns the magnitude of
// the first half of the bins, the usable half for a real input.
func (f *FFT) MagnitudeSpectrum(x []float64) []float64 {
	spectrum := f.Compute(x)
	if len(spectrum) == 0 {
		return []float64{}
	}

	magnitudes := make([]float64, len(spectrum)/2)
	for i := range magnitudes {
		magnitudes[i] = cmplx.Abs(spectrum[i])
	}
	return magnitudes
}
