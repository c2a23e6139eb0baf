package dsp

import (
	"fmt"
	"math"
)

// HammingWindow holds precomputed Hamming coefficients
// (0.54 - 0.46*cos(2*pi*i/(N-1))) for a fixed window size.
type HammingWindow struct {
	size         int
	coefficients []float64
}

// NewHammingWindow creates a symmetric Hamming window of the given size.
func NewHammingWindow(size int) *HammingWindow {
	h := &HammingWindow{size: size}
	h.generate()
	return h
}

func (h *HammingWindow) generate() {
	h.coefficients = make([]float64, h.size)

	denominator := float64(h.size - 1)
	for i := 0; i < h.size; i++ {
		h.coefficients[i] = 0.54 - 0.46*math.Cos(2*math.Pi*float64(i)/denominator)
	}
}

// Apply applies the window to a signal (creates a new slice).
func (h *HammingWindow) Apply(signal []float64) []float64 {
	if len(signal) != h.size {
		return nil
	}

	windowed := make([]float64, h.size)
	for i := 0; i < h.size; i++ {
		windowed[i] = signal[i] * h.coefficients[i]
	}
	return windowed
}

// ApplyInPlace applies the window to a signal in-place.
func (h *HammingWindow) ApplyInPlace(signal []float64) error {
	if len(signal) != h.size {
		return fmt.Errorf("signal length (%d) doesn't match window size (%d)", len(signal), h.size)
	}

	for i := 0; i < h.size; i++ {
		signal[i] *= h.coefficients[i]
	}
	return nil
}

// Size returns the window size.
func (h *HammingWindow) Size() int {
	return h.size
}
