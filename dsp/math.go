package dsp

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Basic numeric kernels shared by the pitch estimators, using gonum for the
// statistical parts.

// Mean calculates the arithmetic mean of a slice.
func Mean(data []float64) float64 {
	if len(data) == 0 {
		return 0.0
	}
	return stat.Mean(data, nil)
}

// RMS calculates the root mean square of a slice.
func RMS(data []float64) float64 {
	if len(data) == 0 {
		return 0.0
	}

	sumSquares := 0.0
	for _, v := range data {
		sumSquares += v * v
	}
	return math.Sqrt(sumSquares / float64(len(data)))
}

// RemoveDC subtracts the mean from the signal in-place and returns it.
// Microphone preamps commonly leave a DC offset that biases the difference
// function at small lags.
func RemoveDC(data []float64) []float64 {
	if len(data) == 0 {
		return data
	}
	floats.AddConst(-stat.Mean(data, nil), data)
	return data
}

// ParabolicInterpolation refines the location of an extremum at index using
// its two neighbors, returning a fractional index. Falls back to the integer
// index at the array boundary or when the denominator is near zero.
func ParabolicInterpolation(data []float64, index int) float64 {
	if index <= 0 || index >= len(data)-1 {
		return float64(index)
	}

	s0 := data[index-1]
	s1 := data[index]
	s2 := data[index+1]

	denom := s0 - 2.0*s1 + s2
	if math.Abs(denom) < 1e-12 {
		return float64(index)
	}

	adjustment := 0.5 * (s0 - s2) / denom
	return float64(index) + adjustment
}

// Clamp limits v to the range [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
