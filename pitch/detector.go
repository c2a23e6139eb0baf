package pitch

import (
	"github.com/ianlintner/instrument-to-midi/dsp"
	"github.com/ianlintner/instrument-to-midi/logging"
)

// Detector estimates the single dominant fundamental frequency of a sample
// window using the YIN difference method.
//
// References:
// - de Cheveigné, A., Kawahara, H. (2002). "YIN, a fundamental frequency estimator for speech and music"
type Detector struct {
	sampleRate float64
	bufferSize int
	threshold  float64
}

// NewDetector creates a monophonic pitch detector. threshold is the CMND
// acceptance level, typically 0.1-0.2.
func NewDetector(sampleRate uint32, bufferSize int, threshold float64) *Detector {
	return &Detector{
		sampleRate: float64(sampleRate),
		bufferSize: bufferSize,
		threshold:  threshold,
	}
}

// Detect estimates the fundamental frequency of the window.
func (d *Detector) Detect(samples []float64) (float64, bool) {
	freq, _, ok := d.DetectWithConfidence(samples)
	return freq, ok
}

// DetectWithConfidence estimates the fundamental frequency and a confidence
// score in [0,1]. Returns ok=false when the window is too short, no period
// falls below the threshold, or the frequency is outside the instrument
// range. All of those are silence, not errors.
func (d *Detector) DetectWithConfidence(samples []float64) (frequency, confidence float64, ok bool) {
	if len(samples) < d.bufferSize {
		return 0, 0, false
	}

	// A DC offset biases the difference function at small lags. Work on a
	// copy; the caller's buffer is reused across windows.
	window := make([]float64, d.bufferSize)
	copy(window, samples[:d.bufferSize])
	dsp.RemoveDC(window)

	maxPeriod := int(d.sampleRate / MinFrequency)
	minPeriod := int(d.sampleRate / MaxFrequency)

	// Difference function over the first bufferSize-maxPeriod samples.
	diff := make([]float64, maxPeriod+1)
	for tau := 1; tau <= maxPeriod; tau++ {
		sum := 0.0
		for i := 0; i < d.bufferSize-maxPeriod; i++ {
			delta := window[i] - window[i+tau]
			sum += delta * delta
		}
		diff[tau] = sum
	}

	// Cumulative mean normalized difference: d[tau]*tau / sum(d[1..tau]).
	cmnd := make([]float64, maxPeriod+1)
	cmnd[0] = 1.0
	runningSum := 0.0
	for tau := 1; tau <= maxPeriod; tau++ {
		runningSum += diff[tau]
		if runningSum == 0.0 {
			cmnd[tau] = 1.0
		} else {
			cmnd[tau] = diff[tau] * float64(tau) / runningSum
		}
	}

	// First dip below the threshold, then descend to its local minimum.
	tau := minPeriod
	for tau < maxPeriod {
		if cmnd[tau] < d.threshold {
			for tau+1 < maxPeriod && cmnd[tau+1] < cmnd[tau] {
				tau++
			}
			break
		}
		tau++
	}

	if tau >= maxPeriod {
		return 0, 0, false
	}

	betterTau := dsp.ParabolicInterpolation(cmnd, tau)
	frequency = d.sampleRate / betterTau

	// Lower CMND = higher confidence. CMND is normalized but can exceed 1.
	confidence = dsp.Clamp(1.0-cmnd[tau], 0.0, 1.0)

	if frequency < MinFrequency || frequency > MaxFrequency {
		return 0, 0, false
	}

	logging.Debug("detected frequency", logging.Fields{
		"frequency":  frequency,
		"confidence": confidence,
	})
	return frequency, confidence, true
}
