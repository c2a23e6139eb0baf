package pitch

import (
	"math"
	"sort"

	"github.com/ianlintner/instrument-to-midi/dsp"
	"github.com/ianlintner/instrument-to-midi/logging"
)

// Empirically chosen: a peak within 5% of an integer multiple of an
// accepted fundamental is treated as one of its overtones.
const harmonicRatioTolerance = 0.05

// MaxSimultaneousNotes caps polyphonic output at the playable string count.
const MaxSimultaneousNotes = 6

// silenceRMSFloor is the RMS level below which a window is treated as
// silence without running the transform. Empirically chosen, like
// harmonicRatioTolerance; well under the quietest playable signal.
const silenceRMSFloor = 1e-4

// PitchCandidate is a detected spectral component that may be a sounding
// note. Magnitude is relative spectral energy, not comparable across runs.
type PitchCandidate struct {
	Note      uint8   `json:"note"`
	Frequency float64 `json:"frequency"`
	Magnitude float64 `json:"magnitude"`
}

// PolyphonicDetector estimates zero or more simultaneous fundamentals using
// frequency-domain peak picking with harmonic suppression.
type PolyphonicDetector struct {
	sampleRate       float64
	bufferSize       int
	minPeakMagnitude float64

	fft    *dsp.FFT
	window *dsp.HammingWindow
}

// NewPolyphonicDetector creates a polyphonic pitch detector.
// minPeakMagnitude sets the spectral floor below which local maxima are
// ignored (higher = less sensitive).
func NewPolyphonicDetector(sampleRate uint32, bufferSize int, minPeakMagnitude float64) *PolyphonicDetector {
	return &PolyphonicDetector{
		sampleRate:       float64(sampleRate),
		bufferSize:       bufferSize,
		minPeakMagnitude: minPeakMagnitude,
		fft:              dsp.NewFFT(),
		window:           dsp.NewHammingWindow(bufferSize),
	}
}

// DetectPitches returns up to MaxSimultaneousNotes candidates sorted by
// descending magnitude. An empty result is silence, not an error.
func (d *PolyphonicDetector) DetectPitches(samples []float64) []PitchCandidate {
	if len(samples) < d.bufferSize {
		return nil
	}

	// Skip the transform entirely on a near-silent window.
	if dsp.RMS(samples[:d.bufferSize]) < silenceRMSFloor {
		return nil
	}

	// Hamming window against spectral leakage.
	windowed := d.window.Apply(samples[:d.bufferSize])
	magnitudes := d.fft.MagnitudeSpectrum(windowed)

	peaks := d.findSpectralPeaks(magnitudes)

	candidates := make([]PitchCandidate, 0, len(peaks))
	for _, p := range peaks {
		frequency := float64(p.bin) * d.sampleRate / float64(d.bufferSize)
		if frequency < MinFrequency || frequency > MaxFrequency {
			continue
		}
		candidates = append(candidates, PitchCandidate{
			Note:      FrequencyToMIDI(frequency),
			Frequency: frequency,
			Magnitude: p.magnitude,
		})
	}

	candidates = d.suppressHarmonics(candidates)

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].Magnitude > candidates[j].Magnitude
	})

	if len(candidates) > MaxSimultaneousNotes {
		candidates = candidates[:MaxSimultaneousNotes]
	}

	if len(candidates) > 0 {
		logging.Debug("detected simultaneous pitches", logging.Fields{
			"count": len(candidates),
		})
	}
	return candidates
}

type spectralPeak struct {
	bin       int
	magnitude float64
}

// findSpectralPeaks returns bins that strictly exceed both neighbors and
// the magnitude floor.
func (d *PolyphonicDetector) findSpectralPeaks(magnitudes []float64) []spectralPeak {
	var peaks []spectralPeak

	for i := 1; i < len(magnitudes)-1; i++ {
		current := magnitudes[i]
		if current > magnitudes[i-1] && current > magnitudes[i+1] && current > d.minPeakMagnitude {
			peaks = append(peaks, spectralPeak{bin: i, magnitude: current})
		}
	}
	return peaks
}

// suppressHarmonics keeps only fundamentals: candidates are scanned in
// ascending frequency order, and a candidate whose frequency ratio to an
// already-accepted fundamental is within harmonicRatioTolerance of an
// integer >= 2 is discarded as an overtone.
func (d *PolyphonicDetector) suppressHarmonics(candidates []PitchCandidate) []PitchCandidate {
	if len(candidates) <= 1 {
		return candidates
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].Frequency < candidates[j].Frequency
	})

	fundamentals := make([]PitchCandidate, 0, len(candidates))
	for _, candidate := range candidates {
		isHarmonic := false
		for _, fundamental := range fundamentals {
			ratio := candidate.Frequency / fundamental.Frequency
			nearestInteger := math.Round(ratio)
			if nearestInteger >= 2.0 && math.Abs(ratio-nearestInteger)/nearestInteger < harmonicRatioTolerance {
				isHarmonic = true
				break
			}
		}
		if !isHarmonic {
			fundamentals = append(fundamentals, candidate)
		}
	}
	return fundamentals
}
