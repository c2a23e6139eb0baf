package pitch

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testSampleRate = uint32(44100)
	testBufferSize = 2048
	testThreshold  = 0.15
)

// sineWave generates n samples of a sine at the given frequency.
func sineWave(frequency float64, sampleRate uint32, n int) []float64 {
	samples := make([]float64, n)
	for i := range samples {
		samples[i] = math.Sin(2.0 * math.Pi * frequency * float64(i) / float64(sampleRate))
	}
	return samples
}

func TestDetector_PureSineAcrossRange(t *testing.T) {
	detector := NewDetector(testSampleRate, testBufferSize, testThreshold)

	for _, frequency := range []float64{82.41, 110.0, 196.0, 329.63, 440.0, 880.0, 1200.0} {
		samples := sineWave(frequency, testSampleRate, testBufferSize)

		detected, confidence, ok := detector.DetectWithConfidence(samples)
		require.True(t, ok, "no detection at %.2f Hz", frequency)
		assert.InEpsilon(t, frequency, detected, 0.05, "at %.2f Hz", frequency)
		assert.Greater(t, confidence, 0.5, "at %.2f Hz", frequency)
	}
}

func TestDetector_SilenceYieldsNothing(t *testing.T) {
	detector := NewDetector(testSampleRate, testBufferSize, testThreshold)

	_, _, ok := detector.DetectWithConfidence(make([]float64, testBufferSize))
	assert.False(t, ok)
}

func TestDetector_ShortWindowYieldsNothing(t *testing.T) {
	detector := NewDetector(testSampleRate, testBufferSize, testThreshold)

	samples := sineWave(440.0, testSampleRate, testBufferSize/2)
	_, _, ok := detector.DetectWithConfidence(samples)
	assert.False(t, ok)
}

func TestDetector_OutOfRangeFrequencyRejected(t *testing.T) {
	detector := NewDetector(testSampleRate, 4096, testThreshold)

	// 40 Hz is below the instrument range; its period exceeds the largest
	// lag the detector searches.
	samples := sineWave(40.0, testSampleRate, 4096)
	_, _, ok := detector.DetectWithConfidence(samples)
	assert.False(t, ok)
}

func TestDetector_NoisyFundamentalStillDetected(t *testing.T) {
	detector := NewDetector(testSampleRate, testBufferSize, testThreshold)

	samples := sineWave(220.0, testSampleRate, testBufferSize)
	// Deterministic low-level interference.
	for i := range samples {
		samples[i] += 0.05 * math.Sin(2.0*math.Pi*3000.0*float64(i)/float64(testSampleRate))
	}

	detected, _, ok := detector.DetectWithConfidence(samples)
	require.True(t, ok)
	assert.InEpsilon(t, 220.0, detected, 0.05)
}

func TestDetect_MatchesDetectWithConfidence(t *testing.T) {
	detector := NewDetector(testSampleRate, testBufferSize, testThreshold)
	samples := sineWave(440.0, testSampleRate, testBufferSize)

	freq1, ok1 := detector.Detect(samples)
	freq2, _, ok2 := detector.DetectWithConfidence(samples)

	assert.Equal(t, ok1, ok2)
	assert.Equal(t, freq1, freq2)
}
