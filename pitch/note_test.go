package pitch

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFrequencyToMIDI_ReferencePitches(t *testing.T) {
	assert := assert.New(t)

	assert.Equal(uint8(69), FrequencyToMIDI(440.0))   // A4
	assert.Equal(uint8(40), FrequencyToMIDI(82.41))   // low E
	assert.Equal(uint8(64), FrequencyToMIDI(329.63))  // high E
	assert.Equal(uint8(60), FrequencyToMIDI(261.626)) // middle C
}

func TestFrequencyToMIDI_ClampsToRange(t *testing.T) {
	assert.Equal(t, uint8(0), FrequencyToMIDI(1.0))
	assert.Equal(t, uint8(127), FrequencyToMIDI(100000.0))
}

func TestMIDIToFrequency_RoundTrip(t *testing.T) {
	assert := assert.New(t)

	assert.InDelta(440.0, MIDIToFrequency(69), 0.001)
	assert.InDelta(82.407, MIDIToFrequency(40), 0.01)

	for note := uint8(20); note <= 110; note += 7 {
		assert.Equal(note, FrequencyToMIDI(MIDIToFrequency(note)))
	}
}

func TestNoteName(t *testing.T) {
	assert := assert.New(t)

	assert.Equal("A4", NoteName(69))
	assert.Equal("C4", NoteName(60))
	assert.Equal("E2", NoteName(40))
	assert.Equal("C-1", NoteName(0))
	assert.Equal("G9", NoteName(127))
}

func TestCalculatePitchBend_CenteredWhenInTune(t *testing.T) {
	bend := CalculatePitchBend(440.0, 69, 2.0)
	assert.InDelta(t, 0.0, bend, 1e-9)
}

func TestCalculatePitchBend_OneSemitoneUp(t *testing.T) {
	// A#4 detected against an A4 target with a 2 semitone range.
	bend := CalculatePitchBend(MIDIToFrequency(70), 69, 2.0)
	assert.InDelta(t, 0.5, bend, 1e-6)
}

func TestCalculatePitchBend_SaturatesBeyondRange(t *testing.T) {
	assert := assert.New(t)

	// 5 semitones up saturates at the 2 semitone range.
	up := CalculatePitchBend(MIDIToFrequency(74), 69, 2.0)
	assert.InDelta(1.0, up, 1e-6)

	down := CalculatePitchBend(MIDIToFrequency(64), 69, 2.0)
	assert.InDelta(-1.0, down, 1e-6)
}

func TestCalculatePitchBend_SymmetricDown(t *testing.T) {
	up := CalculatePitchBend(MIDIToFrequency(70), 69, 2.0)
	down := CalculatePitchBend(MIDIToFrequency(68), 69, 2.0)
	assert.InDelta(t, up, -down, 1e-6)
}
