package pitch

import (
	"fmt"
	"math"
)

// Supported instrument range. Low E on a guitar is 82.41 Hz, the high E
// string tops out near 1319 Hz at the last fret.
const (
	MinFrequency = 80.0
	MaxFrequency = 1320.0
)

var noteNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// NoteDetection is a single monophonic pitch observation.
// Confidence is a normalized inverse error measure in [0,1], not a
// probability.
type NoteDetection struct {
	Note       uint8   `json:"note"`
	Frequency  float64 `json:"frequency"`
	Confidence float64 `json:"confidence"`
}

// FrequencyToMIDI converts a frequency in Hz to the nearest MIDI note
// number: note = 69 + 12*log2(f/440), clamped to [0,127].
func FrequencyToMIDI(frequency float64) uint8 {
	note := math.Round(69.0 + 12.0*math.Log2(frequency/440.0))
	if note < 0 {
		note = 0
	}
	if note > 127 {
		note = 127
	}
	return uint8(note)
}

// MIDIToFrequency converts a MIDI note number to its equal-tempered
// frequency: f = 440 * 2^((note-69)/12).
func MIDIToFrequency(note uint8) float64 {
	return 440.0 * math.Pow(2.0, (float64(note)-69.0)/12.0)
}

// NoteName formats a MIDI note number as a chromatic name with octave,
// where note 69 is "A4".
func NoteName(note uint8) string {
	octave := int(note/12) - 1
	return fmt.Sprintf("%s%d", noteNames[note%12], octave)
}

// CalculatePitchBend returns the bend amount in [-1,1] for a detected
// frequency relative to a target note, scaled by the bend range in
// semitones.
func CalculatePitchBend(detectedFrequency float64, targetNote uint8, bendRange float64) float64 {
	targetFrequency := MIDIToFrequency(targetNote)

	semitoneDifference := 12.0 * math.Log2(detectedFrequency/targetFrequency)
	bend := semitoneDifference / bendRange

	if bend < -1.0 {
		return -1.0
	}
	if bend > 1.0 {
		return 1.0
	}
	return bend
}
