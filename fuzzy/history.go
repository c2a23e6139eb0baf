// Package fuzzy resolves ambiguous low-confidence pitch detections using a
// bounded-memory record of what the player has recently and frequently
// played.
package fuzzy

import "github.com/ianlintner/instrument-to-midi/pitch"

// NoteHistory tracks clear note detections during a session. The count map
// grows without bound in value but its key set is capped at the MIDI note
// range; the recent list is a FIFO of at most maxRecent entries.
type NoteHistory struct {
	noteCounts     map[uint8]uint32
	recentNotes    []uint8
	maxRecent      int
	clearThreshold float64
}

// NewNoteHistory creates a history that accepts detections whose confidence
// is at least clearThreshold.
func NewNoteHistory(maxRecent int, clearThreshold float64) *NoteHistory {
	return &NoteHistory{
		noteCounts:     make(map[uint8]uint32),
		maxRecent:      maxRecent,
		clearThreshold: clearThreshold,
	}
}

// Record tracks a detection. Detections below the clear threshold are
// ignored so the history only learns from unambiguous notes.
func (h *NoteHistory) Record(detection pitch.NoteDetection) {
	if detection.Confidence < h.clearThreshold {
		return
	}

	h.noteCounts[detection.Note]++

	h.recentNotes = append(h.recentNotes, detection.Note)
	if len(h.recentNotes) > h.maxRecent {
		h.recentNotes = h.recentNotes[1:]
	}
}

// NoteFrequency returns how often a note appears in the history relative to
// all recorded notes, in [0,1]. Returns 0 before any note is recorded.
func (h *NoteHistory) NoteFrequency(note uint8) float64 {
	var total uint32
	for _, count := range h.noteCounts {
		total += count
	}
	if total == 0 {
		return 0.0
	}
	return float64(h.noteCounts[note]) / float64(total)
}

// IsRecent reports whether the note appears within the last window entries.
func (h *NoteHistory) IsRecent(note uint8, window int) bool {
	start := len(h.recentNotes) - window
	if start < 0 {
		start = 0
	}
	for _, n := range h.recentNotes[start:] {
		if n == note {
			return true
		}
	}
	return false
}

// RecentNeighbors returns the last recorded note and its neighbors within
// two semitones, clamped to the MIDI range. Empty when nothing has been
// recorded yet.
func (h *NoteHistory) RecentNeighbors() []uint8 {
	if len(h.recentNotes) == 0 {
		return nil
	}

	last := int(h.recentNotes[len(h.recentNotes)-1])
	neighbors := make([]uint8, 0, 5)
	for offset := -2; offset <= 2; offset++ {
		n := last + offset
		if n < 0 {
			n = 0
		}
		if n > 127 {
			n = 127
		}
		neighbors = append(neighbors, uint8(n))
	}
	return neighbors
}

// RecentCount returns how many notes are currently in the recent FIFO.
func (h *NoteHistory) RecentCount() int {
	return len(h.recentNotes)
}

// Count returns how many times a note has been recorded.
func (h *NoteHistory) Count(note uint8) uint32 {
	return h.noteCounts[note]
}
