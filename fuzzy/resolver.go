package fuzzy

import (
	"github.com/ianlintner/instrument-to-midi/logging"
	"github.com/ianlintner/instrument-to-midi/pitch"
)

// Scoring weights. Empirically chosen; there is no derivation behind them.
const (
	recencyBoost        = 0.5 // detected note seen in the recent window
	neighborWeight      = 0.3 // proximity to neighbors of the last note
	historyWeight       = 0.8 // long-run frequency of the detected note
	alternateWeight     = 0.6 // long-run frequency of a +-1 semitone alternate
	neighborDecay       = 0.2 // score lost per semitone of neighbor distance
	alternateFloor      = 0.1 // minimum history frequency for an alternate
	recentWindow        = 5
	alternateRecentSpan = recentWindow * 2
)

// Resolver picks the most plausible intended note for low-confidence
// detections, learning from clear ones as it goes.
type Resolver struct {
	history        *NoteHistory
	fuzzyThreshold float64
}

// NewResolver creates a resolver. Detections below fuzzyThreshold are
// rescored against the history; clearThreshold gates what the history
// learns from.
func NewResolver(maxRecent int, clearThreshold, fuzzyThreshold float64) *Resolver {
	return &Resolver{
		history:        NewNoteHistory(maxRecent, clearThreshold),
		fuzzyThreshold: fuzzyThreshold,
	}
}

// Resolve records the detection for learning and returns it unchanged when
// its confidence meets the threshold, otherwise with the note replaced by
// the best-scoring candidate.
func (r *Resolver) Resolve(detection pitch.NoteDetection) pitch.NoteDetection {
	r.history.Record(detection)

	if detection.Confidence >= r.fuzzyThreshold {
		return detection
	}

	resolved := r.score(detection)
	if resolved != detection.Note {
		logging.Debug("fuzzy resolved note", logging.Fields{
			"detected": detection.Note,
			"resolved": resolved,
		})
	}

	return pitch.NoteDetection{
		Note:       resolved,
		Frequency:  detection.Frequency,
		Confidence: detection.Confidence,
	}
}

// score applies the fuzzy rules and returns the arg-max note. Candidates
// are scanned in ascending note order, so ties resolve to the lowest note
// number.
func (r *Resolver) score(detection pitch.NoteDetection) uint8 {
	scores := make(map[uint8]float64)

	// Rule 1: base score for the raw detected note.
	scores[detection.Note] = 1.0

	// Rule 2: temporal locality of the detected note.
	if r.history.IsRecent(detection.Note, recentWindow) {
		scores[detection.Note] += recencyBoost
	}

	// Rule 3: neighbors of the most recent note near the detection.
	for _, neighbor := range r.history.RecentNeighbors() {
		semitoneDiff := int(detection.Note) - int(neighbor)
		if semitoneDiff < 0 {
			semitoneDiff = -semitoneDiff
		}
		if semitoneDiff <= 2 {
			proximity := 1.0 - float64(semitoneDiff)*neighborDecay
			scores[neighbor] += proximity * neighborWeight
		}
	}

	// Rule 4: long-run frequency of the detected note.
	scores[detection.Note] += r.history.NoteFrequency(detection.Note) * historyWeight

	// Rule 5: alternates one semitone away that the player favors.
	for _, offset := range []int{-1, 1} {
		alt := int(detection.Note) + offset
		if alt < 0 {
			alt = 0
		}
		if alt > 127 {
			alt = 127
		}
		altNote := uint8(alt)
		altFreq := r.history.NoteFrequency(altNote)
		if altFreq > alternateFloor && r.history.IsRecent(altNote, alternateRecentSpan) {
			scores[altNote] += altFreq * alternateWeight
		}
	}

	// Deterministic arg-max: ascending note scan, strict improvement
	// required, so equal top scores resolve to the lowest note.
	best := detection.Note
	bestScore := -1.0
	for note := 0; note <= 127; note++ {
		if s, ok := scores[uint8(note)]; ok && s > bestScore {
			best = uint8(note)
			bestScore = s
		}
	}
	return best
}

// History exposes the learning state for inspection.
func (r *Resolver) History() *NoteHistory {
	return r.history
}
