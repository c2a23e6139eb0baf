package midi

import (
	"errors"
	"fmt"
	"sync"
	"time"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/ianlintner/instrument-to-midi/logging"
)

// Standard MIDI file timing: 480 ticks per quarter note at 120 BPM, so one
// quarter note is 500000 microseconds.
const (
	ticksPerQuarter  = 480
	microsPerQuarter = 500000
	tempoBPM         = 120

	// maxDeltaTicks is the largest delta a variable-length quantity can
	// encode in a standard MIDI file.
	maxDeltaTicks = 0x0FFFFFFF
)

// ErrNoEvents is returned by Save when nothing was recorded.
var ErrNoEvents = errors.New("no events recorded")

type eventKind uint8

const (
	eventNoteOn eventKind = iota
	eventNoteOff
	eventPitchBend
)

// recordedEvent is a performance event with its offset from recording start.
type recordedEvent struct {
	kind     eventKind
	note     uint8
	velocity uint8
	bend     int16
	atMicros uint64
}

// Recorder captures a timestamped performance and serializes it as a
// single-track standard MIDI file. It is safe for concurrent use.
type Recorder struct {
	mu        sync.Mutex
	events    []recordedEvent
	startTime time.Time
	recording bool
}

// NewRecorder creates an idle recorder. Events are ignored until Start.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Start clears any previous take and begins timestamping from now.
func (r *Recorder) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = r.events[:0]
	r.startTime = time.Now()
	r.recording = true
	logging.Info("recording started", nil)
}

// Stop ends the take. Recorded events are kept for Save.
func (r *Recorder) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.recording {
		return
	}
	r.recording = false
	logging.Info("recording stopped", logging.Fields{"events": len(r.events)})
}

// RecordNoteOn captures a note-on. A no-op while not recording.
func (r *Recorder) RecordNoteOn(note, velocity uint8) {
	r.record(recordedEvent{kind: eventNoteOn, note: note, velocity: velocity})
}

// RecordNoteOff captures a note-off. A no-op while not recording.
func (r *Recorder) RecordNoteOff(note uint8) {
	r.record(recordedEvent{kind: eventNoteOff, note: note})
}

// RecordPitchBend captures a pitch bend, bend in [-1,1]. A no-op while not
// recording.
func (r *Recorder) RecordPitchBend(bend float64) {
	value := BendToValue(bend)
	r.record(recordedEvent{kind: eventPitchBend, bend: int16(int(value) - 8192)})
}

func (r *Recorder) record(ev recordedEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.recording {
		return
	}
	ev.atMicros = uint64(time.Since(r.startTime).Microseconds())
	r.events = append(r.events, ev)
}

// IsRecording reports whether the recorder is between Start and Stop.
func (r *Recorder) IsRecording() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.recording
}

// EventCount returns the number of events captured so far.
func (r *Recorder) EventCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

// Clear discards all captured events without changing the recording state.
func (r *Recorder) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = r.events[:0]
}

// Save writes the take to path as a format-0 standard MIDI file with a
// tempo event followed by the performance on channel 0. Returns ErrNoEvents,
// without touching the file, when nothing was recorded.
func (r *Recorder) Save(path string) error {
	r.mu.Lock()
	events := make([]recordedEvent, len(r.events))
	copy(events, r.events)
	r.mu.Unlock()

	if len(events) == 0 {
		return ErrNoEvents
	}

	var s smf.SMF
	s.TimeFormat = smf.MetricTicks(ticksPerQuarter)

	var tr smf.Track
	tr = append(tr, smf.Event{Delta: 0, Message: smf.MetaTempo(tempoBPM)})

	var lastMicros uint64
	for _, ev := range events {
		delta := microsToTicks(ev.atMicros - lastMicros)
		lastMicros = ev.atMicros

		var msg gomidi.Message
		switch ev.kind {
		case eventNoteOn:
			msg = gomidi.NoteOn(defaultChannel, ev.note, ev.velocity)
		case eventNoteOff:
			msg = gomidi.NoteOff(defaultChannel, ev.note)
		case eventPitchBend:
			msg = gomidi.Pitchbend(defaultChannel, ev.bend)
		}
		tr = append(tr, smf.Event{Delta: delta, Message: smf.Message(msg)})
	}
	tr.Close(0)
	s.Tracks = append(s.Tracks, tr)

	if err := s.WriteFile(path); err != nil {
		return fmt.Errorf("writing MIDI file: %w", err)
	}

	logging.Info("recording saved", logging.Fields{
		"path":   path,
		"events": len(events),
	})
	return nil
}

// microsToTicks converts an elapsed duration in microseconds to MIDI ticks
// at the fixed tempo, saturating at the largest encodable delta.
func microsToTicks(micros uint64) uint32 {
	// Saturate before multiplying so huge gaps cannot overflow.
	const maxMicros = uint64(maxDeltaTicks) * microsPerQuarter / ticksPerQuarter
	if micros > maxMicros {
		return maxDeltaTicks
	}
	ticks := micros * ticksPerQuarter / microsPerQuarter
	if ticks > maxDeltaTicks {
		return maxDeltaTicks
	}
	return uint32(ticks)
}
