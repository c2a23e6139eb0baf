// Package web exposes a lightweight monitoring surface: an in-process event
// hub fanned out to browser clients over server-sent events.
package web

import "time"

// EventType discriminates monitoring events.
type EventType string

const (
	EventNoteOn          EventType = "note_on"
	EventNoteOff         EventType = "note_off"
	EventPitchBend       EventType = "pitch_bend"
	EventRecordingStatus EventType = "recording_status"
	EventStatus          EventType = "status"
)

// Event is a monitoring event as serialized to clients. Only the fields
// relevant to the event type are populated.
type Event struct {
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`

	Note       uint8   `json:"note,omitempty"`
	NoteName   string  `json:"note_name,omitempty"`
	Frequency  float64 `json:"frequency,omitempty"`
	Velocity   uint8   `json:"velocity,omitempty"`
	Confidence float64 `json:"confidence,omitempty"`
	Bend       float64 `json:"bend,omitempty"`
	Recording  bool    `json:"recording,omitempty"`
	Message    string  `json:"message,omitempty"`
}

// NoteOnEvent builds a note-on monitoring event.
func NoteOnEvent(note uint8, name string, frequency float64, velocity uint8, confidence float64) Event {
	return Event{
		Type:       EventNoteOn,
		Timestamp:  time.Now(),
		Note:       note,
		NoteName:   name,
		Frequency:  frequency,
		Velocity:   velocity,
		Confidence: confidence,
	}
}

// NoteOffEvent builds a note-off monitoring event.
func NoteOffEvent(note uint8, name string) Event {
	return Event{
		Type:      EventNoteOff,
		Timestamp: time.Now(),
		Note:      note,
		NoteName:  name,
	}
}

// PitchBendEvent builds a pitch bend monitoring event. bend is in [-1,1].
func PitchBendEvent(note uint8, bend float64) Event {
	return Event{
		Type:      EventPitchBend,
		Timestamp: time.Now(),
		Note:      note,
		Bend:      bend,
	}
}

// RecordingStatusEvent reports whether a take is in progress.
func RecordingStatusEvent(recording bool) Event {
	return Event{
		Type:      EventRecordingStatus,
		Timestamp: time.Now(),
		Recording: recording,
	}
}

// StatusEvent carries a free-form status message.
func StatusEvent(message string) Event {
	return Event{
		Type:      EventStatus,
		Timestamp: time.Now(),
		Message:   message,
	}
}
