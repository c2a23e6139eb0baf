// Package processor turns sample windows into MIDI note events and drives
// the output sink, recorder, and monitor.
package processor

import (
	"time"

	"github.com/ianlintner/instrument-to-midi/config"
	"github.com/ianlintner/instrument-to-midi/fuzzy"
	"github.com/ianlintner/instrument-to-midi/midi"
	"github.com/ianlintner/instrument-to-midi/pitch"
	"github.com/ianlintner/instrument-to-midi/web"
)

// Notifier receives monitoring events. Implementations must not block; the
// web hub satisfies this.
type Notifier interface {
	Publish(event web.Event)
}

// Engine converts one sample window at a time into note events. Windows must
// be processed in order; engines are not safe for concurrent use.
type Engine interface {
	// Process analyzes a window and emits the resulting MIDI events.
	Process(samples []float64) error

	// Flush silences all notes the engine believes are sounding. Called on
	// every teardown path.
	Flush() error
}

// NewEngine builds the engine variant selected by the configuration:
// polyphonic spectral tracking, or monophonic tracking with optional fuzzy
// resolution and pitch bend.
func NewEngine(cfg config.Config, sampleRate uint32, sink midi.Sink, recorder *midi.Recorder, notifier Notifier) Engine {
	if cfg.PolyphonicEnabled {
		return &polyEngine{
			detector: pitch.NewPolyphonicDetector(sampleRate, cfg.BufferSize, cfg.PolyphonicThreshold),
			sink:     sink,
			recorder: recorder,
			notifier: notifier,
			velocity: cfg.Velocity,
			active:   make(map[uint8]struct{}),
		}
	}

	var resolver *fuzzy.Resolver
	if cfg.FuzzyEnabled {
		resolver = fuzzy.NewResolver(cfg.MaxRecentNotes, cfg.ClearThreshold, cfg.FuzzyThreshold)
	}
	return &monoEngine{
		detector:        pitch.NewDetector(sampleRate, cfg.BufferSize, cfg.PitchThreshold),
		resolver:        resolver,
		sink:            sink,
		recorder:        recorder,
		notifier:        notifier,
		velocity:        cfg.Velocity,
		minNoteDuration: time.Duration(cfg.MinNoteDuration * float64(time.Second)),
		bendEnabled:     cfg.PitchBendEnabled,
		bendRange:       cfg.PitchBendRange,
	}
}

// monoEngine tracks at most one sounding note using YIN detection.
type monoEngine struct {
	detector *pitch.Detector
	resolver *fuzzy.Resolver
	sink     midi.Sink
	recorder *midi.Recorder
	notifier Notifier
	velocity uint8

	minNoteDuration time.Duration
	bendEnabled     bool
	bendRange       float64

	sounding  bool
	note      uint8
	startedAt time.Time
}

func (e *monoEngine) Process(samples []float64) error {
	frequency, confidence, ok := e.detector.DetectWithConfidence(samples)
	if !ok {
		// Silence. Short dropouts inside the debounce window keep the
		// note sounding.
		if e.sounding && time.Since(e.startedAt) >= e.minNoteDuration {
			return e.noteOff()
		}
		return nil
	}

	detection := pitch.NoteDetection{
		Note:       pitch.FrequencyToMIDI(frequency),
		Frequency:  frequency,
		Confidence: confidence,
	}
	if e.resolver != nil {
		detection = e.resolver.Resolve(detection)
	}

	if e.sounding && detection.Note != e.note {
		if err := e.noteOff(); err != nil {
			return err
		}
	}
	if !e.sounding {
		if err := e.noteOn(detection); err != nil {
			return err
		}
	}

	if e.bendEnabled {
		bend := pitch.CalculatePitchBend(frequency, e.note, e.bendRange)
		if err := e.sink.PitchBend(bend); err != nil {
			return err
		}
		e.recorder.RecordPitchBend(bend)
		e.notify(web.PitchBendEvent(e.note, bend))
	}
	return nil
}

func (e *monoEngine) Flush() error {
	if !e.sounding {
		return nil
	}
	return e.noteOff()
}

func (e *monoEngine) noteOn(detection pitch.NoteDetection) error {
	if err := e.sink.NoteOn(detection.Note, e.velocity); err != nil {
		return err
	}
	e.recorder.RecordNoteOn(detection.Note, e.velocity)
	e.notify(web.NoteOnEvent(
		detection.Note,
		pitch.NoteName(detection.Note),
		detection.Frequency,
		e.velocity,
		detection.Confidence,
	))

	e.sounding = true
	e.note = detection.Note
	e.startedAt = time.Now()
	return nil
}

func (e *monoEngine) noteOff() error {
	if err := e.sink.NoteOff(e.note); err != nil {
		return err
	}
	e.recorder.RecordNoteOff(e.note)
	e.notify(web.NoteOffEvent(e.note, pitch.NoteName(e.note)))

	e.sounding = false
	return nil
}

func (e *monoEngine) notify(event web.Event) {
	if e.notifier != nil {
		e.notifier.Publish(event)
	}
}

// polyEngine tracks a set of sounding notes by diffing consecutive windows
// of spectral candidates.
type polyEngine struct {
	detector *pitch.PolyphonicDetector
	sink     midi.Sink
	recorder *midi.Recorder
	notifier Notifier
	velocity uint8

	active map[uint8]struct{}
}

func (e *polyEngine) Process(samples []float64) error {
	candidates := e.detector.DetectPitches(samples)

	desired := make(map[uint8]pitch.PitchCandidate, len(candidates))
	for _, c := range candidates {
		desired[c.Note] = c
	}

	for note := range e.active {
		if _, still := desired[note]; still {
			continue
		}
		if err := e.sink.NoteOff(note); err != nil {
			return err
		}
		e.recorder.RecordNoteOff(note)
		e.notify(web.NoteOffEvent(note, pitch.NoteName(note)))
		delete(e.active, note)
	}

	for note, c := range desired {
		if _, already := e.active[note]; already {
			continue
		}
		if err := e.sink.NoteOn(note, e.velocity); err != nil {
			return err
		}
		e.recorder.RecordNoteOn(note, e.velocity)
		e.notify(web.NoteOnEvent(note, pitch.NoteName(note), c.Frequency, e.velocity, c.Magnitude))
		e.active[note] = struct{}{}
	}
	return nil
}

func (e *polyEngine) Flush() error {
	for note := range e.active {
		if err := e.sink.NoteOff(note); err != nil {
			return err
		}
		e.recorder.RecordNoteOff(note)
		e.notify(web.NoteOffEvent(note, pitch.NoteName(note)))
		delete(e.active, note)
	}
	return nil
}

func (e *polyEngine) notify(event web.Event) {
	if e.notifier != nil {
		e.notifier.Publish(event)
	}
}
