// Package midi provides the output sink and the performance recorder.
package midi

import (
	"errors"
	"fmt"
	"strings"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	"gitlab.com/gomidi/midi/v2/drivers/rtmididrv"

	"github.com/ianlintner/instrument-to-midi/logging"
)

const defaultChannel = 0

// virtualPortName is the name advertised when no output port is requested.
const virtualPortName = "instrument-to-midi"

// ErrNotConnected is returned when a message is sent before Connect.
var ErrNotConnected = errors.New("midi output not connected")

// Sink is the downstream consumer of note events. Output implements it
// against a real or virtual MIDI port; tests substitute their own.
type Sink interface {
	NoteOn(note, velocity uint8) error
	NoteOff(note uint8) error
	PitchBend(bend float64) error
	AllNotesOff() error
}

// Output sends MIDI messages to a physical or virtual output port and
// tracks which notes are currently sounding so teardown can silence them.
type Output struct {
	drv         *rtmididrv.Driver
	out         drivers.Out
	activeNotes map[uint8]struct{}
}

// NewOutput initialises the underlying rtmidi driver. Call Close when done.
func NewOutput() (*Output, error) {
	drv, err := rtmididrv.New()
	if err != nil {
		return nil, fmt.Errorf("rtmididrv: %w", err)
	}
	return &Output{
		drv:         drv,
		activeNotes: make(map[uint8]struct{}),
	}, nil
}

// Connect opens the output port whose name contains portName, or creates a
// virtual port when portName is empty. A missing port or a failed open is a
// startup error.
func (o *Output) Connect(portName string) error {
	if portName == "" {
		out, err := o.drv.OpenVirtualOut(virtualPortName)
		if err != nil {
			return fmt.Errorf("creating virtual MIDI port: %w", err)
		}
		o.out = out
		logging.Info("created virtual MIDI port", logging.Fields{"port": virtualPortName})
		return nil
	}

	outs, err := o.drv.Outs()
	if err != nil {
		return fmt.Errorf("listing MIDI outputs: %w", err)
	}

	var found drivers.Out
	for _, out := range outs {
		if strings.Contains(strings.ToLower(out.String()), strings.ToLower(portName)) {
			found = out
			break
		}
	}
	if found == nil {
		return fmt.Errorf("MIDI port %q not found", portName)
	}
	if err := found.Open(); err != nil {
		return fmt.Errorf("opening MIDI port %q: %w", found.String(), err)
	}

	o.out = found
	logging.Info("connected to MIDI port", logging.Fields{"port": found.String()})
	return nil
}

// NoteOn sends a note-on message on the default channel.
func (o *Output) NoteOn(note, velocity uint8) error {
	if o.out == nil {
		return ErrNotConnected
	}
	if err := o.out.Send(gomidi.NoteOn(defaultChannel, note, velocity)); err != nil {
		return fmt.Errorf("sending note on: %w", err)
	}
	o.activeNotes[note] = struct{}{}
	return nil
}

// NoteOff sends a note-off message on the default channel.
func (o *Output) NoteOff(note uint8) error {
	if o.out == nil {
		return ErrNotConnected
	}
	if err := o.out.Send(gomidi.NoteOff(defaultChannel, note)); err != nil {
		return fmt.Errorf("sending note off: %w", err)
	}
	delete(o.activeNotes, note)
	return nil
}

// PitchBend sends a pitch bend message. bend is in [-1,1]; 0 is centered.
func (o *Output) PitchBend(bend float64) error {
	if o.out == nil {
		return ErrNotConnected
	}
	value := BendToValue(bend)
	if err := o.out.Send(gomidi.Pitchbend(defaultChannel, int16(int(value)-8192))); err != nil {
		return fmt.Errorf("sending pitch bend: %w", err)
	}
	return nil
}

// AllNotesOff silences every note this output believes is sounding.
func (o *Output) AllNotesOff() error {
	for note := range o.activeNotes {
		if err := o.NoteOff(note); err != nil {
			return err
		}
	}
	return nil
}

// ActiveNoteCount returns the number of notes currently sounding.
func (o *Output) ActiveNoteCount() int {
	return len(o.activeNotes)
}

// Close silences active notes and shuts the driver down.
func (o *Output) Close() error {
	// Best-effort flush; the port may already be gone.
	if err := o.AllNotesOff(); err != nil {
		logging.Warn("failed to flush notes on close", logging.Fields{"error": err.Error()})
	}
	if o.out != nil {
		if err := o.out.Close(); err != nil {
			return err
		}
		o.out = nil
	}
	return o.drv.Close()
}

// BendToValue converts a bend in [-1,1] to the 14-bit wire value with
// center 8192, clamped to 16383.
func BendToValue(bend float64) uint16 {
	if bend < -1.0 {
		bend = -1.0
	}
	if bend > 1.0 {
		bend = 1.0
	}
	value := uint16((bend + 1.0) * 8192.0)
	if value > 16383 {
		value = 16383
	}
	return value
}

// ListPorts returns the names of the available MIDI output ports.
func ListPorts() ([]string, error) {
	drv, err := rtmididrv.New()
	if err != nil {
		return nil, fmt.Errorf("rtmididrv: %w", err)
	}
	defer drv.Close()

	outs, err := drv.Outs()
	if err != nil {
		return nil, fmt.Errorf("listing MIDI outputs: %w", err)
	}

	names := make([]string, 0, len(outs))
	for _, out := range outs {
		names = append(names, out.String())
	}
	return names, nil
}
