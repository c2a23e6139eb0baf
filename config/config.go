package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// Config holds all session parameters consumed by the processing pipeline.
type Config struct {
	// Audio buffer size (samples per processing window)
	BufferSize int `json:"buffer_size"`

	// Minimum duration for a note to be considered valid (in seconds)
	MinNoteDuration float64 `json:"min_note_duration"`

	// CMND threshold for monophonic pitch detection
	PitchThreshold float64 `json:"pitch_threshold"`

	// MIDI output port name (empty for a virtual port)
	MidiPort string `json:"midi_port,omitempty"`

	// Velocity for emitted MIDI notes (0-127)
	Velocity uint8 `json:"velocity"`

	// Enable verbose logging
	Verbose bool `json:"verbose"`

	// Enable fuzzy note resolution with learning
	FuzzyEnabled bool `json:"fuzzy_enabled"`

	// Confidence threshold below which fuzzy resolution is applied
	FuzzyThreshold float64 `json:"fuzzy_threshold"`

	// Confidence threshold to consider a detection "clear" for learning
	ClearThreshold float64 `json:"clear_threshold"`

	// Maximum number of recent notes tracked for pattern detection
	MaxRecentNotes int `json:"max_recent_notes"`

	// Enable MIDI recording to file
	RecordEnabled bool `json:"record_enabled"`

	// Output file path for the recording (empty = timestamped default)
	RecordOutput string `json:"record_output,omitempty"`

	// Enable pitch bend for vibrato, slides and bends
	PitchBendEnabled bool `json:"pitch_bend_enabled"`

	// Range in semitones for pitch bend (typically 2 or 12)
	PitchBendRange float64 `json:"pitch_bend_range"`

	// Enable polyphonic pitch detection (multiple simultaneous notes)
	PolyphonicEnabled bool `json:"polyphonic_enabled"`

	// Minimum peak magnitude for polyphonic detection (higher = less sensitive)
	PolyphonicThreshold float64 `json:"polyphonic_threshold"`

	// Enable the monitoring web server
	WebEnabled bool `json:"web_enabled"`

	// Port for the monitoring web server
	WebPort int `json:"web_port"`
}

// Default returns the default session configuration.
func Default() Config {
	return Config{
		BufferSize:          2048,
		MinNoteDuration:     0.05, // 50ms
		PitchThreshold:      0.15,
		Velocity:            80,
		FuzzyEnabled:        true,
		FuzzyThreshold:      0.7,
		ClearThreshold:      0.8,
		MaxRecentNotes:      20,
		PitchBendEnabled:    true,
		PitchBendRange:      2.0,
		PolyphonicEnabled:   false,
		PolyphonicThreshold: 0.2,
		WebEnabled:          false,
		WebPort:             8080,
	}
}

// FromFile loads and validates a configuration from a JSON file.
// Fields missing from the file keep their defaults.
func FromFile(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config file: %w", err)
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// ToFile validates and writes the configuration as pretty-printed JSON.
func (c Config) ToFile(path string) error {
	if err := c.Validate(); err != nil {
		return err
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

// Validate checks parameter consistency. Clear notes feed the learning
// history, so their acceptance threshold must be at least as strict as the
// threshold that triggers fuzzy resolution.
func (c Config) Validate() error {
	if c.BufferSize <= 0 {
		return fmt.Errorf("buffer_size must be positive, got %d", c.BufferSize)
	}
	if c.FuzzyEnabled && c.ClearThreshold < c.FuzzyThreshold {
		return fmt.Errorf(
			"clear_threshold (%g) must be greater than or equal to fuzzy_threshold (%g)",
			c.ClearThreshold, c.FuzzyThreshold)
	}
	return nil
}
