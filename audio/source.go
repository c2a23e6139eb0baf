// Package audio captures PCM sample windows from a live input device or a
// file, decoded through FFmpeg to mono float64.
package audio

import "context"

// Source produces fixed-size windows of mono float64 samples on a channel.
// The channel closes when the input ends or the context is cancelled.
type Source interface {
	// SampleRate returns the PCM sample rate in Hz.
	SampleRate() uint32

	// Channels returns the channel count of emitted windows, always 1 for
	// the provided implementations.
	Channels() int

	// Start begins capture and returns the sample window channel.
	Start(ctx context.Context) (<-chan []float64, error)

	// Stop terminates capture and releases the underlying process.
	Stop() error
}
