package processor

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ianlintner/instrument-to-midi/midi"
)

func TestStreamProcessor_ReassemblesWindowsFromChunks(t *testing.T) {
	cfg := monoTestConfig()
	sink := &fakeSink{}
	engine := newTestEngine(cfg, sink)
	proc := NewStreamProcessor(cfg, engine, midi.NewRecorder(), nil)

	// One analysis window split into four chunks.
	window := sineWindow(440.0, cfg.BufferSize)
	in := make(chan []float64, 4)
	for i := 0; i < 4; i++ {
		in <- window[i*cfg.BufferSize/4 : (i+1)*cfg.BufferSize/4]
	}
	close(in)

	require.NoError(t, proc.Run(context.Background(), in))

	// The note sounded and teardown flushed it.
	assert.Equal(t, []string{"on:69", "off:69"}, sink.calls)
}

func TestStreamProcessor_TeardownFlushesOnCancel(t *testing.T) {
	cfg := monoTestConfig()
	sink := &fakeSink{}
	engine := newTestEngine(cfg, sink)
	proc := NewStreamProcessor(cfg, engine, midi.NewRecorder(), nil)

	in := make(chan []float64, 1)
	in <- sineWindow(440.0, cfg.BufferSize)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- proc.Run(ctx, in) }()

	// Give the consumer time to process the window, then cancel.
	assert.Eventually(t, func() bool {
		return len(sink.calls) > 0
	}, time.Second, 5*time.Millisecond)
	cancel()

	require.NoError(t, <-done)
	assert.Equal(t, []string{"on:69", "off:69"}, sink.calls)
}

func TestStreamProcessor_SavesRecordingOnExit(t *testing.T) {
	cfg := monoTestConfig()
	cfg.RecordEnabled = true
	cfg.RecordOutput = filepath.Join(t.TempDir(), "take.mid")

	recorder := midi.NewRecorder()
	sink := &fakeSink{}
	engine := NewEngine(cfg, engineSampleRate, sink, recorder, nil)
	proc := NewStreamProcessor(cfg, engine, recorder, nil)

	in := make(chan []float64, 1)
	in <- sineWindow(440.0, cfg.BufferSize)
	close(in)

	require.NoError(t, proc.Run(context.Background(), in))

	info, err := os.Stat(cfg.RecordOutput)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
	assert.False(t, recorder.IsRecording())
}

func TestStreamProcessor_EmptyRecordingWritesNoFile(t *testing.T) {
	cfg := monoTestConfig()
	cfg.RecordEnabled = true
	cfg.RecordOutput = filepath.Join(t.TempDir(), "silent.mid")

	recorder := midi.NewRecorder()
	sink := &fakeSink{}
	engine := NewEngine(cfg, engineSampleRate, sink, recorder, nil)
	proc := NewStreamProcessor(cfg, engine, recorder, nil)

	in := make(chan []float64, 1)
	in <- make([]float64, cfg.BufferSize)
	close(in)

	require.NoError(t, proc.Run(context.Background(), in))

	_, err := os.Stat(cfg.RecordOutput)
	assert.True(t, os.IsNotExist(err))
}

func TestStreamProcessor_SubmitDropsWhenQueueFull(t *testing.T) {
	cfg := monoTestConfig()
	proc := NewStreamProcessor(cfg, newTestEngine(cfg, &fakeSink{}), midi.NewRecorder(), nil)

	// Nothing consumes the queue; overfilling must not block.
	done := make(chan struct{})
	go func() {
		for i := 0; i < chunkQueueSize*3; i++ {
			proc.Submit(make([]float64, 16))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Submit blocked on a full queue")
	}
}

func TestStreamProcessor_SessionIDStable(t *testing.T) {
	cfg := monoTestConfig()
	proc := NewStreamProcessor(cfg, newTestEngine(cfg, &fakeSink{}), midi.NewRecorder(), nil)

	assert.NotEmpty(t, proc.Session())
	assert.Equal(t, proc.Session(), proc.Session())
}
