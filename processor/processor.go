package processor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ianlintner/instrument-to-midi/config"
	"github.com/ianlintner/instrument-to-midi/logging"
	"github.com/ianlintner/instrument-to-midi/midi"
	"github.com/ianlintner/instrument-to-midi/web"
)

// chunkQueueSize bounds the producer/consumer queue. A full queue drops the
// incoming chunk; real-time capture must never block on processing.
const chunkQueueSize = 10

// idlePollInterval is how long the consumer waits for a chunk before
// re-polling, keeping shutdown responsive during silence.
const idlePollInterval = 100 * time.Millisecond

// StreamProcessor consumes audio chunks, reassembles them into fixed-size
// analysis windows, and feeds the note event engine in strict order.
type StreamProcessor struct {
	session  string
	cfg      config.Config
	engine   Engine
	recorder *midi.Recorder
	notifier Notifier

	queue  chan []float64
	buffer []float64
}

// NewStreamProcessor creates a processor around an engine. The recorder is
// started and saved by Run when recording is enabled.
func NewStreamProcessor(cfg config.Config, engine Engine, recorder *midi.Recorder, notifier Notifier) *StreamProcessor {
	return &StreamProcessor{
		session:  uuid.NewString(),
		cfg:      cfg,
		engine:   engine,
		recorder: recorder,
		notifier: notifier,
		queue:    make(chan []float64, chunkQueueSize),
		buffer:   make([]float64, 0, cfg.BufferSize*2),
	}
}

// Session returns the processor's session id.
func (p *StreamProcessor) Session() string {
	return p.session
}

// Submit enqueues a chunk for processing without blocking. Chunks arriving
// while the queue is full are dropped and logged.
func (p *StreamProcessor) Submit(chunk []float64) {
	select {
	case p.queue <- chunk:
	default:
		logging.Warn("processing queue full, dropping chunk", logging.Fields{
			"session": p.session,
			"samples": len(chunk),
		})
	}
}

// Run consumes chunks from in until it closes or ctx is cancelled. Teardown
// always runs: sounding notes are flushed and, when recording, the take is
// saved.
func (p *StreamProcessor) Run(ctx context.Context, in <-chan []float64) error {
	logging.Info("stream processor started", logging.Fields{
		"session":     p.session,
		"buffer_size": p.cfg.BufferSize,
		"polyphonic":  p.cfg.PolyphonicEnabled,
	})

	if p.cfg.RecordEnabled {
		p.recorder.Start()
		p.notify(web.RecordingStatusEvent(true))
	}
	defer p.teardown()

	// Producer: forward capture chunks into the bounded queue. Closing the
	// queue ends the session when the input runs out.
	go func() {
		for chunk := range in {
			p.Submit(chunk)
		}
		close(p.queue)
	}()

	timer := time.NewTimer(idlePollInterval)
	defer timer.Stop()

	for {
		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(idlePollInterval)

		select {
		case <-ctx.Done():
			return nil
		case chunk, ok := <-p.queue:
			if !ok {
				return nil
			}
			if err := p.accumulate(chunk); err != nil {
				return err
			}
		case <-timer.C:
			// Idle; re-poll so cancellation is never missed for long.
		}
	}
}

// accumulate appends a chunk to the rolling buffer and processes every
// complete window it now contains, in order.
func (p *StreamProcessor) accumulate(chunk []float64) error {
	p.buffer = append(p.buffer, chunk...)

	for len(p.buffer) >= p.cfg.BufferSize {
		window := p.buffer[:p.cfg.BufferSize]
		if err := p.engine.Process(window); err != nil {
			return fmt.Errorf("processing window: %w", err)
		}
		p.buffer = p.buffer[p.cfg.BufferSize:]
	}

	// Keep the remainder at the start of the backing array so the buffer
	// does not grow without bound.
	if len(p.buffer) > 0 && cap(p.buffer) > p.cfg.BufferSize*4 {
		compact := make([]float64, len(p.buffer), p.cfg.BufferSize*2)
		copy(compact, p.buffer)
		p.buffer = compact
	}
	return nil
}

// teardown silences the output and finalizes the recording. Failures here
// are logged, never escalated; teardown runs on error paths too.
func (p *StreamProcessor) teardown() {
	if err := p.engine.Flush(); err != nil {
		logging.Warn("failed to flush notes on shutdown", logging.Fields{
			"session": p.session,
			"error":   err.Error(),
		})
	}

	if !p.cfg.RecordEnabled {
		return
	}

	p.recorder.Stop()
	p.notify(web.RecordingStatusEvent(false))

	path := p.cfg.RecordOutput
	if path == "" {
		path = time.Now().Format("recording-20060102-150405.mid")
	}
	if err := p.recorder.Save(path); err != nil {
		if errors.Is(err, midi.ErrNoEvents) {
			logging.Info("nothing recorded, no file written", logging.Fields{"session": p.session})
			return
		}
		logging.Error(err, "failed to save recording", logging.Fields{
			"session": p.session,
			"path":    path,
		})
	}
}

func (p *StreamProcessor) notify(event web.Event) {
	if p.notifier != nil {
		p.notifier.Publish(event)
	}
}
