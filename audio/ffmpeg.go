package audio

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os/exec"
	"runtime"
	"strconv"
	"strings"

	"github.com/ianlintner/instrument-to-midi/logging"
)

// FFmpegConfig holds capture configuration.
type FFmpegConfig struct {
	// Input is a file path, or a device name when InputFormat is a capture
	// format such as "alsa" or "avfoundation".
	Input string `json:"input"`

	// InputFormat is the ffmpeg -f demuxer. Empty means probe from the
	// input, which is correct for files.
	InputFormat string `json:"input_format"`

	SampleRate uint32 `json:"sample_rate"`
	ChunkSize  int    `json:"chunk_size"`
	FFmpegPath string `json:"ffmpeg_path"`
}

// DefaultFFmpegConfig returns capture defaults for the platform's default
// input device.
func DefaultFFmpegConfig() *FFmpegConfig {
	cfg := &FFmpegConfig{
		SampleRate: 44100,
		ChunkSize:  2048,
		FFmpegPath: "ffmpeg",
	}
	switch runtime.GOOS {
	case "darwin":
		cfg.InputFormat = "avfoundation"
		cfg.Input = ":0"
	case "linux":
		cfg.InputFormat = "pulse"
		cfg.Input = "default"
	}
	return cfg
}

// FFmpegSource decodes live or file input through an ffmpeg subprocess to
// mono little-endian float64 PCM and emits fixed-size sample windows.
type FFmpegSource struct {
	config *FFmpegConfig
	cmd    *exec.Cmd
	cancel context.CancelFunc
}

// NewFFmpegSource creates a source. A nil config uses platform defaults.
func NewFFmpegSource(config *FFmpegConfig) *FFmpegSource {
	if config == nil {
		config = DefaultFFmpegConfig()
	}
	return &FFmpegSource{config: config}
}

// SampleRate returns the PCM sample rate in Hz.
func (s *FFmpegSource) SampleRate() uint32 {
	return s.config.SampleRate
}

// Channels returns 1; capture is downmixed to mono.
func (s *FFmpegSource) Channels() int {
	return 1
}

// Start launches ffmpeg and begins streaming sample windows. The returned
// channel closes when the input ends, ffmpeg exits, or ctx is cancelled.
func (s *FFmpegSource) Start(ctx context.Context) (<-chan []float64, error) {
	if s.config.Input == "" {
		return nil, fmt.Errorf("no audio input configured")
	}

	ctx, s.cancel = context.WithCancel(ctx)

	args := []string{"-v", "error"}
	if s.config.InputFormat != "" {
		args = append(args, "-f", s.config.InputFormat)
	}
	args = append(args,
		"-i", s.config.Input,
		"-vn",
		"-f", "f64le",
		"-ac", "1",
		"-ar", strconv.Itoa(int(s.config.SampleRate)),
		"pipe:1",
	)

	s.cmd = exec.CommandContext(ctx, s.config.FFmpegPath, args...)

	stdout, err := s.cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("ffmpeg stdout pipe: %w", err)
	}
	if err := s.cmd.Start(); err != nil {
		return nil, fmt.Errorf("starting ffmpeg: %w", err)
	}

	logging.Debug("ffmpeg capture started", logging.Fields{
		"command": fmt.Sprintf("%s %s", s.config.FFmpegPath, strings.Join(args, " ")),
	})

	out := make(chan []float64)
	go s.readLoop(ctx, stdout, out)
	return out, nil
}

// readLoop reads full chunks of raw float64 PCM and forwards them until EOF
// or cancellation.
func (s *FFmpegSource) readLoop(ctx context.Context, r io.Reader, out chan<- []float64) {
	defer close(out)

	buf := make([]byte, s.config.ChunkSize*8)
	for {
		_, err := io.ReadFull(r, buf)
		if err != nil {
			if err != io.EOF && err != io.ErrUnexpectedEOF && ctx.Err() == nil {
				logging.Error(err, "reading audio from ffmpeg", nil)
			}
			return
		}

		samples := bytesToFloat64(buf)

		select {
		case out <- samples:
		case <-ctx.Done():
			return
		}
	}
}

// Stop terminates the ffmpeg process and waits for it to exit.
func (s *FFmpegSource) Stop() error {
	if s.cancel != nil {
		s.cancel()
	}
	if s.cmd != nil {
		// Exit status is uninteresting here; the context kill is expected.
		_ = s.cmd.Wait()
		s.cmd = nil
	}
	return nil
}

// bytesToFloat64 converts raw little-endian float64 PCM bytes.
func bytesToFloat64(data []byte) []float64 {
	data = data[:len(data)-(len(data)%8)]

	samples := make([]float64, len(data)/8)
	for i := range samples {
		bits := binary.LittleEndian.Uint64(data[i*8 : i*8+8])
		samples[i] = math.Float64frombits(bits)
	}
	return samples
}
