package cmd

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ianlintner/instrument-to-midi/audio"
	"github.com/ianlintner/instrument-to-midi/config"
	"github.com/ianlintner/instrument-to-midi/logging"
	"github.com/ianlintner/instrument-to-midi/midi"
	"github.com/ianlintner/instrument-to-midi/processor"
	"github.com/ianlintner/instrument-to-midi/web"
)

var streamFlags struct {
	configPath string
	input      string
	midiPort   string
	bufferSize int
	velocity   uint8
	record     bool
	recordOut  string
	polyphonic bool
	webEnabled bool
	webPort    int
	verbose    bool
}

func init() {
	rootCmd.AddCommand(streamCmd)

	streamCmd.Flags().StringVarP(&streamFlags.configPath, "config", "c", "", "path to a JSON config file")
	streamCmd.Flags().StringVarP(&streamFlags.input, "input", "i", "", "audio input device or file (default: platform default device)")
	streamCmd.Flags().StringVarP(&streamFlags.midiPort, "port", "p", "", "MIDI output port name substring (default: virtual port)")
	streamCmd.Flags().IntVarP(&streamFlags.bufferSize, "buffer-size", "b", 0, "analysis window size in samples")
	streamCmd.Flags().Uint8Var(&streamFlags.velocity, "velocity", 0, "velocity for emitted notes (1-127)")
	streamCmd.Flags().BoolVarP(&streamFlags.record, "record", "r", false, "record the performance to a MIDI file")
	streamCmd.Flags().StringVarP(&streamFlags.recordOut, "output", "o", "", "recording output path")
	streamCmd.Flags().BoolVar(&streamFlags.polyphonic, "polyphonic", false, "detect multiple simultaneous notes")
	streamCmd.Flags().BoolVar(&streamFlags.webEnabled, "web", false, "serve the browser monitor")
	streamCmd.Flags().IntVar(&streamFlags.webPort, "web-port", 0, "monitor port")
	streamCmd.Flags().BoolVarP(&streamFlags.verbose, "verbose", "v", false, "verbose logging")
}

var streamCmd = &cobra.Command{
	Use:   "stream",
	Short: "Stream audio from an input and emit MIDI in real time",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadStreamConfig(cmd)
		if err != nil {
			return err
		}
		return runStream(cfg)
	},
}

// loadStreamConfig builds the session config from defaults, an optional
// config file, and explicitly set flags, in that precedence order.
func loadStreamConfig(cmd *cobra.Command) (config.Config, error) {
	cfg := config.Default()

	if streamFlags.configPath != "" {
		loaded, err := config.FromFile(streamFlags.configPath)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
	}

	if cmd.Flags().Changed("port") {
		cfg.MidiPort = streamFlags.midiPort
	}
	if cmd.Flags().Changed("buffer-size") {
		cfg.BufferSize = streamFlags.bufferSize
	}
	if cmd.Flags().Changed("velocity") {
		cfg.Velocity = streamFlags.velocity
	}
	if cmd.Flags().Changed("record") {
		cfg.RecordEnabled = streamFlags.record
	}
	if cmd.Flags().Changed("output") {
		cfg.RecordOutput = streamFlags.recordOut
		cfg.RecordEnabled = true
	}
	if cmd.Flags().Changed("polyphonic") {
		cfg.PolyphonicEnabled = streamFlags.polyphonic
	}
	if cmd.Flags().Changed("web") {
		cfg.WebEnabled = streamFlags.webEnabled
	}
	if cmd.Flags().Changed("web-port") {
		cfg.WebPort = streamFlags.webPort
	}
	if cmd.Flags().Changed("verbose") {
		cfg.Verbose = streamFlags.verbose
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func runStream(cfg config.Config) error {
	if cfg.Verbose {
		logging.SetLevel(logging.DebugLevel)
	}

	sourceCfg := audio.DefaultFFmpegConfig()
	if streamFlags.input != "" {
		// An explicit input is treated as a file or URL ffmpeg can probe.
		sourceCfg.Input = streamFlags.input
		sourceCfg.InputFormat = ""
	}
	source := audio.NewFFmpegSource(sourceCfg)

	output, err := midi.NewOutput()
	if err != nil {
		return err
	}
	defer func() {
		if err := output.Close(); err != nil {
			logging.Warn("closing MIDI output", logging.Fields{"error": err.Error()})
		}
	}()

	if err := output.Connect(cfg.MidiPort); err != nil {
		return err
	}

	recorder := midi.NewRecorder()

	var hub *web.Hub
	var notifier processor.Notifier
	if cfg.WebEnabled {
		hub = web.NewHub()
		defer hub.Close()
		notifier = hub
	}

	engine := processor.NewEngine(cfg, source.SampleRate(), output, recorder, notifier)
	proc := processor.NewStreamProcessor(cfg, engine, recorder, notifier)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if cfg.WebEnabled {
		server := web.NewServer(hub, proc.Session(), cfg.WebPort)
		go func() {
			if err := server.Start(); err != nil {
				logging.Error(err, "monitoring server failed", nil)
			}
		}()
		defer func() {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer shutdownCancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				logging.Warn("monitoring server shutdown", logging.Fields{"error": err.Error()})
			}
		}()
	}

	samples, err := source.Start(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := source.Stop(); err != nil {
			logging.Warn("stopping audio source", logging.Fields{"error": err.Error()})
		}
	}()

	logging.Info("streaming", logging.Fields{
		"session": proc.Session(),
		"input":   sourceCfg.Input,
	})
	return proc.Run(ctx, samples)
}
