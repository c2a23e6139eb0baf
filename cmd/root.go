// Package cmd defines the command line interface.
package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "instrument-to-midi",
	Short: "Convert live instrument audio to MIDI",
	Long: `instrument-to-midi listens to an instrument, estimates the notes
being played, and emits them as MIDI events in real time. Performances can
be recorded to a standard MIDI file and monitored from a browser.`,
}

// Execute runs the CLI.
func Execute() {
	cobra.CheckErr(rootCmd.Execute())
}
