package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ianlintner/instrument-to-midi/midi"
)

func init() {
	rootCmd.AddCommand(listPortsCmd)
}

var listPortsCmd = &cobra.Command{
	Use:   "list-ports",
	Short: "List available MIDI output ports",
	RunE: func(cmd *cobra.Command, args []string) error {
		ports, err := midi.ListPorts()
		if err != nil {
			return err
		}
		if len(ports) == 0 {
			fmt.Println("No MIDI output ports found.")
			return nil
		}
		for i, name := range ports {
			fmt.Printf("%d: %s\n", i, name)
		}
		return nil
	},
}
