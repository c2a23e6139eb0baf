package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ianlintner/instrument-to-midi/config"
)

func init() {
	rootCmd.AddCommand(generateConfigCmd)
}

var generateConfigCmd = &cobra.Command{
	Use:   "generate-config [path]",
	Short: "Write a config file populated with the defaults",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := "instrument-to-midi.json"
		if len(args) == 1 {
			path = args[0]
		}
		if err := config.Default().ToFile(path); err != nil {
			return err
		}
		fmt.Printf("Wrote default config to %s\n", path)
		return nil
	},
}
