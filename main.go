package main

import "github.com/ianlintner/instrument-to-midi/cmd"

func main() {
	cmd.Execute()
}
