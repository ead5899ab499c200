package main

import (
	"os"

	"github.com/meenmo/capvol/cmd/capcalib/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
