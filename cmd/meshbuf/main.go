package main

import (
	"os"

	"github.com/Carmen-Shannon/oxy-mesh/cmd/meshbuf/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
