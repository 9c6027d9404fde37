package main

import (
	"os"

	"github.com/rustyeddy/execbot/cmd/execbot/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
