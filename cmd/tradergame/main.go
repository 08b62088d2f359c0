package main

import (
	"os"

	"github.com/rustyeddy/tradergame/cmd/tradergame/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
