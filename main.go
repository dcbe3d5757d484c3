package main

import (
	"os"

	"github.com/silencecut/silencecut/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
