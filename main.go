package main

import (
	"os"

	"github.com/spigell/peanuts-cli/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
