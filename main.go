package main

import (
	"os"

	"github.com/campops/campops/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
