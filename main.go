package main

import (
	"os"

	"github.com/rtzll/readtube/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
