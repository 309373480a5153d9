package main

import (
	"os"

	"github.com/abhisek/corpusgen/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
