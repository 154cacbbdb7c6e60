package main

import (
	"os"

	"github.com/chakri-sirigiri/go-statements-parser/internal/commands"
)

func main() {
	if err := commands.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
