package main

import (
	"os"

	"github.com/bidback/backend/cmd/bidback/commands"
)

// main is the entry point for the BIDBACK CLI.
// Unified entry: go run ./cmd/bidback [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
