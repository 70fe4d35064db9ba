package main

import (
	"os"

	"github.com/wonny/vnequity/cmd/vnequity/commands"
)

// main is the entry point for the vnequity CLI
// ⭐ 통합 CLI 진입점: go run ./cmd/vnequity [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
