package main

import (
	"os"

	"github.com/sessionlog/claude-timeline/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
