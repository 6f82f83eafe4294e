package main

import (
	"os"

	"github.com/nino-go/nino/internal/cli/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
