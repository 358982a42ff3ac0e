package main

import (
	"fmt"
	"os"

	"github.com/ppiankov/needscore/internal/cli"
	"github.com/ppiankov/needscore/internal/model"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if model.IsInputError(err) || cli.IsUsageError(err) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}
