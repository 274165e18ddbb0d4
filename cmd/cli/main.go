// Package main - carecost CLI entry point
package main

import (
	"os"

	"carecost/cmd/cli/cmd"
	"carecost/internal/logging"
)

func main() {
	defer logging.Sync()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
