// Package main is the entry point for the curator CLI.
package main

import (
	"os"

	"github.com/curator-io/curator/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
