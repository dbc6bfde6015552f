// Package main is the relalg command.
package main

import (
	"os"

	"github.com/leapstack-labs/relalg/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
