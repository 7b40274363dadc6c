// Package main is the logdetective command.
package main

import (
	"os"

	"github.com/mydoor3520/log-detective/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
