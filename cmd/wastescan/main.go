// Command wastescan is the CLI entry point for the cloud waste detection
// engine.
package main

import (
	"fmt"
	"os"

	"github.com/wastescan/detector/cmd/wastescan/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
