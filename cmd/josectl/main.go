// Package main provides the entry point for josectl.
//
// josectl issues and inspects compact JOSE tokens using the same
// configuration file and JOSE_ environment variables as the library.
package main

import (
	"fmt"
	"os"

	"github.com/cybergodev/jose/internal/cli/command"
)

func main() {
	app := command.App()

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
