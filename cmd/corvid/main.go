// Command corvid is the corvid application server's CLI entrypoint.
package main

import (
	"os"

	"github.com/corvid-http/corvid/internal/cli/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
