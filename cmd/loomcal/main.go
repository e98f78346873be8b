// Command loomcal compiles chat commands into event store queries and runs
// them.
package main

import (
	"fmt"
	"os"

	"github.com/Enfiniq/loomcal-sub000/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(cli.GetExitCode(err))
	}
}
