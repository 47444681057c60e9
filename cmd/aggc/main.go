// Command aggc compiles and runs aggregation requests.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/aggc/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
