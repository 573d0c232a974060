// Command armseq manages robotic-arm choreography projects.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/armseq/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
