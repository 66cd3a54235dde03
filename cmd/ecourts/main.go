package main

import (
	"fmt"
	"os"

	"ecourts-fetcher-be/internal/cli"

	"github.com/fatih/color"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("Error: %v", err))
		os.Exit(cli.GetExitCode(err))
	}
}
