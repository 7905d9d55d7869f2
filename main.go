// Package main is the wtracker command line entry point.
package main

import (
	"fmt"
	"os"

	"github.com/tphakala/wtracker/cmd"
	"github.com/tphakala/wtracker/internal/conf"
	"github.com/tphakala/wtracker/internal/runtime"
)

// Version information (can be set via ldflags during build)
var (
	version   = "dev"
	buildDate = ""
)

func main() {
	settings, err := conf.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	rootCmd := cmd.RootCommand(settings, runtime.BuildInfo{Version: version, BuildDate: buildDate})
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
