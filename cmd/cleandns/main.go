// SPDX-License-Identifier: GPL-3.0-or-later

// Command cleandns runs the DNS forwarder described by a YAML pipeline
// document, and offline-compiles v2fly geosite source directories into the
// wire format the geosite plugin consumes.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	// Blank-imported so every plugin type's init() registers its
	// constructor before a document is ever built.
	_ "github.com/tigerzhang/clean-dns/internal/cache"
	_ "github.com/tigerzhang/clean-dns/internal/forwarder"
	_ "github.com/tigerzhang/clean-dns/internal/geosite"
	_ "github.com/tigerzhang/clean-dns/internal/plugins"
	_ "github.com/tigerzhang/clean-dns/internal/providers"
)

var rootCmd = &cobra.Command{
	Use:   "cleandns",
	Short: "Programmable DNS forwarder",
	// Bare invocation (no subcommand) starts the server, matching the
	// original's `None => run_server(args.config)` default.
	RunE: runRun,
}

func init() {
	rootCmd.Flags().String("config", "config.yaml", "path to the pipeline configuration document")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
