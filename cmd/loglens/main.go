// Package main is the entry point for the loglens CLI.
//
// The loglens binary runs LogLens searches from the terminal and streams the
// matching events to stdout as NDJSON. Connection settings come from flags,
// LOGLENS_* environment variables, or a YAML config file.
//
// Usage:
//
//	loglens search '#level=ERROR' -r web   # run a search
//	loglens status                         # check server health
//	loglens version                        # show version info
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/loglens/loglens-go"
)

// Version information - set by GoReleaser at build time via ldflags.
// Example: go build -ldflags "-X main.version=1.0.0"
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// rootCmd is the base command when called without subcommands.
// It just displays help - actual functionality is in subcommands.
var rootCmd = &cobra.Command{
	Use:   "loglens",
	Short: "Query LogLens from the command line",
	Long: `loglens runs searches against a LogLens server and streams the
results to stdout as NDJSON, one event per line.

A search runs as a server-side query job: the CLI submits the query,
polls the job at the pace the server requests, and prints events as
they arrive. Progress goes to stderr, so stdout stays clean for piping
into jq or other tools.

Quick start:
  1. export LOGLENS_ADDRESS=https://logs.example.com
  2. export LOGLENS_TOKEN=<your api token>
  3. loglens search '#level=ERROR | tail(200)' -r web

Example config:
  address: https://logs.example.com
  token: ${LOGLENS_TOKEN}
  repository: web`,
	// No Run/RunE means this just shows help when called without subcommands
}

// Execute runs the root command.
// This is the main entry point called from main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		// Cobra already prints the error, just exit with code 1
		os.Exit(1)
	}
}

func main() {
	Execute()
}

// versionCmd prints version information.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Print the version, commit hash, and build date of this loglens binary.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("loglens %s\n", version)
		fmt.Printf("  commit: %s\n", commit)
		fmt.Printf("  built:  %s\n", date)
		fmt.Printf("  sdk:    %s\n", loglens.Version)
	},
}

func init() {
	// Register subcommands with root
	rootCmd.AddCommand(versionCmd)
}
