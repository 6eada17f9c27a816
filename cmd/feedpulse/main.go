// Package main is the entry point for the feedpulse CLI.
//
// FeedPulse can be run either as a library (SDK) or as a standalone binary
// with YAML configuration. This CLI provides the standalone binary approach.
//
// Usage:
//
//	feedpulse watch -c config.yaml    # Watch the configured feeds
//	feedpulse validate -c config.yaml # Validate configuration
//	feedpulse version                 # Show version info
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
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
	Use:   "feedpulse",
	Short: "A realtime feed watcher with health monitoring",
	Long: `FeedPulse ingests live server-push (SSE) event feeds and monitors
their health: stalls, transport errors, and network loss all become
observable per-feed state instead of failures.

Quick start:
  1. Create a config file (feedpulse.yaml)
  2. Run: feedpulse watch -c feedpulse.yaml
  3. Optionally open http://localhost:<port>/api/status

Example config:
  image_url: https://api.example.com/v1/streams/image
  text_url: https://api.example.com/v1/streams/text
  server:
    port: 8080`,
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
	Long:  `Print the version, commit hash, and build date of this feedpulse binary.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("feedpulse %s\n", version)
		fmt.Printf("  commit: %s\n", commit)
		fmt.Printf("  built:  %s\n", date)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
