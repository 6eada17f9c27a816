package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mholden/feedpulse/config"
)

// validateCmd validates a config file without starting the watcher.
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a config file",
	Long: `Validate a FeedPulse configuration file without starting the watcher.

This command parses the YAML, expands environment variables, and validates
all fields. It's useful for CI/CD pipelines or pre-deployment checks.

Exit codes:
  0 - Config is valid
  1 - Config is invalid (error details printed to stderr)

Example:
  feedpulse validate -c config.yaml
  feedpulse validate --config /etc/feedpulse/config.yaml`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringP("config", "c", "", "path to config file (required)")
	_ = validateCmd.MarkFlagRequired("config")
}

func runValidate(cmd *cobra.Command, args []string) error {
	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	serverState := "disabled"
	if cfg.Server.Port != 0 {
		serverState = fmt.Sprintf("port %d", cfg.Server.Port)
	}
	probeState := "disabled"
	if cfg.Probe.Address != "" {
		probeState = fmt.Sprintf("%s every %s", cfg.Probe.Address, cfg.Probe.Interval.Duration())
	}

	fmt.Printf("Config is valid!\n")
	fmt.Printf("  Feeds:           %s\n", strings.Join(cfg.Feeds(), ", "))
	fmt.Printf("  Stall threshold: %s\n", cfg.StallThreshold.Duration())
	fmt.Printf("  Check interval:  %s\n", cfg.CheckInterval.Duration())
	fmt.Printf("  Reconnect delay: %s\n", cfg.ReconnectDelay.Duration())
	fmt.Printf("  Status server:   %s\n", serverState)
	fmt.Printf("  Network probe:   %s\n", probeState)

	return nil
}
