// Package config provides YAML configuration parsing for FeedPulse.
//
// This package enables running FeedPulse as a standalone binary with a
// configuration file, as an alternative to the programmatic SDK approach.
//
// Example configuration:
//
//	image_url: https://api.example.com/v1/streams/image
//	text_url: https://api.example.com/v1/streams/text
//
//	stall_threshold: 15s
//	check_interval: 5s
//	reconnect_delay: 4s
//
//	server:
//	  port: 8080
//
//	probe:
//	  address: 1.1.1.1:443
//	  interval: 10s
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// minCheckInterval is the minimum allowed stall-check granularity. This
// prevents accidental CPU thrash from an overly aggressive check loop.
const minCheckInterval = 1 * time.Second

// Config is the root configuration structure for FeedPulse.
//
// It maps directly to the YAML configuration file structure.
// Use [Load] or [Parse] to create a Config from YAML.
type Config struct {
	// ImageURL is the image feed's stream endpoint. Supports environment
	// variable substitution: ${VAR} or ${VAR:-default}.
	ImageURL string `yaml:"image_url"`

	// TextURL is the text feed's stream endpoint. Supports environment
	// variable substitution.
	TextURL string `yaml:"text_url"`

	// StallThreshold is how long a connected, visible feed may go without
	// an event before it is flagged stalled. Defaults to 15s.
	StallThreshold Duration `yaml:"stall_threshold"`

	// CheckInterval is the stall-check granularity. Defaults to 5s.
	CheckInterval Duration `yaml:"check_interval"`

	// ReconnectDelay is the wait before re-dialing after a transport
	// error. Defaults to 4s.
	ReconnectDelay Duration `yaml:"reconnect_delay"`

	// BufferCapacity bounds the pause buffer. Defaults to 100.
	BufferCapacity int `yaml:"buffer_capacity"`

	// DisplayLimit bounds the display list. Defaults to 50.
	DisplayLimit int `yaml:"display_limit"`

	// Server configures the optional HTTP observer. A zero port disables it.
	Server ServerConfig `yaml:"server"`

	// Probe configures network-loss detection. An empty address disables
	// probing, leaving the watcher to assume the network is always up.
	Probe ProbeConfig `yaml:"probe"`
}

// ServerConfig configures the HTTP observer surface.
type ServerConfig struct {
	// Port is the TCP port for /api/status and /api/sse. Zero disables
	// the server entirely.
	Port int `yaml:"port"`
}

// ProbeConfig configures the TCP reachability probe that stands in for the
// host's online/offline signal.
type ProbeConfig struct {
	// Address is the host:port dialed to judge connectivity.
	Address string `yaml:"address"`

	// Interval is the time between probes. Defaults to 10s.
	Interval Duration `yaml:"interval"`
}

// Duration wraps time.Duration for YAML unmarshalling.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}

	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}

	*d = Duration(parsed)
	return nil
}

// Duration returns the underlying time.Duration value.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// envVarPattern matches ${VAR} and ${VAR:-default} patterns.
// Group 1: variable name
// Group 2: the ":-default" part (if present, indicates a default was specified)
// Group 3: the default value (may be empty for ${VAR:-})
var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(:-([^}]*))?\}`)

// expandEnvVars replaces ${VAR} and ${VAR:-default} patterns with
// environment values.
func expandEnvVars(s string) (string, error) {
	var firstErr error

	result := envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		if firstErr != nil {
			return match
		}

		submatches := envVarPattern.FindStringSubmatch(match)
		if len(submatches) < 2 {
			return match
		}

		varName := submatches[1]
		hasDefault := len(submatches) > 2 && submatches[2] != ""
		defaultVal := ""
		if hasDefault && len(submatches) > 3 {
			defaultVal = submatches[3]
		}

		value, exists := os.LookupEnv(varName)
		if !exists {
			if hasDefault {
				return defaultVal
			}
			firstErr = fmt.Errorf("environment variable %q is not set", varName)
			return match
		}
		return value
	})

	if firstErr != nil {
		return "", firstErr
	}
	return result, nil
}

// Load reads and parses a YAML configuration file.
//
// Environment variables in the file are expanded before validation.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse parses YAML configuration data.
//
// Environment variables are expanded in the feed URLs and probe address.
// Defaults are applied for every tunable that is left unset.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if cfg.StallThreshold == 0 {
		cfg.StallThreshold = Duration(15 * time.Second)
	}
	if cfg.CheckInterval == 0 {
		cfg.CheckInterval = Duration(5 * time.Second)
	}
	if cfg.ReconnectDelay == 0 {
		cfg.ReconnectDelay = Duration(4 * time.Second)
	}
	if cfg.BufferCapacity == 0 {
		cfg.BufferCapacity = 100
	}
	if cfg.DisplayLimit == 0 {
		cfg.DisplayLimit = 50
	}
	if cfg.Probe.Interval == 0 {
		cfg.Probe.Interval = Duration(10 * time.Second)
	}

	if err := cfg.expandAndValidate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// expandAndValidate expands environment variables and validates the config.
func (c *Config) expandAndValidate() error {
	if c.ImageURL == "" && c.TextURL == "" {
		return errors.New("at least one of image_url or text_url must be set")
	}

	for name, field := range map[string]*string{
		"image_url": &c.ImageURL,
		"text_url":  &c.TextURL,
	} {
		if *field == "" {
			continue
		}
		expanded, err := expandEnvVars(*field)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		*field = expanded

		parsed, err := url.Parse(*field)
		if err != nil {
			return fmt.Errorf("%s: invalid url: %w", name, err)
		}
		if parsed.Scheme != "http" && parsed.Scheme != "https" {
			return fmt.Errorf("%s: url scheme must be http or https, got %q", name, parsed.Scheme)
		}
	}

	if c.CheckInterval.Duration() < minCheckInterval {
		return fmt.Errorf("check_interval must be at least %s, got %s",
			minCheckInterval, c.CheckInterval.Duration())
	}
	if c.StallThreshold.Duration() <= c.CheckInterval.Duration() {
		return fmt.Errorf("stall_threshold (%s) must exceed check_interval (%s)",
			c.StallThreshold.Duration(), c.CheckInterval.Duration())
	}
	if c.ReconnectDelay.Duration() <= 0 {
		return fmt.Errorf("reconnect_delay must be positive, got %s", c.ReconnectDelay.Duration())
	}
	if c.BufferCapacity < 1 {
		return fmt.Errorf("buffer_capacity must be at least 1, got %d", c.BufferCapacity)
	}
	if c.DisplayLimit < 1 {
		return fmt.Errorf("display_limit must be at least 1, got %d", c.DisplayLimit)
	}

	if c.Server.Port != 0 && (c.Server.Port < 1 || c.Server.Port > 65535) {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}

	if c.Probe.Address != "" {
		expanded, err := expandEnvVars(c.Probe.Address)
		if err != nil {
			return fmt.Errorf("probe.address: %w", err)
		}
		c.Probe.Address = expanded
		if c.Probe.Interval.Duration() < time.Second {
			return fmt.Errorf("probe.interval must be at least 1s, got %s", c.Probe.Interval.Duration())
		}
	}

	return nil
}

// Feeds returns the feed names that have a URL configured, in a stable
// order (image before text).
func (c *Config) Feeds() []string {
	var feeds []string
	if c.ImageURL != "" {
		feeds = append(feeds, "image")
	}
	if c.TextURL != "" {
		feeds = append(feeds, "text")
	}
	return feeds
}
