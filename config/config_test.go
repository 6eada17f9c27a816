package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestParse_MinimalConfig(t *testing.T) {
	yaml := `
image_url: https://api.example.com/v1/streams/image
`
	cfg, err := Parse([]byte(yaml))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	// check defaults applied
	if cfg.StallThreshold.Duration() != 15*time.Second {
		t.Errorf("StallThreshold = %v, want 15s", cfg.StallThreshold.Duration())
	}
	if cfg.CheckInterval.Duration() != 5*time.Second {
		t.Errorf("CheckInterval = %v, want 5s", cfg.CheckInterval.Duration())
	}
	if cfg.ReconnectDelay.Duration() != 4*time.Second {
		t.Errorf("ReconnectDelay = %v, want 4s", cfg.ReconnectDelay.Duration())
	}
	if cfg.BufferCapacity != 100 {
		t.Errorf("BufferCapacity = %d, want 100", cfg.BufferCapacity)
	}
	if cfg.DisplayLimit != 50 {
		t.Errorf("DisplayLimit = %d, want 50", cfg.DisplayLimit)
	}
	if cfg.Server.Port != 0 {
		t.Errorf("Server.Port = %d, want 0 (disabled)", cfg.Server.Port)
	}
}

func TestParse_FullConfig(t *testing.T) {
	yaml := `
image_url: https://api.example.com/v1/streams/image
text_url: https://api.example.com/v1/streams/text

stall_threshold: 30s
check_interval: 10s
reconnect_delay: 2s
buffer_capacity: 25
display_limit: 10

server:
  port: 9090

probe:
  address: 1.1.1.1:443
  interval: 20s
`
	cfg, err := Parse([]byte(yaml))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if cfg.ImageURL != "https://api.example.com/v1/streams/image" {
		t.Errorf("ImageURL = %q", cfg.ImageURL)
	}
	if cfg.TextURL != "https://api.example.com/v1/streams/text" {
		t.Errorf("TextURL = %q", cfg.TextURL)
	}
	if cfg.StallThreshold.Duration() != 30*time.Second {
		t.Errorf("StallThreshold = %v, want 30s", cfg.StallThreshold.Duration())
	}
	if cfg.CheckInterval.Duration() != 10*time.Second {
		t.Errorf("CheckInterval = %v, want 10s", cfg.CheckInterval.Duration())
	}
	if cfg.ReconnectDelay.Duration() != 2*time.Second {
		t.Errorf("ReconnectDelay = %v, want 2s", cfg.ReconnectDelay.Duration())
	}
	if cfg.BufferCapacity != 25 || cfg.DisplayLimit != 10 {
		t.Errorf("capacities = %d/%d, want 25/10", cfg.BufferCapacity, cfg.DisplayLimit)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Probe.Address != "1.1.1.1:443" {
		t.Errorf("Probe.Address = %q, want 1.1.1.1:443", cfg.Probe.Address)
	}
	if cfg.Probe.Interval.Duration() != 20*time.Second {
		t.Errorf("Probe.Interval = %v, want 20s", cfg.Probe.Interval.Duration())
	}
}

func TestParse_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "no feed urls",
			yaml:    `check_interval: 5s`,
			wantErr: "at least one of image_url or text_url",
		},
		{
			name:    "bad url scheme",
			yaml:    `image_url: ftp://example.com/stream`,
			wantErr: "scheme must be http or https",
		},
		{
			name: "check interval too small",
			yaml: `
image_url: https://example.com/stream
check_interval: 500ms
`,
			wantErr: "check_interval must be at least",
		},
		{
			name: "stall threshold not above check interval",
			yaml: `
image_url: https://example.com/stream
stall_threshold: 5s
check_interval: 5s
`,
			wantErr: "stall_threshold",
		},
		{
			name: "buffer capacity below one",
			yaml: `
image_url: https://example.com/stream
buffer_capacity: -1
`,
			wantErr: "buffer_capacity",
		},
		{
			name: "display limit below one",
			yaml: `
image_url: https://example.com/stream
display_limit: -3
`,
			wantErr: "display_limit",
		},
		{
			name: "port out of range",
			yaml: `
image_url: https://example.com/stream
server:
  port: 70000
`,
			wantErr: "server.port",
		},
		{
			name: "probe interval too small",
			yaml: `
image_url: https://example.com/stream
probe:
  address: 1.1.1.1:443
  interval: 100ms
`,
			wantErr: "probe.interval",
		},
		{
			name:    "invalid duration",
			yaml:    `stall_threshold: soon`,
			wantErr: "invalid duration",
		},
		{
			name:    "not yaml",
			yaml:    `{{{`,
			wantErr: "failed to parse YAML",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			if err == nil {
				t.Fatalf("Parse() error = nil, want %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Parse() error = %q, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestParse_EnvVarExpansion(t *testing.T) {
	t.Setenv("FEED_HOST", "feeds.example.com")

	yaml := `
image_url: https://${FEED_HOST}/v1/streams/image
text_url: https://${MISSING_HOST:-fallback.example.com}/v1/streams/text
probe:
  address: ${PROBE_ADDR:-1.1.1.1:443}
`
	cfg, err := Parse([]byte(yaml))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if cfg.ImageURL != "https://feeds.example.com/v1/streams/image" {
		t.Errorf("ImageURL = %q, want expanded host", cfg.ImageURL)
	}
	if cfg.TextURL != "https://fallback.example.com/v1/streams/text" {
		t.Errorf("TextURL = %q, want default applied", cfg.TextURL)
	}
	if cfg.Probe.Address != "1.1.1.1:443" {
		t.Errorf("Probe.Address = %q, want default applied", cfg.Probe.Address)
	}
}

func TestParse_MissingEnvVarWithoutDefault(t *testing.T) {
	yaml := `
image_url: https://${DEFINITELY_NOT_SET_ANYWHERE}/stream
`
	_, err := Parse([]byte(yaml))
	if err == nil {
		t.Fatal("Parse() error = nil, want missing-variable error")
	}
	if !strings.Contains(err.Error(), "DEFINITELY_NOT_SET_ANYWHERE") {
		t.Errorf("Parse() error = %q, want it to name the variable", err)
	}
}

func TestLoad_ReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "feedpulse.yaml")
	content := `image_url: https://example.com/streams/image`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing temp config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.ImageURL != "https://example.com/streams/image" {
		t.Errorf("ImageURL = %q", cfg.ImageURL)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/feedpulse.yaml"); err == nil {
		t.Error("Load() error = nil, want read error")
	}
}

func TestFeeds_StableOrder(t *testing.T) {
	cfg := &Config{TextURL: "https://example.com/t", ImageURL: "https://example.com/i"}
	feeds := cfg.Feeds()
	if len(feeds) != 2 || feeds[0] != "image" || feeds[1] != "text" {
		t.Errorf("Feeds() = %v, want [image text]", feeds)
	}

	cfg = &Config{TextURL: "https://example.com/t"}
	feeds = cfg.Feeds()
	if len(feeds) != 1 || feeds[0] != "text" {
		t.Errorf("Feeds() = %v, want [text]", feeds)
	}
}
