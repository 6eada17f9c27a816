package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// executeValidateCmd runs the validate command with the given config path
// and returns captured stdout and any error.
func executeValidateCmd(t *testing.T, configPath string) (string, error) {
	t.Helper()

	// capture stdout
	old := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	// execute via root command with validate subcommand
	rootCmd.SetArgs([]string{"validate", "-c", configPath})
	err := rootCmd.Execute()

	// restore stdout
	_ = w.Close()
	os.Stdout = old
	var buf bytes.Buffer
	_, _ = buf.ReadFrom(r)

	return buf.String(), err
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}

func TestRunValidate_ValidConfig(t *testing.T) {
	configPath := writeConfig(t, `
image_url: https://api.example.com/v1/streams/image
text_url: https://api.example.com/v1/streams/text

server:
  port: 8080

probe:
  address: 1.1.1.1:443
  interval: 10s
`)

	output, err := executeValidateCmd(t, configPath)
	if err != nil {
		t.Fatalf("validate command error = %v", err)
	}

	expectedPhrases := []string{
		"Config is valid!",
		"image, text",
		"Stall threshold: 15s",
		"Check interval:  5s",
		"Reconnect delay: 4s",
		"port 8080",
		"1.1.1.1:443 every 10s",
	}
	for _, phrase := range expectedPhrases {
		if !strings.Contains(output, phrase) {
			t.Errorf("output missing %q, got:\n%s", phrase, output)
		}
	}
}

func TestRunValidate_DisabledExtras(t *testing.T) {
	configPath := writeConfig(t, `
text_url: https://api.example.com/v1/streams/text
`)

	output, err := executeValidateCmd(t, configPath)
	if err != nil {
		t.Fatalf("validate command error = %v", err)
	}
	if !strings.Contains(output, "Status server:   disabled") {
		t.Errorf("output missing disabled server line, got:\n%s", output)
	}
	if !strings.Contains(output, "Network probe:   disabled") {
		t.Errorf("output missing disabled probe line, got:\n%s", output)
	}
}

func TestRunValidate_InvalidConfig(t *testing.T) {
	configPath := writeConfig(t, `
image_url: ftp://example.com/stream
`)

	_, err := executeValidateCmd(t, configPath)
	if err == nil {
		t.Fatal("validate command error = nil, want error for bad scheme")
	}
	if !strings.Contains(err.Error(), "invalid config") {
		t.Errorf("error = %v, want invalid-config error", err)
	}
}

func TestRunValidate_MissingFile(t *testing.T) {
	_, err := executeValidateCmd(t, "/nonexistent/config.yaml")
	if err == nil {
		t.Fatal("validate command error = nil, want read error")
	}
}
