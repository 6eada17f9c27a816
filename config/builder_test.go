package config

import (
	"testing"
	"time"

	"github.com/mholden/feedpulse"
)

func TestBuildOptions_ProducesWorkingWatcher(t *testing.T) {
	cfg, err := Parse([]byte(`
image_url: https://example.com/streams/image
text_url: https://example.com/streams/text
stall_threshold: 30s
check_interval: 10s
`))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	w, err := feedpulse.New(BuildOptions(cfg)...)
	if err != nil {
		t.Fatalf("New() with built options error = %v", err)
	}
	defer w.Shutdown()

	// both configured feeds must be startable (a missing URL would error)
	dialer := func(string, feedpulse.Callbacks) feedpulse.Conn { return nil }
	w2, err := feedpulse.New(append(BuildOptions(cfg), feedpulse.WithDialer(dialer))...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer w2.Shutdown()
	for _, feed := range BuildFeeds(cfg) {
		if err := w2.Start(feed); err != nil {
			t.Errorf("Start(%s) error = %v", feed, err)
		}
	}
}

func TestBuildOptions_RejectsOutOfRangeTuning(t *testing.T) {
	// bypass Parse validation to prove the SDK validates independently
	cfg := &Config{
		ImageURL:       "https://example.com/streams/image",
		StallThreshold: Duration(-time.Second),
		CheckInterval:  Duration(5 * time.Second),
		ReconnectDelay: Duration(4 * time.Second),
		BufferCapacity: 100,
		DisplayLimit:   50,
	}
	if _, err := feedpulse.New(BuildOptions(cfg)...); err == nil {
		t.Error("New() error = nil, want validation error for negative threshold")
	}
}

func TestBuildFeeds(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want []feedpulse.FeedType
	}{
		{
			name: "both feeds",
			cfg:  Config{ImageURL: "https://e/i", TextURL: "https://e/t"},
			want: []feedpulse.FeedType{feedpulse.FeedImage, feedpulse.FeedText},
		},
		{
			name: "image only",
			cfg:  Config{ImageURL: "https://e/i"},
			want: []feedpulse.FeedType{feedpulse.FeedImage},
		},
		{
			name: "text only",
			cfg:  Config{TextURL: "https://e/t"},
			want: []feedpulse.FeedType{feedpulse.FeedText},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BuildFeeds(&tt.cfg)
			if len(got) != len(tt.want) {
				t.Fatalf("BuildFeeds() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("BuildFeeds()[%d] = %v, want %v", i, got[i], tt.want[i])
				}
			}
		})
	}
}
