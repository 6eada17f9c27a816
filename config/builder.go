package config

import (
	"github.com/mholden/feedpulse"
)

// BuildOptions converts parsed configuration into SDK watcher options.
//
// The returned options cover feed URLs and all tunables; transport and
// monitor wiring stays with the caller, which knows whether it wants the
// real SSE dialer and a network probe or injected fakes.
func BuildOptions(cfg *Config) []feedpulse.Option {
	opts := []feedpulse.Option{
		feedpulse.WithStallThreshold(cfg.StallThreshold.Duration()),
		feedpulse.WithCheckInterval(cfg.CheckInterval.Duration()),
		feedpulse.WithReconnectDelay(cfg.ReconnectDelay.Duration()),
		feedpulse.WithBufferCapacity(cfg.BufferCapacity),
		feedpulse.WithDisplayLimit(cfg.DisplayLimit),
	}

	if cfg.ImageURL != "" {
		opts = append(opts, feedpulse.WithFeedURL(feedpulse.FeedImage, cfg.ImageURL))
	}
	if cfg.TextURL != "" {
		opts = append(opts, feedpulse.WithFeedURL(feedpulse.FeedText, cfg.TextURL))
	}

	return opts
}

// BuildFeeds returns the feed types that have a URL configured.
func BuildFeeds(cfg *Config) []feedpulse.FeedType {
	var feeds []feedpulse.FeedType
	if cfg.ImageURL != "" {
		feeds = append(feeds, feedpulse.FeedImage)
	}
	if cfg.TextURL != "" {
		feeds = append(feeds, feedpulse.FeedText)
	}
	return feeds
}
