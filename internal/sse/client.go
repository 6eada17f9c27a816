// Package sse implements the production transport: a client for
// text/event-stream endpoints.
//
// The client is callback-shaped to match the watcher's connection-factory
// contract: Dial returns immediately, the HTTP request runs in a background
// goroutine, and the stream's lifecycle is reported through OnOpen,
// OnMessage, and OnError. The client never reconnects on its own; retry
// policy belongs to the caller.
package sse

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
)

const (
	// maxLineSize bounds a single stream line. Payloads here are JSON event
	// records, so 1MB is far beyond anything legitimate.
	maxLineSize = 1 << 20

	initialScanBuffer = 64 * 1024
)

// Callbacks receives connection lifecycle and data events.
type Callbacks struct {
	OnOpen    func()
	OnMessage func(data []byte)
	OnError   func(err error)
}

// Conn is a live event-stream connection created by [Dial].
type Conn struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Close aborts the connection. Safe to call from any goroutine, including
// from inside one of the connection's own callbacks, and idempotent. Close
// does not wait for the reader goroutine; callbacks racing with Close are
// the caller's to discard.
func (c *Conn) Close() {
	c.cancel()
}

// Done returns a channel closed when the reader goroutine has exited.
func (c *Conn) Done() <-chan struct{} {
	return c.done
}

type config struct {
	client *http.Client
	logger *slog.Logger
}

// Option configures a [Dial] call.
type Option func(*config)

// WithHTTPClient replaces the HTTP client. The default client carries no
// total timeout, since a timeout would sever a healthy long-lived stream.
func WithHTTPClient(hc *http.Client) Option {
	return func(cfg *config) {
		if hc != nil {
			cfg.client = hc
		}
	}
}

// WithLogger sets the logger for stream-level noise (skipped fields,
// oversized lines). Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *config) {
		if logger != nil {
			cfg.logger = logger
		}
	}
}

// Dial opens an event-stream connection to url and returns immediately.
//
// The connection attempt and all reads happen in a background goroutine.
// OnOpen fires once after a 200 response arrives; each decoded data frame
// fires OnMessage; any terminal condition (request failure, bad status,
// server close, read error) fires OnError exactly once. After Close, no
// terminal error is reported.
func Dial(url string, cb Callbacks, opts ...Option) *Conn {
	cfg := &config{
		client: &http.Client{},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &Conn{cancel: cancel, done: make(chan struct{})}
	go run(ctx, url, cb, cfg, c.done)
	return c
}

func run(ctx context.Context, url string, cb Callbacks, cfg *config, done chan<- struct{}) {
	defer close(done)

	fail := func(err error) {
		if ctx.Err() != nil {
			return
		}
		if cb.OnError != nil {
			cb.OnError(err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		fail(fmt.Errorf("building stream request: %w", err))
		return
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := cfg.client.Do(req)
	if err != nil {
		fail(fmt.Errorf("connecting to stream: %w", err))
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		fail(fmt.Errorf("unexpected status %d from event stream", resp.StatusCode))
		return
	}

	if cb.OnOpen != nil && ctx.Err() == nil {
		cb.OnOpen()
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, initialScanBuffer), maxLineSize)

	// data: lines accumulate until a blank line dispatches the frame
	var data []string
	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}
		line := scanner.Text()
		switch {
		case line == "":
			if len(data) > 0 {
				payload := strings.Join(data, "\n")
				data = data[:0]
				if cb.OnMessage != nil {
					cb.OnMessage([]byte(payload))
				}
			}
		case strings.HasPrefix(line, ":"):
			// comment / heartbeat
		case strings.HasPrefix(line, "data:"):
			data = append(data, strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " "))
		default:
			// event:, id:, retry: fields are not used by the feed protocol
			cfg.logger.Debug("ignoring stream field", "line", line)
		}
	}

	if ctx.Err() != nil {
		return
	}
	if err := scanner.Err(); err != nil {
		fail(fmt.Errorf("reading stream: %w", err))
		return
	}
	fail(errors.New("event stream closed by server"))
}
