package sse

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// recorder collects everything the connection reports.
type recorder struct {
	mu       sync.Mutex
	opened   bool
	messages []string
	errs     []error
}

func (r *recorder) callbacks() Callbacks {
	return Callbacks{
		OnOpen: func() {
			r.mu.Lock()
			r.opened = true
			r.mu.Unlock()
		},
		OnMessage: func(data []byte) {
			r.mu.Lock()
			r.messages = append(r.messages, string(data))
			r.mu.Unlock()
		},
		OnError: func(err error) {
			r.mu.Lock()
			r.errs = append(r.errs, err)
			r.mu.Unlock()
		},
	}
}

func (r *recorder) snapshot() (opened bool, messages []string, errs []error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.opened, append([]string(nil), r.messages...), append([]error(nil), r.errs...)
}

func (r *recorder) waitMessages(t *testing.T, n int) []string {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		_, msgs, _ := r.snapshot()
		if len(msgs) >= n {
			return msgs
		}
		time.Sleep(5 * time.Millisecond)
	}
	_, msgs, _ := r.snapshot()
	t.Fatalf("got %d messages before timeout, want %d", len(msgs), n)
	return nil
}

func (r *recorder) waitError(t *testing.T) error {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if _, _, errs := r.snapshot(); len(errs) > 0 {
			return errs[0]
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("no error before timeout")
	return nil
}

// streamServer serves a fixed event-stream body and then closes.
func streamServer(t *testing.T, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Accept"); got != "text/event-stream" {
			t.Errorf("Accept header = %q, want text/event-stream", got)
		}
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestDial_DeliversDataFrames(t *testing.T) {
	srv := streamServer(t, "data: {\"prompt\":\"A\"}\n\ndata: {\"prompt\":\"B\"}\n\n")

	rec := &recorder{}
	conn := Dial(srv.URL, rec.callbacks(), WithLogger(testLogger()))
	defer conn.Close()

	msgs := rec.waitMessages(t, 2)
	if msgs[0] != `{"prompt":"A"}` || msgs[1] != `{"prompt":"B"}` {
		t.Errorf("messages = %v, want the two decoded payloads", msgs)
	}
	opened, _, _ := rec.snapshot()
	if !opened {
		t.Error("OnOpen never fired")
	}
}

func TestDial_JoinsMultiLineData(t *testing.T) {
	srv := streamServer(t, "data: line one\ndata: line two\n\n")

	rec := &recorder{}
	conn := Dial(srv.URL, rec.callbacks(), WithLogger(testLogger()))
	defer conn.Close()

	msgs := rec.waitMessages(t, 1)
	if msgs[0] != "line one\nline two" {
		t.Errorf("message = %q, want joined data lines", msgs[0])
	}
}

func TestDial_SkipsCommentsAndUnknownFields(t *testing.T) {
	srv := streamServer(t, ": heartbeat\nevent: wallpaper\nid: 7\ndata: payload\n\n")

	rec := &recorder{}
	conn := Dial(srv.URL, rec.callbacks(), WithLogger(testLogger()))
	defer conn.Close()

	msgs := rec.waitMessages(t, 1)
	if msgs[0] != "payload" {
		t.Errorf("message = %q, want %q", msgs[0], "payload")
	}
}

func TestDial_HandlesMissingSpaceAfterColon(t *testing.T) {
	srv := streamServer(t, "data:tight\n\n")

	rec := &recorder{}
	conn := Dial(srv.URL, rec.callbacks(), WithLogger(testLogger()))
	defer conn.Close()

	msgs := rec.waitMessages(t, 1)
	if msgs[0] != "tight" {
		t.Errorf("message = %q, want %q", msgs[0], "tight")
	}
}

func TestDial_ServerCloseReportsError(t *testing.T) {
	srv := streamServer(t, "data: only\n\n")

	rec := &recorder{}
	conn := Dial(srv.URL, rec.callbacks(), WithLogger(testLogger()))
	defer conn.Close()

	err := rec.waitError(t)
	if !strings.Contains(err.Error(), "closed by server") {
		t.Errorf("error = %v, want stream-closed error", err)
	}
}

func TestDial_NonOKStatusReportsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not here", http.StatusNotFound)
	}))
	t.Cleanup(srv.Close)

	rec := &recorder{}
	conn := Dial(srv.URL, rec.callbacks(), WithLogger(testLogger()))
	defer conn.Close()

	err := rec.waitError(t)
	if !strings.Contains(err.Error(), "404") {
		t.Errorf("error = %v, want status error", err)
	}
	if opened, _, _ := rec.snapshot(); opened {
		t.Error("OnOpen fired for a non-200 response")
	}
}

func TestDial_UnreachableServerReportsError(t *testing.T) {
	rec := &recorder{}
	conn := Dial("http://127.0.0.1:1/stream", rec.callbacks(), WithLogger(testLogger()))
	defer conn.Close()

	err := rec.waitError(t)
	if !strings.Contains(err.Error(), "connecting to stream") {
		t.Errorf("error = %v, want connect error", err)
	}
}

func TestConn_CloseSuppressesTerminalError(t *testing.T) {
	// server that never sends anything and holds the stream open
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.(http.Flusher).Flush()
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(func() { close(release); srv.Close() })

	rec := &recorder{}
	conn := Dial(srv.URL, rec.callbacks(), WithLogger(testLogger()))

	// wait for the stream to open, then abort it locally
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if opened, _, _ := rec.snapshot(); opened {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	conn.Close()
	conn.Close() // idempotent

	select {
	case <-conn.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("reader goroutine did not exit after Close")
	}
	if _, _, errs := rec.snapshot(); len(errs) != 0 {
		t.Errorf("errors after local Close = %v, want none", errs)
	}
}
