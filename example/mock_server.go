package main

import (
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"time"
)

// prompts cycled by the mock feed server.
var prompts = []string{
	"aurora over a glacier lake",
	"neon city in the rain",
	"desert dunes at golden hour",
	"forest canopy from below",
}

// StartMockFeedServer runs a mock SSE endpoint that emits one wallpaper
// event every interval on /streams/image and one text event on
// /streams/text. Call this in a goroutine before starting the watcher.
func StartMockFeedServer(addr string, interval time.Duration) {
	emit := func(w http.ResponseWriter, r *http.Request, payload func(i int) string) {
		flusher, ok := w.(http.Flusher)
		if !ok {
			http.Error(w, "streaming unsupported", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		flusher.Flush()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for i := 0; ; i++ {
			select {
			case <-r.Context().Done():
				return
			case <-ticker.C:
				fmt.Fprintf(w, "data: %s\n\n", payload(i))
				flusher.Flush()
			}
		}
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/streams/image", func(w http.ResponseWriter, r *http.Request) {
		emit(w, r, func(i int) string {
			prompt := prompts[i%len(prompts)]
			return fmt.Sprintf(
				`{"prompt":%q,"imageUrl":"https://img.example.com/%d.png","model":"flux","width":1024,"height":1536,"seed":%d}`,
				prompt, i, rand.Int63())
		})
	})
	mux.HandleFunc("/streams/text", func(w http.ResponseWriter, r *http.Request) {
		emit(w, r, func(i int) string {
			prompt := prompts[i%len(prompts)]
			return fmt.Sprintf(`{"prompt":%q,"text":"a wallpaper of %s"}`, prompt, prompt)
		})
	})

	if err := http.ListenAndServe(addr, mux); err != nil {
		slog.Error("mock feed server failed", "error", err)
	}
}
