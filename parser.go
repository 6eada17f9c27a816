package feedpulse

import (
	"errors"
	"fmt"

	jsoniter "github.com/json-iterator/go"
)

// eventJSON is the payload decoder for the message hot path. The config
// matches encoding/json semantics so wire compatibility is unaffected.
var eventJSON = jsoniter.ConfigCompatibleWithStandardLibrary

// wireEvent is the raw JSON shape shared by both feed payloads.
type wireEvent struct {
	Prompt   string `json:"prompt"`
	ImageURL string `json:"imageUrl"`
	Model    string `json:"model"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	Seed     *int64 `json:"seed"`
	Text     string `json:"text"`
}

// parseEvent decodes a raw message payload into an [Event] and validates the
// fields the given feed requires. A non-nil error marks the payload as
// malformed; the caller counts it as dropped and the connection stays up.
func parseEvent(feed FeedType, data []byte) (Event, error) {
	var w wireEvent
	if err := eventJSON.Unmarshal(data, &w); err != nil {
		return Event{}, fmt.Errorf("malformed payload: %w", err)
	}

	ev := Event{
		Prompt:   w.Prompt,
		ImageURL: w.ImageURL,
		Model:    w.Model,
		Width:    w.Width,
		Height:   w.Height,
		Text:     w.Text,
	}
	if w.Seed != nil {
		ev.Seed = *w.Seed
		ev.HasSeed = true
	}

	switch feed {
	case FeedImage:
		if ev.Prompt == "" {
			return Event{}, errors.New("image event missing prompt")
		}
		if ev.ImageURL == "" {
			return Event{}, errors.New("image event missing imageUrl")
		}
		if ev.Model == "" {
			return Event{}, errors.New("image event missing model")
		}
		if ev.Width <= 0 || ev.Height <= 0 {
			return Event{}, fmt.Errorf("image event has invalid dimensions %dx%d", ev.Width, ev.Height)
		}
	case FeedText:
		if ev.Prompt == "" {
			return Event{}, errors.New("text event missing prompt")
		}
		if ev.Text == "" {
			return Event{}, errors.New("text event missing text")
		}
	default:
		return Event{}, fmt.Errorf("unknown feed type %q", feed)
	}

	return ev, nil
}
