package store

import (
	"testing"
	"time"
)

func testSnapshot(feed, status string) FeedSnapshot {
	return FeedSnapshot{
		Feed:      feed,
		Status:    status,
		Health:    "good",
		UpdatedAt: time.Now(),
	}
}

func TestMemoryStore_UpdateReplacesByFeed(t *testing.T) {
	s := NewMemoryStore()

	s.Update(testSnapshot("image", "connecting"))
	s.Update(testSnapshot("image", "connected"))

	all := s.GetAll()
	if len(all) != 1 {
		t.Fatalf("GetAll() = %d items, want 1", len(all))
	}
	if all[0].Status != "connected" {
		t.Errorf("GetAll()[0].Status = %q, want connected", all[0].Status)
	}
}

func TestMemoryStore_GetAllSortedByFeed(t *testing.T) {
	s := NewMemoryStore()

	s.Update(testSnapshot("text", "connected"))
	s.Update(testSnapshot("image", "connected"))

	all := s.GetAll()
	if len(all) != 2 {
		t.Fatalf("GetAll() = %d items, want 2", len(all))
	}
	if all[0].Feed != "image" || all[1].Feed != "text" {
		t.Errorf("GetAll() order = %q,%q, want image,text", all[0].Feed, all[1].Feed)
	}
}

func TestMemoryStore_SubscribeReceivesUpdates(t *testing.T) {
	s := NewMemoryStore()
	ch := s.Subscribe()
	defer s.Unsubscribe(ch)

	s.Update(testSnapshot("image", "connected"))

	select {
	case snap := <-ch:
		if snap.Feed != "image" || snap.Status != "connected" {
			t.Errorf("received %+v, want image/connected", snap)
		}
	case <-time.After(time.Second):
		t.Fatal("no update received")
	}
}

func TestMemoryStore_UnsubscribeClosesChannel(t *testing.T) {
	s := NewMemoryStore()
	ch := s.Subscribe()
	s.Unsubscribe(ch)
	s.Unsubscribe(ch) // unknown channel is a no-op

	if _, ok := <-ch; ok {
		t.Error("channel still open after Unsubscribe")
	}

	// updates after unsubscribe must not panic on the closed channel
	s.Update(testSnapshot("image", "connected"))
}

func TestMemoryStore_SlowSubscriberDropsUpdates(t *testing.T) {
	s := NewMemoryStore()
	ch := s.Subscribe()
	defer s.Unsubscribe(ch)

	// overflow the buffer without reading; Update must never block
	for i := 0; i < subscriberBuffer+10; i++ {
		s.Update(testSnapshot("image", "connected"))
	}

	if got := len(ch); got != subscriberBuffer {
		t.Errorf("buffered updates = %d, want %d", got, subscriberBuffer)
	}
}
