package telemetry

import (
	"testing"
	"time"
)

func TestHubPublishSubscribe(t *testing.T) {
	hub := NewHub()
	defer hub.Close()

	ch, unsubscribe := hub.Subscribe()
	defer unsubscribe()

	hub.Publish(Event{Type: EventVisitStarted, VisitID: "v1", Location: "https://example.com/a"})

	select {
	case event := <-ch:
		if event.Type != EventVisitStarted {
			t.Errorf("expected %s, got %s", EventVisitStarted, event.Type)
		}
		if event.VisitID != "v1" {
			t.Errorf("expected visit id v1, got %q", event.VisitID)
		}
		if event.Timestamp.IsZero() {
			t.Error("expected timestamp to be stamped on publish")
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for event")
	}
}

func TestHubUnsubscribeStopsDelivery(t *testing.T) {
	hub := NewHub()
	defer hub.Close()

	ch, unsubscribe := hub.Subscribe()
	unsubscribe()

	hub.Publish(Event{Type: EventVisitCompleted})

	if _, ok := <-ch; ok {
		t.Error("expected channel to be closed after unsubscribe")
	}
}

func TestHubPublishAfterCloseIsNoop(t *testing.T) {
	hub := NewHub()
	ch, _ := hub.Subscribe()
	hub.Close()

	hub.Publish(Event{Type: EventVisitFailed})

	if _, ok := <-ch; ok {
		t.Error("expected subscriber channel closed after hub close")
	}
}

func TestHubDropsWhenSubscriberFull(t *testing.T) {
	hub := NewHub()
	defer hub.Close()

	_, unsubscribe := hub.Subscribe()
	defer unsubscribe()

	// Buffer is 64; publishing more must not block.
	done := make(chan struct{})
	go func() {
		for i := 0; i < 200; i++ {
			hub.Publish(Event{Type: EventVisitRendered})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publish blocked on a slow subscriber")
	}
}
