package events

import (
	"testing"
	"time"
)

func TestSubscribeReceivesMatchingType(t *testing.T) {
	bus := NewEventBus()

	received := make(chan Event, 1)
	bus.Subscribe(EventScanMatch, func(e Event) { received <- e })

	bus.PublishScanMatch("scan-1", "AAPL", "gap_up", 0.9, 52.5)

	select {
	case event := <-received:
		if event.ScanID != "scan-1" || event.Data["symbol"] != "AAPL" {
			t.Errorf("Unexpected event payload: %+v", event)
		}
		if event.Timestamp.IsZero() {
			t.Error("Publish should stamp a timestamp")
		}
	case <-time.After(time.Second):
		t.Fatal("Timed out waiting for subscriber delivery")
	}
}

func TestSubscriberDoesNotReceiveOtherTypes(t *testing.T) {
	bus := NewEventBus()

	received := make(chan Event, 1)
	bus.Subscribe(EventScanMatch, func(e Event) { received <- e })

	bus.PublishScanError("scan-1", "AAPL", "no data")

	select {
	case event := <-received:
		t.Errorf("MATCH subscriber should not receive %s events", event.Type)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSubscribeAllReceivesEverything(t *testing.T) {
	bus := NewEventBus()

	received := make(chan Event, 4)
	bus.SubscribeAll(func(e Event) { received <- e })

	bus.PublishScanStarted("scan-1", "gap_up", 50)
	bus.PublishScanComplete("scan-1", 3, 50, 2*time.Second)

	types := map[EventType]bool{}
	for i := 0; i < 2; i++ {
		select {
		case event := <-received:
			types[event.Type] = true
		case <-time.After(time.Second):
			t.Fatal("Timed out waiting for all-event subscriber")
		}
	}
	if !types[EventScanStatus] || !types[EventScanComplete] {
		t.Errorf("Expected STATUS and COMPLETE events, got %v", types)
	}
}
