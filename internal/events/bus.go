package events

import (
	"sync"
	"time"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventScanStatus   EventType = "STATUS"
	EventScanScanning EventType = "SCANNING"
	EventScanMatch    EventType = "MATCH"
	EventScanError    EventType = "ERROR"
	EventScanComplete EventType = "COMPLETE"
	EventCacheCleared EventType = "CACHE_CLEARED"
)

// Event represents a system event
type Event struct {
	Type      EventType              `json:"type"`
	ScanID    string                 `json:"scan_id,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Data      map[string]interface{} `json:"data"`
}

// Subscriber is a function that handles events
type Subscriber func(Event)

// EventBus manages event publishing and subscriptions
type EventBus struct {
	mu          sync.RWMutex
	subscribers map[EventType][]Subscriber
	allSubs     []Subscriber // Subscribers to all events
}

// NewEventBus creates a new event bus
func NewEventBus() *EventBus {
	return &EventBus{
		subscribers: make(map[EventType][]Subscriber),
		allSubs:     make([]Subscriber, 0),
	}
}

// Subscribe registers a subscriber for a specific event type
func (eb *EventBus) Subscribe(eventType EventType, subscriber Subscriber) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	eb.subscribers[eventType] = append(eb.subscribers[eventType], subscriber)
}

// SubscribeAll registers a subscriber for all events
func (eb *EventBus) SubscribeAll(subscriber Subscriber) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	eb.allSubs = append(eb.allSubs, subscriber)
}

// Publish sends an event to all subscribers
func (eb *EventBus) Publish(event Event) {
	eb.mu.RLock()
	defer eb.mu.RUnlock()

	// Set timestamp if not provided
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	// Notify specific subscribers
	if subs, ok := eb.subscribers[event.Type]; ok {
		for _, sub := range subs {
			go sub(event) // Run in goroutine to avoid blocking
		}
	}

	// Notify all-event subscribers
	for _, sub := range eb.allSubs {
		go sub(event)
	}
}

// PublishScanStarted publishes the initial status event for a scan
func (eb *EventBus) PublishScanStarted(scanID, pattern string, total int) {
	eb.Publish(Event{
		Type:   EventScanStatus,
		ScanID: scanID,
		Data: map[string]interface{}{
			"pattern": pattern,
			"total":   total,
		},
	})
}

// PublishScanMatch publishes a matched symbol during a scan
func (eb *EventBus) PublishScanMatch(scanID, symbol, pattern string, confidence, price float64) {
	eb.Publish(Event{
		Type:   EventScanMatch,
		ScanID: scanID,
		Data: map[string]interface{}{
			"symbol":     symbol,
			"pattern":    pattern,
			"confidence": confidence,
			"price":      price,
		},
	})
}

// PublishScanError publishes a per-symbol failure during a scan
func (eb *EventBus) PublishScanError(scanID, symbol, message string) {
	eb.Publish(Event{
		Type:   EventScanError,
		ScanID: scanID,
		Data: map[string]interface{}{
			"symbol":  symbol,
			"message": message,
		},
	})
}

// PublishScanComplete publishes the terminal event for a scan
func (eb *EventBus) PublishScanComplete(scanID string, matches, scanned int, duration time.Duration) {
	eb.Publish(Event{
		Type:   EventScanComplete,
		ScanID: scanID,
		Data: map[string]interface{}{
			"matches":     matches,
			"scanned":     scanned,
			"duration_ms": duration.Milliseconds(),
		},
	})
}

// PublishCacheCleared publishes a cache clear notification
func (eb *EventBus) PublishCacheCleared(entries int) {
	eb.Publish(Event{
		Type: EventCacheCleared,
		Data: map[string]interface{}{
			"entries_removed": entries,
		},
	})
}
