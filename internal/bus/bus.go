// Package bus provides an internal event bus for component communication.
package bus

import (
	"sync"
)

// EventType identifies different event types.
type EventType string

// Event types for ClawCat.
const (
	// State store events
	EventModeChanged     EventType = "state.mode_changed"
	EventActivityChanged EventType = "state.activity_changed"
	EventDecisionChanged EventType = "state.decision_changed"

	// Input events
	EventKeysChanged    EventType = "input.keys_changed"
	EventGestureChanged EventType = "input.gesture_changed"

	// Resource events
	EventKeymapReloaded EventType = "resources.keymap_reloaded"
	EventModelLoaded    EventType = "model.loaded"
)

// Event represents a bus event.
type Event struct {
	Type EventType
	Data map[string]any
}

// Handler is a function that handles events.
type Handler func(Event)

// EventBus is a simple pub/sub event bus. Publish dispatches handlers
// synchronously in the caller's goroutine: parameter write ordering depends
// on derivations running before the publisher proceeds.
type EventBus struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler
}

// NewEventBus creates a new event bus.
func NewEventBus() *EventBus {
	return &EventBus{
		handlers: make(map[EventType][]Handler),
	}
}

// Subscribe adds a handler for an event type.
func (b *EventBus) Subscribe(eventType EventType, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[eventType] = append(b.handlers[eventType], handler)
}

// SubscribeMultiple adds a handler for multiple event types.
func (b *EventBus) SubscribeMultiple(eventTypes []EventType, handler Handler) {
	for _, et := range eventTypes {
		b.Subscribe(et, handler)
	}
}

// Publish sends an event to all subscribed handlers, in order, on the
// caller's goroutine.
func (b *EventBus) Publish(event Event) {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers[event.Type]))
	copy(handlers, b.handlers[event.Type])
	b.mu.RUnlock()

	for _, handler := range handlers {
		handler(event)
	}
}

// PublishAsync sends an event without waiting for handlers.
func (b *EventBus) PublishAsync(event Event) {
	go b.Publish(event)
}

// Clear removes all handlers.
func (b *EventBus) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = make(map[EventType][]Handler)
}
