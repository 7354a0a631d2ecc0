package bus

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPublishIsSynchronousAndOrdered(t *testing.T) {
	b := NewEventBus()

	var order []string
	b.Subscribe(EventKeysChanged, func(Event) { order = append(order, "first") })
	b.Subscribe(EventKeysChanged, func(Event) { order = append(order, "second") })

	b.Publish(Event{Type: EventKeysChanged})
	assert.Equal(t, []string{"first", "second"}, order,
		"handlers run in subscription order before Publish returns")
}

func TestPublishCarriesData(t *testing.T) {
	b := NewEventBus()

	var got Event
	b.Subscribe(EventModeChanged, func(ev Event) { got = ev })

	b.Publish(Event{Type: EventModeChanged, Data: map[string]any{"mode": "spying"}})
	assert.Equal(t, EventModeChanged, got.Type)
	assert.Equal(t, "spying", got.Data["mode"])
}

func TestSubscribeMultiple(t *testing.T) {
	b := NewEventBus()

	var count int
	b.SubscribeMultiple([]EventType{EventKeysChanged, EventGestureChanged}, func(Event) { count++ })

	b.Publish(Event{Type: EventKeysChanged})
	b.Publish(Event{Type: EventGestureChanged})
	b.Publish(Event{Type: EventModeChanged})
	assert.Equal(t, 2, count)
}

func TestPublishWithoutSubscribers(t *testing.T) {
	b := NewEventBus()
	assert.NotPanics(t, func() { b.Publish(Event{Type: EventModelLoaded}) })
}

func TestClear(t *testing.T) {
	b := NewEventBus()

	var count int
	b.Subscribe(EventKeysChanged, func(Event) { count++ })
	b.Clear()

	b.Publish(Event{Type: EventKeysChanged})
	assert.Zero(t, count)
}
