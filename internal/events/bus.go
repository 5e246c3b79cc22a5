package events

import (
	"github.com/rs/zerolog"

	"github.com/danielweickdag/kairo-quantum-sub006/internal/stream"
)

const anyKind = "*"

// Handler receives an event.
type Handler func(Event)

// Bus dispatches events synchronously to handlers registered per kind.
// It is a stream.Hub keyed by event kind, so handler panics are recovered
// the same way subscriber panics are.
type Bus struct {
	hub *stream.Hub
}

// NewBus creates an empty bus.
func NewBus(logger zerolog.Logger) *Bus {
	return &Bus{hub: stream.NewHub(logger.With().Str("bus", "events").Logger())}
}

// On registers fn for events of kind. The returned function unregisters it.
func (b *Bus) On(kind Kind, fn Handler) (off func()) {
	return b.hub.Subscribe(string(kind), func(payload any) {
		if e, ok := payload.(Event); ok {
			fn(e)
		}
	})
}

// OnAny registers fn for every event.
func (b *Bus) OnAny(fn Handler) (off func()) {
	return b.On(anyKind, fn)
}

// Emit delivers e to the handlers of its kind, then to catch-all handlers.
func (b *Bus) Emit(e Event) {
	b.hub.Publish(string(e.Kind()), e)
	b.hub.Publish(anyKind, e)
}

// HandlerCount returns the number of handlers registered for kind.
func (b *Bus) HandlerCount(kind Kind) int {
	return b.hub.SubscriberCount(string(kind))
}

// Subscribe registers a handler typed to one event variant.
func Subscribe[E Event](b *Bus, fn func(E)) (off func()) {
	var zero E
	return b.On(zero.Kind(), func(e Event) {
		if typed, ok := e.(E); ok {
			fn(typed)
		}
	})
}
