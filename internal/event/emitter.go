package event

import "sync"

// Emitter provides thread-safe event emission with handler registration.
type Emitter[E any] struct {
	// +checklocks:mu
	handlers map[int]func(E)
	// +checklocks:mu
	order []int
	// +checklocks:mu
	next int
	mu   sync.RWMutex
}

// OnEvent registers an event handler and returns a function that removes it.
// Handlers are called synchronously, in registration order.
func (e *Emitter[E]) OnEvent(handler func(E)) (remove func()) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.handlers == nil {
		e.handlers = make(map[int]func(E))
	}
	id := e.next
	e.next++
	e.handlers[id] = handler
	e.order = append(e.order, id)

	return func() {
		e.mu.Lock()
		defer e.mu.Unlock()
		delete(e.handlers, id)
		for i, v := range e.order {
			if v == id {
				e.order = append(e.order[:i], e.order[i+1:]...)
				break
			}
		}
	}
}

// Emit sends an event to all registered handlers.
// Handlers registered during emission are not called for this event.
// Must not be called with lock held.
func (e *Emitter[E]) Emit(event E) {
	e.mu.RLock()
	handlers := make([]func(E), 0, len(e.order))
	for _, id := range e.order {
		handlers = append(handlers, e.handlers[id])
	}
	e.mu.RUnlock()

	for _, h := range handlers {
		h(event)
	}
}

// Bus is a Sink that fans every message out to its subscribers.
type Bus struct {
	emitter Emitter[Message]
}

// NewBus creates an empty Bus.
func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers fn for every message. The returned function
// unsubscribes.
func (b *Bus) Subscribe(fn func(Message)) (unsubscribe func()) {
	return b.emitter.OnEvent(fn)
}

// Emit implements Sink.
func (b *Bus) Emit(topic, line string) {
	b.emitter.Emit(Message{Topic: topic, Line: line})
}
