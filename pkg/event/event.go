// Package event is a small synchronous event dispatcher. A Bus is a value
// owned by whoever composes the program; there is no package-level bus.
package event

import "sync"

// Handler receives an event payload.
type Handler func(payload any)

// Bus maps event names to listeners. The zero value is ready to use.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
}

func NewBus() *Bus {
	return &Bus{}
}

// Listen registers handler for name.
func (b *Bus) Listen(name string, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.handlers == nil {
		b.handlers = make(map[string][]Handler)
	}
	b.handlers[name] = append(b.handlers[name], handler)
}

// ListenAll registers handler for each of names.
func (b *Bus) ListenAll(handler Handler, names ...string) {
	for _, n := range names {
		b.Listen(n, handler)
	}
}

// Fire calls every listener for name, in registration order, on the
// caller's goroutine. A nil Bus drops the event.
func (b *Bus) Fire(name string, payload any) {
	if b == nil {
		return
	}

	b.mu.RLock()
	hs := append([]Handler(nil), b.handlers[name]...)
	b.mu.RUnlock()

	for _, h := range hs {
		h(payload)
	}
}

// Flush removes all listeners.
func (b *Bus) Flush() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = nil
}
