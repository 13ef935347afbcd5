package events

import (
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

type entry struct {
	id      string
	fn      Listener
	removed atomic.Bool
}

// Bus is the default Channel implementation.
//
// Thread Safety: On, Off and Emit may be called from any goroutine; listeners
// run on the goroutine that called Emit.
type Bus struct {
	mu        sync.RWMutex
	listeners map[string][]*entry
	logger    *slog.Logger
}

// BusOption configures a Bus.
type BusOption func(*Bus)

// WithLogger sets the logger used to report recovered listener panics.
func WithLogger(l *slog.Logger) BusOption {
	return func(b *Bus) {
		if l != nil {
			b.logger = l
		}
	}
}

// NewBus creates an empty Bus.
func NewBus(opts ...BusOption) *Bus {
	b := &Bus{
		listeners: make(map[string][]*entry),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// On registers l for events called name and returns its subscription.
// The same function may be registered more than once; each registration is
// invoked separately.
func (b *Bus) On(name string, l Listener) Subscription {
	if l == nil {
		return Subscription{}
	}
	e := &entry{id: uuid.NewString(), fn: l}

	b.mu.Lock()
	b.listeners[name] = append(b.listeners[name], e)
	b.mu.Unlock()

	return Subscription{ID: e.id, Name: name}
}

// Once registers l so that it runs for at most one event called name.
func (b *Bus) Once(name string, l Listener) Subscription {
	if l == nil {
		return Subscription{}
	}
	var (
		sub  Subscription
		done atomic.Bool
	)
	sub = b.On(name, func(e Event) {
		if !done.CompareAndSwap(false, true) {
			return
		}
		b.Off(name, sub)
		l(e)
	})
	return sub
}

// Off removes the subscription. It reports whether anything was removed.
func (b *Bus) Off(name string, sub Subscription) bool {
	if !sub.Valid() {
		return false
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	list := b.listeners[name]
	for i, e := range list {
		if e.id != sub.ID {
			continue
		}
		e.removed.Store(true)
		// Copy so in-flight emissions keep their snapshot intact.
		next := make([]*entry, 0, len(list)-1)
		next = append(next, list[:i]...)
		next = append(next, list[i+1:]...)
		if len(next) == 0 {
			delete(b.listeners, name)
		} else {
			b.listeners[name] = next
		}
		return true
	}
	return false
}

// Emit invokes every listener registered for name.
func (b *Bus) Emit(name string, args ...any) {
	b.mu.RLock()
	snapshot := b.listeners[name]
	b.mu.RUnlock()

	if len(snapshot) == 0 {
		return
	}

	evt := Event{Name: name, Args: args}
	for _, e := range snapshot {
		if e.removed.Load() {
			continue
		}
		b.invoke(e, evt)
	}
}

// invoke runs one listener, recovering panics so the remaining listeners
// still see the event.
func (b *Bus) invoke(e *entry, evt Event) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("event listener panicked",
				"event", evt.Name,
				"subscription", e.id,
				"panic", r,
			)
		}
	}()
	e.fn(evt)
}

// Count returns the number of listeners registered for name.
func (b *Bus) Count(name string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.listeners[name])
}

// Clear removes every listener for every event.
func (b *Bus) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, list := range b.listeners {
		for _, e := range list {
			e.removed.Store(true)
		}
	}
	b.listeners = make(map[string][]*entry)
}
