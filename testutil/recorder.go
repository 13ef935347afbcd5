// Package testutil provides helpers for asserting on record notifications.
package testutil

import (
	"sync"

	"github.com/comalice/recordx/events"
)

// Source is anything that accepts event subscriptions: a *recordx.Record, an
// *events.Bus, or another events.Channel.
type Source interface {
	On(name string, l events.Listener) events.Subscription
	Off(name string, sub events.Subscription) bool
}

// DefaultNames are the events Record subscribes to when none are given.
var DefaultNames = []string{"change", "destroy"}

// Recorder captures every event it is subscribed to, in emission order.
type Recorder struct {
	mu     sync.Mutex
	src    Source
	subs   []events.Subscription
	events []events.Event
}

// Record subscribes a new Recorder to the named events of src
// (DefaultNames when names is empty).
func Record(src Source, names ...string) *Recorder {
	if len(names) == 0 {
		names = DefaultNames
	}
	r := &Recorder{src: src}
	for _, name := range names {
		r.subs = append(r.subs, src.On(name, r.handle))
	}
	return r
}

func (r *Recorder) handle(e events.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

// Events returns a copy of the captured events.
func (r *Recorder) Events() []events.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]events.Event, len(r.events))
	copy(out, r.events)
	return out
}

// Names returns the names of the captured events in order.
func (r *Recorder) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, e := range r.events {
		out[i] = e.Name
	}
	return out
}

// Count returns how many events called name were captured.
func (r *Recorder) Count(name string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e.Name == name {
			n++
		}
	}
	return n
}

// Total returns the number of captured events.
func (r *Recorder) Total() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

// Reset forgets the captured events but stays subscribed.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}

// Detach unsubscribes the recorder from its source.
func (r *Recorder) Detach() {
	for _, sub := range r.subs {
		r.src.Off(sub.Name, sub)
	}
	r.subs = nil
}
