// Package events provides the synchronous subscribe/emit channel that records
// use to broadcast change notifications.
//
// # Dispatch
//
// Emit runs every listener registered for the event name on the calling
// goroutine, in registration order, before it returns. There is no queue and
// no asynchronous delivery. The listener list is snapshotted when an emission
// starts:
//
//   - a listener added while an emission is in progress is first invoked on
//     the next emission;
//   - a listener removed while an emission is in progress is skipped if the
//     emission has not reached it yet.
//
// Use Forward to hand events over to a consumer on another goroutine.
package events

// Event is a single notification. Args holds whatever the emitter passed
// after the name; records pass themselves as Args[0].
//
// Events should not be mutated by listeners.
type Event struct {
	Name string
	Args []any
}

// Arg returns Args[i], or nil when i is out of range.
func (e Event) Arg(i int) any {
	if i < 0 || i >= len(e.Args) {
		return nil
	}
	return e.Args[i]
}

// Listener handles one event.
type Listener func(Event)

// Subscription identifies a registered listener so it can be removed later.
// The zero Subscription matches nothing.
type Subscription struct {
	ID   string
	Name string
}

// Valid reports whether s was returned by On.
func (s Subscription) Valid() bool {
	return s.ID != ""
}

// Channel is the subscribe/emit capability exposed by records.
type Channel interface {
	On(name string, l Listener) Subscription
	Off(name string, sub Subscription) bool
	Emit(name string, args ...any)
}
