package events

// Forward returns a Listener that hands each event to ch without blocking.
// Events are dropped when ch is full, so the emitting goroutine never waits
// on a slow consumer.
func Forward(ch chan<- Event) Listener {
	return func(e Event) {
		select {
		case ch <- e:
		default: // Non-blocking drop
		}
	}
}
