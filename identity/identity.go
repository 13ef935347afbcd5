// Package identity hands out identities for records that have not been
// persisted yet. Such identities are strictly negative so they can never
// collide with identities assigned by a backend, which are >= 0.
package identity

import "sync/atomic"

// Generator returns a negative identity that it has never returned before.
type Generator interface {
	Next() int64
}

// Sequence is a Generator backed by an atomic counter. Each call to Next
// returns a value one step further from zero than the previous call.
// Safe for concurrent use.
type Sequence struct {
	n atomic.Int64
}

// NewSequence creates a Sequence whose first identity is -1.
func NewSequence() *Sequence {
	return &Sequence{}
}

// Next returns the next identity: -1, -2, -3, ...
func (s *Sequence) Next() int64 {
	return -s.n.Add(1)
}

// Issued returns how many identities have been handed out.
func (s *Sequence) Issued() int64 {
	return s.n.Load()
}

// Reset rewinds the sequence so the next identity is -1 again.
// Only meant for tests; records created before and after a reset may share
// identities.
func (s *Sequence) Reset() {
	s.n.Store(0)
}

var process = NewSequence()

// Default returns the process-wide Sequence shared by all records that were
// not given their own Generator.
func Default() *Sequence {
	return process
}

// Func adapts a plain function to the Generator interface.
type Func func() int64

func (f Func) Next() int64 {
	return f()
}
