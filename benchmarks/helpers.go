// Package benchmarks provides shared helpers for benchmark tests.
package benchmarks

import (
	"fmt"

	"github.com/comalice/recordx"
	"github.com/comalice/recordx/events"
	"github.com/comalice/recordx/identity"
)

// GenData creates a flat mapping with n integer fields k0..k(n-1).
func GenData(n int) recordx.Data {
	d := make(recordx.Data, n)
	for i := 0; i < n; i++ {
		d[fmt.Sprintf("k%d", i)] = i
	}
	return d
}

// NewRecord builds a record with n fields and its own identity sequence so
// benchmarks do not contend on the process-wide one.
func NewRecord(n int) *recordx.Record {
	return recordx.New(GenData(n), recordx.WithGenerator(identity.NewSequence()))
}

// AddListeners subscribes n no-op change listeners to r.
func AddListeners(r *recordx.Record, n int) {
	for i := 0; i < n; i++ {
		r.On(recordx.EventChange, func(events.Event) {})
	}
}

// Dirty changes every step-th field of r so Diff has work to do.
func Dirty(r *recordx.Record, n, step int) {
	if step < 1 {
		step = 1
	}
	for i := 0; i < n; i += step {
		r.Set(fmt.Sprintf("k%d", i), -i-1)
	}
}
