// Package recordx provides Record, an observable flat key-value record that
// tracks its changes against a baseline snapshot.
//
// A Record keeps two maps: the current state, which Set, Merge, Reset and
// Revert modify, and a baseline taken at construction and on every Apply.
// Diff and IsDirty compare the two. Every mutation except Assign and Apply
// emits exactly one event on the record's channel before returning:
//
//	r := recordx.New(recordx.Data{"id": 5, "name": "x"})
//	r.On(recordx.EventChange, func(e events.Event) { render(e.Arg(0).(*recordx.Record)) })
//	r.Set("name", "y") // Diff() == {"name": "y"}
//	r.Revert()         // back to "x", not dirty
//
// Identities below zero mark records that have not been persisted. They come
// from an identity.Generator, by default the process-wide sequence.
//
// Variants with preset defaults and listeners are built with Extend. Go types
// that need extra fields or methods embed *Record.
package recordx
