package recordx

import (
	"log/slog"

	"github.com/comalice/recordx/events"
	"github.com/comalice/recordx/identity"
)

// Option configures a Record at construction.
type Option func(*Record)

// WithGenerator sets the generator used for new and destroyed records.
// Defaults to identity.Default().
func WithGenerator(g identity.Generator) Option {
	return func(r *Record) {
		if g != nil {
			r.gen = g
		}
	}
}

// WithChannel sets the event channel the record emits on. Several records may
// share one channel; listeners tell them apart by the record in Args[0].
// Defaults to a fresh events.Bus per record.
func WithChannel(c events.Channel) Option {
	return func(r *Record) {
		if c != nil {
			r.channel = c
		}
	}
}

// WithLogger configures the logger for identity and lifecycle messages.
func WithLogger(l *slog.Logger) Option {
	return func(r *Record) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithIdentity forces the initial identity, taking precedence over any id
// field in the constructor data. Unlike the data field, 0 is accepted.
func WithIdentity(id int64) Option {
	return func(r *Record) {
		r.fixedID = &id
	}
}

// WithListener registers l for the named event before construction returns.
func WithListener(name string, l events.Listener) Option {
	return func(r *Record) {
		r.pending = append(r.pending, pendingListener{name: name, fn: l})
	}
}

// WithKind labels the record with a kind name (see Record.Kind). Records
// built by a Kind get its name automatically.
func WithKind(name string) Option {
	return func(r *Record) {
		if name != "" {
			r.kind = name
		}
	}
}
