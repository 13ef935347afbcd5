package recordx

import (
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/comalice/recordx/events"
	"github.com/comalice/recordx/internal/mapx"
)

// Kind is a record variant: a name, default fields, preset options and
// listeners registered on every record it builds.
//
// Kind listeners are registered once per event channel. A record with its
// own channel gets its own copy; records sharing a channel set through
// WithChannel share one registration, which then sees the events of every
// record of the kind on that channel. A Kind is safe for concurrent use.
type Kind struct {
	name      string
	defaults  Data
	opts      []Option
	listeners []pendingListener

	mu    sync.Mutex
	bound map[events.Channel]struct{}
}

// KindBuilder provides a fluent API for declaring a Kind.
type KindBuilder struct {
	kind Kind
	errs []error
}

// Extend starts a new record variant called name.
func Extend(name string) *KindBuilder {
	return &KindBuilder{
		kind: Kind{name: name, defaults: Data{}},
	}
}

// Default sets one default field. Caller data passed to New overrides it.
func (b *KindBuilder) Default(key string, value any) *KindBuilder {
	if key == IdentityKey {
		b.errs = append(b.errs, fmt.Errorf("kind %q: default for %q: %w", b.kind.name, key, ErrInvalidData))
		return b
	}
	b.kind.defaults[key] = value
	return b
}

// Defaults sets several default fields.
func (b *KindBuilder) Defaults(data Data) *KindBuilder {
	for _, k := range mapx.Keys(data) {
		b.Default(k, data[k])
	}
	return b
}

// With appends options applied to every record of this kind.
func (b *KindBuilder) With(opts ...Option) *KindBuilder {
	b.kind.opts = append(b.kind.opts, opts...)
	return b
}

// On registers l for the named event on every record of this kind.
func (b *KindBuilder) On(name string, l events.Listener) *KindBuilder {
	if l == nil {
		b.errs = append(b.errs, fmt.Errorf("kind %q: nil listener for %q", b.kind.name, name))
		return b
	}
	b.kind.listeners = append(b.kind.listeners, pendingListener{name: name, fn: l})
	return b
}

// OnChange is On(EventChange, l).
func (b *KindBuilder) OnChange(l events.Listener) *KindBuilder {
	return b.On(EventChange, l)
}

// OnDestroy is On(EventDestroy, l).
func (b *KindBuilder) OnDestroy(l events.Listener) *KindBuilder {
	return b.On(EventDestroy, l)
}

// Build validates the declaration and returns the Kind.
func (b *KindBuilder) Build() (*Kind, error) {
	if b.kind.name == "" {
		b.errs = append(b.errs, errors.New("kind name must not be empty"))
	}
	if len(b.errs) > 0 {
		return nil, errors.Join(b.errs...)
	}

	k := &Kind{
		name:      b.kind.name,
		defaults:  mapx.Clone(b.kind.defaults),
		opts:      append([]Option(nil), b.kind.opts...),
		listeners: append([]pendingListener(nil), b.kind.listeners...),
	}
	return k, nil
}

// MustBuild is Build that panics on error, for package-level declarations.
func (b *KindBuilder) MustBuild() *Kind {
	k, err := b.Build()
	if err != nil {
		panic(err)
	}
	return k
}

// Name returns the kind name.
func (k *Kind) Name() string {
	return k.name
}

// Defaults returns a copy of the default fields.
func (k *Kind) Defaults() Data {
	return mapx.Clone(k.defaults)
}

// New builds a record of this kind. Defaults are merged under data before
// the baseline is taken, so they never show up as changes. opts are applied
// after the kind's own options.
func (k *Kind) New(data Data, opts ...Option) *Record {
	merged := mapx.Merge(mapx.Clone(k.defaults), data)

	all := make([]Option, 0, len(k.opts)+len(opts)+2)
	all = append(all, WithKind(k.name), func(r *Record) { r.from = k })
	all = append(all, k.opts...)
	all = append(all, opts...)

	return New(merged, all...)
}

// subscribe registers the kind listeners on the channel of r unless they are
// already registered there.
func (k *Kind) subscribe(r *Record) {
	if len(k.listeners) == 0 {
		return
	}
	ch := r.channel
	if !r.ownChannel && reflect.TypeOf(ch).Comparable() {
		k.mu.Lock()
		defer k.mu.Unlock()
		if _, ok := k.bound[ch]; ok {
			return
		}
		if k.bound == nil {
			k.bound = make(map[events.Channel]struct{})
		}
		k.bound[ch] = struct{}{}
	}
	for _, l := range k.listeners {
		ch.On(l.name, l.fn)
	}
}
