package recordx

import (
	"fmt"
	"log/slog"

	"github.com/comalice/recordx/events"
	"github.com/comalice/recordx/identity"
	"github.com/comalice/recordx/internal/mapx"
)

// IdentityKey is the data field interpreted as the record identity.
const IdentityKey = "id"

// Event names emitted by a Record.
const (
	EventChange  = "change"
	EventDestroy = "destroy"
)

// DefaultKind names records not built from a Kind.
const DefaultKind = "record"

// Data is a flat mapping of field names to values.
type Data map[string]any

// Op classifies a key change reported by Changes.
type Op int

const (
	OpAdded Op = iota + 1
	OpRemoved
	OpModified
)

func (o Op) String() string {
	return mapx.Op(o).String()
}

func (o Op) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// Change is the baseline and current value of one key.
// Old is nil for added keys, New is nil for removed keys.
type Change struct {
	Old any `json:"old" yaml:"old"`
	New any `json:"new" yaml:"new"`
	Op  Op  `json:"op" yaml:"op"`
}

type pendingListener struct {
	name string
	fn   events.Listener
}

// Record holds the current state of one flat record, a baseline snapshot to
// compare it against, and an event channel that announces every mutation.
//
// A Record is not safe for concurrent use. Callers that share a Record
// between goroutines must serialize access themselves.
type Record struct {
	id       int64
	current  Data
	baseline Data

	kind       string
	gen        identity.Generator
	channel    events.Channel
	ownChannel bool
	logger     *slog.Logger

	fixedID *int64
	from    *Kind
	pending []pendingListener
}

// New creates a record from data. The data map is not retained or modified.
//
// A truthy integer id field becomes the identity; otherwise a fresh negative
// identity is drawn from the generator. The id field never becomes a data
// key. The baseline is taken after construction, so a new record is not
// dirty.
func New(data Data, opts ...Option) *Record {
	r := &Record{
		current: Data{},
		kind:    DefaultKind,
		gen:     identity.Default(),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.channel == nil {
		r.channel = events.NewBus(events.WithLogger(r.logger))
		r.ownChannel = true
	}

	switch id, adopt, _ := identityOf(data); {
	case r.fixedID != nil:
		r.id = *r.fixedID
	case adopt:
		r.id = id
	default:
		r.id = r.gen.Next()
		r.logger.Debug("assigned new identity", "kind", r.kind, "id", r.id)
	}
	r.fixedID = nil

	r.copyFields(data)
	r.baseline = mapx.Clone(r.current)

	if r.from != nil {
		r.from.subscribe(r)
		r.from = nil
	}
	for _, p := range r.pending {
		r.channel.On(p.name, p.fn)
	}
	r.pending = nil

	return r
}

// Restore rebuilds a record from a saved pair of maps without emitting:
// baseline becomes the comparison point and current the live state, so
// a record saved while dirty is dirty again after Restore. Pass WithIdentity
// to keep the saved identity. Both maps are copied as is: an id key in them
// is data written by Set and never changes the identity.
func Restore(current, baseline Data, opts ...Option) *Record {
	r := New(nil, opts...)
	r.baseline = mapx.Clone(baseline)
	r.current = mapx.Clone(current)
	return r
}

// ID returns the record identity.
func (r *Record) ID() int64 {
	return r.id
}

// Kind returns the name of the Kind that built the record, or DefaultKind.
func (r *Record) Kind() string {
	return r.kind
}

// Get returns the value stored under key, or false when the key is absent or
// its value is falsy (see Truthy). Use Lookup to tell the two apart.
func (r *Record) Get(key string) any {
	if v, ok := r.current[key]; ok && Truthy(v) {
		return v
	}
	return false
}

// Lookup returns the value stored under key and whether it is present,
// regardless of truthiness.
func (r *Record) Lookup(key string) (any, bool) {
	v, ok := r.current[key]
	return v, ok
}

// Has reports whether key is present.
func (r *Record) Has(key string) bool {
	_, ok := r.current[key]
	return ok
}

// Fetch is Lookup with an error for absent keys.
func (r *Record) Fetch(key string) (any, error) {
	v, ok := r.current[key]
	if !ok {
		return nil, fmt.Errorf("fetch %q: %w", key, ErrKeyNotFound)
	}
	return v, nil
}

// Set stores value under key and emits change. Every key is stored as is,
// IdentityKey included; only Assign and Merge adopt an identity.
func (r *Record) Set(key string, value any) {
	r.current[key] = value
	r.emit(EventChange)
}

// Assign shallow-merges data onto the current state without emitting.
// Existing keys are overwritten, keys missing from data are kept. A truthy
// integer id field replaces the identity; the id field is dropped either way.
func (r *Record) Assign(data Data) {
	r.merge(data)
}

// TryAssign is Assign that rejects an id field which is not an integer.
// Nothing is modified when it returns an error.
func (r *Record) TryAssign(data Data) error {
	if _, _, invalid := identityOf(data); invalid {
		return fmt.Errorf("assign %s=%v: %w", IdentityKey, data[IdentityKey], ErrInvalidData)
	}
	r.merge(data)
	return nil
}

// Merge is Assign followed by a change event.
func (r *Record) Merge(data Data) {
	r.merge(data)
	r.emit(EventChange)
}

// TryMerge is TryAssign followed by a change event. No event is emitted on
// error.
func (r *Record) TryMerge(data Data) error {
	if err := r.TryAssign(data); err != nil {
		return err
	}
	r.emit(EventChange)
	return nil
}

// Apply commits the current state as the new baseline. Does not emit.
func (r *Record) Apply() {
	r.baseline = mapx.Clone(r.current)
}

// Revert discards every change since the last Apply (or construction) and
// emits change.
func (r *Record) Revert() {
	r.current = mapx.Clone(r.baseline)
	r.emit(EventChange)
}

// Reset replaces the current state with a copy of data and emits change.
// Unlike Merge, keys missing from data are dropped. The baseline and the
// identity are left alone; an id field in data is discarded.
func (r *Record) Reset(data Data) {
	next := mapx.Clone(data)
	delete(next, IdentityKey)
	r.current = next
	r.emit(EventChange)
}

// Destroy empties the record, gives it a fresh negative identity and emits
// destroy. The record stays usable as a new, empty record. The baseline is
// kept, so a destroyed record with a non-empty baseline is dirty.
func (r *Record) Destroy() {
	prev := r.id
	r.current = Data{}
	r.id = r.gen.Next()
	r.logger.Debug("record destroyed", "kind", r.kind, "previous_id", prev, "id", r.id)
	r.emit(EventDestroy)
}

// All returns a copy of the current state.
func (r *Record) All() Data {
	return mapx.Clone(r.current)
}

// Baseline returns a copy of the state at the last Apply (or construction).
func (r *Record) Baseline() Data {
	return mapx.Clone(r.baseline)
}

// Diff returns the keys whose current value differs from the baseline,
// mapped to their current value. Keys removed since the baseline map to nil.
func (r *Record) Diff() Data {
	return mapx.Diff(r.baseline, r.current)
}

// Changes is Diff with the baseline value kept next to the current one.
func (r *Record) Changes() map[string]Change {
	pairs := mapx.Pairs(r.baseline, r.current)
	out := make(map[string]Change, len(pairs))
	for k, p := range pairs {
		out[k] = Change{Old: p.Old, New: p.New, Op: Op(p.Op)}
	}
	return out
}

// IsNew reports whether the record has never been persisted (identity < 0).
func (r *Record) IsNew() bool {
	return r.id < 0
}

// IsDirty reports whether Diff is non-empty.
func (r *Record) IsDirty() bool {
	return len(r.Diff()) > 0
}

// IsEmpty reports whether the current state has no keys.
func (r *Record) IsEmpty() bool {
	return len(r.current) == 0
}

// Len returns the number of keys in the current state.
func (r *Record) Len() int {
	return len(r.current)
}

// Keys returns the current keys in sorted order.
func (r *Record) Keys() []string {
	return mapx.Keys(r.current)
}

// On subscribes l to the named event. Record events carry the record as
// Args[0].
func (r *Record) On(name string, l events.Listener) events.Subscription {
	return r.channel.On(name, l)
}

// Off removes a subscription made with On.
func (r *Record) Off(name string, sub events.Subscription) bool {
	return r.channel.Off(name, sub)
}

// Events returns the channel the record emits on.
func (r *Record) Events() events.Channel {
	return r.channel
}

func (r *Record) String() string {
	return fmt.Sprintf("%s(%d)", r.kind, r.id)
}

// merge adopts a truthy integer identity from data, then copies the fields.
func (r *Record) merge(data Data) {
	if id, adopt, _ := identityOf(data); adopt {
		r.id = id
	}
	r.copyFields(data)
}

// copyFields writes every non-identity key of data onto the current state.
func (r *Record) copyFields(data Data) {
	for k, v := range data {
		if k == IdentityKey {
			continue
		}
		r.current[k] = v
	}
}

func (r *Record) emit(name string) {
	r.channel.Emit(name, r)
}
