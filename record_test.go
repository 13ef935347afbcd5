package recordx_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comalice/recordx"
	"github.com/comalice/recordx/events"
	"github.com/comalice/recordx/identity"
	"github.com/comalice/recordx/testutil"
)

func newRecord(t *testing.T, data recordx.Data) (*recordx.Record, *testutil.Recorder, *identity.Sequence) {
	t.Helper()
	seq := identity.NewSequence()
	r := recordx.New(data, recordx.WithGenerator(seq))
	return r, testutil.Record(r), seq
}

func TestNewIsNeverDirty(t *testing.T) {
	for _, data := range []recordx.Data{
		nil,
		{},
		{"a": 1},
		{"id": 7, "name": "x", "tags": []string{"a"}},
		{"id": 0, "zero": 0, "empty": ""},
		{"cb": func() {}, "x": math.NaN(), "ch": make(chan int)},
	} {
		r := recordx.New(data)
		assert.Empty(t, r.Diff(), "data %v", data)
		assert.False(t, r.IsDirty())
	}
}

func TestNewDoesNotModifyInput(t *testing.T) {
	data := recordx.Data{"id": 5, "name": "x"}
	r := recordx.New(data)
	r.Set("name", "y")

	assert.Equal(t, recordx.Data{"id": 5, "name": "x"}, data)
}

func TestNewIdentity(t *testing.T) {
	seq := identity.NewSequence()

	persisted := recordx.New(recordx.Data{"id": 5}, recordx.WithGenerator(seq))
	assert.Equal(t, int64(5), persisted.ID())
	assert.False(t, persisted.IsNew())
	assert.False(t, persisted.Has("id"))

	fresh := recordx.New(nil, recordx.WithGenerator(seq))
	assert.Equal(t, int64(-1), fresh.ID())
	assert.True(t, fresh.IsNew())

	zero := recordx.New(recordx.Data{"id": 0}, recordx.WithGenerator(seq))
	assert.Equal(t, int64(-2), zero.ID(), "falsy id is not adopted")
	assert.False(t, zero.Has("id"))

	forced := recordx.New(recordx.Data{"id": 9}, recordx.WithIdentity(0), recordx.WithGenerator(seq))
	assert.Equal(t, int64(0), forced.ID())
	assert.False(t, forced.IsNew())
	assert.Equal(t, int64(2), seq.Issued())
}

func TestNewIdentityConversions(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want int64
	}{
		{"int", 3, 3},
		{"int32", int32(4), 4},
		{"uint8", uint8(5), 5},
		{"float64 integral", 6.0, 6},
		{"numeric string", "7", 7},
		{"json number", json.Number("8"), 8},
		{"integral json number", json.Number("9.0"), 9},
		{"zero string", "0", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := recordx.New(recordx.Data{"id": tt.in})
			assert.Equal(t, tt.want, r.ID())
			assert.False(t, r.IsNew())
		})
	}

	for _, bad := range []any{"abc", 1.5, math.NaN(), uint64(math.MaxUint64), []int{1}, 0, json.Number("0.0")} {
		r := recordx.New(recordx.Data{"id": bad}, recordx.WithGenerator(identity.NewSequence()))
		assert.Equal(t, int64(-1), r.ID(), "id %v", bad)
		assert.False(t, r.Has("id"))
	}
}

func TestDistinctNewIdentities(t *testing.T) {
	a := recordx.New(nil)
	b := recordx.New(recordx.Data{"name": "b"})

	assert.NotEqual(t, a.ID(), b.ID())
	assert.True(t, a.IsNew())
	assert.True(t, b.IsNew())
}

func TestGetTruthiness(t *testing.T) {
	r, _, _ := newRecord(t, recordx.Data{
		"name":  "x",
		"zero":  0,
		"empty": "",
		"no":    false,
		"null":  nil,
		"list":  []string{},
		"yes":   true,
	})

	assert.Equal(t, "x", r.Get("name"))
	assert.Equal(t, []string{}, r.Get("list"))
	assert.Equal(t, true, r.Get("yes"))
	for _, k := range []string{"zero", "empty", "no", "null", "missing"} {
		assert.Equal(t, false, r.Get(k), k)
	}

	v, ok := r.Lookup("zero")
	assert.True(t, ok)
	assert.Equal(t, 0, v)
	_, ok = r.Lookup("missing")
	assert.False(t, ok)
	assert.True(t, r.Has("null"))
	assert.False(t, r.Has("missing"))
}

func TestFetch(t *testing.T) {
	r, _, _ := newRecord(t, recordx.Data{"empty": ""})

	v, err := r.Fetch("empty")
	require.NoError(t, err)
	assert.Equal(t, "", v)

	_, err = r.Fetch("missing")
	assert.True(t, errors.Is(err, recordx.ErrKeyNotFound))
	assert.ErrorContains(t, err, "missing")
}

func TestSet(t *testing.T) {
	r, rec, _ := newRecord(t, recordx.Data{"name": "x"})

	r.Set("name", "y")
	assert.Equal(t, "y", r.Get("name"))
	assert.True(t, r.IsDirty())
	assert.Equal(t, 1, rec.Count(recordx.EventChange))

	r.Set("name", "x")
	assert.False(t, r.IsDirty(), "setting the baseline value is not a change")
	assert.Equal(t, 2, rec.Count(recordx.EventChange))
}

func TestSetIdentityKey(t *testing.T) {
	r, rec, _ := newRecord(t, nil)

	id := r.ID()

	r.Set("id", 12)
	assert.Equal(t, 12, r.Get("id"))
	assert.Equal(t, id, r.ID(), "set never touches the identity")
	assert.Equal(t, recordx.Data{"id": 12}, r.Diff())

	r.Set("id", "abc")
	assert.Equal(t, "abc", r.Get("id"))
	assert.Equal(t, id, r.ID())
	assert.Equal(t, 2, rec.Count(recordx.EventChange))

	r.Merge(recordx.Data{"id": 12})
	assert.Equal(t, int64(12), r.ID(), "merge adopts the identity")
	assert.Equal(t, "abc", r.Get("id"), "merge leaves the stored id key alone")
}

func TestAssignDoesNotEmit(t *testing.T) {
	r, rec, _ := newRecord(t, recordx.Data{"a": 1})

	r.Assign(recordx.Data{"b": 2, "id": 40})
	assert.Equal(t, recordx.Data{"a": 1, "b": 2}, r.All())
	assert.Equal(t, int64(40), r.ID())
	assert.Zero(t, rec.Total())
}

func TestMergeIsAdditive(t *testing.T) {
	r, rec, _ := newRecord(t, nil)

	r.Merge(recordx.Data{"a": 1})
	r.Merge(recordx.Data{"b": 2})
	assert.Equal(t, 1, r.Get("a"))
	assert.Equal(t, 2, r.Get("b"))
	assert.Equal(t, 2, rec.Count(recordx.EventChange))
}

func TestResetIsReplacing(t *testing.T) {
	r, rec, _ := newRecord(t, nil)

	r.Merge(recordx.Data{"a": 1})
	r.Reset(recordx.Data{"b": 2, "id": 99})
	assert.Equal(t, false, r.Get("a"))
	assert.Equal(t, 2, r.Get("b"))
	assert.False(t, r.Has("id"))
	assert.True(t, r.IsNew(), "reset does not touch the identity")
	assert.Equal(t, 2, rec.Count(recordx.EventChange))
}

func TestResetToBaselineIsClean(t *testing.T) {
	r, _, _ := newRecord(t, recordx.Data{"a": 1})

	r.Reset(recordx.Data{"a": 1})
	assert.False(t, r.IsDirty())

	r.Reset(nil)
	assert.True(t, r.IsEmpty())
	assert.Equal(t, recordx.Data{"a": nil}, r.Diff())
}

func TestResetCopiesInput(t *testing.T) {
	r, _, _ := newRecord(t, nil)
	data := recordx.Data{"a": 1}
	r.Reset(data)
	data["a"] = 2

	assert.Equal(t, 1, r.Get("a"))
}

func TestTryAssign(t *testing.T) {
	r, rec, _ := newRecord(t, recordx.Data{"a": 1})

	err := r.TryAssign(recordx.Data{"id": "abc", "a": 2})
	require.ErrorIs(t, err, recordx.ErrInvalidData)
	assert.Equal(t, 1, r.Get("a"), "nothing is applied on error")

	require.NoError(t, r.TryAssign(recordx.Data{"id": 3, "a": 2}))
	assert.Equal(t, int64(3), r.ID())
	assert.Equal(t, 2, r.Get("a"))

	require.NoError(t, r.TryAssign(recordx.Data{"id": nil}))
	assert.Zero(t, rec.Total())
}

func TestTryMerge(t *testing.T) {
	r, rec, _ := newRecord(t, nil)

	require.ErrorIs(t, r.TryMerge(recordx.Data{"id": 1.25}), recordx.ErrInvalidData)
	assert.Zero(t, rec.Total())

	require.NoError(t, r.TryMerge(recordx.Data{"a": 1}))
	assert.Equal(t, 1, rec.Count(recordx.EventChange))
}

func TestApplyClearsDiff(t *testing.T) {
	r, rec, _ := newRecord(t, recordx.Data{"a": 1})
	r.Set("a", 2)
	r.Set("b", 3)
	require.True(t, r.IsDirty())
	before := rec.Total()

	r.Apply()
	assert.Empty(t, r.Diff())
	assert.False(t, r.IsDirty())
	assert.Equal(t, before, rec.Total(), "apply does not emit")
	assert.Equal(t, recordx.Data{"a": 2, "b": 3}, r.Baseline())

	r.Set("cb", func() {})
	r.Set("x", math.NaN())
	require.True(t, r.IsDirty())
	r.Apply()
	assert.Empty(t, r.Diff(), "unchanged func and NaN values compare equal to themselves")
	assert.False(t, r.IsDirty())
}

func TestRevert(t *testing.T) {
	r, rec, _ := newRecord(t, recordx.Data{"a": 1})
	r.Set("a", 2)
	r.Apply()
	r.Set("a", 3)
	r.Set("b", 4)
	rec.Reset()

	r.Revert()
	assert.Equal(t, recordx.Data{"a": 2}, r.All())
	assert.False(t, r.IsDirty())
	assert.Equal(t, []string{recordx.EventChange}, rec.Names())
}

func TestRevertWithoutChangesStillEmits(t *testing.T) {
	r, rec, _ := newRecord(t, recordx.Data{"a": 1})
	r.Revert()
	assert.Equal(t, 1, rec.Count(recordx.EventChange))
}

func TestBaselineIndependentOfCurrent(t *testing.T) {
	r, _, _ := newRecord(t, recordx.Data{"a": 1})
	r.Set("a", 2)
	assert.Equal(t, recordx.Data{"a": 1}, r.Baseline())

	r.Apply()
	r.Set("a", 3)
	r.Revert()
	r.Set("a", 4)
	assert.Equal(t, recordx.Data{"a": 2}, r.Baseline())
}

func TestAllIsDefensiveCopy(t *testing.T) {
	r, _, _ := newRecord(t, recordx.Data{"a": 1})
	all := r.All()
	all["a"] = 2
	all["b"] = 3

	assert.Equal(t, 1, r.Get("a"))
	assert.False(t, r.Has("b"))
	assert.False(t, r.IsDirty())
}

func TestDiffReportsCurrentValues(t *testing.T) {
	r, _, _ := newRecord(t, recordx.Data{"keep": 1, "change": "a", "drop": true})
	r.Reset(recordx.Data{"keep": 1, "change": "b", "add": 2})

	assert.Equal(t, recordx.Data{"change": "b", "add": 2, "drop": nil}, r.Diff())
}

func TestChanges(t *testing.T) {
	r, _, _ := newRecord(t, recordx.Data{"keep": 1, "change": "a", "drop": true})
	r.Reset(recordx.Data{"keep": 1, "change": "b", "add": 2})

	c := r.Changes()
	require.Len(t, c, 3)
	assert.Equal(t, recordx.Change{Old: "a", New: "b", Op: recordx.OpModified}, c["change"])
	assert.Equal(t, recordx.Change{New: 2, Op: recordx.OpAdded}, c["add"])
	assert.Equal(t, recordx.Change{Old: true, Op: recordx.OpRemoved}, c["drop"])
	assert.Equal(t, "modified", recordx.OpModified.String())
}

func TestChangesEncodeFalsyValues(t *testing.T) {
	r, _, _ := newRecord(t, recordx.Data{"count": 0, "flag": false})
	r.Merge(recordx.Data{"count": 1, "flag": true, "note": ""})

	out, err := json.Marshal(r.Changes())
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"count": {"old": 0, "new": 1, "op": "modified"},
		"flag": {"old": false, "new": true, "op": "modified"},
		"note": {"old": null, "new": "", "op": "added"}
	}`, string(out))
}

func TestDestroy(t *testing.T) {
	r, rec, seq := newRecord(t, recordx.Data{"id": 5, "name": "x"})

	r.Destroy()
	assert.True(t, r.IsEmpty())
	assert.True(t, r.IsNew())
	assert.Equal(t, int64(-1), r.ID())
	assert.Equal(t, int64(1), seq.Issued())
	assert.Equal(t, 1, rec.Count(recordx.EventDestroy))
	assert.Zero(t, rec.Count(recordx.EventChange))

	r.Destroy()
	assert.Equal(t, int64(-2), r.ID(), "every destroy draws a fresh identity")

	r.Set("name", "again")
	assert.Equal(t, "again", r.Get("name"), "a destroyed record stays usable")
}

func TestLenAndKeys(t *testing.T) {
	r, _, _ := newRecord(t, recordx.Data{"b": 1, "a": 2, "id": 4})
	assert.Equal(t, 2, r.Len())
	assert.Equal(t, []string{"a", "b"}, r.Keys())
}

func TestEventCarriesRecord(t *testing.T) {
	r, rec, _ := newRecord(t, nil)
	r.Set("a", 1)

	require.Len(t, rec.Events(), 1)
	assert.Same(t, r, rec.Events()[0].Arg(0))
}

func TestOnOff(t *testing.T) {
	r, _, _ := newRecord(t, nil)
	calls := 0
	sub := r.On(recordx.EventChange, func(events.Event) { calls++ })

	r.Set("a", 1)
	assert.True(t, r.Off(recordx.EventChange, sub))
	r.Set("a", 2)
	assert.Equal(t, 1, calls)
}

func TestListenerSeesStateAfterMutation(t *testing.T) {
	r, _, _ := newRecord(t, nil)
	var seen any
	r.On(recordx.EventChange, func(e events.Event) {
		seen = e.Arg(0).(*recordx.Record).Get("a")
	})

	r.Set("a", "v")
	assert.Equal(t, "v", seen)
}

func TestSharedChannel(t *testing.T) {
	bus := events.NewBus()
	a := recordx.New(nil, recordx.WithChannel(bus))
	b := recordx.New(nil, recordx.WithChannel(bus))
	assert.Same(t, bus, a.Events())

	var from []*recordx.Record
	bus.On(recordx.EventChange, func(e events.Event) {
		from = append(from, e.Arg(0).(*recordx.Record))
	})
	a.Set("x", 1)
	b.Set("x", 1)

	require.Len(t, from, 2)
	assert.Same(t, a, from[0])
	assert.Same(t, b, from[1])
}

func TestWithListenerRegisteredBeforeFirstMutation(t *testing.T) {
	calls := 0
	r := recordx.New(recordx.Data{"a": 1}, recordx.WithListener(recordx.EventChange, func(events.Event) { calls++ }))
	assert.Zero(t, calls, "construction does not emit")

	r.Set("a", 2)
	assert.Equal(t, 1, calls)
}

func TestWithLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	r := recordx.New(nil, recordx.WithLogger(logger), recordx.WithGenerator(identity.NewSequence()))
	r.Destroy()

	out := buf.String()
	assert.Contains(t, out, "assigned new identity")
	assert.Contains(t, out, "record destroyed")
	assert.Contains(t, out, "previous_id=-1")
}

func TestString(t *testing.T) {
	r := recordx.New(recordx.Data{"id": 3})
	assert.Equal(t, "record(3)", r.String())
	assert.Equal(t, recordx.DefaultKind, r.Kind())
}

// Walks the lifecycle from a persisted record through edit and revert.
func TestPersistedRecordScenario(t *testing.T) {
	r, rec, _ := newRecord(t, recordx.Data{"id": 5, "name": "x"})

	assert.False(t, r.IsNew())
	assert.Equal(t, "x", r.Get("name"))
	assert.Empty(t, r.Diff())

	r.Set("name", "y")
	assert.Equal(t, recordx.Data{"name": "y"}, r.Diff())
	assert.True(t, r.IsDirty())

	r.Revert()
	assert.Equal(t, "x", r.Get("name"))
	assert.False(t, r.IsDirty())
	assert.Equal(t, []string{recordx.EventChange, recordx.EventChange}, rec.Names())
}
