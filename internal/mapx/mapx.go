// Package mapx provides shallow merge, copy and diff helpers for flat
// string-keyed mappings. Values are never deep-copied: nested maps and
// slices are shared between the input and the result.
package mapx

import (
	"math"
	"reflect"
	"sort"
)

// Clone returns a shallow copy of m. A nil map yields an empty, non-nil map.
func Clone(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Merge copies every key of src onto dst and returns dst.
// A nil dst is allocated. Keys absent from src are left untouched.
func Merge(dst, src map[string]any) map[string]any {
	if dst == nil {
		dst = make(map[string]any, len(src))
	}
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

// Equal reports whether a and b hold equal values. A value is always equal
// to itself: the same func, map, slice, chan or pointer compares equal, and
// so does NaN against NaN.
func Equal(a, b any) bool {
	return identical(a, b) || reflect.DeepEqual(a, b)
}

func identical(a, b any) bool {
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if !va.IsValid() || !vb.IsValid() || va.Type() != vb.Type() {
		return false
	}
	switch va.Kind() {
	case reflect.Func, reflect.Map, reflect.Chan, reflect.Pointer, reflect.UnsafePointer:
		return va.Pointer() == vb.Pointer()
	case reflect.Slice:
		return va.Pointer() == vb.Pointer() && va.Len() == vb.Len()
	case reflect.Float32, reflect.Float64:
		return math.IsNaN(va.Float()) && math.IsNaN(vb.Float())
	}
	return false
}

// Diff returns the keys whose value differs between prev and next, mapped to
// their value in next. Keys present only in prev map to nil.
func Diff(prev, next map[string]any) map[string]any {
	out := map[string]any{}
	for k, v := range next {
		old, ok := prev[k]
		if !ok || !Equal(old, v) {
			out[k] = v
		}
	}
	for k := range prev {
		if _, ok := next[k]; !ok {
			out[k] = nil
		}
	}
	return out
}

// Op classifies a single key change.
type Op int

const (
	OpAdded Op = iota + 1
	OpRemoved
	OpModified
)

func (o Op) String() string {
	switch o {
	case OpAdded:
		return "added"
	case OpRemoved:
		return "removed"
	case OpModified:
		return "modified"
	default:
		return "unknown"
	}
}

// Pair holds the before and after value of a changed key.
type Pair struct {
	Old any
	New any
	Op  Op
}

// Pairs is Diff with the previous value kept alongside the new one.
func Pairs(prev, next map[string]any) map[string]Pair {
	out := map[string]Pair{}
	for k, v := range next {
		old, ok := prev[k]
		switch {
		case !ok:
			out[k] = Pair{New: v, Op: OpAdded}
		case !Equal(old, v):
			out[k] = Pair{Old: old, New: v, Op: OpModified}
		}
	}
	for k, old := range prev {
		if _, ok := next[k]; !ok {
			out[k] = Pair{Old: old, Op: OpRemoved}
		}
	}
	return out
}

// Keys returns the keys of m in sorted order.
func Keys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
