package recordx

import (
	"encoding/json"
	"math"
	"reflect"
	"strconv"
)

// Truthy reports whether v counts as set for Get.
//
// nil, false, numeric zero, NaN and "" are falsy, as are nil pointers, maps,
// slices, channels and funcs. Everything else, including empty non-nil maps
// and slices, is truthy.
func Truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case string:
		return x != ""
	case int:
		return x != 0
	case int8:
		return x != 0
	case int16:
		return x != 0
	case int32:
		return x != 0
	case int64:
		return x != 0
	case uint:
		return x != 0
	case uint8:
		return x != 0
	case uint16:
		return x != 0
	case uint32:
		return x != 0
	case uint64:
		return x != 0
	case float32:
		return x != 0 && !math.IsNaN(float64(x))
	case float64:
		return x != 0 && !math.IsNaN(x)
	case json.Number:
		f, err := x.Float64()
		return x != "" && (err != nil || (f != 0 && !math.IsNaN(f)))
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func, reflect.Interface:
		return !rv.IsNil()
	}
	return true
}

// parseIdentity converts an identity field value to int64. ok is false when
// v does not hold an integer.
func parseIdentity(v any) (id int64, ok bool) {
	switch x := v.(type) {
	case int:
		return int64(x), true
	case int8:
		return int64(x), true
	case int16:
		return int64(x), true
	case int32:
		return int64(x), true
	case int64:
		return x, true
	case uint:
		return fromUnsigned(uint64(x))
	case uint8:
		return int64(x), true
	case uint16:
		return int64(x), true
	case uint32:
		return int64(x), true
	case uint64:
		return fromUnsigned(x)
	case float32:
		return fromFloat(float64(x))
	case float64:
		return fromFloat(x)
	case json.Number:
		if n, err := x.Int64(); err == nil {
			return n, true
		}
		f, err := x.Float64()
		if err != nil {
			return 0, false
		}
		return fromFloat(f)
	case string:
		n, err := strconv.ParseInt(x, 10, 64)
		return n, err == nil
	}
	return 0, false
}

func fromUnsigned(u uint64) (int64, bool) {
	if u > math.MaxInt64 {
		return 0, false
	}
	return int64(u), true
}

func fromFloat(f float64) (int64, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	if f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, false
	}
	return int64(f), true
}

// identityOf extracts a usable identity from data. adopt is true for any
// truthy value holding an integer, so the string "0" adopts identity 0;
// invalid is true when the field is present and truthy but not an integer.
func identityOf(data Data) (id int64, adopt, invalid bool) {
	v, present := data[IdentityKey]
	if !present || !Truthy(v) {
		return 0, false, false
	}
	id, ok := parseIdentity(v)
	if !ok {
		return 0, false, true
	}
	return id, true, false
}
