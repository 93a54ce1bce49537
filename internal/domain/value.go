package domain

import (
	"sort"
	"strconv"
)

// Value is a single parameter value: either a scalar or a nested mapping of
// sub-keys to scalars (used for AMOUNTS and similar composite fields).
type Value struct {
	scalar string
	nested map[string]string
}

// String returns a scalar value holding s verbatim.
func String(s string) Value {
	return Value{scalar: s}
}

// Int renders i in base 10. Amounts are always minor-unit integers.
func Int(i int64) Value {
	return Value{scalar: strconv.FormatInt(i, 10)}
}

// Nested returns a composite value. The map is copied.
func Nested(entries map[string]string) Value {
	cp := make(map[string]string, len(entries))
	for k, v := range entries {
		cp[k] = v
	}
	return Value{nested: cp}
}

// IsNested reports whether v holds a sub-key mapping.
func (v Value) IsNested() bool {
	return v.nested != nil
}

// String returns the scalar text of v. Nested values have no scalar text.
func (v Value) String() string {
	return v.scalar
}

// SubKeys returns the nested sub-keys in ascending byte order.
func (v Value) SubKeys() []string {
	keys := make([]string, 0, len(v.nested))
	for k := range v.nested {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Sub returns one nested entry.
func (v Value) Sub(key string) (string, bool) {
	s, ok := v.nested[key]
	return s, ok
}
