package model

import (
	"sort"
	"strings"
)

// Kind identifies which variant a Value holds.
type Kind int

const (
	// KindScalar is a string leaf.
	KindScalar Kind = iota
	// KindObject is a string-keyed map of Values.
	KindObject
	// KindArray is an ordered list of Values.
	KindArray
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindObject:
		return "object"
	case KindArray:
		return "array"
	default:
		return "unknown"
	}
}

// Value is the intermediate representation shared by every renderer:
// a Scalar string, an Object of named Values, or an Array of Values.
// Renderers consume Values so the logical content of every encoding is the same.
type Value struct {
	kind   Kind
	scalar string
	object map[string]Value
	array  []Value
}

// Scalar returns a scalar Value.
func Scalar(s string) Value {
	return Value{kind: KindScalar, scalar: s}
}

// Object returns an object Value. The map is copied.
func Object(members map[string]Value) Value {
	m := make(map[string]Value, len(members))
	for k, v := range members {
		m[k] = v
	}
	return Value{kind: KindObject, object: m}
}

// Array returns an array Value.
func Array(items ...Value) Value {
	a := make([]Value, len(items))
	copy(a, items)
	return Value{kind: KindArray, array: a}
}

// Kind returns the variant held by v.
func (v Value) Kind() Kind { return v.kind }

// Text returns the scalar string. It is empty for non-scalars.
func (v Value) Text() string { return v.scalar }

// Keys returns the object keys sorted ascending (byte order).
func (v Value) Keys() []string {
	keys := make([]string, 0, len(v.object))
	for k := range v.object {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Member returns the object member with the given key.
func (v Value) Member(key string) (Value, bool) {
	m, ok := v.object[key]
	return m, ok
}

// Items returns the array elements.
func (v Value) Items() []Value { return v.array }

// Len returns the number of members or items; 0 for scalars.
func (v Value) Len() int {
	switch v.kind {
	case KindObject:
		return len(v.object)
	case KindArray:
		return len(v.array)
	default:
		return 0
	}
}

// Equal reports deep equality.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindScalar:
		return v.scalar == o.scalar
	case KindObject:
		if len(v.object) != len(o.object) {
			return false
		}
		for k, m := range v.object {
			om, ok := o.object[k]
			if !ok || !m.Equal(om) {
				return false
			}
		}
		return true
	case KindArray:
		if len(v.array) != len(o.array) {
			return false
		}
		for i := range v.array {
			if !v.array[i].Equal(o.array[i]) {
				return false
			}
		}
		return true
	}
	return false
}

// String renders a compact debugging form with sorted keys.
func (v Value) String() string {
	var b strings.Builder
	v.write(&b)
	return b.String()
}

func (v Value) write(b *strings.Builder) {
	switch v.kind {
	case KindScalar:
		b.WriteString(`"` + v.scalar + `"`)
	case KindObject:
		b.WriteByte('{')
		for i, k := range v.Keys() {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(k + ": ")
			v.object[k].write(b)
		}
		b.WriteByte('}')
	case KindArray:
		b.WriteByte('[')
		for i, item := range v.array {
			if i > 0 {
				b.WriteString(", ")
			}
			item.write(b)
		}
		b.WriteByte(']')
	}
}
