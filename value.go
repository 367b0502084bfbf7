// Package ccljson implements a forgiving JSON parser: a lexer and two
// parser variants (recursive-descent and explicit-stack) that accept both
// strict JSON (RFC 8259) and a documented superset of relaxed syntaxes
// common in hand-authored configuration — comments, trailing commas,
// single-quoted strings, unquoted keys, implicit top-level containers,
// newline-as-separator, extended number literals, and bounded error
// repair.
//
// Allocator contract: the value tree is the dominant allocator. There is
// no arena and no zero-copy string type; every String value and every
// Object key is an owned Go string. Number conversion and string
// unescaping happen during parsing, not ahead of time, but the resulting
// Value owns all of its data once returned — the parser retains nothing.
package ccljson

import (
	"fmt"
	"strconv"
)

// Kind identifies which alternative of the Value sum type is populated.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindArray
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "Null"
	case KindBool:
		return "Bool"
	case KindNumber:
		return "Number"
	case KindString:
		return "String"
	case KindArray:
		return "Array"
	case KindObject:
		return "Object"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// NumberKind distinguishes the two alternatives of Number.
type NumberKind int

const (
	NumberInteger NumberKind = iota
	NumberFloat
)

// Number is a bimodal numeric value: either a signed 64-bit integer or an
// IEEE-754 binary64 float, never an arbitrary-precision decimal. A literal
// becomes Integer iff it has no fractional part, no exponent, and fits in
// int64; otherwise it becomes Float. This is a documented limitation
// (spec §9): values that are integral but don't fit int64 become Float
// with whatever precision binary64 provides.
type Number struct {
	kind NumberKind
	i    int64
	f    float64
}

// IntNumber constructs an Integer Number.
func IntNumber(i int64) Number { return Number{kind: NumberInteger, i: i} }

// FloatNumber constructs a Float Number.
func FloatNumber(f float64) Number { return Number{kind: NumberFloat, f: f} }

// Kind reports whether n is Integer or Float.
func (n Number) Kind() NumberKind { return n.kind }

// Int64 returns the integer value. It is only meaningful when Kind() == NumberInteger.
func (n Number) Int64() int64 { return n.i }

// Float64 returns the float value, widening an Integer if needed.
func (n Number) Float64() float64 {
	if n.kind == NumberInteger {
		return float64(n.i)
	}
	return n.f
}

func (n Number) String() string {
	if n.kind == NumberInteger {
		return strconv.FormatInt(n.i, 10)
	}
	return strconv.FormatFloat(n.f, 'g', -1, 64)
}

// Equal reports whether n and other represent the same number, used by
// cmp.Diff in tests (grounded on the teacher's use of go-cmp for
// structural value comparison).
func (n Number) Equal(other Number) bool {
	return n.kind == other.kind && n.i == other.i && n.f == other.f
}

// Value is a tagged union over Null, Bool, Number, String, Array and
// Object. The zero Value is Null. Once returned from a parse, a Value is
// immutable in contract; the parser never observes mutation after return.
type Value struct {
	kind Kind
	b    bool
	n    Number
	s    string
	arr  []Value
	obj  *Object
}

// NullValue returns the Null value.
func NullValue() Value { return Value{kind: KindNull} }

// BoolValue wraps a boolean.
func BoolValue(b bool) Value { return Value{kind: KindBool, b: b} }

// NumberValue wraps a Number.
func NumberValue(n Number) Value { return Value{kind: KindNumber, n: n} }

// StringValue wraps a string. The caller's string must already be valid UTF-8;
// the parser enforces this at construction time, per spec §3's invariant.
func StringValue(s string) Value { return Value{kind: KindString, s: s} }

// ArrayValue wraps an ordered slice of values.
func ArrayValue(vs []Value) Value { return Value{kind: KindArray, arr: vs} }

// ObjectValue wraps an insertion-ordered Object.
func ObjectValue(o *Object) Value { return Value{kind: KindObject, obj: o} }

// Kind reports which alternative is populated.
func (v Value) Kind() Kind { return v.kind }

// Bool returns the boolean payload; meaningful only when Kind() == KindBool.
func (v Value) Bool() bool { return v.b }

// Number returns the numeric payload; meaningful only when Kind() == KindNumber.
func (v Value) Number() Number { return v.n }

// Str returns the string payload; meaningful only when Kind() == KindString.
func (v Value) Str() string { return v.s }

// Array returns the element slice; meaningful only when Kind() == KindArray.
func (v Value) Array() []Value { return v.arr }

// Object returns the object payload; meaningful only when Kind() == KindObject.
func (v Value) Object() *Object { return v.obj }

// Equal implements the shape cmp.Diff looks for (an Equal(T) bool method),
// so tests can diff Value trees directly with go-cmp without needing
// cmp.AllowUnexported (grounded on the teacher's exclusive use of go-cmp
// for comparing its own parsed output in ccl_test.go/asspb_test.go).
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindBool:
		return v.b == other.b
	case KindNumber:
		return v.n.Equal(other.n)
	case KindString:
		return v.s == other.s
	case KindArray:
		if len(v.arr) != len(other.arr) {
			return false
		}
		for i := range v.arr {
			if !v.arr[i].Equal(other.arr[i]) {
				return false
			}
		}
		return true
	case KindObject:
		return v.obj.Equal(other.obj)
	default:
		return false
	}
}

func (v Value) String() string {
	switch v.kind {
	case KindNull:
		return "null"
	case KindBool:
		if v.b {
			return "true"
		}
		return "false"
	case KindNumber:
		return v.n.String()
	case KindString:
		return strconv.Quote(v.s)
	case KindArray:
		return fmt.Sprintf("Array(%d)", len(v.arr))
	case KindObject:
		return fmt.Sprintf("Object(%d)", v.obj.Len())
	default:
		return "<invalid>"
	}
}

// entry is one key/value pair of an Object, in insertion order.
type entry struct {
	key   string
	value Value
}

// Object is an insertion-ordered mapping from string keys to Values.
// Duplicate keys observed while building an Object are resolved last-wins
// (spec §3); streaming callers instead see every Key/Value event in
// order, duplicates included (see stream.Parser).
//
// The zero Object is not usable; construct one with NewObject.
type Object struct {
	entries []entry
	index   map[string]int
}

// NewObject returns an empty Object ready for Set.
func NewObject() *Object {
	return &Object{index: make(map[string]int)}
}

// Set inserts or overwrites key with value. An existing key keeps its
// original position; a new key is appended, preserving insertion order.
func (o *Object) Set(key string, value Value) {
	if i, ok := o.index[key]; ok {
		o.entries[i].value = value
		return
	}
	o.index[key] = len(o.entries)
	o.entries = append(o.entries, entry{key: key, value: value})
}

// Get returns the value for key and whether it was present.
func (o *Object) Get(key string) (Value, bool) {
	i, ok := o.index[key]
	if !ok {
		return Value{}, false
	}
	return o.entries[i].value, true
}

// Len returns the number of distinct keys.
func (o *Object) Len() int { return len(o.entries) }

// Keys returns the keys in insertion order. The returned slice is owned
// by the caller.
func (o *Object) Keys() []string {
	keys := make([]string, len(o.entries))
	for i, e := range o.entries {
		keys[i] = e.key
	}
	return keys
}

// Range calls f for every key/value pair in insertion order, stopping
// early if f returns false.
func (o *Object) Range(f func(key string, value Value) bool) {
	for _, e := range o.entries {
		if !f(e.key, e.value) {
			return
		}
	}
}

// Equal reports whether o and other have the same keys, in the same
// order, with equal values — used by Value.Equal and directly by tests.
func (o *Object) Equal(other *Object) bool {
	if o == nil || other == nil {
		return o == other
	}
	if len(o.entries) != len(other.entries) {
		return false
	}
	for i, e := range o.entries {
		oe := other.entries[i]
		if e.key != oe.key || !e.value.Equal(oe.value) {
			return false
		}
	}
	return true
}
