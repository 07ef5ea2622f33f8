// Package runtime implements the tagged value model: every runtime value —
// primitive or reference — satisfies Value. Reference variants (Array,
// Object, Instance, Closure, Task) share their payload on assignment; only
// the Value wrapper is copied.
package runtime

import (
	"strconv"
	"strings"
)

// Value is satisfied by every runtime value variant.
type Value interface {
	// Type returns the tag of this value ("undefined", "number", "object",
	// ...; an Instance reports its class name).
	Type() string
	// String renders the value for diagnostics and template-literal
	// interpolation.
	String() string
}

// Undefined is the single Value representing a missing/uninitialized
// binding. Use the shared UndefinedValue rather than constructing one;
// IsFalsey and the default-parameter check recognize it by its type.
type Undefined struct{}

func (Undefined) Type() string   { return "undefined" }
func (Undefined) String() string { return "undefined" }

// UndefinedValue is the shared Undefined instance.
var UndefinedValue Value = Undefined{}

// Null is the single Value representing an explicit null.
type Null struct{}

func (Null) Type() string   { return "null" }
func (Null) String() string { return "null" }

// NullValue is the shared Null instance.
var NullValue Value = Null{}

// Bool wraps a boolean.
type Bool struct {
	Value bool
}

func (b Bool) Type() string { return "boolean" }
func (b Bool) String() string {
	if b.Value {
		return "true"
	}
	return "false"
}

// True and False are convenience constants.
var (
	True  Value = Bool{Value: true}
	False Value = Bool{Value: false}
)

// BoolOf returns True or False for b.
func BoolOf(b bool) Value {
	if b {
		return True
	}
	return False
}

// Number wraps an IEEE-754 double. Integer-typed-array elements are widened
// to double on read and narrowed on write by the (out-of-scope) typed-array
// layer; the core only ever sees float64.
type Number struct {
	Value float64
}

func (n Number) Type() string { return "number" }
func (n Number) String() string {
	if n.Value != n.Value { // NaN
		return "NaN"
	}
	return strconv.FormatFloat(n.Value, 'g', -1, 64)
}

// NumberOf is a convenience constructor.
func NumberOf(f float64) Value { return Number{Value: f} }

// Str wraps a string. (Named Str, not String, to avoid colliding with the
// Value.String() method set when embedded.)
type Str struct {
	Value string
}

func (s Str) Type() string   { return "string" }
func (s Str) String() string { return s.Value }

// StringOf is a convenience constructor.
func StringOf(s string) Value { return Str{Value: s} }

// IsFalsey implements the language's truthiness rule: undefined, null, 0,
// NaN, "", and an empty array are falsey; every other value is truthy.
func IsFalsey(v Value) bool {
	switch val := v.(type) {
	case nil:
		return true
	case Undefined:
		return true
	case Null:
		return true
	case Bool:
		return !val.Value
	case Number:
		return val.Value == 0 || val.Value != val.Value
	case Str:
		return val.Value == ""
	case *Array:
		// TODO: real JS/TS truthiness treats every array, empty or not, as
		// truthy. This core instead treats an empty array as falsey — a
		// deliberate but unforced choice, flagged here since it's the kind
		// of divergence likely to surprise someone extending this later.
		return len(val.Elements) == 0
	default:
		return false
	}
}

// Message extracts the `message: string` field every error-shaped value
// carries. Used when substituting a thrown value into user data, e.g.
// allSettled's `reason` field.
func Message(v Value) string {
	switch val := v.(type) {
	case *Instance:
		if m, ok := val.Fields["message"]; ok {
			return m.String()
		}
		return val.Class.Name() + " exception"
	case *Object:
		if m, ok := val.Get("message"); ok {
			return m.String()
		}
	case Str:
		return val.Value
	}
	if v == nil {
		return "undefined"
	}
	return v.String()
}

// formatList renders a slice of Values as a comma-joined, bracketed list —
// shared by Array and Object String() implementations.
func formatList(parts []string, open, close string) string {
	return open + strings.Join(parts, ", ") + close
}
