package bridge

import (
	"reflect"
	"regexp"
	"time"
)

// PassThrough marks a type as a structured-clone pass-through: an instance
// conveyed by reference/identity rather than by field-by-field traversal.
// Implement it on types that should cross the wire as opaque leaf values —
// the Go-native hook for the host-environment built-ins (Date, RegExp,
// Map, Set, typed arrays, Blob, File, ImageData, ...) that comlink-style
// systems recognise natively.
type PassThrough interface {
	// PassThrough is a marker method; its body is never called.
	PassThrough()
}

// builtin pass-through types recognised without the PassThrough interface.
var (
	timeType   = reflect.TypeFor[time.Time]()
	regexpType = reflect.TypeFor[*regexp.Regexp]()
	bytesType  = reflect.TypeFor[[]byte]()
)

// isStructuredClonePassThrough reports whether v is a leaf for traversal
// purposes: its internals are never walked and it is reused by reference in
// the value snapshot.
func isStructuredClonePassThrough(v reflect.Value) bool {
	if !v.IsValid() {
		return false
	}
	t := v.Type()
	switch {
	case t == timeType, t == regexpType, t == bytesType:
		return true
	}
	if v.CanInterface() {
		if _, ok := v.Interface().(PassThrough); ok {
			return true
		}
	}
	return false
}

// brandTag returns the host-environment structural tag used to distinguish
// built-ins and composite kinds during traversal and error messages.
func brandTag(v reflect.Value) string {
	if !v.IsValid() {
		return "nil"
	}
	switch {
	case isStructuredClonePassThrough(v):
		t := v.Type()
		switch {
		case t == timeType:
			return "time"
		case t == regexpType:
			return "regexp"
		case t == bytesType:
			return "bytes"
		default:
			return "passthrough"
		}
	}
	switch v.Kind() {
	case reflect.Map:
		return "map"
	case reflect.Slice, reflect.Array:
		return "slice"
	case reflect.Struct:
		return "struct"
	case reflect.Ptr, reflect.Interface:
		if v.IsNil() {
			return "nil"
		}
		return brandTag(v.Elem())
	case reflect.Func:
		return "func"
	default:
		return "primitive"
	}
}

// isObject reports whether v has compound, non-function identity: a map,
// slice, array, struct, or a non-nil pointer to one of those (including
// pass-through built-ins, which are objects but traversal leaves).
func isObject(v reflect.Value) bool {
	if !v.IsValid() {
		return false
	}
	for v.Kind() == reflect.Ptr || v.Kind() == reflect.Interface {
		if v.IsNil() {
			return false
		}
		v = v.Elem()
	}
	switch v.Kind() {
	case reflect.Map, reflect.Slice, reflect.Array, reflect.Struct:
		return true
	default:
		return false
	}
}

// deref follows pointers and interfaces down to the underlying value,
// stopping at the first nil.
func deref(v reflect.Value) reflect.Value {
	for v.IsValid() && (v.Kind() == reflect.Ptr || v.Kind() == reflect.Interface) {
		if v.IsNil() {
			return reflect.Value{}
		}
		v = v.Elem()
	}
	return v
}
