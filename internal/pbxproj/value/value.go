// Package value is the generic tree a pbxproj file parses into.
package value

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dejo1307/xcodemcp/internal/pbxproj/kind"
	"github.com/dejo1307/xcodemcp/internal/pbxproj/pbxerr"
)

// Type is the variant held by a Value.
type Type uint8

const (
	TypeInvalid Type = iota
	TypeString
	TypeObject
	TypeArray
	TypeNumber
	TypeBool
	TypeKind
)

// String returns the lower-case variant name used in error messages.
func (t Type) String() string {
	switch t {
	case TypeString:
		return "string"
	case TypeObject:
		return "object"
	case TypeArray:
		return "array"
	case TypeNumber:
		return "number"
	case TypeBool:
		return "bool"
	case TypeKind:
		return "kind"
	default:
		return "invalid"
	}
}

// Value is one parsed pbxproj value. Only the field matching typ is set.
type Value struct {
	typ  Type
	str  string
	num  int64
	b    bool
	kind kind.Kind
	obj  Map
	arr  []Value
}

// String builds a string value.
func String(s string) Value { return Value{typ: TypeString, str: s} }

// Number builds a number value.
func Number(n int64) Value { return Value{typ: TypeNumber, num: n} }

// Bool builds a YES/NO value.
func Bool(b bool) Value { return Value{typ: TypeBool, b: b} }

// KindOf builds a value holding a classified isa.
func KindOf(k kind.Kind) Value { return Value{typ: TypeKind, kind: k} }

// Object wraps a map.
func Object(m Map) Value { return Value{typ: TypeObject, obj: m} }

// Array builds an array of items.
func Array(items ...Value) Value { return Value{typ: TypeArray, arr: items} }

// Strings builds an array of string values.
func Strings(ss ...string) Value {
	items := make([]Value, len(ss))
	for i, s := range ss {
		items[i] = String(s)
	}
	return Array(items...)
}

// Type returns the variant of v.
func (v Value) Type() Type { return v.typ }

// AsString returns the text of a String value. Kind values yield their
// canonical isa string.
func (v Value) AsString() (string, bool) {
	switch v.typ {
	case TypeString:
		return v.str, true
	case TypeKind:
		return v.kind.String(), true
	}
	return "", false
}

// AsNumber returns the integer held by v.
func (v Value) AsNumber() (int64, bool) {
	if v.typ != TypeNumber {
		return 0, false
	}
	return v.num, true
}

// AsBool accepts a Bool value or a Number, which is true only when it is 1.
func (v Value) AsBool() (bool, bool) {
	switch v.typ {
	case TypeBool:
		return v.b, true
	case TypeNumber:
		return v.num == 1, true
	}
	return false, false
}

// AsKind accepts a Kind value or a String, which is classified.
func (v Value) AsKind() (kind.Kind, bool) {
	switch v.typ {
	case TypeKind:
		return v.kind, true
	case TypeString:
		return kind.Classify(v.str), true
	}
	return kind.Kind{}, false
}

// AsObject returns the map held by v.
func (v Value) AsObject() (Map, bool) {
	if v.typ != TypeObject {
		return nil, false
	}
	return v.obj, true
}

// AsArray returns the elements held by v.
func (v Value) AsArray() ([]Value, bool) {
	if v.typ != TypeArray {
		return nil, false
	}
	return v.arr, true
}

// AsStrings returns an array whose elements are all strings.
func (v Value) AsStrings() ([]string, bool) {
	if v.typ != TypeArray {
		return nil, false
	}
	out := make([]string, 0, len(v.arr))
	for _, item := range v.arr {
		s, ok := item.AsString()
		if !ok {
			return nil, false
		}
		out = append(out, s)
	}
	return out, true
}

// TryString is AsString with a TypeMismatch error naming both variants.
func (v Value) TryString() (string, error) {
	if s, ok := v.AsString(); ok {
		return s, nil
	}
	return "", v.mismatch(TypeString)
}

// TryNumber is the hard form of AsNumber.
func (v Value) TryNumber() (int64, error) {
	if n, ok := v.AsNumber(); ok {
		return n, nil
	}
	return 0, v.mismatch(TypeNumber)
}

// TryBool is the hard form of AsBool.
func (v Value) TryBool() (bool, error) {
	if b, ok := v.AsBool(); ok {
		return b, nil
	}
	return false, v.mismatch(TypeBool)
}

// TryKind is the hard form of AsKind.
func (v Value) TryKind() (kind.Kind, error) {
	if k, ok := v.AsKind(); ok {
		return k, nil
	}
	return kind.Kind{}, v.mismatch(TypeKind)
}

// TryObject is the hard form of AsObject.
func (v Value) TryObject() (Map, error) {
	if m, ok := v.AsObject(); ok {
		return m, nil
	}
	return nil, v.mismatch(TypeObject)
}

// TryArray is the hard form of AsArray.
func (v Value) TryArray() ([]Value, error) {
	if a, ok := v.AsArray(); ok {
		return a, nil
	}
	return nil, v.mismatch(TypeArray)
}

// TryStrings is the hard form of AsStrings.
func (v Value) TryStrings() ([]string, error) {
	if ss, ok := v.AsStrings(); ok {
		return ss, nil
	}
	return nil, pbxerr.TypeMismatch("", "array of strings", v.describe())
}

func (v Value) mismatch(want Type) *pbxerr.Error {
	return pbxerr.TypeMismatch("", want.String(), v.describe())
}

func (v Value) describe() string {
	if v.typ == TypeArray {
		for _, item := range v.arr {
			if item.typ != TypeString && item.typ != TypeKind {
				return "array of " + item.typ.String()
			}
		}
	}
	return v.typ.String()
}

// Equal reports deep equality.
func (v Value) Equal(o Value) bool {
	if v.typ != o.typ {
		return false
	}
	switch v.typ {
	case TypeString:
		return v.str == o.str
	case TypeNumber:
		return v.num == o.num
	case TypeBool:
		return v.b == o.b
	case TypeKind:
		return v.kind == o.kind
	case TypeObject:
		return v.obj.Equal(o.obj)
	case TypeArray:
		if len(v.arr) != len(o.arr) {
			return false
		}
		for i := range v.arr {
			if !v.arr[i].Equal(o.arr[i]) {
				return false
			}
		}
		return true
	}
	return true
}

// Interface converts v to plain Go values (string, int64, bool,
// map[string]any, []any) for JSON encoding.
func (v Value) Interface() any {
	switch v.typ {
	case TypeString:
		return v.str
	case TypeNumber:
		return v.num
	case TypeBool:
		return v.b
	case TypeKind:
		return v.kind.String()
	case TypeObject:
		return v.obj.Interface()
	case TypeArray:
		out := make([]any, len(v.arr))
		for i, item := range v.arr {
			out[i] = item.Interface()
		}
		return out
	}
	return nil
}

// String renders v for logs and error messages.
func (v Value) String() string {
	switch v.typ {
	case TypeString:
		return strconv.Quote(v.str)
	case TypeNumber:
		return strconv.FormatInt(v.num, 10)
	case TypeBool:
		if v.b {
			return "YES"
		}
		return "NO"
	case TypeKind:
		return v.kind.String()
	case TypeObject:
		var sb strings.Builder
		sb.WriteString("{")
		for i, k := range v.obj.Keys() {
			if i > 0 {
				sb.WriteString(" ")
			}
			fmt.Fprintf(&sb, "%s = %s;", k, v.obj[k].String())
		}
		sb.WriteString("}")
		return sb.String()
	case TypeArray:
		parts := make([]string, len(v.arr))
		for i, item := range v.arr {
			parts[i] = item.String()
		}
		return "(" + strings.Join(parts, ", ") + ")"
	}
	return "<invalid>"
}
