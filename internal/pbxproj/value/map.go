package value

import (
	"sort"

	"github.com/dejo1307/xcodemcp/internal/pbxproj/kind"
	"github.com/dejo1307/xcodemcp/internal/pbxproj/pbxerr"
)

// Map is a pbxproj object: field name to value. Accessors never modify the
// map, so façades can read the same map repeatedly.
type Map map[string]Value

// Has reports whether key is present.
func (m Map) Has(key string) bool {
	_, ok := m[key]
	return ok
}

// Get returns the raw value for key.
func (m Map) Get(key string) (Value, bool) {
	v, ok := m[key]
	return v, ok
}

// Keys returns the field names in sorted order.
func (m Map) Keys() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Isa classifies the object's isa field. Objects without one classify as
// an empty unknown kind.
func (m Map) Isa() kind.Kind {
	if k, ok := m.Kind("isa"); ok {
		return k
	}
	return kind.Unknown("")
}

// String returns the string at key; false when absent or not a string.
func (m Map) String(key string) (string, bool) {
	v, ok := m[key]
	if !ok {
		return "", false
	}
	return v.AsString()
}

// Strings returns the array at key when every element is a string.
func (m Map) Strings(key string) ([]string, bool) {
	v, ok := m[key]
	if !ok {
		return nil, false
	}
	return v.AsStrings()
}

// Number returns the integer at key.
func (m Map) Number(key string) (int64, bool) {
	v, ok := m[key]
	if !ok {
		return 0, false
	}
	return v.AsNumber()
}

// Bool reads YES/NO or a number compared against 1.
func (m Map) Bool(key string) (bool, bool) {
	v, ok := m[key]
	if !ok {
		return false, false
	}
	return v.AsBool()
}

// Kind classifies the isa-like string at key.
func (m Map) Kind(key string) (kind.Kind, bool) {
	v, ok := m[key]
	if !ok {
		return kind.Kind{}, false
	}
	return v.AsKind()
}

// Object returns the nested map at key.
func (m Map) Object(key string) (Map, bool) {
	v, ok := m[key]
	if !ok {
		return nil, false
	}
	return v.AsObject()
}

// Array returns the array at key.
func (m Map) Array(key string) ([]Value, bool) {
	v, ok := m[key]
	if !ok {
		return nil, false
	}
	return v.AsArray()
}

// StringOr returns the string at key or def.
func (m Map) StringOr(key, def string) string {
	if s, ok := m.String(key); ok {
		return s
	}
	return def
}

// BoolOr returns the bool at key or def.
func (m Map) BoolOr(key string, def bool) bool {
	if b, ok := m.Bool(key); ok {
		return b
	}
	return def
}

// NumberOr returns the number at key or def.
func (m Map) NumberOr(key string, def int64) int64 {
	if n, ok := m.Number(key); ok {
		return n
	}
	return def
}

// TryString is String for required fields: a missing key is a
// MissingField error, a wrong variant a TypeMismatch naming the key.
func (m Map) TryString(key string) (string, error) {
	v, err := m.require(key)
	if err != nil {
		return "", err
	}
	s, err := v.TryString()
	return s, keyed(err, key)
}

// TryStrings is the required form of Strings.
func (m Map) TryStrings(key string) ([]string, error) {
	v, err := m.require(key)
	if err != nil {
		return nil, err
	}
	ss, err := v.TryStrings()
	return ss, keyed(err, key)
}

// TryNumber is the required form of Number.
func (m Map) TryNumber(key string) (int64, error) {
	v, err := m.require(key)
	if err != nil {
		return 0, err
	}
	n, err := v.TryNumber()
	return n, keyed(err, key)
}

// TryBool is the required form of Bool.
func (m Map) TryBool(key string) (bool, error) {
	v, err := m.require(key)
	if err != nil {
		return false, err
	}
	b, err := v.TryBool()
	return b, keyed(err, key)
}

// TryKind is the required form of Kind.
func (m Map) TryKind(key string) (kind.Kind, error) {
	v, err := m.require(key)
	if err != nil {
		return kind.Kind{}, err
	}
	k, err := v.TryKind()
	return k, keyed(err, key)
}

// TryObject is the required form of Object.
func (m Map) TryObject(key string) (Map, error) {
	v, err := m.require(key)
	if err != nil {
		return nil, err
	}
	o, err := v.TryObject()
	return o, keyed(err, key)
}

// TryArray is the required form of Array.
func (m Map) TryArray(key string) ([]Value, error) {
	v, err := m.require(key)
	if err != nil {
		return nil, err
	}
	a, err := v.TryArray()
	return a, keyed(err, key)
}

func (m Map) require(key string) (Value, error) {
	v, ok := m[key]
	if !ok {
		return Value{}, pbxerr.MissingField(key)
	}
	return v, nil
}

func keyed(err error, key string) error {
	if err == nil {
		return nil
	}
	if pe, ok := err.(*pbxerr.Error); ok {
		return pe.WithKey(key)
	}
	return err
}

// Equal reports deep equality of two maps.
func (m Map) Equal(o Map) bool {
	if len(m) != len(o) {
		return false
	}
	for k, v := range m {
		ov, ok := o[k]
		if !ok || !v.Equal(ov) {
			return false
		}
	}
	return true
}

// Interface converts the map to map[string]any.
func (m Map) Interface() map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v.Interface()
	}
	return out
}
