// Package pbxerr defines the error types shared by the pbxproj parser and
// object model.
package pbxerr

import (
	"errors"
	"fmt"
	"strings"
)

// Type classifies an Error.
type Type string

const (
	TypeSyntax                Type = "syntax"
	TypeMissingField          Type = "missing_field"
	TypeTypeMismatch          Type = "type_mismatch"
	TypeDanglingReference     Type = "dangling_reference"
	TypeUnsupportedSourceTree Type = "unsupported_source_tree"
	TypeUnresolvedPath        Type = "unresolved_path"
)

// Sentinels for errors.Is. Matching compares Type only.
var (
	ErrSyntax                = &Error{Type: TypeSyntax}
	ErrMissingField          = &Error{Type: TypeMissingField}
	ErrTypeMismatch          = &Error{Type: TypeTypeMismatch}
	ErrDanglingReference     = &Error{Type: TypeDanglingReference}
	ErrUnsupportedSourceTree = &Error{Type: TypeUnsupportedSourceTree}
	ErrUnresolvedPath        = &Error{Type: TypeUnresolvedPath}
)

// Error is the structured error returned by parsing and object decoding.
// Fields are populated as far as they are known at the failure site.
type Error struct {
	Type Type

	Key        string // field name
	ID         string // object identifier
	ObjectKind string // isa of the object

	Expected string
	Actual   string
	Found    string // offending token for syntax errors

	Line   int
	Column int
	Offset int

	Underlying error
}

// Syntax reports a grammar mismatch at the given position.
func Syntax(line, column, offset int, expected, found string) *Error {
	return &Error{
		Type:     TypeSyntax,
		Line:     line,
		Column:   column,
		Offset:   offset,
		Expected: expected,
		Found:    found,
	}
}

// MissingField reports an absent required key.
func MissingField(key string) *Error {
	return &Error{Type: TypeMissingField, Key: key}
}

// TypeMismatch reports a value of the wrong variant.
func TypeMismatch(key, expected, actual string) *Error {
	return &Error{Type: TypeTypeMismatch, Key: key, Expected: expected, Actual: actual}
}

// Dangling reports an identifier that is not in the object table.
func Dangling(id string) *Error {
	return &Error{Type: TypeDanglingReference, ID: id}
}

// UnsupportedSourceTree reports a source tree that path resolution cannot
// handle.
func UnsupportedSourceTree(id, tree string) *Error {
	return &Error{Type: TypeUnsupportedSourceTree, ID: id, Actual: tree}
}

// UnresolvedPath reports a group-relative reference whose parent chain could
// not be found.
func UnresolvedPath(id string) *Error {
	return &Error{Type: TypeUnresolvedPath, ID: id}
}

// WithObject records the object the error belongs to. Existing values are
// kept so the innermost object wins.
func (e *Error) WithObject(id, kind string) *Error {
	if e.ID == "" {
		e.ID = id
	}
	if e.ObjectKind == "" {
		e.ObjectKind = kind
	}
	return e
}

// WithKey records the field name if none is set yet.
func (e *Error) WithKey(key string) *Error {
	if e.Key == "" {
		e.Key = key
	}
	return e
}

// Wrap attaches an underlying cause.
func (e *Error) Wrap(err error) *Error {
	e.Underlying = err
	return e
}

func (e *Error) Error() string {
	var sb strings.Builder
	switch e.Type {
	case TypeSyntax:
		fmt.Fprintf(&sb, "syntax error at line %d, column %d (offset %d): expected %s", e.Line, e.Column, e.Offset, e.Expected)
		if e.Found != "" {
			fmt.Fprintf(&sb, ", found %q", e.Found)
		}
	case TypeMissingField:
		fmt.Fprintf(&sb, "missing field %q", e.Key)
	case TypeTypeMismatch:
		if e.Key != "" {
			fmt.Fprintf(&sb, "field %q: ", e.Key)
		}
		fmt.Fprintf(&sb, "expected %s, got %s", e.Expected, e.Actual)
	case TypeDanglingReference:
		fmt.Fprintf(&sb, "dangling reference %q", e.ID)
		return e.withCause(sb.String())
	case TypeUnsupportedSourceTree:
		fmt.Fprintf(&sb, "unsupported source tree %q for path resolution", e.Actual)
	case TypeUnresolvedPath:
		sb.WriteString("cannot resolve full path")
	default:
		sb.WriteString(string(e.Type))
	}
	if e.ID != "" {
		sb.WriteString(" (object ")
		sb.WriteString(e.ID)
		if e.ObjectKind != "" {
			sb.WriteString(" ")
			sb.WriteString(e.ObjectKind)
		}
		sb.WriteString(")")
	}
	return e.withCause(sb.String())
}

func (e *Error) withCause(msg string) string {
	if e.Underlying != nil {
		return msg + ": " + e.Underlying.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Underlying
}

// Is matches any *Error of the same Type.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Type == e.Type
}

// IsType reports whether err, or anything it wraps, is an *Error of type t.
func IsType(err error, t Type) bool {
	var pe *Error
	for err != nil {
		if !errors.As(err, &pe) {
			return false
		}
		if pe.Type == t {
			return true
		}
		err = pe.Underlying
	}
	return false
}

// As extracts the outermost *Error from err.
func As(err error) (*Error, bool) {
	var pe *Error
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}
