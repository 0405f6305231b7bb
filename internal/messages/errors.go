package messages

import (
	"errors"
	"fmt"

	"msgbridge/internal/idl"
)

var (
	// ErrUnknownType is returned when no schema exists for a qualified name.
	ErrUnknownType = errors.New("unknown message type")
	// ErrCyclicSchema is returned when a type nests itself, directly or
	// through other types.
	ErrCyclicSchema = errors.New("cyclic message schema")
	// ErrInvalidSchema is returned for malformed descriptors and for nested
	// references that cannot be resolved.
	ErrInvalidSchema = idl.ErrInvalidSchema
	// ErrTypeMismatch is returned when an instance of one type is copied into
	// an instance of another.
	ErrTypeMismatch = errors.New("message type mismatch")
)

// FieldTypeError reports a value of the wrong shape or kind for a field.
type FieldTypeError struct {
	Field string
	Value any
	Want  string
}

func (e *FieldTypeError) Error() string {
	return fmt.Sprintf("field %s: %s value %v is not %s", fieldLabel(e.Field), typeOf(e.Value), e.Value, e.Want)
}

// FieldRangeError reports a numeric value outside the domain of its kind.
type FieldRangeError struct {
	Field      string
	Value      any
	Constraint string
}

func (e *FieldRangeError) Error() string {
	return fmt.Sprintf("field %s: value %v violates %s", fieldLabel(e.Field), e.Value, e.Constraint)
}

// FixedArrayLengthError reports a sequence whose length differs from the
// declared length of a fixed array.
type FixedArrayLengthError struct {
	Field string
	Got   int
	Want  int
}

func (e *FixedArrayLengthError) Error() string {
	return fmt.Sprintf("field %s: fixed array needs %d elements, got %d", fieldLabel(e.Field), e.Want, e.Got)
}

// SequenceBoundError reports a sequence longer than its declared bound.
type SequenceBoundError struct {
	Field string
	Got   int
	Bound int
}

func (e *SequenceBoundError) Error() string {
	return fmt.Sprintf("field %s: sequence holds at most %d elements, got %d", fieldLabel(e.Field), e.Bound, e.Got)
}

func fieldLabel(path string) string {
	if path == "" {
		return "<root>"
	}
	return path
}

func typeOf(v any) string {
	if v == nil {
		return "nil"
	}
	return fmt.Sprintf("%T", v)
}

func joinPath(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "." + name
}

func indexPath(prefix string, i int) string {
	return fmt.Sprintf("%s[%d]", prefix, i)
}
