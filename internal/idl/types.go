package idl

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidSchema is wrapped by every error caused by a malformed interface
// description or an unresolvable reference inside one.
var ErrInvalidSchema = errors.New("invalid message schema")

// Kind is the primitive kind of a field, or KindMessage for nested messages.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindBool
	KindByte
	KindChar
	KindInt8
	KindUint8
	KindInt16
	KindUint16
	KindInt32
	KindUint32
	KindInt64
	KindUint64
	KindFloat32
	KindFloat64
	KindString
	KindMessage
)

var kindNames = [...]string{
	KindInvalid: "invalid",
	KindBool:    "bool",
	KindByte:    "byte",
	KindChar:    "char",
	KindInt8:    "int8",
	KindUint8:   "uint8",
	KindInt16:   "int16",
	KindUint16:  "uint16",
	KindInt32:   "int32",
	KindUint32:  "uint32",
	KindInt64:   "int64",
	KindUint64:  "uint64",
	KindFloat32: "float32",
	KindFloat64: "float64",
	KindString:  "string",
	KindMessage: "message",
}

// primitiveKinds maps interface-description type keywords to kinds.
var primitiveKinds = map[string]Kind{
	"bool":    KindBool,
	"byte":    KindByte,
	"char":    KindChar,
	"int8":    KindInt8,
	"uint8":   KindUint8,
	"int16":   KindInt16,
	"uint16":  KindUint16,
	"int32":   KindInt32,
	"uint32":  KindUint32,
	"int64":   KindInt64,
	"uint64":  KindUint64,
	"float32": KindFloat32,
	"float64": KindFloat64,
	"string":  KindString,
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// IsInteger reports whether k holds integral values. Byte and char count.
func (k Kind) IsInteger() bool {
	return k >= KindByte && k <= KindUint64
}

// IsSigned reports whether k is a signed integer kind. Char is signed 8-bit.
func (k Kind) IsSigned() bool {
	switch k {
	case KindChar, KindInt8, KindInt16, KindInt32, KindInt64:
		return true
	}
	return false
}

func (k Kind) IsFloat() bool { return k == KindFloat32 || k == KindFloat64 }

func (k Kind) IsNumeric() bool { return k.IsInteger() || k.IsFloat() }

// Width returns the bit width of numeric kinds and 0 otherwise.
func (k Kind) Width() int {
	switch k {
	case KindByte, KindChar, KindInt8, KindUint8:
		return 8
	case KindInt16, KindUint16:
		return 16
	case KindInt32, KindUint32, KindFloat32:
		return 32
	case KindInt64, KindUint64, KindFloat64:
		return 64
	}
	return 0
}

// ArrayMode tells whether a field is a scalar or which sort of sequence it is.
type ArrayMode uint8

const (
	Scalar ArrayMode = iota
	FixedArray
	BoundedSequence
	Sequence
)

// FieldType is the full type of a field.
type FieldType struct {
	Kind Kind
	// Message is the qualified name of the nested type when Kind is KindMessage.
	Message string
	Array   ArrayMode
	// Length is the declared length of a fixed array or the bound of a
	// bounded sequence.
	Length int
	// StringBound is the declared upper bound of a bounded string. It is
	// informational only.
	StringBound int
}

func (t FieldType) IsArray() bool { return t.Array != Scalar }

// Elem returns the scalar type of the elements of an array type.
func (t FieldType) Elem() FieldType {
	t.Array = Scalar
	t.Length = 0
	return t
}

func (t FieldType) String() string {
	var b strings.Builder
	switch t.Kind {
	case KindMessage:
		b.WriteString(t.Message)
	default:
		b.WriteString(t.Kind.String())
		if t.Kind == KindString && t.StringBound > 0 {
			fmt.Fprintf(&b, "<=%d", t.StringBound)
		}
	}
	switch t.Array {
	case FixedArray:
		fmt.Fprintf(&b, "[%d]", t.Length)
	case BoundedSequence:
		fmt.Fprintf(&b, "[<=%d]", t.Length)
	case Sequence:
		b.WriteString("[]")
	}
	return b.String()
}

// Field is one named, typed member of a message.
type Field struct {
	Name string
	Type FieldType
	// Default holds the parsed default literal, or nil when none was declared.
	// Integers are int64 or uint64, floats are float64 and arrays are []any.
	Default any
}

// Constant is a named value declared inside a message definition.
type Constant struct {
	Name  string
	Type  FieldType
	Value any
}

// Schema is the parsed description of one message type. Field order is wire
// order. A Schema is never mutated after it has been added to a Catalog.
type Schema struct {
	Name      string
	Fields    []Field
	Constants []Constant
}

// Field looks up a field by name.
func (s *Schema) Field(name string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// References returns the qualified names of nested message types, in field
// order and without duplicates.
func (s *Schema) References() []string {
	var out []string
	seen := map[string]bool{}
	for _, f := range s.Fields {
		if f.Type.Kind == KindMessage && !seen[f.Type.Message] {
			seen[f.Type.Message] = true
			out = append(out, f.Type.Message)
		}
	}
	return out
}

// Source hands out parsed schemas by qualified name.
type Source interface {
	Lookup(name string) (*Schema, bool)
}

// SplitName splits a qualified name of the form <package>/<kind>/<TypeName>.
func SplitName(name string) (pkg, kind, typeName string, err error) {
	parts := strings.Split(name, "/")
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return "", "", "", fmt.Errorf("%w: %q is not of the form <package>/<kind>/<TypeName>", ErrInvalidSchema, name)
	}
	if !identRe.MatchString(parts[0]) || !identRe.MatchString(parts[1]) || !typeNameRe.MatchString(parts[2]) {
		return "", "", "", fmt.Errorf("%w: malformed type name %q", ErrInvalidSchema, name)
	}
	return parts[0], parts[1], parts[2], nil
}

// QualifiedName joins package, kind and type name.
func QualifiedName(pkg, kind, typeName string) string {
	return pkg + "/" + kind + "/" + typeName
}
