package messages

import (
	"fmt"
	"strings"

	"msgbridge/internal/idl"
)

// MessageType is the generated type for one schema. It is the factory for
// its instances and is shared, read-only, by all of them.
type MessageType struct {
	schema    *idl.Schema
	index     map[string]int
	nested    []*MessageType // per field; nil unless the field is a message
	defaults  []any          // validated declared defaults; nil when absent
	constants map[string]any
	dataSlot  int // field accepting bare values, or -1
}

// Generate builds the MessageType for schema. Every nested reference must be
// present in nested, keyed by qualified name.
func Generate(schema *idl.Schema, nested map[string]*MessageType) (*MessageType, error) {
	t := &MessageType{
		schema:    schema,
		index:     make(map[string]int, len(schema.Fields)),
		nested:    make([]*MessageType, len(schema.Fields)),
		defaults:  make([]any, len(schema.Fields)),
		constants: make(map[string]any, len(schema.Constants)),
		dataSlot:  -1,
	}

	for i, f := range schema.Fields {
		if _, dup := t.index[f.Name]; dup {
			return nil, fmt.Errorf("%w: %s declares field %q twice", ErrInvalidSchema, schema.Name, f.Name)
		}
		t.index[f.Name] = i

		if f.Type.Kind == idl.KindMessage {
			nt, ok := nested[f.Type.Message]
			if !ok || nt == nil {
				return nil, fmt.Errorf("%w: %s.%s references unresolved type %s", ErrInvalidSchema, schema.Name, f.Name, f.Type.Message)
			}
			t.nested[i] = nt
			continue
		}
		if f.Default != nil {
			v, err := coerceField(f.Name, f.Type, nil, f.Default)
			if err != nil {
				return nil, fmt.Errorf("%w: %s default: %v", ErrInvalidSchema, schema.Name, err)
			}
			t.defaults[i] = v
		}
	}

	for _, c := range schema.Constants {
		v, err := coerceScalar(c.Name, c.Type.Kind, c.Value)
		if err != nil {
			return nil, fmt.Errorf("%w: %s constant: %v", ErrInvalidSchema, schema.Name, err)
		}
		t.constants[c.Name] = v
	}

	t.dataSlot = findDataSlot(schema)
	return t, nil
}

// findDataSlot picks the field that takes a bare value: the only field of a
// primitive wrapper, or the data sequence of a layout+data array type.
func findDataSlot(s *idl.Schema) int {
	switch len(s.Fields) {
	case 1:
		if s.Fields[0].Name == "data" {
			return 0
		}
	case 2:
		l, d := s.Fields[0], s.Fields[1]
		if l.Name == "layout" && l.Type.Message == LayoutTypeName && !l.Type.IsArray() &&
			d.Name == "data" && d.Type.IsArray() {
			return 1
		}
	}
	return -1
}

// Name returns the qualified name, such as "std_msgs/msg/Int8".
func (t *MessageType) Name() string { return t.schema.Name }

// Schema returns the shared schema. Callers must not modify it.
func (t *MessageType) Schema() *idl.Schema { return t.schema }

// Fields returns the schema fields in wire order.
func (t *MessageType) Fields() []idl.Field { return t.schema.Fields }

// Nested returns the generated type of a message-valued field.
func (t *MessageType) Nested(field string) (*MessageType, bool) {
	i, ok := t.index[field]
	if !ok || t.nested[i] == nil {
		return nil, false
	}
	return t.nested[i], true
}

// Constant returns a constant declared by the schema.
func (t *MessageType) Constant(name string) (any, bool) {
	v, ok := t.constants[name]
	return v, ok
}

// New returns an instance with every field at its declared default or the
// zero value of its kind.
func (t *MessageType) New() *Instance {
	m := &Instance{typ: t, values: make([]any, len(t.schema.Fields))}
	for i := range t.schema.Fields {
		m.values[i] = t.defaultValue(i)
	}
	return m
}

func (t *MessageType) defaultValue(i int) any {
	if d := t.defaults[i]; d != nil {
		return cloneValue(d)
	}
	return zeroValue(t.schema.Fields[i].Type, t.nested[i])
}

func (t *MessageType) String() string { return t.schema.Name }

// Instance is one value of a generated message type. It owns all of its field
// storage; nested instances and buffers are never shared with another
// instance.
type Instance struct {
	typ    *MessageType
	values []any
}

// Type returns the generated type m belongs to.
func (m *Instance) Type() *MessageType { return m.typ }

// Get returns the stored value of a field. Nested instances and slices are the
// instance's own storage; modifying them modifies m.
func (m *Instance) Get(name string) (any, error) {
	i, ok := m.typ.index[name]
	if !ok {
		return nil, &FieldTypeError{Field: name, Value: nil, Want: "a field of " + m.typ.Name()}
	}
	return m.values[i], nil
}

// Set validates v with the marshaling rules of the field and stores a copy.
// A nil v resets the field to its default, as it does inside a record.
func (m *Instance) Set(name string, v any) error {
	i, ok := m.typ.index[name]
	if !ok {
		return &FieldTypeError{Field: name, Value: v, Want: "a field of " + m.typ.Name()}
	}
	if v == nil {
		m.values[i] = m.typ.defaultValue(i)
		return nil
	}
	nv, err := coerceField(name, m.typ.schema.Fields[i].Type, m.typ.nested[i], v)
	if err != nil {
		return err
	}
	m.values[i] = nv
	return nil
}

// Copy deep-copies every field of src into m.
func (m *Instance) Copy(src *Instance) error {
	if src == nil || src.typ != m.typ {
		return fmt.Errorf("%w: cannot copy %v into %s", ErrTypeMismatch, typeName(src), m.typ.Name())
	}
	for i, v := range src.values {
		m.values[i] = cloneValue(v)
	}
	return nil
}

// Clone returns an independent deep copy of m.
func (m *Instance) Clone() *Instance {
	c := &Instance{typ: m.typ, values: make([]any, len(m.values))}
	for i, v := range m.values {
		c.values[i] = cloneValue(v)
	}
	return c
}

// Equal reports whether o has the same type and equal field values.
func (m *Instance) Equal(o *Instance) bool {
	if m == nil || o == nil {
		return m == o
	}
	if m.typ != o.typ {
		return false
	}
	for i := range m.values {
		if !valuesEqual(m.values[i], o.values[i]) {
			return false
		}
	}
	return true
}

func (m *Instance) String() string {
	var b strings.Builder
	b.WriteString(m.typ.Name())
	b.WriteByte('{')
	for i, f := range m.typ.schema.Fields {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s: %v", f.Name, m.values[i])
	}
	b.WriteByte('}')
	return b.String()
}

func typeName(m *Instance) string {
	if m == nil {
		return "<nil>"
	}
	return m.typ.Name()
}
