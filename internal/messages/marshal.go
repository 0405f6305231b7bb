package messages

import (
	"reflect"
	"sort"

	"msgbridge/internal/idl"
)

// Recorder is implemented by Go values that can present themselves as a
// record, such as Layout and Dimension.
type Recorder interface {
	Record() map[string]any
}

// Marshaler converts untyped application values into validated instances and
// back. Types are looked up in the registry it was built with.
type Marshaler struct {
	reg *Registry
}

// NewMarshaler returns a marshaler resolving types through reg.
func NewMarshaler(reg *Registry) *Marshaler {
	return &Marshaler{reg: reg}
}

// Registry returns the registry types are resolved from.
func (ms *Marshaler) Registry() *Registry { return ms.reg }

// ToMessage resolves typeName and converts input into an instance of it.
func (ms *Marshaler) ToMessage(typeName string, input any) (*Instance, error) {
	t, err := ms.reg.Resolve(typeName)
	if err != nil {
		return nil, err
	}
	return ms.ToInstance(t, input)
}

// ToInstance converts input into an instance of t. Input may be a record
// (map[string]any or a Recorder), an *Instance of t, or, for types with a
// data slot, the bare value of that slot. A nil input, like a nil field value
// inside a record, stands for the default. Conversion stops at the first
// invalid field and no instance is returned on failure.
func (ms *Marshaler) ToInstance(t *MessageType, input any) (*Instance, error) {
	return toInstance("", t, input)
}

// FromMessage returns the plain record for m.
func (ms *Marshaler) FromMessage(m *Instance) map[string]any {
	return FromMessage(m)
}

type inputShape uint8

const (
	shapeRecord inputShape = iota
	shapeInstance
	shapeBare
)

// detectShape decides how input is read before any field is validated.
func detectShape(path string, t *MessageType, input any) (inputShape, map[string]any, error) {
	switch in := input.(type) {
	case *Instance:
		if in != nil && in.typ == t {
			return shapeInstance, nil, nil
		}
		return 0, nil, &FieldTypeError{Field: path, Value: typeName(in), Want: "an instance of " + t.Name()}
	case map[string]any:
		return shapeRecord, in, nil
	case Recorder:
		return shapeRecord, in.Record(), nil
	}
	if t.dataSlot >= 0 && input != nil {
		ft := t.schema.Fields[t.dataSlot].Type
		if !ft.IsArray() || isSequence(input) {
			return shapeBare, nil, nil
		}
	}
	return 0, nil, &FieldTypeError{Field: path, Value: input, Want: "a record of " + t.Name()}
}

func isSequence(v any) bool {
	k := reflect.ValueOf(v).Kind()
	return k == reflect.Slice || k == reflect.Array
}

func toInstance(path string, t *MessageType, input any) (*Instance, error) {
	if input == nil {
		return t.New(), nil
	}
	shape, rec, err := detectShape(path, t, input)
	if err != nil {
		return nil, err
	}

	switch shape {
	case shapeInstance:
		return input.(*Instance).Clone(), nil
	case shapeBare:
		rec = map[string]any{t.schema.Fields[t.dataSlot].Name: input}
	}

	m := &Instance{typ: t, values: make([]any, len(t.schema.Fields))}
	for i, f := range t.schema.Fields {
		v, present := rec[f.Name]
		if !present || v == nil {
			m.values[i] = t.defaultValue(i)
			continue
		}
		nv, err := coerceField(joinPath(path, f.Name), f.Type, t.nested[i], v)
		if err != nil {
			return nil, err
		}
		m.values[i] = nv
	}

	var unknown []string
	for k := range rec {
		if _, ok := t.index[k]; !ok {
			unknown = append(unknown, k)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, &FieldTypeError{Field: joinPath(path, unknown[0]), Value: rec[unknown[0]], Want: "a field of " + t.Name()}
	}
	return m, nil
}

// FromMessage returns a record mirroring m's schema. Nested instances become
// nested records, message sequences become []map[string]any and primitive
// sequences are returned as copies of their native slices.
func FromMessage(m *Instance) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m.values))
	for i, f := range m.typ.schema.Fields {
		out[f.Name] = plainValue(f.Type, m.values[i])
	}
	return out
}

func plainValue(ft idl.FieldType, v any) any {
	switch x := v.(type) {
	case *Instance:
		return FromMessage(x)
	case []*Instance:
		out := make([]map[string]any, len(x))
		for i, m := range x {
			out[i] = FromMessage(m)
		}
		return out
	}
	if ft.IsArray() {
		return cloneValue(v)
	}
	return v
}
