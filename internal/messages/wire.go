package messages

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strconv"

	"msgbridge/internal/idl"
)

// Non-finite floats have no JSON number form; they travel as these strings.
const (
	jsonNaN    = "NaN"
	jsonPosInf = "Infinity"
	jsonNegInf = "-Infinity"
)

// MarshalJSON writes m as a JSON object whose keys follow schema order.
func (m *Instance) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := m.writeJSON(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (m *Instance) writeJSON(buf *bytes.Buffer) error {
	buf.WriteByte('{')
	for i, f := range m.typ.schema.Fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteString(strconv.Quote(f.Name))
		buf.WriteByte(':')
		if err := writeJSONValue(buf, m.values[i]); err != nil {
			return fmt.Errorf("%s.%s: %w", m.typ.Name(), f.Name, err)
		}
	}
	buf.WriteByte('}')
	return nil
}

func writeJSONValue(buf *bytes.Buffer, v any) error {
	switch x := v.(type) {
	case *Instance:
		return x.writeJSON(buf)
	case bool:
		buf.WriteString(strconv.FormatBool(x))
	case string:
		b, err := json.Marshal(x)
		if err != nil {
			return err
		}
		buf.Write(b)
	case float32:
		writeJSONFloat(buf, float64(x), 32)
	case float64:
		writeJSONFloat(buf, x, 64)
	case int8, int16, int32, int64, uint8, uint16, uint32, uint64:
		fmt.Fprint(buf, x)
	default:
		rv := reflect.ValueOf(v)
		if rv.Kind() != reflect.Slice {
			return fmt.Errorf("cannot encode %T", v)
		}
		buf.WriteByte('[')
		for i := 0; i < rv.Len(); i++ {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeJSONValue(buf, rv.Index(i).Interface()); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	}
	return nil
}

func writeJSONFloat(buf *bytes.Buffer, f float64, bits int) {
	switch {
	case math.IsNaN(f):
		buf.WriteString(strconv.Quote(jsonNaN))
	case math.IsInf(f, 1):
		buf.WriteString(strconv.Quote(jsonPosInf))
	case math.IsInf(f, -1):
		buf.WriteString(strconv.Quote(jsonNegInf))
	default:
		buf.WriteString(strconv.FormatFloat(f, 'g', -1, bits))
	}
}

// DecodeJSON parses the output of Instance.MarshalJSON back into a validated
// instance of t. Numbers are decoded without loss of integer precision.
func (t *MessageType) DecodeJSON(data []byte) (*Instance, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("decode %s: %w", t.Name(), err)
	}
	return toInstance("", t, restoreFloats(t, v))
}

// UnmarshalJSON decodes into an instance that already has a type, such as one
// returned by MessageType.New.
func (m *Instance) UnmarshalJSON(data []byte) error {
	if m.typ == nil {
		return fmt.Errorf("%w: unmarshal into untyped instance", ErrTypeMismatch)
	}
	n, err := m.typ.DecodeJSON(data)
	if err != nil {
		return err
	}
	m.values = n.values
	return nil
}

// restoreFloats turns the string forms of non-finite floats back into numbers
// for float-typed fields of t. A bare value is read as the value of t's data
// slot. Anything it does not recognize is left for the marshaler to reject.
func restoreFloats(t *MessageType, v any) any {
	rec, ok := v.(map[string]any)
	if !ok {
		if t.dataSlot < 0 {
			return v
		}
		return restoreField(t.schema.Fields[t.dataSlot].Type, t.nested[t.dataSlot], v)
	}
	for i, f := range t.schema.Fields {
		if fv, present := rec[f.Name]; present {
			rec[f.Name] = restoreField(f.Type, t.nested[i], fv)
		}
	}
	return rec
}

func restoreField(ft idl.FieldType, nested *MessageType, v any) any {
	if ft.Kind != idl.KindMessage && !ft.Kind.IsFloat() {
		return v
	}
	one := func(x any) any {
		if ft.Kind == idl.KindMessage {
			return restoreFloats(nested, x)
		}
		return parseSpecialFloat(x)
	}
	if !ft.IsArray() {
		return one(v)
	}
	if list, ok := v.([]any); ok {
		for j := range list {
			list[j] = one(list[j])
		}
	}
	return v
}

func parseSpecialFloat(v any) any {
	s, ok := v.(string)
	if !ok {
		return v
	}
	switch s {
	case jsonNaN:
		return math.NaN()
	case jsonPosInf:
		return math.Inf(1)
	case jsonNegInf:
		return math.Inf(-1)
	}
	return v
}
