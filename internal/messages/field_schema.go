package messages

import (
	"math"
	"reflect"

	"msgbridge/internal/idl"
)

// coerceField validates v against a field of type ft and returns a value the
// instance can own. Sequences are always copied into a new buffer.
func coerceField(path string, ft idl.FieldType, nested *MessageType, v any) (any, error) {
	if !ft.IsArray() {
		if ft.Kind == idl.KindMessage {
			return toInstance(path, nested, v)
		}
		return coerceScalar(path, ft.Kind, v)
	}

	rv := reflect.ValueOf(v)
	if v == nil || (rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array) {
		return nil, &FieldTypeError{Field: path, Value: v, Want: "a sequence of " + ft.Elem().String()}
	}
	switch n := rv.Len(); {
	case ft.Array == idl.FixedArray && n != ft.Length:
		return nil, &FixedArrayLengthError{Field: path, Got: n, Want: ft.Length}
	case ft.Array == idl.BoundedSequence && n > ft.Length:
		return nil, &SequenceBoundError{Field: path, Got: n, Bound: ft.Length}
	}

	if ft.Kind == idl.KindMessage {
		out := make([]*Instance, rv.Len())
		for i := range out {
			m, err := toInstance(indexPath(path, i), nested, rv.Index(i).Interface())
			if err != nil {
				return nil, err
			}
			out[i] = m
		}
		return out, nil
	}
	return coerceSequence(path, ft.Kind, rv, v)
}

// coerceSequence converts a plain or typed sequence into the native slice for
// kind k, validating each element with the scalar rules.
func coerceSequence(path string, k idl.Kind, rv reflect.Value, v any) (any, error) {
	switch k {
	case idl.KindBool:
		return fillSlice[bool](path, k, rv, v)
	case idl.KindByte, idl.KindUint8:
		return fillSlice[uint8](path, k, rv, v)
	case idl.KindChar, idl.KindInt8:
		return fillSlice[int8](path, k, rv, v)
	case idl.KindInt16:
		return fillSlice[int16](path, k, rv, v)
	case idl.KindUint16:
		return fillSlice[uint16](path, k, rv, v)
	case idl.KindInt32:
		return fillSlice[int32](path, k, rv, v)
	case idl.KindUint32:
		return fillSlice[uint32](path, k, rv, v)
	case idl.KindInt64:
		return fillSlice[int64](path, k, rv, v)
	case idl.KindUint64:
		return fillSlice[uint64](path, k, rv, v)
	case idl.KindFloat32:
		return fillSlice[float32](path, k, rv, v)
	case idl.KindFloat64:
		return fillSlice[float64](path, k, rv, v)
	case idl.KindString:
		return fillSlice[string](path, k, rv, v)
	}
	return nil, &FieldTypeError{Field: path, Value: v, Want: "a sequence of " + k.String()}
}

func fillSlice[T any](path string, k idl.Kind, rv reflect.Value, v any) (any, error) {
	// A buffer already in the native type holds only valid values.
	if s, ok := v.([]T); ok {
		return append(make([]T, 0, len(s)), s...), nil
	}
	out := make([]T, rv.Len())
	for i := range out {
		el, err := coerceScalar(indexPath(path, i), k, rv.Index(i).Interface())
		if err != nil {
			return nil, err
		}
		out[i] = el.(T)
	}
	return out, nil
}

// zeroValue is the value a field holds when neither input nor schema supply one.
func zeroValue(ft idl.FieldType, nested *MessageType) any {
	n := 0
	if ft.Array == idl.FixedArray {
		n = ft.Length
	}
	if ft.Kind == idl.KindMessage {
		if !ft.IsArray() {
			return nested.New()
		}
		out := make([]*Instance, n)
		for i := range out {
			out[i] = nested.New()
		}
		return out
	}
	if !ft.IsArray() {
		return zeroScalar(ft.Kind)
	}
	return makeSlice(ft.Kind, n)
}

func zeroScalar(k idl.Kind) any {
	switch k {
	case idl.KindBool:
		return false
	case idl.KindString:
		return ""
	case idl.KindFloat32:
		return float32(0)
	case idl.KindFloat64:
		return float64(0)
	}
	if k.IsSigned() {
		return castSigned(k, 0)
	}
	return castUnsigned(k, 0)
}

func makeSlice(k idl.Kind, n int) any {
	switch k {
	case idl.KindBool:
		return make([]bool, n)
	case idl.KindByte, idl.KindUint8:
		return make([]uint8, n)
	case idl.KindChar, idl.KindInt8:
		return make([]int8, n)
	case idl.KindInt16:
		return make([]int16, n)
	case idl.KindUint16:
		return make([]uint16, n)
	case idl.KindInt32:
		return make([]int32, n)
	case idl.KindUint32:
		return make([]uint32, n)
	case idl.KindInt64:
		return make([]int64, n)
	case idl.KindUint64:
		return make([]uint64, n)
	case idl.KindFloat32:
		return make([]float32, n)
	case idl.KindFloat64:
		return make([]float64, n)
	}
	return make([]string, n)
}

// cloneValue deep-copies a stored field value.
func cloneValue(v any) any {
	switch x := v.(type) {
	case *Instance:
		return x.Clone()
	case []*Instance:
		out := make([]*Instance, len(x))
		for i, m := range x {
			out[i] = m.Clone()
		}
		return out
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice {
		return v
	}
	out := reflect.MakeSlice(rv.Type(), rv.Len(), rv.Len())
	reflect.Copy(out, rv)
	return out.Interface()
}

// valuesEqual compares stored field values. NaN equals NaN so that a copy is
// always equal to its source.
func valuesEqual(a, b any) bool {
	switch x := a.(type) {
	case *Instance:
		y, ok := b.(*Instance)
		return ok && x.Equal(y)
	case float32:
		y, ok := b.(float32)
		return ok && (x == y || (math.IsNaN(float64(x)) && math.IsNaN(float64(y))))
	case float64:
		y, ok := b.(float64)
		return ok && (x == y || (math.IsNaN(x) && math.IsNaN(y)))
	}
	ra, rb := reflect.ValueOf(a), reflect.ValueOf(b)
	if ra.Kind() == reflect.Slice {
		if rb.Kind() != reflect.Slice || ra.Type() != rb.Type() || ra.Len() != rb.Len() {
			return false
		}
		for i := 0; i < ra.Len(); i++ {
			if !valuesEqual(ra.Index(i).Interface(), rb.Index(i).Interface()) {
				return false
			}
		}
		return true
	}
	return a == b
}
