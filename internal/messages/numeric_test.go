package messages

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func asFloat(t *testing.T, v any) float64 {
	t.Helper()
	n, ok := toNumber(v)
	require.True(t, ok, "%T is not numeric", v)
	switch n.form {
	case formInt:
		return float64(n.i)
	case formUint:
		return float64(n.u)
	}
	return n.f
}

func TestIntegerBounds(t *testing.T) {
	ms := newTestMarshaler(t)

	tests := []struct {
		typ    string
		lo, hi float64
	}{
		{"std_msgs/msg/Int8", -128, 127},
		{"std_msgs/msg/Char", -128, 127},
		{"std_msgs/msg/Byte", 0, 255},
		{"std_msgs/msg/UInt8", 0, 255},
		{"std_msgs/msg/Int16", -32768, 32767},
		{"std_msgs/msg/UInt16", 0, 65535},
		{"std_msgs/msg/Int32", -2147483648, 2147483647},
		{"std_msgs/msg/UInt32", 0, 4294967295},
		{"std_msgs/msg/Int64", -MaxSafeInteger, MaxSafeInteger},
		{"std_msgs/msg/UInt64", 0, MaxSafeInteger},
	}
	for _, tt := range tests {
		t.Run(tt.typ, func(t *testing.T) {
			for _, ok := range []float64{tt.lo, tt.hi, 0, 1} {
				m, err := ms.ToMessage(tt.typ, ok)
				require.NoError(t, err, "value %v", ok)
				got, _ := m.Get("data")
				assert.Equal(t, ok, asFloat(t, got))
			}

			for _, bad := range []float64{tt.lo - 1, tt.hi + 1, 1.5, math.NaN(), math.Inf(1), math.Inf(-1)} {
				_, err := ms.ToMessage(tt.typ, bad)
				var rangeErr *FieldRangeError
				require.ErrorAs(t, err, &rangeErr, "value %v", bad)
				assert.Equal(t, "data", rangeErr.Field)
			}

			_, err := ms.ToMessage(tt.typ, "12")
			var typeErr *FieldTypeError
			assert.ErrorAs(t, err, &typeErr)
		})
	}
}

func TestIntegerNativeWidth(t *testing.T) {
	ms := newTestMarshaler(t)

	m, err := ms.ToMessage("std_msgs/msg/Int64", int64(math.MaxInt64))
	require.NoError(t, err)
	got, _ := m.Get("data")
	assert.Equal(t, int64(math.MaxInt64), got)

	m, err = ms.ToMessage("std_msgs/msg/UInt64", uint64(math.MaxUint64))
	require.NoError(t, err)
	got, _ = m.Get("data")
	assert.Equal(t, uint64(math.MaxUint64), got)

	m, err = ms.ToMessage("std_msgs/msg/Int64", json.Number("9007199254740993"))
	require.NoError(t, err)
	got, _ = m.Get("data")
	assert.Equal(t, int64(9007199254740993), got)

	m, err = ms.ToMessage("std_msgs/msg/UInt64", json.Number("18446744073709551615"))
	require.NoError(t, err)
	got, _ = m.Get("data")
	assert.Equal(t, uint64(math.MaxUint64), got)

	var rangeErr *FieldRangeError
	_, err = ms.ToMessage("std_msgs/msg/Int64", uint64(math.MaxInt64)+1)
	assert.ErrorAs(t, err, &rangeErr)
	_, err = ms.ToMessage("std_msgs/msg/UInt64", int64(-1))
	assert.ErrorAs(t, err, &rangeErr)
	_, err = ms.ToMessage("std_msgs/msg/UInt8", uint(256))
	assert.ErrorAs(t, err, &rangeErr)
	_, err = ms.ToMessage("std_msgs/msg/Int32", json.Number("1.5"))
	assert.ErrorAs(t, err, &rangeErr)

	// Native integer types are narrowed to the field's own type.
	m, err = ms.ToMessage("std_msgs/msg/Int16", 12)
	require.NoError(t, err)
	got, _ = m.Get("data")
	assert.Equal(t, int16(12), got)
}

func TestFloatSpecialValues(t *testing.T) {
	ms := newTestMarshaler(t)

	for _, typ := range []string{"std_msgs/msg/Float32", "std_msgs/msg/Float64"} {
		for _, v := range []float64{math.NaN(), math.Inf(1), math.Inf(-1), 0, -1.25, 1e30, math.SmallestNonzeroFloat64} {
			m, err := ms.ToMessage(typ, v)
			require.NoError(t, err, "%s %v", typ, v)
			got, _ := m.Get("data")
			f := asFloat(t, got)
			switch {
			case math.IsNaN(v):
				assert.True(t, math.IsNaN(f))
			case math.IsInf(v, 0):
				assert.Equal(t, v, f)
			}
		}
	}

	m, err := ms.ToMessage("std_msgs/msg/Float64", 0.1)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"data": 0.1}, FromMessage(m))

	m, err = ms.ToMessage("std_msgs/msg/Float32", float32(0.1))
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"data": float32(0.1)}, FromMessage(m))

	_, err = ms.ToMessage("std_msgs/msg/Float64", true)
	var typeErr *FieldTypeError
	assert.ErrorAs(t, err, &typeErr)
}

func TestStrictScalars(t *testing.T) {
	ms := newTestMarshaler(t)
	var typeErr *FieldTypeError

	_, err := ms.ToMessage("std_msgs/msg/Bool", 1)
	assert.ErrorAs(t, err, &typeErr)
	_, err = ms.ToMessage("std_msgs/msg/Bool", "true")
	assert.ErrorAs(t, err, &typeErr)
	_, err = ms.ToMessage("std_msgs/msg/String", 42)
	assert.ErrorAs(t, err, &typeErr)

	m, err := ms.ToMessage("std_msgs/msg/String", "")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"data": ""}, FromMessage(m))
}
