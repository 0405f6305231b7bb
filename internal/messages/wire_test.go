package messages

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalJSONFieldOrder(t *testing.T) {
	ms := newTestMarshaler(t)

	m, err := ms.ToMessage("sensor_msgs/msg/JointState", map[string]any{
		"header":   map[string]any{"stamp": map[string]any{"sec": 1, "nanosec": 2}, "frame_id": "base"},
		"name":     []any{"j0"},
		"position": []any{1.5},
	})
	require.NoError(t, err)

	data, err := json.Marshal(m)
	require.NoError(t, err)
	assert.Equal(t,
		`{"header":{"stamp":{"sec":1,"nanosec":2},"frame_id":"base"},"name":["j0"],"position":[1.5],"velocity":[],"effort":[]}`,
		string(data))
}

func TestJSONRoundTrip(t *testing.T) {
	ms := newTestMarshaler(t)

	tests := []struct {
		typ string
		in  any
	}{
		{"std_msgs/msg/Float32", float32(0.1)},
		{"std_msgs/msg/Int64", int64(9007199254740993)},
		{"std_msgs/msg/UInt64", uint64(math.MaxUint64)},
		{"std_msgs/msg/String", "quote \" and é"},
		{"std_msgs/msg/ByteMultiArray", []byte{0, 1, 255}},
		{"std_msgs/msg/Float64MultiArray", []float64{math.NaN(), math.Inf(1), math.Inf(-1), 0.1}},
		{"test_msgs/msg/Nested", map[string]any{"inner": map[string]any{"ratio": math.Inf(-1)}, "many": []any{map[string]any{"gains": []any{math.NaN()}}}}},
	}
	for _, tt := range tests {
		t.Run(tt.typ, func(t *testing.T) {
			m, err := ms.ToMessage(tt.typ, tt.in)
			require.NoError(t, err)

			data, err := json.Marshal(m)
			require.NoError(t, err)

			back, err := m.Type().DecodeJSON(data)
			require.NoError(t, err)
			assert.True(t, m.Equal(back), "%s", data)

			target := m.Type().New()
			require.NoError(t, json.Unmarshal(data, target))
			assert.True(t, m.Equal(target))
		})
	}
}

func TestMarshalJSONNonFinite(t *testing.T) {
	ms := newTestMarshaler(t)

	m, err := ms.ToMessage("std_msgs/msg/Float32MultiArray", []float64{math.NaN(), math.Inf(1), math.Inf(-1), 2})
	require.NoError(t, err)
	data, err := json.Marshal(m)
	require.NoError(t, err)
	assert.JSONEq(t,
		`{"layout":{"dim":[],"data_offset":0},"data":["NaN","Infinity","-Infinity",2]}`,
		string(data))
}

func TestDecodeJSONValidates(t *testing.T) {
	reg := NewRegistry(newTestCatalog(t))
	mt, err := reg.Resolve("test_msgs/msg/Sample")
	require.NoError(t, err)

	var rangeErr *FieldRangeError
	_, err = mt.DecodeJSON([]byte(`{"small": 300}`))
	assert.ErrorAs(t, err, &rangeErr)

	// The special strings are only numbers in float fields.
	var typeErr *FieldTypeError
	_, err = mt.DecodeJSON([]byte(`{"small": "NaN"}`))
	assert.ErrorAs(t, err, &typeErr)
	_, err = mt.DecodeJSON([]byte(`{"label": "NaN"}`))
	assert.NoError(t, err)
	_, err = mt.DecodeJSON([]byte(`{"ratio": "nan"}`))
	assert.ErrorAs(t, err, &typeErr)

	var lenErr *FixedArrayLengthError
	_, err = mt.DecodeJSON([]byte(`{"pair": [1, 2, 3]}`))
	assert.ErrorAs(t, err, &lenErr)

	_, err = mt.DecodeJSON([]byte(`{"small": `))
	assert.Error(t, err)

	var untyped Instance
	assert.ErrorIs(t, json.Unmarshal([]byte(`{}`), &untyped), ErrTypeMismatch)
}

func TestDecodeJSONBareSpecialFloats(t *testing.T) {
	reg := NewRegistry(newTestCatalog(t))

	f64, err := reg.Resolve("std_msgs/msg/Float64")
	require.NoError(t, err)
	m, err := f64.DecodeJSON([]byte(`"NaN"`))
	require.NoError(t, err)
	v, _ := m.Get("data")
	assert.True(t, math.IsNaN(v.(float64)))

	arr, err := reg.Resolve("std_msgs/msg/Float32MultiArray")
	require.NoError(t, err)
	m, err = arr.DecodeJSON([]byte(`["-Infinity", 1.5]`))
	require.NoError(t, err)
	v, _ = m.Get("data")
	assert.Equal(t, []float32{float32(math.Inf(-1)), 1.5}, v)

	str, err := reg.Resolve("std_msgs/msg/String")
	require.NoError(t, err)
	m, err = str.DecodeJSON([]byte(`"NaN"`))
	require.NoError(t, err)
	v, _ = m.Get("data")
	assert.Equal(t, "NaN", v)
}
