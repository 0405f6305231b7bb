package main

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"testing"

	"msgbridge/internal/messages"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestTypesCmd(t *testing.T) {
	out, err := runCmd(t, "types")
	require.NoError(t, err)
	assert.Contains(t, out, "sensor_msgs/msg/JointState\n")
	assert.Contains(t, out, "std_msgs/msg/Float64MultiArray\n")
}

func TestShowCmd(t *testing.T) {
	out, err := runCmd(t, "show", "std_msgs/msg/MultiArrayDimension")
	require.NoError(t, err)
	assert.Equal(t, `std_msgs/msg/MultiArrayDimension
  string label
  uint32 size
  uint32 stride
default: {"label":"","size":0,"stride":0}
`, out)

	_, err = runCmd(t, "show", "std_msgs/msg/Nope")
	assert.Error(t, err)
}

func TestShowCmdDescriptors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "types.json")
	doc := `{"messages": [{"name": "demo_msgs/msg/Mode", "definition": "uint8 value 2\nuint8 IDLE=0\nuint8 RUN=2"}]}`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	out, err := runCmd(t, "--descriptors", path, "show", "demo_msgs/msg/Mode")
	require.NoError(t, err)
	assert.Equal(t, `demo_msgs/msg/Mode
  uint8 value
  uint8 IDLE=0
  uint8 RUN=2
default: {"value":2}
`, out)

	_, err = runCmd(t, "--descriptors", filepath.Join(t.TempDir(), "missing.json"), "types")
	assert.Error(t, err)
}

func testRegistry(t *testing.T) *messages.Registry {
	t.Helper()
	reg, err := NewRootOptions().registry()
	require.NoError(t, err)
	return reg
}

func TestDecodeValue(t *testing.T) {
	reg := testRegistry(t)

	i64, err := reg.Resolve("std_msgs/msg/Int64")
	require.NoError(t, err)
	m, err := decodeValue(i64, `{"data": 9007199254740993}`)
	require.NoError(t, err)
	v, _ := m.Get("data")
	assert.Equal(t, int64(9007199254740993), v)

	f64, err := reg.Resolve("std_msgs/msg/Float64")
	require.NoError(t, err)
	m, err = decodeValue(f64, `"-Infinity"`)
	require.NoError(t, err)
	v, _ = m.Get("data")
	assert.True(t, math.IsInf(v.(float64), -1))

	_, err = decodeValue(f64, `{`)
	assert.Error(t, err)

	var typeErr *messages.FieldTypeError
	_, err = decodeValue(f64, `"nan"`)
	assert.ErrorAs(t, err, &typeErr)
}

func TestWriteLine(t *testing.T) {
	ms := messages.NewMarshaler(testRegistry(t))

	tests := []struct {
		typ  string
		in   any
		want string
	}{
		{"std_msgs/msg/UInt8MultiArray", []uint8{0, 1, 255}, `{"layout":{"dim":[],"data_offset":0},"data":[0,1,255]}`},
		{"std_msgs/msg/Float64", math.NaN(), `{"data":"NaN"}`},
		{"std_msgs/msg/Float32MultiArray", []float64{math.Inf(1), 0.5}, `{"layout":{"dim":[],"data_offset":0},"data":["Infinity",0.5]}`},
	}
	for _, tt := range tests {
		t.Run(tt.typ, func(t *testing.T) {
			m, err := ms.ToMessage(tt.typ, tt.in)
			require.NoError(t, err)

			var out bytes.Buffer
			require.NoError(t, writeLine(&out, m))
			assert.Equal(t, tt.want+"\n", out.String())
		})
	}
}
