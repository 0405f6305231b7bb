package idl

import "fmt"

// builtinDefinitions are the interface descriptions every catalog built by
// Builtins starts with.
var builtinDefinitions = map[string]string{
	"builtin_interfaces/msg/Time":     "int32 sec\nuint32 nanosec\n",
	"builtin_interfaces/msg/Duration": "int32 sec\nuint32 nanosec\n",

	"std_msgs/msg/Bool":    "bool data\n",
	"std_msgs/msg/Byte":    "byte data\n",
	"std_msgs/msg/Char":    "char data\n",
	"std_msgs/msg/Float32": "float32 data\n",
	"std_msgs/msg/Float64": "float64 data\n",
	"std_msgs/msg/Int8":    "int8 data\n",
	"std_msgs/msg/Int16":   "int16 data\n",
	"std_msgs/msg/Int32":   "int32 data\n",
	"std_msgs/msg/Int64":   "int64 data\n",
	"std_msgs/msg/UInt8":   "uint8 data\n",
	"std_msgs/msg/UInt16":  "uint16 data\n",
	"std_msgs/msg/UInt32":  "uint32 data\n",
	"std_msgs/msg/UInt64":  "uint64 data\n",
	"std_msgs/msg/String":  "string data\n",
	"std_msgs/msg/Empty":   "",

	"std_msgs/msg/Header": `# Standard metadata for higher-level stamped data types.
builtin_interfaces/Time stamp
string frame_id
`,
	"std_msgs/msg/ColorRGBA": "float32 r\nfloat32 g\nfloat32 b\nfloat32 a\n",

	"std_msgs/msg/MultiArrayDimension": `string label   # label of given dimension
uint32 size     # size of given dimension (in type units)
uint32 stride   # stride of given dimension
`,
	"std_msgs/msg/MultiArrayLayout": `MultiArrayDimension[] dim # Array of dimension properties
uint32 data_offset        # padding elements at front of data
`,
	"std_msgs/msg/ByteMultiArray":    "MultiArrayLayout layout\nbyte[] data\n",
	"std_msgs/msg/Int8MultiArray":    "MultiArrayLayout layout\nint8[] data\n",
	"std_msgs/msg/Int16MultiArray":   "MultiArrayLayout layout\nint16[] data\n",
	"std_msgs/msg/Int32MultiArray":   "MultiArrayLayout layout\nint32[] data\n",
	"std_msgs/msg/Int64MultiArray":   "MultiArrayLayout layout\nint64[] data\n",
	"std_msgs/msg/UInt8MultiArray":   "MultiArrayLayout layout\nuint8[] data\n",
	"std_msgs/msg/UInt16MultiArray":  "MultiArrayLayout layout\nuint16[] data\n",
	"std_msgs/msg/UInt32MultiArray":  "MultiArrayLayout layout\nuint32[] data\n",
	"std_msgs/msg/UInt64MultiArray":  "MultiArrayLayout layout\nuint64[] data\n",
	"std_msgs/msg/Float32MultiArray": "MultiArrayLayout layout\nfloat32[] data\n",
	"std_msgs/msg/Float64MultiArray": "MultiArrayLayout layout\nfloat64[] data\n",

	"sensor_msgs/msg/JointState": `std_msgs/Header header

string[] name
float64[] position
float64[] velocity
float64[] effort
`,
}

// Builtins returns a new catalog holding the standard primitive wrappers,
// multi-array types, time types and sensor_msgs/JointState.
func Builtins() *Catalog {
	c := NewCatalog()
	for name, text := range builtinDefinitions {
		if err := c.AddMsg(name, text); err != nil {
			panic(fmt.Sprintf("builtin %s: %v", name, err))
		}
	}
	return c
}
