package messages

import (
	"fmt"

	"msgbridge/internal/idl"
)

const (
	LayoutTypeName    = "std_msgs/msg/MultiArrayLayout"
	DimensionTypeName = "std_msgs/msg/MultiArrayDimension"
)

// arrayTypes maps an element kind to its layout+data message type.
var arrayTypes = map[idl.Kind]string{
	idl.KindByte:    "std_msgs/msg/ByteMultiArray",
	idl.KindInt8:    "std_msgs/msg/Int8MultiArray",
	idl.KindUint8:   "std_msgs/msg/UInt8MultiArray",
	idl.KindInt16:   "std_msgs/msg/Int16MultiArray",
	idl.KindUint16:  "std_msgs/msg/UInt16MultiArray",
	idl.KindInt32:   "std_msgs/msg/Int32MultiArray",
	idl.KindUint32:  "std_msgs/msg/UInt32MultiArray",
	idl.KindInt64:   "std_msgs/msg/Int64MultiArray",
	idl.KindUint64:  "std_msgs/msg/UInt64MultiArray",
	idl.KindFloat32: "std_msgs/msg/Float32MultiArray",
	idl.KindFloat64: "std_msgs/msg/Float64MultiArray",
}

// ArrayTypeName returns the multi-array message type for an element kind.
func ArrayTypeName(elem idl.Kind) (string, bool) {
	n, ok := arrayTypes[elem]
	return n, ok
}

// Dimension describes one logical dimension of a flat buffer.
type Dimension struct {
	Label  string
	Size   uint32
	Stride uint32
}

func (d Dimension) Record() map[string]any {
	return map[string]any{"label": d.Label, "size": d.Size, "stride": d.Stride}
}

// Layout is advisory metadata for a flat buffer. It is carried verbatim and
// never checked against the buffer's length.
type Layout struct {
	Dim        []Dimension
	DataOffset uint32
}

func (l Layout) Record() map[string]any {
	dims := make([]map[string]any, len(l.Dim))
	for i, d := range l.Dim {
		dims[i] = d.Record()
	}
	return map[string]any{"dim": dims, "data_offset": l.DataOffset}
}

// ArrayPayload is the decoded form of a multi-array message. Data is a
// native slice owned by the payload.
type ArrayPayload struct {
	Layout Layout
	Data   any
}

// ArrayCodec encodes and decodes multi-dimensional numeric array messages.
type ArrayCodec struct {
	ms *Marshaler
}

// NewArrayCodec returns a codec that validates through ms.
func NewArrayCodec(ms *Marshaler) *ArrayCodec {
	return &ArrayCodec{ms: ms}
}

// Encode builds the multi-array message for elem. Data may be a plain
// sequence or a typed slice; both are validated element by element and
// copied into a buffer owned by the result.
func (c *ArrayCodec) Encode(elem idl.Kind, layout Layout, data any) (*Instance, error) {
	name, ok := arrayTypes[elem]
	if !ok {
		return nil, fmt.Errorf("%w: no array message for element kind %s", ErrUnknownType, elem)
	}
	if data == nil {
		data = makeSlice(elem, 0)
	}
	return c.ms.ToMessage(name, map[string]any{"layout": layout, "data": data})
}

// Decode extracts the layout and a copy of the data buffer from an array
// message.
func (c *ArrayCodec) Decode(m *Instance) (ArrayPayload, error) {
	if m == nil || m.typ.dataSlot != 1 {
		return ArrayPayload{}, fmt.Errorf("%w: %s is not a layout+data array message", ErrTypeMismatch, typeName(m))
	}
	lm, ok := m.values[0].(*Instance)
	if !ok {
		return ArrayPayload{}, fmt.Errorf("%w: %s has no layout", ErrTypeMismatch, m.typ.Name())
	}
	layout, err := decodeLayout(lm)
	if err != nil {
		return ArrayPayload{}, err
	}
	return ArrayPayload{Layout: layout, Data: cloneValue(m.values[1])}, nil
}

func decodeLayout(lm *Instance) (Layout, error) {
	var l Layout
	dims, _ := lm.Get("dim")
	dimMsgs, ok := dims.([]*Instance)
	if !ok {
		return l, fmt.Errorf("%w: %s has no dimension list", ErrTypeMismatch, lm.typ.Name())
	}
	off, _ := lm.Get("data_offset")
	l.DataOffset, _ = off.(uint32)
	l.Dim = make([]Dimension, len(dimMsgs))
	for i, dm := range dimMsgs {
		label, _ := dm.Get("label")
		size, _ := dm.Get("size")
		stride, _ := dm.Get("stride")
		l.Dim[i].Label, _ = label.(string)
		l.Dim[i].Size, _ = size.(uint32)
		l.Dim[i].Stride, _ = stride.(uint32)
	}
	return l, nil
}
