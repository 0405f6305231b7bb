// Package messages turns interface-description schemas into usable message
// types and converts loosely-typed application values into validated
// instances of them.
//
// The package is organised around four pieces:
//
//   - Registry: resolves qualified names such as "std_msgs/msg/Int8" to a
//     generated MessageType, resolving nested types first and rejecting
//     cyclic definitions. Types are generated once and cached.
//   - MessageType and Instance: a generated type is the factory for its
//     instances. Instances hold one natively typed value per field, own all
//     of their storage and deep-copy on Copy and Clone.
//   - Marshaler: ToMessage validates records, bare values for primitive
//     wrappers, and plain or typed numeric sequences against every field's
//     numeric domain; FromMessage is its structural inverse.
//   - ArrayCodec: encodes and decodes the layout+data multi-array types.
//
// # Numeric domains
//
// Integer fields accept any Go integer, float or json.Number whose value is
// integral and inside the kind's range; char is signed 8-bit and byte is
// unsigned 8-bit. A 64-bit field fed a floating-point value is further
// limited to ±MaxSafeInteger, since larger floats are not exact integers.
// Float fields accept every value, NaN and the infinities included.
//
// # Usage Example
//
//	reg := messages.NewRegistry(idl.Builtins())
//	ms := messages.NewMarshaler(reg)
//
//	m, err := ms.ToMessage("std_msgs/msg/Int8MultiArray", map[string]any{
//	    "data": []any{-10, 1, 2, 3},
//	})
//	if err != nil {
//	    var rangeErr *messages.FieldRangeError
//	    if errors.As(err, &rangeErr) {
//	        log.Printf("bad value in %s", rangeErr.Field)
//	    }
//	    return err
//	}
//	rec := messages.FromMessage(m) // map[string]any{"layout": ..., "data": []int8{-10, 1, 2, 3}}
package messages
