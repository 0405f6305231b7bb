package messages

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"msgbridge/internal/idl"
)

// MaxSafeInteger is the largest integer magnitude a float64 holds exactly.
// 64-bit integer fields fed from floating-point values are bounded by it.
const MaxSafeInteger = 1<<53 - 1

type numForm uint8

const (
	formInt numForm = iota
	formUint
	formFloat
)

// number is a numeric input normalized to one of three carriers.
type number struct {
	form numForm
	i    int64
	u    uint64
	f    float64
}

func (n number) String() string {
	switch n.form {
	case formInt:
		return strconv.FormatInt(n.i, 10)
	case formUint:
		return strconv.FormatUint(n.u, 10)
	}
	return strconv.FormatFloat(n.f, 'g', -1, 64)
}

// toNumber classifies v. It reports false for non-numeric values.
func toNumber(v any) (number, bool) {
	switch x := v.(type) {
	case int:
		return number{form: formInt, i: int64(x)}, true
	case int8:
		return number{form: formInt, i: int64(x)}, true
	case int16:
		return number{form: formInt, i: int64(x)}, true
	case int32:
		return number{form: formInt, i: int64(x)}, true
	case int64:
		return number{form: formInt, i: x}, true
	case uint:
		return number{form: formUint, u: uint64(x)}, true
	case uint8:
		return number{form: formUint, u: uint64(x)}, true
	case uint16:
		return number{form: formUint, u: uint64(x)}, true
	case uint32:
		return number{form: formUint, u: uint64(x)}, true
	case uint64:
		return number{form: formUint, u: x}, true
	case float32:
		return number{form: formFloat, f: float64(x)}, true
	case float64:
		return number{form: formFloat, f: x}, true
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return number{form: formInt, i: i}, true
		}
		if u, err := strconv.ParseUint(string(x), 10, 64); err == nil {
			return number{form: formUint, u: u}, true
		}
		if f, err := x.Float64(); err == nil {
			return number{form: formFloat, f: f}, true
		}
	}
	return number{}, false
}

// intBounds returns the closed domain of an integer kind.
func intBounds(k idl.Kind) (lo int64, hi uint64) {
	switch k {
	case idl.KindChar, idl.KindInt8:
		return math.MinInt8, math.MaxInt8
	case idl.KindByte, idl.KindUint8:
		return 0, math.MaxUint8
	case idl.KindInt16:
		return math.MinInt16, math.MaxInt16
	case idl.KindUint16:
		return 0, math.MaxUint16
	case idl.KindInt32:
		return math.MinInt32, math.MaxInt32
	case idl.KindUint32:
		return 0, math.MaxUint32
	case idl.KindInt64:
		return math.MinInt64, math.MaxInt64
	case idl.KindUint64:
		return 0, math.MaxUint64
	}
	return 0, 0
}

func rangeText(k idl.Kind) string {
	lo, hi := intBounds(k)
	return fmt.Sprintf("%s range [%d, %d]", k, lo, hi)
}

// coerceScalar validates v against the domain of primitive kind k and returns
// it in its native representation.
func coerceScalar(path string, k idl.Kind, v any) (any, error) {
	switch {
	case k == idl.KindBool:
		b, ok := v.(bool)
		if !ok {
			return nil, &FieldTypeError{Field: path, Value: v, Want: "a bool"}
		}
		return b, nil
	case k == idl.KindString:
		s, ok := v.(string)
		if !ok {
			return nil, &FieldTypeError{Field: path, Value: v, Want: "a string"}
		}
		return s, nil
	case k.IsFloat():
		n, ok := toNumber(v)
		if !ok {
			return nil, &FieldTypeError{Field: path, Value: v, Want: "a number"}
		}
		return toFloat(k, n), nil
	case k.IsInteger():
		n, ok := toNumber(v)
		if !ok {
			return nil, &FieldTypeError{Field: path, Value: v, Want: "a number"}
		}
		return toInteger(path, k, n)
	}
	return nil, &FieldTypeError{Field: path, Value: v, Want: k.String()}
}

// toFloat never range-checks; NaN and infinities pass through.
func toFloat(k idl.Kind, n number) any {
	var f float64
	switch n.form {
	case formInt:
		f = float64(n.i)
	case formUint:
		f = float64(n.u)
	default:
		f = n.f
	}
	if k == idl.KindFloat32 {
		return float32(f)
	}
	return f
}

func toInteger(path string, k idl.Kind, n number) (any, error) {
	lo, hi := intBounds(k)
	fail := func(constraint string) (any, error) {
		return nil, &FieldRangeError{Field: path, Value: n.String(), Constraint: constraint}
	}

	switch n.form {
	case formFloat:
		f := n.f
		if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
			return fail(k.String() + " requires an integer")
		}
		if k.Width() == 64 && math.Abs(f) > MaxSafeInteger {
			return fail(fmt.Sprintf("%s range [-%d, %d] for floating-point input", k, int64(MaxSafeInteger), int64(MaxSafeInteger)))
		}
		if f < float64(lo) || f > float64(hi) {
			return fail(rangeText(k))
		}
		if k.IsSigned() {
			return castSigned(k, int64(f)), nil
		}
		return castUnsigned(k, uint64(f)), nil
	case formInt:
		if n.i < lo || (n.i > 0 && uint64(n.i) > hi) {
			return fail(rangeText(k))
		}
		if k.IsSigned() {
			return castSigned(k, n.i), nil
		}
		return castUnsigned(k, uint64(n.i)), nil
	default:
		if n.u > hi {
			return fail(rangeText(k))
		}
		if k.IsSigned() {
			return castSigned(k, int64(n.u)), nil
		}
		return castUnsigned(k, n.u), nil
	}
}

func castSigned(k idl.Kind, i int64) any {
	switch k {
	case idl.KindChar, idl.KindInt8:
		return int8(i)
	case idl.KindInt16:
		return int16(i)
	case idl.KindInt32:
		return int32(i)
	}
	return i
}

func castUnsigned(k idl.Kind, u uint64) any {
	switch k {
	case idl.KindByte, idl.KindUint8:
		return uint8(u)
	case idl.KindUint16:
		return uint16(u)
	case idl.KindUint32:
		return uint32(u)
	}
	return u
}
