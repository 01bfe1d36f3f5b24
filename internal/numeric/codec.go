package numeric

import (
	"errors"
	"math"
	"strconv"
)

// ErrOverflow is returned by Reinterpret when a value does not fit a
// signed 64-bit container and so cannot be narrowed to any sized type.
var ErrOverflow = errors.New("numeric: value does not fit in 64-bit signed integer")

// Reinterpret narrows v to the width and signedness of t, wrapping around
// like a two's complement truncation. Floats are truncated toward zero
// first. TypeInt and TypeFloat32 pass v through unchanged; absent values
// stay absent.
func Reinterpret(v Value, t Type) (Value, error) {
	if v.IsNone() || t == TypeInt || t.IsFloat() {
		return v, nil
	}

	n, err := toInt64(v)
	if err != nil {
		return Value{}, err
	}

	switch t {
	case TypeInt8:
		return Int64(int64(int8(n))), nil
	case TypeInt16:
		return Int64(int64(int16(n))), nil
	case TypeInt32:
		return Int64(int64(int32(n))), nil
	case TypeInt64:
		return Int64(n), nil
	case TypeUint8:
		return Uint64(uint64(uint8(n))), nil
	case TypeUint16:
		return Uint64(uint64(uint16(n))), nil
	case TypeUint32:
		return Uint64(uint64(uint32(n))), nil
	case TypeUint64:
		return Uint64(uint64(n)), nil
	}
	return v, nil
}

func toInt64(v Value) (int64, error) {
	switch v.kind {
	case kindInt:
		if !v.i.IsInt64() {
			return 0, ErrOverflow
		}
		return v.i.Int64(), nil
	case kindFloat:
		if math.IsNaN(v.f) || math.IsInf(v.f, 0) {
			return 0, ErrOverflow
		}
		t := math.Trunc(v.f)
		// -2^63 is representable, 2^63 is not.
		if t < math.MinInt64 || t >= -math.MinInt64 {
			return 0, ErrOverflow
		}
		return int64(t), nil
	}
	return 0, ErrOverflow
}

// FormatValue renders v in radix f under the interpretation t.
//
// FLOAT32 values render their IEEE-754 bit pattern in hex and binary and a
// float32-rounded decimal otherwise. Integers render sign first, then the
// radix prefix, then the magnitude: -42 in hex is "-0x2a". Absent values
// render as the empty string.
func FormatValue(v Value, t Type, f Format) string {
	if v.IsNone() {
		return ""
	}

	if t.IsFloat() {
		f32 := float32(v.Float64())
		switch f {
		case FormatHexadecimal:
			return "0x" + strconv.FormatUint(uint64(math.Float32bits(f32)), 16)
		case FormatBinary:
			return "0b" + strconv.FormatUint(uint64(math.Float32bits(f32)), 2)
		default:
			return formatFloat(float64(f32))
		}
	}

	// Fractions have no radix rendering; only TypeInt lets them through.
	if v.IsFloat() {
		return formatFloat(v.f)
	}

	var prefix string
	var base int
	switch f {
	case FormatHexadecimal:
		prefix, base = "0x", 16
	case FormatBinary:
		prefix, base = "0b", 2
	default:
		return v.i.String()
	}

	if v.i.Sign() < 0 {
		return "-" + prefix + v.BigInt().Neg(v.i).Text(base)
	}
	return prefix + v.i.Text(base)
}

// Render reinterprets v as t and formats it as f. Values that overflow the
// reinterpretation render as the empty string.
func Render(v Value, t Type, f Format) string {
	r, err := Reinterpret(v, t)
	if err != nil {
		return ""
	}
	return FormatValue(r, t, f)
}
