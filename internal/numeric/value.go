// Package numeric converts interpreter results into fixed-width integers or
// float32 values and renders them in a display radix.
//
// A Value is the arbitrary-precision result handed over by an interpreter:
// either a big integer, a float64, or nothing at all. Reinterpret applies a
// Type (width and signedness, or float32), Format renders the outcome in
// decimal, hexadecimal or binary. Nothing in this package keeps state.
package numeric

import (
	"math"
	"math/big"
	"strconv"
	"strings"
)

type valueKind uint8

const (
	kindNone valueKind = iota
	kindInt
	kindFloat
)

// Value is an arbitrary-precision integer, a float64, or absent.
// The zero Value is absent.
type Value struct {
	kind valueKind
	i    *big.Int
	f    float64
}

// None returns the absent value.
func None() Value { return Value{} }

// Int wraps a big integer. The integer is copied.
func Int(i *big.Int) Value {
	if i == nil {
		return Value{}
	}
	return Value{kind: kindInt, i: new(big.Int).Set(i)}
}

// Int64 wraps a machine integer.
func Int64(i int64) Value {
	return Value{kind: kindInt, i: big.NewInt(i)}
}

// Uint64 wraps an unsigned machine integer.
func Uint64(u uint64) Value {
	return Value{kind: kindInt, i: new(big.Int).SetUint64(u)}
}

// Float wraps a float64.
func Float(f float64) Value {
	return Value{kind: kindFloat, f: f}
}

// FromFloat maps integral finite floats onto big integers and keeps
// everything else as a float. Interpreters with a single float64 number
// type use it so that 2+2 reads as 4 and not 4.0.
func FromFloat(f float64) Value {
	if math.IsInf(f, 0) || math.IsNaN(f) || math.Trunc(f) != f {
		return Float(f)
	}
	i, _ := new(big.Float).SetFloat64(f).Int(nil)
	return Value{kind: kindInt, i: i}
}

// IsNone reports whether the value is absent.
func (v Value) IsNone() bool { return v.kind == kindNone }

// IsInt reports whether the value is an integer.
func (v Value) IsInt() bool { return v.kind == kindInt }

// IsFloat reports whether the value is a float.
func (v Value) IsFloat() bool { return v.kind == kindFloat }

// BigInt returns a copy of the integer, or nil for non-integers.
func (v Value) BigInt() *big.Int {
	if v.kind != kindInt {
		return nil
	}
	return new(big.Int).Set(v.i)
}

// Float64 returns the value as a float64. Integers beyond float64 range
// round to the nearest float; absent values yield 0.
func (v Value) Float64() float64 {
	switch v.kind {
	case kindInt:
		f, _ := new(big.Float).SetInt(v.i).Float64()
		return f
	case kindFloat:
		return v.f
	default:
		return 0
	}
}

// Sign returns -1, 0 or +1.
func (v Value) Sign() int {
	switch v.kind {
	case kindInt:
		return v.i.Sign()
	case kindFloat:
		switch {
		case v.f < 0:
			return -1
		case v.f > 0:
			return 1
		}
	}
	return 0
}

// Equal reports whether two values have the same kind and magnitude.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case kindInt:
		return v.i.Cmp(o.i) == 0
	case kindFloat:
		return v.f == o.f || (math.IsNaN(v.f) && math.IsNaN(o.f))
	}
	return true
}

// String renders the raw value in decimal, without any type applied.
func (v Value) String() string {
	switch v.kind {
	case kindInt:
		return v.i.String()
	case kindFloat:
		return formatFloat(v.f)
	default:
		return ""
	}
}

// formatFloat renders the shortest representation that round-trips,
// always with a fractional part or exponent so floats never read as
// integers.
func formatFloat(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	case math.IsNaN(f):
		return "nan"
	}
	abs := math.Abs(f)
	var s string
	if abs != 0 && (abs < 1e-4 || abs >= 1e16) {
		s = strconv.FormatFloat(f, 'e', -1, 64)
	} else {
		s = strconv.FormatFloat(f, 'f', -1, 64)
	}
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return s
}
