package numeric

// Type selects how a raw result is reinterpreted before display.
type Type int

const (
	TypeInt Type = iota // interpreter's native integer, no width applied
	TypeInt8
	TypeInt16
	TypeInt32
	TypeInt64
	TypeUint8
	TypeUint16
	TypeUint32
	TypeUint64
	TypeFloat32
)

var typeNames = map[Type]string{
	TypeInt:     "INT",
	TypeInt8:    "INT8",
	TypeInt16:   "INT16",
	TypeInt32:   "INT32",
	TypeInt64:   "INT64",
	TypeUint8:   "UINT8",
	TypeUint16:  "UINT16",
	TypeUint32:  "UINT32",
	TypeUint64:  "UINT64",
	TypeFloat32: "FLOAT32",
}

func (t Type) String() string {
	if s, ok := typeNames[t]; ok {
		return s
	}
	return "UNKNOWN"
}

// IsFloat reports whether t is the float32 interpretation.
func (t Type) IsFloat() bool { return t == TypeFloat32 }

// Format selects the display radix. It never changes the value.
type Format int

const (
	FormatDecimal Format = iota
	FormatHexadecimal
	FormatBinary
)

func (f Format) String() string {
	switch f {
	case FormatDecimal:
		return "DECIMAL"
	case FormatHexadecimal:
		return "HEXADECIMAL"
	case FormatBinary:
		return "BINARY"
	}
	return "UNKNOWN"
}
