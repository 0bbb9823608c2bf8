package interp

import "fmt"

// ValueKind tags a RuntimeValue.
type ValueKind uint8

const (
	KindNone ValueKind = iota
	KindScalar
	KindBool
	KindVector
	KindMatrix
	KindStruct
	KindArray
	KindString
)

// Value is the tagged runtime value variant every op handler and the
// interpreter's frame state exchange. Numeric scalars track
// IsInt so that int/float distinctions survive through var storage and
// host/shader marshalling without a parallel integer representation.
type Value struct {
	Kind   ValueKind
	Scalar float64
	IsInt  bool
	Bool   bool
	Vector []float64 // length 2, 3, or 4
	Matrix []float64 // row-major, length 9 (3x3) or 16 (4x4)
	Struct map[string]Value
	Array  []Value
	Str    string
}

// None is the absence of a value (executable ops with no meaningful
// result, e.g. var_set's context-only siblings).
var None = Value{Kind: KindNone}

func Float(v float64) Value  { return Value{Kind: KindScalar, Scalar: v} }
func Int(v int) Value        { return Value{Kind: KindScalar, Scalar: float64(v), IsInt: true} }
func Bool(b bool) Value      { return Value{Kind: KindBool, Bool: b} }
func Str(s string) Value     { return Value{Kind: KindString, Str: s} }
func Vec(xs ...float64) Value {
	cp := append([]float64(nil), xs...)
	return Value{Kind: KindVector, Vector: cp}
}
func Mat(xs ...float64) Value {
	cp := append([]float64(nil), xs...)
	return Value{Kind: KindMatrix, Matrix: cp}
}
func Arr(vals ...Value) Value { return Value{Kind: KindArray, Array: vals} }
func StructOf(fields map[string]Value) Value {
	return Value{Kind: KindStruct, Struct: fields}
}

// AsFloat coerces a scalar-kind value to float64; panics-free use sites
// must check Kind first when the value could be a vector.
func (v Value) AsFloat() float64 { return v.Scalar }

// AsInt truncates a scalar value to int.
func (v Value) AsInt() int { return int(v.Scalar) }

func (v Value) String() string {
	switch v.Kind {
	case KindNone:
		return "<none>"
	case KindScalar:
		if v.IsInt {
			return fmt.Sprintf("%d", int64(v.Scalar))
		}
		return fmt.Sprintf("%g", v.Scalar)
	case KindBool:
		return fmt.Sprintf("%v", v.Bool)
	case KindVector:
		return fmt.Sprintf("%v", v.Vector)
	case KindMatrix:
		return fmt.Sprintf("%v", v.Matrix)
	case KindStruct:
		return fmt.Sprintf("%v", v.Struct)
	case KindArray:
		return fmt.Sprintf("%v", v.Array)
	case KindString:
		return v.Str
	default:
		return "<invalid>"
	}
}
