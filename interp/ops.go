package interp

import (
	"math"

	"github.com/chewxy/math32"
)

// OpHandler is the op evaluator's single-dispatch entry: a pure
// function of the evaluation context and already-resolved arguments.
// Side-effecting handlers (var_set, array_set, buffer_store,
// texture_store) mutate ctx and return a value only where the
// document's own node shape calls for one to pass through.
type OpHandler func(ctx *Context, args map[string]Value) (Value, error)

var opTable = map[string]OpHandler{}

func register(op string, h OpHandler) { opTable[op] = h }

func f32(v float64) float32 { return float32(v) }
func f64(v float32) float64 { return float64(v) }

func init() {
	registerArithmetic()
	registerComparison()
	registerLogical()
	registerUnaryMath()
	registerBinaryMath()
	registerTernaryMath()
	registerMatrixOps()
	registerQuatOps()
	registerVectorOps()
	registerStructArrayOps()
	registerVarConstBuiltin()
	registerBufferTextureOps()
}

// broadcastBinary applies fn componentwise to a and b, broadcasting a
// scalar against a vector in either position.
func broadcastBinary(a, b Value, fn func(x, y float64) float64) Value {
	switch {
	case a.Kind == KindVector && b.Kind == KindVector:
		n := len(a.Vector)
		out := make([]float64, n)
		for i := 0; i < n; i++ {
			out[i] = fn(a.Vector[i], b.Vector[i])
		}
		return Value{Kind: KindVector, Vector: out}
	case a.Kind == KindVector:
		out := make([]float64, len(a.Vector))
		for i, x := range a.Vector {
			out[i] = fn(x, b.Scalar)
		}
		return Value{Kind: KindVector, Vector: out}
	case b.Kind == KindVector:
		out := make([]float64, len(b.Vector))
		for i, y := range b.Vector {
			out[i] = fn(a.Scalar, y)
		}
		return Value{Kind: KindVector, Vector: out}
	default:
		isInt := a.IsInt && b.IsInt
		return Value{Kind: KindScalar, Scalar: fn(a.Scalar, b.Scalar), IsInt: isInt}
	}
}

func registerArithmetic() {
	register("math_add", func(ctx *Context, a map[string]Value) (Value, error) {
		return arithMatMul(a, func(x, y float64) float64 { return x + y })
	})
	register("math_sub", func(ctx *Context, a map[string]Value) (Value, error) {
		return arithMatMul(a, func(x, y float64) float64 { return x - y })
	})
	register("math_mul", func(ctx *Context, a map[string]Value) (Value, error) {
		return evalMul(a["a"], a["b"])
	})
	register("math_div", func(ctx *Context, a map[string]Value) (Value, error) {
		return arithMatMul(a, func(x, y float64) float64 { return x / y })
	})
	register("math_mod", func(ctx *Context, a map[string]Value) (Value, error) {
		return arithMatMul(a, func(x, y float64) float64 { return math.Mod(x, y) })
	})
	register("math_min", func(ctx *Context, a map[string]Value) (Value, error) {
		return arithMatMul(a, math.Min)
	})
	register("math_max", func(ctx *Context, a map[string]Value) (Value, error) {
		return arithMatMul(a, math.Max)
	})
}

func arithMatMul(args map[string]Value, fn func(x, y float64) float64) (Value, error) {
	return broadcastBinary(args["a"], args["b"], fn), nil
}

// evalMul handles the overloaded math_mul: scalar/vector broadcast,
// matrix*matrix, and matrix*vector.
func evalMul(a, b Value) (Value, error) {
	if a.Kind == KindMatrix && b.Kind == KindMatrix {
		return matMulMat(a, b), nil
	}
	if a.Kind == KindMatrix && b.Kind == KindVector {
		return matMulVec(a, b), nil
	}
	return broadcastBinary(a, b, func(x, y float64) float64 { return x * y }), nil
}

func matSize(m Value) int {
	if len(m.Matrix) == 16 {
		return 4
	}
	return 3
}

func matMulMat(a, b Value) Value {
	n := matSize(a)
	out := make([]float64, n*n)
	for r := 0; r < n; r++ {
		for c := 0; c < n; c++ {
			var sum float64
			for k := 0; k < n; k++ {
				sum += a.Matrix[r*n+k] * b.Matrix[k*n+c]
			}
			out[r*n+c] = sum
		}
	}
	return Value{Kind: KindMatrix, Matrix: out}
}

func matMulVec(a, v Value) Value {
	n := matSize(a)
	out := make([]float64, n)
	for r := 0; r < n; r++ {
		var sum float64
		for c := 0; c < n; c++ {
			sum += a.Matrix[r*n+c] * v.Vector[c]
		}
		out[r] = sum
	}
	return Value{Kind: KindVector, Vector: out}
}

func registerComparison() {
	cmp := func(name string, fn func(x, y float64) bool) {
		register(name, func(ctx *Context, args map[string]Value) (Value, error) {
			a, b := args["a"], args["b"]
			if a.Kind == KindVector {
				out := make([]float64, len(a.Vector))
				for i := range a.Vector {
					bv := b.Scalar
					if b.Kind == KindVector {
						bv = b.Vector[i]
					}
					if fn(a.Vector[i], bv) {
						out[i] = 1
					}
				}
				return Value{Kind: KindVector, Vector: out}, nil
			}
			return Bool(fn(a.Scalar, b.Scalar)), nil
		})
	}
	cmp("math_eq", func(x, y float64) bool { return x == y })
	cmp("math_neq", func(x, y float64) bool { return x != y })
	cmp("math_lt", func(x, y float64) bool { return x < y })
	cmp("math_lte", func(x, y float64) bool { return x <= y })
	cmp("math_gt", func(x, y float64) bool { return x > y })
	cmp("math_gte", func(x, y float64) bool { return x >= y })
}

func registerLogical() {
	register("math_and", func(ctx *Context, a map[string]Value) (Value, error) {
		return Bool(a["a"].Bool && a["b"].Bool), nil
	})
	register("math_or", func(ctx *Context, a map[string]Value) (Value, error) {
		return Bool(a["a"].Bool || a["b"].Bool), nil
	})
	register("math_not", func(ctx *Context, a map[string]Value) (Value, error) {
		return Bool(!a["a"].Bool), nil
	})
	register("math_xor", func(ctx *Context, a map[string]Value) (Value, error) {
		return Bool(a["a"].Bool != a["b"].Bool), nil
	})
}

// unaryElementwise applies fn to a scalar or every component of a vector.
func unaryElementwise(v Value, fn func(float32) float32) Value {
	if v.Kind == KindVector {
		out := make([]float64, len(v.Vector))
		for i, x := range v.Vector {
			out[i] = f64(fn(f32(x)))
		}
		return Value{Kind: KindVector, Vector: out}
	}
	return Float(f64(fn(f32(v.Scalar))))
}

func registerUnaryMath() {
	un := func(name string, fn func(float32) float32) {
		register(name, func(ctx *Context, a map[string]Value) (Value, error) {
			return unaryElementwise(a["a"], fn), nil
		})
	}
	un("math_abs", math32.Abs)
	un("math_sign", func(x float32) float32 {
		switch {
		case x > 0:
			return 1
		case x < 0:
			return -1
		default:
			return 0
		}
	})
	un("math_floor", math32.Floor)
	un("math_ceil", math32.Ceil)
	un("math_round", math32.Round)
	un("math_fract", func(x float32) float32 { return x - math32.Floor(x) })
	un("math_trunc", math32.Trunc)
	un("math_sqrt", math32.Sqrt)
	un("math_inverse_sqrt", func(x float32) float32 { return 1 / math32.Sqrt(x) })
	un("math_exp", math32.Exp)
	un("math_exp2", func(x float32) float32 { return math32.Pow(2, x) })
	un("math_log", math32.Log)
	un("math_log2", math32.Log2)
	un("math_sin", math32.Sin)
	un("math_cos", math32.Cos)
	un("math_tan", math32.Tan)
	un("math_asin", math32.Asin)
	un("math_acos", math32.Acos)
	un("math_atan", math32.Atan)
	un("math_radians", func(x float32) float32 { return x * math32.Pi / 180 })
	un("math_degrees", func(x float32) float32 { return x * 180 / math32.Pi })
	un("math_saturate", func(x float32) float32 {
		if x < 0 {
			return 0
		}
		if x > 1 {
			return 1
		}
		return x
	})

	register("math_normalize", func(ctx *Context, a map[string]Value) (Value, error) {
		v := a["a"]
		if v.Kind != KindVector {
			if v.Scalar == 0 {
				return Float(0), nil
			}
			return Float(v.Scalar / math.Abs(v.Scalar)), nil
		}
		var sumSq float64
		for _, x := range v.Vector {
			sumSq += x * x
		}
		length := math.Sqrt(sumSq)
		out := make([]float64, len(v.Vector))
		for i, x := range v.Vector {
			if length == 0 {
				out[i] = 0
			} else {
				out[i] = x / length
			}
		}
		return Value{Kind: KindVector, Vector: out}, nil
	})

	register("math_mantissa", func(ctx *Context, a map[string]Value) (Value, error) {
		m, _ := math32.Frexp(f32(a["a"].Scalar))
		return Float(f64(m)), nil
	})
	register("math_exponent", func(ctx *Context, a map[string]Value) (Value, error) {
		_, e := math32.Frexp(f32(a["a"].Scalar))
		return Int(e), nil
	})

	classify := func(name string, fn func(float64) bool) {
		register(name, func(ctx *Context, a map[string]Value) (Value, error) {
			v := a["a"]
			if v.Kind == KindVector {
				out := make([]float64, len(v.Vector))
				for i, x := range v.Vector {
					if fn(x) {
						out[i] = 1
					}
				}
				return Value{Kind: KindVector, Vector: out}, nil
			}
			return Bool(fn(v.Scalar)), nil
		})
	}
	classify("math_is_nan", math.IsNaN)
	classify("math_is_inf", func(x float64) bool { return math.IsInf(x, 0) })
	classify("math_is_finite", func(x float64) bool { return !math.IsNaN(x) && !math.IsInf(x, 0) })
}

func registerBinaryMath() {
	register("math_pow", func(ctx *Context, a map[string]Value) (Value, error) {
		return broadcastBinaryF32(a["a"], a["b"], math32.Pow), nil
	})
	register("math_atan2", func(ctx *Context, a map[string]Value) (Value, error) {
		return broadcastBinaryF32(a["a"], a["b"], math32.Atan2), nil
	})
	register("math_step", func(ctx *Context, a map[string]Value) (Value, error) {
		return broadcastBinary(a["a"], a["b"], func(edge, x float64) float64 {
			if x < edge {
				return 0
			}
			return 1
		}), nil
	})
	register("math_dot", func(ctx *Context, a map[string]Value) (Value, error) {
		x, y := a["a"], a["b"]
		var sum float64
		for i := range x.Vector {
			sum += x.Vector[i] * y.Vector[i]
		}
		return Float(sum), nil
	})
	register("math_distance", func(ctx *Context, a map[string]Value) (Value, error) {
		x, y := a["a"], a["b"]
		var sum float64
		for i := range x.Vector {
			d := x.Vector[i] - y.Vector[i]
			sum += d * d
		}
		return Float(math.Sqrt(sum)), nil
	})
	register("math_length", func(ctx *Context, a map[string]Value) (Value, error) {
		v := a["a"]
		if v.Kind != KindVector {
			return Float(math.Abs(v.Scalar)), nil
		}
		var sum float64
		for _, x := range v.Vector {
			sum += x * x
		}
		return Float(math.Sqrt(sum)), nil
	})
	register("math_cross", func(ctx *Context, a map[string]Value) (Value, error) {
		x, y := a["a"].Vector, a["b"].Vector
		return Vec(
			x[1]*y[2]-x[2]*y[1],
			x[2]*y[0]-x[0]*y[2],
			x[0]*y[1]-x[1]*y[0],
		), nil
	})
	register("math_ldexp", func(ctx *Context, a map[string]Value) (Value, error) {
		return Float(f64(math32.Ldexp(f32(a["a"].Scalar), a["b"].AsInt()))), nil
	})
}

func broadcastBinaryF32(a, b Value, fn func(float32, float32) float32) Value {
	return broadcastBinary(a, b, func(x, y float64) float64 { return f64(fn(f32(x), f32(y))) })
}

func lerp(a, b, t float64) float64 { return a + (b-a)*t }

func registerTernaryMath() {
	register("math_clamp", func(ctx *Context, a map[string]Value) (Value, error) {
		lo, hi := a["b"], a["c"]
		return elementwiseTernary(a["a"], lo, hi, func(x, l, h float64) float64 {
			if x < l {
				return l
			}
			if x > h {
				return h
			}
			return x
		}), nil
	})
	register("math_mix", func(ctx *Context, a map[string]Value) (Value, error) {
		return elementwiseTernary(a["a"], a["b"], a["c"], lerp), nil
	})
	register("math_smoothstep", func(ctx *Context, a map[string]Value) (Value, error) {
		edge0, edge1, x := a["a"].Scalar, a["b"].Scalar, a["c"].Scalar
		t := (x - edge0) / (edge1 - edge0)
		if t < 0 {
			t = 0
		}
		if t > 1 {
			t = 1
		}
		return Float(t * t * (3 - 2*t)), nil
	})
	register("math_mad", func(ctx *Context, a map[string]Value) (Value, error) {
		return elementwiseTernary(a["a"], a["b"], a["c"], func(x, y, z float64) float64 { return x*y + z }), nil
	})
	register("math_reflect", func(ctx *Context, a map[string]Value) (Value, error) {
		i, n := a["a"].Vector, a["b"].Vector
		var dot float64
		for k := range i {
			dot += i[k] * n[k]
		}
		out := make([]float64, len(i))
		for k := range i {
			out[k] = i[k] - 2*dot*n[k]
		}
		return Value{Kind: KindVector, Vector: out}, nil
	})
	register("math_refract", func(ctx *Context, a map[string]Value) (Value, error) {
		i, n, eta := a["a"].Vector, a["b"].Vector, a["c"].Scalar
		var dotNI float64
		for k := range i {
			dotNI += n[k] * i[k]
		}
		k := 1 - eta*eta*(1-dotNI*dotNI)
		out := make([]float64, len(i))
		if k < 0 {
			return Value{Kind: KindVector, Vector: out}, nil
		}
		scale := eta*dotNI + math.Sqrt(k)
		for idx := range i {
			out[idx] = eta*i[idx] - scale*n[idx]
		}
		return Value{Kind: KindVector, Vector: out}, nil
	})
	register("math_face_forward", func(ctx *Context, a map[string]Value) (Value, error) {
		n, i, nref := a["a"].Vector, a["b"].Vector, a["c"].Vector
		var dot float64
		for k := range i {
			dot += i[k] * nref[k]
		}
		out := make([]float64, len(n))
		if dot < 0 {
			copy(out, n)
		} else {
			for k := range n {
				out[k] = -n[k]
			}
		}
		return Value{Kind: KindVector, Vector: out}, nil
	})
}

func elementwiseTernary(a, b, c Value, fn func(x, y, z float64) float64) Value {
	if a.Kind != KindVector {
		return Float(fn(a.Scalar, b.Scalar, c.Scalar))
	}
	out := make([]float64, len(a.Vector))
	for i, x := range a.Vector {
		y := b.Scalar
		if b.Kind == KindVector {
			y = b.Vector[i]
		}
		z := c.Scalar
		if c.Kind == KindVector {
			z = c.Vector[i]
		}
		out[i] = fn(x, y, z)
	}
	return Value{Kind: KindVector, Vector: out}
}
