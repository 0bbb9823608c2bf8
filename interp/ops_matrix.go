package interp

import "math"

func identityMat(n int) []float64 {
	out := make([]float64, n*n)
	for i := 0; i < n; i++ {
		out[i*n+i] = 1
	}
	return out
}

func registerMatrixOps() {
	register("mat_identity", func(ctx *Context, a map[string]Value) (Value, error) {
		n := a["size"].AsInt()
		return Value{Kind: KindMatrix, Matrix: identityMat(n)}, nil
	})
	register("math_transpose", func(ctx *Context, a map[string]Value) (Value, error) {
		m := a["a"]
		n := matSize(m)
		out := make([]float64, n*n)
		for r := 0; r < n; r++ {
			for c := 0; c < n; c++ {
				out[c*n+r] = m.Matrix[r*n+c]
			}
		}
		return Value{Kind: KindMatrix, Matrix: out}, nil
	})
	register("math_determinant", func(ctx *Context, a map[string]Value) (Value, error) {
		m := a["a"]
		if matSize(m) == 3 {
			return Float(det3(m.Matrix)), nil
		}
		return Float(det4(m.Matrix)), nil
	})
	register("math_inverse", func(ctx *Context, a map[string]Value) (Value, error) {
		m := a["a"]
		if matSize(m) == 3 {
			return Value{Kind: KindMatrix, Matrix: inv3(m.Matrix)}, nil
		}
		return Value{Kind: KindMatrix, Matrix: inv4(m.Matrix)}, nil
	})
}

func det3(m []float64) float64 {
	return m[0]*(m[4]*m[8]-m[5]*m[7]) -
		m[1]*(m[3]*m[8]-m[5]*m[6]) +
		m[2]*(m[3]*m[7]-m[4]*m[6])
}

func inv3(m []float64) []float64 {
	d := det3(m)
	if d == 0 {
		return make([]float64, 9)
	}
	inv := 1 / d
	return []float64{
		(m[4]*m[8] - m[5]*m[7]) * inv,
		(m[2]*m[7] - m[1]*m[8]) * inv,
		(m[1]*m[5] - m[2]*m[4]) * inv,
		(m[5]*m[6] - m[3]*m[8]) * inv,
		(m[0]*m[8] - m[2]*m[6]) * inv,
		(m[2]*m[3] - m[0]*m[5]) * inv,
		(m[3]*m[7] - m[4]*m[6]) * inv,
		(m[1]*m[6] - m[0]*m[7]) * inv,
		(m[0]*m[4] - m[1]*m[3]) * inv,
	}
}

// det4 and inv4 use cofactor expansion via 3x3 minors; clarity over
// speed, matching the rest of the evaluator's direct-formula style.
func minor4(m []float64, skipRow, skipCol int) []float64 {
	out := make([]float64, 0, 9)
	for r := 0; r < 4; r++ {
		if r == skipRow {
			continue
		}
		for c := 0; c < 4; c++ {
			if c == skipCol {
				continue
			}
			out = append(out, m[r*4+c])
		}
	}
	return out
}

func det4(m []float64) float64 {
	var sum float64
	sign := 1.0
	for c := 0; c < 4; c++ {
		sum += sign * m[c] * det3(minor4(m, 0, c))
		sign = -sign
	}
	return sum
}

func inv4(m []float64) []float64 {
	d := det4(m)
	if d == 0 {
		return make([]float64, 16)
	}
	cof := make([]float64, 16)
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			sign := 1.0
			if (r+c)%2 != 0 {
				sign = -1.0
			}
			cof[c*4+r] = sign * det3(minor4(m, r, c)) / d
		}
	}
	return cof
}

func registerQuatOps() {
	register("quat_mul", func(ctx *Context, a map[string]Value) (Value, error) {
		p, q := a["a"].Vector, a["b"].Vector
		return Vec(
			p[3]*q[0]+p[0]*q[3]+p[1]*q[2]-p[2]*q[1],
			p[3]*q[1]-p[0]*q[2]+p[1]*q[3]+p[2]*q[0],
			p[3]*q[2]+p[0]*q[1]-p[1]*q[0]+p[2]*q[3],
			p[3]*q[3]-p[0]*q[0]-p[1]*q[1]-p[2]*q[2],
		), nil
	})
	register("quat_conjugate", func(ctx *Context, a map[string]Value) (Value, error) {
		q := a["a"].Vector
		return Vec(-q[0], -q[1], -q[2], q[3]), nil
	})
	register("quat_normalize", func(ctx *Context, a map[string]Value) (Value, error) {
		q := a["a"].Vector
		n := math.Sqrt(q[0]*q[0] + q[1]*q[1] + q[2]*q[2] + q[3]*q[3])
		if n == 0 {
			return Vec(0, 0, 0, 1), nil
		}
		return Vec(q[0]/n, q[1]/n, q[2]/n, q[3]/n), nil
	})
	register("quat_slerp", func(ctx *Context, a map[string]Value) (Value, error) {
		p, q, t := a["a"].Vector, a["b"].Vector, a["t"].Scalar
		dot := p[0]*q[0] + p[1]*q[1] + p[2]*q[2] + p[3]*q[3]
		if dot < 0 {
			q = []float64{-q[0], -q[1], -q[2], -q[3]}
			dot = -dot
		}
		if dot > 0.9995 {
			out := make([]float64, 4)
			for i := range out {
				out[i] = lerp(p[i], q[i], t)
			}
			return Vec(out[0], out[1], out[2], out[3]), nil
		}
		theta0 := math.Acos(dot)
		theta := theta0 * t
		sinTheta0 := math.Sin(theta0)
		s0 := math.Cos(theta) - dot*math.Sin(theta)/sinTheta0
		s1 := math.Sin(theta) / sinTheta0
		out := make([]float64, 4)
		for i := range out {
			out[i] = s0*p[i] + s1*q[i]
		}
		return Vec(out[0], out[1], out[2], out[3]), nil
	})
	register("quat_to_float4x4", func(ctx *Context, a map[string]Value) (Value, error) {
		q := a["a"].Vector
		x, y, z, w := q[0], q[1], q[2], q[3]
		return Value{Kind: KindMatrix, Matrix: []float64{
			1 - 2*(y*y+z*z), 2 * (x*y - z*w), 2 * (x*z + y*w), 0,
			2 * (x*y + z*w), 1 - 2*(x*x+z*z), 2 * (y*z - x*w), 0,
			2 * (x*z - y*w), 2 * (y*z + x*w), 1 - 2*(x*x+y*y), 0,
			0, 0, 0, 1,
		}}, nil
	})
	register("quat_from_axis_angle", func(ctx *Context, a map[string]Value) (Value, error) {
		axis, angle := a["axis"].Vector, a["angle"].Scalar
		half := angle / 2
		s := math.Sin(half)
		return Vec(axis[0]*s, axis[1]*s, axis[2]*s, math.Cos(half)), nil
	})
	register("quat_rotate_vector", func(ctx *Context, a map[string]Value) (Value, error) {
		q, v := a["q"].Vector, a["v"].Vector
		qv := []float64{q[0], q[1], q[2]}
		uv := cross3(qv, v)
		uuv := cross3(qv, uv)
		out := make([]float64, 3)
		for i := 0; i < 3; i++ {
			out[i] = v[i] + (uv[i]*q[3]+uuv[i])*2
		}
		return Vec(out[0], out[1], out[2]), nil
	})
}

func cross3(a, b []float64) []float64 {
	return []float64{
		a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0],
	}
}
