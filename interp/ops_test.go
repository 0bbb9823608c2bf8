package interp

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func newTestContext() *Context {
	ctx := &Context{Options: DefaultOptions()}
	ctx.Stack = []*Frame{newFrame("test")}
	return ctx
}

func TestArithmeticBroadcast(t *testing.T) {
	ctx := newTestContext()
	v, err := opTable["math_add"](ctx, map[string]Value{"a": Vec(1, 2, 3), "b": Float(10)})
	assert.NoError(t, err)
	assert.Equal(t, []float64{11, 12, 13}, v.Vector)
}

func TestMathMulMatrixVector(t *testing.T) {
	ctx := newTestContext()
	id := Value{Kind: KindMatrix, Matrix: identityMat(4)}
	v, err := opTable["math_mul"](ctx, map[string]Value{"a": id, "b": Vec(1, 2, 3, 1)})
	assert.NoError(t, err)
	assert.Equal(t, []float64{1, 2, 3, 1}, v.Vector)
}

func TestComparisonVector(t *testing.T) {
	ctx := newTestContext()
	v, err := opTable["math_gt"](ctx, map[string]Value{"a": Vec(1, 5, 3), "b": Vec(2, 2, 2)})
	assert.NoError(t, err)
	assert.Equal(t, []float64{0, 1, 1}, v.Vector)
}

func TestClamp(t *testing.T) {
	ctx := newTestContext()
	v, err := opTable["math_clamp"](ctx, map[string]Value{"a": Float(5), "b": Float(0), "c": Float(1)})
	assert.NoError(t, err)
	assert.Equal(t, 1.0, v.Scalar)
}

func TestNormalize(t *testing.T) {
	ctx := newTestContext()
	v, err := opTable["math_normalize"](ctx, map[string]Value{"a": Vec(3, 4, 0)})
	assert.NoError(t, err)
	assert.InDelta(t, 0.6, v.Vector[0], 1e-9)
	assert.InDelta(t, 0.8, v.Vector[1], 1e-9)
}

func TestMatIdentityAndInverse(t *testing.T) {
	ctx := newTestContext()
	id, err := opTable["mat_identity"](ctx, map[string]Value{"size": Int(3)})
	assert.NoError(t, err)
	inv, err := opTable["math_inverse"](ctx, map[string]Value{"a": id})
	assert.NoError(t, err)
	assert.Equal(t, id.Matrix, inv.Matrix)
}

func TestVecSwizzle(t *testing.T) {
	ctx := newTestContext()
	v, err := opTable["vec_swizzle"](ctx, map[string]Value{"vec": Vec(1, 2, 3, 4), "channels": Str("zx")})
	assert.NoError(t, err)
	assert.Equal(t, []float64{3, 1}, v.Vector)
}

func TestVecSwizzleSingleChannelReturnsScalar(t *testing.T) {
	ctx := newTestContext()
	v, err := opTable["vec_swizzle"](ctx, map[string]Value{"vec": Vec(1, 2, 3), "channels": Str("y")})
	assert.NoError(t, err)
	assert.Equal(t, KindScalar, v.Kind)
	assert.Equal(t, 2.0, v.Scalar)
}

func TestStructConstructAndGet(t *testing.T) {
	ctx := newTestContext()
	s, err := opTable["struct_construct"](ctx, map[string]Value{"type": Str("Point"), "x": Float(1), "y": Float(2)})
	assert.NoError(t, err)
	v, err := opTable["struct_get"](ctx, map[string]Value{"struct": s, "field": Str("x")})
	assert.NoError(t, err)
	assert.Equal(t, 1.0, v.Scalar)
}

func TestArrayConstructGetLength(t *testing.T) {
	ctx := newTestContext()
	arr, err := opTable["array_construct"](ctx, map[string]Value{"type": Str("float"), "0": Float(10), "1": Float(20)})
	assert.NoError(t, err)
	length, err := opTable["array_length"](ctx, map[string]Value{"array": arr})
	assert.NoError(t, err)
	assert.Equal(t, 2, length.AsInt())
	el, err := opTable["array_get"](ctx, map[string]Value{"array": arr, "index": Int(1)})
	assert.NoError(t, err)
	assert.Equal(t, 20.0, el.Scalar)
}

func TestArrayGetOutOfBounds(t *testing.T) {
	ctx := newTestContext()
	arr := Arr(Float(1))
	_, err := opTable["array_get"](ctx, map[string]Value{"array": arr, "index": Int(5)})
	assert.Error(t, err)
	var execErr *ExecError
	assert.ErrorAs(t, err, &execErr)
}

func TestQuatFromAxisAngleRotatesVector(t *testing.T) {
	ctx := newTestContext()
	axis := Vec(0, 0, 1)
	q, err := opTable["quat_from_axis_angle"](ctx, map[string]Value{"axis": axis, "angle": Float(3.14159265358979 / 2)})
	assert.NoError(t, err)
	rotated, err := opTable["quat_rotate_vector"](ctx, map[string]Value{"q": q, "v": Vec(1, 0, 0)})
	assert.NoError(t, err)
	assert.InDelta(t, 0, rotated.Vector[0], 1e-6)
	assert.InDelta(t, 1, rotated.Vector[1], 1e-6)
}
