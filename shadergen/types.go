package shadergen

import (
	"fmt"

	"github.com/shadergraph/core/ir"
)

// wgslType maps an IR type name to its WGSL spelling via a fixed
// table: float4 -> vec4<f32>, float4x4 -> mat4x4<f32>, and so on.
func wgslType(typ string) string {
	switch ir.PrimitiveType(typ) {
	case ir.TFloat:
		return "f32"
	case ir.TInt:
		return "i32"
	case ir.TBool:
		return "bool"
	case ir.TFloat2:
		return "vec2<f32>"
	case ir.TFloat3:
		return "vec3<f32>"
	case ir.TFloat4:
		return "vec4<f32>"
	case ir.TInt2:
		return "vec2<i32>"
	case ir.TInt3:
		return "vec3<i32>"
	case ir.TInt4:
		return "vec4<i32>"
	case ir.TFloat3x3:
		return "mat3x3<f32>"
	case ir.TFloat4x4:
		return "mat4x4<f32>"
	}
	if elem, size, dynamic, ok := ir.IsArrayPattern(typ); ok {
		if dynamic {
			return fmt.Sprintf("array<%s>", wgslType(elem))
		}
		return fmt.Sprintf("array<%s, %d>", wgslType(elem), size)
	}
	// struct id: WGSL struct names pass through unchanged.
	return typ
}

// wgslConstructor names the per-width vector/matrix constructor WGSL
// uses for a type (e.g. "vec3<f32>" for a float3 construction site).
func wgslConstructor(typ string) string {
	return wgslType(typ)
}
