package shadergen

import "fmt"

// infixOps maps an op name to a native WGSL binary operator, for the
// handful of math ops that compile straight to infix syntax instead of
// a function call.
var infixOps = map[string]string{
	"math_add": "+",
	"math_sub": "-",
	"math_mul": "*",
	"math_div": "/",
	"math_mod": "%",
}

// compareOps maps a comparison op to its WGSL relational operator; the
// result is wrapped in select(0.0, 1.0, ...) (math_gt -> select(0.0,
// 1.0, a > b)), so the shader side always yields 0.0/1.0 values; the
// interpreter yields a bool for scalar operands and a 0/1 vector for
// vector operands.
var compareOps = map[string]string{
	"math_eq":  "==",
	"math_neq": "!=",
	"math_lt":  "<",
	"math_lte": "<=",
	"math_gt":  ">",
	"math_gte": ">=",
}

// fnOps maps an op name straight to a WGSL builtin function name, for
// ops whose argument order and semantics already match.
var fnOps = map[string][]string{
	"math_min":          {"min", "a", "b"},
	"math_max":          {"max", "a", "b"},
	"math_abs":          {"abs", "x"},
	"math_sign":         {"sign", "x"},
	"math_floor":        {"floor", "x"},
	"math_ceil":         {"ceil", "x"},
	"math_round":        {"round", "x"},
	"math_fract":        {"fract", "x"},
	"math_trunc":        {"trunc", "x"},
	"math_sqrt":         {"sqrt", "x"},
	"math_inverse_sqrt": {"inverseSqrt", "x"},
	"math_exp":          {"exp", "x"},
	"math_exp2":         {"exp2", "x"},
	"math_log":          {"log", "x"},
	"math_log2":         {"log2", "x"},
	"math_sin":          {"sin", "x"},
	"math_cos":          {"cos", "x"},
	"math_tan":          {"tan", "x"},
	"math_asin":         {"asin", "x"},
	"math_acos":         {"acos", "x"},
	"math_atan":         {"atan", "x"},
	"math_radians":      {"radians", "x"},
	"math_degrees":      {"degrees", "x"},
	"math_normalize":    {"normalize", "x"},
	"math_pow":          {"pow", "a", "b"},
	"math_atan2":        {"atan2", "y", "x"},
	"math_step":         {"step", "edge", "x"},
	"math_dot":          {"dot", "a", "b"},
	"math_distance":     {"distance", "a", "b"},
	"math_length":       {"length", "x"},
	"math_cross":        {"cross", "a", "b"},
	"math_ldexp":        {"ldexp", "a", "b"},
	"math_clamp":        {"clamp", "x", "lo", "hi"},
	"math_mix":          {"mix", "a", "b", "t"},
	"math_smoothstep":   {"smoothstep", "lo", "hi", "x"},
	"math_mad":          {"fma", "a", "b", "c"},
	"math_reflect":      {"reflect", "i", "n"},
	"math_refract":      {"refract", "i", "n", "eta"},
	"math_face_forward": {"faceForward", "n", "i", "nref"},
	"math_transpose":    {"transpose", "m"},
	"math_determinant":  {"sg_det3", "m"},
	"math_inverse":      {"sg_inverse3", "m"},
	"quat_mul":          {"sg_quat_mul", "a", "b"},
	"quat_conjugate":    {"sg_quat_conjugate", "q"},
	"color_mix":         {"sg_color_mix", "a", "b"},
	"array_length":      {"arrayLength", "array"},
}

// logicalOps maps a logical op name to its WGSL operator.
var logicalOps = map[string]string{
	"math_and": "&&",
	"math_or":  "||",
	"math_xor": "!=",
}

func (c *compiler) compileOpCall(op string, argExpr func(key string) (string, error)) (string, error) {
	if sym, ok := infixOps[op]; ok {
		a, err := argExpr("a")
		if err != nil {
			return "", err
		}
		b, err := argExpr("b")
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("(%s %s %s)", a, sym, b), nil
	}
	if sym, ok := compareOps[op]; ok {
		a, err := argExpr("a")
		if err != nil {
			return "", err
		}
		b, err := argExpr("b")
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("select(0.0, 1.0, %s %s %s)", a, sym, b), nil
	}
	if sym, ok := logicalOps[op]; ok {
		a, err := argExpr("a")
		if err != nil {
			return "", err
		}
		b, err := argExpr("b")
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("(%s %s %s)", a, sym, b), nil
	}
	if op == "math_not" {
		x, err := argExpr("x")
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("(!%s)", x), nil
	}
	if op == "math_saturate" {
		x, err := argExpr("x")
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("clamp(%s, 0.0, 1.0)", x), nil
	}
	if spec, ok := fnOps[op]; ok {
		name := spec[0]
		args := make([]string, 0, len(spec)-1)
		for _, key := range spec[1:] {
			a, err := argExpr(key)
			if err != nil {
				return "", err
			}
			args = append(args, a)
		}
		return fmt.Sprintf("%s(%s)", name, joinArgs(args)), nil
	}
	return "", fmt.Errorf("shadergen: op %q has no WGSL mapping", op)
}

func joinArgs(args []string) string {
	out := ""
	for i, a := range args {
		if i > 0 {
			out += ", "
		}
		out += a
	}
	return out
}
