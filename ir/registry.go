package ir

import "fmt"

// ValidationType is the type vocabulary signatures are expressed in: all
// primitive type names, plus the generic markers below, plus a bare
// struct id string for a specific user struct.
type ValidationType string

const (
	VAny    ValidationType = "any"
	VStruct ValidationType = "struct" // any struct type
	VArray  ValidationType = "array"  // any array type
)

// Signature is one overload of an op: a set of required input keys (each
// with a validation type) plus the op's output type. Wildcard allows
// extra keys of type "any" beyond the declared ones, for structural
// ops like struct_construct/call_func/cmd_dispatch.
type Signature struct {
	Inputs   map[string]ValidationType
	Output   ValidationType
	Wildcard bool
}

// OpRegistry is the op signature table: for each op, an
// ordered list of overloaded signatures. Overload resolution (§4.3)
// picks the first signature whose declared keys are all present and
// whose declared types match up to broadcasting.
type OpRegistry struct {
	signatures map[string][]Signature
}

var defaultRegistry = newOpRegistry()

// DefaultRegistry returns the process-wide op signature table.
func DefaultRegistry() *OpRegistry { return defaultRegistry }

// Signatures returns the overload list for op, or nil if op is unknown.
func (r *OpRegistry) Signatures(op string) []Signature { return r.signatures[op] }

// KnownOp reports whether op has at least one registered signature.
func (r *OpRegistry) KnownOp(op string) bool { return len(r.signatures[op]) > 0 }

func sig(inputs map[string]ValidationType, output ValidationType) Signature {
	return Signature{Inputs: inputs, Output: output}
}

// widthSeries returns (scalarType, vec2Type, vec3Type, vec4Type) for the
// "float" or "int" family.
func widthSeries(family ValidationType) [4]ValidationType {
	switch family {
	case "float":
		return [4]ValidationType{"float", "float2", "float3", "float4"}
	case "int":
		return [4]ValidationType{"int", "int2", "int3", "int4"}
	default:
		return [4]ValidationType{family, family, family, family}
	}
}

// addSameWidthBinary registers "(a,b)->out" for every width of family,
// plus the two broadcasting variants (vecN,scalar) and (scalar,vecN).
func addSameWidthBinary(table map[string][]Signature, op string, families ...ValidationType) {
	for _, family := range families {
		w := widthSeries(family)
		for i := 0; i < 4; i++ {
			table[op] = append(table[op], sig(map[string]ValidationType{"a": w[i], "b": w[i]}, w[i]))
		}
		for i := 1; i < 4; i++ {
			table[op] = append(table[op], sig(map[string]ValidationType{"a": w[i], "b": w[0]}, w[i]))
			table[op] = append(table[op], sig(map[string]ValidationType{"a": w[0], "b": w[i]}, w[i]))
		}
	}
}

// addComparison registers a comparison op: scalar->bool, vector->same
// vector width/family.
func addComparison(table map[string][]Signature, op string, families ...ValidationType) {
	for _, family := range families {
		w := widthSeries(family)
		table[op] = append(table[op], sig(map[string]ValidationType{"a": w[0], "b": w[0]}, "bool"))
		for i := 1; i < 4; i++ {
			table[op] = append(table[op], sig(map[string]ValidationType{"a": w[i], "b": w[i]}, w[i]))
		}
	}
}

// addUnary registers a same-type-in-same-type-out unary op across
// scalar/vec2/vec3/vec4 of family.
func addUnary(table map[string][]Signature, op string, families ...ValidationType) {
	for _, family := range families {
		w := widthSeries(family)
		for i := 0; i < 4; i++ {
			table[op] = append(table[op], sig(map[string]ValidationType{"a": w[i]}, w[i]))
		}
	}
}

// addClassification registers a classification op (is_nan/is_inf/
// is_finite): bool for scalar, same-width vector of 0.0/1.0 otherwise.
func addClassification(table map[string][]Signature, op string) {
	w := widthSeries("float")
	table[op] = append(table[op], sig(map[string]ValidationType{"a": w[0]}, "bool"))
	for i := 1; i < 4; i++ {
		table[op] = append(table[op], sig(map[string]ValidationType{"a": w[i]}, w[i]))
	}
}

// addReducing registers an op taking N same-width float vectors and
// returning a scalar float (dot, distance).
func addReducing(table map[string][]Signature, op string, arity int) {
	w := widthSeries("float")
	for i := 0; i < 4; i++ {
		ins := map[string]ValidationType{}
		keys := []string{"a", "b", "c"}
		for k := 0; k < arity; k++ {
			ins[keys[k]] = w[i]
		}
		table[op] = append(table[op], sig(ins, "float"))
	}
}

// addTernarySameWidth registers a 3-argument op where all three operands
// (or the first two, with the third allowed as a scalar blend factor)
// share family and width.
func addTernarySameWidth(table map[string][]Signature, op string, thirdScalarOK bool, family ValidationType) {
	w := widthSeries(family)
	for i := 0; i < 4; i++ {
		table[op] = append(table[op], sig(map[string]ValidationType{"a": w[i], "b": w[i], "c": w[i]}, w[i]))
		if thirdScalarOK && i > 0 {
			table[op] = append(table[op], sig(map[string]ValidationType{"a": w[i], "b": w[i], "c": w[0]}, w[i]))
		}
	}
}

func newOpRegistry() *OpRegistry {
	t := map[string][]Signature{}

	// Arithmetic, broadcasting.
	addSameWidthBinary(t, "math_add", "float", "int")
	addSameWidthBinary(t, "math_sub", "float", "int")
	addSameWidthBinary(t, "math_mul", "float", "int")
	addSameWidthBinary(t, "math_div", "float", "int")
	addSameWidthBinary(t, "math_mod", "float", "int")
	addSameWidthBinary(t, "math_min", "float", "int")
	addSameWidthBinary(t, "math_max", "float", "int")

	// Comparisons.
	addComparison(t, "math_eq", "float", "int")
	addComparison(t, "math_neq", "float", "int")
	addComparison(t, "math_lt", "float", "int")
	addComparison(t, "math_lte", "float", "int")
	addComparison(t, "math_gt", "float", "int")
	addComparison(t, "math_gte", "float", "int")

	// Logical (scalar bool only).
	t["math_and"] = []Signature{sig(map[string]ValidationType{"a": "bool", "b": "bool"}, "bool")}
	t["math_or"] = []Signature{sig(map[string]ValidationType{"a": "bool", "b": "bool"}, "bool")}
	t["math_not"] = []Signature{sig(map[string]ValidationType{"a": "bool"}, "bool")}
	t["math_xor"] = []Signature{sig(map[string]ValidationType{"a": "bool", "b": "bool"}, "bool")}

	// Unary math, float-only families.
	for _, op := range []string{
		"math_abs", "math_sign", "math_floor", "math_ceil", "math_round", "math_fract", "math_trunc",
		"math_sqrt", "math_inverse_sqrt", "math_exp", "math_exp2", "math_log", "math_log2",
		"math_sin", "math_cos", "math_tan", "math_asin", "math_acos", "math_atan",
		"math_radians", "math_degrees", "math_saturate", "math_mantissa", "math_exponent",
	} {
		addUnary(t, op, "float")
	}
	addUnary(t, "math_abs", "int")
	addUnary(t, "math_sign", "int")
	addUnary(t, "math_normalize", "float") // width>=2 meaningful, width 1 accepted too

	addClassification(t, "math_is_nan")
	addClassification(t, "math_is_inf")
	addClassification(t, "math_is_finite")

	// Two-arg math beyond simple arithmetic.
	addSameWidthBinary(t, "math_pow", "float")
	addSameWidthBinary(t, "math_atan2", "float")
	addSameWidthBinary(t, "math_step", "float")
	addReducing(t, "math_dot", 2)
	addReducing(t, "math_distance", 2)
	for i := 0; i < 4; i++ {
		w := widthSeries("float")
		t["math_length"] = append(t["math_length"], sig(map[string]ValidationType{"a": w[i]}, "float"))
	}
	t["math_cross"] = []Signature{sig(map[string]ValidationType{"a": "float3", "b": "float3"}, "float3")}
	t["math_ldexp"] = []Signature{
		sig(map[string]ValidationType{"a": "float", "b": "int"}, "float"),
	}

	// Ternary math.
	addTernarySameWidth(t, "math_clamp", true, "float")
	addTernarySameWidth(t, "math_clamp", true, "int")
	addTernarySameWidth(t, "math_mix", true, "float")
	addTernarySameWidth(t, "math_smoothstep", false, "float")
	addTernarySameWidth(t, "math_mad", false, "float")
	addTernarySameWidth(t, "math_reflect", false, "float")
	addTernarySameWidth(t, "math_refract", false, "float")
	addTernarySameWidth(t, "math_face_forward", false, "float")

	// Matrix ops.
	t["mat_identity"] = []Signature{
		sig(map[string]ValidationType{"size": "int"}, "float3x3"),
	}
	t["math_mul"] = append(t["math_mul"],
		sig(map[string]ValidationType{"a": "float3x3", "b": "float3x3"}, "float3x3"),
		sig(map[string]ValidationType{"a": "float4x4", "b": "float4x4"}, "float4x4"),
		sig(map[string]ValidationType{"a": "float3x3", "b": "float3"}, "float3"),
		sig(map[string]ValidationType{"a": "float4x4", "b": "float4"}, "float4"),
	)
	t["math_transpose"] = []Signature{
		sig(map[string]ValidationType{"a": "float3x3"}, "float3x3"),
		sig(map[string]ValidationType{"a": "float4x4"}, "float4x4"),
	}
	t["math_determinant"] = []Signature{
		sig(map[string]ValidationType{"a": "float3x3"}, "float"),
		sig(map[string]ValidationType{"a": "float4x4"}, "float"),
	}
	t["math_inverse"] = []Signature{
		sig(map[string]ValidationType{"a": "float3x3"}, "float3x3"),
		sig(map[string]ValidationType{"a": "float4x4"}, "float4x4"),
	}

	// Quaternion ops (represented as float4 [x,y,z,w]).
	t["quat_mul"] = []Signature{sig(map[string]ValidationType{"a": "float4", "b": "float4"}, "float4")}
	t["quat_conjugate"] = []Signature{sig(map[string]ValidationType{"a": "float4"}, "float4")}
	t["quat_normalize"] = []Signature{sig(map[string]ValidationType{"a": "float4"}, "float4")}
	t["quat_slerp"] = []Signature{sig(map[string]ValidationType{"a": "float4", "b": "float4", "t": "float"}, "float4")}
	t["quat_to_float4x4"] = []Signature{sig(map[string]ValidationType{"a": "float4"}, "float4x4")}
	t["quat_from_axis_angle"] = []Signature{sig(map[string]ValidationType{"axis": "float3", "angle": "float"}, "float4")}
	t["quat_rotate_vector"] = []Signature{sig(map[string]ValidationType{"q": "float4", "v": "float3"}, "float3")}

	// Color.
	t["color_mix"] = []Signature{sig(map[string]ValidationType{"a": "float4", "b": "float4"}, "float4")}

	// Vector construction / access.
	for i, typ := range []ValidationType{"float2", "float3", "float4"} {
		n := i + 2
		ins := map[string]ValidationType{}
		for _, c := range "xyzw"[:n] {
			ins[string(c)] = "float"
		}
		t["vec_construct"] = append(t["vec_construct"], sig(ins, typ))
		ins2 := map[string]ValidationType{}
		for _, c := range "xyzw"[:n] {
			ins2[string(c)] = "int"
		}
		itype := ValidationType([]string{"int2", "int3", "int4"}[i])
		t["vec_construct"] = append(t["vec_construct"], sig(ins2, itype))
	}
	t["vec_swizzle"] = []Signature{
		{Inputs: map[string]ValidationType{"vec": VAny, "channels": "string"}, Output: VAny, Wildcard: false},
	}
	t["vec_splat"] = []Signature{
		sig(map[string]ValidationType{"value": "float", "size": "int"}, VAny),
	}

	// Struct / array ops (structural: accept wildcard extra args).
	t["struct_construct"] = []Signature{{Inputs: map[string]ValidationType{"type": "string"}, Output: VStruct, Wildcard: true}}
	t["struct_get"] = []Signature{{Inputs: map[string]ValidationType{"struct": VAny, "field": "string"}, Output: VAny}}
	t["array_construct"] = []Signature{{Inputs: map[string]ValidationType{"type": "string"}, Output: VArray, Wildcard: true}}
	t["array_get"] = []Signature{sig(map[string]ValidationType{"array": VAny, "index": "int"}, VAny)}
	t["array_set"] = []Signature{sig(map[string]ValidationType{"array": "string", "index": "int", "value": VAny}, VAny)}
	t["array_length"] = []Signature{sig(map[string]ValidationType{"array": VAny}, "int")}

	// Variables / constants / built-ins.
	t["var_get"] = []Signature{{Inputs: map[string]ValidationType{"var": "string"}, Output: VAny}}
	t["var_set"] = []Signature{{Inputs: map[string]ValidationType{"var": "string", "value": VAny}, Output: VAny}}
	t["literal"] = []Signature{{Inputs: map[string]ValidationType{}, Output: VAny, Wildcard: true}}
	t["loop_index"] = []Signature{{Inputs: map[string]ValidationType{"loop": "string"}, Output: "int"}}
	t["const_get"] = []Signature{{Inputs: map[string]ValidationType{"name": "string"}, Output: VAny}}
	t["builtin_get"] = []Signature{{Inputs: map[string]ValidationType{"name": "string"}, Output: VAny}}
	t["resource_get_size"] = []Signature{{Inputs: map[string]ValidationType{"resource": "string"}, Output: "int2"}}
	t["resource_get_format"] = []Signature{{Inputs: map[string]ValidationType{"resource": "string"}, Output: "string"}}

	// Buffer / texture access.
	t["buffer_load"] = []Signature{sig(map[string]ValidationType{"buffer": "string", "index": "int"}, VAny)}
	t["buffer_store"] = []Signature{sig(map[string]ValidationType{"buffer": "string", "index": "int", "value": VAny}, VAny)}
	t["texture_sample"] = []Signature{sig(map[string]ValidationType{"tex": "string", "uv": "float2"}, "float4")}
	t["texture_load"] = []Signature{sig(map[string]ValidationType{"tex": "string", "coord": "int2"}, "float4")}
	t["texture_store"] = []Signature{sig(map[string]ValidationType{"texture": "string", "coord": "int2", "value": "float4"}, "float4")}

	// Flow / commands (executable, structural wildcard).
	t["flow_branch"] = []Signature{{Inputs: map[string]ValidationType{"cond": "bool"}, Output: VAny}}
	t["flow_loop"] = []Signature{{Inputs: map[string]ValidationType{"start": "int", "end": "int"}, Output: VAny}}
	t["call_func"] = []Signature{{Inputs: map[string]ValidationType{"func": "string"}, Output: VAny, Wildcard: true}}
	t["func_return"] = []Signature{{Inputs: map[string]ValidationType{}, Output: VAny, Wildcard: true}}
	t["cmd_dispatch"] = []Signature{{Inputs: map[string]ValidationType{"func": "string", "dispatch": "int3"}, Output: VAny, Wildcard: true}}
	t["cmd_draw"] = []Signature{{Inputs: map[string]ValidationType{"vertex": "string", "fragment": "string", "count": "int", "target": "string"}, Output: VAny, Wildcard: true}}
	t["cmd_resize_resource"] = []Signature{{Inputs: map[string]ValidationType{"resource": "string"}, Output: VAny, Wildcard: true}}

	return &OpRegistry{signatures: t}
}

// ConstantTable is the fixed set of names const_get may resolve.
var ConstantTable = map[string]ValidationType{
	"pi":        "float",
	"tau":       "float",
	"e":         "float",
	"epsilon":   "float",
	"max_float": "float",
	"max_int":   "int",
}

func (r *OpRegistry) String() string {
	return fmt.Sprintf("OpRegistry{%d ops}", len(r.signatures))
}

// BUILTIN_OP is the closed set of op names the registry recognizes.
var BUILTIN_OP = buildBuiltinOpSet()

func buildBuiltinOpSet() map[string]bool {
	set := make(map[string]bool, len(defaultRegistry.signatures))
	for op := range defaultRegistry.signatures {
		set[op] = true
	}
	return set
}
