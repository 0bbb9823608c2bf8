package ir

import "strings"

// PrimitiveType names one of the fixed scalar/vector/matrix types.
type PrimitiveType string

// The fixed primitive type universe.
const (
	TFloat    PrimitiveType = "float"
	TInt      PrimitiveType = "int"
	TBool     PrimitiveType = "bool"
	TString   PrimitiveType = "string"
	TFloat2   PrimitiveType = "float2"
	TFloat3   PrimitiveType = "float3"
	TFloat4   PrimitiveType = "float4"
	TInt2     PrimitiveType = "int2"
	TInt3     PrimitiveType = "int3"
	TInt4     PrimitiveType = "int4"
	TFloat3x3 PrimitiveType = "float3x3"
	TFloat4x4 PrimitiveType = "float4x4"
)

// PRIMITIVE_TYPES is the closed set of built-in primitive type names.
var PRIMITIVE_TYPES = map[PrimitiveType]bool{
	TFloat: true, TInt: true, TBool: true, TString: true,
	TFloat2: true, TFloat3: true, TFloat4: true,
	TInt2: true, TInt3: true, TInt4: true,
	TFloat3x3: true, TFloat4x4: true,
}

// VectorWidth reports the component count of a vector/matrix-row type, or
// 0 if typ is not a vector type.
func VectorWidth(typ string) int {
	switch PrimitiveType(typ) {
	case TFloat2, TInt2:
		return 2
	case TFloat3, TInt3:
		return 3
	case TFloat4, TInt4:
		return 4
	default:
		return 0
	}
}

// IsFloatVector reports whether typ is one of floatN.
func IsFloatVector(typ string) bool {
	switch PrimitiveType(typ) {
	case TFloat2, TFloat3, TFloat4:
		return true
	default:
		return false
	}
}

// IsIntVector reports whether typ is one of intN.
func IsIntVector(typ string) bool {
	switch PrimitiveType(typ) {
	case TInt2, TInt3, TInt4:
		return true
	default:
		return false
	}
}

// IsMatrix reports whether typ is a matrix type.
func IsMatrix(typ string) bool {
	return PrimitiveType(typ) == TFloat3x3 || PrimitiveType(typ) == TFloat4x4
}

// ScalarTypeOf returns the scalar type underlying a vector/matrix type, or
// typ unchanged if it is already scalar.
func ScalarTypeOf(typ string) string {
	switch PrimitiveType(typ) {
	case TFloat2, TFloat3, TFloat4, TFloat3x3, TFloat4x4:
		return string(TFloat)
	case TInt2, TInt3, TInt4:
		return string(TInt)
	default:
		return typ
	}
}

// IsArrayPattern reports whether typ is of the form array<T, N> or
// array<T>, and if so returns the element type and (for fixed arrays)
// size.
func IsArrayPattern(typ string) (elem string, size int, dynamic bool, ok bool) {
	if !strings.HasPrefix(typ, "array<") || !strings.HasSuffix(typ, ">") {
		return "", 0, false, false
	}
	inner := typ[len("array<") : len(typ)-1]
	parts := strings.SplitN(inner, ",", 2)
	elem = strings.TrimSpace(parts[0])
	if elem == "" {
		return "", 0, false, false
	}
	if len(parts) == 1 {
		return elem, 0, true, true
	}
	n := strings.TrimSpace(parts[1])
	size = 0
	for _, r := range n {
		if r < '0' || r > '9' {
			return "", 0, false, false
		}
		size = size*10 + int(r-'0')
	}
	return elem, size, false, true
}

// BuiltinValueType names the type a built-in symbol resolves to.
type BuiltinValueType struct {
	Name string
	Type PrimitiveType
}

// BUILTIN_TYPES maps built-in symbol names (usable with builtin_get, and
// bound automatically around dispatch/draw invocations) to their type.
var BUILTIN_TYPES = map[string]PrimitiveType{
	"global_invocation_id":  TInt3,
	"local_invocation_id":   TInt3,
	"workgroup_id":          TInt3,
	"num_workgroups":        TInt3,
	"local_invocation_index": TInt,
	"vertex_index":          TInt,
	"instance_index":        TInt,
	"position":              TFloat4,
	"front_facing":          TBool,
}

// ReservedNodeKeys are field keys on a Node that always hold a structural
// symbol (a function/var/resource/type/etc. name) rather than a value to
// resolve as data.
var ReservedNodeKeys = map[string]bool{
	"var": true, "func": true, "resource": true, "buffer": true,
	"tex": true, "texture": true, "loop": true, "type": true,
	"field": true, "member": true, "channels": true, "mask": true,
	"target": true, "vertex": true, "fragment": true, "name": true,
}

// NodeIdentityKeys are fields on a Node that are never arguments.
var NodeIdentityKeys = map[string]bool{
	"id": true, "op": true, "metadata": true, "const_data": true,
}

// Executable op-name prefixes. Ops equal to call_func or
// func_return are also executable regardless of prefix.
var executablePrefixes = []string{"cmd_", "flow_", "var_set", "array_set", "buffer_store", "texture_store"}

// IsExecutableOp reports whether op sits on the execution graph.
func IsExecutableOp(op string) bool {
	if op == "call_func" || op == "func_return" {
		return true
	}
	for _, p := range executablePrefixes {
		if strings.HasPrefix(op, p) {
			return true
		}
	}
	return false
}

// Reserved execution port names.
const (
	PortExecIn        = "exec_in"
	PortExecOut       = "exec_out"
	PortExecTrue      = "exec_true"
	PortExecFalse     = "exec_false"
	PortExecBody      = "exec_body"
	PortExecCompleted = "exec_completed"
)

// EdgeType distinguishes data flow from control flow.
type EdgeType string

const (
	EdgeData      EdgeType = "data"
	EdgeExecution EdgeType = "execution"
)
