package shadergen

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/shadergraph/core/ir"
)

func literalNode(id string, value any) ir.Node {
	return ir.Node{ID: id, Op: "literal", Args: map[string]any{"value": value}}
}

func TestCompileFragmentAddsInputs(t *testing.T) {
	fn := ir.FunctionDef{
		ID:      "main",
		Kind:    ir.KindShader,
		Stage:   ir.StageFragment,
		Inputs:  []ir.Port{{ID: "a", Type: "float4"}, {ID: "b", Type: "float4"}},
		Outputs: []ir.Port{{ID: "out", Type: "float4"}},
		Nodes: []ir.Node{
			{ID: "geta", Op: "var_get", Args: map[string]any{"var": "a"}},
			{ID: "getb", Op: "var_get", Args: map[string]any{"var": "b"}},
			{ID: "add", Op: "math_add", Args: map[string]any{"a": "geta", "b": "getb"}},
			{ID: "ret", Op: "func_return", Args: map[string]any{"out": "add"}},
		},
		Edges: []ir.Edge{},
	}
	doc := &ir.IRDocument{EntryPoint: "main", Functions: []ir.FunctionDef{fn}}

	src, err := Compile(doc, "main", DefaultOptions())
	assert.NoError(t, err)
	assert.Contains(t, src, "@fragment")
	assert.Contains(t, src, "fn main(a: vec4<f32>, b: vec4<f32>, @builtin(front_facing) front_facing: bool) -> vec4<f32> {")
	assert.Contains(t, src, "return (a + b);")
}

func TestCompileComputeDispatchesBufferStore(t *testing.T) {
	fn := ir.FunctionDef{
		ID:    "main",
		Kind:  ir.KindShader,
		Stage: ir.StageCompute,
		Nodes: []ir.Node{
			literalNode("idx", 0.0),
			literalNode("val", 1.0),
			{ID: "store", Op: "buffer_store", Args: map[string]any{"buffer": "xs", "index": "idx", "value": "val"}},
			{ID: "ret", Op: "func_return"},
		},
		Edges: []ir.Edge{
			{From: "store", PortOut: ir.PortExecOut, To: "ret", Type: ir.EdgeExecution},
		},
	}
	doc := &ir.IRDocument{EntryPoint: "main", Functions: []ir.FunctionDef{fn}}

	binding := 0
	opts := DefaultOptions()
	opts.ResourceBindings["xs"] = 0
	opts.ResourceDefs = []ir.ResourceDef{{ID: "xs", Kind: "buffer", Type: "float"}}
	_ = binding

	src, err := Compile(doc, "main", opts)
	assert.NoError(t, err)
	assert.Contains(t, src, "@compute @workgroup_size(1, 1, 1)")
	assert.Contains(t, src, "struct Buffer_xs { data: array<f32> };")
	assert.Contains(t, src, "b_xs.data[0] = 1;")
}

func TestCompileSwizzleStructGetAndColorMixFromRealNodes(t *testing.T) {
	fn := ir.FunctionDef{
		ID:      "main",
		Kind:    ir.KindShader,
		Stage:   ir.StageFragment,
		Inputs:  []ir.Port{{ID: "a", Type: "float4"}, {ID: "b", Type: "float4"}},
		Outputs: []ir.Port{{ID: "out", Type: "float4"}},
		Nodes: []ir.Node{
			{ID: "geta", Op: "var_get", Args: map[string]any{"var": "a"}},
			{ID: "getb", Op: "var_get", Args: map[string]any{"var": "b"}},
			{ID: "swz", Op: "vec_swizzle", Args: map[string]any{"vec": "geta", "channels": "x"}},
			literalNode("litx", 1.0),
			literalNode("lity", 2.0),
			{ID: "mkstruct", Op: "struct_construct", Args: map[string]any{"type": "Pair", "x": "litx", "y": "lity"}},
			{ID: "getx", Op: "struct_get", Args: map[string]any{"struct": "mkstruct", "field": "x"}},
			{ID: "mix", Op: "color_mix", Args: map[string]any{"a": "geta", "b": "getb"}},
			literalNode("idx", 0.0),
			{ID: "store_swz", Op: "buffer_store", Args: map[string]any{"buffer": "bufa", "index": "idx", "value": "swz"}},
			{ID: "store_struct", Op: "buffer_store", Args: map[string]any{"buffer": "bufb", "index": "idx", "value": "getx"}},
			{ID: "ret", Op: "func_return", Args: map[string]any{"out": "mix"}},
		},
		Edges: []ir.Edge{
			{From: "store_swz", PortOut: ir.PortExecOut, To: "store_struct", Type: ir.EdgeExecution},
			{From: "store_struct", PortOut: ir.PortExecOut, To: "ret", Type: ir.EdgeExecution},
		},
	}
	doc := &ir.IRDocument{
		EntryPoint: "main",
		Structs:    []ir.StructDef{{ID: "Pair", Members: []ir.StructMemberDef{{Name: "x", Type: "float"}, {Name: "y", Type: "float"}}}},
		Functions:  []ir.FunctionDef{fn},
	}

	opts := DefaultOptions()
	opts.ResourceDefs = []ir.ResourceDef{
		{ID: "bufa", Kind: "buffer", Type: "float"},
		{ID: "bufb", Kind: "buffer", Type: "float"},
	}
	opts.ResourceBindings["bufa"] = 0
	opts.ResourceBindings["bufb"] = 1

	src, err := Compile(doc, "main", opts)
	assert.NoError(t, err)
	assert.Contains(t, src, "a.x", "vec_swizzle must read the vec key, not value")
	assert.Contains(t, src, "Pair(1, 2).x", "struct_get must read the struct key, not value")
	assert.Contains(t, src, "sg_color_mix(a, b)", "color_mix must map to the canonical a/b argument keys")
}

func TestCompileOpCallMappings(t *testing.T) {
	c := &compiler{}
	arg := func(key string) (string, error) { return key, nil }

	got, err := c.compileOpCall("math_add", arg)
	assert.NoError(t, err)
	assert.Equal(t, "(a + b)", got)

	got, err = c.compileOpCall("math_gt", arg)
	assert.NoError(t, err)
	assert.Equal(t, "select(0.0, 1.0, a > b)", got)

	got, err = c.compileOpCall("math_determinant", arg)
	assert.NoError(t, err)
	assert.Equal(t, "sg_det3(m)", got)

	_, err = c.compileOpCall("nonexistent_op", arg)
	assert.Error(t, err)
}
