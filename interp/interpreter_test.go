package interp

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/shadergraph/core/ir"
)

func literalNode(id string, value any) ir.Node {
	return ir.Node{ID: id, Op: "literal", Args: map[string]any{"value": value}}
}

// TestBranchTrueSide exercises flow_branch choosing its true side and
// returning the value var_set just wrote.
func TestBranchTrueSide(t *testing.T) {
	fn := ir.FunctionDef{
		ID:        "main",
		Kind:      ir.KindCPU,
		Outputs:   []ir.Port{{ID: "out", Type: "int"}},
		LocalVars: []ir.LocalVar{{ID: "result", Type: "int"}},
		Nodes: []ir.Node{
			literalNode("cond", true),
			{ID: "branch", Op: "flow_branch"},
			{ID: "setTrue", Op: "var_set", Args: map[string]any{"var": "result", "value": 1.0}},
			{ID: "retTrue", Op: "func_return", Args: map[string]any{"out": "result"}},
			{ID: "setFalse", Op: "var_set", Args: map[string]any{"var": "result", "value": 2.0}},
			{ID: "retFalse", Op: "func_return", Args: map[string]any{"out": "result"}},
		},
		Edges: []ir.Edge{
			{From: "cond", PortOut: "value", To: "branch", PortIn: "cond", Type: ir.EdgeData},
			{From: "branch", PortOut: ir.PortExecTrue, To: "setTrue", Type: ir.EdgeExecution},
			{From: "setTrue", PortOut: ir.PortExecOut, To: "retTrue", Type: ir.EdgeExecution},
			{From: "branch", PortOut: ir.PortExecFalse, To: "setFalse", Type: ir.EdgeExecution},
			{From: "setFalse", PortOut: ir.PortExecOut, To: "retFalse", Type: ir.EdgeExecution},
		},
	}
	doc := &ir.IRDocument{EntryPoint: "main", Functions: []ir.FunctionDef{fn}}
	ctx, err := Interpret(doc, nil, DefaultOptions())
	assert.NoError(t, err)
	assert.Equal(t, 1, ctx.EntryResult.AsInt())
}

// TestLoopAccumulator sums loop_index over [0,5) into a local.
func TestLoopAccumulator(t *testing.T) {
	fn := ir.FunctionDef{
		ID:        "main",
		Kind:      ir.KindCPU,
		Outputs:   []ir.Port{{ID: "out", Type: "int"}},
		LocalVars: []ir.LocalVar{{ID: "sum", Type: "int"}},
		Nodes: []ir.Node{
			literalNode("start", 0.0),
			literalNode("end", 5.0),
			{ID: "loop", Op: "flow_loop"},
			{ID: "idx", Op: "loop_index", Args: map[string]any{"loop": "loop"}},
			{ID: "add", Op: "math_add", Args: map[string]any{"a": "sum", "b": "idx"}},
			{ID: "store", Op: "var_set", Args: map[string]any{"var": "sum", "value": "add"}},
			{ID: "ret", Op: "func_return", Args: map[string]any{"out": "sum"}},
		},
		Edges: []ir.Edge{
			{From: "start", PortOut: "value", To: "loop", PortIn: "start", Type: ir.EdgeData},
			{From: "end", PortOut: "value", To: "loop", PortIn: "end", Type: ir.EdgeData},
			{From: "loop", PortOut: ir.PortExecBody, To: "store", Type: ir.EdgeExecution},
			{From: "loop", PortOut: ir.PortExecCompleted, To: "ret", Type: ir.EdgeExecution},
		},
	}
	doc := &ir.IRDocument{EntryPoint: "main", Functions: []ir.FunctionDef{fn}}
	ctx, err := Interpret(doc, nil, DefaultOptions())
	assert.NoError(t, err)
	assert.Equal(t, 10, ctx.EntryResult.AsInt()) // 0+1+2+3+4
}

// TestRecursionDetected checks that call_func calling back into an
// already-active function raises a runtime error instead of stack
// overflowing.
func TestRecursionDetected(t *testing.T) {
	fn := ir.FunctionDef{
		ID:   "main",
		Kind: ir.KindCPU,
		Nodes: []ir.Node{
			{ID: "call", Op: "call_func", Args: map[string]any{"func": "main"}},
		},
		Edges: []ir.Edge{},
	}
	doc := &ir.IRDocument{EntryPoint: "main", Functions: []ir.FunctionDef{fn}}
	_, err := Interpret(doc, nil, DefaultOptions())
	assert.Error(t, err)
	var execErr *ExecError
	assert.ErrorAs(t, err, &execErr)
	assert.Equal(t, ir.KindRuntime, execErr.Kind)
}

// TestBufferOutOfBoundsHardError exercises the default OOB contract,
// caught at runtime rather than validation time.
func TestBufferOutOfBoundsHardError(t *testing.T) {
	count := 2
	fn := ir.FunctionDef{
		ID:      "main",
		Kind:    ir.KindCPU,
		Outputs: []ir.Port{{ID: "out", Type: "float"}},
		Nodes: []ir.Node{
			literalNode("idx", 9.0),
			{ID: "load", Op: "buffer_load", Args: map[string]any{"buffer": "buf", "index": "idx"}},
			{ID: "ret", Op: "func_return", Args: map[string]any{"out": "load"}},
		},
	}
	doc := &ir.IRDocument{
		EntryPoint: "main",
		Resources:  []ir.ResourceDef{{ID: "buf", Kind: "buffer", Type: "float", Size: ir.SizeSpec{Count: &count}}},
		Functions:  []ir.FunctionDef{fn},
	}
	_, err := Interpret(doc, nil, DefaultOptions())
	assert.Error(t, err)
	var execErr *ExecError
	assert.ErrorAs(t, err, &execErr)
	assert.Equal(t, ir.KindBounds, execErr.Kind)
}

func TestBufferOutOfBoundsReadZeroPolicy(t *testing.T) {
	count := 2
	fn := ir.FunctionDef{
		ID:      "main",
		Kind:    ir.KindCPU,
		Outputs: []ir.Port{{ID: "out", Type: "float"}},
		Nodes: []ir.Node{
			literalNode("idx", 9.0),
			{ID: "load", Op: "buffer_load", Args: map[string]any{"buffer": "buf", "index": "idx"}},
			{ID: "ret", Op: "func_return", Args: map[string]any{"out": "load"}},
		},
		Edges: []ir.Edge{
			{From: "idx", PortOut: "value", To: "load", PortIn: "index", Type: ir.EdgeData},
			{From: "load", PortOut: "value", To: "ret", PortIn: "out", Type: ir.EdgeData},
		},
	}
	doc := &ir.IRDocument{
		EntryPoint: "main",
		Resources:  []ir.ResourceDef{{ID: "buf", Kind: "buffer", Type: "float", Size: ir.SizeSpec{Count: &count}}},
		Functions:  []ir.FunctionDef{fn},
	}
	opts := Options{OOBPolicy: OOBReadZeroSkipWrite}
	ctx, err := Interpret(doc, nil, opts)
	assert.NoError(t, err)
	assert.Equal(t, 0.0, ctx.EntryResult.Scalar)
}
