package hostgen

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/shadergraph/core/ir"
)

func literalNode(id string, value any) ir.Node {
	return ir.Node{ID: id, Op: "literal", Args: map[string]any{"value": value}}
}

func TestCompileHostBranch(t *testing.T) {
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

	src, err := CompileHost(doc, &fn, DefaultOptions())
	assert.NoError(t, err)
	assert.Contains(t, src, "package generated")
	assert.Contains(t, src, "func Run_main(rt *interp.Runtime")
	assert.Contains(t, src, "l_result := interp.ZeroValue(\"int\")")
	assert.Contains(t, src, "if (interp.LiteralValue(true)).Bool {")
	assert.Contains(t, src, "l_result = interp.LiteralValue(1)")
	assert.Contains(t, src, "return map[string]interp.Value{\"out\": l_result}")
}

func TestCompileHostLoopDelegatesOpsToRuntime(t *testing.T) {
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

	src, err := CompileHost(doc, &fn, DefaultOptions())
	assert.NoError(t, err)
	assert.Contains(t, src, "for loop_loop := int(")
	assert.Contains(t, src, "rt.SetLoopIndex(\"loop\", loop_loop)")
	assert.Contains(t, src, `rt.CallOp("math_add", map[string]interp.Value{"a": l_sum, "b": rt.LoopIndex("loop")})`)
}

func TestCompileHostArraySetPassesSymbolName(t *testing.T) {
	fn := ir.FunctionDef{
		ID:        "main",
		Kind:      ir.KindCPU,
		LocalVars: []ir.LocalVar{{ID: "xs", Type: "array<float,4>"}},
		Nodes: []ir.Node{
			literalNode("idx", 0.0),
			literalNode("val", 1.0),
			{ID: "set", Op: "array_set", Args: map[string]any{"array": "xs", "index": "idx", "value": "val"}},
			{ID: "ret", Op: "func_return"},
		},
		Edges: []ir.Edge{
			{From: "set", PortOut: ir.PortExecOut, To: "ret", Type: ir.EdgeExecution},
		},
	}
	doc := &ir.IRDocument{EntryPoint: "main", Functions: []ir.FunctionDef{fn}}

	src, err := CompileHost(doc, &fn, DefaultOptions())
	assert.NoError(t, err)
	assert.Contains(t, src, `rt.CallOp("array_set", map[string]interp.Value{"array": interp.Str("xs"),`)
}
