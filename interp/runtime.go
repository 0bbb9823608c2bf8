package interp

import (
	"fmt"

	"github.com/shadergraph/core/ir"
)

// Runtime is the support object hostgen-generated Go code calls into.
// It carries exactly the state a compiled function needs that a plain
// Go function signature can't: resource instances, built-ins, loop
// indices, and the op dispatch table — the same pieces Context and
// Frame hold for the tree-walking interpreter, so generated code and
// interpreted code see identical op semantics and OOB behavior.
type Runtime struct {
	ctx   *Context
	fn    *ir.FunctionDef
	loops map[string]int
}

// NewRuntime builds a Runtime for one invocation of fn. Callers get one
// per generated Run_<id> call, mirroring the interpreter's one Frame
// per activation.
func NewRuntime(ctx *Context, fn *ir.FunctionDef) *Runtime {
	return &Runtime{ctx: ctx, fn: fn, loops: map[string]int{}}
}

// CallOp evaluates a registered op by name against already-resolved
// arguments, panicking on error since generated code has no natural
// place to propagate one short of making every call site multi-valued;
// callers that need the error should use CallOpErr instead.
func (rt *Runtime) CallOp(op string, args map[string]Value) Value {
	v, err := rt.CallOpErr(op, args)
	if err != nil {
		panic(err)
	}
	return v
}

// CallOpErr is CallOp without the panic, for call sites (cmd_draw,
// resource mutators) that already thread an error back to their
// caller.
func (rt *Runtime) CallOpErr(op string, args map[string]Value) (Value, error) {
	handler, ok := opTable[op]
	if !ok {
		return None, runtimeErr(rt.fn.ID, "", "op %q has no evaluator", op)
	}
	return handler(rt.ctx, args)
}

// CallFunc invokes another function by id, the compiled counterpart of
// evaluateCall: push a frame, bind inputs, run it through the
// tree-walking interpreter (compiled callees are not required to call
// other compiled callees), and return its single output.
func (rt *Runtime) CallFunc(target string, args map[string]Value) Value {
	callee, ok := rt.ctx.Doc.FunctionByID(target)
	if !ok {
		panic(referentialErr(rt.fn.ID, "", "call_func: unknown function %q", target))
	}
	frame, err := rt.ctx.Push(target)
	if err != nil {
		panic(err)
	}
	defer rt.ctx.Pop()
	initLocals(rt.ctx, callee, frame)
	for _, p := range callee.Inputs {
		if v, ok := args[p.ID]; ok {
			frame.Variables[p.ID] = v
		} else {
			frame.Variables[p.ID] = zeroValueForType(rt.ctx.Doc, p.Type)
		}
	}
	if err := runExecutableGraph(rt.ctx, callee); err != nil {
		panic(err)
	}
	if len(callee.Outputs) == 0 {
		return None
	}
	return frame.returnValue
}

// Dispatch runs one compute-shader invocation of target at grid
// coordinate (gx, gy, gz), setting the same built-in slots
// execDispatch sets for the tree-walking path, except num_workgroups:
// the grid size is not passed to Dispatch, so num_workgroups is always
// (1, 1, 1).
func (rt *Runtime) Dispatch(target string, args map[string]Value, gx, gy, gz int) {
	callee, ok := rt.ctx.Doc.FunctionByID(target)
	if !ok {
		panic(referentialErr(rt.fn.ID, "", "cmd_dispatch: unknown function %q", target))
	}
	frame, err := rt.ctx.Push(target)
	if err != nil {
		panic(err)
	}
	defer rt.ctx.Pop()
	initLocals(rt.ctx, callee, frame)
	for _, p := range callee.Inputs {
		if v, ok := args[p.ID]; ok {
			frame.Variables[p.ID] = v
		} else {
			frame.Variables[p.ID] = zeroValueForType(rt.ctx.Doc, p.Type)
		}
	}
	rt.ctx.SetBuiltins(map[string]Value{
		"global_invocation_id":   Vec(float64(gx), float64(gy), float64(gz)),
		"local_invocation_id":    Vec(float64(gx), float64(gy), float64(gz)),
		"workgroup_id":           Vec(float64(gx), float64(gy), float64(gz)),
		"num_workgroups":         Vec(1, 1, 1),
		"local_invocation_index": Int(0),
	})
	if err := runExecutableGraph(rt.ctx, callee); err != nil {
		panic(err)
	}
}

// Builtin reads a built-in slot set by the surrounding dispatch/draw
// invocation (e.g. "vertex_index", "front_facing").
func (rt *Runtime) Builtin(name string) Value {
	if v, ok := rt.ctx.Builtins[name]; ok {
		return v
	}
	return None
}

// Const resolves a named numeric constant (pi, tau, epsilon, ...).
func (rt *Runtime) Const(name string) Value {
	v, ok := constantValue(name)
	if !ok {
		panic(fmt.Sprintf("hostgen runtime: unknown constant %q", name))
	}
	return v
}

// LoopIndex reads the current induction value of the named flow_loop
// node, set by the generated for-loop via SetLoopIndex.
func (rt *Runtime) LoopIndex(loopID string) Value {
	return Int(rt.loops[loopID])
}

// SetLoopIndex is called once per generated for-loop iteration.
func (rt *Runtime) SetLoopIndex(loopID string, i int) {
	rt.loops[loopID] = i
}

// ZeroValue builds the zero value for an IR type name (scalar, vector,
// matrix, array, or struct), for generated local-variable declarations.
func ZeroValue(typ string) Value {
	return zeroValueForType(nil, typ)
}

// ZeroValueIn is ZeroValue with access to doc, required when typ may
// name a struct defined in doc.
func ZeroValueIn(doc *ir.IRDocument, typ string) Value {
	return zeroValueForType(doc, typ)
}

// LiteralValue converts a decoded-JSON literal (bool, string, float64,
// or []any of those) into a Value, for generated literal-node
// expressions.
func LiteralValue(v any) Value {
	return literalToValue(v)
}
