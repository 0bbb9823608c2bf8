package interp

import (
	"github.com/shadergraph/core/ir"
)

// Interpret runs doc's entry point to completion against inputs and
// returns the final evaluation context.
// Interpret does not validate doc; callers run ir.Validate first and
// pass the validator's cloned document through.
func Interpret(doc *ir.IRDocument, inputs map[string]Value, opts Options) (*Context, error) {
	ctx := newContext(doc, inputs, opts)
	entry, ok := doc.FunctionByID(doc.EntryPoint)
	if !ok {
		return nil, referentialErr("", "", "entry point %q not found", doc.EntryPoint)
	}
	if entry.Kind != ir.KindCPU {
		return nil, pipelineErr("entry point %q is not a cpu function", doc.EntryPoint)
	}
	frame, err := ctx.Push(entry.ID)
	if err != nil {
		return ctx, err
	}
	initLocals(ctx, entry, frame)
	bindEntryInputs(ctx, entry, frame, inputs)
	runErr := runExecutableGraph(ctx, entry)
	ctx.EntryResult = frame.returnValue
	ctx.Pop()
	return ctx, runErr
}

// InterpretTool parses and validates a raw IR document and interprets
// it in one call, mirroring the CLI's "interpret" subcommand.
func InterpretTool(data []byte, inputs map[string]Value, opts Options) (*Context, error) {
	doc, err := ir.Parse(data)
	if err != nil {
		return nil, err
	}
	result := ir.Validate(doc)
	if !result.OK {
		return nil, pipelineErr("document failed validation: %d error(s)", len(result.Errors))
	}
	return Interpret(result.Document, inputs, opts)
}

func newContext(doc *ir.IRDocument, inputs map[string]Value, opts Options) *Context {
	ctx := &Context{
		Doc:      doc,
		Inputs:   map[string]Value{},
		Globals:  map[string]Value{},
		Buffers:  map[string]*BufferInstance{},
		Textures: map[string]*TextureInstance{},
		Counters: map[string]*CounterInstance{},
		Options:  opts,
	}
	for k, v := range inputs {
		ctx.Inputs[k] = v
	}
	for _, g := range doc.Globals {
		ctx.Globals[g.ID] = initialValueToValue(doc, g.Type, g.InitialValue)
	}
	for i := range doc.Resources {
		res := &doc.Resources[i]
		switch res.Kind {
		case "buffer":
			ctx.Buffers[res.ID] = newBuffer(res)
		case "texture":
			ctx.Textures[res.ID] = newTexture(res)
		case "atomic_counter":
			ctx.Counters[res.ID] = &CounterInstance{}
		}
	}
	return ctx
}

func newBuffer(res *ir.ResourceDef) *BufferInstance {
	n := 0
	if res.Size.Count != nil {
		n = *res.Size.Count
	}
	data := make([]Value, n)
	for i := range data {
		data[i] = zeroValueForType(nil, res.Type)
	}
	return &BufferInstance{ElemType: res.Type, Data: data}
}

func newTexture(res *ir.ResourceDef) *TextureInstance {
	w, h := 0, 0
	if res.Size.Width != nil {
		w = *res.Size.Width
	}
	if res.Size.Height != nil {
		h = *res.Size.Height
	}
	filter := res.Filter
	if filter == "" {
		filter = "nearest"
	}
	wrap := res.Wrap
	if wrap == "" {
		wrap = "clamp"
	}
	return &TextureInstance{
		Width: w, Height: h,
		Format: res.Format, Filter: filter, Wrap: wrap,
		Pixels: make([][4]float64, w*h),
	}
}

func bindEntryInputs(ctx *Context, entry *ir.FunctionDef, frame *Frame, inputs map[string]Value) {
	for _, p := range entry.Inputs {
		if v, ok := inputs[p.ID]; ok {
			frame.Variables[p.ID] = v
			continue
		}
		frame.Variables[p.ID] = zeroValueForType(ctx.Doc, p.Type)
	}
}

func initLocals(ctx *Context, fn *ir.FunctionDef, frame *Frame) {
	for _, lv := range fn.LocalVars {
		frame.Variables[lv.ID] = initialValueToValue(ctx.Doc, lv.Type, lv.InitialValue)
	}
}

// isSymbolKey reports whether key on a node of the given op always
// carries a bare symbol name rather than a value to resolve: the
// document's reserved keys, plus array_set's "array" target, which names
// the local array variable to update (ir.InferType types array_set by
// its "value" argument and never resolves this key).
func isSymbolKey(op, key string) bool {
	if ir.ReservedNodeKeys[key] {
		return true
	}
	return op == "array_set" && key == "array"
}

// resolveArguments resolves every key bound on node — by data edge,
// then inline reference, then literal — the runtime counterpart of
// ir.resolveArgType's static resolution.
func resolveArguments(ctx *Context, fn *ir.FunctionDef, node *ir.Node) (map[string]Value, error) {
	out := make(map[string]Value, len(node.Args))
	for key, raw := range node.Args {
		if isSymbolKey(node.Op, key) {
			s, _ := raw.(string)
			out[key] = Str(s)
			continue
		}
		if edge, ok := fn.DataEdgeTo(node.ID, key); ok {
			v, err := evaluateNode(ctx, fn, edge.From)
			if err != nil {
				return nil, err
			}
			out[key] = v
			continue
		}
		v, err := resolveInlineValue(ctx, fn, raw)
		if err != nil {
			return nil, err
		}
		out[key] = v
	}
	for i := range fn.Edges {
		e := &fn.Edges[i]
		if e.Type != ir.EdgeData || e.To != node.ID {
			continue
		}
		if _, already := out[e.PortIn]; already {
			continue
		}
		v, err := evaluateNode(ctx, fn, e.From)
		if err != nil {
			return nil, err
		}
		out[e.PortIn] = v
	}
	return out, nil
}

func resolveInlineValue(ctx *Context, fn *ir.FunctionDef, raw any) (Value, error) {
	if s, ok := raw.(string); ok {
		frame := ctx.Current()
		if v, ok := frame.Variables[s]; ok {
			return v, nil
		}
		if v, ok := ctx.Inputs[s]; ok {
			return v, nil
		}
		if v, ok := ctx.Globals[s]; ok {
			return v, nil
		}
		if _, ok := fn.NodeByID(s); ok {
			return evaluateNode(ctx, fn, s)
		}
		return Str(s), nil
	}
	return literalToValue(raw), nil
}

func literalToValue(v any) Value {
	switch val := v.(type) {
	case nil:
		return None
	case bool:
		return Bool(val)
	case string:
		return Str(val)
	case float64:
		if val == float64(int64(val)) {
			return Int(int(val))
		}
		return Float(val)
	case []any:
		allScalar := true
		for _, e := range val {
			if _, ok := e.(float64); !ok {
				allScalar = false
				break
			}
		}
		if allScalar {
			xs := make([]float64, len(val))
			for i, e := range val {
				xs[i] = e.(float64)
			}
			return Value{Kind: KindVector, Vector: xs}
		}
		elems := make([]Value, len(val))
		for i, e := range val {
			elems[i] = literalToValue(e)
		}
		return Arr(elems...)
	default:
		return None
	}
}

// zeroValueForType builds the zero value for an IR type name: scalar,
// vector, matrix, array, or struct. doc may be nil when typ is known
// not to be a struct id (e.g. buffer element types are never struct
// ids is not guaranteed, so doc should be passed whenever available).
func zeroValueForType(doc *ir.IRDocument, typ string) Value {
	switch typ {
	case "float":
		return Float(0)
	case "int":
		return Int(0)
	case "bool":
		return Bool(false)
	case "string":
		return Str("")
	}
	if n := ir.VectorWidth(typ); n > 0 && !ir.IsMatrix(typ) {
		return Value{Kind: KindVector, Vector: make([]float64, n)}
	}
	if ir.IsMatrix(typ) {
		n := 3
		if typ == string(ir.TFloat4x4) {
			n = 4
		}
		return Value{Kind: KindMatrix, Matrix: make([]float64, n*n)}
	}
	if elem, size, dynamic, ok := ir.IsArrayPattern(typ); ok {
		if dynamic {
			return Arr()
		}
		elems := make([]Value, size)
		for i := range elems {
			elems[i] = zeroValueForType(doc, elem)
		}
		return Arr(elems...)
	}
	if doc != nil {
		if sd, ok := doc.StructByID(typ); ok {
			fields := make(map[string]Value, len(sd.Members))
			for _, m := range sd.Members {
				fields[m.Name] = zeroValueForType(doc, m.Type)
			}
			return StructOf(fields)
		}
	}
	return None
}

func initialValueToValue(doc *ir.IRDocument, typ string, iv any) Value {
	if iv == nil {
		return zeroValueForType(doc, typ)
	}
	return literalToValue(iv)
}

// evaluateNode pulls and caches the value of a pure (or side-effecting
// but value-producing) node. loop_index is exempt from caching since
// its value changes every iteration.
func evaluateNode(ctx *Context, fn *ir.FunctionDef, nodeID string) (Value, error) {
	frame := ctx.Current()
	node, ok := fn.NodeByID(nodeID)
	if !ok {
		return None, referentialErr(frame.FuncID, nodeID, "unknown node %q", nodeID)
	}
	cacheable := node.Op != "loop_index"
	if cacheable {
		if v, ok := frame.NodeResults[nodeID]; ok {
			return v, nil
		}
	}
	var (
		v   Value
		err error
	)
	if node.Op == "call_func" {
		v, err = evaluateCall(ctx, fn, node)
	} else {
		handler, known := opTable[node.Op]
		if !known {
			return None, runtimeErr(frame.FuncID, nodeID, "op %q has no evaluator", node.Op)
		}
		var args map[string]Value
		args, err = resolveArguments(ctx, fn, node)
		if err == nil {
			v, err = handler(ctx, args)
		}
	}
	if err != nil {
		annotate(err, frame.FuncID, nodeID)
		return None, err
	}
	if cacheable {
		frame.NodeResults[nodeID] = v
	}
	return v, nil
}

func annotate(err error, funcID, nodeID string) {
	if ee, ok := err.(*ExecError); ok {
		if ee.FuncID == "" {
			ee.FuncID = funcID
		}
		if ee.NodeID == "" {
			ee.NodeID = nodeID
		}
	}
}

// evaluateCall pushes a frame for a callee function, binds its inputs
// from args resolved in the caller's scope, runs its executable graph,
// and returns the function's single declared output value, if any
// (multi-output call_func is rejected at validation time).
func evaluateCall(ctx *Context, callerFn *ir.FunctionDef, node *ir.Node) (Value, error) {
	target, _ := node.Args["func"].(string)
	callee, ok := ctx.Doc.FunctionByID(target)
	if !ok {
		return None, referentialErr(callerFn.ID, node.ID, "call_func: unknown function %q", target)
	}
	args, err := resolveArguments(ctx, callerFn, node)
	if err != nil {
		return None, err
	}
	newFrame, err := ctx.Push(target)
	if err != nil {
		return None, err
	}
	defer ctx.Pop()
	initLocals(ctx, callee, newFrame)
	for _, p := range callee.Inputs {
		if v, ok := args[p.ID]; ok {
			newFrame.Variables[p.ID] = v
		} else {
			newFrame.Variables[p.ID] = zeroValueForType(ctx.Doc, p.Type)
		}
	}
	if err := runExecutableGraph(ctx, callee); err != nil {
		return None, err
	}
	if len(callee.Outputs) == 0 {
		return None, nil
	}
	return newFrame.returnValue, nil
}

// executeNode runs one executable-graph node for its side effects.
func executeNode(ctx *Context, fn *ir.FunctionDef, nodeID string) error {
	node, ok := fn.NodeByID(nodeID)
	if !ok {
		return referentialErr(fn.ID, nodeID, "unknown node %q", nodeID)
	}
	var err error
	switch node.Op {
	case "flow_branch":
		err = execBranch(ctx, fn, node)
	case "flow_loop":
		err = execLoop(ctx, fn, node)
	case "call_func":
		_, err = evaluateCall(ctx, fn, node)
	case "func_return":
		err = execReturn(ctx, fn, node)
	case "cmd_dispatch":
		err = execDispatch(ctx, fn, node)
	case "cmd_draw":
		err = execDraw(ctx, fn, node)
	case "cmd_resize_resource":
		err = execResize(ctx, fn, node)
	default:
		_, err = evaluateNode(ctx, fn, nodeID)
	}
	if err != nil {
		annotate(err, fn.ID, nodeID)
	}
	return err
}

// runExecutableGraph finds every executable node with no incoming
// execution edge and schedules from there.
func runExecutableGraph(ctx *Context, fn *ir.FunctionDef) error {
	hasIncoming := map[string]bool{}
	for i := range fn.Edges {
		e := &fn.Edges[i]
		if e.Type == ir.EdgeExecution {
			hasIncoming[e.To] = true
		}
	}
	var roots []string
	for i := range fn.Nodes {
		n := &fn.Nodes[i]
		if ir.IsExecutableOp(n.Op) && !hasIncoming[n.ID] {
			roots = append(roots, n.ID)
		}
	}
	return runFrom(ctx, fn, roots)
}

// runFrom breadth-first schedules nodeIDs and everything reachable
// from their "exec_out" edges. flow_branch and flow_loop manage their
// own sub-traversal internally and are not re-enqueued here.
func runFrom(ctx *Context, fn *ir.FunctionDef, nodeIDs []string) error {
	queue := append([]string(nil), nodeIDs...)
	visited := map[string]bool{}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if visited[id] {
			continue
		}
		visited[id] = true
		if err := executeNode(ctx, fn, id); err != nil {
			return err
		}
		frame := ctx.Current()
		if frame.returning {
			return nil
		}
		node, _ := fn.NodeByID(id)
		if node.Op == "flow_branch" || node.Op == "flow_loop" {
			continue
		}
		for _, e := range fn.ExecEdgesFrom(id, ir.PortExecOut) {
			queue = append(queue, e.To)
		}
	}
	return nil
}
