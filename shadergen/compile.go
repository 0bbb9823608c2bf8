package shadergen

import (
	"fmt"
	"strings"

	"golang.org/x/exp/slices"

	"github.com/shadergraph/core/ir"
)

// Compile emits WGSL-flavored shader source for entryFuncID and every
// shader-kind function it (transitively, via call_func) depends on.
func Compile(doc *ir.IRDocument, entryFuncID string, opts Options) (string, error) {
	entry, ok := doc.FunctionByID(entryFuncID)
	if !ok {
		return "", fmt.Errorf("shadergen: unknown function %q", entryFuncID)
	}
	if entry.Kind != ir.KindShader {
		return "", fmt.Errorf("shadergen: %q is not a shader function", entryFuncID)
	}

	var b strings.Builder
	b.WriteString(strings.TrimLeft(prelude, "\n"))
	b.WriteString("\n")

	for _, sd := range doc.Structs {
		writeStruct(&b, &sd)
	}

	if opts.GlobalBufferBinding != nil {
		fmt.Fprintf(&b, "struct Globals { data: array<f32> };\n")
		fmt.Fprintf(&b, "@group(0) @binding(%d) var<storage, read_write> b_globals: Globals;\n\n", *opts.GlobalBufferBinding)
	}

	resourceIDs := make([]string, 0, len(opts.ResourceDefs))
	for _, r := range opts.ResourceDefs {
		resourceIDs = append(resourceIDs, r.ID)
	}
	slices.Sort(resourceIDs)
	for _, id := range resourceIDs {
		res := findResource(opts.ResourceDefs, id)
		binding, bound := opts.ResourceBindings[id]
		if !bound {
			continue
		}
		switch res.Kind {
		case "buffer":
			fmt.Fprintf(&b, "struct Buffer_%s { data: array<%s> };\n", res.ID, wgslType(res.Type))
			fmt.Fprintf(&b, "@group(0) @binding(%d) var<storage, read_write> b_%s: Buffer_%s;\n\n", binding, res.ID, res.ID)
		case "texture":
			fmt.Fprintf(&b, "@group(0) @binding(%d) var t_%s: texture_2d<f32>;\n", binding, res.ID)
			fmt.Fprintf(&b, "@group(0) @binding(%d) var s_%s: sampler;\n\n", binding, res.ID)
		case "atomic_counter":
			fmt.Fprintf(&b, "struct Counter_%s { value: atomic<i32> };\n", res.ID)
			fmt.Fprintf(&b, "@group(0) @binding(%d) var<storage, read_write> b_%s: Counter_%s;\n\n", binding, res.ID, res.ID)
		}
	}

	visited := map[string]bool{}
	var order []string
	var visit func(id string)
	visit = func(id string) {
		if visited[id] {
			return
		}
		visited[id] = true
		fn, ok := doc.FunctionByID(id)
		if !ok || fn.Kind != ir.KindShader {
			return
		}
		for _, n := range fn.Nodes {
			if n.Op == "call_func" {
				if callee, ok := n.Args["func"].(string); ok {
					visit(callee)
				}
			}
		}
		order = append(order, id)
	}
	visit(entryFuncID)

	for _, id := range order {
		fn, _ := doc.FunctionByID(id)
		c := &compiler{doc: doc, fn: fn, opts: opts, b: &b}
		if err := c.emitFunction(id == entryFuncID); err != nil {
			return "", err
		}
	}

	return b.String(), nil
}

func findResource(defs []ir.ResourceDef, id string) *ir.ResourceDef {
	for i := range defs {
		if defs[i].ID == id {
			return &defs[i]
		}
	}
	return nil
}

func writeStruct(b *strings.Builder, sd *ir.StructDef) {
	fmt.Fprintf(b, "struct %s {\n", sd.ID)
	loc := 0
	for _, m := range sd.Members {
		if m.Builtin != "" {
			fmt.Fprintf(b, "\t@builtin(%s) %s: %s,\n", m.Builtin, m.Name, wgslType(m.Type))
			continue
		}
		fmt.Fprintf(b, "\t@location(%d) %s: %s,\n", loc, m.Name, wgslType(m.Type))
		loc++
	}
	b.WriteString("};\n\n")
}

type compiler struct {
	doc  *ir.IRDocument
	fn   *ir.FunctionDef
	opts Options
	b    *strings.Builder

	indent     int
	referenced map[string]bool
}

func (c *compiler) emitf(format string, args ...any) {
	c.b.WriteString(strings.Repeat("\t", c.indent))
	fmt.Fprintf(c.b, format, args...)
	c.b.WriteByte('\n')
}

func (c *compiler) emitFunction(isEntry bool) error {
	c.referenced = c.computeReferenced()

	params := make([]string, 0, len(c.fn.Inputs))
	for _, p := range c.fn.Inputs {
		params = append(params, fmt.Sprintf("%s: %s", sanitize(p.ID), wgslType(p.Type)))
	}
	if isEntry {
		switch c.fn.Stage {
		case ir.StageCompute:
			params = append(params, "@builtin(global_invocation_id) global_id: vec3<u32>")
		case ir.StageVertex:
			params = append(params, "@builtin(vertex_index) vertex_index: u32")
		case ir.StageFragment:
			params = append(params, "@builtin(front_facing) front_facing: bool")
		}
	}

	ret := ""
	if len(c.fn.Outputs) > 0 {
		ret = " -> " + wgslType(c.fn.Outputs[0].Type)
	}

	stageAttr := ""
	if isEntry {
		switch c.fn.Stage {
		case ir.StageCompute:
			stageAttr = "@compute @workgroup_size(1, 1, 1)\n"
		case ir.StageVertex:
			stageAttr = "@vertex\n"
		case ir.StageFragment:
			stageAttr = "@fragment\n"
		}
	}
	c.b.WriteString(stageAttr)
	fmt.Fprintf(c.b, "fn %s(%s)%s {\n", sanitize(c.fn.ID), strings.Join(params, ", "), ret)
	c.indent++

	for _, lv := range c.fn.LocalVars {
		c.emitf("var l_%s: %s = %s;", sanitize(lv.ID), wgslType(lv.Type), c.zeroOrInitial(lv.Type, lv.InitialValue))
	}

	roots := c.executableRoots()
	if err := c.emitSequence(roots); err != nil {
		return err
	}

	c.indent--
	c.b.WriteString("}\n\n")
	return nil
}

func sanitize(id string) string {
	return strings.Map(func(r rune) rune {
		if r == '-' || r == '.' || r == ' ' {
			return '_'
		}
		return r
	}, id)
}

func isSymbolKey(op, key string) bool {
	if ir.ReservedNodeKeys[key] {
		return true
	}
	return op == "array_set" && key == "array"
}

func (c *compiler) zeroOrInitial(typ string, iv any) string {
	if iv == nil {
		return zeroLiteral(typ)
	}
	return literalExpr(iv)
}

func zeroLiteral(typ string) string {
	switch ir.PrimitiveType(typ) {
	case ir.TFloat:
		return "0.0"
	case ir.TInt:
		return "0"
	case ir.TBool:
		return "false"
	}
	if ir.VectorWidth(typ) > 0 || ir.IsMatrix(typ) {
		return fmt.Sprintf("%s()", wgslType(typ))
	}
	return fmt.Sprintf("%s()", wgslType(typ))
}

func literalExpr(v any) string {
	switch val := v.(type) {
	case bool:
		if val {
			return "true"
		}
		return "false"
	case string:
		return fmt.Sprintf("%q", val)
	case float64:
		if val == float64(int64(val)) {
			return fmt.Sprintf("%g", val)
		}
		return fmt.Sprintf("%v", val)
	case []any:
		parts := make([]string, len(val))
		for i, e := range val {
			parts[i] = literalExpr(e)
		}
		return fmt.Sprintf("vec%d<f32>(%s)", len(val), strings.Join(parts, ", "))
	default:
		return "0.0"
	}
}

func (c *compiler) computeReferenced() map[string]bool {
	refs := map[string]bool{}
	for i := range c.fn.Edges {
		e := &c.fn.Edges[i]
		if e.Type == ir.EdgeData {
			refs[e.From] = true
		}
	}
	for i := range c.fn.Nodes {
		n := &c.fn.Nodes[i]
		for k, raw := range n.Args {
			if isSymbolKey(n.Op, k) {
				continue
			}
			if s, ok := raw.(string); ok {
				if _, ok := c.fn.NodeByID(s); ok {
					refs[s] = true
				}
			}
		}
	}
	return refs
}

func (c *compiler) executableRoots() []string {
	hasIncoming := map[string]bool{}
	for _, e := range c.fn.Edges {
		if e.Type == ir.EdgeExecution {
			hasIncoming[e.To] = true
		}
	}
	var roots []string
	for _, n := range c.fn.Nodes {
		if ir.IsExecutableOp(n.Op) && !hasIncoming[n.ID] {
			roots = append(roots, n.ID)
		}
	}
	slices.Sort(roots)
	return roots
}

func (c *compiler) targets(nodeID, port string) []string {
	var out []string
	for _, e := range c.fn.ExecEdgesFrom(nodeID, port) {
		out = append(out, e.To)
	}
	return out
}

func (c *compiler) emitSequence(ids []string) error {
	visited := map[string]bool{}
	queue := append([]string(nil), ids...)
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if visited[id] {
			continue
		}
		visited[id] = true
		node, ok := c.fn.NodeByID(id)
		if !ok {
			return fmt.Errorf("shadergen: unknown node %q", id)
		}
		if err := c.emitExecNode(node); err != nil {
			return err
		}
		if node.Op == "flow_branch" || node.Op == "flow_loop" || node.Op == "func_return" {
			continue
		}
		for _, e := range c.fn.ExecEdgesFrom(id, ir.PortExecOut) {
			queue = append(queue, e.To)
		}
	}
	return nil
}

func (c *compiler) emitExecNode(node *ir.Node) error {
	switch node.Op {
	case "flow_branch":
		return c.emitBranch(node)
	case "flow_loop":
		return c.emitLoop(node)
	case "func_return":
		return c.emitReturn(node)
	case "call_func":
		target, _ := node.Args["func"].(string)
		args, err := c.callArgs(node)
		if err != nil {
			return err
		}
		call := fmt.Sprintf("%s(%s)", sanitize(target), strings.Join(args, ", "))
		if c.referenced[node.ID] {
			c.emitf("let v_%s = %s;", sanitize(node.ID), call)
		} else {
			c.emitf("%s;", call)
		}
		return nil
	case "var_set":
		val, err := c.argExpr(node, "value")
		if err != nil {
			return err
		}
		name, _ := node.Args["var"].(string)
		c.emitf("%s = %s;", c.varRef(name), val)
		return nil
	case "array_set":
		name, _ := node.Args["array"].(string)
		idx, err := c.argExpr(node, "index")
		if err != nil {
			return err
		}
		val, err := c.argExpr(node, "value")
		if err != nil {
			return err
		}
		c.emitf("%s[%s] = %s;", c.varRef(name), idx, val)
		return nil
	case "buffer_store":
		name, _ := node.Args["buffer"].(string)
		idx, err := c.argExpr(node, "index")
		if err != nil {
			return err
		}
		val, err := c.argExpr(node, "value")
		if err != nil {
			return err
		}
		c.emitf("b_%s.data[%s] = %s;", name, idx, val)
		return nil
	case "texture_store":
		name, _ := node.Args["texture"].(string)
		coord, err := c.argExpr(node, "coord")
		if err != nil {
			return err
		}
		val, err := c.argExpr(node, "value")
		if err != nil {
			return err
		}
		c.emitf("textureStore(t_%s, vec2<i32>(%s), %s);", name, coord, val)
		return nil
	case "cmd_dispatch", "cmd_draw", "cmd_resize_resource":
		// Orchestration-only ops: meaningful on the cpu side,
		// not inside a compiled shader stage.
		return nil
	default:
		_, err := c.compileExpression(node.ID)
		return err
	}
}

func (c *compiler) emitBranch(node *ir.Node) error {
	cond, err := c.argExpr(node, "cond")
	if err != nil {
		return err
	}
	c.emitf("if (%s > 0.5) {", cond)
	c.indent++
	if err := c.emitSequence(c.targets(node.ID, ir.PortExecTrue)); err != nil {
		return err
	}
	c.indent--
	c.emitf("} else {")
	c.indent++
	if err := c.emitSequence(c.targets(node.ID, ir.PortExecFalse)); err != nil {
		return err
	}
	c.indent--
	c.emitf("}")
	return nil
}

func (c *compiler) emitLoop(node *ir.Node) error {
	start, err := c.argExpr(node, "start")
	if err != nil {
		return err
	}
	end, err := c.argExpr(node, "end")
	if err != nil {
		return err
	}
	loopVar := "loop_" + sanitize(node.ID)
	c.emitf("for (var %s: i32 = i32(%s); %s < i32(%s); %s = %s + 1) {", loopVar, start, loopVar, end, loopVar, loopVar)
	c.indent++
	if err := c.emitSequence(c.targets(node.ID, ir.PortExecBody)); err != nil {
		return err
	}
	c.indent--
	c.emitf("}")
	return c.emitSequence(c.targets(node.ID, ir.PortExecCompleted))
}

func (c *compiler) emitReturn(node *ir.Node) error {
	if len(c.fn.Outputs) == 0 {
		c.emitf("return;")
		return nil
	}
	out := c.fn.Outputs[0]
	expr, err := c.argExpr(node, out.ID)
	if err != nil {
		c.emitf("return %s;", zeroLiteral(out.Type))
		return nil
	}
	c.emitf("return %s;", expr)
	return nil
}

func (c *compiler) callArgs(node *ir.Node) ([]string, error) {
	callee, ok := c.doc.FunctionByID(node.Args["func"].(string))
	if !ok {
		return nil, fmt.Errorf("shadergen: unknown function %q", node.Args["func"])
	}
	args := make([]string, 0, len(callee.Inputs))
	for _, p := range callee.Inputs {
		expr, err := c.argExpr(node, p.ID)
		if err != nil {
			return nil, err
		}
		args = append(args, expr)
	}
	return args, nil
}

// varRef resolves a symbol name to its WGSL lvalue: a local gets its
// l_ prefix, a global recognized in opts.VarMap indexes the globals
// buffer, and anything else (a function input) is the bare id (spec
// §4.8's var_get resolution rules apply symmetrically to var_set).
func (c *compiler) varRef(name string) string {
	if _, ok := c.fn.LocalByID(name); ok {
		return "l_" + sanitize(name)
	}
	if idx, ok := c.opts.VarMap[name]; ok {
		return fmt.Sprintf("b_globals.data[%d]", idx)
	}
	return sanitize(name)
}

func (c *compiler) argExpr(node *ir.Node, key string) (string, error) {
	if isSymbolKey(node.Op, key) {
		s, _ := node.Args[key].(string)
		return fmt.Sprintf("%q", s), nil
	}
	if edge, ok := c.fn.DataEdgeTo(node.ID, key); ok {
		return c.compileExpression(edge.From)
	}
	raw, present := node.Args[key]
	if !present {
		return "", fmt.Errorf("shadergen: node %q missing argument %q", node.ID, key)
	}
	if s, ok := raw.(string); ok {
		if _, ok := c.fn.LocalByID(s); ok {
			return c.varRef(s), nil
		}
		if _, ok := c.fn.InputByID(s); ok {
			return c.varRef(s), nil
		}
		if _, ok := c.fn.NodeByID(s); ok {
			return c.compileExpression(s)
		}
	}
	return literalExpr(raw), nil
}

func (c *compiler) compileExpression(nodeID string) (string, error) {
	node, ok := c.fn.NodeByID(nodeID)
	if !ok {
		return "", fmt.Errorf("shadergen: unknown node %q", nodeID)
	}
	switch node.Op {
	case "literal":
		v, ok := node.Args["value"]
		if !ok {
			return "", fmt.Errorf("shadergen: literal node %q missing value", nodeID)
		}
		return literalExpr(v), nil
	case "var_get":
		name, _ := node.Args["var"].(string)
		return c.varRef(name), nil
	case "builtin_get":
		name, _ := node.Args["name"].(string)
		return sanitize(name), nil
	case "const_get":
		name, _ := node.Args["name"].(string)
		return constLiteral(name), nil
	case "loop_index":
		loop, _ := node.Args["loop"].(string)
		return fmt.Sprintf("f32(loop_%s)", sanitize(loop)), nil
	case "call_func":
		return "v_" + sanitize(nodeID), nil
	case "vec_construct":
		return c.compileVecConstruct(node)
	case "vec_swizzle":
		return c.compileSwizzle(node)
	case "struct_construct":
		return c.compileStructConstruct(node)
	case "struct_get":
		return c.compileStructGet(node)
	case "array_get":
		return c.compileArrayGet(node)
	case "resource_get_size":
		name, _ := node.Args["resource"].(string)
		return fmt.Sprintf("vec2<f32>(textureDimensions(t_%s))", name), nil
	case "buffer_load":
		name, _ := node.Args["buffer"].(string)
		idx, err := c.argExpr(node, "index")
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("b_%s.data[%s]", name, idx), nil
	case "texture_sample":
		name, _ := node.Args["tex"].(string)
		uv, err := c.argExpr(node, "uv")
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("textureSample(t_%s, s_%s, %s)", name, name, uv), nil
	case "texture_load":
		name, _ := node.Args["tex"].(string)
		coord, err := c.argExpr(node, "coord")
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("textureLoad(t_%s, vec2<i32>(%s), 0)", name, coord), nil
	default:
		return c.compileOpCall(node.Op, func(key string) (string, error) { return c.argExpr(node, key) })
	}
}

func (c *compiler) compileVecConstruct(node *ir.Node) (string, error) {
	typ, _ := node.Args["type"].(string)
	n := ir.VectorWidth(typ)
	if n == 0 {
		n = 4
	}
	channels := []string{"x", "y", "z", "w"}
	parts := make([]string, 0, n)
	for i := 0; i < n; i++ {
		if _, present := node.Args[channels[i]]; !present {
			if _, ok := c.fn.DataEdgeTo(node.ID, channels[i]); !ok {
				break
			}
		}
		v, err := c.argExpr(node, channels[i])
		if err != nil {
			return "", err
		}
		parts = append(parts, v)
	}
	return fmt.Sprintf("%s(%s)", wgslConstructor(typ), strings.Join(parts, ", ")), nil
}

func (c *compiler) compileSwizzle(node *ir.Node) (string, error) {
	src, err := c.argExpr(node, "vec")
	if err != nil {
		return "", err
	}
	channels, _ := node.Args["channels"].(string)
	return fmt.Sprintf("%s.%s", src, channels), nil
}

func (c *compiler) compileStructConstruct(node *ir.Node) (string, error) {
	typ, _ := node.Args["type"].(string)
	sd, ok := c.doc.StructByID(typ)
	if !ok {
		return "", fmt.Errorf("shadergen: unknown struct %q", typ)
	}
	parts := make([]string, 0, len(sd.Members))
	for _, m := range sd.Members {
		v, err := c.argExpr(node, m.Name)
		if err != nil {
			return "", err
		}
		parts = append(parts, v)
	}
	return fmt.Sprintf("%s(%s)", typ, strings.Join(parts, ", ")), nil
}

func (c *compiler) compileStructGet(node *ir.Node) (string, error) {
	src, err := c.argExpr(node, "struct")
	if err != nil {
		return "", err
	}
	field, _ := node.Args["field"].(string)
	return fmt.Sprintf("%s.%s", src, field), nil
}

func (c *compiler) compileArrayGet(node *ir.Node) (string, error) {
	src, err := c.argExpr(node, "array")
	if err != nil {
		return "", err
	}
	idx, err := c.argExpr(node, "index")
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s[%s]", src, idx), nil
}

func constLiteral(name string) string {
	switch name {
	case "pi":
		return "3.14159265358979323846"
	case "tau":
		return "6.28318530717958647692"
	case "e":
		return "2.71828182845904523536"
	case "epsilon":
		return "1.1920929e-7"
	case "max_float":
		return "3.4028235e38"
	case "max_int":
		return "2147483647"
	default:
		return "0.0"
	}
}
