package hostgen

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/exp/slices"

	"github.com/shadergraph/core/ir"
)

// Options configures host-code generation.
type Options struct {
	// PackageName names the generated file's package clause.
	PackageName string
	// RuntimePackage is the import path of the runtime support package
	// the generated code calls into for op evaluation (interp, by
	// default — callers may vendor a thinner substitute).
	RuntimePackage string
}

// DefaultOptions returns the options CompileHost uses when opts has an
// empty PackageName.
func DefaultOptions() Options {
	return Options{PackageName: "generated", RuntimePackage: "github.com/shadergraph/core/interp"}
}

// CompileHost emits an imperative Go function that reproduces fn's
// execution graph: locals become l_<id> variables, op evaluation is
// delegated to the runtime's CallOp so math semantics live in exactly
// one place, and control-flow nodes become real if/for statements.
func CompileHost(doc *ir.IRDocument, fn *ir.FunctionDef, opts Options) (string, error) {
	if opts.PackageName == "" {
		opts = DefaultOptions()
	}
	c := &compiler{doc: doc, fn: fn, b: &strings.Builder{}}
	c.referenced = c.computeReferenced()

	fmt.Fprintf(c.b, "// Code generated by hostgen from %s. DO NOT EDIT.\n", fn.ID)
	fmt.Fprintf(c.b, "package %s\n\n", opts.PackageName)
	fmt.Fprintf(c.b, "import interp %q\n\n", opts.RuntimePackage)

	fmt.Fprintf(c.b, "func Run_%s(rt *interp.Runtime, args map[string]interp.Value) map[string]interp.Value {\n", sanitize(fn.ID))
	c.indent++

	for _, lv := range fn.LocalVars {
		c.emitf("l_%s := %s", sanitize(lv.ID), c.zeroOrInitial(lv.Type, lv.InitialValue))
	}
	for _, p := range fn.Inputs {
		c.emitf("l_%s, ok_%s := args[%q]", sanitize(p.ID), sanitize(p.ID), p.ID)
		c.emitf("if !ok_%s {", sanitize(p.ID))
		c.indent++
		c.emitf("l_%s = %s", sanitize(p.ID), c.zeroOrInitial(p.Type, nil))
		c.indent--
		c.emitf("}")
	}

	roots := c.executableRoots()
	if err := c.emitSequence(roots); err != nil {
		return "", err
	}

	c.emitf("return map[string]interp.Value{}")
	c.indent--
	c.emitf("}")
	return c.b.String(), nil
}

type compiler struct {
	doc        *ir.IRDocument
	fn         *ir.FunctionDef
	b          *strings.Builder
	indent     int
	referenced map[string]bool
}

// computeReferenced finds every node id some other node reads from,
// via a data edge or an inline string reference, so call_func/array_set
// only get a result binding
// when something downstream actually reads it — an unused binding
// would otherwise be a compile error in the generated file.
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

// emitResultBinding emits the "r_<id>" binding for call_func/array_set
// results, or a bare statement when nothing downstream reads the
// result.
func (c *compiler) emitResultBinding(nodeID, expr string) {
	if c.referenced[nodeID] {
		c.emitf("r_%s := %s", sanitize(nodeID), expr)
		return
	}
	c.emitf("%s", expr)
}

func (c *compiler) emitf(format string, args ...any) {
	c.b.WriteString(strings.Repeat("\t", c.indent))
	fmt.Fprintf(c.b, format, args...)
	c.b.WriteByte('\n')
}

// isSymbolKey reports whether key on a node of the given op always
// carries a bare symbol name to emit as a string literal rather than an
// expression to resolve — the compile-time mirror of the same check
// the reference interpreter makes at runtime (interp.isSymbolKey).
func isSymbolKey(op, key string) bool {
	if ir.ReservedNodeKeys[key] {
		return true
	}
	return op == "array_set" && key == "array"
}

func sanitize(id string) string {
	return strings.Map(func(r rune) rune {
		if r == '-' || r == '.' || r == ' ' {
			return '_'
		}
		return r
	}, id)
}

func (c *compiler) zeroOrInitial(typ string, iv any) string {
	if iv == nil {
		return fmt.Sprintf("interp.ZeroValue(%q)", typ)
	}
	return fmt.Sprintf("interp.LiteralValue(%#v)", iv)
}

// executableRoots returns the ids of executable nodes with no incoming
// execution edge, in a stable (id-sorted) order so repeated generation
// is deterministic.
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

// emitSequence emits a straight-line run of nodes starting at ids,
// following "exec_out" edges. Branch/loop nodes recurse into their own
// sub-sequences and are not re-entered here.
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
			return fmt.Errorf("hostgen: unknown node %q", id)
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
		expr, err := c.compileCall(node)
		if err != nil {
			return err
		}
		c.emitResultBinding(node.ID, expr)
		return nil
	case "var_set":
		val, err := c.argExpr(node, "value")
		if err != nil {
			return err
		}
		name, _ := node.Args["var"].(string)
		c.emitf("l_%s = %s", sanitize(name), val)
		return nil
	case "array_set":
		call, err := c.opCall(node)
		if err != nil {
			return err
		}
		c.emitResultBinding(node.ID, call)
		return nil
	case "buffer_store", "texture_store", "cmd_resize_resource":
		call, err := c.opCall(node)
		if err != nil {
			return err
		}
		c.emitf("%s", call)
		return nil
	case "cmd_dispatch":
		return c.emitDispatch(node)
	case "cmd_draw":
		args, err := c.argsMap(node)
		if err != nil {
			return err
		}
		c.emitf("if _, err := rt.CallOpErr(%q, %s); err != nil {", node.Op, args)
		c.indent++
		c.emitf("panic(err)")
		c.indent--
		c.emitf("}")
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
	c.emitf("if (%s).Bool {", cond)
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
	c.emitf("for %s := int((%s).AsFloat()); %s < int((%s).AsFloat()); %s++ {", loopVar, start, loopVar, end, loopVar)
	c.indent++
	c.emitf("rt.SetLoopIndex(%q, %s)", node.ID, loopVar)
	if err := c.emitSequence(c.targets(node.ID, ir.PortExecBody)); err != nil {
		return err
	}
	c.indent--
	c.emitf("}")
	return c.emitSequence(c.targets(node.ID, ir.PortExecCompleted))
}

func (c *compiler) emitReturn(node *ir.Node) error {
	if len(c.fn.Outputs) == 0 {
		c.emitf("return map[string]interp.Value{}")
		return nil
	}
	out := c.fn.Outputs[0]
	expr, err := c.argExpr(node, out.ID)
	if err != nil {
		c.emitf("return map[string]interp.Value{%q: interp.ZeroValue(%q)}", out.ID, out.Type)
		return nil
	}
	c.emitf("return map[string]interp.Value{%q: %s}", out.ID, expr)
	return nil
}

func (c *compiler) emitDispatch(node *ir.Node) error {
	target, _ := node.Args["func"].(string)
	dispatch, err := c.argExpr(node, "dispatch")
	if err != nil {
		return err
	}
	grid := "grid_" + sanitize(node.ID)
	c.emitf("%s := (%s).Vector", grid, dispatch)
	c.emitf("for gz := 0; gz < int(%s[2]); gz++ {", grid)
	c.indent++
	c.emitf("for gy := 0; gy < int(%s[1]); gy++ {", grid)
	c.indent++
	c.emitf("for gx := 0; gx < int(%s[0]); gx++ {", grid)
	c.indent++
	callArgs, err := c.argsMap(node, "func", "dispatch")
	if err != nil {
		return err
	}
	c.emitf("rt.Dispatch(%q, %s, gx, gy, gz)", target, callArgs)
	c.indent--
	c.emitf("}")
	c.indent--
	c.emitf("}")
	c.indent--
	c.emitf("}")
	return nil
}

func (c *compiler) targets(nodeID, port string) []string {
	var out []string
	for _, e := range c.fn.ExecEdgesFrom(nodeID, port) {
		out = append(out, e.To)
	}
	return out
}

// argExpr compiles the expression bound to key on node, following the
// same data-edge / inline-reference / literal precedence the
// interpreter uses at runtime, applied at compile time instead.
func (c *compiler) argExpr(node *ir.Node, key string) (string, error) {
	if isSymbolKey(node.Op, key) {
		raw := node.Args[key]
		s, _ := raw.(string)
		return fmt.Sprintf("interp.Str(%q)", s), nil
	}
	if edge, ok := c.fn.DataEdgeTo(node.ID, key); ok {
		return c.compileExpression(edge.From)
	}
	raw, present := node.Args[key]
	if !present {
		return "", fmt.Errorf("hostgen: node %q missing argument %q", node.ID, key)
	}
	if s, ok := raw.(string); ok {
		if _, ok := c.fn.LocalByID(s); ok {
			return "l_" + sanitize(s), nil
		}
		if _, ok := c.fn.InputByID(s); ok {
			return "l_" + sanitize(s), nil
		}
		if _, ok := c.fn.NodeByID(s); ok {
			return c.compileExpression(s)
		}
	}
	return fmt.Sprintf("interp.LiteralValue(%#v)", raw), nil
}

// compileExpression compiles the pure-value expression a node
// produces: var_get reads its l_<id> local, builtin_get/const_get/
// loop_index read from runtime state, call_func/array_set read the
// r_<id> binding emitted at their execution site, and everything else
// is a CallOp dispatch so op semantics stay centralized in interp/ops.go.
func (c *compiler) compileExpression(nodeID string) (string, error) {
	node, ok := c.fn.NodeByID(nodeID)
	if !ok {
		return "", fmt.Errorf("hostgen: unknown node %q", nodeID)
	}
	switch node.Op {
	case "literal":
		v, ok := node.Args["value"]
		if !ok {
			return "", fmt.Errorf("hostgen: literal node %q missing value", nodeID)
		}
		return fmt.Sprintf("interp.LiteralValue(%#v)", v), nil
	case "var_get":
		name, _ := node.Args["var"].(string)
		return "l_" + sanitize(name), nil
	case "builtin_get":
		name, _ := node.Args["name"].(string)
		return fmt.Sprintf("rt.Builtin(%q)", name), nil
	case "const_get":
		name, _ := node.Args["name"].(string)
		return fmt.Sprintf("rt.Const(%q)", name), nil
	case "loop_index":
		loop, _ := node.Args["loop"].(string)
		return fmt.Sprintf("rt.LoopIndex(%q)", loop), nil
	case "call_func", "array_set":
		return "r_" + sanitize(nodeID), nil
	default:
		return c.opCall(node)
	}
}

func (c *compiler) compileCall(node *ir.Node) (string, error) {
	target, _ := node.Args["func"].(string)
	args, err := c.argsMap(node, "func")
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("rt.CallFunc(%q, %s)", target, args), nil
}

func (c *compiler) opCall(node *ir.Node) (string, error) {
	args, err := c.argsMap(node)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("rt.CallOp(%q, %s)", node.Op, args), nil
}

// argsMap builds a Go map literal for every key bound on node (inline
// args plus data edges), skipping any key in exclude.
func (c *compiler) argsMap(node *ir.Node, exclude ...string) (string, error) {
	skip := map[string]bool{}
	for _, k := range exclude {
		skip[k] = true
	}
	keys := map[string]bool{}
	for k := range node.Args {
		keys[k] = true
	}
	for i := range c.fn.Edges {
		e := &c.fn.Edges[i]
		if e.Type == ir.EdgeData && e.To == node.ID {
			keys[e.PortIn] = true
		}
	}
	var ordered []string
	for k := range keys {
		if !skip[k] {
			ordered = append(ordered, k)
		}
	}
	slices.Sort(ordered)

	var sb strings.Builder
	sb.WriteString("map[string]interp.Value{")
	for i, k := range ordered {
		expr, err := c.argExpr(node, k)
		if err != nil {
			return "", err
		}
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "%s: %s", strconv.Quote(k), expr)
	}
	sb.WriteString("}")
	return sb.String(), nil
}
