package ir

import (
	"fmt"

	"github.com/Masterminds/semver/v3"
	"github.com/jinzhu/copier"
)

// ValidationResult is the outcome of Validate.
type ValidationResult struct {
	OK       bool
	Document *IRDocument
	Errors   []ValidationError
}

// Validator accumulates every error a pass finds across the whole
// document. Validate runs Pass 2 only when Pass 1 reported no error, and
// Pass 3 only when Passes 1 and 2 reported none, so a document with an
// error in an earlier pass gets no diagnostics from the later passes.
type Validator struct {
	doc    *IRDocument
	errors []ValidationError
}

// Validate runs the three-pass static validator over doc.
// The document is considered valid iff no error of severity "error" is
// emitted. Validate works on a deep copy of doc so that the caller's
// value is never aliased into validator state.
func Validate(doc *IRDocument) ValidationResult {
	var clone IRDocument
	if err := copier.CopyWithOption(&clone, doc, copier.Option{DeepCopy: true}); err != nil {
		return ValidationResult{Errors: []ValidationError{{
			Message: fmt.Sprintf("internal: could not clone document: %v", err), Code: "Internal Error", Severity: SeverityError,
		}}}
	}

	v := &Validator{doc: &clone}
	v.pass1Structural()
	if !v.hasFatal() {
		v.pass2Referential()
	}
	if !v.hasFatal() {
		v.pass3StaticLogic()
	}

	for _, e := range v.errors {
		if e.Severity == SeverityError {
			return ValidationResult{OK: false, Errors: v.errors}
		}
	}
	return ValidationResult{OK: true, Document: &clone, Errors: v.errors}
}

func (v *Validator) hasFatal() bool {
	for _, e := range v.errors {
		if e.Severity == SeverityError {
			return true
		}
	}
	return false
}

func (v *Validator) addError(code, funcID, nodeID, format string, args ...any) {
	v.errors = append(v.errors, ValidationError{
		Code: code, FuncID: funcID, NodeID: nodeID,
		Message: fmt.Sprintf(format, args...), Severity: SeverityError,
	})
}

func (v *Validator) addWarning(code, funcID, nodeID, format string, args ...any) {
	v.errors = append(v.errors, ValidationError{
		Code: code, FuncID: funcID, NodeID: nodeID,
		Message: fmt.Sprintf(format, args...), Severity: SeverityWarning,
	})
}

// ---- Pass 1: structural ----

func (v *Validator) pass1Structural() {
	d := v.doc
	if d.Meta.Name == "" {
		v.addError("Missing Field", "", "", "meta.name is required")
	}
	if d.Version != "" {
		if _, err := semver.NewVersion(d.Version); err != nil {
			v.addError("Invalid Version", "", "", "document version %q is not a valid semantic version: %v", d.Version, err)
		}
	}
	if d.EntryPoint == "" {
		v.addError("Missing Field", "", "", "entryPoint is required")
	}
	if len(d.Functions) == 0 {
		v.addError("Missing Field", "", "", "functions must be non-empty")
	}

	for _, s := range d.Structs {
		if len(s.Members) == 0 {
			v.addError("Empty Struct", "", "", "struct %q has no members", s.ID)
		}
		for _, m := range s.Members {
			v.checkTypeShape(m.Type, "", fmt.Sprintf("struct %q member %q", s.ID, m.Name))
		}
	}
	for _, r := range d.Resources {
		v.checkResourceSize(r)
	}
	for _, in := range d.Inputs {
		v.checkTypeShape(in.Type, "", fmt.Sprintf("input %q", in.ID))
	}
	for _, g := range d.Globals {
		v.checkTypeShape(g.Type, "", fmt.Sprintf("global %q", g.ID))
	}
	for _, fn := range d.Functions {
		if fn.Kind != KindCPU && fn.Kind != KindShader {
			v.addError("Invalid Enum", fn.ID, "", "function kind must be \"cpu\" or \"shader\", got %q", fn.Kind)
		}
		if fn.Kind == KindShader {
			switch fn.Stage {
			case StageVertex, StageFragment, StageCompute:
			default:
				v.addError("Invalid Enum", fn.ID, "", "shader function stage must be vertex/fragment/compute, got %q", fn.Stage)
			}
		}
		for _, p := range fn.Inputs {
			v.checkTypeShape(p.Type, fn.ID, fmt.Sprintf("input port %q", p.ID))
		}
		for _, p := range fn.Outputs {
			v.checkTypeShape(p.Type, fn.ID, fmt.Sprintf("output port %q", p.ID))
		}
		for _, lv := range fn.LocalVars {
			v.checkTypeShape(lv.Type, fn.ID, fmt.Sprintf("local %q", lv.ID))
		}
		if len(fn.Nodes) == 0 {
			v.addWarning("Empty Function", fn.ID, "", "function has no nodes")
		}
		for _, n := range fn.Nodes {
			if n.ID == "" {
				v.addError("Missing Field", fn.ID, "", "node missing id")
			}
			if n.Op == "" {
				v.addError("Missing Field", fn.ID, n.ID, "node missing op")
			}
		}
		for _, e := range fn.Edges {
			if e.Type != EdgeData && e.Type != EdgeExecution {
				v.addError("Invalid Enum", fn.ID, "", "edge type must be data or execution, got %q", e.Type)
			}
		}
	}
}

// checkTypeShape validates that typ names a primitive, a struct id
// syntactically, or a well-formed array<T> / array<T,N> pattern. Struct
// id *existence* is a Pass 2 referential concern.
func (v *Validator) checkTypeShape(typ, funcID, where string) {
	if typ == "" {
		v.addError("Missing Field", funcID, "", "%s: type is required", where)
		return
	}
	if PRIMITIVE_TYPES[PrimitiveType(typ)] {
		return
	}
	if elem, _, _, ok := IsArrayPattern(typ); ok {
		if PRIMITIVE_TYPES[PrimitiveType(elem)] {
			return
		}
		// element may itself be a struct id; deferred to Pass 2.
		return
	}
	// Otherwise assume it names a struct id; Pass 2 checks existence.
}

func (v *Validator) checkResourceSize(r ResourceDef) {
	switch r.Kind {
	case "buffer", "atomic_counter":
		if r.Size.Count == nil && !r.Size.Dynamic {
			v.addError("Invalid Size", "", "", "resource %q: buffer must declare size.count or size.dynamic", r.ID)
		}
		if r.Size.Count != nil && *r.Size.Count < 0 {
			v.addError("Invalid Size", "", "", "resource %q: size.count must be non-negative", r.ID)
		}
	case "texture":
		if r.Size.Width == nil || r.Size.Height == nil {
			v.addError("Invalid Size", "", "", "resource %q: texture must declare size.width and size.height", r.ID)
		}
	default:
		v.addError("Invalid Enum", "", "", "resource %q: kind must be buffer/texture/atomic_counter, got %q", r.ID, r.Kind)
	}
}

// ---- Pass 2: referential ----

func (v *Validator) pass2Referential() {
	d := v.doc

	seenFn := map[string]bool{}
	for _, fn := range d.Functions {
		if seenFn[fn.ID] {
			v.addError("Duplicate Id", "", "", "duplicate function id %q", fn.ID)
		}
		seenFn[fn.ID] = true
	}
	seenInput := map[string]bool{}
	for _, in := range d.Inputs {
		if seenInput[in.ID] {
			v.addError("Duplicate Id", "", "", "duplicate input id %q", in.ID)
		}
		seenInput[in.ID] = true
	}
	seenRes := map[string]bool{}
	for _, r := range d.Resources {
		if seenRes[r.ID] {
			v.addError("Duplicate Id", "", "", "duplicate resource id %q", r.ID)
		}
		seenRes[r.ID] = true
	}
	seenStruct := map[string]bool{}
	for _, s := range d.Structs {
		if seenStruct[s.ID] {
			v.addError("Duplicate Id", "", "", "duplicate struct id %q", s.ID)
		}
		seenStruct[s.ID] = true
	}

	entry, ok := d.FunctionByID(d.EntryPoint)
	if !ok {
		v.addError("Unknown Entry Point", "", "", "entryPoint %q does not exist", d.EntryPoint)
	} else if entry.Kind != KindCPU {
		v.addError("Invalid Entry Point", entry.ID, "", "entryPoint %q must be of kind cpu", entry.ID)
	}

	v.checkStructRecursion()

	for _, fn := range d.Functions {
		v.checkFunctionReferential(&fn)
	}
}

func (v *Validator) checkStructRecursion() {
	visiting := map[string]int{} // 0=unvisited,1=active,2=done
	var visit func(id string) bool
	visit = func(id string) bool {
		if visiting[id] == 1 {
			v.addError("Struct Recursion", "", "", "struct %q recursively contains itself", id)
			return true
		}
		if visiting[id] == 2 {
			return false
		}
		sd, ok := v.doc.StructByID(id)
		if !ok {
			return false
		}
		visiting[id] = 1
		for _, m := range sd.Members {
			if _, ok := v.doc.StructByID(m.Type); ok {
				if visit(m.Type) {
					return true
				}
			}
			if elem, _, _, isArr := IsArrayPattern(m.Type); isArr {
				if _, ok := v.doc.StructByID(elem); ok {
					visit(elem)
				}
			}
		}
		visiting[id] = 2
		return false
	}
	for _, s := range v.doc.Structs {
		visit(s.ID)
	}
}

func (v *Validator) checkFunctionReferential(fn *FunctionDef) {
	seenNode := map[string]bool{}
	for _, n := range fn.Nodes {
		if seenNode[n.ID] {
			v.addError("Duplicate Id", fn.ID, n.ID, "duplicate node id %q", n.ID)
		}
		seenNode[n.ID] = true
	}
	seenLocal := map[string]bool{}
	for _, lv := range fn.LocalVars {
		if seenLocal[lv.ID] {
			v.addError("Duplicate Id", fn.ID, "", "duplicate local id %q", lv.ID)
		}
		seenLocal[lv.ID] = true
	}

	for _, e := range fn.Edges {
		fromNode, fromOK := fn.NodeByID(e.From)
		toNode, toOK := fn.NodeByID(e.To)
		if !fromOK {
			v.addError("Unknown Edge Endpoint", fn.ID, e.From, "edge references unknown source node %q", e.From)
		}
		if !toOK {
			v.addError("Unknown Edge Endpoint", fn.ID, e.To, "edge references unknown target node %q", e.To)
		}
		_ = fromNode
		_ = toNode
	}

	for _, n := range fn.Nodes {
		for key, val := range n.Args {
			if !ReservedNodeKeys[key] {
				continue
			}
			sym, ok := val.(string)
			if !ok {
				continue
			}
			v.checkSymbolReference(fn, n.ID, key, sym)
		}
	}
}

func (v *Validator) checkSymbolReference(fn *FunctionDef, nodeID, key, sym string) {
	switch key {
	case "func":
		if _, ok := v.doc.FunctionByID(sym); !ok {
			v.addError("Unknown Reference", fn.ID, nodeID, "func %q does not exist", sym)
		}
	case "var":
		if _, ok := fn.LocalByID(sym); !ok {
			v.addError("Unknown Reference", fn.ID, nodeID, "var %q is not a local of %q", sym, fn.ID)
		}
	case "resource", "buffer", "tex", "texture", "target":
		_, isRes := v.doc.ResourceByID(sym)
		_, isInput := v.doc.InputByID(sym)
		if !isRes && !isInput {
			v.addError("Unknown Reference", fn.ID, nodeID, "%s %q does not refer to a known resource or input", key, sym)
		}
	case "type":
		if PRIMITIVE_TYPES[PrimitiveType(sym)] {
			return
		}
		if _, _, _, ok := IsArrayPattern(sym); ok {
			return
		}
		if _, ok := v.doc.StructByID(sym); !ok {
			v.addError("Unknown Reference", fn.ID, nodeID, "type %q is not a known primitive, struct, or array pattern", sym)
		}
	case "loop":
		if _, ok := fn.NodeByID(sym); !ok {
			v.addError("Unknown Reference", fn.ID, nodeID, "loop %q does not refer to a node in %q", sym, fn.ID)
		}
	}
}

// ---- Pass 3: static logic ----

func (v *Validator) pass3StaticLogic() {
	for i := range v.doc.Functions {
		fn := &v.doc.Functions[i]
		for _, n := range fn.Nodes {
			v.checkNodeStaticLogic(fn, n)
		}
	}
}

func (v *Validator) checkNodeStaticLogic(fn *FunctionDef, node Node) {
	if !DefaultRegistry().KnownOp(node.Op) {
		v.addError("Unknown Op", fn.ID, node.ID, "unknown op %q", node.Op)
		return
	}

	switch node.Op {
	case "buffer_load", "buffer_store":
		v.checkBufferBounds(fn, node)
	case "const_get":
		name, _ := node.Args["name"].(string)
		if _, ok := ConstantTable[name]; !ok {
			v.addError("Invalid constant name", fn.ID, node.ID, "invalid constant name %q", name)
		}
	}

	visiting := map[string]bool{}
	_, err := InferType(v.doc, fn, node.ID, visiting)
	if err != nil {
		v.classifyInferenceError(fn, node, err)
	}
}

func (v *Validator) classifyInferenceError(fn *FunctionDef, node Node, err error) {
	msg := err.Error()
	switch {
	case containsAny(msg, "missing argument", "Missing required argument", "missing required argument"):
		v.addError("Missing required argument", fn.ID, node.ID, "%s", msg)
	case containsAny(msg, "type mismatch", "Type mismatch"):
		v.addError("Type Mismatch", fn.ID, node.ID, "%s", msg)
	case containsAny(msg, "unknown op"):
		v.addError("Unknown Op", fn.ID, node.ID, "%s", msg)
	case containsAny(msg, "invalid constant name"):
		v.addError("Invalid constant name", fn.ID, node.ID, "%s", msg)
	case containsAny(msg, "multiple outputs"):
		v.addError("Unsupported Multi-Return", fn.ID, node.ID, "%s", msg)
	default:
		v.addError("Type Mismatch", fn.ID, node.ID, "%s", msg)
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if indexOf(s, sub) >= 0 {
			return true
		}
	}
	return false
}

func indexOf(s, sub string) int {
	n, m := len(s), len(sub)
	for i := 0; i+m <= n; i++ {
		if s[i:i+m] == sub {
			return i
		}
	}
	return -1
}

func (v *Validator) checkBufferBounds(fn *FunctionDef, node Node) {
	resName, _ := node.Args["buffer"].(string)
	res, ok := v.doc.ResourceByID(resName)
	if !ok {
		return // reference error already reported in Pass 2
	}
	idxVal, present := node.Args["index"]
	if !present {
		return
	}
	idxFloat, ok := idxVal.(float64)
	if !ok {
		return // not a literal index; only literal indices are statically checked
	}
	idx := int(idxFloat)
	if idx < 0 {
		v.addError("Invalid Negative Index", fn.ID, node.ID, "%s index %d is negative", node.Op, idx)
		return
	}
	if res.Size.Count != nil && idx >= *res.Size.Count {
		v.addError("Static OOB Access", fn.ID, node.ID, "%s index %d is out of bounds for buffer %q of size %d", node.Op, idx, resName, *res.Size.Count)
	}
}
