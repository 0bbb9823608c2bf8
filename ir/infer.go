package ir

import "fmt"

// InferType statically infers the output type of a pure or executable
// node by walking the data graph. visiting
// guards against cycles in pure data references (a pure node that,
// through var_get → local initial value → node, would otherwise recurse
// forever); it is not the same check as runtime recursion detection
// (interp package), which guards call_func against the call stack.
func InferType(doc *IRDocument, fn *FunctionDef, nodeID string, visiting map[string]bool) (string, error) {
	if visiting[nodeID] {
		return "", fmt.Errorf("cyclic data reference through node %q", nodeID)
	}
	node, ok := fn.NodeByID(nodeID)
	if !ok {
		return "", fmt.Errorf("node %q does not exist", nodeID)
	}
	visiting[nodeID] = true
	defer delete(visiting, nodeID)

	switch node.Op {
	case "literal":
		return inferLiteralType(node)
	case "var_get":
		name, _ := node.Args["var"].(string)
		local, ok := fn.LocalByID(name)
		if !ok {
			return "", fmt.Errorf("var_get: unknown local %q", name)
		}
		return local.Type, nil
	case "call_func":
		target, _ := node.Args["func"].(string)
		callee, ok := doc.FunctionByID(target)
		if !ok {
			return "", fmt.Errorf("call_func: unknown function %q", target)
		}
		if len(callee.Outputs) == 0 {
			return "", fmt.Errorf("call_func: function %q has no output", target)
		}
		if len(callee.Outputs) > 1 {
			return "", fmt.Errorf("call_func: function %q has multiple outputs, unsupported in expression position", target)
		}
		return callee.Outputs[0].Type, nil
	case "builtin_get":
		name, _ := node.Args["name"].(string)
		typ, ok := BUILTIN_TYPES[name]
		if !ok {
			return "", fmt.Errorf("builtin_get: unknown built-in %q", name)
		}
		return string(typ), nil
	case "const_get":
		name, _ := node.Args["name"].(string)
		typ, ok := ConstantTable[name]
		if !ok {
			return "", fmt.Errorf("const_get: invalid constant name %q", name)
		}
		return string(typ), nil
	case "loop_index":
		return string(TInt), nil
	case "resource_get_size":
		return string(TInt2), nil
	case "resource_get_format":
		return string(TString), nil
	case "buffer_load":
		return resolveBufferElementType(doc, node)
	case "texture_sample", "texture_load":
		return string(TFloat4), nil
	case "array_set", "var_set":
		return resolveArgType(doc, fn, nodeID, "value", visiting)
	case "struct_get":
		return resolveStructGetType(doc, fn, nodeID, node, visiting)
	case "array_get":
		return resolveArrayGetType(doc, fn, nodeID, node, visiting)
	case "vec_swizzle":
		return resolveSwizzleType(doc, fn, nodeID, node, visiting)
	case "vec_splat":
		return resolveSplatType(node)
	case "struct_construct":
		if t, ok := node.Args["type"].(string); ok {
			return t, nil
		}
		return "", fmt.Errorf("struct_construct: missing %q", "type")
	case "array_construct":
		return resolveArrayConstructType(node)
	}

	return resolveByOverload(doc, fn, nodeID, node, visiting)
}

func inferLiteralType(node *Node) (string, error) {
	v, ok := node.Args["value"]
	if !ok {
		return "", fmt.Errorf("literal: missing %q", "value")
	}
	return literalValueType(v)
}

func literalValueType(v any) (string, error) {
	switch val := v.(type) {
	case bool:
		return string(TBool), nil
	case string:
		return string(TString), nil
	case float64:
		if val == float64(int64(val)) {
			return string(TInt), nil
		}
		return string(TFloat), nil
	case []any:
		if len(val) == 0 {
			return "", fmt.Errorf("literal: cannot infer type of empty array")
		}
		elem, err := literalValueType(val[0])
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("array<%s, %d>", elem, len(val)), nil
	default:
		return "", fmt.Errorf("literal: unsupported value kind %T", v)
	}
}

func resolveBufferElementType(doc *IRDocument, node *Node) (string, error) {
	name, _ := node.Args["buffer"].(string)
	res, ok := doc.ResourceByID(name)
	if !ok {
		return "", fmt.Errorf("buffer_load: unknown resource %q", name)
	}
	return res.Type, nil
}

func resolveStructGetType(doc *IRDocument, fn *FunctionDef, nodeID string, node *Node, visiting map[string]bool) (string, error) {
	baseType, err := resolveArgType(doc, fn, nodeID, "struct", visiting)
	if err != nil {
		return "", err
	}
	sd, ok := doc.StructByID(baseType)
	if !ok {
		return "", fmt.Errorf("struct_get: %q is not a struct type", baseType)
	}
	field, _ := node.Args["field"].(string)
	for _, m := range sd.Members {
		if m.Name == field {
			return m.Type, nil
		}
	}
	return "", fmt.Errorf("struct_get: struct %q has no member %q", baseType, field)
}

func resolveArrayGetType(doc *IRDocument, fn *FunctionDef, nodeID string, node *Node, visiting map[string]bool) (string, error) {
	baseType, err := resolveArgType(doc, fn, nodeID, "array", visiting)
	if err != nil {
		return "", err
	}
	elem, _, _, ok := IsArrayPattern(baseType)
	if !ok {
		return "", fmt.Errorf("array_get: %q is not an array type", baseType)
	}
	return elem, nil
}

func resolveSwizzleType(doc *IRDocument, fn *FunctionDef, nodeID string, node *Node, visiting map[string]bool) (string, error) {
	baseType, err := resolveArgType(doc, fn, nodeID, "vec", visiting)
	if err != nil {
		return "", err
	}
	channels, _ := node.Args["channels"].(string)
	n := len(channels)
	if n < 1 || n > 4 {
		return "", fmt.Errorf("vec_swizzle: invalid channel count %d", n)
	}
	scalar := ScalarTypeOf(baseType)
	if n == 1 {
		return scalar, nil
	}
	family := "float"
	if scalar == string(TInt) {
		family = "int"
	}
	return fmt.Sprintf("%s%d", family, n), nil
}

func resolveSplatType(node *Node) (string, error) {
	sizeVal, ok := node.Args["size"]
	if !ok {
		return "", fmt.Errorf("vec_splat: missing %q", "size")
	}
	size, ok := sizeVal.(float64)
	if !ok || size < 2 || size > 4 {
		return "", fmt.Errorf("vec_splat: invalid size %v", sizeVal)
	}
	return fmt.Sprintf("float%d", int(size)), nil
}

func resolveArrayConstructType(node *Node) (string, error) {
	elem, ok := node.Args["type"].(string)
	if !ok {
		return "", fmt.Errorf("array_construct: missing %q", "type")
	}
	count := 0
	for k := range node.Args {
		if k == "type" {
			continue
		}
		count++
	}
	return fmt.Sprintf("array<%s, %d>", elem, count), nil
}

// resolveArgType resolves the type of the value bound to key on node
// nodeID: a data edge targeting that key wins; otherwise an inline value
// that is a string naming a local/input/node id in scope is resolved
// recursively; otherwise it is a literal, resolved statically.
func resolveArgType(doc *IRDocument, fn *FunctionDef, nodeID, key string, visiting map[string]bool) (string, error) {
	if edge, ok := fn.DataEdgeTo(nodeID, key); ok {
		return InferType(doc, fn, edge.From, visiting)
	}
	node, _ := fn.NodeByID(nodeID)
	val, present := node.Args[key]
	if !present {
		return "", fmt.Errorf("missing argument %q", key)
	}
	if ReservedNodeKeys[key] {
		return string(TString), nil
	}
	if s, ok := val.(string); ok {
		if local, ok := fn.LocalByID(s); ok {
			return local.Type, nil
		}
		if in, ok := fn.InputByID(s); ok {
			return in.Type, nil
		}
		if _, ok := fn.NodeByID(s); ok {
			return InferType(doc, fn, s, visiting)
		}
	}
	return literalValueType(val)
}

// resolveByOverload resolves every declared input key's type, selects the
// first matching overload, and returns its output type. It
// also reports the specific "Missing required argument" / "Type
// Mismatch" / "unknown op" failures the validator surfaces.
func resolveByOverload(doc *IRDocument, fn *FunctionDef, nodeID string, node *Node, visiting map[string]bool) (string, error) {
	sigs := DefaultRegistry().Signatures(node.Op)
	if len(sigs) == 0 {
		return "", fmt.Errorf("unknown op %q", node.Op)
	}
	var lastErr error
	for _, s := range sigs {
		ok := true
		for key, want := range s.Inputs {
			got, err := resolveArgType(doc, fn, nodeID, key, visiting)
			if err != nil {
				lastErr = fmt.Errorf("missing required argument %q", key)
				ok = false
				break
			}
			if !typeMatches(want, got) {
				lastErr = fmt.Errorf("type mismatch on %q: expected %s, found %s", key, want, got)
				ok = false
				break
			}
		}
		if ok {
			return string(s.Output), nil
		}
	}
	if lastErr != nil {
		return "", lastErr
	}
	return "", fmt.Errorf("no matching overload for op %q", node.Op)
}

// typeMatches reports whether got satisfies the validation-type want,
// including the generic markers (any/struct/array) and the scalar<->
// vector broadcasting the registry already encodes per-overload.
func typeMatches(want ValidationType, got string) bool {
	switch want {
	case VAny:
		return true
	case VStruct:
		return true // struct-id vs VStruct: caller already has a concrete struct id
	case VArray:
		_, _, _, ok := IsArrayPattern(got)
		return ok
	default:
		return string(want) == got
	}
}
