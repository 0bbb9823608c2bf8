package ir

// FunctionByID returns the function with the given id, if any.
func (d *IRDocument) FunctionByID(id string) (*FunctionDef, bool) {
	for i := range d.Functions {
		if d.Functions[i].ID == id {
			return &d.Functions[i], true
		}
	}
	return nil, false
}

// StructByID returns the struct definition with the given id, if any.
func (d *IRDocument) StructByID(id string) (*StructDef, bool) {
	for i := range d.Structs {
		if d.Structs[i].ID == id {
			return &d.Structs[i], true
		}
	}
	return nil, false
}

// ResourceByID returns the resource definition with the given id, if any.
func (d *IRDocument) ResourceByID(id string) (*ResourceDef, bool) {
	for i := range d.Resources {
		if d.Resources[i].ID == id {
			return &d.Resources[i], true
		}
	}
	return nil, false
}

// InputByID returns the input definition with the given id, if any.
func (d *IRDocument) InputByID(id string) (*InputDef, bool) {
	for i := range d.Inputs {
		if d.Inputs[i].ID == id {
			return &d.Inputs[i], true
		}
	}
	return nil, false
}

// GlobalByID returns the global definition with the given id, if any.
func (d *IRDocument) GlobalByID(id string) (*GlobalDef, bool) {
	for i := range d.Globals {
		if d.Globals[i].ID == id {
			return &d.Globals[i], true
		}
	}
	return nil, false
}

// NodeByID returns the node with the given id within this function, if any.
func (f *FunctionDef) NodeByID(id string) (*Node, bool) {
	for i := range f.Nodes {
		if f.Nodes[i].ID == id {
			return &f.Nodes[i], true
		}
	}
	return nil, false
}

// LocalByID returns the local var with the given id, if any.
func (f *FunctionDef) LocalByID(id string) (*LocalVar, bool) {
	for i := range f.LocalVars {
		if f.LocalVars[i].ID == id {
			return &f.LocalVars[i], true
		}
	}
	return nil, false
}

// InputByID returns the input port with the given id, if any.
func (f *FunctionDef) InputByID(id string) (*Port, bool) {
	for i := range f.Inputs {
		if f.Inputs[i].ID == id {
			return &f.Inputs[i], true
		}
	}
	return nil, false
}

// OutputByID returns the output port with the given id, if any.
func (f *FunctionDef) OutputByID(id string) (*Port, bool) {
	for i := range f.Outputs {
		if f.Outputs[i].ID == id {
			return &f.Outputs[i], true
		}
	}
	return nil, false
}

// DataEdgeTo returns the data edge (if any) whose target is (nodeID, portIn).
// A data edge overrides any same-key inline reference on the target node.
func (f *FunctionDef) DataEdgeTo(nodeID, portIn string) (*Edge, bool) {
	for i := range f.Edges {
		e := &f.Edges[i]
		if e.Type == EdgeData && e.To == nodeID && e.PortIn == portIn {
			return e, true
		}
	}
	return nil, false
}

// ExecEdgesFrom returns all execution edges leaving (nodeID, portOut).
func (f *FunctionDef) ExecEdgesFrom(nodeID, portOut string) []Edge {
	var out []Edge
	for _, e := range f.Edges {
		if e.Type == EdgeExecution && e.From == nodeID && e.PortOut == portOut {
			out = append(out, e)
		}
	}
	return out
}
