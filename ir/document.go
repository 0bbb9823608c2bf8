package ir

import (
	"encoding/json"
	"fmt"
)

// IRDocument is the top-level value the core operates on.
type IRDocument struct {
	Version    string        `json:"version"`
	Meta       Meta          `json:"meta"`
	EntryPoint string        `json:"entryPoint"`
	Inputs     []InputDef    `json:"inputs,omitempty"`
	Resources  []ResourceDef `json:"resources,omitempty"`
	Structs    []StructDef   `json:"structs,omitempty"`
	Globals    []GlobalDef   `json:"globals,omitempty"`
	Functions  []FunctionDef `json:"functions"`
	Comment    string        `json:"comment,omitempty"`
}

// Meta carries document-level metadata.
type Meta struct {
	Name        string `json:"name"`
	Author      string `json:"author,omitempty"`
	Description string `json:"description,omitempty"`
	License     string `json:"license,omitempty"`
	Debug       bool   `json:"debug,omitempty"`
}

// InputDef is a scalar or texture uniform addressable by id.
type InputDef struct {
	ID      string `json:"id"`
	Kind    string `json:"kind,omitempty"` // "scalar" (default) or "texture"
	Type    string `json:"type"`
	Default any    `json:"default,omitempty"`
}

// ResourceDef is a buffer, texture, or atomic counter global resource.
type ResourceDef struct {
	ID          string           `json:"id"`
	Kind        string           `json:"kind"` // "buffer", "texture", "atomic_counter"
	Type        string           `json:"type"`
	Format      string           `json:"format,omitempty"` // texture formats
	Filter      string           `json:"filter,omitempty"` // "nearest" (default), "linear"
	Wrap        string           `json:"wrap,omitempty"`   // "clamp" (default), "repeat", "mirror"
	Size        SizeSpec         `json:"size"`
	Persistence *PersistenceSpec `json:"persistence,omitempty"`
}

// SizeSpec describes a resource's sizing strategy.
type SizeSpec struct {
	Count   *int `json:"count,omitempty"`   // fixed buffer/array element count
	Width   *int `json:"width,omitempty"`   // texture width
	Height  *int `json:"height,omitempty"`  // texture height
	Dynamic bool `json:"dynamic,omitempty"` // runtime-sized (array<T> only)
}

// PersistenceSpec governs per-frame / resize clearing of a resource.
type PersistenceSpec struct {
	ClearEachFrame bool `json:"clearEachFrame,omitempty"`
	ClearOnResize  bool `json:"clearOnResize,omitempty"`
	ClearValue     any  `json:"clearValue,omitempty"`
}

// StructDef defines a named struct type with an ordered member list.
type StructDef struct {
	ID      string            `json:"id"`
	Members []StructMemberDef `json:"members"`
}

// StructMemberDef is one member of a struct.
type StructMemberDef struct {
	Name    string `json:"name"`
	Type    string `json:"type"`
	Builtin string `json:"builtin,omitempty"` // e.g. "position" for @builtin(position)
}

// GlobalDef is a shared data value available to any function.
type GlobalDef struct {
	ID           string `json:"id"`
	Type         string `json:"type"`
	InitialValue any    `json:"initialValue,omitempty"`
}

// FunctionKind distinguishes CPU orchestrator functions from GPU shader
// functions.
type FunctionKind string

const (
	KindCPU    FunctionKind = "cpu"
	KindShader FunctionKind = "shader"
)

// ShaderStage names the GPU stage a shader-kind function implements.
type ShaderStage string

const (
	StageVertex   ShaderStage = "vertex"
	StageFragment ShaderStage = "fragment"
	StageCompute  ShaderStage = "compute"
)

// FunctionDef is a CPU or shader function: a small node/edge graph.
type FunctionDef struct {
	ID        string       `json:"id"`
	Kind      FunctionKind `json:"kind"`
	Stage     ShaderStage  `json:"stage,omitempty"`
	Inputs    []Port       `json:"inputs,omitempty"`
	Outputs   []Port       `json:"outputs,omitempty"`
	LocalVars []LocalVar   `json:"localVars,omitempty"`
	Nodes     []Node       `json:"nodes"`
	Edges     []Edge       `json:"edges,omitempty"`
}

// Port is a named, typed function input or output.
type Port struct {
	ID   string `json:"id"`
	Type string `json:"type"`
}

// LocalVar is a function-scoped variable.
type LocalVar struct {
	ID           string `json:"id"`
	Type         string `json:"type"`
	InitialValue any    `json:"initialValue,omitempty"`
}

// Edge connects two nodes of the same function.
type Edge struct {
	From    string   `json:"from"`
	PortOut string   `json:"portOut"`
	To      string   `json:"to"`
	PortIn  string   `json:"portIn"`
	Type    EdgeType `json:"type"`
}

// Node is one vertex of a function's graph. Besides the identity fields
// (ID, Op, Metadata, ConstData) it carries an open-ended bag of
// op-specific fields in Args, preserved losslessly across JSON
// round-trips.
type Node struct {
	ID        string
	Op        string
	Metadata  map[string]any
	ConstData any
	Args      map[string]any
}

// UnmarshalJSON decodes a Node, routing the reserved identity keys to
// their typed fields and everything else into Args.
func (n *Node) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("node: %w", err)
	}

	if v, ok := raw["id"]; ok {
		if err := json.Unmarshal(v, &n.ID); err != nil {
			return fmt.Errorf("node.id: %w", err)
		}
	}
	if v, ok := raw["op"]; ok {
		if err := json.Unmarshal(v, &n.Op); err != nil {
			return fmt.Errorf("node.op: %w", err)
		}
	}
	if v, ok := raw["metadata"]; ok {
		if err := json.Unmarshal(v, &n.Metadata); err != nil {
			return fmt.Errorf("node.metadata: %w", err)
		}
	}
	if v, ok := raw["const_data"]; ok {
		if err := json.Unmarshal(v, &n.ConstData); err != nil {
			return fmt.Errorf("node.const_data: %w", err)
		}
	}

	n.Args = make(map[string]any, len(raw))
	for k, v := range raw {
		if NodeIdentityKeys[k] {
			continue
		}
		var val any
		if err := json.Unmarshal(v, &val); err != nil {
			return fmt.Errorf("node %q field %q: %w", n.ID, k, err)
		}
		n.Args[k] = val
	}
	return nil
}

// MarshalJSON re-merges identity fields and Args into one flat object.
func (n Node) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(n.Args)+4)
	for k, v := range n.Args {
		out[k] = v
	}
	out["id"] = n.ID
	out["op"] = n.Op
	if n.Metadata != nil {
		out["metadata"] = n.Metadata
	}
	if n.ConstData != nil {
		out["const_data"] = n.ConstData
	}
	return json.Marshal(out)
}

// Parse decodes an arbitrary JSON value into an IRDocument, failing with
// a StructuralError when required fields are missing or mistyped. Parse
// does not run the validator (ir.Validate) — it only establishes that
// the shape is well-formed enough to inspect.
func Parse(data []byte) (*IRDocument, error) {
	var doc IRDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, &StructuralError{Message: fmt.Sprintf("malformed IR document: %v", err)}
	}
	var missing []string
	if doc.Meta.Name == "" {
		missing = append(missing, "meta.name")
	}
	if doc.EntryPoint == "" {
		missing = append(missing, "entryPoint")
	}
	if len(doc.Functions) == 0 {
		missing = append(missing, "functions")
	}
	if len(missing) > 0 {
		return nil, &StructuralError{Message: fmt.Sprintf("missing required field(s): %v", missing)}
	}
	return &doc, nil
}

// Serialize encodes an IRDocument back to JSON.
func Serialize(doc *IRDocument) ([]byte, error) {
	return json.Marshal(doc)
}
