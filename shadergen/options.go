package shadergen

import "github.com/shadergraph/core/ir"

// Options configures shader-text generation.
type Options struct {
	// GlobalBufferBinding, when non-nil, emits a writable storage buffer
	// at group 0, the given binding index, backing every document
	// global: struct Globals { data: array<f32> } bound read-write.
	GlobalBufferBinding *int

	// VarMap maps a global variable id to its index inside the globals
	// buffer. Required when GlobalBufferBinding is set and var_get/
	// var_set ever target a global rather than a local.
	VarMap map[string]int

	// ResourceBindings maps a resource id to its group-0 binding index.
	// Every buffer/texture resource referenced by the compiled function
	// must have an entry here.
	ResourceBindings map[string]int

	// ResourceDefs are the document's resource definitions, needed to
	// synthesize typed storage buffer / texture declarations.
	ResourceDefs []ir.ResourceDef
}

// DefaultOptions returns an Options with no global buffer and empty
// binding maps; callers fill in ResourceBindings/ResourceDefs per
// document before compiling.
func DefaultOptions() Options {
	return Options{VarMap: map[string]int{}, ResourceBindings: map[string]int{}}
}
