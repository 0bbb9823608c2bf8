// Package ir defines the intermediate representation for shadergraph.
//
// The IR is a declarative node/edge graph: functions contain nodes
// (operations) wired together by edges (data or execution). It is
// designed to be:
//   - Author-agnostic: produced by a human editor or an LLM assistant,
//     never parsed from shader source text.
//   - Lossless over JSON: a document round-trips through Parse/the
//     standard library's json package without losing op-specific
//     fields on nodes.
//   - Statically checkable: every node's argument set can be resolved
//     and type-inferred before any code runs (see Validate).
//
// # Structure
//
// An IRDocument holds:
//   - Inputs, Resources, Structs, Globals: module-scope declarations.
//   - Functions: CPU functions (orchestrators) and shader functions
//     (compute/vertex/fragment), each a small node graph.
//
// # Pipeline
//
//	IRDocument --Validate--> (errors | validated document)
//	                              |
//	                              +--> interp.Interpret (tests)
//	                              +--> hostgen.CompileHost
//	                              +--> shadergen.Compile
package ir
