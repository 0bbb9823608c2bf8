package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func minimalValidDoc() *IRDocument {
	return &IRDocument{
		Meta:       Meta{Name: "doc"},
		EntryPoint: "main",
		Functions: []FunctionDef{{
			ID:      "main",
			Kind:    KindCPU,
			Outputs: []Port{{ID: "out", Type: "int"}},
			Nodes: []Node{
				{ID: "lit", Op: "literal", Args: map[string]any{"value": float64(1)}},
				{ID: "ret", Op: "func_return", Args: map[string]any{"out": "lit"}},
			},
		}},
	}
}

func TestValidateAcceptsMinimalDocument(t *testing.T) {
	result := Validate(minimalValidDoc())
	assert.True(t, result.OK, "errors: %v", result.Errors)
}

func TestValidateRejectsMissingName(t *testing.T) {
	doc := minimalValidDoc()
	doc.Meta.Name = ""
	result := Validate(doc)
	assert.False(t, result.OK)
	assert.Contains(t, errorCodes(result), "Missing Field")
}

func TestValidateRejectsUnknownEntryPoint(t *testing.T) {
	doc := minimalValidDoc()
	doc.EntryPoint = "nope"
	result := Validate(doc)
	assert.False(t, result.OK)
	assert.Contains(t, errorCodes(result), "Unknown Entry Point")
}

func TestValidateRejectsShaderEntryPoint(t *testing.T) {
	doc := minimalValidDoc()
	doc.Functions[0].Kind = KindShader
	doc.Functions[0].Stage = StageCompute
	result := Validate(doc)
	assert.False(t, result.OK)
	assert.Contains(t, errorCodes(result), "Invalid Entry Point")
}

func TestValidateDetectsDuplicateNodeIds(t *testing.T) {
	doc := minimalValidDoc()
	doc.Functions[0].Nodes = append(doc.Functions[0].Nodes, Node{ID: "lit", Op: "literal", Args: map[string]any{"value": float64(2)}})
	result := Validate(doc)
	assert.False(t, result.OK)
	assert.Contains(t, errorCodes(result), "Duplicate Id")
}

func TestValidateDetectsStructRecursion(t *testing.T) {
	doc := minimalValidDoc()
	doc.Structs = []StructDef{
		{ID: "A", Members: []StructMemberDef{{Name: "b", Type: "B"}}},
		{ID: "B", Members: []StructMemberDef{{Name: "a", Type: "A"}}},
	}
	result := Validate(doc)
	assert.False(t, result.OK)
	assert.Contains(t, errorCodes(result), "Struct Recursion")
}

func TestValidateDetectsUnknownOp(t *testing.T) {
	doc := minimalValidDoc()
	doc.Functions[0].Nodes[0].Op = "not_a_real_op"
	result := Validate(doc)
	assert.False(t, result.OK)
	assert.Contains(t, errorCodes(result), "Unknown Op")
}

func TestValidateDetectsStaticBufferOOB(t *testing.T) {
	doc := minimalValidDoc()
	count := 4
	doc.Resources = []ResourceDef{{ID: "buf", Kind: "buffer", Type: "float", Size: SizeSpec{Count: &count}}}
	doc.Functions[0].Nodes = []Node{
		{ID: "load", Op: "buffer_load", Args: map[string]any{"buffer": "buf", "index": float64(10)}},
		{ID: "ret", Op: "func_return", Args: map[string]any{"out": "load"}},
	}
	result := Validate(doc)
	assert.False(t, result.OK)
	assert.Contains(t, errorCodes(result), "Static OOB Access")
}

func TestValidateDoesNotAliasInputDocument(t *testing.T) {
	doc := minimalValidDoc()
	result := Validate(doc)
	assert.True(t, result.OK)
	result.Document.Meta.Name = "mutated"
	assert.Equal(t, "doc", doc.Meta.Name)
}

func errorCodes(r ValidationResult) []string {
	codes := make([]string, len(r.Errors))
	for i, e := range r.Errors {
		codes[i] = e.Code
	}
	return codes
}
