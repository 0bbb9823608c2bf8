package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func minimalDocJSON() string {
	return `{
		"meta": {"name": "doc"},
		"entryPoint": "main",
		"functions": [{
			"id": "main",
			"kind": "cpu",
			"outputs": [{"id": "out", "type": "int"}],
			"nodes": [
				{"id": "lit", "op": "literal", "value": 1},
				{"id": "ret", "op": "func_return", "out": "lit"}
			],
			"edges": []
		}]
	}`
}

func TestParseRoutesNodeFieldsAndArgs(t *testing.T) {
	doc, err := Parse([]byte(minimalDocJSON()))
	assert.NoError(t, err)

	fn, ok := doc.FunctionByID("main")
	assert.True(t, ok)

	lit, ok := fn.NodeByID("lit")
	assert.True(t, ok)
	assert.Equal(t, "literal", lit.Op)
	assert.Equal(t, float64(1), lit.Args["value"])

	ret, ok := fn.NodeByID("ret")
	assert.True(t, ok)
	assert.Equal(t, "lit", ret.Args["out"])
}

func TestSerializeParseRoundTrips(t *testing.T) {
	doc, err := Parse([]byte(minimalDocJSON()))
	assert.NoError(t, err)

	raw, err := Serialize(doc)
	assert.NoError(t, err)

	doc2, err := Parse(raw)
	assert.NoError(t, err)

	fn, ok := doc2.FunctionByID("main")
	assert.True(t, ok)
	lit, ok := fn.NodeByID("lit")
	assert.True(t, ok)
	assert.Equal(t, float64(1), lit.Args["value"])
	assert.NotContains(t, lit.Args, "id")
	assert.NotContains(t, lit.Args, "op")
}

func TestNodeMarshalOmitsIdentityFieldsFromArgs(t *testing.T) {
	n := Node{ID: "n1", Op: "math_add", Args: map[string]any{"a": "x", "b": "y"}}
	raw, err := n.MarshalJSON()
	assert.NoError(t, err)

	var decoded Node
	assert.NoError(t, decoded.UnmarshalJSON(raw))
	assert.Equal(t, "n1", decoded.ID)
	assert.Equal(t, "math_add", decoded.Op)
	assert.Equal(t, "x", decoded.Args["a"])
	assert.Equal(t, "y", decoded.Args["b"])
	assert.NotContains(t, decoded.Args, "id")
	assert.NotContains(t, decoded.Args, "op")
}

func TestLookupHelpers(t *testing.T) {
	doc, err := Parse([]byte(minimalDocJSON()))
	assert.NoError(t, err)

	_, ok := doc.FunctionByID("missing")
	assert.False(t, ok)

	fn, _ := doc.FunctionByID("main")
	_, ok = fn.NodeByID("missing")
	assert.False(t, ok)

	_, ok = fn.OutputByID("out")
	assert.True(t, ok)
	_, ok = fn.OutputByID("missing")
	assert.False(t, ok)
}
