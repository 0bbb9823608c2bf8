package ir

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestApplyPatchReplacesField(t *testing.T) {
	doc := minimalValidDoc()
	patched, err := ApplyPatch(doc, []PatchOp{
		{Op: "replace", Path: "/meta/name", Value: json.RawMessage(`"renamed"`)},
	})
	assert.NoError(t, err)
	assert.Equal(t, "renamed", patched.Meta.Name)
	assert.Equal(t, "doc", doc.Meta.Name, "ApplyPatch must not mutate its input")
}

func TestApplyPatchAddsNode(t *testing.T) {
	doc := minimalValidDoc()
	newNode := json.RawMessage(`{"id":"extra","op":"literal","value":3}`)
	patched, err := ApplyPatch(doc, []PatchOp{
		{Op: "add", Path: "/functions/0/nodes/-", Value: newNode},
	})
	assert.NoError(t, err)

	fn, ok := patched.FunctionByID("main")
	assert.True(t, ok)
	_, ok = fn.NodeByID("extra")
	assert.True(t, ok)
}

func TestApplyPatchEmptySequenceIsNoOp(t *testing.T) {
	doc := minimalValidDoc()
	patched, err := ApplyPatch(doc, nil)
	assert.NoError(t, err)
	assert.Equal(t, doc.Meta.Name, patched.Meta.Name)
	assert.Equal(t, len(doc.Functions[0].Nodes), len(patched.Functions[0].Nodes))
}

func TestApplyPatchRemoveThenSamePatchAgainIsIdempotentFailure(t *testing.T) {
	doc := minimalValidDoc()
	ops := []PatchOp{{Op: "remove", Path: "/functions/0/nodes/1"}}
	once, err := ApplyPatch(doc, ops)
	assert.NoError(t, err)
	assert.Len(t, once.Functions[0].Nodes, 1)

	_, err = ApplyPatch(once, ops)
	assert.Error(t, err, "removing an already-removed index is reported, not silently ignored")
}

func TestApplyPatchRejectsUnsupportedOp(t *testing.T) {
	doc := minimalValidDoc()
	_, err := ApplyPatch(doc, []PatchOp{{Op: "move", Path: "/meta/name"}})
	assert.Error(t, err)
}
