// ABOUTME: Tests for patch wire operations
// ABOUTME: Verifies JSON shape, path helpers and protobuf conversion

package patch

import (
	"testing"

	jsonpatch "github.com/evanphx/json-patch/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaths(t *testing.T) {
	assert.Equal(t, "/metadata/dc.title/2", Path("metadata", "dc.title", 2))
	assert.Equal(t, "/metadata/dc.title/-", AppendPath("metadata", "dc.title"))

	field, index, err := SplitPath("/metadata/dc.subject/3")
	require.NoError(t, err)
	assert.Equal(t, "dc.subject", field)
	assert.Equal(t, "3", index)

	_, _, err = SplitPath("/metadata")
	assert.Error(t, err)
}

func TestPathsEscapeReferenceTokens(t *testing.T) {
	assert.Equal(t, "/metadata/a~1b~0c/0", Path("metadata", "a/b~c", 0))
	assert.Equal(t, "/metadata/~01/-", AppendPath("metadata", "~1"))

	field, index, err := SplitPath(Path("metadata", "a/b~c", 4))
	require.NoError(t, err)
	assert.Equal(t, "a/b~c", field)
	assert.Equal(t, "4", index)

	field, _, err = SplitPath(AppendPath("metadata", "~1"))
	require.NoError(t, err)
	assert.Equal(t, "~1", field)

	doc := []byte(`{"metadata":{"a/b~c":["x","y"]}}`)
	p, err := jsonpatch.DecodePatch([]byte(`[{"op":"remove","path":"` + Path("metadata", "a/b~c", 0) + `"}]`))
	require.NoError(t, err)
	out, err := p.Apply(doc)
	require.NoError(t, err)
	assert.JSONEq(t, `{"metadata":{"a/b~c":["y"]}}`, string(out))
}

func TestListJSON(t *testing.T) {
	l := List{
		{Op: OpReplace, Path: "/metadata/dc.title/0", Value: map[string]any{"value": "New"}},
		{Op: OpRemove, Path: "/metadata/dc.title/1"},
		{Op: OpMove, From: "/metadata/dc.title/0", Path: "/metadata/dc.title/1"},
	}

	raw, err := l.JSON()
	require.NoError(t, err)
	assert.JSONEq(t, `[
		{"op":"replace","path":"/metadata/dc.title/0","value":{"value":"New"}},
		{"op":"remove","path":"/metadata/dc.title/1"},
		{"op":"move","from":"/metadata/dc.title/0","path":"/metadata/dc.title/1"}
	]`, string(raw))

	raw, err = List(nil).JSON()
	require.NoError(t, err)
	assert.Equal(t, "[]", string(raw))
}

func TestToListValue(t *testing.T) {
	type langValue struct {
		Value    string `json:"value"`
		Language string `json:"language,omitempty"`
	}
	l := List{
		{Op: OpAdd, Path: "/metadata/dc.subject/-", Value: []langValue{{Value: "x", Language: "en"}}},
		{Op: OpMove, From: "/metadata/dc.subject/2", Path: "/metadata/dc.subject/0"},
	}

	lv, err := l.ToListValue()
	require.NoError(t, err)
	require.Len(t, lv.Values, 2)

	first := lv.Values[0].GetStructValue().AsMap()
	assert.Equal(t, "add", first["op"])
	assert.Equal(t, []any{map[string]any{"value": "x", "language": "en"}}, first["value"])

	second := lv.Values[1].GetStructValue().AsMap()
	assert.Equal(t, "/metadata/dc.subject/2", second["from"])
	assert.NotContains(t, second, "value")
}
