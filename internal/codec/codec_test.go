package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDigest_IndependentOfMapOrder(t *testing.T) {
	first := map[string]any{"path": "/tmp", "recursive": true, "depth": 2}
	second := map[string]any{"depth": 2, "recursive": true, "path": "/tmp"}

	a, err := Digest("select_tool", first)
	require.NoError(t, err)
	b, err := Digest("select_tool", second)
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Len(t, a, 32)
}

func TestDigest_DiffersByInput(t *testing.T) {
	a, err := Digest("select_tool", "list my files")
	require.NoError(t, err)
	b, err := Digest("extract_parameters", "list my files")
	require.NoError(t, err)
	c, err := Digest("select_tool", "list my photos")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	assert.NotEqual(t, a, c)
}

func TestMarshalUnmarshal_UntypedMaps(t *testing.T) {
	data, err := Marshal(map[string]any{
		"nested": map[string]any{"required": []any{"path"}},
	})
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, Unmarshal(data, &decoded))

	nested, ok := decoded["nested"].(map[string]any)
	require.True(t, ok, "nested maps should decode as map[string]any")
	assert.Equal(t, []any{"path"}, nested["required"])
}

func TestMarshalUnmarshal_Struct(t *testing.T) {
	type record struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}

	data, err := Marshal(record{ID: "abc", Status: "completed"})
	require.NoError(t, err)

	var decoded record
	require.NoError(t, Unmarshal(data, &decoded))
	assert.Equal(t, record{ID: "abc", Status: "completed"}, decoded)
}
