package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/jsmorph/pkg/mcp"
	"github.com/Sumatoshi-tech/jsmorph/pkg/ruleset"
)

func TestGenerateSchema_SearchOutput(t *testing.T) {
	t.Parallel()

	schema := generateSchema("Search result", &mcp.SearchOutput{})

	assert.Equal(t, "object", schema.Type)
	assert.Equal(t, []string{"matches"}, schema.Required)
	require.Contains(t, schema.Properties, "matches")
	assert.Equal(t, "array", schema.Properties["matches"].Type)
	assert.Equal(t, "#/definitions/MatchView", schema.Properties["matches"].Items.Ref)

	view := schema.Definitions["MatchView"]
	require.NotNil(t, view)
	assert.Equal(t, "integer", view.Properties["line"].Type)
	assert.Equal(t, "object", view.Properties["bindings"].Type)
	assert.NotContains(t, view.Required, "bindings")
}

func TestGenerateSchema_FlattensEmbeddedStructs(t *testing.T) {
	t.Parallel()

	type wrapper struct {
		ruleset.Rule

		Extra bool `json:"extra"`
	}

	schema := generateSchema("Wrapper", &wrapper{})

	assert.Contains(t, schema.Properties, "name")
	assert.Contains(t, schema.Properties, "rule")
	assert.Contains(t, schema.Properties, "extra")
	assert.ElementsMatch(t, []string{"name", "rule", "extra"}, schema.Required)
}

func TestWriteSchema(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	require.NoError(t, writeSchema(dir, "apply", generateSchema("Apply", &ruleset.Result{})))

	data, err := os.ReadFile(filepath.Join(dir, "apply.json"))
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "Apply", decoded["title"])
}
