package llmclient

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeduplicateToolsFirstOccurrenceUnchanged(t *testing.T) {
	in := []ToolDefinition{{Name: "search"}, {Name: "search"}, {Name: "search"}}
	out := DeduplicateTools(in)
	assert.Equal(t, "search", out[0].Name)
	assert.Equal(t, "search_1", out[1].Name)
	assert.Equal(t, "search_2", out[2].Name)
}

func TestDeduplicateToolsIdempotentOnUniqueNames(t *testing.T) {
	in := []ToolDefinition{{Name: "a"}, {Name: "b"}, {Name: "c"}}
	out := DeduplicateTools(in)
	assert.Equal(t, in, out)

	again := DeduplicateTools(out)
	assert.Equal(t, out, again)
}

func TestDeduplicateToolsAvoidsCollidingWithExistingSuffixedName(t *testing.T) {
	in := []ToolDefinition{{Name: "search"}, {Name: "search_1"}, {Name: "search"}}
	out := DeduplicateTools(in)

	seen := map[string]bool{}
	for _, td := range out {
		assert.False(t, seen[td.Name], "duplicate name %q after dedup", td.Name)
		seen[td.Name] = true
	}
}
