package mcp

import (
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
)

func TestExtractTextConcatenatesTextContent(t *testing.T) {
	result := &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: "hello "},
			mcp.TextContent{Type: "text", Text: "world"},
		},
	}
	assert.Equal(t, "hello world", extractText(result))
}

func TestExtractTextHandlesNilResult(t *testing.T) {
	assert.Equal(t, "", extractText(nil))
}

func TestEnvSliceFormatsKeyValuePairs(t *testing.T) {
	out := envSlice(map[string]string{"FOO": "bar"})
	assert.Equal(t, []string{"FOO=bar"}, out)
}

func TestCanHandleOnlyDiscoveredTools(t *testing.T) {
	e := &Executor{tools: map[string]mcp.Tool{"search": {Name: "search"}}}
	assert.True(t, e.CanHandle("search"))
	assert.False(t, e.CanHandle("unknown"))
}

func TestNameReturnsConfiguredName(t *testing.T) {
	e := &Executor{cfg: Config{Name: "local-mcp"}}
	assert.Equal(t, "local-mcp", e.Name())
}
