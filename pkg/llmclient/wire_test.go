package llmclient

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContentTextAcceptsBareString(t *testing.T) {
	assert.Equal(t, "hello", contentText(json.RawMessage(`"hello"`)))
}

func TestContentTextAcceptsNull(t *testing.T) {
	assert.Equal(t, "", contentText(json.RawMessage(`null`)))
}

func TestContentTextAcceptsPartsArray(t *testing.T) {
	raw := json.RawMessage(`[{"type":"text","text":"a"},{"type":"text","text":"b"}]`)
	assert.Equal(t, "ab", contentText(raw))
}

func TestToolCallDefaultsMissingType(t *testing.T) {
	var wtc wireToolCall
	require.NoError(t, json.Unmarshal([]byte(`{"id":"call_1","function":{"name":"search","arguments":"{\"q\":\"go\"}"}}`), &wtc))

	call := wtc.toToolCall()
	assert.Equal(t, "call_1", call.ID)
	assert.Equal(t, "search", call.Name)
	assert.Equal(t, "go", call.Args["q"])
}

func TestToolCallToleratesMalformedArguments(t *testing.T) {
	wtc := wireToolCall{ID: "call_2"}
	wtc.Function.Name = "broken"
	wtc.Function.Arguments = "{not json"

	call := wtc.toToolCall()
	assert.Equal(t, "broken", call.Name)
	assert.Empty(t, call.Args)
}

func TestParseServiceTierFallsBackToOther(t *testing.T) {
	assert.Equal(t, serviceTierDefault, parseServiceTier(""))
	assert.Equal(t, serviceTierDefault, parseServiceTier("default"))
	assert.Equal(t, serviceTierOther, parseServiceTier("scale"))
}

func TestWireResponseToMessageNoChoices(t *testing.T) {
	var r wireResponse
	require.NoError(t, json.Unmarshal([]byte(`{"choices":[]}`), &r))

	_, _, _, ok := r.toMessage()
	assert.False(t, ok)
}

func TestWireResponseToMessageExtractsToolCalls(t *testing.T) {
	body := `{
		"choices": [{"message": {"role":"assistant","tool_calls":[
			{"id":"1","function":{"name":"lookup","arguments":"{\"x\":1}"}}
		]}}],
		"usage": {"total_tokens": 42}
	}`
	var r wireResponse
	require.NoError(t, json.Unmarshal([]byte(body), &r))

	msg, tokens, _, ok := r.toMessage()
	require.True(t, ok)
	assert.Equal(t, 42, tokens)
	require.Len(t, msg.ToolCalls, 1)
	assert.Equal(t, "lookup", msg.ToolCalls[0].Name)
}
