package llmclient

import "encoding/json"

// wireRequest is the outgoing chat-completions request body.
type wireRequest struct {
	Model      string           `json:"model"`
	Messages   []wireReqMessage `json:"messages"`
	Tools      []wireReqTool    `json:"tools,omitempty"`
	ToolChoice string           `json:"tool_choice,omitempty"`
}

type wireReqMessage struct {
	Role       string         `json:"role"`
	Content    string         `json:"content,omitempty"`
	ToolCalls  []wireToolCall `json:"tool_calls,omitempty"`
	ToolCallID string         `json:"tool_call_id,omitempty"`
}

type wireReqTool struct {
	Type     string          `json:"type"`
	Function wireReqFunction `json:"function"`
}

type wireReqFunction struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Parameters  map[string]any `json:"parameters,omitempty"`
}

// toWireRequest builds the wire request body, deduplicating tool names
// before they ever reach the provider (spec §4.7).
func toWireRequest(model string, messages []Message, tools []ToolDefinition, toolChoice string) wireRequest {
	reqMessages := make([]wireReqMessage, 0, len(messages))
	for _, m := range messages {
		wm := wireReqMessage{
			Role:       string(m.Role),
			Content:    m.Content,
			ToolCallID: m.ToolCallID,
		}
		for _, tc := range m.ToolCalls {
			args, _ := json.Marshal(tc.Args)
			wm.ToolCalls = append(wm.ToolCalls, wireToolCall{
				ID:   tc.ID,
				Type: "function",
				Function: struct {
					Name      string `json:"name"`
					Arguments string `json:"arguments"`
				}{Name: tc.Name, Arguments: string(args)},
			})
		}
		reqMessages = append(reqMessages, wm)
	}

	deduped := DeduplicateTools(tools)
	reqTools := make([]wireReqTool, 0, len(deduped))
	for _, t := range deduped {
		reqTools = append(reqTools, wireReqTool{
			Type: "function",
			Function: wireReqFunction{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.Parameters,
			},
		})
	}

	return wireRequest{Model: model, Messages: reqMessages, Tools: reqTools, ToolChoice: toolChoice}
}

// The wire types below mirror an OpenAI-compatible chat-completions
// response but parse leniently (spec §4.7): unknown fields are ignored by
// encoding/json by default, enums that might arrive as unexpected strings
// fall back to an Other catch-all, and a tool call with a missing `type`
// is accepted; the type is never read and every call is treated as a
// function call.

type wireResponse struct {
	ID          string       `json:"id"`
	Choices     []wireChoice `json:"choices"`
	Usage       wireUsage    `json:"usage"`
	ServiceTier string       `json:"service_tier"`
}

type wireChoice struct {
	Message      wireMessage `json:"message"`
	FinishReason string      `json:"finish_reason"`
}

type wireMessage struct {
	Role      string          `json:"role"`
	Content   json.RawMessage `json:"content"` // string or null or array; handled leniently
	ToolCalls []wireToolCall  `json:"tool_calls"`
}

type wireToolCall struct {
	ID       string `json:"id"`
	Type     string `json:"type"` // often "function"; not read when parsing responses
	Function struct {
		Name      string `json:"name"`
		Arguments string `json:"arguments"`
	} `json:"function"`
}

type wireUsage struct {
	TotalTokens int `json:"total_tokens"`
}

// serviceTier is parsed permissively: providers sometimes send values the
// client doesn't recognize yet (spec §4.7: "unknown service_tier values").
type serviceTier string

const (
	serviceTierDefault serviceTier = "default"
	serviceTierOther   serviceTier = "other" // catch-all for unrecognized values
)

func parseServiceTier(raw string) serviceTier {
	switch raw {
	case "", string(serviceTierDefault):
		return serviceTierDefault
	default:
		return serviceTierOther
	}
}

// contentText extracts plain text from a lenient content field: it may be
// a bare JSON string, null, or (for some providers) an array of content
// parts with {"type":"text","text":"..."} entries.
func contentText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var parts []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	}
	if err := json.Unmarshal(raw, &parts); err == nil {
		out := ""
		for _, p := range parts {
			if p.Type == "text" || p.Type == "" {
				out += p.Text
			}
		}
		return out
	}
	return ""
}

// toToolCall converts a wire tool call into the canonical ToolCall (which
// carries no type), tolerating malformed argument JSON by returning an empty map rather than failing
// the whole response (spec §4.7).
func (w wireToolCall) toToolCall() ToolCall {
	args := map[string]any{}
	if w.Function.Arguments != "" {
		_ = json.Unmarshal([]byte(w.Function.Arguments), &args)
	}
	return ToolCall{
		ID:   w.ID,
		Name: w.Function.Name,
		Args: args,
	}
}

// toMessage converts the lenient wire response's first choice into a
// canonical Message, the token usage, the parsed (possibly catch-all)
// service tier, and whether a choice was present at all. Providers that
// omit tool_calls[].type entirely are still accepted — the kernel never
// inspects wireToolCall.Type itself, treating every entry as a function
// call (spec §4.7 default-filling).
func (r *wireResponse) toMessage() (Message, int, serviceTier, bool) {
	tier := parseServiceTier(r.ServiceTier)
	if len(r.Choices) == 0 {
		return Message{}, 0, tier, false
	}
	choice := r.Choices[0]
	calls := make([]ToolCall, 0, len(choice.Message.ToolCalls))
	for _, tc := range choice.Message.ToolCalls {
		calls = append(calls, tc.toToolCall())
	}
	return Message{
		Role:      RoleAssistant,
		Content:   contentText(choice.Message.Content),
		ToolCalls: calls,
	}, r.Usage.TotalTokens, tier, true
}
