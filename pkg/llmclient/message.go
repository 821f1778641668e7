// Package llmclient implements the kernel's OpenAI-compatible client core
// (spec §4.7): a lenient response parser and a minimal tool-calling ReAct
// loop, decoupled from any specific provider's strict schema. The
// HTTP/tracing idiom follows httpclient.Client, simplified to the
// broadly-compatible chat-completions shape so any OpenAI-compatible
// endpoint (vLLM, Ollama, OpenRouter, ...) can serve
// as a backend.
package llmclient

import "strconv"

// Role identifies the speaker of a Message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// ToolCall is the canonical tool-call representation the kernel works
// with, regardless of how lenient the wire format we parsed it from was.
type ToolCall struct {
	ID   string
	Name string
	Args map[string]any
}

// Message is one turn in a conversation sent to or received from the LLM.
type Message struct {
	Role       Role
	Content    string
	ToolCalls  []ToolCall
	ToolCallID string // set on RoleTool messages: which call this answers
}

// ToolDefinition describes a callable tool to advertise to the LLM.
type ToolDefinition struct {
	Name        string
	Description string
	Parameters  map[string]any // JSON Schema
}

// DeduplicateTools renames duplicate tool names by appending _1, _2, ...
// suffixes; the first occurrence of a name keeps it unchanged (spec §4.7:
// "some providers reject duplicate function names"). Idempotent on an
// already-unique set (spec §8 property 6).
func DeduplicateTools(tools []ToolDefinition) []ToolDefinition {
	seen := make(map[string]int, len(tools))
	out := make([]ToolDefinition, len(tools))
	for i, t := range tools {
		name := t.Name
		count := seen[name]
		seen[name] = count + 1
		if count > 0 {
			for {
				candidate := name + "_" + strconv.Itoa(count)
				if _, exists := seen[candidate]; !exists {
					name = candidate
					seen[candidate] = 1
					break
				}
				count++
			}
		}
		out[i] = t
		out[i].Name = name
	}
	return out
}
