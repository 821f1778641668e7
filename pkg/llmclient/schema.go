package llmclient

import (
	"encoding/json"

	"github.com/invopop/jsonschema"
)

// schemaReflector is shared across calls: invopop/jsonschema caches nothing
// process-global itself, but building one Reflector per call would re-parse
// struct tags on every tool menu construction for no benefit.
var schemaReflector = &jsonschema.Reflector{
	ExpandedStruct:            true,
	DoNotReference:            true,
	AllowAdditionalProperties: false,
}

// ParametersFor generates a ToolDefinition.Parameters JSON Schema object
// from a Go struct type, the reflection-based equivalent of hand-writing
// the `{"type":"object","properties":{...}}` map literal for every tool
// the FSM driver offers the LLM (spec §4.5, §4.7's tool-definition shape).
func ParametersFor(v any) map[string]any {
	schema := schemaReflector.Reflect(v)
	raw, err := json.Marshal(schema)
	if err != nil {
		return map[string]any{"type": "object"}
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return map[string]any{"type": "object"}
	}
	delete(out, "$schema")
	delete(out, "$id")
	return out
}
