// Package vectorsearch adapts a pkg/vector.Provider (backed by chromem-go,
// Qdrant, Chroma, or Weaviate) into a toolregistry.ToolExecutor, so a
// semantic_query trigger (spec §4.5) or a tool call from pkg/llmclient
// (spec §4.7) can run similarity search the same way any other tool runs.
//
// Shaped as a single-purpose search ToolExecutor, built on
// pkg/vector.Provider for the embedded-store/remote-store abstraction.
package vectorsearch

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/oxy-run/oxy/pkg/execctx"
	"github.com/oxy-run/oxy/pkg/vector"
)

// Embedder turns query text into the vector space a Provider's collections
// were populated in. It is injected rather than constructed here, since
// embedding-model choice is a deployment concern, not a tool concern.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Request is the expected JSON shape of a semantic-search tool call.
type Request struct {
	Collection string         `json:"collection"`
	Query      string         `json:"query"`
	TopK       int            `json:"top_k"`
	Filter     map[string]any `json:"filter,omitempty"`
}

const defaultTopK = 5

// Executor is the toolregistry.ToolExecutor for one named vector-search
// tool type, e.g. "semantic_query".
type Executor struct {
	ToolType string
	Provider vector.Provider
	Embedder Embedder
}

// New builds a vectorsearch.Executor for the given tool type.
func New(toolType string, provider vector.Provider, embedder Embedder) *Executor {
	return &Executor{ToolType: toolType, Provider: provider, Embedder: embedder}
}

// Name identifies this executor in the toolregistry.
func (e *Executor) Name() string { return "vectorsearch:" + e.ToolType }

// CanHandle matches only the configured tool type.
func (e *Executor) CanHandle(toolType string) bool { return toolType == e.ToolType }

// Execute embeds the query and runs a similarity search, returning each
// match as a text output so the LLM can read scores and content inline.
func (e *Executor) Execute(ctx context.Context, _ execctx.ExecutionContext, toolType string, rawInput []byte) (execctx.OutputContainer, error) {
	var req Request
	if err := json.Unmarshal(rawInput, &req); err != nil {
		return execctx.OutputContainer{}, fmt.Errorf("vectorsearch: decode request: %w", err)
	}
	if req.Collection == "" {
		return execctx.OutputContainer{}, fmt.Errorf("vectorsearch: collection is required")
	}
	if req.TopK <= 0 {
		req.TopK = defaultTopK
	}

	vec, err := e.Embedder.Embed(ctx, req.Query)
	if err != nil {
		return execctx.OutputContainer{}, fmt.Errorf("vectorsearch: embed query: %w", err)
	}

	var results []vector.Result
	if len(req.Filter) > 0 {
		results, err = e.Provider.SearchWithFilter(ctx, req.Collection, vec, req.TopK, req.Filter)
	} else {
		results, err = e.Provider.Search(ctx, req.Collection, vec, req.TopK)
	}
	if err != nil {
		return execctx.OutputContainer{}, fmt.Errorf("vectorsearch: search %q: %w", req.Collection, err)
	}

	outputs := make([]execctx.Output, 0, len(results))
	for _, r := range results {
		outputs = append(outputs, execctx.Output{
			Kind: execctx.OutputText,
			Text: fmt.Sprintf("[%.4f] %s", r.Score, r.Content),
		})
	}
	return execctx.ListOutput(outputs...), nil
}
