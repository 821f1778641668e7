// Package embedder adapts config.EmbedderConfig into the
// vectorsearch.Embedder contract: an OpenAI-compatible embeddings-endpoint
// client, reusing pkg/httpclient for the same retry/backoff handling
// pkg/llmclient gets for chat completions. Ollama's /v1/embeddings and
// OpenAI's /v1/embeddings share this request/response shape; Cohere's
// differs and gets its own request builder.
package embedder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/oxy-run/oxy/pkg/httpclient"
)

// Client embeds text through an OpenAI- or Cohere-compatible HTTP API.
type Client struct {
	http     *httpclient.Client
	baseURL  string
	apiKey   string
	model    string
	provider string
}

// Config configures a Client. Mirrors the fields of config.EmbedderConfig
// this package's callers resolve from, kept separate so embedder has no
// import-time dependency on pkg/config.
type Config struct {
	Provider string
	Model    string
	APIKey   string
	BaseURL  string

	HTTPOptions []httpclient.Option
}

// New builds a Client from Config.
func New(cfg Config) *Client {
	return &Client{
		http:     httpclient.New(cfg.HTTPOptions...),
		baseURL:  cfg.BaseURL,
		apiKey:   cfg.APIKey,
		model:    cfg.Model,
		provider: cfg.Provider,
	}
}

type openAIEmbedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type openAIEmbedResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
}

type cohereEmbedRequest struct {
	Model     string   `json:"model"`
	Texts     []string `json:"texts"`
	InputType string   `json:"input_type"`
}

type cohereEmbedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

// Embed satisfies pkg/tool/vectorsearch.Embedder.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	var (
		body     []byte
		err      error
		endpoint string
	)

	switch c.provider {
	case "cohere":
		body, err = json.Marshal(cohereEmbedRequest{Model: c.model, Texts: []string{text}, InputType: "search_query"})
		endpoint = c.baseURL + "/v1/embed"
	default: // openai, ollama (both speak the OpenAI embeddings wire shape)
		body, err = json.Marshal(openAIEmbedRequest{Model: c.model, Input: []string{text}})
		endpoint = c.baseURL + "/embeddings"
	}
	if err != nil {
		return nil, fmt.Errorf("embedder: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("embedder: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embedder: %s request: %w", c.provider, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("embedder: read response: %w", err)
	}
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("embedder: %s returned %d: %s", c.provider, resp.StatusCode, raw)
	}

	if c.provider == "cohere" {
		var parsed cohereEmbedResponse
		if err := json.Unmarshal(raw, &parsed); err != nil {
			return nil, fmt.Errorf("embedder: decode cohere response: %w", err)
		}
		if len(parsed.Embeddings) == 0 {
			return nil, fmt.Errorf("embedder: cohere returned no embeddings")
		}
		return parsed.Embeddings[0], nil
	}

	var parsed openAIEmbedResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("embedder: decode response: %w", err)
	}
	if len(parsed.Data) == 0 {
		return nil, fmt.Errorf("embedder: %s returned no embeddings", c.provider)
	}
	return parsed.Data[0].Embedding, nil
}
