package llmclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/oxy-run/oxy/pkg/httpclient"
	"github.com/oxy-run/oxy/pkg/logger"
	"github.com/oxy-run/oxy/pkg/observability"
)

// Config configures a Client. BaseURL must point at an OpenAI-compatible
// chat-completions endpoint (vLLM, Ollama's /v1, OpenRouter, the real
// OpenAI API, ...); no field here is provider-specific.
type Config struct {
	BaseURL string
	APIKey  string
	Model   string

	// MaxIterations bounds the ReAct loop (spec §4.7); zero means 1 (a
	// single LLM call with no tool-dispatch round-trips).
	MaxIterations int

	HTTPOptions []httpclient.Option

	// Log receives client diagnostics such as unrecognized service tiers.
	// It is not passed to httpclient. Defaults to logger.GetLogger().
	Log *slog.Logger
}

// Client is the kernel's OpenAI-compatible client core (spec §4.7).
type Client struct {
	http  *httpclient.Client
	base  string
	key   string
	model string
	maxIt int
	log   *slog.Logger
}

// New builds a Client from Config, reusing httpclient.Client for
// retry/backoff/rate-limit handling.
func New(cfg Config) *Client {
	maxIt := cfg.MaxIterations
	if maxIt <= 0 {
		maxIt = 1
	}
	log := cfg.Log
	if log == nil {
		log = logger.GetLogger()
	}
	return &Client{
		http:  httpclient.New(cfg.HTTPOptions...),
		base:  cfg.BaseURL,
		key:   cfg.APIKey,
		model: cfg.Model,
		maxIt: maxIt,
		log:   log,
	}
}

// ToolCaller dispatches one tool call to its implementation and returns the
// textual result to feed back to the LLM as a tool message.
type ToolCaller interface {
	CallTool(ctx context.Context, name string, args map[string]any) (string, error)
}

// Complete makes a single lenient chat-completions round trip: no tool
// dispatch, no looping. Run builds on top of this for the ReAct loop.
func (c *Client) Complete(ctx context.Context, messages []Message, tools []ToolDefinition) (Message, int, error) {
	return c.completeTraced(ctx, messages, tools, "")
}

// CompleteRequired behaves like Complete but sets tool_choice: "required",
// forcing the provider to return exactly one tool call instead of plain
// text. The agentic FSM driver's Auto transition mode needs this to read
// the LLM's trigger choice off a tool call rather than parsing free text
// (spec §4.5 main loop step 2).
func (c *Client) CompleteRequired(ctx context.Context, messages []Message, tools []ToolDefinition) (Message, int, error) {
	return c.completeTraced(ctx, messages, tools, "required")
}

func (c *Client) completeTraced(ctx context.Context, messages []Message, tools []ToolDefinition, toolChoice string) (Message, int, error) {
	tracer := observability.GetTracer("oxy.llmclient")
	ctx, span := tracer.Start(ctx, observability.SpanLLMRequest,
		trace.WithAttributes(attribute.String(observability.AttrLLMModel, c.model)),
	)
	defer span.End()

	start := time.Now()
	msg, tokens, tier, err := c.complete(ctx, messages, tools, toolChoice)
	duration := time.Since(start)

	metrics := observability.GetGlobalMetrics()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if metrics != nil {
			metrics.RecordLLMCall(ctx, c.model, duration, 0, 0, err)
		}
		return Message{}, 0, err
	}
	if tier == serviceTierOther {
		c.log.Debug("llmclient: unrecognized service_tier in response, treated as default", "model", c.model)
	}
	if metrics != nil {
		metrics.RecordLLMCall(ctx, c.model, duration, tokens, tokens, nil)
	}
	return msg, tokens, nil
}

func (c *Client) complete(ctx context.Context, messages []Message, tools []ToolDefinition, toolChoice string) (Message, int, serviceTier, error) {
	body, err := json.Marshal(toWireRequest(c.model, messages, tools, toolChoice))
	if err != nil {
		return Message{}, 0, serviceTierDefault, fmt.Errorf("llmclient: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return Message{}, 0, serviceTierDefault, fmt.Errorf("llmclient: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.key != "" {
		req.Header.Set("Authorization", "Bearer "+c.key)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return Message{}, 0, serviceTierDefault, fmt.Errorf("llmclient: request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return Message{}, 0, serviceTierDefault, fmt.Errorf("llmclient: read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return Message{}, 0, serviceTierDefault, fmt.Errorf("llmclient: provider returned %d: %s", resp.StatusCode, truncate(string(respBody), 500))
	}

	var wire wireResponse
	if err := json.Unmarshal(respBody, &wire); err != nil {
		return Message{}, 0, serviceTierDefault, fmt.Errorf("llmclient: decode response: %w", err)
	}
	msg, tokens, tier, ok := wire.toMessage()
	if !ok {
		return Message{}, 0, tier, fmt.Errorf("llmclient: response had no choices")
	}
	return msg, tokens, tier, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// Run executes the ReAct loop (spec §4.7): call the LLM, dispatch any tool
// calls it requests through caller, append the results, and repeat until
// the LLM stops requesting tools or MaxIterations is reached. It returns
// the full transcript appended to messages.
func (c *Client) Run(ctx context.Context, messages []Message, tools []ToolDefinition, caller ToolCaller) ([]Message, error) {
	transcript := append([]Message(nil), messages...)

	for i := 0; i < c.maxIt; i++ {
		reply, _, err := c.Complete(ctx, transcript, tools)
		if err != nil {
			return transcript, err
		}
		transcript = append(transcript, reply)

		if len(reply.ToolCalls) == 0 {
			return transcript, nil
		}

		for _, call := range reply.ToolCalls {
			result, err := caller.CallTool(ctx, call.Name, call.Args)
			if err != nil {
				result = fmt.Sprintf("error: %v", err)
			}
			transcript = append(transcript, Message{
				Role:       RoleTool,
				Content:    result,
				ToolCallID: call.ID,
			})
		}
	}

	return transcript, fmt.Errorf("llmclient: exceeded max iterations (%d) without a final answer", c.maxIt)
}
