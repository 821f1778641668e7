// Package mcp adapts an MCP (Model Context Protocol) stdio server into a
// toolregistry.ToolExecutor (spec §4.6 domain stack: "an mcp-go-backed
// adapter"). Tool discovery happens once at construction time, since
// ToolExecutor.CanHandle has no context/error to do it lazily; Execute then
// dispatches by the MCP tool's own name, treated as the kernel's toolType.
//
// Follows the mcp-go client lifecycle (stdio transport, Initialize before
// ListTools/CallTool), simplified to the single stdio transport the
// kernel's domain stack needs.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	mcpclient "github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/oxy-run/oxy/pkg/execctx"
)

// Config identifies and launches one MCP stdio server.
type Config struct {
	Name    string
	Command string
	Args    []string
	Env     map[string]string
}

// Executor is a toolregistry.ToolExecutor backed by one MCP server
// connection, routing by the tool names that server advertised.
type Executor struct {
	cfg    Config
	client *mcpclient.Client
	tools  map[string]mcp.Tool
}

// New connects to the MCP server over stdio, performs the protocol
// handshake, and discovers its tools up front.
func New(ctx context.Context, cfg Config) (*Executor, error) {
	client, err := mcpclient.NewStdioMCPClient(cfg.Command, envSlice(cfg.Env), cfg.Args...)
	if err != nil {
		return nil, fmt.Errorf("mcp: connect %q: %w", cfg.Name, err)
	}

	if _, err := client.Initialize(ctx, mcp.InitializeRequest{}); err != nil {
		return nil, fmt.Errorf("mcp: initialize %q: %w", cfg.Name, err)
	}

	listed, err := client.ListTools(ctx, mcp.ListToolsRequest{})
	if err != nil {
		return nil, fmt.Errorf("mcp: list tools %q: %w", cfg.Name, err)
	}

	tools := make(map[string]mcp.Tool, len(listed.Tools))
	for _, t := range listed.Tools {
		tools[t.Name] = t
	}

	return &Executor{cfg: cfg, client: client, tools: tools}, nil
}

// Name identifies this executor in the toolregistry.
func (e *Executor) Name() string { return e.cfg.Name }

// CanHandle reports whether the connected server advertised toolType.
func (e *Executor) CanHandle(toolType string) bool {
	_, ok := e.tools[toolType]
	return ok
}

// Execute dispatches one call to the MCP server and flattens its result
// into a single text output.
func (e *Executor) Execute(ctx context.Context, _ execctx.ExecutionContext, toolType string, rawInput []byte) (execctx.OutputContainer, error) {
	var args map[string]any
	if len(rawInput) > 0 {
		if err := json.Unmarshal(rawInput, &args); err != nil {
			return execctx.OutputContainer{}, fmt.Errorf("mcp: decode arguments for %q: %w", toolType, err)
		}
	}

	req := mcp.CallToolRequest{}
	req.Params.Name = toolType
	req.Params.Arguments = args

	result, err := e.client.CallTool(ctx, req)
	if err != nil {
		return execctx.OutputContainer{}, fmt.Errorf("mcp: call %q: %w", toolType, err)
	}

	return execctx.SingleOutput(execctx.Output{
		Kind: execctx.OutputText,
		Text: extractText(result),
	}), nil
}

// Close shuts down the underlying MCP connection.
func (e *Executor) Close() error { return e.client.Close() }

func extractText(result *mcp.CallToolResult) string {
	if result == nil {
		return ""
	}
	text := ""
	for _, content := range result.Content {
		if tc, ok := content.(mcp.TextContent); ok {
			text += tc.Text
		}
	}
	return text
}

func envSlice(env map[string]string) []string {
	out := make([]string, 0, len(env))
	for k, v := range env {
		out = append(out, k+"="+v)
	}
	return out
}
