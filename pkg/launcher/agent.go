package launcher

import (
	"context"
	"fmt"

	"github.com/oxy-run/oxy/pkg/config"
	"github.com/oxy-run/oxy/pkg/execctx"
	"github.com/oxy-run/oxy/pkg/llmclient"
)

// RunAgent resolves name through config.Manager and runs one ReAct loop
// over the agent's resolved LLM, advertising every tool the config lists
// (spec §4.7 "Run"; agent.Tools is the config surface that loop dispatches
// through).
func (l *Launcher) RunAgent(ctx context.Context, ectx execctx.ExecutionContext, name, input string) (string, error) {
	resolved, err := l.manager.ResolveAgent(name)
	if err != nil {
		return "", fmt.Errorf("launcher: resolve agent %q: %w", name, err)
	}
	agentCfg, ok := resolved.(*config.AgentConfig)
	if !ok {
		return "", fmt.Errorf("launcher: agent %q resolved to unexpected type %T", name, resolved)
	}

	llmName := agentCfg.LLM
	if llmName == "" && l.cfg.Defaults != nil {
		llmName = l.cfg.Defaults.LLM
	}
	llm, err := l.LLM(llmName)
	if err != nil {
		return "", fmt.Errorf("launcher: agent %q: %w", name, err)
	}

	messages := []llmclient.Message{{Role: llmclient.RoleUser, Content: input}}
	if agentCfg.Instruction != "" {
		messages = append([]llmclient.Message{{Role: llmclient.RoleSystem, Content: agentCfg.Instruction}}, messages...)
	}

	tools := l.toolDefinitions(agentCfg.Tools)
	caller := llmclient.RegistryToolCaller{Registry: l.tools, Context: ectx}

	transcript, err := llm.Run(ctx, messages, tools, caller)
	if err != nil {
		return "", fmt.Errorf("launcher: agent %q: %w", name, err)
	}
	if len(transcript) == 0 {
		return "", nil
	}
	return transcript[len(transcript)-1].Content, nil
}

// toolDefinitions builds a llmclient.ToolDefinition per name the registry
// actually has an executor for, skipping names with no match rather than
// failing the whole agent run (an agent config may list tools that were
// never wired for this deployment, e.g. an optional MCP server).
func (l *Launcher) toolDefinitions(names []string) []llmclient.ToolDefinition {
	defs := make([]llmclient.ToolDefinition, 0, len(names))
	for _, name := range names {
		if _, ok := l.tools.Lookup(name); !ok {
			continue
		}
		defs = append(defs, llmclient.ToolDefinition{
			Name:       name,
			Parameters: map[string]any{"type": "object"},
		})
	}
	return llmclient.DeduplicateTools(defs)
}
