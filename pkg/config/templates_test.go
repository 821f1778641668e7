package config

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oxy-run/oxy/pkg/render"
)

func TestAgentConfigRegisterTemplatesRegistersInstruction(t *testing.T) {
	root := render.New(nil)
	c := &AgentConfig{Name: "assistant", Instruction: "Hello {{.user.name}}"}
	require.NoError(t, c.RegisterTemplates(root))

	r := root.Wrap(map[string]any{"user": map[string]any{"name": "Ada"}})
	out, err := r.Render(context.Background(), "agent.assistant.instruction")
	require.NoError(t, err)
	assert.Equal(t, "Hello Ada", out)
}

func TestWorkflowConfigRegisterTemplatesSkipsNonStringInputs(t *testing.T) {
	root := render.New(nil)
	c := &WorkflowConfig{
		Name: "report",
		Steps: []WorkflowStep{
			{Name: "s1", Ref: "assistant", Input: map[string]any{
				"prompt": "Summarize {{.topic}}",
				"limit":  10,
			}},
		},
	}
	require.NoError(t, c.RegisterTemplates(root))

	r := root.Wrap(map[string]any{"topic": "sales"})
	out, err := r.Render(context.Background(), "workflow.report.step[0].prompt")
	require.NoError(t, err)
	assert.Equal(t, "Summarize sales", out)
}

func TestAgenticWorkflowConfigRegisterTemplatesRegistersPrompts(t *testing.T) {
	root := render.New(nil)
	c := &AgenticWorkflowConfig{
		Name:                 "analyst",
		Instruction:          "You analyze {{.domain}}",
		AutoTransitionPrompt: "Pick the next step for {{.domain}}",
	}
	require.NoError(t, c.RegisterTemplates(root))

	r := root.Wrap(map[string]any{"domain": "finance"})
	out, err := r.Render(context.Background(), "agentic_workflow.analyst.instruction")
	require.NoError(t, err)
	assert.Equal(t, "You analyze finance", out)

	out, err = r.Render(context.Background(), "agentic_workflow.analyst.auto_transition_prompt")
	require.NoError(t, err)
	assert.Equal(t, "Pick the next step for finance", out)
}
