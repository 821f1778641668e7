package config

import (
	"fmt"

	"github.com/oxy-run/oxy/pkg/render"
)

// RegisterTemplates implements render.TemplateRegister for AgentConfig
// (spec §4.4): its Instruction is the template body agents render per turn.
func (c *AgentConfig) RegisterTemplates(r *render.Renderer) error {
	if c.Instruction != "" {
		if err := r.RegisterTemplate(fmt.Sprintf("agent.%s.instruction", c.Name), c.Instruction); err != nil {
			return fmt.Errorf("config: register agent %q instruction template: %w", c.Name, err)
		}
	}
	if c.GlobalInstruction != "" {
		if err := r.RegisterTemplate(fmt.Sprintf("agent.%s.global_instruction", c.Name), c.GlobalInstruction); err != nil {
			return fmt.Errorf("config: register agent %q global_instruction template: %w", c.Name, err)
		}
	}
	return nil
}

// RegisterTemplates implements render.TemplateRegister for WorkflowConfig:
// each step's Input values that are template strings get registered under a
// name the step can look up by index.
func (c *WorkflowConfig) RegisterTemplates(r *render.Renderer) error {
	for i, step := range c.Steps {
		for key, val := range step.Input {
			s, ok := val.(string)
			if !ok || s == "" {
				continue
			}
			name := fmt.Sprintf("workflow.%s.step[%d].%s", c.Name, i, key)
			if err := r.RegisterTemplate(name, s); err != nil {
				return fmt.Errorf("config: register workflow %q step %d input %q template: %w", c.Name, i, key, err)
			}
		}
	}
	return nil
}

// RegisterTemplates implements render.TemplateRegister for
// AgenticWorkflowConfig: its Instruction and AutoTransitionPrompt are the
// templates the FSM driver renders at the start trigger and at each Auto
// transition respectively.
func (c *AgenticWorkflowConfig) RegisterTemplates(r *render.Renderer) error {
	if c.Instruction != "" {
		if err := r.RegisterTemplate(fmt.Sprintf("agentic_workflow.%s.instruction", c.Name), c.Instruction); err != nil {
			return fmt.Errorf("config: register agentic workflow %q instruction template: %w", c.Name, err)
		}
	}
	if c.AutoTransitionPrompt != "" {
		if err := r.RegisterTemplate(fmt.Sprintf("agentic_workflow.%s.auto_transition_prompt", c.Name), c.AutoTransitionPrompt); err != nil {
			return fmt.Errorf("config: register agentic workflow %q auto_transition_prompt template: %w", c.Name, err)
		}
	}
	return nil
}
