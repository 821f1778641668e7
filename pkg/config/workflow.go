package config

import "fmt"

// WorkflowConfig is a declarative executable-algebra pipeline (spec §4.2):
// a named sequence of steps the kernel resolves and runs as a Sequence/
// Parallel/Conditional composite.
type WorkflowConfig struct {
	Name        string           `yaml:"name" json:"name"`
	Description string           `yaml:"description,omitempty" json:"description,omitempty"`
	Steps       []WorkflowStep   `yaml:"steps" json:"steps"`
}

// WorkflowStep names one executable to run and how its result composes with
// its siblings.
type WorkflowStep struct {
	Name      string         `yaml:"name" json:"name"`
	Ref       string         `yaml:"ref" json:"ref"` // agent/tool/workflow reference
	Mode      string         `yaml:"mode,omitempty" json:"mode,omitempty"` // "sequence" (default) | "parallel" | "conditional"
	Condition string         `yaml:"condition,omitempty" json:"condition,omitempty"`
	Input     map[string]any `yaml:"input,omitempty" json:"input,omitempty"`
}

// AgenticWorkflowConfig is a declarative FSM (spec §4.5): a start/end pair,
// the triggers participating, and the transitions between them. This is the
// YAML surface pkg/fsm.AgenticConfig is built from.
type AgenticWorkflowConfig struct {
	Name                 string              `yaml:"name" json:"name"`
	Model                string              `yaml:"model" json:"model"`
	Instruction          string              `yaml:"instruction,omitempty" json:"instruction,omitempty"`
	Start                string              `yaml:"start" json:"start"`
	End                  string              `yaml:"end" json:"end"`
	MaxIterations        int                 `yaml:"max_iterations,omitempty" json:"max_iterations,omitempty"`
	AutoTransitionPrompt string              `yaml:"auto_transition_prompt,omitempty" json:"auto_transition_prompt,omitempty"`
	Transitions          []TransitionConfig  `yaml:"transitions" json:"transitions"`

	// DocumentStore names the Config.DocumentStores entry the workflow's
	// semantic_query trigger searches (spec §4.5 is silent on how a
	// workflow picks a collection; a document store already carries the
	// vector store + embedder + collection name a search needs).
	DocumentStore string `yaml:"document_store,omitempty" json:"document_store,omitempty"`
}

// TransitionConfig is one row of an agentic workflow's transition table.
type TransitionConfig struct {
	Trigger string   `yaml:"trigger" json:"trigger"`
	Next    string   `yaml:"next,omitempty" json:"next,omitempty"`       // set for "always"
	Auto    []string `yaml:"auto,omitempty" json:"auto,omitempty"`       // set for "auto"
	Plan    bool     `yaml:"plan,omitempty" json:"plan,omitempty"`       // set for "plan"
}

func (c *WorkflowConfig) SetDefaults() {}

func (c *WorkflowConfig) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("workflow name is required")
	}
	if len(c.Steps) == 0 {
		return fmt.Errorf("workflow %q: at least one step is required", c.Name)
	}
	return nil
}

func (c *AgenticWorkflowConfig) SetDefaults() {
	if c.MaxIterations == 0 {
		c.MaxIterations = 25
	}
}

func (c *AgenticWorkflowConfig) Validate() error {
	if c.Start == "" || c.End == "" {
		return fmt.Errorf("agentic workflow %q: start and end triggers are required", c.Name)
	}
	return nil
}
