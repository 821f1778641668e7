package config

import "fmt"

// AppConfig describes a data app surface backed by a workflow or agentic
// workflow (spec §6 "list_apps()"): a named, renderable view over a run's
// output rather than a run itself.
type AppConfig struct {
	// Name identifies the app within Config.Apps.
	Name string `yaml:"name,omitempty"`

	// Description documents the app for list_apps() consumers.
	Description string `yaml:"description,omitempty"`

	// Workflow is the declarative pipeline (Config.Workflows) or agentic
	// workflow (Config.AgenticWorkflows) this app renders.
	Workflow string `yaml:"workflow,omitempty"`

	// Layout carries app-specific, backend-opaque rendering hints (panel
	// arrangement, chart types) that the kernel passes through unvalidated.
	Layout map[string]any `yaml:"layout,omitempty"`
}

// SetDefaults applies default values to the app config.
func (c *AppConfig) SetDefaults() {
	if c.Layout == nil {
		c.Layout = make(map[string]any)
	}
}

// Validate checks the app config for errors.
func (c *AppConfig) Validate() error {
	if c.Workflow == "" {
		return fmt.Errorf("workflow is required")
	}
	return nil
}
