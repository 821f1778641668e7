package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppConfigSetDefaultsInitializesLayout(t *testing.T) {
	c := &AppConfig{}
	c.SetDefaults()
	assert.NotNil(t, c.Layout)
}

func TestAppConfigValidateRequiresWorkflow(t *testing.T) {
	c := &AppConfig{Name: "dash"}
	assert.Error(t, c.Validate())

	c.Workflow = "report"
	assert.NoError(t, c.Validate())
}

func TestConfigValidateRejectsAppWithUndefinedWorkflow(t *testing.T) {
	cfg := &Config{
		LLMs:   map[string]*LLMConfig{"default": {Provider: LLMProviderAnthropic, Model: "m"}},
		Agents: map[string]*AgentConfig{"assistant": {LLM: "default"}},
		Apps:   map[string]*AppConfig{"dash": {Name: "dash", Workflow: "missing"}},
	}
	err := cfg.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), `app "dash" references undefined workflow "missing"`)
}
