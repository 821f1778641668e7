package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testManagerConfig() *Config {
	return &Config{
		BaseDir: "/configs",
		LLMs:    map[string]*LLMConfig{"default": {Provider: LLMProviderAnthropic, Model: "m"}},
		Databases: map[string]*DatabaseConfig{"main": {Driver: "postgres"}},
		Agents:  map[string]*AgentConfig{"assistant": {LLM: "default"}},
		Workflows: map[string]*WorkflowConfig{
			"report": {Name: "report", Steps: []WorkflowStep{{Name: "s1", Ref: "assistant"}}},
		},
		AgenticWorkflows: map[string]*AgenticWorkflowConfig{
			"analyst": {Name: "analyst", Start: "start", End: "end"},
		},
	}
}

func TestManagerResolveModel(t *testing.T) {
	m := NewManager(testManagerConfig())
	got, err := m.ResolveModel("default")
	require.NoError(t, err)
	assert.Equal(t, "m", got.(*LLMConfig).Model)

	_, err = m.ResolveModel("missing")
	assert.Error(t, err)
}

func TestManagerResolveDatabase(t *testing.T) {
	m := NewManager(testManagerConfig())
	got, err := m.ResolveDatabase("main")
	require.NoError(t, err)
	assert.Equal(t, "postgres", got.(*DatabaseConfig).Driver)

	_, err = m.ResolveDatabase("missing")
	assert.Error(t, err)
}

func TestManagerResolveAgent(t *testing.T) {
	m := NewManager(testManagerConfig())
	got, err := m.ResolveAgent("assistant")
	require.NoError(t, err)
	assert.Equal(t, "default", got.(*AgentConfig).LLM)

	_, err = m.ResolveAgent("missing")
	assert.Error(t, err)
}

func TestManagerResolveWorkflowAndAgenticWorkflow(t *testing.T) {
	m := NewManager(testManagerConfig())

	wf, err := m.ResolveWorkflow("report")
	require.NoError(t, err)
	assert.Equal(t, "report", wf.(*WorkflowConfig).Name)

	agentic, err := m.ResolveAgenticWorkflow("analyst")
	require.NoError(t, err)
	assert.Equal(t, "start", agentic.(*AgenticWorkflowConfig).Start)

	_, err = m.ResolveWorkflow("missing")
	assert.Error(t, err)
	_, err = m.ResolveAgenticWorkflow("missing")
	assert.Error(t, err)
}

func TestManagerResolveFileJoinsBaseDir(t *testing.T) {
	m := NewManager(testManagerConfig())
	got, err := m.ResolveFile("agents/assistant.yaml")
	require.NoError(t, err)
	assert.Equal(t, "/configs/agents/assistant.yaml", got)

	got, err = m.ResolveFile("/abs/path.yaml")
	require.NoError(t, err)
	assert.Equal(t, "/abs/path.yaml", got)
}

func TestManagerListAgents(t *testing.T) {
	m := NewManager(testManagerConfig())
	names, err := m.ListAgents()
	require.NoError(t, err)
	assert.Equal(t, []string{"assistant"}, names)
}

func TestManagerListWorkflows(t *testing.T) {
	m := NewManager(testManagerConfig())
	names, err := m.ListWorkflows()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"report", "analyst"}, names)
}

func TestManagerListApps(t *testing.T) {
	cfg := testManagerConfig()
	cfg.Apps = map[string]*AppConfig{"dash": {Name: "dash", Workflow: "report"}}
	m := NewManager(cfg)
	names, err := m.ListApps()
	require.NoError(t, err)
	assert.Equal(t, []string{"dash"}, names)
}

func TestManagerProjectPath(t *testing.T) {
	m := NewManager(testManagerConfig())
	assert.Equal(t, "/configs", m.ProjectPath())

	m2 := NewManager(&Config{})
	assert.Equal(t, ".", m2.ProjectPath())
}

func TestManagerDefaultModel(t *testing.T) {
	m := NewManager(testManagerConfig())
	assert.Equal(t, "default", m.DefaultModel())

	cfg := testManagerConfig()
	cfg.Defaults = &DefaultsConfig{LLM: "fast"}
	m2 := NewManager(cfg)
	assert.Equal(t, "fast", m2.DefaultModel())
}

func TestAgenticWorkflowConfigDefaultsMaxIterations(t *testing.T) {
	cfg := &AgenticWorkflowConfig{Name: "a", Start: "s", End: "e"}
	cfg.SetDefaults()
	assert.Equal(t, 25, cfg.MaxIterations)
}

func TestWorkflowConfigValidateRequiresSteps(t *testing.T) {
	cfg := &WorkflowConfig{Name: "empty"}
	assert.Error(t, cfg.Validate())
}
