// Copyright 2025 Kadir Pekel
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config provides configuration loading and management for Oxy v2.
//
// Oxy is config-first: agents, tools, and LLMs are defined in YAML and
// the runtime builds them automatically.
//
// Example config:
//
//	version: "2"
//	name: my-assistant
//
//	llms:
//	  default:
//	    provider: anthropic
//	    model: claude-sonnet-4-20250514
//	    api_key: ${ANTHROPIC_API_KEY}
//
//	tools:
//	  weather:
//	    type: mcp
//	    url: ${MCP_URL}
//
//	agents:
//	  assistant:
//	    llm: default
//	    tools: [weather]
//	    instruction: You are a helpful assistant.
package config

import (
	"fmt"
	"strings"
)

// Config is the root configuration structure.
type Config struct {
	// Version of the config schema (e.g., "2").
	Version string `yaml:"version,omitempty"`

	// Name of this configuration (for logging/display).
	Name string `yaml:"name,omitempty"`

	// Description of this configuration.
	Description string `yaml:"description,omitempty"`

	// Databases defines available database connections.
	// These can be referenced by other components (e.g., a document store's SQL source).
	Databases map[string]*DatabaseConfig `yaml:"databases,omitempty"`

	// VectorStores defines available vector database providers.
	// These can be referenced by memory, RAG, and document stores.
	VectorStores map[string]*VectorStoreConfig `yaml:"vector_stores,omitempty"`

	// LLMs defines available LLM providers.
	LLMs map[string]*LLMConfig `yaml:"llms,omitempty"`

	// Embedders defines available embedding providers for semantic search.
	Embedders map[string]*EmbedderConfig `yaml:"embedders,omitempty"`

	// Tools defines available tools.
	Tools map[string]*ToolConfig `yaml:"tools,omitempty"`

	// Agents defines available agents.
	Agents map[string]*AgentConfig `yaml:"agents,omitempty"`

	// DocumentStores defines available document stores for RAG.
	DocumentStores map[string]*DocumentStoreConfig `yaml:"document_stores,omitempty"`

	// Logger configures logging behavior.
	Logger *LoggerConfig `yaml:"logger,omitempty"`

	// Defaults provides default values for agents.
	Defaults *DefaultsConfig `yaml:"defaults,omitempty"`

	// Workflows defines declarative executable-algebra pipelines (spec §4.2).
	Workflows map[string]*WorkflowConfig `yaml:"workflows,omitempty"`

	// AgenticWorkflows defines declarative FSM driver configs (spec §4.5).
	AgenticWorkflows map[string]*AgenticWorkflowConfig `yaml:"agentic_workflows,omitempty"`

	// Apps defines named data-app surfaces over a Workflow/AgenticWorkflow
	// (spec §6 "list_apps()").
	Apps map[string]*AppConfig `yaml:"apps,omitempty"`

	// BaseDir is the directory ResolveFile/ResolveGlob resolve relative
	// paths against. Set by the loader to the directory the root config
	// file was read from; not itself part of the YAML schema.
	BaseDir string `yaml:"-" json:"-"`
}

// DefaultsConfig provides default values for agent configurations.
type DefaultsConfig struct {
	// LLM is the default LLM reference for agents.
	LLM string `yaml:"llm,omitempty"`
}

// SetDefaults applies default values to the config.
func (c *Config) SetDefaults() {
	// Initialize maps if nil
	if c.Databases == nil {
		c.Databases = make(map[string]*DatabaseConfig)
	}
	if c.VectorStores == nil {
		c.VectorStores = make(map[string]*VectorStoreConfig)
	}
	if c.LLMs == nil {
		c.LLMs = make(map[string]*LLMConfig)
	}
	if c.Embedders == nil {
		c.Embedders = make(map[string]*EmbedderConfig)
	}
	if c.Tools == nil {
		c.Tools = make(map[string]*ToolConfig)
	}
	if c.Agents == nil {
		c.Agents = make(map[string]*AgentConfig)
	}
	if c.DocumentStores == nil {
		c.DocumentStores = make(map[string]*DocumentStoreConfig)
	}
	if c.Apps == nil {
		c.Apps = make(map[string]*AppConfig)
	}

	// Create default LLM if none defined
	if len(c.LLMs) == 0 {
		c.LLMs["default"] = &LLMConfig{}
	}

	// Create default agent if none defined
	if len(c.Agents) == 0 {
		c.Agents["assistant"] = &AgentConfig{}
	}

	// Apply defaults to databases
	for name, db := range c.Databases {
		if db != nil {
			db.SetDefaults()
		} else {
			c.Databases[name] = &DatabaseConfig{}
			c.Databases[name].SetDefaults()
		}
	}

	// Apply defaults to vector stores
	for name, vs := range c.VectorStores {
		if vs != nil {
			vs.SetDefaults()
		} else {
			c.VectorStores[name] = &VectorStoreConfig{}
			c.VectorStores[name].SetDefaults()
		}
	}

	// Apply defaults to document stores
	for name, ds := range c.DocumentStores {
		if ds != nil {
			ds.SetDefaults()
		} else {
			c.DocumentStores[name] = &DocumentStoreConfig{}
			c.DocumentStores[name].SetDefaults()
		}
	}

	// Apply defaults to each component
	for name, llm := range c.LLMs {
		if llm != nil {
			llm.SetDefaults()
		} else {
			c.LLMs[name] = &LLMConfig{}
			c.LLMs[name].SetDefaults()
		}
	}

	for name, tool := range c.Tools {
		if tool != nil {
			tool.SetDefaults()
		} else {
			c.Tools[name] = &ToolConfig{}
			c.Tools[name].SetDefaults()
		}
	}

	for name, emb := range c.Embedders {
		if emb != nil {
			emb.SetDefaults()
		} else {
			c.Embedders[name] = &EmbedderConfig{}
			c.Embedders[name].SetDefaults()
		}
	}

	for name, agent := range c.Agents {
		if agent != nil {
			if agent.Name == "" {
				agent.Name = name
			}
			agent.SetDefaults(c.Defaults)
		} else {
			c.Agents[name] = &AgentConfig{Name: name}
			c.Agents[name].SetDefaults(c.Defaults)
		}
	}

	for name, app := range c.Apps {
		if app != nil {
			if app.Name == "" {
				app.Name = name
			}
			app.SetDefaults()
		} else {
			c.Apps[name] = &AppConfig{Name: name}
			c.Apps[name].SetDefaults()
		}
	}

	for name, wf := range c.Workflows {
		if wf == nil {
			continue
		}
		if wf.Name == "" {
			wf.Name = name
		}
		wf.SetDefaults()
	}

	for name, wf := range c.AgenticWorkflows {
		if wf == nil {
			continue
		}
		if wf.Name == "" {
			wf.Name = name
		}
		wf.SetDefaults()
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []string

	// Validate Databases
	for name, db := range c.Databases {
		if db == nil {
			continue
		}
		if err := db.Validate(); err != nil {
			errs = append(errs, fmt.Sprintf("database %q: %v", name, err))
		}
	}

	// Validate VectorStores
	for name, vs := range c.VectorStores {
		if vs == nil {
			continue
		}
		if err := vs.Validate(); err != nil {
			errs = append(errs, fmt.Sprintf("vector_store %q: %v", name, err))
		}
	}

	// Validate LLMs
	for name, llm := range c.LLMs {
		if llm == nil {
			continue
		}
		if err := llm.Validate(); err != nil {
			errs = append(errs, fmt.Sprintf("llm %q: %v", name, err))
		}
	}

	// Validate Tools
	for name, tool := range c.Tools {
		if tool == nil {
			continue
		}
		if err := tool.Validate(); err != nil {
			errs = append(errs, fmt.Sprintf("tool %q: %v", name, err))
		}
	}

	// Validate Embedders
	for name, emb := range c.Embedders {
		if emb == nil {
			continue
		}
		if err := emb.Validate(); err != nil {
			errs = append(errs, fmt.Sprintf("embedder %q: %v", name, err))
		}
	}

	// Validate Agents
	for name, agent := range c.Agents {
		if agent == nil {
			continue
		}
		if err := agent.Validate(); err != nil {
			errs = append(errs, fmt.Sprintf("agent %q: %v", name, err))
		}
	}

	// Validate DocumentStores
	for name, ds := range c.DocumentStores {
		if ds == nil {
			continue
		}
		if err := ds.Validate(); err != nil {
			errs = append(errs, fmt.Sprintf("document_store %q: %v", name, err))
		}
	}

	// Validate Logger
	if c.Logger != nil {
		if err := c.Logger.Validate(); err != nil {
			errs = append(errs, fmt.Sprintf("logger: %v", err))
		}
	}

	// Validate Apps
	for name, app := range c.Apps {
		if app == nil {
			continue
		}
		if err := app.Validate(); err != nil {
			errs = append(errs, fmt.Sprintf("app %q: %v", name, err))
		}
	}

	// Validate Workflows
	for name, wf := range c.Workflows {
		if wf == nil {
			continue
		}
		if err := wf.Validate(); err != nil {
			errs = append(errs, fmt.Sprintf("workflow %q: %v", name, err))
		}
	}

	// Validate AgenticWorkflows
	for name, wf := range c.AgenticWorkflows {
		if wf == nil {
			continue
		}
		if err := wf.Validate(); err != nil {
			errs = append(errs, fmt.Sprintf("agentic_workflow %q: %v", name, err))
		}
	}

	// Validate references
	if err := c.validateReferences(); err != nil {
		errs = append(errs, err.Error())
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

// validateReferences checks that all references are valid.
func (c *Config) validateReferences() error {
	var errs []string

	for agentName, agent := range c.Agents {
		if agent == nil {
			continue
		}

		// Check LLM reference
		if agent.LLM != "" {
			if _, ok := c.LLMs[agent.LLM]; !ok {
				errs = append(errs, fmt.Sprintf("agent %q references undefined llm %q", agentName, agent.LLM))
			}
		}

		// Check tool references
		for _, toolName := range agent.Tools {
			if _, ok := c.Tools[toolName]; !ok {
				errs = append(errs, fmt.Sprintf("agent %q references undefined tool %q", agentName, toolName))
			}
		}

		// Check document store references
		if agent.DocumentStores != nil {
			for _, storeName := range *agent.DocumentStores {
				if _, ok := c.DocumentStores[storeName]; !ok {
					errs = append(errs, fmt.Sprintf("agent %q references undefined document_store %q", agentName, storeName))
				}
			}
		}
	}

	// Check document store references
	for storeName, store := range c.DocumentStores {
		if store == nil {
			continue
		}

		// Check vector_store reference
		if store.VectorStore != "" {
			if _, ok := c.VectorStores[store.VectorStore]; !ok {
				errs = append(errs, fmt.Sprintf("document_store %q references undefined vector_store %q", storeName, store.VectorStore))
			}
		}

		// Check embedder reference
		if store.Embedder != "" {
			if _, ok := c.Embedders[store.Embedder]; !ok {
				errs = append(errs, fmt.Sprintf("document_store %q references undefined embedder %q", storeName, store.Embedder))
			}
		}

		// Check SQL database reference
		if store.Source != nil && store.Source.SQL != nil && store.Source.SQL.Database != "" {
			if _, ok := c.Databases[store.Source.SQL.Database]; !ok {
				errs = append(errs, fmt.Sprintf("document_store %q references undefined database %q", storeName, store.Source.SQL.Database))
			}
		}

		// Check search LLM references
		if store.Search != nil {
			if store.Search.HyDELLM != "" {
				if _, ok := c.LLMs[store.Search.HyDELLM]; !ok {
					errs = append(errs, fmt.Sprintf("document_store %q references undefined llm %q for HyDE", storeName, store.Search.HyDELLM))
				}
			}
			if store.Search.RerankLLM != "" {
				if _, ok := c.LLMs[store.Search.RerankLLM]; !ok {
					errs = append(errs, fmt.Sprintf("document_store %q references undefined llm %q for reranking", storeName, store.Search.RerankLLM))
				}
			}
			if store.Search.MultiQueryLLM != "" {
				if _, ok := c.LLMs[store.Search.MultiQueryLLM]; !ok {
					errs = append(errs, fmt.Sprintf("document_store %q references undefined llm %q for multi-query", storeName, store.Search.MultiQueryLLM))
				}
			}
		}
	}

	// Check app workflow references
	for appName, app := range c.Apps {
		if app == nil || app.Workflow == "" {
			continue
		}
		_, isWorkflow := c.Workflows[app.Workflow]
		_, isAgentic := c.AgenticWorkflows[app.Workflow]
		if !isWorkflow && !isAgentic {
			errs = append(errs, fmt.Sprintf("app %q references undefined workflow %q", appName, app.Workflow))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("reference errors:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

// GetAgent returns the agent config by name.
func (c *Config) GetAgent(name string) (*AgentConfig, bool) {
	agent, ok := c.Agents[name]
	return agent, ok
}

// GetLLM returns the LLM config by name.
func (c *Config) GetLLM(name string) (*LLMConfig, bool) {
	llm, ok := c.LLMs[name]
	return llm, ok
}

// GetTool returns the tool config by name.
func (c *Config) GetTool(name string) (*ToolConfig, bool) {
	tool, ok := c.Tools[name]
	return tool, ok
}

// ListAgents returns the names of all configured agents.
func (c *Config) ListAgents() []string {
	names := make([]string, 0, len(c.Agents))
	for name := range c.Agents {
		names = append(names, name)
	}
	return names
}

// GetDatabase returns the database config by name.
func (c *Config) GetDatabase(name string) (*DatabaseConfig, bool) {
	db, ok := c.Databases[name]
	return db, ok
}

// ListWorkflows returns the names of all configured declarative workflows
// and agentic workflows.
func (c *Config) ListWorkflows() []string {
	names := make([]string, 0, len(c.Workflows)+len(c.AgenticWorkflows))
	for name := range c.Workflows {
		names = append(names, name)
	}
	for name := range c.AgenticWorkflows {
		names = append(names, name)
	}
	return names
}

// ListApps returns the names of all configured data apps.
func (c *Config) ListApps() []string {
	names := make([]string, 0, len(c.Apps))
	for name := range c.Apps {
		names = append(names, name)
	}
	return names
}
