package config

import (
	"fmt"
	"path/filepath"
)

// Manager adapts a loaded *Config to execctx.ConfigManager, the kernel's
// narrow read-only view of configuration (spec §3). Everything else in this
// package is Oxy's original config schema and koanf-backed loader,
// reused as-is: the kernel only needed a resolution surface on top of it.
type Manager struct {
	cfg *Config
}

// NewManager wraps a loaded Config as an execctx.ConfigManager.
func NewManager(cfg *Config) *Manager {
	return &Manager{cfg: cfg}
}

// ResolveModel returns the named LLM provider config.
func (m *Manager) ResolveModel(name string) (any, error) {
	llm, ok := m.cfg.GetLLM(name)
	if !ok {
		return nil, fmt.Errorf("config: no llm named %q", name)
	}
	return llm, nil
}

// ResolveDatabase returns the named database config.
func (m *Manager) ResolveDatabase(name string) (any, error) {
	db, ok := m.cfg.GetDatabase(name)
	if !ok {
		return nil, fmt.Errorf("config: no database named %q", name)
	}
	return db, nil
}

// ResolveAgent returns the agent config at path (a flat name: this kernel
// does not nest agent configs in subdirectories the way Oxy's original
// file-tree loader did).
func (m *Manager) ResolveAgent(path string) (any, error) {
	agent, ok := m.cfg.GetAgent(path)
	if !ok {
		return nil, fmt.Errorf("config: no agent named %q", path)
	}
	return agent, nil
}

// ResolveWorkflow returns the named declarative executable-algebra pipeline.
func (m *Manager) ResolveWorkflow(path string) (any, error) {
	wf, ok := m.cfg.Workflows[path]
	if !ok {
		return nil, fmt.Errorf("config: no workflow named %q", path)
	}
	return wf, nil
}

// ResolveAgenticWorkflow returns the named declarative FSM config.
func (m *Manager) ResolveAgenticWorkflow(path string) (any, error) {
	wf, ok := m.cfg.AgenticWorkflows[path]
	if !ok {
		return nil, fmt.Errorf("config: no agentic workflow named %q", path)
	}
	return wf, nil
}

// ResolveFile resolves ref against the config's base directory. Symlinks and
// absolute-path escapes are the caller's responsibility to have sandboxed
// (spec §3's ConfigManager is a pure resolver, not a security boundary).
func (m *Manager) ResolveFile(ref string) (string, error) {
	if filepath.IsAbs(ref) {
		return ref, nil
	}
	return filepath.Join(m.cfg.baseDir(), ref), nil
}

// ResolveGlob expands patterns relative to the config's base directory.
func (m *Manager) ResolveGlob(patterns []string) ([]string, error) {
	var out []string
	for _, p := range patterns {
		if !filepath.IsAbs(p) {
			p = filepath.Join(m.cfg.baseDir(), p)
		}
		matches, err := filepath.Glob(p)
		if err != nil {
			return nil, fmt.Errorf("config: glob %q: %w", p, err)
		}
		out = append(out, matches...)
	}
	return out, nil
}

// ListAgents returns the names of all configured agents.
func (m *Manager) ListAgents() ([]string, error) {
	return m.cfg.ListAgents(), nil
}

// ListWorkflows returns the names of all configured declarative and agentic
// workflows.
func (m *Manager) ListWorkflows() ([]string, error) {
	return m.cfg.ListWorkflows(), nil
}

// ListApps returns the names of all configured data apps.
func (m *Manager) ListApps() ([]string, error) {
	return m.cfg.ListApps(), nil
}

// ProjectPath returns the directory the root config file was loaded from.
func (m *Manager) ProjectPath() string {
	return m.cfg.baseDir()
}

// DefaultModel returns the configured default LLM name, falling back to
// "default" when Defaults.LLM is unset (matching SetDefaults' own
// default-LLM key).
func (m *Manager) DefaultModel() string {
	if m.cfg.Defaults != nil && m.cfg.Defaults.LLM != "" {
		return m.cfg.Defaults.LLM
	}
	return "default"
}

// baseDir returns the directory config files/globs resolve relative to.
// Oxy's loader tracked this via koanf's file provider path; we keep a
// simple field on Config for it rather than re-deriving it per call.
func (c *Config) baseDir() string {
	if c.BaseDir != "" {
		return c.BaseDir
	}
	return "."
}
