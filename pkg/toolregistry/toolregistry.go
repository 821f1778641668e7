// Package toolregistry implements the kernel's tool registry (spec §4.6):
// a process-global, type-routed list of ToolExecutors. It is deliberately
// narrow — the kernel only needs to route a tool-type string to an
// executor without taking a compile-time
// dependency on whatever package implements it (workflow tasks, agent
// tools, semantic-query tools all register here from outside the kernel).
//
// Invariants (spec §4.6): executor names are unique — duplicate
// registration is a no-op with a logged warning, not an error (this is
// the one place the kernel deliberately diverges from
// pkg/registry.BaseRegistry's error-on-duplicate behavior, because two
// independent subsystems may legitimately both try to register a tool of
// the same name at startup and neither should crash the process for it).
// Empty names are rejected. Lookup is O(n), acceptable since n is small
// and fixed per process.
package toolregistry

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/oxy-run/oxy/pkg/execctx"
)

// ToolExecutor is the kernel's narrow tool contract (spec §4.6).
type ToolExecutor interface {
	CanHandle(toolType string) bool
	Execute(ctx context.Context, ectx execctx.ExecutionContext, toolType string, rawInput []byte) (execctx.OutputContainer, error)
	Name() string
}

// Registry is the process-global executor list.
type Registry struct {
	mu        sync.RWMutex
	executors []ToolExecutor
	names     map[string]struct{}
	log       *slog.Logger
}

// NewRegistry builds an empty Registry. log may be nil.
func NewRegistry(log *slog.Logger) *Registry {
	if log == nil {
		log = slog.Default()
	}
	return &Registry{names: make(map[string]struct{}), log: log}
}

// Register adds executor to the registry. Empty names are rejected;
// re-registering an already-used name is a no-op with a warning, not an
// error (spec §4.6).
func (r *Registry) Register(executor ToolExecutor) error {
	name := executor.Name()
	if name == "" {
		return fmt.Errorf("toolregistry: executor name must not be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.names[name]; exists {
		r.log.Warn("toolregistry: duplicate executor registration ignored", "name", name)
		return nil
	}
	r.names[name] = struct{}{}
	r.executors = append(r.executors, executor)
	return nil
}

// Lookup scans the registered executors for the first CanHandle match
// (spec §4.6: "Lookup is O(n) in the number of registered executors").
func (r *Registry) Lookup(toolType string) (ToolExecutor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, e := range r.executors {
		if e.CanHandle(toolType) {
			return e, true
		}
	}
	return nil, false
}

// Execute looks up an executor for toolType and invokes it, or returns an
// error if none can handle it.
func (r *Registry) Execute(ctx context.Context, ectx execctx.ExecutionContext, toolType string, rawInput []byte) (execctx.OutputContainer, error) {
	executor, ok := r.Lookup(toolType)
	if !ok {
		return execctx.OutputContainer{}, fmt.Errorf("toolregistry: no executor registered for tool type %q", toolType)
	}
	return executor.Execute(ctx, ectx, toolType, rawInput)
}

// Count returns the number of registered executors.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.executors)
}
