// Package render implements the kernel's Renderer (spec §4.4): a
// thread-shareable, layered template environment. Registration acquires a
// write lock, rendering acquires a read lock (spec §5 "Renderer
// environment"), matching the RWMutex-guarded registry idiom already used
// by pkg/registry.BaseRegistry.
//
// Templates are compiled with the standard library's text/template. No
// third-party templating engine (Jinja-like or otherwise) is wired in —
// see DESIGN.md's stdlib justification audit for this package.
package render

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"
	"text/template"

	"github.com/oxy-run/oxy/pkg/execctx"
)

// env is the process-wide registry of compiled templates, shared by a
// Renderer and every Renderer derived from it via Wrap.
type env struct {
	mu        sync.RWMutex
	templates map[string]*template.Template
}

func newEnv() *env {
	return &env{templates: make(map[string]*template.Template)}
}

func (e *env) register(name, body string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, exists := e.templates[name]; exists {
		// registration is idempotent (spec §4.4)
		return nil
	}
	tpl, err := template.New(name).Option("missingkey=zero").Parse(body)
	if err != nil {
		return fmt.Errorf("render: parse template %q: %w", name, err)
	}
	e.templates[name] = tpl
	return nil
}

func (e *env) get(name string) (*template.Template, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	tpl, ok := e.templates[name]
	return tpl, ok
}

// Renderer implements execctx.Renderer. global is the process-wide context
// value; overlay is this frame's extension of it. Child renderers created
// via Wrap share env and global but own a distinct overlay map, so writes
// to a child's overlay never reach its parent (spec §3 invariant 5).
type Renderer struct {
	env     *env
	global  map[string]any
	overlay map[string]any
}

// New creates a root Renderer over a process-wide global context.
func New(global map[string]any) *Renderer {
	return &Renderer{env: newEnv(), global: cloneMap(global), overlay: map[string]any{}}
}

// RegisterTemplate registers body under name. Idempotent.
func (r *Renderer) RegisterTemplate(name, body string) error {
	return r.env.register(name, body)
}

// mergedContext returns global ⨁ overlay (overlay wins on key conflicts).
func (r *Renderer) mergedContext() map[string]any {
	merged := cloneMap(r.global)
	for k, v := range r.overlay {
		merged[k] = v
	}
	return merged
}

// Render resolves a previously-registered template against global ⨁
// current overlay (spec §4.4).
func (r *Renderer) Render(ctx context.Context, name string) (string, error) {
	tpl, ok := r.env.get(name)
	if !ok {
		return "", fmt.Errorf("render: template %q is not registered", name)
	}
	var buf bytes.Buffer
	if err := tpl.Execute(&buf, r.mergedContext()); err != nil {
		return "", fmt.Errorf("render: execute %q: %w", name, err)
	}
	return buf.String(), nil
}

// RenderOnce bypasses the overlay and renders with vars verbatim,
// registering the template body inline under its own content as the name
// if it has not been seen before (spec §4.4).
func (r *Renderer) RenderOnce(ctx context.Context, body string, vars map[string]any) (string, error) {
	name := "inline:" + body
	if err := r.env.register(name, body); err != nil {
		return "", err
	}
	tpl, _ := r.env.get(name)
	var buf bytes.Buffer
	if err := tpl.Execute(&buf, vars); err != nil {
		return "", fmt.Errorf("render: execute inline template: %w", err)
	}
	return buf.String(), nil
}

// Wrap returns a child Renderer whose overlay is parent_overlay ⨁ vars
// (spec §4.4, invariant 5). The child shares env and global with r but owns
// a fresh overlay map, so it can never mutate r's overlay. The return type
// is execctx.Renderer so *Renderer satisfies that interface's Wrap method.
func (r *Renderer) Wrap(vars map[string]any) execctx.Renderer {
	child := &Renderer{env: r.env, global: r.global, overlay: cloneMap(r.overlay)}
	for k, v := range vars {
		child.overlay[k] = v
	}
	return child
}

func cloneMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// EvalExpression resolves a dotted "{{x.y}}"-style path against the merged
// context and returns the typed leaf value (spec §4.4 "Expressions").
func (r *Renderer) EvalExpression(ctx context.Context, expr string) (any, error) {
	path := strings.TrimSuffix(strings.TrimPrefix(strings.TrimSpace(expr), "{{"), "}}")
	path = strings.TrimSpace(path)
	return lookupPath(r.mergedContext(), path)
}

// EvalEnumerate resolves expr and requires the result to be a finite
// sequence, returning its elements (spec §4.4, used by loop tasks).
func (r *Renderer) EvalEnumerate(ctx context.Context, expr string) ([]any, error) {
	v, err := r.EvalExpression(ctx, expr)
	if err != nil {
		return nil, err
	}
	switch seq := v.(type) {
	case []any:
		return seq, nil
	case []string:
		out := make([]any, len(seq))
		for i, s := range seq {
			out[i] = s
		}
		return out, nil
	default:
		return nil, fmt.Errorf("render: expression %q did not resolve to a sequence", expr)
	}
}

func lookupPath(ctx map[string]any, path string) (any, error) {
	if path == "" {
		return nil, fmt.Errorf("render: empty expression")
	}
	parts := strings.Split(path, ".")
	var cur any = ctx
	for _, part := range parts {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("render: %q is not addressable at %q", path, part)
		}
		v, ok := m[part]
		if !ok {
			return nil, fmt.Errorf("render: %q has no field %q", path, part)
		}
		cur = v
	}
	return cur, nil
}

// TemplateRegister may be implemented by any configuration type so the
// launcher can walk the config once to register every template string,
// surfacing parse errors before execution (spec §4.4).
type TemplateRegister interface {
	RegisterTemplates(r *Renderer) error
}
