// Package execctx defines the kernel's ExecutionContext (spec §3, §4.1) and
// the narrow interfaces it threads through every execution frame: Renderer,
// ConfigManager, SecretsManager, CheckpointContext. Concrete implementations
// live in pkg/render, pkg/config, and pkg/checkpoint respectively; execctx
// depends on none of them, so those packages depend on execctx instead of
// the other way around.
package execctx

import "context"

// Renderer is the template-rendering contract an ExecutionContext carries
// (spec §4.4). Implemented by pkg/render.Renderer.
type Renderer interface {
	Render(ctx context.Context, template string) (string, error)
	RenderOnce(ctx context.Context, template string, vars map[string]any) (string, error)
	Wrap(vars map[string]any) Renderer
	EvalExpression(ctx context.Context, expr string) (any, error)
	EvalEnumerate(ctx context.Context, expr string) ([]any, error)
	RegisterTemplate(name, template string) error
}

// ConfigManager is the kernel's typed view over workflow/agent/database/model
// resolution (spec §6).
type ConfigManager interface {
	ResolveModel(name string) (any, error)
	ResolveDatabase(name string) (any, error)
	ResolveAgent(path string) (any, error)
	ResolveWorkflow(path string) (any, error)
	ResolveAgenticWorkflow(path string) (any, error)
	ResolveFile(ref string) (string, error)
	ResolveGlob(patterns []string) ([]string, error)
	ListAgents() ([]string, error)
	ListWorkflows() ([]string, error)
	ListApps() ([]string, error)
	ProjectPath() string
	DefaultModel() string
}

// SecretsManager resolves secret variables for model/database adapters
// (spec §6).
type SecretsManager interface {
	Resolve(varName string) (string, bool)
}

// CheckpointContext is the scoped journal handle an ExecutionContext may
// carry (spec §4.2). Implemented by pkg/checkpoint.Frame, which closes
// over the active CheckpointStore and RunInfo so callers never need to
// plumb them through explicitly.
type CheckpointContext interface {
	// ReplayID is this frame's stable, tree-position-derived identity
	// (spec §4.2 addressing).
	ReplayID() string
	// Child derives the CheckpointContext for a nested frame at position idx
	// within this frame's children (stable index-based encoding).
	Child(idx int) CheckpointContext
	// ReadCheckpoint looks up a previously-journaled record for this frame.
	// hash is the record's stored checkpoint_hash, compared by the caller
	// against a freshly-computed hash of the current input to decide
	// between replay and re-execution (spec §4.2: "mismatch triggers
	// re-execution rather than replay").
	ReadCheckpoint(ctx context.Context) (hash string, output []byte, events []Event, found bool, err error)
	// WriteCheckpoint journals this frame's input hash, emitted events, and
	// serialized output.
	WriteCheckpoint(ctx context.Context, hash string, output []byte, events []Event) error
}

// ExecutionContext is the immutable-except-via-wrapping record threaded
// through every Executable.Execute call (spec §3).
type ExecutionContext struct {
	Source     Source
	Writer     Writer
	Renderer   Renderer
	Config     ConfigManager
	Secrets    SecretsManager
	Checkpoint CheckpointContext
}

// WithChildSource returns a copy of ctx with a derived child Source.
func (c ExecutionContext) WithChildSource(kind Kind) ExecutionContext {
	c.Source = c.Source.Child(kind)
	return c
}

// WithCheckpoint returns a copy of ctx scoped to the given checkpoint frame.
func (c ExecutionContext) WithCheckpoint(cp CheckpointContext) ExecutionContext {
	c.Checkpoint = cp
	return c
}

// WrapWriter returns a copy of ctx whose Writer is replaced, e.g. by a
// BufferingWriter for Checkpoint's capture-and-forward semantics.
func (c ExecutionContext) WrapWriter(w Writer) ExecutionContext {
	c.Writer = w
	return c
}

// WrapRenderer returns a copy of ctx whose Renderer overlay is extended
// (spec §3 invariant 5: child renderers never mutate their parent's overlay).
func (c ExecutionContext) WrapRenderer(vars map[string]any) ExecutionContext {
	if c.Renderer == nil {
		return c
	}
	c.Renderer = c.Renderer.Wrap(vars)
	return c
}

// WriteKind is a convenience for emitting an event of the given kind
// attributed to c.Source.
func (c ExecutionContext) WriteKind(ctx context.Context, kind EventKind, fields Event) error {
	if c.Writer == nil {
		return nil
	}
	fields.Source = c.Source
	fields.Kind = kind
	return c.Writer.Write(ctx, fields)
}

// WriteChunk emits an Updated event carrying chunk.
func (c ExecutionContext) WriteChunk(ctx context.Context, chunk Chunk) error {
	return c.WriteKind(ctx, EventUpdated, Event{Chunk: &chunk})
}

// WriteProgress emits a Progress event.
func (c ExecutionContext) WriteProgress(ctx context.Context, progressType string) error {
	return c.WriteKind(ctx, EventProgress, Event{Progress: progressType})
}

// Builder assembles a root ExecutionContext.
type Builder struct {
	ctx ExecutionContext
}

func NewBuilder() *Builder { return &Builder{} }

func (b *Builder) WithSource(s Source) *Builder       { b.ctx.Source = s; return b }
func (b *Builder) WithWriter(w Writer) *Builder       { b.ctx.Writer = w; return b }
func (b *Builder) WithRenderer(r Renderer) *Builder    { b.ctx.Renderer = r; return b }
func (b *Builder) WithConfig(c ConfigManager) *Builder { b.ctx.Config = c; return b }
func (b *Builder) WithSecrets(s SecretsManager) *Builder {
	b.ctx.Secrets = s
	return b
}
func (b *Builder) WithCheckpoint(cp CheckpointContext) *Builder {
	b.ctx.Checkpoint = cp
	return b
}

func (b *Builder) Build() ExecutionContext { return b.ctx }
