// Package launcher assembles a Launcher: the process that loads a
// config.Config, builds every resource it describes (LLM clients, vector
// providers, embedders, MCP and SQL tool executors), and threads a
// config.Manager through the kernel's execctx.ExecutionContext so a run
// actually resolves models, agents, and workflows through it rather than
// exercising the config package only at the schema level (spec §6).
package launcher

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/oxy-run/oxy/pkg/checkpoint"
	"github.com/oxy-run/oxy/pkg/config"
	"github.com/oxy-run/oxy/pkg/embedder"
	"github.com/oxy-run/oxy/pkg/eventbus"
	"github.com/oxy-run/oxy/pkg/execctx"
	"github.com/oxy-run/oxy/pkg/executable"
	"github.com/oxy-run/oxy/pkg/llmclient"
	"github.com/oxy-run/oxy/pkg/logger"
	"github.com/oxy-run/oxy/pkg/render"
	"github.com/oxy-run/oxy/pkg/toolregistry"
	"github.com/oxy-run/oxy/pkg/vector"
)

// Launcher owns every long-lived resource a run needs and is the single
// place config.Manager's resolution surface gets exercised (spec §6): it
// resolves models/agents/workflows/databases on the caller's behalf and
// hands the kernel only the narrow execctx interfaces those resolutions
// produce.
type Launcher struct {
	cfg      *config.Config
	manager  *config.Manager
	renderer *render.Renderer
	tools    *toolregistry.Registry
	checkpt  *checkpoint.Manager
	store    executable.CheckpointStore
	log      *slog.Logger

	dbPool *config.DBPool

	vectorProviders map[string]vector.Provider
	embedders       map[string]*embedder.Client

	llmMu  sync.Mutex
	llms   map[string]*llmclient.Client

	runs *runRegistry
}

// Option configures a Launcher at construction time.
type Option func(*Launcher)

// WithCheckpointStore overrides the default in-memory checkpoint store
// (e.g. with a persistent backend for long-running agentic workflows).
func WithCheckpointStore(store executable.CheckpointStore) Option {
	return func(l *Launcher) { l.store = store }
}

// WithLogger overrides the default logger.GetLogger()-sourced logger.
func WithLogger(log *slog.Logger) Option {
	return func(l *Launcher) { l.log = log }
}

// New loads configPath, builds every resource it describes, and returns a
// ready-to-run Launcher. Resource construction order mirrors the
// dependency chain a run needs: embedders and vector providers first (a
// document store's vectorsearch tool needs both), then MCP and SQL tool
// executors, then template registration for every agent/workflow so
// render.Renderer.Render calls succeed from the first run.
func New(ctx context.Context, configPath string, opts ...Option) (*Launcher, error) {
	cfg, err := config.LoadConfig(config.LoaderOptions{
		Type: config.ConfigTypeFile,
		Path: configPath,
	})
	if err != nil {
		return nil, fmt.Errorf("launcher: load config: %w", err)
	}

	log := logger.GetLogger()

	l := &Launcher{
		cfg:             cfg,
		manager:         config.NewManager(cfg),
		renderer:        render.New(nil),
		tools:           toolregistry.NewRegistry(log),
		store:           checkpoint.NewMemStore(),
		log:             log,
		dbPool:          config.NewDBPool(),
		vectorProviders: make(map[string]vector.Provider),
		embedders:       make(map[string]*embedder.Client),
		llms:            make(map[string]*llmclient.Client),
		runs:            newRunRegistry(),
	}
	for _, opt := range opts {
		opt(l)
	}
	l.checkpt = checkpoint.NewManager(l.store, nil, l.log)

	l.buildEmbedders()
	if err := l.buildVectorProviders(); err != nil {
		return nil, err
	}
	if err := l.registerVectorSearchTools(); err != nil {
		return nil, err
	}
	if err := l.registerMCPTools(ctx); err != nil {
		return nil, err
	}
	l.registerSQLTools()

	if err := l.registerTemplates(); err != nil {
		return nil, err
	}

	return l, nil
}

// registerTemplates walks every agent, declarative workflow, and agentic
// workflow and registers its templates with the shared renderer (spec
// §4.4), so a run never hits RegisterTemplate lazily mid-execution.
func (l *Launcher) registerTemplates() error {
	for name, agent := range l.cfg.Agents {
		if agent == nil {
			continue
		}
		if err := agent.RegisterTemplates(l.renderer); err != nil {
			return fmt.Errorf("launcher: agent %q: %w", name, err)
		}
	}
	for name, wf := range l.cfg.Workflows {
		if wf == nil {
			continue
		}
		if err := wf.RegisterTemplates(l.renderer); err != nil {
			return fmt.Errorf("launcher: workflow %q: %w", name, err)
		}
	}
	for name, wf := range l.cfg.AgenticWorkflows {
		if wf == nil {
			continue
		}
		if err := wf.RegisterTemplates(l.renderer); err != nil {
			return fmt.Errorf("launcher: agentic workflow %q: %w", name, err)
		}
	}
	return nil
}

// ConfigManager exposes the execctx.ConfigManager every root
// ExecutionContext is built with.
func (l *Launcher) ConfigManager() execctx.ConfigManager { return l.manager }

// Close releases every pooled resource the Launcher opened.
func (l *Launcher) Close() error {
	var errs []error
	for name, p := range l.vectorProviders {
		if err := p.Close(); err != nil {
			errs = append(errs, fmt.Errorf("vector store %q: %w", name, err))
		}
	}
	if err := l.dbPool.Close(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return fmt.Errorf("launcher: close: %v", errs)
	}
	return nil
}

// envSecrets resolves secret variables from the process environment,
// implementing execctx.SecretsManager the way config.LLMConfig's own
// APIKey ${VAR} expansion already assumes secrets live (spec §6).
type envSecrets struct{}

func (envSecrets) Resolve(varName string) (string, bool) {
	return os.LookupEnv(varName)
}

// NewRun builds a root ExecutionContext for a new run, registering a fresh
// eventbus.Topic so an SSE client can subscribe to it via Topic (the
// transport/sse.RunSource method this Launcher implements).
func (l *Launcher) NewRun(kind execctx.Kind, runID string) execctx.ExecutionContext {
	source := execctx.NewRootSource(runID, kind)
	topic := l.runs.open(source.ID)
	run, err := l.store.CreateRun(context.Background(), source.ID)
	if err != nil {
		l.log.Error("launcher: create checkpoint run failed", "error", err)
	}
	return execctx.NewBuilder().
		WithSource(source).
		WithWriter(busWriter{topic: topic}).
		WithRenderer(l.renderer).
		WithConfig(l.manager).
		WithSecrets(envSecrets{}).
		WithCheckpoint(l.checkpt.Root(run)).
		Build()
}

// CloseRun tears down the eventbus topic backing runID.
func (l *Launcher) CloseRun(runID string) { l.runs.close(runID) }

// Topic implements transport/sse.RunSource.
func (l *Launcher) Topic(runID string) (*eventbus.Topic[execctx.Event], bool) {
	return l.runs.Topic(runID)
}
