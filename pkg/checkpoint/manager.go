// Package checkpoint provides the kernel's checkpoint/resume subsystem
// (spec §4.2): a pluggable executable.CheckpointStore, a Frame builder
// deriving stable replay_id addressing, and the Strategy-based policy
// (Config, in config.go) controlling when interval checkpoints fire inside
// an FSM loop.
package checkpoint

import (
	"log/slog"

	"github.com/oxy-run/oxy/pkg/execctx"
	"github.com/oxy-run/oxy/pkg/executable"
)

// Manager implements executable.FrameBuilder over a pluggable
// executable.CheckpointStore, and exposes the Strategy-based policy
// (Config) a caller consults (e.g. the FSM driver, pkg/fsm) to decide
// whether to checkpoint at a given iteration.
type Manager struct {
	Store  executable.CheckpointStore
	Config *Config
	log    *slog.Logger
}

// NewManager builds a Manager. log may be nil (defaults to slog.Default()),
// matching the nil-safe logger convention used elsewhere in this package.
func NewManager(store executable.CheckpointStore, cfg *Config, log *slog.Logger) *Manager {
	if cfg == nil {
		cfg = &Config{}
		cfg.SetDefaults()
	}
	if log == nil {
		log = slog.Default()
	}
	return &Manager{Store: store, Config: cfg, log: log}
}

// Root builds the root execctx.CheckpointContext for run.
func (m *Manager) Root(run executable.RunInfo) execctx.CheckpointContext {
	return NewRootFrame(m.Store, run)
}

// IsEnabled reports whether checkpointing is configured on.
func (m *Manager) IsEnabled() bool { return m.Config.IsEnabled() }

// ShouldCheckpointAtIteration delegates to the Strategy-based policy.
func (m *Manager) ShouldCheckpointAtIteration(iteration int) bool {
	return m.Config.ShouldCheckpointAtIteration(iteration)
}
