package fsm

import (
	"context"

	"github.com/oxy-run/oxy/pkg/execctx"
)

// Trigger is a reusable, typed unit of work the FSM driver can dispatch to
// (spec §3 "Trigger", §4.5 "Trigger contract"). Run must: derive a child
// context with a fresh source (the driver does this before calling Run, so
// implementations receive an already-scoped ectx); perform its work,
// possibly invoking sub-executables including Checkpoint; append
// structured artifacts to state; and not leak errors that can be locally
// retried, since each trigger owns its own retry budget.
type Trigger interface {
	// Name identifies this trigger for transition lookups and event Kind
	// attribution.
	Name() string
	// Kind is the execctx.Source kind attributed to this trigger's frame.
	Kind() execctx.Kind
	// Run executes one step, mutating state and emitting events on ectx.
	Run(ctx context.Context, ectx execctx.ExecutionContext, state *MachineContext, objective string) error
}
