package fsm

import (
	"context"
	"fmt"

	"github.com/oxy-run/oxy/pkg/execctx"
)

// SubflowTrigger runs a nested Driver to completion and folds its
// MachineContext back into the parent's, the Go rendering of the trigger
// contract's "may itself invoke sub-executables" clause (spec §4.5).
type SubflowTrigger struct {
	Driver *Driver
}

func (t *SubflowTrigger) Name() string       { return "subflow" }
func (t *SubflowTrigger) Kind() execctx.Kind { return execctx.KindSubflow }

func (t *SubflowTrigger) Run(ctx context.Context, ectx execctx.ExecutionContext, state *MachineContext, objective string) error {
	if t.Driver == nil {
		return fmt.Errorf("subflow: no nested driver configured")
	}
	child, err := t.Driver.Run(ctx, ectx, objective)
	if err != nil {
		return fmt.Errorf("subflow: %w", err)
	}
	state.MergeFrom(child)
	return nil
}
