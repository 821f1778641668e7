package checkpoint

import (
	"context"
	"fmt"

	"github.com/oxy-run/oxy/pkg/execctx"
	"github.com/oxy-run/oxy/pkg/executable"
)

// Frame implements execctx.CheckpointContext for one position in an
// executable tree. Its ReplayID is a stable, index-based path from the
// root ("root" for the root frame, "root.0", "root.0.2", ... for descendants),
// satisfying spec §4.2's "stable index-based encoding of the executable
// tree position."
type Frame struct {
	store    executable.CheckpointStore
	run      executable.RunInfo
	replayID string
}

// NewRootFrame builds the Frame for a root CheckpointRoot invocation.
func NewRootFrame(store executable.CheckpointStore, run executable.RunInfo) *Frame {
	return &Frame{store: store, run: run, replayID: "root"}
}

func (f *Frame) ReplayID() string { return f.replayID }

func (f *Frame) Child(idx int) execctx.CheckpointContext {
	return &Frame{store: f.store, run: f.run, replayID: fmt.Sprintf("%s.%d", f.replayID, idx)}
}

func (f *Frame) ReadCheckpoint(ctx context.Context) (hash string, output []byte, events []execctx.Event, found bool, err error) {
	raw, ok, err := f.store.ReadCheckpoint(ctx, f.run, f.replayID)
	if err != nil || !ok {
		return "", nil, nil, false, err
	}
	return raw.CheckpointHash, raw.Output, raw.Events, true, nil
}

func (f *Frame) WriteCheckpoint(ctx context.Context, hash string, output []byte, events []execctx.Event) error {
	return f.store.CreateCheckpoint(ctx, f.run, executable.RawCheckpoint{
		ReplayID:       f.replayID,
		CheckpointHash: hash,
		Output:         output,
		Events:         events,
	})
}
