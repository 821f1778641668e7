package executable

import (
	"context"

	"github.com/oxy-run/oxy/pkg/execctx"
	"github.com/oxy-run/oxy/pkg/kerr"
)

// CheckpointRoot establishes a run identity for a root Executable tree
// (spec §4.1 "CheckpointRoot", §4.2 "Replay algorithm"). On entry it
// consults Restore to decide whether to resume a prior RunInfo; if
// resuming, it replays historic events onto the writer before executing
// Inner. On success it writes a success marker so a subsequent run with
// LastRunFailed will not resume it again.
type CheckpointRoot[I, R any] struct {
	Inner        Executable[I, R]
	Store        CheckpointStore
	Frames       FrameBuilder
	Restore      ShouldRestore
	CheckpointID string
}

func NewCheckpointRoot[I, R any](inner Executable[I, R], store CheckpointStore, frames FrameBuilder, restore ShouldRestore, checkpointID string) *CheckpointRoot[I, R] {
	if restore == nil {
		restore = NoRestore{}
	}
	return &CheckpointRoot[I, R]{Inner: inner, Store: store, Frames: frames, Restore: restore, CheckpointID: checkpointID}
}

func (c *CheckpointRoot[I, R]) Execute(ctx context.Context, ectx execctx.ExecutionContext, input I) (R, error) {
	var zero R

	run, resuming, err := c.Restore.Check(ctx, c.Store, c.CheckpointID)
	if err != nil {
		return zero, kerr.New(kerr.DB, "checkpoint_root.restore_check", err)
	}
	if !resuming {
		run, err = c.Store.CreateRun(ctx, c.CheckpointID)
		if err != nil {
			return zero, kerr.New(kerr.DB, "checkpoint_root.create_run", err)
		}
	}

	if resuming {
		historic, err := c.Store.ReadEvents(ctx, run)
		if err != nil {
			return zero, kerr.New(kerr.DB, "checkpoint_root.read_events", err)
		}
		for _, e := range historic {
			if err := ectx.Writer.Write(ctx, e); err != nil {
				return zero, err
			}
		}
	}

	tee := execctx.NewBufferingWriter(ectx.Writer)
	rootFrame := c.Frames.Root(run)
	innerCtx := ectx.WrapWriter(tee).WithCheckpoint(rootFrame)

	output, err := c.Inner.Execute(ctx, innerCtx, input)
	if err != nil {
		_ = c.Store.WriteEvents(ctx, run, tee.Events)
		return zero, err
	}

	if err := c.Store.WriteEvents(ctx, run, tee.Events); err != nil {
		return zero, kerr.New(kerr.DB, "checkpoint_root.write_events", err)
	}
	if err := c.Store.WriteSuccessMarker(ctx, run); err != nil {
		return zero, kerr.New(kerr.DB, "checkpoint_root.success_marker", err)
	}
	return output, nil
}
