package executable

import (
	"context"

	"github.com/oxy-run/oxy/pkg/execctx"
)

// RunInfo identifies one concrete attempt at a root frame (spec §3).
// Subsequent attempts at the same checkpoint identity increment RunIndex.
type RunInfo struct {
	SourceID string
	RunIndex int
	Success  bool
}

// RawCheckpoint is the wire representation of CheckpointData<R> (spec §3):
// Output is the frame's JSON-serialized result, or nil if the frame never
// completed successfully.
type RawCheckpoint struct {
	ReplayID       string
	CheckpointHash string
	Output         []byte
	Events         []execctx.Event
}

// CheckpointStore is the storage contract spec §4.2 describes. A
// relational implementation (pkg/checkpoint/sqlstore) keys checkpoints by
// (run_id, replay_id) and upserts on conflict; an in-memory implementation
// suffices for tests (spec §6).
type CheckpointStore interface {
	CreateRun(ctx context.Context, checkpointID string) (RunInfo, error)
	LastRun(ctx context.Context, checkpointID string) (RunInfo, bool, error)
	WriteEvents(ctx context.Context, run RunInfo, events []execctx.Event) error
	ReadEvents(ctx context.Context, run RunInfo) ([]execctx.Event, error)
	CreateCheckpoint(ctx context.Context, run RunInfo, data RawCheckpoint) error
	ReadCheckpoint(ctx context.Context, run RunInfo, replayID string) (RawCheckpoint, bool, error)
	WriteSuccessMarker(ctx context.Context, run RunInfo) error
}

// ShouldRestore decides whether a root run should resume a prior RunInfo
// instead of starting fresh (spec §4.1 "CheckpointRoot", §4.2 "Replay
// algorithm").
type ShouldRestore interface {
	Check(ctx context.Context, store CheckpointStore, checkpointID string) (RunInfo, bool, error)
}

// NoRestore always starts a fresh run (spec §4.2's default when no resume
// policy is configured).
type NoRestore struct{}

func (NoRestore) Check(ctx context.Context, store CheckpointStore, checkpointID string) (RunInfo, bool, error) {
	return RunInfo{}, false, nil
}

// FrameBuilder constructs the root execctx.CheckpointContext for a given
// RunInfo. Implemented by pkg/checkpoint.Manager.
type FrameBuilder interface {
	Root(run RunInfo) execctx.CheckpointContext
}

// LastRunFailed resumes the previous RunInfo only if it did not succeed:
// it checks the manager's last run for this checkpoint id and returns it
// only when that run's success flag is false.
type LastRunFailed struct{}

func (LastRunFailed) Check(ctx context.Context, store CheckpointStore, checkpointID string) (RunInfo, bool, error) {
	run, ok, err := store.LastRun(ctx, checkpointID)
	if err != nil || !ok || run.Success {
		return RunInfo{}, false, err
	}
	return run, true, nil
}
