package checkpoint

import (
	"context"
	"strconv"
	"sync"

	"github.com/oxy-run/oxy/pkg/execctx"
	"github.com/oxy-run/oxy/pkg/executable"
)

// MemStore is an in-memory executable.CheckpointStore, sufficient for
// tests (spec §6: "in tests, an in-memory backend suffices").
type MemStore struct {
	mu sync.Mutex

	runIndex    map[string]int
	lastRun     map[string]executable.RunInfo
	events      map[string][]execctx.Event // keyed by "checkpointID/runIndex"
	checkpoints map[string]executable.RawCheckpoint // keyed by "checkpointID/runIndex/replayID"
}

func NewMemStore() *MemStore {
	return &MemStore{
		runIndex:    make(map[string]int),
		lastRun:     make(map[string]executable.RunInfo),
		events:      make(map[string][]execctx.Event),
		checkpoints: make(map[string]executable.RawCheckpoint),
	}
}

func runKey(checkpointID string, runIndex int) string {
	return checkpointID + "/" + strconv.Itoa(runIndex)
}

func (m *MemStore) CreateRun(ctx context.Context, checkpointID string) (executable.RunInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	idx := m.runIndex[checkpointID] + 1
	m.runIndex[checkpointID] = idx
	run := executable.RunInfo{SourceID: checkpointID, RunIndex: idx}
	m.lastRun[checkpointID] = run
	return run, nil
}

func (m *MemStore) LastRun(ctx context.Context, checkpointID string) (executable.RunInfo, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	run, ok := m.lastRun[checkpointID]
	return run, ok, nil
}

func (m *MemStore) WriteEvents(ctx context.Context, run executable.RunInfo, events []execctx.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := runKey(run.SourceID, run.RunIndex)
	m.events[key] = append(m.events[key], events...)
	return nil
}

func (m *MemStore) ReadEvents(ctx context.Context, run executable.RunInfo) ([]execctx.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]execctx.Event(nil), m.events[runKey(run.SourceID, run.RunIndex)]...), nil
}

func (m *MemStore) checkpointKey(run executable.RunInfo, replayID string) string {
	return runKey(run.SourceID, run.RunIndex) + "/" + replayID
}

func (m *MemStore) CreateCheckpoint(ctx context.Context, run executable.RunInfo, data executable.RawCheckpoint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	// Upsert on conflict: the latest payload wins (spec §4.2).
	m.checkpoints[m.checkpointKey(run, data.ReplayID)] = data
	return nil
}

func (m *MemStore) ReadCheckpoint(ctx context.Context, run executable.RunInfo, replayID string) (executable.RawCheckpoint, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, ok := m.checkpoints[m.checkpointKey(run, replayID)]
	return raw, ok, nil
}

func (m *MemStore) WriteSuccessMarker(ctx context.Context, run executable.RunInfo) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	run.Success = true
	m.lastRun[run.SourceID] = run
	return nil
}
