package zklock

import (
	"context"
	"testing"
	"time"

	"github.com/go-zookeeper/zk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oxy-run/oxy/pkg/checkpoint"
	"github.com/oxy-run/oxy/pkg/executable"
)

func TestSanitizeNodeReplacesSlashes(t *testing.T) {
	assert.Equal(t, "agents_assistant", sanitizeNode("agents/assistant"))
	assert.Equal(t, "plain", sanitizeNode("plain"))
}

func TestLockPathIsScopedUnderLockRoot(t *testing.T) {
	s := &Store{lockRoot: "/oxy/checkpoint-locks"}
	assert.Equal(t, "/oxy/checkpoint-locks/agents_assistant", s.lockPath("agents/assistant"))
}

func TestNewRejectsEmptyEndpoints(t *testing.T) {
	_, err := New(checkpoint.NewMemStore(), nil, "")
	assert.Error(t, err)
}

// zookeeperEndpoints is the ensemble used by pkg/config's own ZooKeeper
// integration tests; reused here so CreateRun locking is exercised against
// a real server whenever one is reachable, and skipped cleanly otherwise.
var zookeeperEndpoints = []string{"localhost:2181"}

func requireZookeeper(t *testing.T) {
	t.Helper()
	conn, _, err := zk.Connect(zookeeperEndpoints, 2*time.Second)
	if err != nil {
		t.Skipf("skipping zookeeper test - failed to connect: %v", err)
	}
	conn.Close()
}

func TestStoreCreateRunSerializesAcrossLock(t *testing.T) {
	requireZookeeper(t)

	store, err := New(checkpoint.NewMemStore(), zookeeperEndpoints, "/oxy/checkpoint-locks-test")
	require.NoError(t, err)
	t.Cleanup(store.Close)

	run, err := store.CreateRun(context.Background(), "checkpoint-a")
	require.NoError(t, err)
	assert.Equal(t, "checkpoint-a", run.SourceID)
}

var _ executable.CheckpointStore = (*Store)(nil)
