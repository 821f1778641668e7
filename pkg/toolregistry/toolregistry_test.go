package toolregistry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oxy-run/oxy/pkg/execctx"
)

type stubExecutor struct {
	name    string
	handles string
}

func (s stubExecutor) CanHandle(toolType string) bool { return toolType == s.handles }
func (s stubExecutor) Execute(ctx context.Context, ectx execctx.ExecutionContext, toolType string, rawInput []byte) (execctx.OutputContainer, error) {
	return execctx.SingleOutput(execctx.Output{Kind: execctx.OutputText, Text: s.name}), nil
}
func (s stubExecutor) Name() string { return s.name }

func TestRegisterEmptyNameRejected(t *testing.T) {
	r := NewRegistry(nil)
	err := r.Register(stubExecutor{name: "", handles: "x"})
	assert.Error(t, err)
}

func TestRegisterDuplicateIsNoOpNotError(t *testing.T) {
	r := NewRegistry(nil)
	require.NoError(t, r.Register(stubExecutor{name: "sql", handles: "sql"}))
	err := r.Register(stubExecutor{name: "sql", handles: "sql_v2"})
	require.NoError(t, err, "duplicate registration must be a no-op, not an error")
	assert.Equal(t, 1, r.Count())
}

func TestLookupFirstMatch(t *testing.T) {
	r := NewRegistry(nil)
	require.NoError(t, r.Register(stubExecutor{name: "a", handles: "sql"}))
	require.NoError(t, r.Register(stubExecutor{name: "b", handles: "viz"}))

	out, err := r.Execute(context.Background(), execctx.ExecutionContext{}, "viz", nil)
	require.NoError(t, err)
	assert.Equal(t, "b", out.Single.Text)
}

func TestLookupMissingExecutor(t *testing.T) {
	r := NewRegistry(nil)
	_, err := r.Execute(context.Background(), execctx.ExecutionContext{}, "unknown", nil)
	assert.Error(t, err)
}
