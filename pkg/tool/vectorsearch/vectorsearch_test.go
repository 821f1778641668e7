package vectorsearch

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oxy-run/oxy/pkg/execctx"
	"github.com/oxy-run/oxy/pkg/vector"
)

type fakeEmbedder struct {
	vec []float32
	err error
}

func (f fakeEmbedder) Embed(_ context.Context, _ string) ([]float32, error) { return f.vec, f.err }

type fakeProvider struct {
	vector.NilProvider
	results      []vector.Result
	lastFilter   map[string]any
	lastTopK     int
	lastCollection string
}

func (p *fakeProvider) Search(_ context.Context, collection string, _ []float32, topK int) ([]vector.Result, error) {
	p.lastCollection = collection
	p.lastTopK = topK
	return p.results, nil
}

func (p *fakeProvider) SearchWithFilter(_ context.Context, collection string, _ []float32, topK int, filter map[string]any) ([]vector.Result, error) {
	p.lastCollection = collection
	p.lastTopK = topK
	p.lastFilter = filter
	return p.results, nil
}

func TestCanHandleMatchesOnlyConfiguredToolType(t *testing.T) {
	e := New("semantic_query", &fakeProvider{}, fakeEmbedder{})
	assert.True(t, e.CanHandle("semantic_query"))
	assert.False(t, e.CanHandle("other"))
}

func TestExecuteRejectsMissingCollection(t *testing.T) {
	e := New("semantic_query", &fakeProvider{}, fakeEmbedder{})
	_, err := e.Execute(context.Background(), execctx.ExecutionContext{}, "semantic_query", []byte(`{"query":"x"}`))
	assert.Error(t, err)
}

func TestExecuteDefaultsTopK(t *testing.T) {
	p := &fakeProvider{results: []vector.Result{{Content: "a", Score: 0.9}}}
	e := New("semantic_query", p, fakeEmbedder{vec: []float32{0.1}})

	raw, err := json.Marshal(Request{Collection: "docs", Query: "hello"})
	require.NoError(t, err)

	out, err := e.Execute(context.Background(), execctx.ExecutionContext{}, "semantic_query", raw)
	require.NoError(t, err)
	assert.Equal(t, defaultTopK, p.lastTopK)
	require.Equal(t, execctx.ContainerList, out.Kind)
	require.Len(t, out.List, 1)
	assert.Contains(t, out.List[0].Text, "a")
}

func TestExecuteUsesFilterWhenProvided(t *testing.T) {
	p := &fakeProvider{}
	e := New("semantic_query", p, fakeEmbedder{vec: []float32{0.1}})

	raw, err := json.Marshal(Request{Collection: "docs", Query: "hello", Filter: map[string]any{"tag": "go"}})
	require.NoError(t, err)

	_, err = e.Execute(context.Background(), execctx.ExecutionContext{}, "semantic_query", raw)
	require.NoError(t, err)
	assert.Equal(t, "go", p.lastFilter["tag"])
}

func TestExecutePropagatesEmbedError(t *testing.T) {
	e := New("semantic_query", &fakeProvider{}, fakeEmbedder{err: assert.AnError})

	raw, _ := json.Marshal(Request{Collection: "docs", Query: "hello"})
	_, err := e.Execute(context.Background(), execctx.ExecutionContext{}, "semantic_query", raw)
	assert.Error(t, err)
}
