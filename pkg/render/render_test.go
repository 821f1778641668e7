package render

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapDoesNotMutateParentOverlay(t *testing.T) {
	ctx := context.Background()
	root := New(map[string]any{"app": map[string]any{"name": "oxy"}})
	require.NoError(t, root.RegisterTemplate("greet", "hello {{.app.name}}, {{.user.name}}"))

	child := root.Wrap(map[string]any{"user": map[string]any{"name": "ada"}})

	childOut, err := child.Render(ctx, "greet")
	require.NoError(t, err)
	assert.Equal(t, "hello oxy, ada", childOut)

	// The root's context has no "user", so .user.name cannot be evaluated
	// there (missingkey=zero yields a nil interface); it renders only if
	// the child's overlay leaked into the root.
	_, err = root.Render(ctx, "greet")
	require.Error(t, err)
}

func TestRegisterTemplateIsIdempotent(t *testing.T) {
	r := New(nil)
	require.NoError(t, r.RegisterTemplate("t", "{{.x}}"))
	require.NoError(t, r.RegisterTemplate("t", "{{.x}}"))
}

func TestEvalExpression(t *testing.T) {
	ctx := context.Background()
	r := New(map[string]any{"x": map[string]any{"y": "z"}})
	v, err := r.EvalExpression(ctx, "{{x.y}}")
	require.NoError(t, err)
	assert.Equal(t, "z", v)
}

func TestEvalEnumerate(t *testing.T) {
	ctx := context.Background()
	r := New(map[string]any{"items": []any{"a", "b", "c"}})
	vals, err := r.EvalEnumerate(ctx, "{{items}}")
	require.NoError(t, err)
	assert.Equal(t, []any{"a", "b", "c"}, vals)
}
