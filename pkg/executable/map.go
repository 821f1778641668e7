package executable

import (
	"context"

	"github.com/oxy-run/oxy/pkg/execctx"
)

// ParamMapper transforms an I into an I' for the wrapped Executable, and
// may substitute the ExecutionContext the inner Executable observes (e.g.
// to switch renderer scope) (spec §4.1 "Map").
type ParamMapper[I, I2 any] interface {
	Map(ctx context.Context, ectx execctx.ExecutionContext, input I) (I2, execctx.ExecutionContext, error)
}

// ParamMapperFunc adapts a function to a ParamMapper.
type ParamMapperFunc[I, I2 any] func(ctx context.Context, ectx execctx.ExecutionContext, input I) (I2, execctx.ExecutionContext, error)

func (f ParamMapperFunc[I, I2]) Map(ctx context.Context, ectx execctx.ExecutionContext, input I) (I2, execctx.ExecutionContext, error) {
	return f(ctx, ectx, input)
}

// Map applies mapper to transform I -> I' before delegating to inner.
type Map[I, I2, R any] struct {
	Mapper ParamMapper[I, I2]
	Inner  Executable[I2, R]
}

func NewMap[I, I2, R any](mapper ParamMapper[I, I2], inner Executable[I2, R]) *Map[I, I2, R] {
	return &Map[I, I2, R]{Mapper: mapper, Inner: inner}
}

func (m *Map[I, I2, R]) Execute(ctx context.Context, ectx execctx.ExecutionContext, input I) (R, error) {
	var zero R
	input2, childCtx, err := m.Mapper.Map(ctx, ectx, input)
	if err != nil {
		return zero, err
	}
	return m.Inner.Execute(ctx, childCtx, input2)
}
