package executable

import (
	"context"

	"github.com/oxy-run/oxy/pkg/execctx"
)

// Seeded pairs an accumulator carried across invocations (e.g. a ReAct
// loop's message history) with the current call's input (spec §4.1
// "Memo").
type Seeded[A, I any] struct {
	Accumulator A
	Input       I
}

// Memo seeds Inner with a prior run's accumulator on every Execute call.
type Memo[A, I, R any] struct {
	Seed  A
	Inner Executable[Seeded[A, I], R]
}

func NewMemo[A, I, R any](seed A, inner Executable[Seeded[A, I], R]) *Memo[A, I, R] {
	return &Memo[A, I, R]{Seed: seed, Inner: inner}
}

func (m *Memo[A, I, R]) Execute(ctx context.Context, ectx execctx.ExecutionContext, input I) (R, error) {
	return m.Inner.Execute(ctx, ectx, Seeded[A, I]{Accumulator: m.Seed, Input: input})
}
