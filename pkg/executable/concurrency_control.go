package executable

import (
	"context"

	"github.com/oxy-run/oxy/pkg/execctx"
)

// ConcurrencyControlStrategy reduces the results of N concurrent branches
// into a single response (spec §4.1 "ConcurrencyControl"). Consistency
// voting is the canonical user of this interface.
type ConcurrencyControlStrategy[R, Out any] interface {
	Handle(ctx context.Context, ectx execctx.ExecutionContext, results []IndexedResult[R]) (Out, error)
}

// ConcurrencyControl generalizes Concurrency by delegating result
// reduction to a Strategy instead of returning the raw per-branch slice.
type ConcurrencyControl[I, R, Out any] struct {
	Inner    Executable[I, R]
	N        int
	Strategy ConcurrencyControlStrategy[R, Out]
}

func NewConcurrencyControl[I, R, Out any](inner Executable[I, R], n int, strategy ConcurrencyControlStrategy[R, Out]) *ConcurrencyControl[I, R, Out] {
	return &ConcurrencyControl[I, R, Out]{Inner: inner, N: n, Strategy: strategy}
}

func (c *ConcurrencyControl[I, R, Out]) Execute(ctx context.Context, ectx execctx.ExecutionContext, inputs []I) (Out, error) {
	var zero Out
	concurrency := NewConcurrency(c.Inner, c.N)
	results, err := concurrency.Execute(ctx, ectx, inputs)
	if err != nil {
		return zero, err
	}
	return c.Strategy.Handle(ctx, ectx, results)
}
