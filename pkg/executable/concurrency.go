package executable

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/oxy-run/oxy/pkg/execctx"
)

// IndexedResult pairs a branch's result with its originating index,
// mirroring the Vec<Result<R>> spec §4.1 describes for Concurrency.
type IndexedResult[R any] struct {
	Index int
	Value R
	Err   error
}

// Concurrency runs up to N concurrent executions of Inner over a slice of
// inputs, preserving input order in the returned results and in the merged
// event stream (spec §4.1, §5 "Bounded concurrency").
type Concurrency[I, R any] struct {
	Inner Executable[I, R]
	N     int
}

func NewConcurrency[I, R any](inner Executable[I, R], n int) *Concurrency[I, R] {
	if n < 1 {
		n = 1
	}
	return &Concurrency[I, R]{Inner: inner, N: n}
}

// Execute runs Inner over every element of inputs with bounded parallelism
// N, using golang.org/x/sync/errgroup's SetLimit for the semaphore
// (spec §5: "no unbounded spawn is permitted in the kernel").
func (c *Concurrency[I, R]) Execute(ctx context.Context, ectx execctx.ExecutionContext, inputs []I) ([]IndexedResult[R], error) {
	results := make([]IndexedResult[R], len(inputs))
	ordered := NewOrderedWriter(ectx.Writer)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.N)

	for idx, input := range inputs {
		idx, input := idx, input
		g.Go(func() error {
			branchCtx := ectx.WrapWriter(ordered.WriterFor(idx))
			value, err := c.Inner.Execute(gctx, branchCtx, input)
			results[idx] = IndexedResult[R]{Index: idx, Value: value, Err: err}
			return ordered.Finish(ctx, idx)
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}
