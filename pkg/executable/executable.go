// Package executable implements the kernel's executable algebra (spec
// §4.1): a composable Executable[I,R] interface plus combinators for
// mapping, concurrency, consistency voting, fallback, retry, memoization,
// and checkpointing. Implementations compose by function application;
// this package favors generic/monomorphized composition (one concrete
// type per composed tree) over an interface/virtual-dispatch layout,
// matching spec §9's design note that either satisfies the contract,
// preferring concrete generic types over runtime polymorphism
// (see pkg/registry.BaseRegistry[T]).
package executable

import (
	"context"

	"github.com/oxy-run/oxy/pkg/execctx"
)

// Executable is the kernel's single unit of work (spec §4.1).
type Executable[I, R any] interface {
	Execute(ctx context.Context, ectx execctx.ExecutionContext, input I) (R, error)
}

// Func adapts a plain function to an Executable, the same "adapter func
// type" idiom as execctx.WriterFunc.
type Func[I, R any] func(ctx context.Context, ectx execctx.ExecutionContext, input I) (R, error)

func (f Func[I, R]) Execute(ctx context.Context, ectx execctx.ExecutionContext, input I) (R, error) {
	return f(ctx, ectx, input)
}
