package executable

import (
	"context"

	"github.com/oxy-run/oxy/pkg/execctx"
)

// FallbackPredicate decides, given Primary's result and error, whether
// Secondary should run instead (spec §4.1 "Fallback").
type FallbackPredicate[R any] func(value R, err error) bool

// Fallback runs Primary; if its output fails Predicate, runs Secondary
// with the same input. Secondary's events replace Primary's on the output
// stream only if Secondary actually ran (spec §4.1).
type Fallback[I, R any] struct {
	Primary   Executable[I, R]
	Secondary Executable[I, R]
	Predicate FallbackPredicate[R]
}

func NewFallback[I, R any](primary, secondary Executable[I, R], pred FallbackPredicate[R]) *Fallback[I, R] {
	return &Fallback[I, R]{Primary: primary, Secondary: secondary, Predicate: pred}
}

func (f *Fallback[I, R]) Execute(ctx context.Context, ectx execctx.ExecutionContext, input I) (R, error) {
	capture := execctx.NewBufferingWriter(nil)
	primaryCtx := ectx.WrapWriter(capture)

	value, err := f.Primary.Execute(ctx, primaryCtx, input)
	if !f.Predicate(value, err) {
		if err := replayEvents(ctx, ectx.Writer, capture.Events); err != nil {
			var zero R
			return zero, err
		}
		return value, err
	}

	return f.Secondary.Execute(ctx, ectx, input)
}

func replayEvents(ctx context.Context, w execctx.Writer, events []execctx.Event) error {
	if w == nil {
		return nil
	}
	for _, e := range events {
		if err := w.Write(ctx, e); err != nil {
			return err
		}
	}
	return nil
}
