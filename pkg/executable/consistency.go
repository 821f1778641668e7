package executable

import (
	"context"

	"github.com/oxy-run/oxy/pkg/execctx"
)

// Comparer judges whether two candidate outputs are equivalent, typically
// by delegating to an LLM judge executable. AgentScoreControl below uses
// it for every pairwise comparison.
type Comparer[R any] interface {
	Equivalent(ctx context.Context, ectx execctx.ExecutionContext, a, b R) (bool, error)
}

// AgentScoreControl is the default ConsistencyPicker (spec §4.1
// "Consistency"): it runs the inner executable N times over the same
// input, pairwise-compares every combination of results via Comparer, and
// selects the result with the maximum agreement count. Its score is
// agreement_count / (n-1). Ties are broken by first-seen index.
//
// Builds all pairwise index combinations and tallies agreement counts per
// index before picking the max.
type AgentScoreControl[R any] struct {
	Compare Comparer[R]
}

// ConsistencyResult is the value a Consistency[E] Execute call returns.
type ConsistencyResult[R any] struct {
	Value R
	Score float64
	Index int
}

func (a *AgentScoreControl[R]) Handle(ctx context.Context, ectx execctx.ExecutionContext, results []IndexedResult[R]) (ConsistencyResult[R], error) {
	var zero ConsistencyResult[R]
	n := len(results)
	switch n {
	case 0:
		return zero, errEmptyConsistencyInput
	case 1:
		return ConsistencyResult[R]{Value: results[0].Value, Score: 1.0, Index: 0}, nil
	}

	for _, r := range results {
		if r.Err != nil {
			return zero, r.Err
		}
	}

	agreement := make([]int, n)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			equal, err := a.Compare.Equivalent(ctx, ectx, results[i].Value, results[j].Value)
			if err != nil {
				return zero, err
			}
			if equal {
				agreement[i]++
				agreement[j]++
			}
		}
	}

	bestIdx := 0
	bestCount := agreement[0]
	for i := 1; i < n; i++ {
		if agreement[i] > bestCount {
			bestCount = agreement[i]
			bestIdx = i
		}
	}

	score := float64(bestCount) / float64(n-1)
	return ConsistencyResult[R]{Value: results[bestIdx].Value, Score: score, Index: bestIdx}, nil
}

// errEmptyConsistencyInput is returned by AgentScoreControl.Handle when
// Consistency is run with zero repetitions.
var errEmptyConsistencyInput = consistencyError("executable: Consistency requires at least one result")

type consistencyError string

func (e consistencyError) Error() string { return string(e) }

// Consistency runs Inner N times over the same input and uses Strategy
// (typically *AgentScoreControl[R]) to pick one result (spec §4.1).
type Consistency[I, R any] struct {
	control *ConcurrencyControl[I, R, ConsistencyResult[R]]
	n       int
}

func NewConsistency[I, R any](inner Executable[I, R], n int, strategy ConcurrencyControlStrategy[R, ConsistencyResult[R]]) *Consistency[I, R] {
	return &Consistency[I, R]{
		control: NewConcurrencyControl(inner, n, strategy),
		n:       n,
	}
}

func (c *Consistency[I, R]) Execute(ctx context.Context, ectx execctx.ExecutionContext, input I) (ConsistencyResult[R], error) {
	inputs := make([]I, c.n)
	for i := range inputs {
		inputs[i] = input
	}
	return c.control.Execute(ctx, ectx, inputs)
}
