package launcher

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/oxy-run/oxy/pkg/config"
	"github.com/oxy-run/oxy/pkg/execctx"
)

// RunWorkflow resolves name through config.Manager and executes its
// declarative steps (spec §4.2): sequential by default, with "parallel"
// runs batched across adjacent steps and "conditional" steps gated on
// Renderer.EvalExpression against the results collected so far.
func (l *Launcher) RunWorkflow(ctx context.Context, runID, name string, input map[string]any) (map[string]any, error) {
	resolved, err := l.manager.ResolveWorkflow(name)
	if err != nil {
		return nil, fmt.Errorf("launcher: resolve workflow %q: %w", name, err)
	}
	wfCfg, ok := resolved.(*config.WorkflowConfig)
	if !ok {
		return nil, fmt.Errorf("launcher: workflow %q resolved to unexpected type %T", name, resolved)
	}

	ectx := l.NewRun(execctx.KindWorkflow, runID)
	defer l.CloseRun(ectx.Source.ID)

	return l.runSteps(ctx, ectx, wfCfg.Steps, input)
}

// runSteps executes steps against a shared results map, keyed by step
// name, available to later steps' Input and Condition templates.
func (l *Launcher) runSteps(ctx context.Context, ectx execctx.ExecutionContext, steps []config.WorkflowStep, input map[string]any) (map[string]any, error) {
	results := make(map[string]any, len(steps))

	for i := 0; i < len(steps); {
		step := steps[i]

		if step.Mode == "parallel" {
			batch := []config.WorkflowStep{step}
			j := i + 1
			for j < len(steps) && steps[j].Mode == "parallel" {
				batch = append(batch, steps[j])
				j++
			}
			batchResults, err := l.runParallel(ctx, ectx, batch, input, results)
			if err != nil {
				return nil, err
			}
			for k, v := range batchResults {
				results[k] = v
			}
			i = j
			continue
		}

		if step.Mode == "conditional" {
			run, err := l.evalCondition(ctx, ectx, step.Condition, results)
			if err != nil {
				return nil, fmt.Errorf("launcher: workflow step %q condition: %w", step.Name, err)
			}
			if !run {
				i++
				continue
			}
		}

		out, err := l.runStep(ctx, ectx, step, input, results)
		if err != nil {
			return nil, fmt.Errorf("launcher: workflow step %q: %w", step.Name, err)
		}
		results[step.Name] = out
		i++
	}

	return results, nil
}

// runParallel runs every step in batch concurrently and returns once all
// have finished; if any step failed, it returns the first error recorded.
func (l *Launcher) runParallel(ctx context.Context, ectx execctx.ExecutionContext, batch []config.WorkflowStep, input map[string]any, priorResults map[string]any) (map[string]any, error) {
	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		firstErr error
	)
	out := make(map[string]any, len(batch))

	for _, step := range batch {
		step := step
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := l.runStep(ctx, ectx, step, input, priorResults)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if firstErr == nil {
					firstErr = fmt.Errorf("workflow step %q: %w", step.Name, err)
				}
				return
			}
			out[step.Name] = v
		}()
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	return out, nil
}

// runStep dispatches one step by its Ref: an agent name runs through
// RunAgent, a registered tool type runs through the toolregistry directly,
// and a nested workflow name recurses through runSteps sharing ectx.
func (l *Launcher) runStep(ctx context.Context, ectx execctx.ExecutionContext, step config.WorkflowStep, input map[string]any, results map[string]any) (any, error) {
	stepInput := step.Input
	if stepInput == nil {
		stepInput = input
	}

	if agentCfg, ok := l.cfg.Agents[step.Ref]; ok && agentCfg != nil {
		text, err := json.Marshal(stepInput)
		if err != nil {
			return nil, fmt.Errorf("marshal input: %w", err)
		}
		return l.RunAgent(ctx, ectx, step.Ref, string(text))
	}

	if _, ok := l.tools.Lookup(step.Ref); ok {
		raw, err := json.Marshal(stepInput)
		if err != nil {
			return nil, fmt.Errorf("marshal input: %w", err)
		}
		return l.tools.Execute(ctx, ectx, step.Ref, raw)
	}

	if nested, ok := l.cfg.Workflows[step.Ref]; ok && nested != nil {
		return l.runSteps(ctx, ectx, nested.Steps, stepInput)
	}

	return nil, fmt.Errorf("ref %q matches no agent, tool, or workflow", step.Ref)
}

// evalCondition wraps results into ectx's Renderer and evaluates condition
// against it, treating an empty condition as always-true and a non-bool
// result as truthy-if-non-nil.
func (l *Launcher) evalCondition(ctx context.Context, ectx execctx.ExecutionContext, condition string, results map[string]any) (bool, error) {
	if condition == "" {
		return true, nil
	}
	scoped := ectx.Renderer.Wrap(results)
	v, err := scoped.EvalExpression(ctx, condition)
	if err != nil {
		return false, err
	}
	switch b := v.(type) {
	case bool:
		return b, nil
	case nil:
		return false, nil
	default:
		return true, nil
	}
}
