// Package fsm implements the kernel's agentic FSM driver (spec §4.5): an
// LLM-steered state machine whose nodes are reusable Trigger
// implementations and whose edges are TransitionModes. Dispatch looks
// triggers up by name in the Driver's Triggers map.
package fsm

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/oxy-run/oxy/pkg/execctx"
	"github.com/oxy-run/oxy/pkg/kerr"
	"github.com/oxy-run/oxy/pkg/llmclient"
)

// Driver runs one AgenticConfig to completion (spec §4.5 "Main loop").
type Driver struct {
	Config   AgenticConfig
	Triggers map[string]Trigger
	LLM      *llmclient.Client
	Log      *slog.Logger
}

// NewDriver validates that Start, End, and every trigger name referenced by
// a Transition or an Auto candidate list resolves to a registered Trigger,
// surfacing configuration errors before the run starts rather than midway
// through it (spec §4.4 "TemplateRegister" follows the same
// fail-fast-at-build philosophy for templates). log may be nil, in which
// case slog.Default() is used.
func NewDriver(cfg AgenticConfig, triggers map[string]Trigger, llm *llmclient.Client, log *slog.Logger) (*Driver, error) {
	if _, ok := triggers[cfg.Start]; !ok {
		return nil, kerr.New(kerr.Configuration, "fsm.NewDriver", fmt.Errorf("start trigger %q is not registered", cfg.Start))
	}
	if _, ok := triggers[cfg.End]; !ok {
		return nil, kerr.New(kerr.Configuration, "fsm.NewDriver", fmt.Errorf("end trigger %q is not registered", cfg.End))
	}
	for _, tr := range cfg.Transitions {
		if _, ok := triggers[tr.Trigger]; !ok {
			return nil, kerr.New(kerr.Configuration, "fsm.NewDriver", fmt.Errorf("transition references unregistered trigger %q", tr.Trigger))
		}
		if auto, ok := tr.Next.(AutoMode); ok {
			for _, c := range auto.Candidates {
				if _, ok := triggers[c]; !ok {
					return nil, kerr.New(kerr.Configuration, "fsm.NewDriver", fmt.Errorf("auto transition from %q references unregistered candidate %q", tr.Trigger, c))
				}
			}
		}
	}
	if log == nil {
		log = slog.Default()
	}
	return &Driver{Config: cfg, Triggers: triggers, LLM: llm, Log: log}, nil
}

// Run drives the machine from Start to End, returning the accumulated
// MachineContext or a fatal error (spec §4.5 main loop, §3 invariant 7).
func (d *Driver) Run(ctx context.Context, ectx execctx.ExecutionContext, objective string) (*MachineContext, error) {
	state := &MachineContext{}
	state.SetBudget(d.Config.Model, d.Config.MaxContextTokens)
	current := d.Config.Start
	iterations := 0

	for {
		trigger, ok := d.Triggers[current]
		if !ok {
			return state, kerr.New(kerr.Runtime, "fsm.Run", fmt.Errorf("no trigger registered for %q", current))
		}

		d.Log.Debug("fsm: running trigger", "trigger", current, "iteration", iterations, "source", ectx.Source.ID)
		frameCtx := ectx.WithChildSource(trigger.Kind())
		_ = frameCtx.WriteKind(ctx, execctx.EventStarted, execctx.Event{Name: current})

		if err := trigger.Run(ctx, frameCtx, state, objective); err != nil {
			wrapped := kerr.New(kerr.Runtime, "fsm.Run", fmt.Errorf("trigger %q: %w", current, err))
			d.Log.Error("fsm: trigger failed", "trigger", current, "error", wrapped)
			_ = frameCtx.WriteKind(ctx, execctx.EventError, execctx.Event{Message: wrapped.Error()})
			return state, wrapped
		}
		_ = frameCtx.WriteKind(ctx, execctx.EventFinished, execctx.Event{})

		iterations++
		if d.Config.MaxIterations > 0 && iterations > d.Config.MaxIterations {
			err := kerr.New(kerr.Runtime, "fsm.Run", fmt.Errorf("exceeded max_iterations (%d)", d.Config.MaxIterations))
			d.Log.Error("fsm: max_iterations exceeded", "max_iterations", d.Config.MaxIterations)
			_ = ectx.WriteKind(ctx, execctx.EventError, execctx.Event{Message: err.Error()})
			return state, err
		}

		if current == d.Config.End {
			return state, nil
		}

		tr, ok := d.Config.transitionFor(current)
		if !ok {
			return state, kerr.New(kerr.Configuration, "fsm.Run", fmt.Errorf("no transition defined from %q", current))
		}

		switch mode := tr.Next.(type) {
		case AlwaysMode:
			current = mode.Next
			objective = ""

		case AutoMode:
			next, nextObjective, err := d.chooseNext(ctx, state, mode.Candidates)
			if err != nil {
				wrapped := kerr.New(kerr.Runtime, "fsm.Run", err)
				d.Log.Error("fsm: auto transition failed", "from", current, "error", wrapped)
				_ = ectx.WriteKind(ctx, execctx.EventError, execctx.Event{Message: wrapped.Error()})
				return state, wrapped
			}
			d.Log.Debug("fsm: auto transition chose", "from", current, "next", next)
			current = next
			objective = nextObjective

		case PlanMode:
			return state, kerr.New(kerr.Configuration, "fsm.Run", fmt.Errorf("plan transition on non-terminal trigger %q", current))

		default:
			return state, kerr.New(kerr.Configuration, "fsm.Run", fmt.Errorf("unrecognized transition mode for %q", current))
		}
	}
}

// transitionArgs is the struct every Auto-mode candidate tool's schema is
// reflected from (spec §4.5: each candidate tool requires an `objective`
// string argument).
type transitionArgs struct {
	Objective string `json:"objective" jsonschema:"required,description=Natural-language objective for this step."`
}

// chooseNext implements the Auto transition mode (spec §4.5 main loop step
// 2): it offers one tool per candidate (plus the implicit "end"), forces a
// tool call via CompleteRequired, and reads the chosen trigger name and
// objective off that call.
func (d *Driver) chooseNext(ctx context.Context, state *MachineContext, candidates []string) (string, string, error) {
	tools := make([]llmclient.ToolDefinition, 0, len(candidates)+1)
	seen := make(map[string]bool, len(candidates)+1)
	params := llmclient.ParametersFor(transitionArgs{})
	offer := func(name string) {
		if seen[name] {
			return
		}
		seen[name] = true
		tools = append(tools, llmclient.ToolDefinition{
			Name:        name,
			Description: fmt.Sprintf("Run the %q step next.", name),
			Parameters:  params,
		})
	}
	for _, c := range candidates {
		offer(c)
	}
	offer(d.Config.End)

	prompt := d.Config.AutoTransitionPrompt
	if prompt == "" {
		prompt = "Choose the next step by calling exactly one of the offered tools with its objective."
	}

	messages := append(state.BudgetedTrace(), llmclient.Message{Role: llmclient.RoleUser, Content: prompt})

	reply, _, err := d.LLM.CompleteRequired(ctx, messages, tools)
	if err != nil {
		return "", "", fmt.Errorf("fsm: auto transition LLM call failed: %w", err)
	}
	state.AppendMessage(reply)

	if len(reply.ToolCalls) != 1 {
		return "", "", fmt.Errorf("fsm: auto transition expected exactly one tool call, got %d", len(reply.ToolCalls))
	}

	call := reply.ToolCalls[0]
	objective, _ := call.Args["objective"].(string)
	if !seen[call.Name] {
		return "", "", fmt.Errorf("fsm: auto transition chose unoffered trigger %q", call.Name)
	}
	return call.Name, objective, nil
}
