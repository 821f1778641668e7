package launcher

import (
	"context"
	"fmt"

	"github.com/oxy-run/oxy/pkg/config"
	"github.com/oxy-run/oxy/pkg/execctx"
	"github.com/oxy-run/oxy/pkg/fsm"
	"github.com/oxy-run/oxy/pkg/llmclient"
)

// defaultMaxRetries bounds the per-trigger retry loop for Query,
// SemanticQuery, and Visualize triggers (spec §4.5) when an agentic
// workflow config doesn't override it via an Open Question decision (see
// DESIGN.md): three retries (four attempts in all) balance giving the LLM
// room to recover from a bad query against bounding a single trigger's
// worst-case cost.
const defaultMaxRetries = 3

// RunAgenticWorkflow resolves name through config.Manager, builds the
// fixed fsm.Driver trigger set around the resolved llmclient.Client and
// toolregistry.Registry, and drives it to completion (spec §4.5).
func (l *Launcher) RunAgenticWorkflow(ctx context.Context, runID, name, objective string) (*fsm.MachineContext, error) {
	resolved, err := l.manager.ResolveAgenticWorkflow(name)
	if err != nil {
		return nil, fmt.Errorf("launcher: resolve agentic workflow %q: %w", name, err)
	}
	wfCfg, ok := resolved.(*config.AgenticWorkflowConfig)
	if !ok {
		return nil, fmt.Errorf("launcher: agentic workflow %q resolved to unexpected type %T", name, resolved)
	}

	llm, err := l.LLM(wfCfg.Model)
	if err != nil {
		return nil, fmt.Errorf("launcher: agentic workflow %q: %w", name, err)
	}

	cfg := fsm.AgenticConfig{
		Model:                 wfCfg.Model,
		Instruction:           wfCfg.Instruction,
		Start:                 wfCfg.Start,
		End:                   wfCfg.End,
		MaxIterations:         wfCfg.MaxIterations,
		AutoTransitionPrompt:  wfCfg.AutoTransitionPrompt,
	}
	for _, t := range wfCfg.Transitions {
		cfg.Transitions = append(cfg.Transitions, fsm.Transition{
			Trigger: t.Trigger,
			Next:    transitionMode(t),
		})
	}

	collection := l.collectionFor(wfCfg.DocumentStore)
	driver, err := fsm.NewDriver(cfg, l.triggers(llm, collection), llm, l.log)
	if err != nil {
		return nil, fmt.Errorf("launcher: agentic workflow %q: %w", name, err)
	}

	ectx := l.NewRun(execctx.KindFSM, runID)
	defer l.CloseRun(ectx.Source.ID)

	return driver.Run(ctx, ectx, objective)
}

// transitionMode maps one config.TransitionConfig row to the
// fsm.TransitionMode it declares (spec §4.5 "Transition modes"): exactly
// one of Next/Auto/Plan is set per row.
func transitionMode(t config.TransitionConfig) fsm.TransitionMode {
	switch {
	case t.Plan:
		return fsm.Plan()
	case len(t.Auto) > 0:
		return fsm.Auto(t.Auto...)
	default:
		return fsm.Always(t.Next)
	}
}

// triggers builds the fixed set of fsm.Trigger implementations every
// agentic workflow config is defined against (spec §4.5 lists nine by
// name; the kernel does not let configs register custom ones). subflow is
// deliberately absent: it needs a pre-built nested *fsm.Driver, which has
// no generic config surface yet (see DESIGN.md).
func (l *Launcher) triggers(llm *llmclient.Client, collection string) map[string]fsm.Trigger {
	return map[string]fsm.Trigger{
		"start":           fsm.StartTrigger{},
		"end":             fsm.EndTrigger{},
		"query":           &fsm.QueryTrigger{LLM: llm, Tools: l.tools, MaxRetries: defaultMaxRetries},
		"semantic_query":  &fsm.SemanticQueryTrigger{LLM: llm, Tools: l.tools, Collection: collection, MaxRetries: defaultMaxRetries},
		"insight":         &fsm.InsightTrigger{LLM: llm},
		"visualize":       &fsm.VisualizeTrigger{LLM: llm, MaxRetries: defaultMaxRetries},
		"build_data_app":  &fsm.BuildDataAppTrigger{LLM: llm},
		"save_automation": fsm.SaveAutomationTrigger{},
	}
}

// collectionFor resolves a document store name to the vector collection
// its vectorsearch executor was registered against, falling back to the
// document store's own config key when Collection is unset.
func (l *Launcher) collectionFor(documentStore string) string {
	store, ok := l.cfg.DocumentStores[documentStore]
	if !ok || store == nil {
		return documentStore
	}
	if store.Collection != "" {
		return store.Collection
	}
	return documentStore
}
