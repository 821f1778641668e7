package fsm

import (
	"sync"

	"github.com/oxy-run/oxy/pkg/execctx"
	"github.com/oxy-run/oxy/pkg/llmclient"
	"github.com/oxy-run/oxy/pkg/utils"
)

// Table is a materialized query/semantic-search result accumulated by a
// trigger (spec §3 MachineContext: "tables").
type Table struct {
	Name   string
	Rows   []map[string]any
	Schema []execctx.ColumnSchema
}

// Viz is one chart a Visualize trigger produced.
type Viz struct {
	ChartType string
	Params    map[string]any
	Score     float64
	Rationale string
}

// Insight is a natural-language finding an Insight trigger derived from
// the accumulated tables.
type Insight struct {
	Text string
}

// DataApp is a small app spec a BuildDataApp trigger assembled from prior
// artifacts.
type DataApp struct {
	Name string
	Spec map[string]any
}

// Automation is a saved, replayable program a SaveAutomation trigger
// persisted from the run's trace.
type Automation struct {
	Name string
	Spec map[string]any
}

// MachineContext is the FSM's mutable state (spec §3, §4.5): it
// accumulates artifacts and the conversation trace, and is mutated only by
// triggers via the capability methods below (the Go rendering of the
// spec's CollectViz/CollectInsights/PrepareData capability traits).
type MachineContext struct {
	mu sync.Mutex

	Tables      []Table
	Visualizations []Viz
	Insights    []Insight
	DataApps    []DataApp
	Automations []Automation
	Messages    []llmclient.Message

	budgetModel string
	maxTokens   int
	counter     *utils.TokenCounter
}

// SetBudget configures the context-window budget triggers should trim
// their prompts to, keyed to the model the run's LLM calls target. Called
// once by Driver.Run before the machine's first trigger executes. A
// maxTokens of 0 disables trimming (BudgetedTrace then behaves like Trace).
func (s *MachineContext) SetBudget(model string, maxTokens int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.budgetModel = model
	s.maxTokens = maxTokens
	s.counter = nil
}

// BudgetedTrace returns the accumulated conversation trimmed to the
// configured token budget, keeping the most recent messages (spec §5's
// ambient token-accounting concern, not a spec invariant: an unbounded
// trace would eventually exceed the provider's context window on long
// FSM runs). Triggers building an LLM prompt from history should call this
// instead of Trace.
func (s *MachineContext) BudgetedTrace() []llmclient.Message {
	s.mu.Lock()
	messages := append([]llmclient.Message(nil), s.Messages...)
	maxTokens := s.maxTokens
	model := s.budgetModel
	s.mu.Unlock()

	if maxTokens <= 0 {
		return messages
	}

	counter, err := s.tokenCounter(model)
	if err != nil {
		return messages
	}

	converted := make([]utils.Message, len(messages))
	for i, m := range messages {
		converted[i] = utils.Message{Role: string(m.Role), Content: m.Content}
	}
	fitted := counter.FitWithinLimit(converted, maxTokens)
	return messages[len(messages)-len(fitted):]
}

func (s *MachineContext) tokenCounter(model string) (*utils.TokenCounter, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.counter != nil {
		return s.counter, nil
	}
	counter, err := utils.NewTokenCounter(model)
	if err != nil {
		return nil, err
	}
	s.counter = counter
	return counter, nil
}

// CollectTable appends a Table artifact.
func (s *MachineContext) CollectTable(t Table) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Tables = append(s.Tables, t)
}

// CollectViz appends a Viz artifact (CollectViz capability).
func (s *MachineContext) CollectViz(v Viz) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Visualizations = append(s.Visualizations, v)
}

// CollectInsight appends an Insight artifact (CollectInsights capability).
func (s *MachineContext) CollectInsight(i Insight) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Insights = append(s.Insights, i)
}

// CollectDataApp appends a DataApp artifact.
func (s *MachineContext) CollectDataApp(d DataApp) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.DataApps = append(s.DataApps, d)
}

// CollectAutomation appends an Automation artifact.
func (s *MachineContext) CollectAutomation(a Automation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Automations = append(s.Automations, a)
}

// AppendMessage records one conversation-trace entry, shared by every
// trigger's LLM calls and by the driver's Auto transition choice so later
// triggers see the full history (PrepareData capability: triggers read
// this to build their own prompts).
func (s *MachineContext) AppendMessage(m llmclient.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Messages = append(s.Messages, m)
}

// Trace returns a snapshot of the accumulated conversation.
func (s *MachineContext) Trace() []llmclient.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]llmclient.Message(nil), s.Messages...)
}

// TableSnapshot returns a snapshot of the accumulated tables, used by the
// Visualize trigger's chart-scoring heuristic and the Insight trigger's
// prompt construction.
func (s *MachineContext) TableSnapshot() []Table {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Table(nil), s.Tables...)
}

// VizSnapshot returns a snapshot of the accumulated visualizations.
func (s *MachineContext) VizSnapshot() []Viz {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Viz(nil), s.Visualizations...)
}

// MergeFrom folds another MachineContext's artifacts and trace into s,
// used by SubflowTrigger to absorb a nested Driver run's results (spec
// §4.5 trigger contract: a trigger "may itself invoke sub-executables").
func (s *MachineContext) MergeFrom(other *MachineContext) {
	if other == nil {
		return
	}
	other.mu.Lock()
	tables := append([]Table(nil), other.Tables...)
	viz := append([]Viz(nil), other.Visualizations...)
	insights := append([]Insight(nil), other.Insights...)
	apps := append([]DataApp(nil), other.DataApps...)
	automations := append([]Automation(nil), other.Automations...)
	messages := append([]llmclient.Message(nil), other.Messages...)
	other.mu.Unlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.Tables = append(s.Tables, tables...)
	s.Visualizations = append(s.Visualizations, viz...)
	s.Insights = append(s.Insights, insights...)
	s.DataApps = append(s.DataApps, apps...)
	s.Automations = append(s.Automations, automations...)
	s.Messages = append(s.Messages, messages...)
}

// LastTable returns the most recently collected table, if any.
func (s *MachineContext) LastTable() (Table, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.Tables) == 0 {
		return Table{}, false
	}
	return s.Tables[len(s.Tables)-1], true
}
