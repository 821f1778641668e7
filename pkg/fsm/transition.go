package fsm

// TransitionMode selects how the driver picks the next trigger once the
// current one finishes (spec §4.5 "Transition modes").
type TransitionMode interface {
	isTransitionMode()
}

// AlwaysMode fixes the next trigger unconditionally.
type AlwaysMode struct{ Next string }

func (AlwaysMode) isTransitionMode() {}

// Always builds an AlwaysMode transition.
func Always(next string) AlwaysMode { return AlwaysMode{Next: next} }

// AutoMode offers the LLM a menu of candidate triggers plus the implicit
// "end" and lets it choose, via a required tool call, which runs next.
type AutoMode struct{ Candidates []string }

func (AutoMode) isTransitionMode() {}

// Auto builds an AutoMode transition over the given candidate trigger names.
func Auto(candidates ...string) AutoMode { return AutoMode{Candidates: candidates} }

// PlanMode defers to the trigger's own internal termination decision; used
// only on the "end" trigger's transition entry, which the driver's main
// loop never actually consults (it terminates on reaching End first).
type PlanMode struct{}

func (PlanMode) isTransitionMode() {}

// Plan builds a PlanMode transition.
func Plan() PlanMode { return PlanMode{} }

// Transition pairs a trigger name with the mode that picks what runs after it.
type Transition struct {
	Trigger string
	Next    TransitionMode
}

// AgenticConfig is the FSM shape (spec §3 "AgenticConfig").
type AgenticConfig struct {
	Model                string
	Instruction          string
	Start                string
	End                  string
	Transitions          []Transition
	MaxIterations        int
	AutoTransitionPrompt string

	// MaxContextTokens bounds how much of the conversation trace triggers
	// and the driver's Auto transition choice include in a single LLM
	// call (pkg/utils.TokenCounter-backed; see MachineContext.SetBudget).
	// Zero disables trimming.
	MaxContextTokens int
}

func (c AgenticConfig) transitionFor(trigger string) (Transition, bool) {
	for _, t := range c.Transitions {
		if t.Trigger == trigger {
			return t, true
		}
	}
	return Transition{}, false
}
