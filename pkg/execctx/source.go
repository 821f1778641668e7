package execctx

import "github.com/google/uuid"

// Kind labels a Source's frame class. Spec §3 lists "workflow", "agent",
// "query", "visualize" as examples; the kernel does not close this set.
type Kind string

const (
	KindWorkflow  Kind = "workflow"
	KindAgent     Kind = "agent"
	KindQuery     Kind = "query"
	KindVisualize Kind = "visualize"
	KindInsight   Kind = "insight"
	KindSubflow   Kind = "subflow"
	KindDataApp   Kind = "data_app"
	KindAutomation Kind = "automation"
	KindSemantic  Kind = "semantic_query"
	KindFSM       Kind = "fsm"
)

// Source identifies the emitter of an Event (spec §3 invariant 1: every
// event's Source ancestry, followed via ParentID, terminates at a root
// frame created by the launcher).
type Source struct {
	ID       string
	Kind     Kind
	ParentID string
}

// NewRootSource creates a root Source. If id is empty a fresh UUID is
// generated, matching spec §6 "Run identity": the launcher accepts an
// optional caller-supplied root source_id, else generates one.
func NewRootSource(id string, kind Kind) Source {
	if id == "" {
		id = uuid.NewString()
	}
	return Source{ID: id, Kind: kind}
}

// Child derives a new Source whose ParentID is s.ID, preserving invariant 1.
func (s Source) Child(kind Kind) Source {
	return Source{ID: uuid.NewString(), Kind: kind, ParentID: s.ID}
}
