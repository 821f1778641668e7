package execctx

// EventKind is the tagged-union discriminant for Event.Kind (spec §3).
type EventKind string

const (
	EventStarted         EventKind = "started"
	EventFinished        EventKind = "finished"
	EventUpdated         EventKind = "updated"
	EventProgress        EventKind = "progress"
	EventMessage         EventKind = "message"
	EventError           EventKind = "error"
	EventArtifactCreated EventKind = "artifact_created"
	EventVizGenerated    EventKind = "viz_generated"
	EventDataAppCreated  EventKind = "data_app_created"
)

// Event is a single append-only observation emitted during execution.
// Exactly one of the payload fields below is populated, selected by Kind;
// Go has no sum types, so this uses a flat-struct style for polymorphic
// payloads.
type Event struct {
	Source Source
	Kind   EventKind

	Name     string // Started
	Message  string // Finished, Message, Error
	Chunk    *Chunk // Updated
	Progress string // Progress

	Artifact   map[string]any // ArtifactCreated
	Viz        map[string]any // VizGenerated
	DataApp    map[string]any // DataAppCreated
}

// Merge implements the mergeable-item contract used by Topic mailboxes
// (spec §4.3). Only Updated events with a streaming, unfinished Chunk that
// share a Chunk.Key merge; everything else is a hard append.
func (e *Event) Merge(otherAny any) bool {
	other, ok := otherAny.(*Event)
	if !ok {
		return false
	}
	if e.Kind != EventUpdated || other.Kind != EventUpdated {
		return false
	}
	if e.Chunk == nil || other.Chunk == nil {
		return false
	}
	if e.Chunk.Finished {
		return false
	}
	if e.Chunk.Key != other.Chunk.Key {
		return false
	}
	e.Chunk.Delta = mergeOutput(e.Chunk.Delta, other.Chunk.Delta)
	e.Chunk.Finished = other.Chunk.Finished
	return true
}

func mergeOutput(a, b Output) Output {
	if a.Kind == OutputText && b.Kind == OutputText {
		return Output{Kind: OutputText, Text: a.Text + b.Text}
	}
	return b
}
