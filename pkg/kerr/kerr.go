// Package kerr implements the kernel's error taxonomy (spec §7): a small
// set of error kinds, not a sprawling type hierarchy, wrapped the way
// pkg/checkpoint and pkg/config already wrap errors with fmt.Errorf("%w").
package kerr

import (
	"errors"
	"fmt"
)

// Kind classifies a KernelError for propagation-policy decisions
// (Retry, Fallback, and the FSM's per-trigger retry loop all switch on Kind).
type Kind string

const (
	// Configuration is fatal at launch: bad YAML, missing model/database/tool
	// reference, template parse failure, schema validation failure.
	Configuration Kind = "configuration"
	// Argument is a malformed caller-supplied input. Returned to the caller,
	// never journaled as a workflow event.
	Argument Kind = "argument"
	// Runtime covers LLM tool-call parse failures, missing tool returns, FSM
	// iteration overflow, and similar recoverable-or-not-depending-on-context
	// failures. Emitted as an Error event and propagated.
	Runtime Kind = "runtime"
	// IO is a file or network failure. Retriable via the Retry combinator.
	IO Kind = "io"
	// Serialization is a JSON/YAML parse failure on a dynamic payload
	// (tool-call arguments, checkpoint blobs). Fatal when it originates from
	// a checkpoint blob; otherwise treated as Runtime.
	Serialization Kind = "serialization"
	// DB is a checkpoint/storage-layer failure. Aborts the current frame but
	// does not poison previously-committed frames.
	DB Kind = "db"
)

// Error is the kernel's single error type: a Kind tag plus a wrapped cause.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// New wraps err with a Kind and an operation label.
func New(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Is reports whether err is a *Error of the given kind, looking through
// wrapping via errors.As.
func Is(err error, kind Kind) bool {
	var kerr *Error
	if errors.As(err, &kerr) {
		return kerr.Kind == kind
	}
	return false
}

// Retriable reports whether a Retry combinator should attempt err again.
// IO and Runtime errors are retriable; every other kind (Configuration,
// Argument, Serialization, DB) and any error that is not a *Error are not.
func Retriable(err error) bool {
	var kerr *Error
	if !errors.As(err, &kerr) {
		return false
	}
	switch kerr.Kind {
	case IO, Runtime:
		return true
	default:
		return false
	}
}
