package executable

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/oxy-run/oxy/pkg/execctx"
	"github.com/oxy-run/oxy/pkg/kerr"
)

// Checkpoint wraps Inner so that, if a checkpoint exists for the current
// frame's input, its stored events are replayed onto the writer and its
// stored output returned instead of re-executing Inner (spec §4.1, §4.2
// replay algorithm). The inner execution's writer is wrapped in a
// capturing buffer so emitted events are simultaneously forwarded live
// and journaled.
type Checkpoint[I, R any] struct {
	Inner Executable[I, R]
}

func NewCheckpoint[I, R any](inner Executable[I, R]) *Checkpoint[I, R] {
	return &Checkpoint[I, R]{Inner: inner}
}

func (c *Checkpoint[I, R]) Execute(ctx context.Context, ectx execctx.ExecutionContext, input I) (R, error) {
	var zero R
	if ectx.Checkpoint == nil {
		return c.Inner.Execute(ctx, ectx, input)
	}

	hash, err := hashInput(input)
	if err != nil {
		return zero, kerr.New(kerr.Serialization, "checkpoint.hash", err)
	}

	storedHash, outputBytes, events, found, err := ectx.Checkpoint.ReadCheckpoint(ctx)
	if err != nil {
		return zero, kerr.New(kerr.DB, "checkpoint.read", err)
	}
	if found && storedHash == hash {
		for _, e := range events {
			if err := ectx.Writer.Write(ctx, e); err != nil {
				return zero, err
			}
		}
		var output R
		if len(outputBytes) > 0 {
			if err := json.Unmarshal(outputBytes, &output); err != nil {
				return zero, kerr.New(kerr.Serialization, "checkpoint.decode", err)
			}
		}
		return output, nil
	}

	capture := execctx.NewBufferingWriter(ectx.Writer)
	innerCtx := ectx.WrapWriter(capture)
	output, err := c.Inner.Execute(ctx, innerCtx, input)
	if err != nil {
		return zero, err
	}

	outputBytes, err = json.Marshal(output)
	if err != nil {
		return zero, kerr.New(kerr.Serialization, "checkpoint.encode", err)
	}
	if err := ectx.Checkpoint.WriteCheckpoint(ctx, hash, outputBytes, capture.Events); err != nil {
		return zero, kerr.New(kerr.DB, "checkpoint.write", err)
	}
	return output, nil
}

func hashInput(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("canonicalize input: %w", err)
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:]), nil
}
