// Package oxy provides the Oxy kernel: an executable algebra for building
// checkpointable, resumable, event-driven AI agent runtimes.
//
// Oxy is not an agent framework in the YAML-configuration sense. It is a
// small set of composable primitives — an Executable algebra, a checkpoint
// manager, an event bus, a layered template renderer, an agentic FSM driver,
// a tool registry, and a lenient OpenAI-compatible client core — that a
// higher-level agent runtime is built on top of.
//
// # Quick Start
//
// Import the kernel packages directly:
//
//	import (
//	    "github.com/oxy-run/oxy/pkg/executable"
//	    "github.com/oxy-run/oxy/pkg/execctx"
//	    "github.com/oxy-run/oxy/pkg/checkpoint"
//	)
//
// Build an Executable, wrap it in retry/fallback/checkpoint combinators, and
// run it against an ExecutionContext carrying a writer, a renderer, and an
// optional checkpoint manager:
//
//	store := checkpoint.NewMemStore()
//	frames := checkpoint.NewManager(store, nil, nil)
//	retried := executable.NewRetry[Input, Output](myExecutable,
//	    executable.NewExponentialBackoff(time.Second, 30*time.Second, 3))
//	root := executable.NewCheckpointRoot[Input, Output](retried, store, frames,
//	    executable.LastRunFailed{}, "my-run")
//
//	result, err := root.Execute(ctx, execCtx, input)
//
// # Key Concepts
//
//   - Executable[I,R]: the unit of work. Combinators (Map, Concurrency,
//     Consistency, Fallback, Retry, Memo, Checkpoint) wrap an Executable to
//     add behavior without changing its contract.
//   - ExecutionContext: the ambient record threaded through every Execute
//     call — event writer, renderer, config manager, and checkpoint frame.
//   - Checkpoint / CheckpointRoot: journal events per execution frame so a
//     failed run can resume from its last durable point instead of
//     restarting from scratch.
//   - Topic / Broadcaster: an in-process event bus with bounded inbound queues
//     and tail-compacting retained state, used to fan events out to
//     subscribers (UI streams, loggers, checkpoint writers).
//   - Renderer: a layered template environment where child contexts overlay
//     a shared global context without mutating it.
//   - Trigger / MachineContext: the agentic FSM driver — a graph of
//     triggers an LLM navigates by tool-call selection, with deterministic
//     pre-filtering before the LLM ever sees the menu.
//   - ToolExecutor: a process-global, type-routed registry with no-op
//     duplicate registration (the first registration under a name is kept;
//     later ones are ignored with a logged warning).
//
// # Status
//
// Oxy is under active development. Interfaces in pkg/executable and
// pkg/execctx are the most stable; pkg/fsm trigger types are still
// accumulating concrete triggers.
//
// # License
//
// See LICENSE.md.
package oxy
