// Package sse is the kernel's external-interface boundary (spec §6 "Event
// transport"): a chi-routed HTTP server that drains a run's event channel
// and streams it to a client as Server-Sent Events. Everything upstream of
// this package (the Driver, Executables, the event bus) is transport-
// agnostic; this is the one place wire format and HTTP concerns live,
// keeping transport adapters thin and separate from the execution core.
package sse

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/oxy-run/oxy/pkg/eventbus"
	"github.com/oxy-run/oxy/pkg/execctx"
)

// RunSource locates the event topic for a run, keyed by its root Source.ID.
// The launcher is expected to register one topic per run before the first
// client subscribes.
type RunSource interface {
	Topic(runID string) (*eventbus.Topic[execctx.Event], bool)
}

// Server streams execctx.Event from a RunSource over SSE.
type Server struct {
	runs RunSource
	log  *slog.Logger

	// KeepAlive is the interval between ": keep-alive" comments sent to
	// hold the connection open through idle proxies. Zero disables it.
	KeepAlive time.Duration
}

// New builds an SSE Server over runs.
func New(runs RunSource, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{runs: runs, log: log, KeepAlive: 15 * time.Second}
}

// Router assembles the chi mux exposing GET /runs/{runID}/events.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Get("/runs/{runID}/events", s.handleEvents)
	return r
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")
	topic, ok := s.runs.Topic(runID)
	if !ok {
		http.Error(w, fmt.Sprintf("sse: unknown run %q", runID), http.StatusNotFound)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "sse: streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	ctx := r.Context()
	backlog, live, err := topic.Subscribe(ctx)
	if err != nil {
		s.log.Error("sse: subscribe failed", "run", runID, "error", err)
		return
	}

	for _, e := range backlog {
		if err := writeEvent(w, e); err != nil {
			return
		}
	}
	flusher.Flush()

	var keepAlive <-chan time.Time
	if s.KeepAlive > 0 {
		ticker := time.NewTicker(s.KeepAlive)
		defer ticker.Stop()
		keepAlive = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-live:
			if !ok {
				return
			}
			if err := writeEvent(w, e); err != nil {
				return
			}
			flusher.Flush()
		case <-keepAlive:
			if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func writeEvent(w http.ResponseWriter, e execctx.Event) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", e.Kind, payload)
	return err
}

// WriterTopic adapts a single eventbus.Topic into an execctx.Writer so a
// Driver/Executable run can publish straight into the topic this package
// streams from.
func WriterTopic(topic *eventbus.Topic[execctx.Event]) execctx.Writer {
	return execctx.WriterFunc(func(ctx context.Context, e execctx.Event) error {
		return topic.Send(ctx, e)
	})
}
