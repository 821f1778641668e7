package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

type TracerConfig struct {
	Enabled      bool    `yaml:"enabled"`
	ExporterType string  `yaml:"exporter_type"`
	EndpointURL  string  `yaml:"endpoint_url"`
	SamplingRate float64 `yaml:"sampling_rate"`
	ServiceName  string  `yaml:"service_name"`
}

func InitGlobalTracer(ctx context.Context, cfg TracerConfig) (trace.TracerProvider, error) {
	if !cfg.Enabled {
		return noop.NewTracerProvider(), nil
	}

	var exporter sdktrace.SpanExporter
	var err error

	exporter, err = otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(cfg.EndpointURL),
		otlptracegrpc.WithInsecure(),
	)

	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP exporter: %w", err)
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithSampler(sdktrace.TraceIDRatioBased(cfg.SamplingRate)),
		sdktrace.WithResource(res),
	)

	otel.SetTracerProvider(tp)
	return tp, nil
}

func GetTracer(name string) trace.Tracer {
	return otel.Tracer(name)
}

// TracerOption configures a Tracer built by NewTracer.
type TracerOption func(*Tracer)

// WithDebugExporter attaches an in-memory span exporter for UI inspection.
func WithDebugExporter(exp *DebugExporter) TracerOption {
	return func(t *Tracer) { t.debugExporter = exp }
}

// WithCapturePayloads enables recording full LLM request/response payloads
// on spans. Off by default since payloads can be large.
func WithCapturePayloads(capture bool) TracerOption {
	return func(t *Tracer) { t.capturePayloads = capture }
}

// Tracer wraps an OpenTelemetry tracer with the kernel's span conventions
// (agent run, LLM call, tool execution, memory search) and an optional
// in-memory debug exporter.
type Tracer struct {
	tracer          trace.Tracer
	provider        *sdktrace.TracerProvider
	debugExporter   *DebugExporter
	capturePayloads bool
}

// NewTracer builds a Tracer from TracingConfig, exporting to the configured
// OTLP collector and optionally mirroring spans into a DebugExporter.
func NewTracer(ctx context.Context, cfg *TracingConfig, opts ...TracerOption) (*Tracer, error) {
	t := &Tracer{}
	for _, opt := range opts {
		opt(t)
	}

	exporter, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(cfg.Endpoint),
		otlptracegrpc.WithInsecure(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP exporter: %w", err)
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(cfg.ServiceVersion),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	processors := []sdktrace.TracerProviderOption{
		sdktrace.WithBatcher(exporter),
		sdktrace.WithSampler(sdktrace.TraceIDRatioBased(cfg.SamplingRate)),
		sdktrace.WithResource(res),
	}
	if t.debugExporter != nil {
		processors = append(processors, sdktrace.WithSpanProcessor(sdktrace.NewSimpleSpanProcessor(t.debugExporter)))
	}

	tp := sdktrace.NewTracerProvider(processors...)
	otel.SetTracerProvider(tp)

	t.provider = tp
	t.tracer = tp.Tracer(cfg.ServiceName)
	return t, nil
}

// Start begins a span with the given name.
func (t *Tracer) Start(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, name, opts...)
}

// StartAgentRun begins a span for one agentic-loop run.
func (t *Tracer) StartAgentRun(ctx context.Context, agentName, agentType, sessionID, taskID string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, SpanAgentRun, trace.WithAttributes(
		attribute.String(AttrAgentName, agentName),
		attribute.String(AttrAgentLLM, agentType),
	))
}

// StartLLMCall begins a span for one LLM request.
func (t *Tracer) StartLLMCall(ctx context.Context, model string, maxTokens int, temperature, topP float64) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, SpanLLMCall, trace.WithAttributes(
		attribute.String(AttrLLMModel, model),
	))
}

// StartToolExecution begins a span for one tool dispatch.
func (t *Tracer) StartToolExecution(ctx context.Context, toolName, agentName, sessionID string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, SpanToolExecution, trace.WithAttributes(
		attribute.String(AttrToolName, toolName),
		attribute.String(AttrAgentName, agentName),
	))
}

// StartMemorySearch begins a span for one memory/vector lookup.
func (t *Tracer) StartMemorySearch(ctx context.Context, indexType string, topK int) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, SpanMemorySearch, trace.WithAttributes(
		attribute.String("memory.index_type", indexType),
	))
}

// AddLLMUsage records token usage on an in-flight span.
func (t *Tracer) AddLLMUsage(span trace.Span, inputTokens, outputTokens int) {
	span.SetAttributes(
		attribute.Int(AttrLLMTokensInput, inputTokens),
		attribute.Int(AttrLLMTokensOutput, outputTokens),
	)
}

// AddLLMFinishReason records why an LLM call stopped generating.
func (t *Tracer) AddLLMFinishReason(span trace.Span, reason string) {
	span.SetAttributes(attribute.String("llm.finish_reason", reason))
}

// AddPayload attaches a request/response payload to a span when capture is enabled.
func (t *Tracer) AddPayload(span trace.Span, key, payload string) {
	if !t.capturePayloads {
		return
	}
	span.SetAttributes(attribute.String(key, payload))
}

// AddToolPayload attaches tool call arguments/results to a span when capture is enabled.
func (t *Tracer) AddToolPayload(span trace.Span, key, payload string) {
	t.AddPayload(span, key, payload)
}

// RecordError records an error on the span and marks it as failed.
func (t *Tracer) RecordError(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetAttributes(attribute.String(AttrErrorType, err.Error()))
}

// DebugExporter returns the attached in-memory exporter, or nil.
func (t *Tracer) DebugExporter() *DebugExporter {
	if t == nil {
		return nil
	}
	return t.debugExporter
}

// Shutdown flushes and stops the underlying tracer provider.
func (t *Tracer) Shutdown(ctx context.Context) error {
	if t == nil || t.provider == nil {
		return nil
	}
	return t.provider.Shutdown(ctx)
}
