// Package telemetry traces task runs with OpenTelemetry and forwards span
// lifecycle events to a ports.Renderer.
package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.trai.ch/press/internal/core/ports"
)

var _ ports.Tracer = (*OTelTracer)(nil)

// NewProvider creates a tracer provider whose spans are bridged to renderer
// and installs it as the global provider.
func NewProvider(renderer ports.Renderer) *sdktrace.TracerProvider {
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(NewBridge(renderer)))
	otel.SetTracerProvider(tp)
	return tp
}

// NewRendererTracer creates a tracer with its own provider bridged to
// renderer. The global provider is left untouched.
func NewRendererTracer(renderer ports.Renderer) *OTelTracer {
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(NewBridge(renderer)))
	return &OTelTracer{
		tracer:   tp.Tracer(InstrumentationName),
		renderer: renderer,
	}
}

// OTelTracer is a concrete implementation of ports.Tracer using OpenTelemetry.
type OTelTracer struct {
	tracer   trace.Tracer
	renderer ports.Renderer
}

// NewOTelTracer creates a new OTelTracer with the given instrumentation name.
// Plans and span output are sent to renderer when it is not nil.
func NewOTelTracer(name string, renderer ports.Renderer) *OTelTracer {
	return &OTelTracer{
		tracer:   otel.Tracer(name),
		renderer: renderer,
	}
}

// Start creates a new span.
func (t *OTelTracer) Start(ctx context.Context, name string, opts ...ports.SpanOption) (context.Context, ports.Span) {
	cfg := &ports.SpanConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	ctx, span := t.tracer.Start(ctx, name)
	if cfg.Category != "" {
		span.SetAttributes(attribute.String("press.category", cfg.Category))
	}

	return ctx, &OTelSpan{span: span, renderer: t.renderer}
}

// EmitPlan records the planned tasks on the current span and announces them to the renderer.
func (t *OTelTracer) EmitPlan(ctx context.Context, taskNames []string, target string) {
	span := trace.SpanFromContext(ctx)
	if span.IsRecording() {
		span.AddEvent("plan_emitted", trace.WithAttributes(
			attribute.StringSlice("tasks", taskNames),
			attribute.String("target", target),
		))
	}
	if t.renderer != nil {
		t.renderer.OnPlanEmit(taskNames, target)
	}
}

// OTelSpan is a concrete implementation of ports.Span using OpenTelemetry.
type OTelSpan struct {
	span     trace.Span
	renderer ports.Renderer
}

// End completes the span.
func (s *OTelSpan) End() {
	s.span.End()
}

// RecordError records an error for the span.
func (s *OTelSpan) RecordError(err error) {
	s.span.RecordError(err)
	s.span.SetStatus(codes.Error, err.Error())
}

// SetAttribute adds a key-value pair to the span.
func (s *OTelSpan) SetAttribute(key string, value any) {
	switch v := value.(type) {
	case string:
		s.span.SetAttributes(attribute.String(key, v))
	case int:
		s.span.SetAttributes(attribute.Int(key, v))
	case int64:
		s.span.SetAttributes(attribute.Int64(key, v))
	case float64:
		s.span.SetAttributes(attribute.Float64(key, v))
	case bool:
		s.span.SetAttributes(attribute.Bool(key, v))
	case []string:
		s.span.SetAttributes(attribute.StringSlice(key, v))
	default:
		s.span.SetAttributes(attribute.String(key, fmt.Sprintf("%v", v)))
	}
}

// Write satisfies io.Writer. Output goes to the renderer, or becomes a span
// event when there is none.
func (s *OTelSpan) Write(p []byte) (int, error) {
	if s.renderer != nil {
		data := make([]byte, len(p))
		copy(data, p)
		s.renderer.OnTaskLog(s.span.SpanContext().SpanID().String(), data)
		return len(p), nil
	}
	s.span.AddEvent("log", trace.WithAttributes(attribute.String("message", string(p))))
	return len(p), nil
}
