package telemetry

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.trai.ch/press/internal/core/ports"
)

var _ sdktrace.SpanProcessor = (*Bridge)(nil)

// Names used by Span.RecordError.
const (
	exceptionEvent   = "exception"
	exceptionMessage = "exception.message"
)

// errTaskFailed is reported for failed spans that carry no message.
var errTaskFailed = errors.New("task failed")

// Bridge is a span processor that turns task spans into renderer events.
// A span's ID identifies the task run towards the renderer.
type Bridge struct {
	renderer ports.Renderer
}

// NewBridge returns a Bridge feeding renderer. A nil renderer drops every event.
func NewBridge(renderer ports.Renderer) *Bridge {
	return &Bridge{renderer: renderer}
}

// OnStart announces the task run.
func (b *Bridge) OnStart(parent context.Context, s sdktrace.ReadWriteSpan) {
	if b.renderer == nil || !s.SpanContext().IsValid() {
		return
	}
	b.renderer.OnTaskStart(s.SpanContext().SpanID().String(), parentSpanID(parent), s.Name(), s.StartTime())
}

// OnEnd reports the outcome of the task run.
func (b *Bridge) OnEnd(s sdktrace.ReadOnlySpan) {
	if b.renderer == nil || !s.SpanContext().IsValid() {
		return
	}
	b.renderer.OnTaskComplete(s.SpanContext().SpanID().String(), s.EndTime(), spanError(s))
}

// ForceFlush does nothing; events are delivered synchronously.
func (b *Bridge) ForceFlush(_ context.Context) error {
	return nil
}

// Shutdown does nothing.
func (b *Bridge) Shutdown(_ context.Context) error {
	return nil
}

func parentSpanID(ctx context.Context) string {
	if sc := trace.SpanFromContext(ctx).SpanContext(); sc.IsValid() {
		return sc.SpanID().String()
	}
	return ""
}

// spanError rebuilds the error of a failed span from its status, falling back
// to the last recorded exception.
func spanError(s sdktrace.ReadOnlySpan) error {
	if s.Status().Code != codes.Error {
		return nil
	}
	if desc := s.Status().Description; desc != "" {
		return errors.New(desc)
	}
	events := s.Events()
	for i := len(events) - 1; i >= 0; i-- {
		if events[i].Name != exceptionEvent {
			continue
		}
		for _, attr := range events[i].Attributes {
			if string(attr.Key) == exceptionMessage && attr.Value.AsString() != "" {
				return errors.New(attr.Value.AsString())
			}
		}
	}
	return errTaskFailed
}
