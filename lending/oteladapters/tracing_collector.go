package oteladapters

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/AntonStoeckl/library-lending-go/lending"
)

// TracingCollector implements lending.TracingCollector using the OpenTelemetry tracing API.
// It creates spans for store and command handler operations and propagates trace
// context through the returned context.
type TracingCollector struct {
	tracer trace.Tracer
}

// NewTracingCollector creates a tracing collector from an OpenTelemetry tracer.
// The tracer should come from your TracerProvider.
func NewTracingCollector(tracer trace.Tracer) *TracingCollector {
	return &TracingCollector{tracer: tracer}
}

// StartSpan starts an OpenTelemetry span with the given name and attributes.
func (t *TracingCollector) StartSpan(ctx context.Context, name string, attrs map[string]string) (context.Context, lending.SpanContext) {
	spanOptions := make([]trace.SpanStartOption, 0, len(attrs))
	for key, value := range attrs {
		spanOptions = append(spanOptions, trace.WithAttributes(attribute.String(key, value)))
	}

	spanCtx, span := t.tracer.Start(ctx, name, spanOptions...)

	return spanCtx, &OTelSpanContext{span: span}
}

// FinishSpan completes a span with the given status and final attributes.
// Span contexts not created by this collector are ignored.
func (t *TracingCollector) FinishSpan(spanCtx lending.SpanContext, status string, attrs map[string]string) {
	otelSpanCtx, ok := spanCtx.(*OTelSpanContext)
	if !ok {
		return
	}

	for key, value := range attrs {
		otelSpanCtx.span.SetAttributes(attribute.String(key, value))
	}

	otelSpanCtx.setSpanStatus(status)
	otelSpanCtx.span.End()
}

var _ lending.TracingCollector = (*TracingCollector)(nil)

// OTelSpanContext implements lending.SpanContext by wrapping an OpenTelemetry span.
type OTelSpanContext struct {
	span trace.Span
}

// SetStatus sets the span status from a generic status string.
func (s *OTelSpanContext) SetStatus(status string) {
	s.setSpanStatus(status)
}

// AddAttribute adds a string attribute to the span.
func (s *OTelSpanContext) AddAttribute(key, value string) {
	s.span.SetAttributes(attribute.String(key, value))
}

// setSpanStatus maps the status strings used by the store and the command handlers
// to OpenTelemetry status codes. Domain outcomes like a rejected command or a
// missing record are not infrastructure failures and are recorded as an attribute.
func (s *OTelSpanContext) setSpanStatus(status string) {
	switch status {
	case "ok", "success":
		s.span.SetStatus(codes.Ok, "")
	case "error", "failed":
		s.span.SetStatus(codes.Error, "Operation failed")
	case "canceled", "cancelled":
		s.span.SetStatus(codes.Error, "Operation canceled")
	case "timeout":
		s.span.SetStatus(codes.Error, "Operation timed out")
	case "conflict", "storage_conflict":
		s.span.SetStatus(codes.Error, "Storage conflict")
	default:
		s.span.SetAttributes(attribute.String("status", status))
	}
}

var _ lending.SpanContext = (*OTelSpanContext)(nil)
