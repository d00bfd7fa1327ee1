package helper

import (
	"context"
	"sync"

	"github.com/AntonStoeckl/library-lending-go/lending"
)

// TracingCollectorSpy is a TracingCollector implementation that captures spans for testing.
type TracingCollectorSpy struct {
	spans []*SpanSpy
	mu    sync.Mutex
}

// SpanSpy records one started span and its outcome.
type SpanSpy struct {
	Name       string
	StartAttrs map[string]string
	Status     string
	EndAttrs   map[string]string
	Finished   bool
}

// SetStatus implements the lending.SpanContext interface.
func (s *SpanSpy) SetStatus(status string) {
	s.Status = status
}

// AddAttribute implements the lending.SpanContext interface.
func (s *SpanSpy) AddAttribute(key, value string) {
	if s.EndAttrs == nil {
		s.EndAttrs = make(map[string]string)
	}
	s.EndAttrs[key] = value
}

// NewTracingCollectorSpy creates a new TracingCollectorSpy.
func NewTracingCollectorSpy() *TracingCollectorSpy {
	return &TracingCollectorSpy{}
}

// StartSpan implements the lending.TracingCollector interface.
func (t *TracingCollectorSpy) StartSpan(ctx context.Context, name string, attrs map[string]string) (context.Context, lending.SpanContext) {
	t.mu.Lock()
	defer t.mu.Unlock()

	span := &SpanSpy{
		Name:       name,
		StartAttrs: copyLabels(attrs),
	}
	t.spans = append(t.spans, span)

	return ctx, span
}

// FinishSpan implements the lending.TracingCollector interface.
func (t *TracingCollectorSpy) FinishSpan(spanCtx lending.SpanContext, status string, attrs map[string]string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if span, ok := spanCtx.(*SpanSpy); ok {
		span.Status = status
		span.Finished = true

		for k, v := range attrs {
			span.AddAttribute(k, v)
		}
	}
}

// GetSpans returns a copy of all captured spans.
func (t *TracingCollectorSpy) GetSpans() []*SpanSpy {
	t.mu.Lock()
	defer t.mu.Unlock()

	spans := make([]*SpanSpy, len(t.spans))
	copy(spans, t.spans)

	return spans
}

// HasFinishedSpan checks for a finished span with the given name and status.
func (t *TracingCollectorSpy) HasFinishedSpan(name string, status string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, span := range t.spans {
		if span.Name == name && span.Status == status && span.Finished {
			return true
		}
	}

	return false
}
