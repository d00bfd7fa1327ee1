package postgresengine

import (
	"context"
	"errors"
	"time"

	"github.com/AntonStoeckl/library-lending-go/lending"
)

const (
	metricOperationDuration = "lendingstore_operation_duration_seconds"
	metricStorageConflicts  = "lendingstore_storage_conflicts_total"

	spanNameCreateLoan = "lendingstore.create_loan"
	spanNameReturnLoan = "lendingstore.return_loan"

	spanAttrOperation = "operation"

	operationCreateLoan = "create_loan"
	operationReturnLoan = "return_loan"

	statusSuccess  = "success"
	statusError    = "error"
	statusConflict = "conflict"
	statusRejected = "rejected"
)

// statusFromError maps an operation outcome to a span/metric status label.
// Rule violations and not-found outcomes are well-formed negative results,
// not defects, and are labeled separately from infrastructure errors.
func statusFromError(err error) string {
	switch {
	case err == nil:
		return statusSuccess
	case errors.Is(err, lending.ErrStorageConflict):
		return statusConflict
	case errors.Is(err, lending.ErrRuleViolation), errors.Is(err, lending.ErrNotFound):
		return statusRejected
	default:
		return statusError
	}
}

// startOperationSpan starts a tracing span if the tracing collector is configured.
func (s Store) startOperationSpan(ctx context.Context, spanName string, operation string) (context.Context, lending.SpanContext) {
	if s.tracingCollector != nil {
		return s.tracingCollector.StartSpan(ctx, spanName, map[string]string{spanAttrOperation: operation})
	}

	return ctx, nil
}

// finishOperationSpan finishes a tracing span if the tracing collector is configured.
func (s Store) finishOperationSpan(spanCtx lending.SpanContext, status string) {
	if s.tracingCollector != nil && spanCtx != nil {
		s.tracingCollector.FinishSpan(spanCtx, status, nil)
	}
}

// recordOperationDuration records the duration metric for one loan protocol
// execution, using the context-aware collector when available.
func (s Store) recordOperationDuration(ctx context.Context, operation string, status string, duration time.Duration) {
	if s.metricsCollector == nil {
		return
	}

	labels := map[string]string{
		spanAttrOperation: operation,
		"status":          status,
	}

	if contextualCollector, ok := s.metricsCollector.(lending.ContextualMetricsCollector); ok {
		contextualCollector.RecordDurationContext(ctx, metricOperationDuration, duration, labels)
	} else {
		s.metricsCollector.RecordDuration(metricOperationDuration, duration, labels)
	}
}

// recordStorageConflict counts a detected storage conflict for one operation.
func (s Store) recordStorageConflict(ctx context.Context, operation string) {
	if s.metricsCollector == nil {
		return
	}

	labels := map[string]string{spanAttrOperation: operation}

	if contextualCollector, ok := s.metricsCollector.(lending.ContextualMetricsCollector); ok {
		contextualCollector.IncrementCounterContext(ctx, metricStorageConflicts, labels)
	} else {
		s.metricsCollector.IncrementCounter(metricStorageConflicts, labels)
	}
}

// logOperationContext logs through the contextual logger when configured,
// falling back to the plain logger.
func (s Store) logOperationContext(ctx context.Context, msg string, args ...any) {
	if s.contextualLogger != nil {
		s.contextualLogger.InfoContext(ctx, logMsgOperation+msg, args...)
		return
	}

	s.logOperation(msg, args...)
}
