package postgresengine

import (
	"github.com/AntonStoeckl/library-lending-go/lending"
)

// Option defines a functional option for configuring a Store.
type Option func(*Store) error

// WithLogger sets the logger for the Store.
// The logger will receive messages at different levels based on the logger's configured level:
//
// Debug level: SQL queries with execution timing (development use)
// Info level: operation outcomes, durations, storage conflicts (production-safe)
// Warn level: non-critical issues like rollback/cleanup failures
// Error level: critical failures that cause operation failures.
func WithLogger(logger lending.Logger) Option {
	return func(s *Store) error {
		s.logger = logger
		return nil
	}
}

// WithMetrics sets the metrics collector for the Store.
// The collector will receive performance and operational metrics including
// operation durations, storage conflicts, and database errors.
func WithMetrics(collector lending.MetricsCollector) Option {
	return func(s *Store) error {
		s.metricsCollector = collector
		return nil
	}
}

// WithTracing sets the tracing collector for the Store.
// The tracing collector will receive distributed tracing information including
// span creation for store operations, context propagation, and error tracking.
func WithTracing(collector lending.TracingCollector) Option {
	return func(s *Store) error {
		s.tracingCollector = collector
		return nil
	}
}

// WithContextualLogger sets the contextual logger for the Store.
// The contextual logger will receive log messages with context information including
// automatic trace/span correlation when tracing is enabled.
func WithContextualLogger(logger lending.ContextualLogger) Option {
	return func(s *Store) error {
		s.contextualLogger = logger
		return nil
	}
}
