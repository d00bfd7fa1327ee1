package shell

import "time"

// HandlerResult represents the outcome of a command handler execution.
// It captures execution metadata (retry information) without coupling the
// handler to specific observability implementations.
type HandlerResult struct {
	// RetryAttempts is the total number of attempts made (1 for no retries, 2+ for retries).
	RetryAttempts int

	// TotalRetryDelay is the cumulative time spent in retry backoff delays.
	// This excludes the actual execution time, only counting sleep/wait periods.
	TotalRetryDelay time.Duration

	// LastErrorType describes the type of the final error encountered during retries.
	// Values: "none" (success), "storage_conflict", "rule_violation", "not_found",
	// "context_canceled", "context_deadline_exceeded", "other".
	LastErrorType string

	// RetriesExhausted indicates whether max retry attempts were reached with a retryable error.
	RetriesExhausted bool
}

// NewSuccessResult creates a HandlerResult for successful operations.
func NewSuccessResult(retryMetrics RetryMetrics) HandlerResult {
	return HandlerResult{
		RetryAttempts:    retryMetrics.Attempts,
		TotalRetryDelay:  retryMetrics.TotalDelay,
		LastErrorType:    retryMetrics.LastErrorType,
		RetriesExhausted: retryMetrics.RetriesExhausted,
	}
}

// NewErrorResult creates a HandlerResult for failed operations.
// This is used when the handler returns an error but still wants to report retry metadata.
func NewErrorResult(retryMetrics RetryMetrics) HandlerResult {
	return HandlerResult{
		RetryAttempts:    retryMetrics.Attempts,
		TotalRetryDelay:  retryMetrics.TotalDelay,
		LastErrorType:    retryMetrics.LastErrorType,
		RetriesExhausted: retryMetrics.RetriesExhausted,
	}
}
