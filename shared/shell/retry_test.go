package shell

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/AntonStoeckl/library-lending-go/lending"
)

func Test_RetryWithExponentialBackoff_Success_NoRetries(t *testing.T) {
	ctx := context.Background()
	callCount := 0

	fn := func(_ context.Context) error {
		callCount++
		return nil // Success on the first attempt
	}

	meta, err := RetryWithExponentialBackoff(ctx, fn)

	assert.NoError(t, err)
	assert.Equal(t, 1, callCount)
	assert.Equal(t, 1, meta.Attempts)
	assert.Equal(t, time.Duration(0), meta.TotalDelay)
	assert.Equal(t, "none", meta.LastErrorType)
	assert.False(t, meta.RetriesExhausted)
}

func Test_RetryWithExponentialBackoff_RetryOnStorageConflict(t *testing.T) {
	ctx := context.Background()
	callCount := 0

	fn := func(_ context.Context) error {
		callCount++
		if callCount < 3 {
			return lending.NewStorageConflict(lending.ConflictSerialization) // Fail twice
		}
		return nil // Success on the third attempt
	}

	meta, err := RetryWithExponentialBackoff(ctx, fn, WithBaseDelay(time.Millisecond))

	assert.NoError(t, err)
	assert.Equal(t, 3, callCount)
	assert.Equal(t, 3, meta.Attempts)
	assert.Greater(t, meta.TotalDelay, time.Duration(0))
	assert.Equal(t, "none", meta.LastErrorType)
}

func Test_RetryWithExponentialBackoff_NoRetryOnRuleViolation(t *testing.T) {
	ctx := context.Background()
	callCount := 0

	fn := func(_ context.Context) error {
		callCount++
		return lending.NewRuleViolation(lending.ReasonBookAlreadyLoaned)
	}

	meta, err := RetryWithExponentialBackoff(ctx, fn)

	assert.ErrorIs(t, err, lending.ErrRuleViolation)
	assert.Equal(t, 1, callCount)
	assert.Equal(t, "rule_violation", meta.LastErrorType)
	assert.False(t, meta.RetriesExhausted)
}

func Test_RetryWithExponentialBackoff_NoRetryOnNotFound(t *testing.T) {
	ctx := context.Background()
	callCount := 0

	fn := func(_ context.Context) error {
		callCount++
		return lending.NewNotFound(lending.ResourceLoan, uuid.Nil)
	}

	meta, err := RetryWithExponentialBackoff(ctx, fn)

	assert.ErrorIs(t, err, lending.ErrNotFound)
	assert.Equal(t, 1, callCount)
	assert.Equal(t, "not_found", meta.LastErrorType)
}

func Test_RetryWithExponentialBackoff_ExhaustsMaxAttempts(t *testing.T) {
	ctx := context.Background()
	callCount := 0
	conflict := lending.NewStorageConflict(lending.ConflictUniqueViolation)

	fn := func(_ context.Context) error {
		callCount++
		return conflict
	}

	meta, err := RetryWithExponentialBackoff(ctx, fn,
		WithMaxAttempts(3),
		WithBaseDelay(time.Millisecond),
	)

	assert.ErrorIs(t, err, lending.ErrStorageConflict)
	assert.Equal(t, 3, callCount)
	assert.Equal(t, 3, meta.Attempts)
	assert.True(t, meta.RetriesExhausted)
	assert.Equal(t, "storage_conflict", meta.LastErrorType)
}

func Test_RetryWithExponentialBackoff_RespectsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	callCount := 0

	fn := func(_ context.Context) error {
		callCount++
		cancel() // Cancel during the first attempt

		return lending.NewStorageConflict(lending.ConflictSerialization)
	}

	meta, err := RetryWithExponentialBackoff(ctx, fn, WithBaseDelay(50*time.Millisecond))

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, callCount)
	assert.Equal(t, "context_canceled", meta.LastErrorType)
}

func Test_RetryWithExponentialBackoff_InvalidOptions(t *testing.T) {
	ctx := context.Background()

	fn := func(_ context.Context) error {
		t.Fatal("fn must not be called when an option is invalid")
		return nil
	}

	t.Run("non-positive max attempts", func(t *testing.T) {
		_, err := RetryWithExponentialBackoff(ctx, fn, WithMaxAttempts(0))
		assert.ErrorIs(t, err, ErrInvalidMaxAttempts)
	})

	t.Run("negative base delay", func(t *testing.T) {
		_, err := RetryWithExponentialBackoff(ctx, fn, WithBaseDelay(-time.Second))
		assert.ErrorIs(t, err, ErrNegativeBaseDelay)
	})

	t.Run("jitter factor out of range", func(t *testing.T) {
		_, err := RetryWithExponentialBackoff(ctx, fn, WithJitterFactor(1.5))
		assert.ErrorIs(t, err, ErrInvalidJitterFactor)
	})

	t.Run("nil metrics collector", func(t *testing.T) {
		_, err := RetryWithExponentialBackoff(ctx, fn, WithMetrics(nil, "SomeCommand"))
		assert.ErrorIs(t, err, ErrNilMetricsCollector)
	})

	t.Run("empty command type", func(t *testing.T) {
		_, err := RetryWithExponentialBackoff(ctx, fn, WithMetrics(noopCollector{}, ""))
		assert.ErrorIs(t, err, ErrEmptyCommandType)
	})
}

func Test_ClassifyOutcome(t *testing.T) {
	assert.Equal(t, StatusSuccess, ClassifyOutcome(nil))
	assert.Equal(t, StatusRejected, ClassifyOutcome(lending.NewRuleViolation(lending.ReasonAlreadyReturned)))
	assert.Equal(t, StatusNotFound, ClassifyOutcome(lending.NewNotFound(lending.ResourceBook, uuid.Nil)))
	assert.Equal(t, StatusStorageConflict, ClassifyOutcome(lending.NewStorageConflict(lending.ConflictVersionMismatch)))
	assert.Equal(t, StatusCanceled, ClassifyOutcome(context.Canceled))
	assert.Equal(t, StatusTimeout, ClassifyOutcome(context.DeadlineExceeded))
	assert.Equal(t, StatusError, ClassifyOutcome(errors.New("boom")))
}

// noopCollector is the minimal MetricsCollector used to exercise option validation.
type noopCollector struct{}

func (noopCollector) RecordDuration(string, time.Duration, map[string]string) {}
func (noopCollector) IncrementCounter(string, map[string]string)              {}
func (noopCollector) RecordValue(string, float64, map[string]string)          {}
