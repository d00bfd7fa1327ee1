package returnloan

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/AntonStoeckl/library-lending-go/lending"
	"github.com/AntonStoeckl/library-lending-go/shared/shell"
)

// LoanLedger defines the interface needed by the CommandHandler for loan storage operations.
type LoanLedger interface {
	ReturnLoan(
		ctx context.Context,
		loanID uuid.UUID,
		returnDate time.Time,
		decide func(lending.ReturnState) error,
	) (lending.Loan, error)
}

// CommandHandler orchestrates the complete command processing workflow with pure business logic and retry.
// It handles the core workflow: Lock -> Decide -> Write, executed atomically by the ledger.
// External wrappers handle all observability concerns.
type CommandHandler struct {
	ledger       LoanLedger
	retryOptions []shell.RetryOption
}

// Option configures a CommandHandler.
type Option func(*CommandHandler)

// WithRetryOptions sets a custom retry configuration for the handler.
func WithRetryOptions(opts ...shell.RetryOption) Option {
	return func(h *CommandHandler) {
		h.retryOptions = opts
	}
}

// NewCommandHandler creates a new CommandHandler with optional configuration.
func NewCommandHandler(ledger LoanLedger, opts ...Option) CommandHandler {
	handler := CommandHandler{
		ledger: ledger,
	}

	for _, opt := range opts {
		opt(&handler)
	}

	return handler
}

// Handle executes the complete command processing workflow with retry logic.
// Returns the updated loan together with a HandlerResult containing execution metadata.
//
// Resilience: Implements exponential backoff retry logic for storage conflicts.
// A double return loses the row lock race and surfaces as a rule violation,
// which is a final answer and is never retried.
func (h CommandHandler) Handle(ctx context.Context, command Command) (lending.Loan, shell.HandlerResult, error) {
	var loan lending.Loan

	retryMetrics, err := shell.RetryWithExponentialBackoff(ctx, func(retryCtx context.Context) error {
		returned, execErr := h.ledger.ReturnLoan(
			retryCtx,
			command.LoanID,
			command.ReturnDate,
			func(state lending.ReturnState) error {
				return Decide(state, command)
			},
		)
		if execErr != nil {
			return execErr
		}

		loan = returned

		return nil
	}, h.retryOptions...)

	if err != nil {
		return lending.Loan{}, shell.NewErrorResult(retryMetrics), err
	}

	return loan, shell.NewSuccessResult(retryMetrics), nil
}
