package createloan

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/AntonStoeckl/library-lending-go/lending"
	"github.com/AntonStoeckl/library-lending-go/shared/shell"
)

// LoanLedger defines the interface needed by the CommandHandler for loan storage operations.
type LoanLedger interface {
	CreateLoan(
		ctx context.Context,
		loanID uuid.UUID,
		memberID uuid.UUID,
		bookID uuid.UUID,
		lendDate time.Time,
		decide func(lending.LendingState) error,
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
		// retryOptions defaults to nil (will use retry defaults)
	}

	for _, opt := range opts {
		opt(&handler)
	}

	return handler
}

// Handle executes the complete command processing workflow with retry logic.
// It delegates business logic to executeCommand and handles retry with exponential backoff.
// Returns the created loan together with a HandlerResult containing execution metadata.
//
// Resilience: Implements exponential backoff retry logic for storage conflicts.
// Rule violations and not-found outcomes are final answers and are never retried.
func (h CommandHandler) Handle(ctx context.Context, command Command) (lending.Loan, shell.HandlerResult, error) {
	var loan lending.Loan

	retryMetrics, err := shell.RetryWithExponentialBackoff(ctx, func(retryCtx context.Context) error {
		created, execErr := h.executeCommand(retryCtx, command)
		if execErr != nil {
			return execErr
		}

		loan = created

		return nil
	}, h.retryOptions...)

	if err != nil {
		return lending.Loan{}, shell.NewErrorResult(retryMetrics), err
	}

	return loan, shell.NewSuccessResult(retryMetrics), nil
}

// executeCommand contains the core command processing logic that can be retried.
func (h CommandHandler) executeCommand(ctx context.Context, command Command) (lending.Loan, error) {
	loanID, err := uuid.NewV7()
	if err != nil {
		return lending.Loan{}, fmt.Errorf("generating loan id: %w", err)
	}

	return h.ledger.CreateLoan(
		ctx,
		loanID,
		command.MemberID,
		command.BookID,
		command.LendDate,
		func(state lending.LendingState) error {
			return Decide(state, command)
		},
	)
}
