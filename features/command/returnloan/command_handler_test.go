package returnloan_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/library-lending-go/features/command/returnloan"
	"github.com/AntonStoeckl/library-lending-go/lending"
	"github.com/AntonStoeckl/library-lending-go/shared/shell"
)

// fakeLoanLedger simulates the storage protocol: it hands the configured state
// snapshot to the decide callback and stamps the return date when allowed.
type fakeLoanLedger struct {
	state     lending.ReturnState
	loan      lending.Loan
	writeErrs []error
	calls     int
}

func (f *fakeLoanLedger) ReturnLoan(
	_ context.Context,
	loanID uuid.UUID,
	returnDate time.Time,
	decide func(lending.ReturnState) error,
) (lending.Loan, error) {

	f.calls++

	if len(f.writeErrs) > 0 {
		err := f.writeErrs[0]
		f.writeErrs = f.writeErrs[1:]

		if err != nil {
			return lending.Loan{}, err
		}
	}

	if err := decide(f.state); err != nil {
		return lending.Loan{}, err
	}

	returned := f.loan
	returned.ID = loanID
	returned.ReturnDate = &returnDate

	return returned, nil
}

func Test_CommandHandler_Handle_Success(t *testing.T) {
	// arrange
	ledger := &fakeLoanLedger{
		state: lending.ReturnState{LoanExists: true},
	}
	handler := returnloan.NewCommandHandler(ledger)

	loanID := uuid.New()
	command := returnloan.BuildCommand(loanID, time.Now())

	// act
	loan, result, err := handler.Handle(context.Background(), command)

	// assert
	require.NoError(t, err)
	assert.Equal(t, loanID, loan.ID)
	assert.False(t, loan.IsActive())
	assert.Equal(t, 1, result.RetryAttempts)
	assert.Equal(t, "none", result.LastErrorType)
}

func Test_CommandHandler_Handle_DoesNotRetryDoubleReturn(t *testing.T) {
	// arrange
	ledger := &fakeLoanLedger{
		state: lending.ReturnState{LoanExists: true, AlreadyReturned: true},
	}
	handler := returnloan.NewCommandHandler(ledger)

	command := returnloan.BuildCommand(uuid.New(), time.Now())

	// act
	_, result, err := handler.Handle(context.Background(), command)

	// assert
	assert.ErrorIs(t, err, lending.ErrRuleViolation)
	assert.Equal(t, 1, ledger.calls)
	assert.Equal(t, "rule_violation", result.LastErrorType)
}

func Test_CommandHandler_Handle_RetriesStorageConflicts(t *testing.T) {
	// arrange
	ledger := &fakeLoanLedger{
		state:     lending.ReturnState{LoanExists: true},
		writeErrs: []error{lending.NewStorageConflict(lending.ConflictSerialization)},
	}
	handler := returnloan.NewCommandHandler(
		ledger,
		returnloan.WithRetryOptions(shell.WithBaseDelay(time.Millisecond)),
	)

	command := returnloan.BuildCommand(uuid.New(), time.Now())

	// act
	loan, result, err := handler.Handle(context.Background(), command)

	// assert
	require.NoError(t, err)
	assert.Equal(t, 2, ledger.calls)
	assert.Equal(t, 2, result.RetryAttempts)
	assert.NotNil(t, loan.ReturnDate)
}
