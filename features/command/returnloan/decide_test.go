package returnloan_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/AntonStoeckl/library-lending-go/features/command/returnloan"
	"github.com/AntonStoeckl/library-lending-go/lending"
)

func Test_Decide_Success_WhenLoanIsActive(t *testing.T) {
	// arrange
	state := lending.ReturnState{
		LoanExists:      true,
		AlreadyReturned: false,
	}

	command := returnloan.BuildCommand(uuid.New(), time.Now())

	// act
	err := returnloan.Decide(state, command)

	// assert
	assert.NoError(t, err)
}

func Test_Decide_Error_WhenLoanDoesNotExist(t *testing.T) {
	// arrange
	loanID := uuid.New()

	state := lending.ReturnState{
		LoanExists: false,
	}

	command := returnloan.BuildCommand(loanID, time.Now())

	// act
	err := returnloan.Decide(state, command)

	// assert
	assert.ErrorIs(t, err, lending.ErrNotFound)

	var notFound lending.NotFoundError
	assert.ErrorAs(t, err, &notFound)
	assert.Equal(t, lending.ResourceLoan, notFound.Resource)
	assert.Equal(t, loanID, notFound.ID)
}

func Test_Decide_Error_WhenLoanAlreadyReturned(t *testing.T) {
	// arrange
	state := lending.ReturnState{
		LoanExists:      true,
		AlreadyReturned: true,
	}

	command := returnloan.BuildCommand(uuid.New(), time.Now())

	// act
	err := returnloan.Decide(state, command)

	// assert
	assert.ErrorIs(t, err, lending.ErrRuleViolation)
	assert.ErrorContains(t, err, string(lending.ReasonAlreadyReturned))
}

func Test_BuildCommand_TruncatesReturnDateToCalendarDay(t *testing.T) {
	// arrange
	returnDate := time.Date(2025, 11, 3, 23, 59, 59, 0, time.FixedZone("EST", -5*60*60))

	// act
	command := returnloan.BuildCommand(uuid.New(), returnDate)

	// assert
	assert.Equal(t, time.Date(2025, 11, 4, 0, 0, 0, 0, time.UTC), command.ReturnDate)
}
