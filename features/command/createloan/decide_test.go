package createloan_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/AntonStoeckl/library-lending-go/features/command/createloan"
	"github.com/AntonStoeckl/library-lending-go/lending"
)

func Test_Decide_Success_WhenAllPreconditionsMet(t *testing.T) {
	// arrange
	memberID := uuid.New()
	bookID := uuid.New()

	state := lending.LendingState{
		MemberExists:          true,
		BookExists:            true,
		BookHasActiveLoan:     false,
		MemberActiveLoanCount: 0,
	}

	command := createloan.BuildCommand(memberID, bookID, time.Now())

	// act
	err := createloan.Decide(state, command)

	// assert
	assert.NoError(t, err)
}

func Test_Decide_Success_WhenMemberHasFourLoans_BorrowingFifth(t *testing.T) {
	// arrange
	state := lending.LendingState{
		MemberExists:          true,
		BookExists:            true,
		BookHasActiveLoan:     false,
		MemberActiveLoanCount: lending.MaxActiveLoansPerMember - 1,
	}

	command := createloan.BuildCommand(uuid.New(), uuid.New(), time.Now())

	// act
	err := createloan.Decide(state, command)

	// assert
	assert.NoError(t, err)
}

func Test_Decide_Error_WhenMemberDoesNotExist(t *testing.T) {
	// arrange
	memberID := uuid.New()

	state := lending.LendingState{
		MemberExists: false,
		BookExists:   true,
	}

	command := createloan.BuildCommand(memberID, uuid.New(), time.Now())

	// act
	err := createloan.Decide(state, command)

	// assert
	assert.ErrorIs(t, err, lending.ErrNotFound)

	var notFound lending.NotFoundError
	assert.ErrorAs(t, err, &notFound)
	assert.Equal(t, lending.ResourceMember, notFound.Resource)
	assert.Equal(t, memberID, notFound.ID)
}

func Test_Decide_Error_WhenBookDoesNotExist(t *testing.T) {
	// arrange
	bookID := uuid.New()

	state := lending.LendingState{
		MemberExists: true,
		BookExists:   false,
	}

	command := createloan.BuildCommand(uuid.New(), bookID, time.Now())

	// act
	err := createloan.Decide(state, command)

	// assert
	assert.ErrorIs(t, err, lending.ErrNotFound)

	var notFound lending.NotFoundError
	assert.ErrorAs(t, err, &notFound)
	assert.Equal(t, lending.ResourceBook, notFound.Resource)
	assert.Equal(t, bookID, notFound.ID)
}

func Test_Decide_Error_WhenBookAlreadyLoaned(t *testing.T) {
	// arrange
	state := lending.LendingState{
		MemberExists:      true,
		BookExists:        true,
		BookHasActiveLoan: true,
	}

	command := createloan.BuildCommand(uuid.New(), uuid.New(), time.Now())

	// act
	err := createloan.Decide(state, command)

	// assert
	assert.ErrorIs(t, err, lending.ErrRuleViolation)
	assert.ErrorContains(t, err, string(lending.ReasonBookAlreadyLoaned))
}

func Test_Decide_Error_WhenMemberAtLoanLimit(t *testing.T) {
	// arrange
	state := lending.LendingState{
		MemberExists:          true,
		BookExists:            true,
		BookHasActiveLoan:     false,
		MemberActiveLoanCount: lending.MaxActiveLoansPerMember,
	}

	command := createloan.BuildCommand(uuid.New(), uuid.New(), time.Now())

	// act
	err := createloan.Decide(state, command)

	// assert
	assert.ErrorIs(t, err, lending.ErrRuleViolation)
	assert.ErrorContains(t, err, string(lending.ReasonMemberLoanLimitReached))
}

func Test_Decide_ChecksBookAvailabilityBeforeLoanLimit(t *testing.T) {
	// arrange
	state := lending.LendingState{
		MemberExists:          true,
		BookExists:            true,
		BookHasActiveLoan:     true,
		MemberActiveLoanCount: lending.MaxActiveLoansPerMember,
	}

	command := createloan.BuildCommand(uuid.New(), uuid.New(), time.Now())

	// act
	err := createloan.Decide(state, command)

	// assert
	assert.ErrorContains(t, err, string(lending.ReasonBookAlreadyLoaned))
}

func Test_BuildCommand_TruncatesLendDateToCalendarDay(t *testing.T) {
	// arrange
	lendDate := time.Date(2025, 6, 15, 17, 42, 13, 500, time.FixedZone("CEST", 2*60*60))

	// act
	command := createloan.BuildCommand(uuid.New(), uuid.New(), lendDate)

	// assert
	assert.Equal(t, time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC), command.LendDate)
}
