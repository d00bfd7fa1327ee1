package listloans_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/library-lending-go/features/query/listloans"
	"github.com/AntonStoeckl/library-lending-go/lending"
)

type fakeLoanReader struct {
	allLoans       []lending.Loan
	activeByMember map[uuid.UUID][]lending.Loan
}

func (f *fakeLoanReader) ListLoans(_ context.Context) ([]lending.Loan, error) {
	return f.allLoans, nil
}

func (f *fakeLoanReader) ListActiveLoansForMember(_ context.Context, memberID uuid.UUID) ([]lending.Loan, error) {
	return f.activeByMember[memberID], nil
}

func Test_QueryHandler_Handle_ListsAllLoans(t *testing.T) {
	// arrange
	returnDate := lending.DateOf(time.Now())
	reader := &fakeLoanReader{
		allLoans: []lending.Loan{
			{ID: uuid.New(), MemberID: uuid.New(), BookID: uuid.New(), LendDate: returnDate},
			{ID: uuid.New(), MemberID: uuid.New(), BookID: uuid.New(), LendDate: returnDate, ReturnDate: &returnDate},
		},
	}
	handler := listloans.NewQueryHandler(reader)

	// act
	result, err := handler.Handle(context.Background(), listloans.BuildQuery())

	// assert
	require.NoError(t, err)
	assert.Equal(t, 2, result.Count)
	assert.Len(t, result.Loans, 2)
}

func Test_QueryHandler_Handle_ListsActiveLoansForMember(t *testing.T) {
	// arrange
	memberID := uuid.New()
	reader := &fakeLoanReader{
		activeByMember: map[uuid.UUID][]lending.Loan{
			memberID: {
				{ID: uuid.New(), MemberID: memberID, BookID: uuid.New(), LendDate: lending.DateOf(time.Now())},
			},
		},
	}
	handler := listloans.NewQueryHandler(reader)

	// act
	result, err := handler.Handle(context.Background(), listloans.BuildActiveForMemberQuery(memberID))

	// assert
	require.NoError(t, err)
	assert.Equal(t, 1, result.Count)
	assert.Equal(t, memberID, result.Loans[0].MemberID)
	assert.True(t, result.Loans[0].IsActive())
}
