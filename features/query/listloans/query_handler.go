package listloans

import (
	"context"

	"github.com/google/uuid"

	"github.com/AntonStoeckl/library-lending-go/lending"
)

// LoanReader defines the interface needed by the QueryHandler for loan reads.
type LoanReader interface {
	ListLoans(ctx context.Context) ([]lending.Loan, error)
	ListActiveLoansForMember(ctx context.Context, memberID uuid.UUID) ([]lending.Loan, error)
}

// QueryHandler orchestrates the query processing workflow.
type QueryHandler struct {
	reader LoanReader
}

// NewQueryHandler creates a new QueryHandler with the provided reader dependency.
func NewQueryHandler(reader LoanReader) QueryHandler {
	return QueryHandler{
		reader: reader,
	}
}

// Handle executes the query and returns the matched loan records.
func (h QueryHandler) Handle(ctx context.Context, query Query) (LoanList, error) {
	var (
		loans []lending.Loan
		err   error
	)

	if query.ActiveOnly {
		loans, err = h.reader.ListActiveLoansForMember(ctx, query.MemberID)
	} else {
		loans, err = h.reader.ListLoans(ctx)
	}

	if err != nil {
		return LoanList{}, err
	}

	return LoanList{
		Loans: loans,
		Count: len(loans),
	}, nil
}
