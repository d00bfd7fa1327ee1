package getloan

import (
	"context"

	"github.com/google/uuid"

	"github.com/AntonStoeckl/library-lending-go/lending"
)

// LoanReader defines the interface needed by the QueryHandler for loan reads.
type LoanReader interface {
	GetLoan(ctx context.Context, id uuid.UUID) (lending.Loan, error)
}

// QueryHandler orchestrates the query processing workflow.
// It delegates the read to the storage layer and passes the result through unchanged.
type QueryHandler struct {
	reader LoanReader
}

// NewQueryHandler creates a new QueryHandler with the provided reader dependency.
func NewQueryHandler(reader LoanReader) QueryHandler {
	return QueryHandler{
		reader: reader,
	}
}

// Handle executes the query and returns the loan record.
// A missing loan surfaces as lending.ErrNotFound.
func (h QueryHandler) Handle(ctx context.Context, query Query) (lending.Loan, error) {
	return h.reader.GetLoan(ctx, query.LoanID)
}
