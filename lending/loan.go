package lending

import (
	"time"

	"github.com/google/uuid"
)

// MaxActiveLoansPerMember is the highest number of unreturned loans a
// member may hold at any instant.
const MaxActiveLoansPerMember = 5

// Loan represents one lending of one book to one member.
//
// A nil ReturnDate marks the loan active. A loan transitions exactly once
// from active to closed, is never deleted and never reopened; once the
// return date is set the record is immutable.
type Loan struct {
	ID         uuid.UUID
	MemberID   uuid.UUID
	BookID     uuid.UUID
	LendDate   time.Time
	ReturnDate *time.Time
}

// IsActive reports whether the book is still checked out on this loan.
func (l Loan) IsActive() bool {
	return l.ReturnDate == nil
}

// LendingState is the snapshot of everything the create-loan decision
// depends on. The loan ledger assembles it inside one transaction while
// holding row locks on the member and the book, so the snapshot cannot go
// stale before the insert commits.
type LendingState struct {
	MemberExists          bool
	BookExists            bool
	BookHasActiveLoan     bool
	MemberActiveLoanCount int
}

// ReturnState is the snapshot the return decision depends on, assembled
// under a row lock on the loan.
type ReturnState struct {
	LoanExists      bool
	AlreadyReturned bool
}
