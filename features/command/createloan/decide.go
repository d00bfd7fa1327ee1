package createloan

import (
	"github.com/AntonStoeckl/library-lending-go/lending"
)

// Decide implements the business logic to determine whether a loan may be created.
// This is a pure function with no side effects - it takes a state snapshot captured
// under row locks and returns nil when the loan is allowed.
//
// Business Rules:
//
//	GIVEN: A member with MemberID and a book with BookID
//	WHEN: CreateLoan command is received
//	THEN: The loan record is written
//	ERROR: not found if the member does not exist
//	ERROR: not found if the book does not exist
//	ERROR: "book is already loaned" if the book has an active loan
//	ERROR: "member has reached the maximum limit of 5 books" if the member holds 5 active loans
func Decide(state lending.LendingState, command Command) error {
	if !state.MemberExists {
		return lending.NewNotFound(lending.ResourceMember, command.MemberID)
	}

	if !state.BookExists {
		return lending.NewNotFound(lending.ResourceBook, command.BookID)
	}

	if state.BookHasActiveLoan {
		return lending.NewRuleViolation(lending.ReasonBookAlreadyLoaned)
	}

	if state.MemberActiveLoanCount >= lending.MaxActiveLoansPerMember {
		return lending.NewRuleViolation(lending.ReasonMemberLoanLimitReached)
	}

	return nil
}
