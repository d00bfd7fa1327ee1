package returnloan

import (
	"github.com/AntonStoeckl/library-lending-go/lending"
)

// Decide implements the business logic to determine whether a loan may be returned.
// This is a pure function with no side effects - it takes a state snapshot captured
// under the loan row lock and returns nil when the return is allowed.
//
// Business Rules:
//
//	GIVEN: A loan with LoanID
//	WHEN: ReturnLoan command is received
//	THEN: The loan's return date is written
//	ERROR: not found if the loan does not exist
//	ERROR: "book already returned" if the loan already has a return date
func Decide(state lending.ReturnState, command Command) error {
	if !state.LoanExists {
		return lending.NewNotFound(lending.ResourceLoan, command.LoanID)
	}

	if state.AlreadyReturned {
		return lending.NewRuleViolation(lending.ReasonAlreadyReturned)
	}

	return nil
}
