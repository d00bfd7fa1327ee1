// Package returnloan implements the Return Loan use case.
//
// This feature completes an active loan by stamping its return date. It
// follows the Lock-Decide-Write pattern: the loan row is locked, the
// pure Decide function checks that the loan exists and is still active,
// and the return date is written in the same transaction.
//
// Returning an already returned loan is rejected rather than treated as
// idempotent, so double-return races surface as rule violations.
package returnloan
