// Package createloan implements the Create Loan use case.
//
// This feature lends a book to a member. It follows the Lock-Decide-Write
// pattern with proper separation between infrastructure concerns
// (CommandHandler) and pure business logic (Decide function).
//
// The business logic enforces multiple constraints: the member and the book
// must exist, the book must not be on loan to anyone, and the member cannot
// exceed the lending limit (max 5 active loans). The locked state snapshot
// handed to Decide is taken inside the same transaction that writes the loan,
// so concurrent commands cannot both see the book as available.
package createloan
