// Package getloan implements the Get Loan query use case.
//
// This is a read-only operation that fetches a single loan record by id,
// active or returned, without modifying any data.
package getloan
