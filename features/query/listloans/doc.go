// Package listloans implements the List Loans query use case.
//
// This is a read-only operation that returns loan records in stable order.
// It can list the whole ledger or only the active loans of one member,
// which is the view the lending limit is enforced against.
package listloans
