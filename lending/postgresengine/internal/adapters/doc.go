// Package adapters provides database abstraction adapters for the
// Postgres lending store.
//
// It wraps pgxpool.Pool, sql.DB and sqlx.DB behind the common DBAdapter
// interface so the store logic stays driver-agnostic. All three adapters
// support single statements and explicit transactions; the transaction
// handles are what the loan ledger uses to hold row locks for the
// duration of the lend/return protocols.
package adapters
