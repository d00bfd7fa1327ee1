// Package postgresengine implements the lending stores on PostgreSQL.
//
// It contains the identity store (authors, members), the catalog store
// (books) and the loan ledger (loans plus the loan journal). The package
// supports multiple database adapters through factory methods:
//   - NewStoreFromPGXPool: pgxpool.Pool (recommended)
//   - NewStoreFromSQLDB: database/sql
//   - NewStoreFromSQLX: sqlx.DB
//
// Plain CRUD runs as single statements at the store's default isolation,
// guarded only by the per-row version check on books and the unique
// constraints. The loan protocols (CreateLoan, ReturnLoan) run inside one
// transaction that locks the contended member/book/loan rows FOR UPDATE
// before the invariants are evaluated, so concurrent operations on the
// same book or member serialize instead of racing.
package postgresengine
