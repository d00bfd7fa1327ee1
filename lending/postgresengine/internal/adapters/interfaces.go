package adapters

import "context"

// DBAdapter defines the interface for database operations needed by the lending store.
type DBAdapter interface {
	Query(ctx context.Context, query string) (DBRows, error)
	Exec(ctx context.Context, query string) (DBResult, error)
	BeginTx(ctx context.Context) (DBTx, error)
}

// DBTx defines the interface for operations inside one transaction.
// Rollback after a successful Commit must be a no-op error that callers
// can ignore, matching the behavior of all wrapped drivers.
type DBTx interface {
	Query(ctx context.Context, query string) (DBRows, error)
	Exec(ctx context.Context, query string) (DBResult, error)
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// DBRows defines the interface for query result rows.
type DBRows interface {
	Next() bool
	Scan(dest ...any) error
	Close() error
}

// DBResult defines the interface for execution results.
type DBResult interface {
	RowsAffected() (int64, error)
}
