package postgreswrapper

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/library-lending-go/lending/postgresengine"
	"github.com/AntonStoeckl/library-lending-go/testutil/postgresengine/config"
)

// Engine type constants
const (
	typePGXPool = "pgx.pool"
	typeSQLDB   = "sql.db"
	typeSQLXDB  = "sqlx.db"
)

// Tables truncated between tests, ordered so foreign keys do not get in the way.
const truncateStatement = "TRUNCATE TABLE loan_journal, loans, books, members, authors"

// Wrapper interface to abstract over different engine types
type Wrapper interface {
	GetStore() postgresengine.Store
	Close()
}

// PGXPoolWrapper wraps pgxpool-based testing
type PGXPoolWrapper struct {
	pool  *pgxpool.Pool
	store postgresengine.Store
}

func (w *PGXPoolWrapper) GetStore() postgresengine.Store {
	return w.store
}

func (w *PGXPoolWrapper) Close() {
	w.pool.Close()
}

// SQLDBWrapper wraps sql.DB-based testing
type SQLDBWrapper struct {
	db    *sql.DB
	store postgresengine.Store
}

func (w *SQLDBWrapper) GetStore() postgresengine.Store {
	return w.store
}

func (w *SQLDBWrapper) Close() {
	_ = w.db.Close() // ignore error
}

// SQLXWrapper wraps sqlx.DB-based testing
type SQLXWrapper struct {
	db    *sqlx.DB
	store postgresengine.Store
}

func (w *SQLXWrapper) GetStore() postgresengine.Store {
	return w.store
}

func (w *SQLXWrapper) Close() {
	_ = w.db.Close() // ignore error
}

// CreateWrapperWithTestConfig creates the appropriate wrapper based on the
// ADAPTER_TYPE environment variable and ensures the schema exists.
func CreateWrapperWithTestConfig(t testing.TB, options ...postgresengine.Option) Wrapper {
	wrapper := createWrapper(t, options...)

	err := wrapper.GetStore().EnsureSchema(context.Background())
	require.NoError(t, err, "error ensuring schema in test setup")

	return wrapper
}

func createWrapper(t testing.TB, options ...postgresengine.Option) Wrapper {
	engineTypeFromEnv := strings.ToLower(os.Getenv("ADAPTER_TYPE"))

	switch engineTypeFromEnv {
	case typePGXPool, "":
		connPool, err := pgxpool.NewWithConfig(context.Background(), config.PostgresPGXPoolSingleConfig())
		assert.NoError(t, err, "error connecting to DB pool in test setup")

		store, err := postgresengine.NewStoreFromPGXPool(connPool, options...)
		assert.NoError(t, err, "error creating store")

		return &PGXPoolWrapper{pool: connPool, store: store}

	case typeSQLDB:
		db := config.PostgresSQLDBSingleConfig()

		store, err := postgresengine.NewStoreFromSQLDB(db, options...)
		assert.NoError(t, err, "error creating store")

		return &SQLDBWrapper{db: db, store: store}

	case typeSQLXDB:
		db := config.PostgresSQLXSingleConfig()

		store, err := postgresengine.NewStoreFromSQLX(db, options...)
		assert.NoError(t, err, "error creating store")

		return &SQLXWrapper{db: db, store: store}

	default: // neither one of the known types nor empty
		panic(fmt.Sprintf("unsupported wrapper type from env: %s", engineTypeFromEnv))
	}
}

// CleanUp truncates all lending tables for the given wrapper.
func CleanUp(t testing.TB, wrapper Wrapper) {
	switch e := wrapper.(type) {
	case *PGXPoolWrapper:
		_, err := e.pool.Exec(context.Background(), truncateStatement)
		assert.NoError(t, err, "error cleaning up the lending tables")

	case *SQLDBWrapper:
		_, err := e.db.Exec(truncateStatement)
		assert.NoError(t, err, "error cleaning up the lending tables")

	case *SQLXWrapper:
		_, err := e.db.Exec(truncateStatement)
		assert.NoError(t, err, "error cleaning up the lending tables")

	default:
		panic(fmt.Sprintf("unsupported wrapper type: %T", e))
	}
}
