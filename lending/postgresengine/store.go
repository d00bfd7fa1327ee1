package postgresengine

import (
	"context"
	"database/sql"
	"errors"
	"math"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // driver import
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"

	"github.com/AntonStoeckl/library-lending-go/lending"
	"github.com/AntonStoeckl/library-lending-go/lending/postgresengine/internal/adapters"
)

const (
	authorsTableName = "authors"
	booksTableName   = "books"
	membersTableName = "members"
	loansTableName   = "loans"
	journalTableName = "loan_journal"

	colID          = "id"
	colName        = "name"
	colDateOfBirth = "date_of_birth"
	colTitle       = "title"
	colGenre       = "genre"
	colPriceCents  = "price_cents"
	colAuthorID    = "author_id"
	colVersion     = "version"
	colUsername    = "username"
	colEmail       = "email"
	colAddress     = "address"
	colPhoneNumber = "phone_number"
	colMemberID    = "member_id"
	colBookID      = "book_id"
	colLendDate    = "lend_date"
	colReturnDate  = "return_date"

	constraintBookTitleAuthor = "uk_book_title_author"
	constraintMemberUsername  = "uk_member_username"
	constraintMemberEmail     = "uk_member_email"
	constraintLoanActiveBook  = "uk_loan_active_book"

	dialectPostgres = "postgres"
	dateFormat      = "2006-01-02"

	logMsgBuildQueryFailed = "failed to build sql query"
	logMsgDBQueryFailed    = "database query execution failed"
	logMsgDBExecFailed     = "database execution failed"
	logMsgCloseRowsFailed  = "failed to close database rows"
	logMsgScanRowFailed    = "failed to scan database row"
	logMsgBeginTxFailed    = "failed to begin transaction"
	logMsgCommitTxFailed   = "failed to commit transaction"
	logMsgStorageConflict  = "storage conflict detected"
	logMsgSQLExecuted      = "executed sql for: "
	logMsgOperation        = "lending store operation: "
	logAttrError           = "error"
	logAttrQuery           = "query"
	logAttrDurationMS      = "duration_ms"
	logAttrResource        = "resource"
	logAttrConstraint      = "constraint"
)

type sqlQueryString = string

// Store provides the identity store, the catalog store and the loan
// ledger on one shared Postgres database. It leverages a database adapter
// and supports customizable logging, metrics and tracing.
type Store struct {
	db               adapters.DBAdapter
	logger           lending.Logger
	contextualLogger lending.ContextualLogger
	metricsCollector lending.MetricsCollector
	tracingCollector lending.TracingCollector
}

// NewStoreFromPGXPool creates a new Store using a pgx pool with optional configuration.
func NewStoreFromPGXPool(db *pgxpool.Pool, options ...Option) (Store, error) {
	if db == nil {
		return Store{}, lending.ErrNilDatabaseConnection
	}

	s := Store{db: adapters.NewPGXAdapter(db)}

	for _, option := range options {
		if err := option(&s); err != nil {
			return Store{}, err
		}
	}

	return s, nil
}

// NewStoreFromSQLDB creates a new Store using a sql.DB with optional configuration.
func NewStoreFromSQLDB(db *sql.DB, options ...Option) (Store, error) {
	if db == nil {
		return Store{}, lending.ErrNilDatabaseConnection
	}

	s := Store{db: adapters.NewSQLAdapter(db)}

	for _, option := range options {
		if err := option(&s); err != nil {
			return Store{}, err
		}
	}

	return s, nil
}

// NewStoreFromSQLX creates a new Store using a sqlx.DB with optional configuration.
func NewStoreFromSQLX(db *sqlx.DB, options ...Option) (Store, error) {
	if db == nil {
		return Store{}, lending.ErrNilDatabaseConnection
	}

	s := Store{db: adapters.NewSQLXAdapter(db)}

	for _, option := range options {
		if err := option(&s); err != nil {
			return Store{}, err
		}
	}

	return s, nil
}

// builder returns the goqu dialect all store queries are built with.
func (s Store) builder() goqu.DialectWrapper {
	return goqu.Dialect(dialectPostgres)
}

// executeQuery executes the SQL query with timing and debug logging.
func (s Store) executeQuery(ctx context.Context, sqlQuery sqlQueryString, action string) (adapters.DBRows, error) {
	start := time.Now()
	rows, queryErr := s.db.Query(ctx, sqlQuery)
	s.logQueryWithDuration(sqlQuery, action, time.Since(start))

	if queryErr != nil {
		s.logError(logMsgDBQueryFailed, logAttrError, queryErr.Error(), logAttrQuery, sqlQuery)
		return nil, errors.Join(lending.ErrStorageFailed, queryErr)
	}

	return rows, nil
}

// executeStatement executes a single SQL statement outside any transaction
// and returns the number of affected rows. Database errors are run through
// the conflict classification before being returned.
func (s Store) executeStatement(ctx context.Context, sqlQuery sqlQueryString, action string) (int64, error) {
	start := time.Now()
	tag, execErr := s.db.Exec(ctx, sqlQuery)
	s.logQueryWithDuration(sqlQuery, action, time.Since(start))

	if execErr != nil {
		return 0, s.classifyExecError(execErr, sqlQuery)
	}

	rowsAffected, rowsAffectedErr := tag.RowsAffected()
	if rowsAffectedErr != nil {
		s.logError(logMsgDBExecFailed, logAttrError, rowsAffectedErr.Error())
		return 0, errors.Join(lending.ErrStorageFailed, rowsAffectedErr)
	}

	return rowsAffected, nil
}

// execInTx executes a single SQL statement on an open transaction.
func (s Store) execInTx(ctx context.Context, tx adapters.DBTx, sqlQuery sqlQueryString, action string) (int64, error) {
	start := time.Now()
	tag, execErr := tx.Exec(ctx, sqlQuery)
	s.logQueryWithDuration(sqlQuery, action, time.Since(start))

	if execErr != nil {
		return 0, s.classifyExecError(execErr, sqlQuery)
	}

	rowsAffected, rowsAffectedErr := tag.RowsAffected()
	if rowsAffectedErr != nil {
		s.logError(logMsgDBExecFailed, logAttrError, rowsAffectedErr.Error())
		return 0, errors.Join(lending.ErrStorageFailed, rowsAffectedErr)
	}

	return rowsAffected, nil
}

// queryInTx executes a SQL query on an open transaction.
func (s Store) queryInTx(ctx context.Context, tx adapters.DBTx, sqlQuery sqlQueryString, action string) (adapters.DBRows, error) {
	start := time.Now()
	rows, queryErr := tx.Query(ctx, sqlQuery)
	s.logQueryWithDuration(sqlQuery, action, time.Since(start))

	if queryErr != nil {
		return nil, s.classifyExecError(queryErr, sqlQuery)
	}

	return rows, nil
}

// classifyExecError maps driver errors to the lending error taxonomy:
// unique-constraint collisions and serialization failures become storage
// conflicts, everything else wraps ErrStorageFailed.
func (s Store) classifyExecError(execErr error, sqlQuery sqlQueryString) error {
	if constraint, ok := adapters.UniqueViolation(execErr); ok {
		s.logOperation(logMsgStorageConflict, logAttrConstraint, constraint)
		return lending.NewStorageConflict(lending.ConflictUniqueViolation)
	}

	if adapters.IsSerializationFailure(execErr) {
		s.logOperation(logMsgStorageConflict, logAttrError, execErr.Error())
		return lending.NewStorageConflict(lending.ConflictSerialization)
	}

	s.logError(logMsgDBExecFailed, logAttrError, execErr.Error(), logAttrQuery, sqlQuery)

	return errors.Join(lending.ErrStorageFailed, execErr)
}

// rollback safely rolls back a transaction and logs any error; a rollback
// after commit is a no-op in all wrapped drivers.
func (s Store) rollback(ctx context.Context, tx adapters.DBTx) {
	if rollbackErr := tx.Rollback(ctx); rollbackErr != nil && !errors.Is(rollbackErr, sql.ErrTxDone) {
		s.logWarn("transaction rollback failed", logAttrError, rollbackErr.Error())
	}
}

// closeRows safely closes database rows and logs any errors.
func (s Store) closeRows(rows adapters.DBRows) {
	if closeErr := rows.Close(); closeErr != nil {
		s.logWarn(logMsgCloseRowsFailed, logAttrError, closeErr.Error())
	}
}

// logQueryWithDuration logs SQL queries with execution time at debug level if a logger is configured.
func (s Store) logQueryWithDuration(sqlQuery sqlQueryString, action string, duration time.Duration) {
	if s.logger != nil {
		s.logger.Debug(logMsgSQLExecuted+action, logAttrDurationMS, durationToMilliseconds(duration), logAttrQuery, sqlQuery)
	}
}

// logOperation logs operational information at info level if a logger is configured.
func (s Store) logOperation(action string, args ...any) {
	if s.logger != nil {
		s.logger.Info(logMsgOperation+action, args...)
	}
}

func (s Store) logWarn(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Warn(msg, args...)
	}
}

func (s Store) logError(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Error(msg, args...)
	}
}

// durationToMilliseconds converts a time.Duration to float64 milliseconds with 3 decimal places.
func durationToMilliseconds(d time.Duration) float64 {
	return math.Round(float64(d.Nanoseconds())/1e6*1000) / 1000
}
