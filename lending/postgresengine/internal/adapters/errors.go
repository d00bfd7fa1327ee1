package adapters

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

// Postgres error codes relevant to the lending invariants.
const (
	pgCodeUniqueViolation      = "23505"
	pgCodeSerializationFailure = "40001"
	pgCodeDeadlockDetected     = "40P01"
)

// UniqueViolation reports whether err is a unique-constraint violation and,
// if so, returns the name of the violated constraint. It understands the
// error shapes of both pgx and lib/pq.
func UniqueViolation(err error) (string, bool) {
	var pgxErr *pgconn.PgError
	if errors.As(err, &pgxErr) && pgxErr.Code == pgCodeUniqueViolation {
		return pgxErr.ConstraintName, true
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && string(pqErr.Code) == pgCodeUniqueViolation {
		return pqErr.Constraint, true
	}

	return "", false
}

// IsSerializationFailure reports whether err is a serialization failure or
// a deadlock, both of which mean the transaction lost a race and the whole
// operation may be retried from scratch.
func IsSerializationFailure(err error) bool {
	var pgxErr *pgconn.PgError
	if errors.As(err, &pgxErr) {
		return pgxErr.Code == pgCodeSerializationFailure || pgxErr.Code == pgCodeDeadlockDetected
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == pgCodeSerializationFailure || string(pqErr.Code) == pgCodeDeadlockDetected
	}

	return false
}
