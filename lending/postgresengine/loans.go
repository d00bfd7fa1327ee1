package postgresengine

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/google/uuid"

	"github.com/AntonStoeckl/library-lending-go/lending"
	"github.com/AntonStoeckl/library-lending-go/lending/postgresengine/internal/adapters"
)

// CreateLoan runs the create-loan protocol inside one transaction.
//
// It locks the member row and then the book row FOR UPDATE (always in
// that order, so concurrent protocols for the same member or the same
// book serialize and cannot deadlock), assembles the lending state under
// those locks, and hands it to the caller's decide function. Only when
// decide approves is the loan inserted, together with its journal entry,
// and the transaction committed.
//
// The partial unique index on active loans would reject a violating
// insert even if the locking discipline were bypassed; that surfaces as
// a storage conflict and the whole operation may be retried.
func (s Store) CreateLoan(
	ctx context.Context,
	loanID uuid.UUID,
	memberID uuid.UUID,
	bookID uuid.UUID,
	lendDate time.Time,
	decide func(lending.LendingState) error,
) (lending.Loan, error) {

	start := time.Now()
	ctx, span := s.startOperationSpan(ctx, spanNameCreateLoan, operationCreateLoan)

	loan, err := s.createLoanInTx(ctx, loanID, memberID, bookID, lendDate, decide)

	status := statusFromError(err)
	s.finishOperationSpan(span, status)
	s.recordOperationDuration(ctx, operationCreateLoan, status, time.Since(start))

	if errors.Is(err, lending.ErrStorageConflict) {
		s.recordStorageConflict(ctx, operationCreateLoan)
	}

	if err == nil {
		s.logOperationContext(ctx, "loan created",
			"loan_id", loan.ID.String(),
			logAttrDurationMS, durationToMilliseconds(time.Since(start)))
	}

	return loan, err
}

func (s Store) createLoanInTx(
	ctx context.Context,
	loanID uuid.UUID,
	memberID uuid.UUID,
	bookID uuid.UUID,
	lendDate time.Time,
	decide func(lending.LendingState) error,
) (lending.Loan, error) {

	tx, beginErr := s.db.BeginTx(ctx)
	if beginErr != nil {
		s.logError(logMsgBeginTxFailed, logAttrError, beginErr.Error())
		return lending.Loan{}, errors.Join(lending.ErrStorageFailed, beginErr)
	}
	defer s.rollback(ctx, tx)

	memberExists, err := s.lockRow(ctx, tx, membersTableName, memberID, "lock member")
	if err != nil {
		return lending.Loan{}, err
	}

	bookExists, err := s.lockRow(ctx, tx, booksTableName, bookID, "lock book")
	if err != nil {
		return lending.Loan{}, err
	}

	state := lending.LendingState{
		MemberExists: memberExists,
		BookExists:   bookExists,
	}

	// The loan predicates only matter when both rows exist and are locked.
	if memberExists && bookExists {
		activeForBook, countErr := s.countActiveLoansInTx(ctx, tx, colBookID, bookID)
		if countErr != nil {
			return lending.Loan{}, countErr
		}

		activeForMember, countErr := s.countActiveLoansInTx(ctx, tx, colMemberID, memberID)
		if countErr != nil {
			return lending.Loan{}, countErr
		}

		state.BookHasActiveLoan = activeForBook > 0
		state.MemberActiveLoanCount = int(activeForMember)
	}

	if decideErr := decide(state); decideErr != nil {
		return lending.Loan{}, decideErr
	}

	loan := lending.Loan{
		ID:       loanID,
		MemberID: memberID,
		BookID:   bookID,
		LendDate: lending.DateOf(lendDate),
	}

	insertQuery, _, toSQLErr := s.builder().
		Insert(loansTableName).
		Rows(goqu.Record{
			colID:       loan.ID.String(),
			colMemberID: loan.MemberID.String(),
			colBookID:   loan.BookID.String(),
			colLendDate: loan.LendDate.Format(dateFormat),
		}).
		ToSQL()
	if toSQLErr != nil {
		s.logError(logMsgBuildQueryFailed, logAttrError, toSQLErr.Error())
		return lending.Loan{}, errors.Join(lending.ErrStorageFailed, toSQLErr)
	}

	if _, err = s.execInTx(ctx, tx, insertQuery, "insert loan"); err != nil {
		return lending.Loan{}, err
	}

	if err = s.journalLoanTransition(ctx, tx, loan, journalActionLent); err != nil {
		return lending.Loan{}, err
	}

	if commitErr := tx.Commit(ctx); commitErr != nil {
		s.logError(logMsgCommitTxFailed, logAttrError, commitErr.Error())
		return lending.Loan{}, s.classifyExecError(commitErr, insertQuery)
	}

	return loan, nil
}

// ReturnLoan runs the return protocol inside one transaction.
//
// It locks the loan row FOR UPDATE, assembles the return state and hands
// it to the caller's decide function; on approval the return date is set
// and the transition journaled. Two concurrent returns for the same loan
// serialize on the row lock - the second observes the return date already
// set and its decide rejects.
func (s Store) ReturnLoan(
	ctx context.Context,
	loanID uuid.UUID,
	returnDate time.Time,
	decide func(lending.ReturnState) error,
) (lending.Loan, error) {

	start := time.Now()
	ctx, span := s.startOperationSpan(ctx, spanNameReturnLoan, operationReturnLoan)

	loan, err := s.returnLoanInTx(ctx, loanID, returnDate, decide)

	status := statusFromError(err)
	s.finishOperationSpan(span, status)
	s.recordOperationDuration(ctx, operationReturnLoan, status, time.Since(start))

	if errors.Is(err, lending.ErrStorageConflict) {
		s.recordStorageConflict(ctx, operationReturnLoan)
	}

	if err == nil {
		s.logOperationContext(ctx, "loan returned",
			"loan_id", loan.ID.String(),
			logAttrDurationMS, durationToMilliseconds(time.Since(start)))
	}

	return loan, err
}

func (s Store) returnLoanInTx(
	ctx context.Context,
	loanID uuid.UUID,
	returnDate time.Time,
	decide func(lending.ReturnState) error,
) (lending.Loan, error) {

	tx, beginErr := s.db.BeginTx(ctx)
	if beginErr != nil {
		s.logError(logMsgBeginTxFailed, logAttrError, beginErr.Error())
		return lending.Loan{}, errors.Join(lending.ErrStorageFailed, beginErr)
	}
	defer s.rollback(ctx, tx)

	selectQuery, _, toSQLErr := s.buildSelectLoans().
		Where(goqu.Ex{colID: loanID.String()}).
		ForUpdate(exp.Wait).
		ToSQL()
	if toSQLErr != nil {
		s.logError(logMsgBuildQueryFailed, logAttrError, toSQLErr.Error())
		return lending.Loan{}, errors.Join(lending.ErrStorageFailed, toSQLErr)
	}

	rows, queryErr := s.queryInTx(ctx, tx, selectQuery, "lock loan")
	if queryErr != nil {
		return lending.Loan{}, queryErr
	}

	var loan lending.Loan
	state := lending.ReturnState{}

	if rows.Next() {
		scannedLoan, scanErr := s.scanLoan(rows)
		if scanErr != nil {
			s.closeRows(rows)
			return lending.Loan{}, scanErr
		}

		loan = scannedLoan
		state.LoanExists = true
		state.AlreadyReturned = !loan.IsActive()
	}

	s.closeRows(rows)

	if decideErr := decide(state); decideErr != nil {
		return lending.Loan{}, decideErr
	}

	closedDate := lending.DateOf(returnDate)

	updateQuery, _, toSQLErr := s.builder().
		Update(loansTableName).
		Set(goqu.Record{colReturnDate: closedDate.Format(dateFormat)}).
		Where(goqu.Ex{colID: loanID.String()}).
		ToSQL()
	if toSQLErr != nil {
		s.logError(logMsgBuildQueryFailed, logAttrError, toSQLErr.Error())
		return lending.Loan{}, errors.Join(lending.ErrStorageFailed, toSQLErr)
	}

	if _, err := s.execInTx(ctx, tx, updateQuery, "close loan"); err != nil {
		return lending.Loan{}, err
	}

	loan.ReturnDate = &closedDate

	if err := s.journalLoanTransition(ctx, tx, loan, journalActionReturned); err != nil {
		return lending.Loan{}, err
	}

	if commitErr := tx.Commit(ctx); commitErr != nil {
		s.logError(logMsgCommitTxFailed, logAttrError, commitErr.Error())
		return lending.Loan{}, s.classifyExecError(commitErr, updateQuery)
	}

	return loan, nil
}

// GetLoan loads one loan by id.
func (s Store) GetLoan(ctx context.Context, id uuid.UUID) (lending.Loan, error) {
	sqlQuery, _, toSQLErr := s.buildSelectLoans().
		Where(goqu.Ex{colID: id.String()}).
		ToSQL()
	if toSQLErr != nil {
		s.logError(logMsgBuildQueryFailed, logAttrError, toSQLErr.Error())
		return lending.Loan{}, errors.Join(lending.ErrStorageFailed, toSQLErr)
	}

	rows, queryErr := s.executeQuery(ctx, sqlQuery, "get loan")
	if queryErr != nil {
		return lending.Loan{}, queryErr
	}
	defer s.closeRows(rows)

	if !rows.Next() {
		return lending.Loan{}, lending.NewNotFound(lending.ResourceLoan, id)
	}

	return s.scanLoan(rows)
}

// ListLoans returns all loans ordered by id. UUIDv7 ids are time-sortable,
// so the order is stable and roughly chronological.
func (s Store) ListLoans(ctx context.Context) ([]lending.Loan, error) {
	sqlQuery, _, toSQLErr := s.buildSelectLoans().
		Order(goqu.I(colID).Asc()).
		ToSQL()
	if toSQLErr != nil {
		s.logError(logMsgBuildQueryFailed, logAttrError, toSQLErr.Error())
		return nil, errors.Join(lending.ErrStorageFailed, toSQLErr)
	}

	return s.queryLoans(ctx, sqlQuery, "list loans")
}

// ListActiveLoansForMember returns the member's unreturned loans.
func (s Store) ListActiveLoansForMember(ctx context.Context, memberID uuid.UUID) ([]lending.Loan, error) {
	sqlQuery, _, toSQLErr := s.buildSelectLoans().
		Where(goqu.Ex{
			colMemberID:   memberID.String(),
			colReturnDate: nil,
		}).
		Order(goqu.I(colID).Asc()).
		ToSQL()
	if toSQLErr != nil {
		s.logError(logMsgBuildQueryFailed, logAttrError, toSQLErr.Error())
		return nil, errors.Join(lending.ErrStorageFailed, toSQLErr)
	}

	return s.queryLoans(ctx, sqlQuery, "list active loans for member")
}

// lockRow selects a row by id FOR UPDATE inside the transaction and
// reports whether it exists. The lock is held until commit/rollback.
func (s Store) lockRow(ctx context.Context, tx adapters.DBTx, tableName string, id uuid.UUID, action string) (bool, error) {
	sqlQuery, _, toSQLErr := s.builder().
		From(tableName).
		Select(colID).
		Where(goqu.Ex{colID: id.String()}).
		ForUpdate(exp.Wait).
		ToSQL()
	if toSQLErr != nil {
		s.logError(logMsgBuildQueryFailed, logAttrError, toSQLErr.Error())
		return false, errors.Join(lending.ErrStorageFailed, toSQLErr)
	}

	rows, queryErr := s.queryInTx(ctx, tx, sqlQuery, action)
	if queryErr != nil {
		return false, queryErr
	}
	defer s.closeRows(rows)

	return rows.Next(), nil
}

func (s Store) countActiveLoansInTx(ctx context.Context, tx adapters.DBTx, column string, id uuid.UUID) (int64, error) {
	sqlQuery, _, toSQLErr := s.builder().
		From(loansTableName).
		Select(goqu.COUNT(colID)).
		Where(goqu.Ex{
			column:        id.String(),
			colReturnDate: nil,
		}).
		ToSQL()
	if toSQLErr != nil {
		s.logError(logMsgBuildQueryFailed, logAttrError, toSQLErr.Error())
		return 0, errors.Join(lending.ErrStorageFailed, toSQLErr)
	}

	rows, queryErr := s.queryInTx(ctx, tx, sqlQuery, "count active loans")
	if queryErr != nil {
		return 0, queryErr
	}
	defer s.closeRows(rows)

	var count int64

	if rows.Next() {
		if scanErr := rows.Scan(&count); scanErr != nil {
			s.logError(logMsgScanRowFailed, logAttrError, scanErr.Error())
			return 0, errors.Join(lending.ErrStorageFailed, scanErr)
		}
	}

	return count, nil
}

func (s Store) buildSelectLoans() *goqu.SelectDataset {
	return s.builder().
		From(loansTableName).
		Select(colID, colMemberID, colBookID, colLendDate, colReturnDate)
}

func (s Store) queryLoans(ctx context.Context, sqlQuery sqlQueryString, action string) ([]lending.Loan, error) {
	rows, queryErr := s.executeQuery(ctx, sqlQuery, action)
	if queryErr != nil {
		return nil, queryErr
	}
	defer s.closeRows(rows)

	loans := make([]lending.Loan, 0)

	for rows.Next() {
		loan, scanErr := s.scanLoan(rows)
		if scanErr != nil {
			return nil, scanErr
		}

		loans = append(loans, loan)
	}

	return loans, nil
}

func (s Store) scanLoan(rows adapters.DBRows) (lending.Loan, error) {
	var loan lending.Loan
	var returnDate sql.NullTime

	scanErr := rows.Scan(&loan.ID, &loan.MemberID, &loan.BookID, &loan.LendDate, &returnDate)
	if scanErr != nil {
		s.logError(logMsgScanRowFailed, logAttrError, scanErr.Error())
		return lending.Loan{}, errors.Join(lending.ErrStorageFailed, scanErr)
	}

	loan.LendDate = lending.DateOf(loan.LendDate)

	if returnDate.Valid {
		closedDate := lending.DateOf(returnDate.Time)
		loan.ReturnDate = &closedDate
	}

	return loan, nil
}
