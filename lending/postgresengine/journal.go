package postgresengine

import (
	"context"
	"errors"
	"time"

	"github.com/doug-martin/goqu/v9"
	jsoniter "github.com/json-iterator/go"

	"github.com/AntonStoeckl/library-lending-go/lending"
	"github.com/AntonStoeckl/library-lending-go/lending/postgresengine/internal/adapters"
)

const (
	journalActionLent     = "loan_lent"
	journalActionReturned = "loan_returned"

	colLoanID     = "loan_id"
	colAction     = "action"
	colPayload    = "payload"
	colRecordedAt = "recorded_at"
)

// journalPayload is the JSON shape of one loan_journal row.
type journalPayload struct {
	LoanID     string `json:"loan_id"`
	MemberID   string `json:"member_id"`
	BookID     string `json:"book_id"`
	LendDate   string `json:"lend_date"`
	ReturnDate string `json:"return_date,omitempty"`
}

// journalLoanTransition appends an audit row for one loan transition in
// the same transaction as the transition itself, so the journal can never
// disagree with the ledger.
func (s Store) journalLoanTransition(ctx context.Context, tx adapters.DBTx, loan lending.Loan, action string) error {
	payload := journalPayload{
		LoanID:   loan.ID.String(),
		MemberID: loan.MemberID.String(),
		BookID:   loan.BookID.String(),
		LendDate: loan.LendDate.Format(dateFormat),
	}

	if loan.ReturnDate != nil {
		payload.ReturnDate = loan.ReturnDate.Format(dateFormat)
	}

	payloadJSON, marshalErr := jsoniter.ConfigFastest.Marshal(payload)
	if marshalErr != nil {
		s.logError("failed to marshal journal payload", logAttrError, marshalErr.Error())
		return errors.Join(lending.ErrStorageFailed, marshalErr)
	}

	sqlQuery, _, toSQLErr := s.builder().
		Insert(journalTableName).
		Cols(colLoanID, colAction, colPayload).
		Vals(goqu.Vals{
			loan.ID.String(),
			action,
			goqu.L("?::jsonb", string(payloadJSON)),
		}).
		ToSQL()
	if toSQLErr != nil {
		s.logError(logMsgBuildQueryFailed, logAttrError, toSQLErr.Error())
		return errors.Join(lending.ErrStorageFailed, toSQLErr)
	}

	_, execErr := s.execInTx(ctx, tx, sqlQuery, "journal loan transition")

	return execErr
}

// JournalEntry is one audit record of a loan transition.
type JournalEntry struct {
	LoanID     string
	Action     string
	Payload    []byte
	RecordedAt time.Time
}

// ReadJournal returns the audit trail for one loan, oldest first.
func (s Store) ReadJournal(ctx context.Context, loanID string) ([]JournalEntry, error) {
	sqlQuery, _, toSQLErr := s.builder().
		From(journalTableName).
		Select(colLoanID, colAction, colPayload, colRecordedAt).
		Where(goqu.Ex{colLoanID: loanID}).
		Order(goqu.I(colRecordedAt).Asc(), goqu.I(colID).Asc()).
		ToSQL()
	if toSQLErr != nil {
		s.logError(logMsgBuildQueryFailed, logAttrError, toSQLErr.Error())
		return nil, errors.Join(lending.ErrStorageFailed, toSQLErr)
	}

	rows, queryErr := s.executeQuery(ctx, sqlQuery, "read journal")
	if queryErr != nil {
		return nil, queryErr
	}
	defer s.closeRows(rows)

	entries := make([]JournalEntry, 0)

	for rows.Next() {
		var entry JournalEntry

		if scanErr := rows.Scan(&entry.LoanID, &entry.Action, &entry.Payload, &entry.RecordedAt); scanErr != nil {
			s.logError(logMsgScanRowFailed, logAttrError, scanErr.Error())
			return nil, errors.Join(lending.ErrStorageFailed, scanErr)
		}

		entries = append(entries, entry)
	}

	return entries, nil
}
