package postgresengine

import (
	"context"
	"errors"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"

	"github.com/AntonStoeckl/library-lending-go/lending"
	"github.com/AntonStoeckl/library-lending-go/lending/postgresengine/internal/adapters"
)

// CreateAuthor inserts a new author row.
func (s Store) CreateAuthor(ctx context.Context, author lending.Author) (lending.Author, error) {
	sqlQuery, _, toSQLErr := s.builder().
		Insert(authorsTableName).
		Rows(goqu.Record{
			colID:          author.ID.String(),
			colName:        author.Name,
			colDateOfBirth: author.DateOfBirth.Format(dateFormat),
		}).
		ToSQL()
	if toSQLErr != nil {
		s.logError(logMsgBuildQueryFailed, logAttrError, toSQLErr.Error())
		return lending.Author{}, errors.Join(lending.ErrStorageFailed, toSQLErr)
	}

	if _, err := s.executeStatement(ctx, sqlQuery, "create author"); err != nil {
		return lending.Author{}, err
	}

	return author, nil
}

// GetAuthor loads one author by id.
func (s Store) GetAuthor(ctx context.Context, id uuid.UUID) (lending.Author, error) {
	sqlQuery, _, toSQLErr := s.builder().
		From(authorsTableName).
		Select(colID, colName, colDateOfBirth).
		Where(goqu.Ex{colID: id.String()}).
		ToSQL()
	if toSQLErr != nil {
		s.logError(logMsgBuildQueryFailed, logAttrError, toSQLErr.Error())
		return lending.Author{}, errors.Join(lending.ErrStorageFailed, toSQLErr)
	}

	rows, queryErr := s.executeQuery(ctx, sqlQuery, "get author")
	if queryErr != nil {
		return lending.Author{}, queryErr
	}
	defer s.closeRows(rows)

	if !rows.Next() {
		return lending.Author{}, lending.NewNotFound(lending.ResourceAuthor, id)
	}

	return s.scanAuthor(rows)
}

// ListAuthors returns all authors ordered by id.
func (s Store) ListAuthors(ctx context.Context) ([]lending.Author, error) {
	sqlQuery, _, toSQLErr := s.builder().
		From(authorsTableName).
		Select(colID, colName, colDateOfBirth).
		Order(goqu.I(colID).Asc()).
		ToSQL()
	if toSQLErr != nil {
		s.logError(logMsgBuildQueryFailed, logAttrError, toSQLErr.Error())
		return nil, errors.Join(lending.ErrStorageFailed, toSQLErr)
	}

	rows, queryErr := s.executeQuery(ctx, sqlQuery, "list authors")
	if queryErr != nil {
		return nil, queryErr
	}
	defer s.closeRows(rows)

	authors := make([]lending.Author, 0)

	for rows.Next() {
		author, scanErr := s.scanAuthor(rows)
		if scanErr != nil {
			return nil, scanErr
		}

		authors = append(authors, author)
	}

	return authors, nil
}

// UpdateAuthor overwrites an existing author's fields.
func (s Store) UpdateAuthor(ctx context.Context, author lending.Author) (lending.Author, error) {
	sqlQuery, _, toSQLErr := s.builder().
		Update(authorsTableName).
		Set(goqu.Record{
			colName:        author.Name,
			colDateOfBirth: author.DateOfBirth.Format(dateFormat),
		}).
		Where(goqu.Ex{colID: author.ID.String()}).
		ToSQL()
	if toSQLErr != nil {
		s.logError(logMsgBuildQueryFailed, logAttrError, toSQLErr.Error())
		return lending.Author{}, errors.Join(lending.ErrStorageFailed, toSQLErr)
	}

	rowsAffected, execErr := s.executeStatement(ctx, sqlQuery, "update author")
	if execErr != nil {
		return lending.Author{}, execErr
	}

	if rowsAffected == 0 {
		return lending.Author{}, lending.NewNotFound(lending.ResourceAuthor, author.ID)
	}

	return author, nil
}

// DeleteAuthor removes an author row. Whether an author with books may be
// deleted is a caller-level policy; the foreign key rejects it here.
func (s Store) DeleteAuthor(ctx context.Context, id uuid.UUID) error {
	sqlQuery, _, toSQLErr := s.builder().
		Delete(authorsTableName).
		Where(goqu.Ex{colID: id.String()}).
		ToSQL()
	if toSQLErr != nil {
		s.logError(logMsgBuildQueryFailed, logAttrError, toSQLErr.Error())
		return errors.Join(lending.ErrStorageFailed, toSQLErr)
	}

	rowsAffected, execErr := s.executeStatement(ctx, sqlQuery, "delete author")
	if execErr != nil {
		return execErr
	}

	if rowsAffected == 0 {
		return lending.NewNotFound(lending.ResourceAuthor, id)
	}

	return nil
}

// authorExists reports whether an author row with the given id exists.
func (s Store) authorExists(ctx context.Context, id uuid.UUID) (bool, error) {
	sqlQuery, _, toSQLErr := s.builder().
		From(authorsTableName).
		Select(goqu.COUNT(colID)).
		Where(goqu.Ex{colID: id.String()}).
		ToSQL()
	if toSQLErr != nil {
		s.logError(logMsgBuildQueryFailed, logAttrError, toSQLErr.Error())
		return false, errors.Join(lending.ErrStorageFailed, toSQLErr)
	}

	count, err := s.queryCount(ctx, sqlQuery, "author exists")
	if err != nil {
		return false, err
	}

	return count > 0, nil
}

func (s Store) scanAuthor(rows adapters.DBRows) (lending.Author, error) {
	var author lending.Author

	if scanErr := rows.Scan(&author.ID, &author.Name, &author.DateOfBirth); scanErr != nil {
		s.logError(logMsgScanRowFailed, logAttrError, scanErr.Error())
		return lending.Author{}, errors.Join(lending.ErrStorageFailed, scanErr)
	}

	author.DateOfBirth = lending.DateOf(author.DateOfBirth)

	return author, nil
}

// queryCount runs a single-value count query outside any transaction.
func (s Store) queryCount(ctx context.Context, sqlQuery sqlQueryString, action string) (int64, error) {
	rows, queryErr := s.executeQuery(ctx, sqlQuery, action)
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
