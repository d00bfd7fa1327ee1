package postgresengine

import (
	"context"
	"errors"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"

	"github.com/AntonStoeckl/library-lending-go/lending"
	"github.com/AntonStoeckl/library-lending-go/lending/postgresengine/internal/adapters"
)

// CreateBook inserts a new book with version 1.
//
// The referenced author must exist and the (title, author) pair must be
// free; a duplicate pair is a rule violation. The unique constraint on
// (title, author_id) resolves insert races to a single winner - the loser
// observes a storage conflict and may retry, at which point the pre-check
// reports the duplicate as a rule violation.
func (s Store) CreateBook(ctx context.Context, book lending.Book) (lending.Book, error) {
	authorFound, err := s.authorExists(ctx, book.AuthorID)
	if err != nil {
		return lending.Book{}, err
	}

	if !authorFound {
		return lending.Book{}, lending.NewNotFound(lending.ResourceAuthor, book.AuthorID)
	}

	titleTaken, err := s.bookTitleExistsForAuthor(ctx, book.Title, book.AuthorID, uuid.Nil)
	if err != nil {
		return lending.Book{}, err
	}

	if titleTaken {
		return lending.Book{}, lending.NewRuleViolation(lending.ReasonDuplicateTitleForAuthor)
	}

	book.Version = 1

	sqlQuery, _, toSQLErr := s.builder().
		Insert(booksTableName).
		Rows(goqu.Record{
			colID:         book.ID.String(),
			colTitle:      book.Title,
			colGenre:      book.Genre,
			colPriceCents: book.PriceCents,
			colAuthorID:   book.AuthorID.String(),
			colVersion:    book.Version,
		}).
		ToSQL()
	if toSQLErr != nil {
		s.logError(logMsgBuildQueryFailed, logAttrError, toSQLErr.Error())
		return lending.Book{}, errors.Join(lending.ErrStorageFailed, toSQLErr)
	}

	if _, err = s.executeStatement(ctx, sqlQuery, "create book"); err != nil {
		return lending.Book{}, err
	}

	return book, nil
}

// UpdateBook overwrites a book's fields with optimistic concurrency:
// the update must present the version last read and increments it.
// A version mismatch on an existing row is a storage conflict, distinct
// from the duplicate-title rule violation.
func (s Store) UpdateBook(ctx context.Context, book lending.Book) (lending.Book, error) {
	authorFound, err := s.authorExists(ctx, book.AuthorID)
	if err != nil {
		return lending.Book{}, err
	}

	if !authorFound {
		return lending.Book{}, lending.NewNotFound(lending.ResourceAuthor, book.AuthorID)
	}

	titleTaken, err := s.bookTitleExistsForAuthor(ctx, book.Title, book.AuthorID, book.ID)
	if err != nil {
		return lending.Book{}, err
	}

	if titleTaken {
		return lending.Book{}, lending.NewRuleViolation(lending.ReasonDuplicateTitleForAuthor)
	}

	sqlQuery, _, toSQLErr := s.builder().
		Update(booksTableName).
		Set(goqu.Record{
			colTitle:      book.Title,
			colGenre:      book.Genre,
			colPriceCents: book.PriceCents,
			colAuthorID:   book.AuthorID.String(),
			colVersion:    goqu.L(colVersion + " + 1"),
		}).
		Where(goqu.Ex{
			colID:      book.ID.String(),
			colVersion: book.Version,
		}).
		ToSQL()
	if toSQLErr != nil {
		s.logError(logMsgBuildQueryFailed, logAttrError, toSQLErr.Error())
		return lending.Book{}, errors.Join(lending.ErrStorageFailed, toSQLErr)
	}

	rowsAffected, execErr := s.executeStatement(ctx, sqlQuery, "update book")
	if execErr != nil {
		return lending.Book{}, execErr
	}

	if rowsAffected == 0 {
		exists, existsErr := s.bookExists(ctx, book.ID)
		if existsErr != nil {
			return lending.Book{}, existsErr
		}

		if !exists {
			return lending.Book{}, lending.NewNotFound(lending.ResourceBook, book.ID)
		}

		s.logOperation(logMsgStorageConflict, logAttrResource, string(lending.ResourceBook))

		return lending.Book{}, lending.NewStorageConflict(lending.ConflictVersionMismatch)
	}

	book.Version++

	return book, nil
}

// GetBook loads one book by id.
func (s Store) GetBook(ctx context.Context, id uuid.UUID) (lending.Book, error) {
	sqlQuery, _, toSQLErr := s.buildSelectBooks().
		Where(goqu.Ex{colID: id.String()}).
		ToSQL()
	if toSQLErr != nil {
		s.logError(logMsgBuildQueryFailed, logAttrError, toSQLErr.Error())
		return lending.Book{}, errors.Join(lending.ErrStorageFailed, toSQLErr)
	}

	rows, queryErr := s.executeQuery(ctx, sqlQuery, "get book")
	if queryErr != nil {
		return lending.Book{}, queryErr
	}
	defer s.closeRows(rows)

	if !rows.Next() {
		return lending.Book{}, lending.NewNotFound(lending.ResourceBook, id)
	}

	return s.scanBook(rows)
}

// ListBooks returns all books ordered by id.
func (s Store) ListBooks(ctx context.Context) ([]lending.Book, error) {
	sqlQuery, _, toSQLErr := s.buildSelectBooks().
		Order(goqu.I(colID).Asc()).
		ToSQL()
	if toSQLErr != nil {
		s.logError(logMsgBuildQueryFailed, logAttrError, toSQLErr.Error())
		return nil, errors.Join(lending.ErrStorageFailed, toSQLErr)
	}

	rows, queryErr := s.executeQuery(ctx, sqlQuery, "list books")
	if queryErr != nil {
		return nil, queryErr
	}
	defer s.closeRows(rows)

	books := make([]lending.Book, 0)

	for rows.Next() {
		book, scanErr := s.scanBook(rows)
		if scanErr != nil {
			return nil, scanErr
		}

		books = append(books, book)
	}

	return books, nil
}

// DeleteBook removes a book row.
func (s Store) DeleteBook(ctx context.Context, id uuid.UUID) error {
	sqlQuery, _, toSQLErr := s.builder().
		Delete(booksTableName).
		Where(goqu.Ex{colID: id.String()}).
		ToSQL()
	if toSQLErr != nil {
		s.logError(logMsgBuildQueryFailed, logAttrError, toSQLErr.Error())
		return errors.Join(lending.ErrStorageFailed, toSQLErr)
	}

	rowsAffected, execErr := s.executeStatement(ctx, sqlQuery, "delete book")
	if execErr != nil {
		return execErr
	}

	if rowsAffected == 0 {
		return lending.NewNotFound(lending.ResourceBook, id)
	}

	return nil
}

func (s Store) buildSelectBooks() *goqu.SelectDataset {
	return s.builder().
		From(booksTableName).
		Select(colID, colTitle, colGenre, colPriceCents, colAuthorID, colVersion)
}

func (s Store) bookExists(ctx context.Context, id uuid.UUID) (bool, error) {
	sqlQuery, _, toSQLErr := s.builder().
		From(booksTableName).
		Select(goqu.COUNT(colID)).
		Where(goqu.Ex{colID: id.String()}).
		ToSQL()
	if toSQLErr != nil {
		s.logError(logMsgBuildQueryFailed, logAttrError, toSQLErr.Error())
		return false, errors.Join(lending.ErrStorageFailed, toSQLErr)
	}

	count, err := s.queryCount(ctx, sqlQuery, "book exists")
	if err != nil {
		return false, err
	}

	return count > 0, nil
}

// bookTitleExistsForAuthor reports whether another book (excluding
// excludeID) already uses the given title for the given author.
func (s Store) bookTitleExistsForAuthor(ctx context.Context, title string, authorID uuid.UUID, excludeID uuid.UUID) (bool, error) {
	selectStmt := s.builder().
		From(booksTableName).
		Select(goqu.COUNT(colID)).
		Where(goqu.Ex{
			colTitle:    title,
			colAuthorID: authorID.String(),
		})

	if excludeID != uuid.Nil {
		selectStmt = selectStmt.Where(goqu.C(colID).Neq(excludeID.String()))
	}

	sqlQuery, _, toSQLErr := selectStmt.ToSQL()
	if toSQLErr != nil {
		s.logError(logMsgBuildQueryFailed, logAttrError, toSQLErr.Error())
		return false, errors.Join(lending.ErrStorageFailed, toSQLErr)
	}

	count, err := s.queryCount(ctx, sqlQuery, "book title exists for author")
	if err != nil {
		return false, err
	}

	return count > 0, nil
}

func (s Store) scanBook(rows adapters.DBRows) (lending.Book, error) {
	var book lending.Book

	scanErr := rows.Scan(&book.ID, &book.Title, &book.Genre, &book.PriceCents, &book.AuthorID, &book.Version)
	if scanErr != nil {
		s.logError(logMsgScanRowFailed, logAttrError, scanErr.Error())
		return lending.Book{}, errors.Join(lending.ErrStorageFailed, scanErr)
	}

	return book, nil
}
