package helper

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/library-lending-go/lending"
	"github.com/AntonStoeckl/library-lending-go/lending/postgresengine"
)

// GivenAuthor creates an author record with generated data.
func GivenAuthor(t testing.TB, store postgresengine.Store) lending.Author {
	t.Helper()

	id := uuid.New()

	author, err := lending.BuildAuthor(
		id,
		fmt.Sprintf("Author %s", shortID(id)),
		time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC),
	)
	require.NoError(t, err, "error in arranging test data")

	created, err := store.CreateAuthor(context.Background(), author)
	require.NoError(t, err, "error in arranging test data")

	return created
}

// GivenBook creates a book record with generated data for the given author.
func GivenBook(t testing.TB, store postgresengine.Store, authorID uuid.UUID) lending.Book {
	t.Helper()

	id := uuid.New()

	book, err := lending.BuildBook(
		id,
		fmt.Sprintf("Book %s", shortID(id)),
		"Fiction",
		1999,
		authorID,
	)
	require.NoError(t, err, "error in arranging test data")

	created, err := store.CreateBook(context.Background(), book)
	require.NoError(t, err, "error in arranging test data")

	return created
}

// GivenMember creates a member record with generated data.
func GivenMember(t testing.TB, store postgresengine.Store) lending.Member {
	t.Helper()

	id := uuid.New()

	member, err := lending.BuildMember(
		id,
		fmt.Sprintf("member_%s", shortID(id)),
		fmt.Sprintf("member_%s@example.com", shortID(id)),
		"1 Library Lane",
		"+49 123 4567",
	)
	require.NoError(t, err, "error in arranging test data")

	created, err := store.CreateMember(context.Background(), member)
	require.NoError(t, err, "error in arranging test data")

	return created
}

// GivenActiveLoan lends the given book to the given member, accepting any state.
func GivenActiveLoan(t testing.TB, store postgresengine.Store, memberID uuid.UUID, bookID uuid.UUID) lending.Loan {
	t.Helper()

	loan, err := store.CreateLoan(
		context.Background(),
		uuid.New(),
		memberID,
		bookID,
		lending.DateOf(time.Now()),
		func(lending.LendingState) error { return nil },
	)
	require.NoError(t, err, "error in arranging test data")

	return loan
}

func shortID(id uuid.UUID) string {
	return id.String()[:8]
}
