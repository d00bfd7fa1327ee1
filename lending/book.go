package lending

import (
	"errors"

	"github.com/google/uuid"
)

var ErrEmptyBookTitle = errors.New("book title must not be empty")
var ErrEmptyBookGenre = errors.New("book genre must not be empty")
var ErrNonPositivePrice = errors.New("book price must be positive")

// Book represents a single, non-fungible copy in the catalog.
//
// The pair (Title, AuthorID) is unique across all books; the Version
// counter increments on every update and drives the optimistic
// concurrency check on writes. A Book carries no "is loaned" flag -
// loan status is derived from the loan ledger.
type Book struct {
	ID         uuid.UUID
	Title      string
	Genre      string
	PriceCents int64
	AuthorID   uuid.UUID
	Version    int64
}

// BuildBook is a factory method for Book.
//
// The price is given in the smallest currency unit and must be positive.
func BuildBook(id uuid.UUID, title string, genre string, priceCents int64, authorID uuid.UUID) (Book, error) {
	if title == "" {
		return Book{}, ErrEmptyBookTitle
	}

	if genre == "" {
		return Book{}, ErrEmptyBookGenre
	}

	if priceCents <= 0 {
		return Book{}, ErrNonPositivePrice
	}

	return Book{
		ID:         id,
		Title:      title,
		Genre:      genre,
		PriceCents: priceCents,
		AuthorID:   authorID,
		Version:    1,
	}, nil
}
