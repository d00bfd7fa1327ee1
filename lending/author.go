package lending

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrEmptyAuthorName = errors.New("author name must not be empty")
var ErrDateOfBirthNotInPast = errors.New("author date of birth must be in the past")

// Author represents a book author in the catalog.
//
// While its properties are exported, it should only be constructed with
// BuildAuthor, which enforces the field-level invariants.
type Author struct {
	ID          uuid.UUID
	Name        string
	DateOfBirth time.Time
}

// BuildAuthor is a factory method for Author.
//
// The date of birth is truncated to a calendar date and must lie in the past.
func BuildAuthor(id uuid.UUID, name string, dateOfBirth time.Time) (Author, error) {
	if name == "" {
		return Author{}, ErrEmptyAuthorName
	}

	dob := DateOf(dateOfBirth)
	if !dob.Before(DateOf(time.Now())) {
		return Author{}, ErrDateOfBirthNotInPast
	}

	return Author{
		ID:          id,
		Name:        name,
		DateOfBirth: dob,
	}, nil
}

// DateOf truncates a timestamp to a calendar date (midnight UTC).
// Lend and return dates carry no time component.
func DateOf(t time.Time) time.Time {
	year, month, day := t.UTC().Date()
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
