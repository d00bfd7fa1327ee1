package lending

import (
	"errors"
	"net/mail"

	"github.com/google/uuid"
)

var ErrEmptyUsername = errors.New("member username must not be empty")
var ErrInvalidEmail = errors.New("member email has an invalid shape")

// Member represents a library member.
//
// Username and Email are each unique system-wide; the identity store
// enforces both as database constraints.
type Member struct {
	ID          uuid.UUID
	Username    string
	Email       string
	Address     string
	PhoneNumber string
}

// BuildMember is a factory method for Member.
//
// Returns an error if the username is empty or the email does not parse
// as an address.
func BuildMember(id uuid.UUID, username string, email string, address string, phoneNumber string) (Member, error) {
	if username == "" {
		return Member{}, ErrEmptyUsername
	}

	if _, parseErr := mail.ParseAddress(email); parseErr != nil {
		return Member{}, ErrInvalidEmail
	}

	return Member{
		ID:          id,
		Username:    username,
		Email:       email,
		Address:     address,
		PhoneNumber: phoneNumber,
	}, nil
}
