package createloan

import (
	"time"

	"github.com/google/uuid"

	"github.com/AntonStoeckl/library-lending-go/lending"
)

const (
	commandType = "CreateLoan"
)

// Command represents the intent to lend a book to a member.
// It encapsulates all the necessary information required to execute the create loan use case.
type Command struct {
	MemberID uuid.UUID
	BookID   uuid.UUID
	LendDate time.Time
}

// CommandType returns the type identifier for this command, used for observability and routing.
func (c Command) CommandType() string {
	return commandType
}

// BuildCommand creates a new Command with the provided parameters.
// The lend date is truncated to a calendar day in UTC.
func BuildCommand(memberID uuid.UUID, bookID uuid.UUID, lendDate time.Time) Command {
	return Command{
		MemberID: memberID,
		BookID:   bookID,
		LendDate: lending.DateOf(lendDate),
	}
}
