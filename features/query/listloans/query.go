package listloans

import (
	"github.com/google/uuid"
)

const (
	queryType = "ListLoans"
)

// Query represents the intent to list loan records.
// The zero value lists the whole ledger.
type Query struct {
	MemberID   uuid.UUID
	ActiveOnly bool
}

// BuildQuery creates a Query that lists all loans, active and returned.
func BuildQuery() Query {
	return Query{}
}

// BuildActiveForMemberQuery creates a Query that lists only the active loans
// held by the given member.
func BuildActiveForMemberQuery(memberID uuid.UUID) Query {
	return Query{
		MemberID:   memberID,
		ActiveOnly: true,
	}
}

// QueryType returns the query type.
func (q Query) QueryType() string {
	return queryType
}
