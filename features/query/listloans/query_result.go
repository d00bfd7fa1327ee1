package listloans

import (
	"github.com/AntonStoeckl/library-lending-go/lending"
)

// LoanList represents the query result containing the matched loan records.
type LoanList struct {
	Loans []lending.Loan
	Count int
}
