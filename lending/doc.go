// Package lending provides the core types and rules for the library
// lending domain.
//
// This package defines the entities managed by the system (Author, Book,
// Member, Loan), the error taxonomy every store operation resolves to,
// and the snapshot types the enforcement layer's pure decision functions
// operate on.
//
// The error taxonomy has exactly three caller-facing categories:
//   - NotFoundError: a referenced entity is absent
//   - RuleViolationError: a named business invariant would be broken
//   - StorageConflictError: a concurrent write lost a race
//
// Each category wraps a sentinel error so callers can classify with
// errors.Is and inspect details with errors.As:
//
//	loan, err := handler.Handle(ctx, command)
//	switch {
//	case errors.Is(err, lending.ErrNotFound):
//		// 404
//	case errors.Is(err, lending.ErrRuleViolation):
//		// 400, reason is in the error message
//	case errors.Is(err, lending.ErrStorageConflict):
//		// 409, safe to retry the whole operation
//	}
package lending
