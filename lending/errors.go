package lending

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("resource not found")
var ErrRuleViolation = errors.New("business rule violated")
var ErrStorageConflict = errors.New("concurrent write conflict")
var ErrStorageFailed = errors.New("storage operation failed")
var ErrNilDatabaseConnection = errors.New("database connection must not be nil")

// Resource names the entity kind a NotFoundError refers to.
type Resource string

const (
	ResourceAuthor Resource = "author"
	ResourceBook   Resource = "book"
	ResourceMember Resource = "member"
	ResourceLoan   Resource = "loan"
)

// Reason names the business invariant a RuleViolationError refers to.
// Reasons are surfaced verbatim to the caller and never retried.
type Reason string

const (
	ReasonBookAlreadyLoaned       Reason = "book is already loaned"
	ReasonMemberLoanLimitReached  Reason = "member has reached the maximum limit of 5 books"
	ReasonAlreadyReturned         Reason = "book already returned"
	ReasonUsernameTaken           Reason = "username already exists"
	ReasonEmailTaken              Reason = "email already exists"
	ReasonDuplicateTitleForAuthor Reason = "author already has a book with this title"
)

// ConflictKind names the race a StorageConflictError was caused by.
type ConflictKind string

const (
	ConflictVersionMismatch ConflictKind = "version mismatch"
	ConflictUniqueViolation ConflictKind = "unique constraint violation"
	ConflictSerialization   ConflictKind = "transaction serialization failure"
)

// NotFoundError reports that a referenced entity does not exist.
// It wraps ErrNotFound.
type NotFoundError struct {
	Resource Resource
	ID       uuid.UUID
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s not found with id: %s", e.Resource, e.ID)
}

func (e NotFoundError) Unwrap() error {
	return ErrNotFound
}

// NewNotFound builds a NotFoundError for the given resource kind and id.
func NewNotFound(resource Resource, id uuid.UUID) error {
	return NotFoundError{Resource: resource, ID: id}
}

// RuleViolationError reports that committing the operation would break a
// named business invariant. It wraps ErrRuleViolation.
type RuleViolationError struct {
	Reason Reason
}

func (e RuleViolationError) Error() string {
	return string(e.Reason)
}

func (e RuleViolationError) Unwrap() error {
	return ErrRuleViolation
}

// NewRuleViolation builds a RuleViolationError for the given reason.
func NewRuleViolation(reason Reason) error {
	return RuleViolationError{Reason: reason}
}

// StorageConflictError reports that a concurrent write invalidated the
// assumptions of the current operation. Callers may retry the whole
// operation from scratch. It wraps ErrStorageConflict.
type StorageConflictError struct {
	Kind ConflictKind
}

func (e StorageConflictError) Error() string {
	return string(e.Kind)
}

func (e StorageConflictError) Unwrap() error {
	return ErrStorageConflict
}

// NewStorageConflict builds a StorageConflictError of the given kind.
func NewStorageConflict(kind ConflictKind) error {
	return StorageConflictError{Kind: kind}
}
