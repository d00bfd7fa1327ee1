package lending_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/AntonStoeckl/library-lending-go/lending"
)

func Test_NotFoundError_Classification(t *testing.T) {
	// arrange
	id := uuid.New()

	// act
	err := lending.NewNotFound(lending.ResourceBook, id)

	// assert
	assert.ErrorIs(t, err, lending.ErrNotFound)
	assert.NotErrorIs(t, err, lending.ErrRuleViolation)
	assert.NotErrorIs(t, err, lending.ErrStorageConflict)
	assert.Equal(t, fmt.Sprintf("book not found with id: %s", id), err.Error())

	var notFound lending.NotFoundError
	assert.ErrorAs(t, err, &notFound)
	assert.Equal(t, lending.ResourceBook, notFound.Resource)
	assert.Equal(t, id, notFound.ID)
}

func Test_RuleViolationError_Classification(t *testing.T) {
	// act
	err := lending.NewRuleViolation(lending.ReasonMemberLoanLimitReached)

	// assert
	assert.ErrorIs(t, err, lending.ErrRuleViolation)
	assert.NotErrorIs(t, err, lending.ErrNotFound)
	assert.NotErrorIs(t, err, lending.ErrStorageConflict)
	assert.Equal(t, "member has reached the maximum limit of 5 books", err.Error())
}

func Test_StorageConflictError_Classification(t *testing.T) {
	// act
	err := lending.NewStorageConflict(lending.ConflictVersionMismatch)

	// assert
	assert.ErrorIs(t, err, lending.ErrStorageConflict)
	assert.NotErrorIs(t, err, lending.ErrRuleViolation)
	assert.NotErrorIs(t, err, lending.ErrNotFound)
	assert.Equal(t, "version mismatch", err.Error())
}

func Test_ErrorClassification_SurvivesWrapping(t *testing.T) {
	// arrange
	inner := lending.NewStorageConflict(lending.ConflictUniqueViolation)

	// act
	wrapped := fmt.Errorf("create loan: %w", inner)

	// assert
	assert.ErrorIs(t, wrapped, lending.ErrStorageConflict)

	var conflict lending.StorageConflictError
	assert.True(t, errors.As(wrapped, &conflict))
	assert.Equal(t, lending.ConflictUniqueViolation, conflict.Kind)
}
