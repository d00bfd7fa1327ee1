package postgresengine

import (
	"context"
	"errors"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"

	"github.com/AntonStoeckl/library-lending-go/lending"
	"github.com/AntonStoeckl/library-lending-go/lending/postgresengine/internal/adapters"
)

// CreateMember inserts a new member.
//
// Username and email must each be free system-wide; a taken value is a
// rule violation naming the colliding field. The unique constraints
// resolve insert races to a single winner - the loser observes a storage
// conflict.
func (s Store) CreateMember(ctx context.Context, member lending.Member) (lending.Member, error) {
	if err := s.checkUsernameFree(ctx, member.Username); err != nil {
		return lending.Member{}, err
	}

	if err := s.checkEmailFree(ctx, member.Email); err != nil {
		return lending.Member{}, err
	}

	sqlQuery, _, toSQLErr := s.builder().
		Insert(membersTableName).
		Rows(goqu.Record{
			colID:          member.ID.String(),
			colUsername:    member.Username,
			colEmail:       member.Email,
			colAddress:     member.Address,
			colPhoneNumber: member.PhoneNumber,
		}).
		ToSQL()
	if toSQLErr != nil {
		s.logError(logMsgBuildQueryFailed, logAttrError, toSQLErr.Error())
		return lending.Member{}, errors.Join(lending.ErrStorageFailed, toSQLErr)
	}

	if _, err := s.executeStatement(ctx, sqlQuery, "create member"); err != nil {
		return lending.Member{}, err
	}

	return member, nil
}

// UpdateMember overwrites a member's fields.
//
// Uniqueness is re-checked only for fields that actually change, compared
// against the member's own prior values, so updating a member with an
// unchanged username/email never self-conflicts.
func (s Store) UpdateMember(ctx context.Context, member lending.Member) (lending.Member, error) {
	current, err := s.GetMember(ctx, member.ID)
	if err != nil {
		return lending.Member{}, err
	}

	if member.Username != current.Username {
		if err = s.checkUsernameFree(ctx, member.Username); err != nil {
			return lending.Member{}, err
		}
	}

	if member.Email != current.Email {
		if err = s.checkEmailFree(ctx, member.Email); err != nil {
			return lending.Member{}, err
		}
	}

	sqlQuery, _, toSQLErr := s.builder().
		Update(membersTableName).
		Set(goqu.Record{
			colUsername:    member.Username,
			colEmail:       member.Email,
			colAddress:     member.Address,
			colPhoneNumber: member.PhoneNumber,
		}).
		Where(goqu.Ex{colID: member.ID.String()}).
		ToSQL()
	if toSQLErr != nil {
		s.logError(logMsgBuildQueryFailed, logAttrError, toSQLErr.Error())
		return lending.Member{}, errors.Join(lending.ErrStorageFailed, toSQLErr)
	}

	rowsAffected, execErr := s.executeStatement(ctx, sqlQuery, "update member")
	if execErr != nil {
		return lending.Member{}, execErr
	}

	if rowsAffected == 0 {
		return lending.Member{}, lending.NewNotFound(lending.ResourceMember, member.ID)
	}

	return member, nil
}

// GetMember loads one member by id.
func (s Store) GetMember(ctx context.Context, id uuid.UUID) (lending.Member, error) {
	sqlQuery, _, toSQLErr := s.buildSelectMembers().
		Where(goqu.Ex{colID: id.String()}).
		ToSQL()
	if toSQLErr != nil {
		s.logError(logMsgBuildQueryFailed, logAttrError, toSQLErr.Error())
		return lending.Member{}, errors.Join(lending.ErrStorageFailed, toSQLErr)
	}

	rows, queryErr := s.executeQuery(ctx, sqlQuery, "get member")
	if queryErr != nil {
		return lending.Member{}, queryErr
	}
	defer s.closeRows(rows)

	if !rows.Next() {
		return lending.Member{}, lending.NewNotFound(lending.ResourceMember, id)
	}

	return s.scanMember(rows)
}

// ListMembers returns all members ordered by id.
func (s Store) ListMembers(ctx context.Context) ([]lending.Member, error) {
	sqlQuery, _, toSQLErr := s.buildSelectMembers().
		Order(goqu.I(colID).Asc()).
		ToSQL()
	if toSQLErr != nil {
		s.logError(logMsgBuildQueryFailed, logAttrError, toSQLErr.Error())
		return nil, errors.Join(lending.ErrStorageFailed, toSQLErr)
	}

	rows, queryErr := s.executeQuery(ctx, sqlQuery, "list members")
	if queryErr != nil {
		return nil, queryErr
	}
	defer s.closeRows(rows)

	members := make([]lending.Member, 0)

	for rows.Next() {
		member, scanErr := s.scanMember(rows)
		if scanErr != nil {
			return nil, scanErr
		}

		members = append(members, member)
	}

	return members, nil
}

// DeleteMember removes a member row.
func (s Store) DeleteMember(ctx context.Context, id uuid.UUID) error {
	sqlQuery, _, toSQLErr := s.builder().
		Delete(membersTableName).
		Where(goqu.Ex{colID: id.String()}).
		ToSQL()
	if toSQLErr != nil {
		s.logError(logMsgBuildQueryFailed, logAttrError, toSQLErr.Error())
		return errors.Join(lending.ErrStorageFailed, toSQLErr)
	}

	rowsAffected, execErr := s.executeStatement(ctx, sqlQuery, "delete member")
	if execErr != nil {
		return execErr
	}

	if rowsAffected == 0 {
		return lending.NewNotFound(lending.ResourceMember, id)
	}

	return nil
}

func (s Store) buildSelectMembers() *goqu.SelectDataset {
	return s.builder().
		From(membersTableName).
		Select(colID, colUsername, colEmail, colAddress, colPhoneNumber)
}

func (s Store) checkUsernameFree(ctx context.Context, username string) error {
	taken, err := s.memberFieldTaken(ctx, colUsername, username)
	if err != nil {
		return err
	}

	if taken {
		return lending.NewRuleViolation(lending.ReasonUsernameTaken)
	}

	return nil
}

func (s Store) checkEmailFree(ctx context.Context, email string) error {
	taken, err := s.memberFieldTaken(ctx, colEmail, email)
	if err != nil {
		return err
	}

	if taken {
		return lending.NewRuleViolation(lending.ReasonEmailTaken)
	}

	return nil
}

func (s Store) memberFieldTaken(ctx context.Context, column string, value string) (bool, error) {
	sqlQuery, _, toSQLErr := s.builder().
		From(membersTableName).
		Select(goqu.COUNT(colID)).
		Where(goqu.Ex{column: value}).
		ToSQL()
	if toSQLErr != nil {
		s.logError(logMsgBuildQueryFailed, logAttrError, toSQLErr.Error())
		return false, errors.Join(lending.ErrStorageFailed, toSQLErr)
	}

	count, err := s.queryCount(ctx, sqlQuery, "member field taken")
	if err != nil {
		return false, err
	}

	return count > 0, nil
}

func (s Store) scanMember(rows adapters.DBRows) (lending.Member, error) {
	var member lending.Member

	scanErr := rows.Scan(&member.ID, &member.Username, &member.Email, &member.Address, &member.PhoneNumber)
	if scanErr != nil {
		s.logError(logMsgScanRowFailed, logAttrError, scanErr.Error())
		return lending.Member{}, errors.Join(lending.ErrStorageFailed, scanErr)
	}

	return member, nil
}
