package repository

import (
	"errors"

	"freelance/internal/database"
)

var (
	ErrUserNotFound         = errors.New("user not found")
	ErrDuplicateUsername    = errors.New("username already exists")
	ErrDuplicateEmail       = errors.New("email already exists")
	ErrRefreshTokenNotFound = errors.New("refresh token not found")
	ErrSkillNotFound        = errors.New("skill not found")
	ErrCategoryNotFound     = errors.New("category not found")
	ErrProjectNotFound      = errors.New("project not found")
	ErrOfferNotFound        = errors.New("offer not found")
	ErrReviewNotFound       = errors.New("review not found")

	// ErrReferenceNotFound means an insert or update pointed at a row that
	// does not exist (unknown category, skill, project or user).
	ErrReferenceNotFound = errors.New("referenced entity not found")
	// ErrStillReferenced means a delete was refused because other rows
	// depend on the target.
	ErrStillReferenced = errors.New("entity is still referenced")
	ErrConstraint      = errors.New("value violates a constraint")
)

const (
	constraintUsername = "users_username_key"
	constraintEmail    = "users_email_key"
)

// classifyWrite maps integrity violations raised by PostgreSQL to the
// package sentinels. Other errors are returned unchanged.
func classifyWrite(err error) error {
	if err == nil {
		return nil
	}
	if constraint, ok := database.UniqueViolation(err); ok {
		switch constraint {
		case constraintUsername:
			return ErrDuplicateUsername
		case constraintEmail:
			return ErrDuplicateEmail
		}
		return ErrConstraint
	}
	if _, ok := database.ForeignKeyViolation(err); ok {
		return ErrReferenceNotFound
	}
	if _, ok := database.CheckViolation(err); ok || database.StringTooLong(err) {
		return ErrConstraint
	}
	return err
}

type scanner interface {
	Scan(dest ...any) error
}
