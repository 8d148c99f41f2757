package service

import (
	"errors"

	"freelance/internal/apperr"
	"freelance/internal/repository"
)

var notFound = map[error]string{
	repository.ErrUserNotFound:     "user not found",
	repository.ErrSkillNotFound:    "skill not found",
	repository.ErrCategoryNotFound: "category not found",
	repository.ErrProjectNotFound:  "project not found",
	repository.ErrOfferNotFound:    "offer not found",
	repository.ErrReviewNotFound:   "review not found",
}

// translate turns repository sentinels into apperr kinds. Anything it does
// not recognize becomes an internal error carrying op as context.
func translate(op string, err error) error {
	if err == nil {
		return nil
	}

	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		return err
	}

	for sentinel, message := range notFound {
		if errors.Is(err, sentinel) {
			return apperr.NotFound(message)
		}
	}

	switch {
	case errors.Is(err, repository.ErrDuplicateUsername):
		return apperr.Conflict("username already exists")
	case errors.Is(err, repository.ErrDuplicateEmail):
		return apperr.Conflict("email already exists")
	case errors.Is(err, repository.ErrReferenceNotFound):
		return apperr.NotFound("referenced entity not found")
	case errors.Is(err, repository.ErrStillReferenced):
		return apperr.Conflict("entity is still in use")
	case errors.Is(err, repository.ErrConstraint):
		return apperr.Validation("value violates a constraint")
	}
	return apperr.Internal(op, err)
}
