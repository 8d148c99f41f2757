package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"freelance/internal/apperr"
	"freelance/internal/models"
)

// Actor is the authenticated caller of a resource operation.
type Actor struct {
	UserID int64
	Role   models.UserRole
}

func (a Actor) IsAdmin() bool {
	return a.Role == models.UserRoleAdmin
}

// canModify reports whether the actor owns the row or is an admin.
func (a Actor) canModify(ownerID int64) bool {
	return a.IsAdmin() || a.UserID == ownerID
}

var errNotOwner = apperr.Forbidden("not allowed to modify this resource")

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("money", func(fl validator.FieldLevel) bool {
		return isMoney(fl.Field().String())
	})
	return v
}

// validateStruct runs the struct's validate tags and reports the first
// failing field as a validation error.
func validateStruct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return apperr.Validation("invalid input")
	}
	fe := fieldErrs[0]
	field := toSnake(fe.Field())
	switch fe.Tag() {
	case "required":
		return apperr.Validation(field + " is required")
	case "min", "max", "gte", "lte", "gt", "lt":
		return apperr.Validation(fmt.Sprintf("%s must satisfy %s=%s", field, fe.Tag(), fe.Param()))
	case "money":
		return apperr.Validation(field + " must be a decimal with at most 10 integer and 2 fractional digits")
	default:
		return apperr.Validation(field + " is invalid")
	}
}

// isMoney accepts plain decimals that fit NUMERIC(12,2).
func isMoney(s string) bool {
	whole, frac, hasFrac := strings.Cut(s, ".")
	if whole == "" || len(whole) > 10 || (hasFrac && (frac == "" || len(frac) > 2)) {
		return false
	}
	for _, part := range []string{whole, frac} {
		for _, r := range part {
			if r < '0' || r > '9' {
				return false
			}
		}
	}
	return true
}

func toSnake(name string) string {
	var b strings.Builder
	var prev rune
	for _, r := range name {
		if r >= 'A' && r <= 'Z' {
			if (prev >= 'a' && prev <= 'z') || (prev >= '0' && prev <= '9') {
				b.WriteByte('_')
			}
			prev = r
			r += 'a' - 'A'
		} else {
			prev = r
		}
		b.WriteRune(r)
	}
	return b.String()
}

func clampPage(limit, offset int) (int, int) {
	switch {
	case limit <= 0:
		limit = 50
	case limit > 100:
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
