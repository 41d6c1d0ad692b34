package services

import (
	"errors"

	"github.com/janus-erp/janus/validation"
)

// Errors returned by the services. Handlers map them to status codes.
var (
	ErrUserExists         = errors.New("user with this email already exists and is confirmed")
	ErrInvalidOTP         = errors.New("invalid or expired otp")
	ErrInvalidCredentials = errors.New("invalid login credentials")
	ErrPasswordNotAllowed = errors.New("email not verified or password already set")
	ErrInvalidInvite      = errors.New("invalid or expired invitation")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrNoCompany          = errors.New("user has no company")
	ErrNotFound           = errors.New("not found")

	ErrRoleExists    = errors.New("a role with this name already exists for the company")
	ErrProtectedRole = errors.New("the super admin role cannot be renamed, restricted or deleted")
	ErrProtectedUser = errors.New("a super admin cannot be deactivated or lose the super admin role")
	ErrNoUpdate      = errors.New("no update data provided")
	ErrProductExists = errors.New("a product with this sku already exists for the company")
)

// ValidationError carries field violations of an input.
type ValidationError struct {
	Violations validation.Violations
}

func (e *ValidationError) Error() string {
	return "validation failed: " + e.Violations.First()
}

func invalid(v validation.Violations) error {
	if v.Empty() {
		return nil
	}
	return &ValidationError{Violations: v}
}
