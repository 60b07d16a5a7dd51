package services

import (
	"errors"
	"fmt"

	"github.com/grmr/account-service/internal/models"
)

// Errors returned by the account operations. Handlers map them to status codes with errors.Is.
var (
	ErrValidation         = errors.New("validation failed")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrForbidden          = errors.New("access restricted to administrators")
	ErrAccountInactive    = errors.New("account is inactive")
	ErrUserNotFound       = models.ErrUserNotFound
	ErrDuplicateEmail     = models.ErrDuplicateEmail
)

// validationError wraps a payload validation failure into ErrValidation
func validationError(err error) error {
	return fmt.Errorf("%w: %v", ErrValidation, err)
}
