package domain

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrValidation        = errors.New("validation failed")
	ErrTotalsMismatch    = errors.New("totals mismatch")
	ErrDuplicatePhone    = errors.New("customer with this phone already exists")
	ErrDuplicateUsername = errors.New("username already taken")
	ErrBadCredentials    = errors.New("invalid credentials")
	// ErrIntegrity marks stored data that breaks an invariant, e.g. a malformed invoice number.
	ErrIntegrity = errors.New("data integrity violation")
)
