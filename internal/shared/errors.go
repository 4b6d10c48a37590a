package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrValidation indicates request input failed validation.
	ErrValidation = errors.New("validation failed")
	// ErrPermission indicates the actor lacks the required role.
	ErrPermission = errors.New("permission denied")
	// ErrStorage indicates an underlying store failure; the unit was rolled
	// back and the caller may retry.
	ErrStorage = errors.New("storage failure")
	// ErrInvalidCredentials indicates API key verification failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
)
