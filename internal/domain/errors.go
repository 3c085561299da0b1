package domain

import "errors"

var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrNotFound              = errors.New("resource not found")
	ErrRequirementsNotMet    = errors.New("completion requirements not met")
	ErrDependencyUnavailable = errors.New("dependency unavailable")
)
