package domain

import "errors"

var (
	// ErrValidation marks caller input that failed domain validation.
	ErrValidation = errors.New("validation error")

	// ErrNotFound marks a lookup that matched no record.
	ErrNotFound = errors.New("not found")
)
