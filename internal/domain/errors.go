package domain

import "errors"

var (
	// ErrObjectNotFound is returned by storage backends when the key does not exist.
	ErrObjectNotFound   = errors.New("object not found")
	ErrMissingFile      = errors.New("file not provided")
	ErrMissingKey       = errors.New("object key is required")
	ErrInvalidParameter = errors.New("invalid parameter")
	ErrFileTooLarge     = errors.New("file exceeds maximum allowed size")
)
