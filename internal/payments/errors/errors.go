package errors

import "errors"

var (
	ErrNotFound = errors.New("payment not found")

	ErrInvalidID = errors.New("invalid payment ID format")

	ErrUnsupportedMethod = errors.New("unsupported payment method")
)
