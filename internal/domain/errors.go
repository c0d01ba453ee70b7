package domain

import "errors"

var (
	// ErrNotFound indicates the requested cart, order, or line item was not found.
	ErrNotFound = errors.New("not found")
	// ErrInvalidArgument indicates a malformed item or out-of-range value.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrPermissionDenied indicates an ownership or role violation.
	ErrPermissionDenied = errors.New("permission denied")
	// ErrStoreUnavailable indicates the underlying document store failed or
	// could not complete the operation after retries.
	ErrStoreUnavailable = errors.New("store unavailable")
)
