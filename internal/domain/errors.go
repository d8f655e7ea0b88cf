package domain

import "errors"

var (
	// ErrAlreadySubmitted signals a conditional meal write that found the
	// slot's rating already set.
	ErrAlreadySubmitted = errors.New("meal already submitted")

	// ErrConstraintViolation signals the store's unique (resident, day)
	// index rejected a concurrent first write. Callers retry the whole
	// submission once against the now-existing record.
	ErrConstraintViolation = errors.New("feedback record already exists")

	// ErrRecordNotFound signals a lookup for a record that was never persisted.
	ErrRecordNotFound = errors.New("feedback record not found")

	// ErrConnectivity wraps store-unreachable failures. Surfaced, never
	// retried inside the store.
	ErrConnectivity = errors.New("store unreachable")
)
