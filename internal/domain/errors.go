package domain

import "fmt"

// Error types for consistent error handling across the ledger core.

// ErrValidation indicates a record was rejected before any write was
// attempted. The caller must re-prompt the user.
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error on '%s': %s", e.Field, e.Message)
}

// ErrStorageRead indicates the underlying store was unreachable or the
// stored payload was not decodable. The repository recovers from it
// locally; it never reaches callers of LoadAll.
type ErrStorageRead struct {
	Key string
	Err error
}

func (e *ErrStorageRead) Error() string {
	return fmt.Sprintf("storage read failed [%s]: %v", e.Key, e.Err)
}

func (e *ErrStorageRead) Unwrap() error {
	return e.Err
}

// ErrStorageWrite indicates the underlying store rejected a write.
// Surfaced to callers of Append and ClearAll.
type ErrStorageWrite struct {
	Key string
	Err error
}

func (e *ErrStorageWrite) Error() string {
	return fmt.Sprintf("storage write failed [%s]: %v", e.Key, e.Err)
}

func (e *ErrStorageWrite) Unwrap() error {
	return e.Err
}

// ErrNotFound indicates a requested resource does not exist.
type ErrNotFound struct {
	Resource string
	ID       string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// ErrCircuitOpen indicates the remote store's circuit breaker is open.
type ErrCircuitOpen struct {
	Service string
}

func (e *ErrCircuitOpen) Error() string {
	return fmt.Sprintf("circuit breaker open for service: %s", e.Service)
}
