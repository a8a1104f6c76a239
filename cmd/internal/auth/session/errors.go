package session

import (
	"errors"
	"fmt"
)

var (
	// ErrTokenNotFound is returned when a presented secret matches no record.
	// Callers should treat it as "please log in again".
	ErrTokenNotFound = errors.New("token not found")

	// ErrTokenCompromised is returned when a presented secret matched a record
	// that was already rotated, revoked, or expired. By the time the caller
	// sees it, every active record for the owning user has been revoked.
	// It must be surfaced to users distinctly from ErrTokenNotFound: it means
	// "all sessions terminated", not "try again".
	ErrTokenCompromised = errors.New("token reuse detected; all sessions revoked")

	// ErrEmptyUserID is returned by Issue when the user identifier is blank.
	ErrEmptyUserID = errors.New("empty user id")

	// ErrConfig is returned for invalid configuration.
	ErrConfig = errors.New("invalid config")
)

// StorageError wraps a persistence failure. The lifecycle manager performs no
// internal retries; callers decide on retry policy.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("session storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }
