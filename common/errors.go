package common

import (
	"fmt"
	"strings"
)

// AuthenticationError is returned when the login endpoint answers with a
// non-success HTTP status.
type AuthenticationError struct {
	Status int
	Body   string
}

func (e *AuthenticationError) Error() string {
	return fmt.Sprintf("authentication failed with status %d: %s", e.Status, e.Body)
}

// MalformedResponseError is returned when the login endpoint answers with a
// success status but without the fields a session needs.
type MalformedResponseError struct {
	Missing []string
}

func (e *MalformedResponseError) Error() string {
	return "invalid response: missing " + strings.Join(e.Missing, " and ")
}

// CacheIOError wraps a failure to create the session cache directory or to
// read or write a cache entry.
type CacheIOError struct {
	Op   string
	Path string
	Err  error
}

func (e *CacheIOError) Error() string {
	return fmt.Sprintf("session cache %s %q: %v", e.Op, e.Path, e.Err)
}

func (e *CacheIOError) Unwrap() error { return e.Err }

// NoCardsAvailableError is returned when the product listing is empty.
type NoCardsAvailableError struct{}

func (NoCardsAvailableError) Error() string { return "no cards available" }

// InvalidIndexError is returned when a requested listing index is out of range.
type InvalidIndexError struct {
	Index int
	Count int
}

func (e *InvalidIndexError) Error() string {
	return fmt.Sprintf("invalid card index: %d. Available cards: 0-%d", e.Index, e.Count-1)
}

// InvalidWorkerError is returned for worker ids below zero.
type InvalidWorkerError struct {
	WorkerID int
}

func (e *InvalidWorkerError) Error() string {
	return fmt.Sprintf("invalid worker id %d: must be >= 0", e.WorkerID)
}

// UnknownEnvironmentError is returned for environment names with no account
// data or base URL.
type UnknownEnvironmentError struct {
	Name string
}

func (e *UnknownEnvironmentError) Error() string {
	return fmt.Sprintf("unknown environment %q", e.Name)
}
