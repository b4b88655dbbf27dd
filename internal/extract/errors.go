package extract

import (
	"errors"
	"fmt"
)

var (
	// ErrFetch is returned when the server answers with a non-2xx status.
	ErrFetch = errors.New("fetch failed")

	// ErrNetwork is returned on transport failures, including timeouts.
	ErrNetwork = errors.New("network error")

	// ErrParse is returned when the document cannot be read or parsed.
	ErrParse = errors.New("parse failed")
)

// FetchError reports a non-successful HTTP status for an address.
type FetchError struct {
	Address    string
	StatusCode int
}

// Error implements the error interface.
func (e *FetchError) Error() string {
	return fmt.Sprintf("Failed to fetch %s: status %d", e.Address, e.StatusCode)
}

// Unwrap lets errors.Is match ErrFetch.
func (e *FetchError) Unwrap() error {
	return ErrFetch
}

// NetworkError reports a transport failure for an address.
type NetworkError struct {
	Address string
	Err     error
}

// Error implements the error interface.
func (e *NetworkError) Error() string {
	return fmt.Sprintf("Error fetching %s: %v", e.Address, e.Err)
}

// Unwrap returns both ErrNetwork and the cause.
func (e *NetworkError) Unwrap() []error {
	return []error{ErrNetwork, e.Err}
}
