package archive

import (
	"errors"
	"fmt"
)

var (
	// ErrNoSnapshotFound is returned when the service has no capture of the
	// address for the requested year.
	ErrNoSnapshotFound = errors.New("no snapshot found")

	// ErrLookup is returned when the lookup request fails or its response
	// cannot be decoded.
	ErrLookup = errors.New("archive lookup failed")
)

// LookupError carries the address and year of a failed resolution.
// Err is ErrNoSnapshotFound or wraps ErrLookup.
type LookupError struct {
	Address string
	Year    int
	Err     error
}

// Error implements the error interface.
func (e *LookupError) Error() string {
	if errors.Is(e.Err, ErrNoSnapshotFound) {
		return fmt.Sprintf("No %d snapshot found for %s", e.Year, e.Address)
	}
	return fmt.Sprintf("archive lookup for %s (%d): %v", e.Address, e.Year, e.Err)
}

// Unwrap returns the underlying error.
func (e *LookupError) Unwrap() error {
	return e.Err
}
