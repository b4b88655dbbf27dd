package synth

import (
	"errors"
	"fmt"
)

// ErrInput marks a request that cannot be processed as given.
var ErrInput = errors.New("invalid request")

var (
	// ErrMissingSource is returned when no source address was supplied.
	ErrMissingSource = fmt.Errorf("%w: at least one source address is required", ErrInput)

	// ErrMissingInstruction is returned when the instruction is empty.
	ErrMissingInstruction = fmt.Errorf("%w: instruction is required", ErrInput)

	// ErrMissingCredential is returned when neither the request nor the
	// environment provides a credential.
	ErrMissingCredential = fmt.Errorf("%w: no API key provided and none configured in the environment", ErrInput)
)
