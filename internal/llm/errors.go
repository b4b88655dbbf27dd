package llm

import (
	"errors"
	"fmt"

	"github.com/nao1215/scrapesynth/internal/model"
)

var (
	// ErrAllModelsExhausted is returned when every model in the cascade failed.
	ErrAllModelsExhausted = errors.New("all models exhausted")

	// ErrFallbackProvider is returned when the single fallback call failed.
	ErrFallbackProvider = errors.New("fallback provider failed")

	// ErrEmptyResponse is recorded for a reply without text.
	ErrEmptyResponse = errors.New("empty response")

	// ErrNoModels is returned by NewCascade for an empty model list.
	ErrNoModels = errors.New("no models configured")
)

// ExhaustedError reports a cascade where every model failed. LastErr is the
// failure of the last model tried.
type ExhaustedError struct {
	Attempts []model.ModelAttempt
	LastErr  error
}

// Error implements the error interface.
func (e *ExhaustedError) Error() string {
	if e.LastErr == nil {
		return ErrAllModelsExhausted.Error()
	}
	return fmt.Sprintf("%s: %v", ErrAllModelsExhausted, e.LastErr)
}

// Unwrap returns ErrAllModelsExhausted and the last failure.
func (e *ExhaustedError) Unwrap() []error {
	return []error{ErrAllModelsExhausted, e.LastErr}
}

// AttemptError is the failure of one model call.
type AttemptError struct {
	Model string
	Err   error
}

// Error implements the error interface.
func (e *AttemptError) Error() string {
	return fmt.Sprintf("%s: %v", e.Model, e.Err)
}

// Unwrap returns the underlying error.
func (e *AttemptError) Unwrap() error {
	return e.Err
}
