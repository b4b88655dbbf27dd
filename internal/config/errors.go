package config

import "errors"

// Configuration validation errors returned by Config.Validate.
var (
	// ErrInvalidTimeout is returned when any network timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidConcurrency is returned when the fan-out limit is not positive.
	ErrInvalidConcurrency = errors.New("invalid concurrency: must be positive")

	// ErrInvalidMaxBodySize is returned when the max body size is negative.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")

	// ErrInvalidCaps is returned when the body character cap is not positive
	// or the image cap is negative.
	ErrInvalidCaps = errors.New("invalid extraction caps: body cap must be positive and image cap non-negative")

	// ErrInvalidTargetYear is returned when time travel targets a year before
	// the archive has any captures.
	ErrInvalidTargetYear = errors.New("invalid target year: archive captures start in 1996")

	// ErrConflictingProxy is returned when both a proxy address and the
	// embedded Tor daemon are requested.
	ErrConflictingProxy = errors.New("conflicting proxy settings: use either --proxy or --tor")

	// ErrNoPrimaryModels is returned when the primary cascade is empty.
	ErrNoPrimaryModels = errors.New("no primary models configured")

	// ErrNoFallbackModel is returned when the fallback model is empty.
	ErrNoFallbackModel = errors.New("no fallback model configured")

	// ErrConflictingReportFormats is returned when more than one of --json,
	// --markdown and --render is set.
	ErrConflictingReportFormats = errors.New("conflicting report formats: use only one of --json, --markdown, --render")
)
