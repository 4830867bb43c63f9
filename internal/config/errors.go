package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() and provide specific
// information about what is wrong with the configuration.
//
// Design decision: We use package-level sentinel errors rather than
// creating new error instances in Validate(). This allows callers to use
// errors.Is() for programmatic error handling while still providing
// human-readable messages.
var (
	// ErrNoBaseURL is returned when the wiki base URL is empty.
	ErrNoBaseURL = errors.New("no base URL: the crawler needs a wiki host to fetch from")

	// ErrInvalidStartSite is returned in fresh mode when the start site
	// is not a rooted path like "/Reptilimon".
	ErrInvalidStartSite = errors.New("invalid start site: must be a wiki path starting with '/'")

	// ErrInvalidMinReferences is returned when the minimum reference
	// count is negative. Use 0 to accept every candidate.
	ErrInvalidMinReferences = errors.New("invalid min references: must be non-negative")

	// ErrInvalidLowEvoThreshold is returned when the low-evolution-count
	// threshold is negative. Use 0 to disable the bypass.
	ErrInvalidLowEvoThreshold = errors.New("invalid low evo threshold: must be non-negative")

	// ErrInvalidFetchDelay is returned when the fetch pacing delay is
	// negative. Use 0 for no delay between uncached fetches.
	ErrInvalidFetchDelay = errors.New("invalid fetch delay: must be non-negative")

	// ErrInvalidTimeout is returned when the HTTP timeout is not
	// positive. A zero timeout would cause immediate failures.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidMaxBodySize is returned when the max body size is
	// negative. Use 0 to fall back to the default limit.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")

	// ErrInvalidParseWorkers is returned when the parse worker count is
	// not positive. At least one worker is required to make progress.
	ErrInvalidParseWorkers = errors.New("invalid parse workers: must be positive")
)
