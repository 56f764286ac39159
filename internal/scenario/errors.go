package scenario

import "errors"

var (
	// ErrNavigation marks a page that failed to load: unreachable, non-success
	// HTTP status, or page-load timeout. It always aborts the run.
	ErrNavigation = errors.New("navigation failed")

	// ErrWaitTimeout marks a critical step whose awaited element never became visible.
	ErrWaitTimeout = errors.New("wait timed out")

	// ErrEngine marks any other browser failure.
	ErrEngine = errors.New("browser engine error")

	// ErrInvalidScenario is returned for scenarios that fail validation.
	ErrInvalidScenario = errors.New("invalid scenario")
)
