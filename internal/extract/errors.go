package extract

import "errors"

// Common errors returned by model invocations.
var (
	// ErrExtractionFailed is returned when extraction fails for a
	// general, non-classifiable reason.
	ErrExtractionFailed = errors.New("failed to extract information from document")

	// ErrInvalidResponse is returned when the model response cannot be
	// parsed or is malformed. Not retryable: the same input produces
	// the same malformed output.
	ErrInvalidResponse = errors.New("invalid response from model")

	// ErrContentBlocked is returned when the model refuses the content
	// due to safety filters. Not retryable.
	ErrContentBlocked = errors.New("content blocked by model safety filters")

	// ErrTransientFailure is returned for temporary errors (timeouts,
	// rate limits, connection resets) that might resolve on retry.
	ErrTransientFailure = errors.New("transient error during model invocation")

	// ErrInvalidConfig is returned when the invoker configuration is
	// invalid.
	ErrInvalidConfig = errors.New("invalid invoker configuration")
)

// Retryable reports whether an invocation error is worth another
// attempt within the retry budget.
func Retryable(err error) bool {
	return errors.Is(err, ErrTransientFailure)
}
