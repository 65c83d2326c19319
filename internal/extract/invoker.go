package extract

import "context"

// RawResult is the loosely-typed structured output of a model
// invocation. It is an intermediate form only: the normalizer converts
// it to a strictly-typed domain.ExtractedInfo, and no other component
// ever sees it.
type RawResult map[string]any

// Invoker defines the boundary to the external vision-language model.
// Implementations treat the source reference as opaque; they never
// read or write document bytes themselves.
type Invoker interface {
	// Invoke asks the model to extract structured information from the
	// referenced document. Errors are classified through the sentinel
	// errors in errors.go: wrap ErrTransientFailure for failures worth
	// retrying, anything else terminates the attempt loop immediately.
	Invoke(ctx context.Context, sourceRef string, pageCount int) (RawResult, error)
}
