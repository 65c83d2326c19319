// Package normalize maps loosely-typed model output into the canonical
// ExtractedInfo schema. It is a pure function of its input: industry
// values are coerced into the controlled vocabulary, keywords are
// deduplicated and clamped, and structural violations surface as typed
// validation errors that fail the task.
package normalize
