// Package admission implements the synchronous pre-check phase that a
// submission passes before a task is durably created. Rejections carry
// a typed kind and have no side effects: no storage write and no queue
// entry happens for a rejected submission.
package admission

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Error kinds returned on rejection.
const (
	KindInvalidKind  = "invalid-kind"
	KindTooLarge     = "too-large"
	KindTooManyPages = "too-many-pages"
	KindMissingField = "missing-field"
)

// Default admission limits, matching the upstream service defaults.
const (
	DefaultMaxFileBytes = 50 * 1024 * 1024
	DefaultMaxPages     = 300
	DefaultAllowedKind  = "application/pdf"
)

// Error is a typed admission rejection.
type Error struct {
	// Kind is one of the Kind* constants.
	Kind string

	// Detail is a human-readable description of the rejection.
	Detail string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("admission rejected (%s): %s", e.Kind, e.Detail)
}

// Metadata holds the required submission metadata. All fields must be
// present for the submission to be admitted.
type Metadata struct {
	OwnerID        string `validate:"required"`
	ProjectID      string `validate:"required"`
	SourceFilename string `validate:"required"`
}

// Submission is a candidate extraction request as seen by admission.
type Submission struct {
	// ContentKind is the declared media type of the uploaded document.
	ContentKind string

	// ByteSize is the size of the uploaded document in bytes.
	ByteSize int64

	// PageCount is the page count derived from the document. It is only
	// inspected after kind and size checks pass, matching the upstream
	// precedence where oversized uploads are rejected before pages are
	// even counted.
	PageCount int

	Metadata Metadata
}

// Descriptor is an admitted submission, ready for task creation.
type Descriptor struct {
	OwnerID        string
	ProjectID      string
	SourceFilename string
	PageCount      int
}

// Limits holds the configured admission ceilings.
type Limits struct {
	MaxFileBytes int64
	MaxPages     int
	AllowedKind  string
}

// DefaultLimits returns the default admission limits.
func DefaultLimits() Limits {
	return Limits{
		MaxFileBytes: DefaultMaxFileBytes,
		MaxPages:     DefaultMaxPages,
		AllowedKind:  DefaultAllowedKind,
	}
}

// Validator performs admission checks against configured limits.
type Validator struct {
	limits   Limits
	validate *validator.Validate
}

// NewValidator creates an admission Validator. Zero-valued limits fall
// back to the defaults.
func NewValidator(limits Limits) *Validator {
	defaults := DefaultLimits()
	if limits.MaxFileBytes <= 0 {
		limits.MaxFileBytes = defaults.MaxFileBytes
	}
	if limits.MaxPages <= 0 {
		limits.MaxPages = defaults.MaxPages
	}
	if limits.AllowedKind == "" {
		limits.AllowedKind = defaults.AllowedKind
	}

	return &Validator{
		limits:   limits,
		validate: validator.New(),
	}
}

// Validate checks a submission in fixed order: content kind, byte size,
// page count, then metadata completeness, short-circuiting on the first
// failure.
func (v *Validator) Validate(sub Submission) (*Descriptor, error) {
	if sub.ContentKind != v.limits.AllowedKind {
		return nil, &Error{
			Kind:   KindInvalidKind,
			Detail: fmt.Sprintf("expected %s, got %q", v.limits.AllowedKind, sub.ContentKind),
		}
	}

	if sub.ByteSize <= 0 {
		return nil, &Error{
			Kind:   KindTooLarge,
			Detail: fmt.Sprintf("file size %d is not positive", sub.ByteSize),
		}
	}
	if sub.ByteSize > v.limits.MaxFileBytes {
		return nil, &Error{
			Kind:   KindTooLarge,
			Detail: fmt.Sprintf("file size %d exceeds limit %d bytes", sub.ByteSize, v.limits.MaxFileBytes),
		}
	}

	if sub.PageCount <= 0 {
		return nil, &Error{
			Kind:   KindTooManyPages,
			Detail: fmt.Sprintf("page count %d is not positive", sub.PageCount),
		}
	}
	if sub.PageCount > v.limits.MaxPages {
		return nil, &Error{
			Kind:   KindTooManyPages,
			Detail: fmt.Sprintf("page count %d exceeds limit %d", sub.PageCount, v.limits.MaxPages),
		}
	}

	if err := v.validate.Struct(sub.Metadata); err != nil {
		detail := "required metadata field missing"
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			detail = fmt.Sprintf("required metadata field missing: %s", fieldErrs[0].Field())
		}
		return nil, &Error{Kind: KindMissingField, Detail: detail}
	}

	return &Descriptor{
		OwnerID:        sub.Metadata.OwnerID,
		ProjectID:      sub.Metadata.ProjectID,
		SourceFilename: sub.Metadata.SourceFilename,
		PageCount:      sub.PageCount,
	}, nil
}
