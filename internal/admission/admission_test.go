package admission

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validSubmission() Submission {
	return Submission{
		ContentKind: "application/pdf",
		ByteSize:    1024 * 1024,
		PageCount:   20,
		Metadata: Metadata{
			OwnerID:        "user-1",
			ProjectID:      "project-1",
			SourceFilename: "deck.pdf",
		},
	}
}

func TestValidateAdmits(t *testing.T) {
	v := NewValidator(DefaultLimits())

	desc, err := v.Validate(validSubmission())
	require.NoError(t, err)
	assert.Equal(t, "user-1", desc.OwnerID)
	assert.Equal(t, "project-1", desc.ProjectID)
	assert.Equal(t, "deck.pdf", desc.SourceFilename)
	assert.Equal(t, 20, desc.PageCount)
}

func TestValidateRejections(t *testing.T) {
	v := NewValidator(Limits{MaxFileBytes: 1000, MaxPages: 10, AllowedKind: "application/pdf"})

	tests := []struct {
		name     string
		mutate   func(*Submission)
		wantKind string
	}{
		{
			name:     "wrong content kind",
			mutate:   func(s *Submission) { s.ContentKind = "image/png" },
			wantKind: KindInvalidKind,
		},
		{
			name:     "file too large",
			mutate:   func(s *Submission) { s.ByteSize = 1001 },
			wantKind: KindTooLarge,
		},
		{
			name:     "zero byte file",
			mutate:   func(s *Submission) { s.ByteSize = 0 },
			wantKind: KindTooLarge,
		},
		{
			name:     "too many pages",
			mutate:   func(s *Submission) { s.PageCount = 11 },
			wantKind: KindTooManyPages,
		},
		{
			name:     "missing owner",
			mutate:   func(s *Submission) { s.Metadata.OwnerID = "" },
			wantKind: KindMissingField,
		},
		{
			name:     "missing filename",
			mutate:   func(s *Submission) { s.Metadata.SourceFilename = "" },
			wantKind: KindMissingField,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sub := validSubmission()
			sub.ByteSize = 500
			sub.PageCount = 5
			tt.mutate(&sub)

			desc, err := v.Validate(sub)
			assert.Nil(t, desc)

			var admErr *Error
			require.ErrorAs(t, err, &admErr)
			assert.Equal(t, tt.wantKind, admErr.Kind)
		})
	}
}

// Degenerate (non-positive) sizes keep the size/page rejection kinds
// but must not claim the limit was exceeded.
func TestValidateNonPositiveValues(t *testing.T) {
	v := NewValidator(DefaultLimits())

	sub := validSubmission()
	sub.ByteSize = 0
	var admErr *Error
	_, err := v.Validate(sub)
	require.ErrorAs(t, err, &admErr)
	assert.Equal(t, KindTooLarge, admErr.Kind)
	assert.Contains(t, admErr.Detail, "not positive")
	assert.NotContains(t, admErr.Detail, "exceeds")

	sub = validSubmission()
	sub.PageCount = -1
	_, err = v.Validate(sub)
	require.ErrorAs(t, err, &admErr)
	assert.Equal(t, KindTooManyPages, admErr.Kind)
	assert.Contains(t, admErr.Detail, "not positive")
	assert.NotContains(t, admErr.Detail, "exceeds")
}

// Checks short-circuit in the kind -> size -> pages -> metadata order:
// a submission violating several limits reports the earliest one.
func TestValidateOrderShortCircuits(t *testing.T) {
	v := NewValidator(Limits{MaxFileBytes: 100, MaxPages: 1, AllowedKind: "application/pdf"})

	sub := Submission{
		ContentKind: "text/plain",
		ByteSize:    1 << 30,
		PageCount:   9999,
		Metadata:    Metadata{},
	}

	var admErr *Error
	_, err := v.Validate(sub)
	require.ErrorAs(t, err, &admErr)
	assert.Equal(t, KindInvalidKind, admErr.Kind)

	sub.ContentKind = "application/pdf"
	_, err = v.Validate(sub)
	require.ErrorAs(t, err, &admErr)
	assert.Equal(t, KindTooLarge, admErr.Kind)

	sub.ByteSize = 50
	_, err = v.Validate(sub)
	require.ErrorAs(t, err, &admErr)
	assert.Equal(t, KindTooManyPages, admErr.Kind)

	sub.PageCount = 1
	_, err = v.Validate(sub)
	require.ErrorAs(t, err, &admErr)
	assert.Equal(t, KindMissingField, admErr.Kind)
}

func TestNewValidatorAppliesDefaults(t *testing.T) {
	v := NewValidator(Limits{})

	assert.Equal(t, int64(DefaultMaxFileBytes), v.limits.MaxFileBytes)
	assert.Equal(t, DefaultMaxPages, v.limits.MaxPages)
	assert.Equal(t, DefaultAllowedKind, v.limits.AllowedKind)
}
