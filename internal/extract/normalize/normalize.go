package normalize

import (
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/tessellate-ai/extract-api/internal/domain"
)

// Keyword count bounds, checked after deduplication.
const (
	MinKeywords = 3
	MaxKeywords = 15
)

// rawResultSchema asserts presence (not non-emptiness) of the five
// required top-level fields of the raw model output. Absence of any of
// them is a hard validation failure.
const rawResultSchema = `{
	"type": "object",
	"required": ["company_name", "industry", "core_team", "core_product", "keywords"],
	"properties": {
		"company_name": {"type": "string"},
		"industry": {"type": "string"},
		"core_team": {"type": "array"},
		"core_product": {"type": "string"},
		"keywords": {"type": "array"}
	}
}`

var compiledSchema = jsonschema.MustCompileString("raw_result.json", rawResultSchema)

// Validation rule identifiers, recorded on validation errors.
const (
	RuleRequiredFields = "required-fields"
	RuleKeywordCount   = "keyword-count"
	RuleCoreTeam       = "core-team"
)

// ValidationError describes an unrecoverable normalization failure.
// A task whose raw output produces one transitions to FAILED with
// error kind validation-error.
type ValidationError struct {
	Rule   string
	Detail string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("normalization failed (%s): %s", e.Rule, e.Detail)
}

// Normalizer converts raw model output into domain.ExtractedInfo.
// The zero value is ready to use; it exists as a type (rather than a
// bare function) so callers can depend on a narrow interface.
type Normalizer struct{}

// New returns a Normalizer.
func New() *Normalizer {
	return &Normalizer{}
}

// Normalize applies the normalization rules in order:
//
//  1. structural check: the five required top-level fields must be
//     present (possibly empty);
//  2. industry coercion into the controlled vocabulary;
//  3. keyword trim + dedup preserving first-seen order, truncated to
//     MaxKeywords; fewer than MinKeywords after dedup is a failure;
//  4. core team must be non-empty with each member carrying a
//     non-empty name and role.
func (n *Normalizer) Normalize(raw map[string]any) (*domain.ExtractedInfo, error) {
	if raw == nil {
		return nil, &ValidationError{Rule: RuleRequiredFields, Detail: "raw result is empty"}
	}

	if err := compiledSchema.Validate(map[string]any(raw)); err != nil {
		return nil, &ValidationError{
			Rule:   RuleRequiredFields,
			Detail: fmt.Sprintf("raw result does not match expected shape: %v", err),
		}
	}

	info := &domain.ExtractedInfo{
		CompanyName: stringField(raw, "company_name"),
		Industry:    CoerceIndustry(strings.TrimSpace(stringField(raw, "industry"))),
		CoreProduct: stringField(raw, "core_product"),
	}

	keywords, err := normalizeKeywords(raw["keywords"])
	if err != nil {
		return nil, err
	}
	info.Keywords = keywords

	team, err := normalizeTeam(raw["core_team"])
	if err != nil {
		return nil, err
	}
	info.CoreTeam = team

	if fin, ok := raw["financial_status"].(map[string]any); ok {
		info.FinancialStatus = &domain.FinancialStatus{
			Current: stringField(fin, "current"),
			Future:  stringField(fin, "future"),
		}
	}

	info.ContactName = stringField(raw, "contact_name")
	info.ContactEmail = stringField(raw, "contact_email")
	info.ContactPhone = stringField(raw, "contact_phone")

	return info, nil
}

// normalizeKeywords deduplicates keywords preserving first-seen order.
// Truncation down to MaxKeywords is acceptable; a deficit below
// MinKeywords after dedup is not recoverable.
func normalizeKeywords(v any) ([]string, error) {
	items, ok := v.([]any)
	if !ok {
		return nil, &ValidationError{Rule: RuleKeywordCount, Detail: "keywords is not a list"}
	}

	seen := make(map[string]struct{}, len(items))
	keywords := make([]string, 0, len(items))
	for _, item := range items {
		s, ok := item.(string)
		if !ok {
			continue
		}
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		keywords = append(keywords, s)
	}

	if len(keywords) < MinKeywords {
		return nil, &ValidationError{
			Rule:   RuleKeywordCount,
			Detail: fmt.Sprintf("%d keywords after dedup, need at least %d", len(keywords), MinKeywords),
		}
	}
	if len(keywords) > MaxKeywords {
		keywords = keywords[:MaxKeywords]
	}

	return keywords, nil
}

// normalizeTeam requires a non-empty team where every member has a
// non-empty name and role. The model sometimes emits "position"
// instead of "role"; both are accepted.
func normalizeTeam(v any) ([]domain.TeamMember, error) {
	items, ok := v.([]any)
	if !ok || len(items) == 0 {
		return nil, &ValidationError{Rule: RuleCoreTeam, Detail: "core team is empty"}
	}

	team := make([]domain.TeamMember, 0, len(items))
	for i, item := range items {
		entry, ok := item.(map[string]any)
		if !ok {
			return nil, &ValidationError{
				Rule:   RuleCoreTeam,
				Detail: fmt.Sprintf("core team member %d is not an object", i),
			}
		}

		member := domain.TeamMember{
			Name:       strings.TrimSpace(stringField(entry, "name")),
			Role:       strings.TrimSpace(stringField(entry, "role")),
			Background: strings.TrimSpace(stringField(entry, "background")),
		}
		if member.Role == "" {
			member.Role = strings.TrimSpace(stringField(entry, "position"))
		}

		if member.Name == "" || member.Role == "" {
			return nil, &ValidationError{
				Rule:   RuleCoreTeam,
				Detail: fmt.Sprintf("core team member %d is missing name or role", i),
			}
		}

		team = append(team, member)
	}

	return team, nil
}

func stringField(m map[string]any, key string) string {
	if s, ok := m[key].(string); ok {
		return strings.TrimSpace(s)
	}
	return ""
}
