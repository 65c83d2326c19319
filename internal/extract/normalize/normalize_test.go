package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validRaw() map[string]any {
	return map[string]any{
		"company_name": "智芯科技",
		"industry":     "半导体",
		"core_team": []any{
			map[string]any{"name": "李四", "role": "CEO", "background": "前中芯国际工程师"},
			map[string]any{"name": "王五", "position": "CTO"},
		},
		"core_product": "车规级芯片",
		"keywords":     []any{"芯片", "车规", "半导体", "制造"},
	}
}

func TestNormalizeValidResult(t *testing.T) {
	n := New()

	info, err := n.Normalize(validRaw())
	require.NoError(t, err)

	assert.Equal(t, "智芯科技", info.CompanyName)
	assert.Equal(t, "半导体", info.Industry)
	assert.Equal(t, "车规级芯片", info.CoreProduct)
	assert.Equal(t, []string{"芯片", "车规", "半导体", "制造"}, info.Keywords)

	require.Len(t, info.CoreTeam, 2)
	assert.Equal(t, "李四", info.CoreTeam[0].Name)
	assert.Equal(t, "CEO", info.CoreTeam[0].Role)
	// "position" is accepted as an alias for "role".
	assert.Equal(t, "CTO", info.CoreTeam[1].Role)
}

func TestNormalizeCoercesUnknownIndustry(t *testing.T) {
	n := New()

	raw := validRaw()
	raw["industry"] = "Foo"

	info, err := n.Normalize(raw)
	require.NoError(t, err)
	assert.Equal(t, IndustryCatchAll, info.Industry)
}

func TestNormalizeKeepsVocabularyIndustry(t *testing.T) {
	n := New()

	raw := validRaw()
	raw["industry"] = "人工智能"

	info, err := n.Normalize(raw)
	require.NoError(t, err)
	assert.Equal(t, "人工智能", info.Industry)
}

func TestNormalizeDeduplicatesKeywords(t *testing.T) {
	n := New()

	raw := validRaw()
	raw["keywords"] = []any{"b", "a", "b", "c", "a"}

	info, err := n.Normalize(raw)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a", "c"}, info.Keywords, "first-seen order preserved")
}

func TestNormalizeKeywordDeficitFails(t *testing.T) {
	n := New()

	raw := validRaw()
	raw["keywords"] = []any{"a", "a", "b"}

	_, err := n.Normalize(raw)
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, RuleKeywordCount, vErr.Rule)
}

func TestNormalizeTruncatesKeywordSurplus(t *testing.T) {
	n := New()

	keywords := make([]any, 0, 20)
	for i := 0; i < 20; i++ {
		keywords = append(keywords, string(rune('a'+i)))
	}
	raw := validRaw()
	raw["keywords"] = keywords

	info, err := n.Normalize(raw)
	require.NoError(t, err)
	assert.Len(t, info.Keywords, MaxKeywords)
	assert.Equal(t, "a", info.Keywords[0])
}

func TestNormalizeRejectsMissingFields(t *testing.T) {
	n := New()

	for _, field := range []string{"company_name", "industry", "core_team", "core_product", "keywords"} {
		t.Run(field, func(t *testing.T) {
			raw := validRaw()
			delete(raw, field)

			_, err := n.Normalize(raw)
			var vErr *ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, RuleRequiredFields, vErr.Rule)
		})
	}
}

func TestNormalizeAllowsEmptyStrings(t *testing.T) {
	n := New()

	raw := validRaw()
	raw["company_name"] = ""
	raw["core_product"] = ""

	info, err := n.Normalize(raw)
	require.NoError(t, err)
	assert.Empty(t, info.CompanyName)
	assert.Empty(t, info.CoreProduct)
}

func TestNormalizeRejectsBadTeam(t *testing.T) {
	n := New()

	tests := []struct {
		name string
		team any
	}{
		{name: "empty team", team: []any{}},
		{name: "not a list", team: "nobody"},
		{name: "member without name", team: []any{map[string]any{"role": "CEO"}}},
		{name: "member without role", team: []any{map[string]any{"name": "李四"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := validRaw()
			raw["core_team"] = tt.team

			_, err := n.Normalize(raw)
			var vErr *ValidationError
			require.ErrorAs(t, err, &vErr)
		})
	}
}

func TestNormalizeFinancialStatusAndContacts(t *testing.T) {
	n := New()

	raw := validRaw()
	raw["financial_status"] = map[string]any{"current": "盈亏平衡", "future": "预计明年盈利"}
	raw["contact_name"] = "赵六"
	raw["contact_email"] = "zhao@example.com"

	info, err := n.Normalize(raw)
	require.NoError(t, err)
	require.NotNil(t, info.FinancialStatus)
	assert.Equal(t, "盈亏平衡", info.FinancialStatus.Current)
	assert.Equal(t, "预计明年盈利", info.FinancialStatus.Future)
	assert.Equal(t, "赵六", info.ContactName)
	assert.Equal(t, "zhao@example.com", info.ContactEmail)
}

func TestNormalizeNilRaw(t *testing.T) {
	n := New()

	_, err := n.Normalize(nil)
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, RuleRequiredFields, vErr.Rule)
}
