package domain

// TeamMember is one entry in the extracted core team list.
type TeamMember struct {
	Name       string `json:"name"`
	Role       string `json:"role"`
	Background string `json:"background,omitempty"`
}

// FinancialStatus describes the current and projected financial
// situation of the company, when the source document provides it.
type FinancialStatus struct {
	Current string `json:"current,omitempty"`
	Future  string `json:"future,omitempty"`
}

// ExtractedInfo is the canonical, strictly-typed extraction result.
// It is produced only by the normalizer; raw model output never
// reaches storage in any other shape.
//
// The five required fields are always present, though string fields may
// be empty. Industry is always a member of the controlled vocabulary.
type ExtractedInfo struct {
	CompanyName string       `json:"company_name"`
	Industry    string       `json:"industry"`
	CoreTeam    []TeamMember `json:"core_team"`
	CoreProduct string       `json:"core_product"`
	Keywords    []string     `json:"keywords"`

	FinancialStatus *FinancialStatus `json:"financial_status,omitempty"`
	ContactName     string           `json:"contact_name,omitempty"`
	ContactEmail    string           `json:"contact_email,omitempty"`
	ContactPhone    string           `json:"contact_phone,omitempty"`
}
