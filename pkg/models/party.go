package models

// Party holds PII for a person or organization involved in a case. It lives
// only in the party store and is never embedded in CaseDetails or any
// language-model prompt — see internal/piiguard for the enforcement point.
type Party struct {
	PartyID string    `json:"party_id"`
	Kind    OwnerKind `json:"kind"` // individual | organization

	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	LegalName string `json:"legal_name,omitempty"` // organization name

	NationalID  string `json:"national_id,omitempty"`  // CNP-style
	FiscalCode  string `json:"fiscal_code,omitempty"`   // CUI-style, e.g. RO12345678
	RegistrationNumber string `json:"registration_number,omitempty"` // trade registry, e.g. J40/1234/2020

	RegisteredAddress string `json:"registered_address,omitempty"`
	ContactEmail      string `json:"contact_email,omitempty"`
	ContactPhone      string `json:"contact_phone,omitempty"`
}

// Field resolves a placeholder field name (as used in {{partyN.field}}
// templates) against the party's PII. Unknown fields return "".
func (p *Party) Field(name string) string {
	switch name {
	case "first_name":
		return p.FirstName
	case "last_name":
		return p.LastName
	case "legal_name":
		return p.LegalName
	case "national_id":
		return p.NationalID
	case "fiscal_code":
		return p.FiscalCode
	case "registration_number":
		return p.RegistrationNumber
	case "registered_address":
		return p.RegisteredAddress
	case "contact_email":
		return p.ContactEmail
	case "contact_phone":
		return p.ContactPhone
	default:
		return ""
	}
}

// Values returns every non-empty PII field on file for this party, as a
// flat bag with no field names attached. It exists solely for
// internal/piiguard to diff outgoing LLM prompts against — never to
// populate prompt or draft content, which goes exclusively through Field.
func (p *Party) Values() []string {
	candidates := []string{
		p.FirstName, p.LastName, p.LegalName,
		p.NationalID, p.FiscalCode, p.RegistrationNumber,
		p.RegisteredAddress, p.ContactEmail, p.ContactPhone,
	}
	values := make([]string, 0, len(candidates))
	for _, v := range candidates {
		if v != "" {
			values = append(values, v)
		}
	}
	return values
}
