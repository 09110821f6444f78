// Package piiguard enforces the invariant that party PII never reaches a
// language-model prompt and never leaks into a generated draft outside of
// its designated placeholder slots.
package piiguard

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/lexorch/agent/pkg/models"
)

// Finding describes one PII-shaped sequence located in scanned text.
type Finding struct {
	Kind   string // "national_id" | "fiscal_code" | "registration_number" | "party_field_value"
	Match  string
	Offset int
}

// minPartyValueLen is the shortest party field value ScanPartyValues will
// match against. Below this, common short strings (a one-letter initial,
// a two-digit fragment) would false-positive constantly.
const minPartyValueLen = 4

// Violation is returned when a scan locates PII-shaped content; it is
// treated as the fatal pii_violation error kind of the shared taxonomy.
type Violation struct {
	Findings []Finding
}

func (v *Violation) Error() string {
	return fmt.Sprintf("piiguard: %d pii-shaped sequence(s) detected", len(v.Findings))
}

// ErrorKind reports the shared taxonomy kind this violation maps to.
func (v *Violation) ErrorKind() models.ErrorKind { return models.ErrPIIViolation }

var (
	// nationalID matches a 13-digit CNP-style sequence.
	nationalID = regexp.MustCompile(`\b\d{13}\b`)
	// fiscalCode matches an RO-prefixed CUI, e.g. RO12345678.
	fiscalCode = regexp.MustCompile(`\bRO\d{2,10}\b`)
	// registrationNumber matches a trade-registry number, e.g. J40/1234/2020.
	registrationNumber = regexp.MustCompile(`\bJ\d{1,2}/\d{1,6}/\d{4}\b`)
)

// Scan locates PII-shaped sequences in text, regardless of source. It is
// the shared detector behind both ScanOutgoingPrompt (prompts must carry
// none) and ScanDraftText (drafts must carry PII only inside an already
//-substituted placeholder, never as raw leaked text from another case).
func Scan(text string) []Finding {
	var findings []Finding

	for _, m := range nationalID.FindAllStringIndex(text, -1) {
		findings = append(findings, Finding{Kind: "national_id", Match: text[m[0]:m[1]], Offset: m[0]})
	}
	for _, m := range fiscalCode.FindAllStringIndex(text, -1) {
		findings = append(findings, Finding{Kind: "fiscal_code", Match: text[m[0]:m[1]], Offset: m[0]})
	}
	for _, m := range registrationNumber.FindAllStringIndex(text, -1) {
		findings = append(findings, Finding{Kind: "registration_number", Match: text[m[0]:m[1]], Offset: m[0]})
	}

	return findings
}

// ScanPartyValues checks text for a literal, substring-level match against
// any of the attached parties' real field values (name, address, contact
// details, registry numbers...). This is distinct from Scan: Scan catches
// PII-*shaped* text regardless of whose it is, while ScanPartyValues
// catches this case's specific parties' actual values leaking into a
// prompt in free-form prose that no format regex would ever match (a name
// typed into a sentence, an address copied from a fact).
func ScanPartyValues(text string, partyValues []string) []Finding {
	var findings []Finding
	for _, v := range partyValues {
		if len(v) < minPartyValueLen {
			continue
		}
		if idx := strings.Index(text, v); idx >= 0 {
			findings = append(findings, Finding{Kind: "party_field_value", Match: v, Offset: idx})
		}
	}
	return findings
}

// ScanOutgoingPrompt checks the system prompt and every piece of
// conversation text about to be sent to an LLM client, both for
// PII-shaped sequences (Scan) and for a literal leak of one of this
// case's attached parties' real field values (ScanPartyValues). A
// violation here is fatal: callers must not issue the call, not even
// partially, per the escalation ladder's pii_violation handling.
func ScanOutgoingPrompt(system string, partyValues []string, parts ...string) error {
	var findings []Finding
	findings = append(findings, Scan(system)...)
	findings = append(findings, ScanPartyValues(system, partyValues)...)
	for _, p := range parts {
		findings = append(findings, Scan(p)...)
		findings = append(findings, ScanPartyValues(p, partyValues)...)
	}
	if len(findings) > 0 {
		return &Violation{Findings: findings}
	}
	return nil
}

// ScanDraftText checks rendered draft markdown for PII-shaped content that
// was not introduced through the placeholder substitution path (i.e. leaked
// from a different party or a copy-paste of raw case facts).
func ScanDraftText(text string) []Finding {
	return Scan(text)
}
