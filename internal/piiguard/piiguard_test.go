package piiguard

import "testing"

func TestScan_DetectsFormatShapedPII(t *testing.T) {
	text := "CNP-ul clientului este 1234567890123 și firma are CUI RO12345678."

	findings := Scan(text)
	if len(findings) != 2 {
		t.Fatalf("len(findings) = %d, want 2 (national_id + fiscal_code)", len(findings))
	}
}

func TestScanPartyValues_DetectsLiteralPartyFieldLeak(t *testing.T) {
	text := "Clientul se numește Popescu Ionel și locuiește pe strada nu contează."

	findings := ScanPartyValues(text, []string{"Popescu Ionel", "altceva@example.com"})
	if len(findings) != 1 {
		t.Fatalf("len(findings) = %d, want 1", len(findings))
	}
	if findings[0].Kind != "party_field_value" || findings[0].Match != "Popescu Ionel" {
		t.Errorf("finding = %+v, want a party_field_value match on \"Popescu Ionel\"", findings[0])
	}
}

func TestScanPartyValues_IgnoresValuesBelowMinLength(t *testing.T) {
	text := "Ion a venit la birou azi."

	findings := ScanPartyValues(text, []string{"Ion"})
	if len(findings) != 0 {
		t.Fatalf("len(findings) = %d, want 0 for a value shorter than minPartyValueLen", len(findings))
	}
}

func TestScanOutgoingPrompt_CatchesPartyValueLeakEvenWithoutFormatMatch(t *testing.T) {
	err := ScanOutgoingPrompt(
		"Ești un asistent juridic.",
		[]string{"Popescu Ionel"},
		"Rezumat: clientul Popescu Ionel a depus o reclamație.",
	)
	if err == nil {
		t.Fatal("expected a Violation for a party field value leaking into prompt text")
	}
	violation, ok := err.(*Violation)
	if !ok {
		t.Fatalf("err = %T, want *Violation", err)
	}
	if len(violation.Findings) != 1 || violation.Findings[0].Kind != "party_field_value" {
		t.Errorf("findings = %+v, want exactly one party_field_value finding", violation.Findings)
	}
}

func TestScanOutgoingPrompt_NoPartyValues_OnlyFormatChecksApply(t *testing.T) {
	err := ScanOutgoingPrompt("Ești un asistent juridic.", nil, "Rezumat: cazul este în lucru.")
	if err != nil {
		t.Fatalf("unexpected violation: %v", err)
	}
}
