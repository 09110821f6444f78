package models

import "time"

// CaseStatus is the macro lifecycle state of a case. Status transitions are
// owned exclusively by the orchestrator.
type CaseStatus string

const (
	StatusTierPending    CaseStatus = "tier_pending"
	StatusPaymentPending CaseStatus = "payment_pending"
	StatusActive         CaseStatus = "active"
	StatusPausedSupport  CaseStatus = "paused_support"
	StatusArchived       CaseStatus = "archived"
	StatusDeleted        CaseStatus = "deleted"
)

// AllowedTransitions enumerates the legal macro-FSM edges. There are no
// reverse edges; any transition not listed here is illegal.
var AllowedTransitions = map[CaseStatus][]CaseStatus{
	StatusTierPending:    {StatusPaymentPending, StatusActive},
	StatusPaymentPending: {StatusActive},
	StatusActive:         {StatusPausedSupport, StatusArchived, StatusDeleted},
}

// CanTransition reports whether moving from one status to another is a legal
// macro-FSM edge.
func CanTransition(from, to CaseStatus) bool {
	if from == to {
		return false
	}
	for _, allowed := range AllowedTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Tier is the complexity tier assigned to a case, 1..3. Zero means unset.
type Tier int

const (
	TierUnset Tier = 0
	Tier1     Tier = 1
	Tier2     Tier = 2
	Tier3     Tier = 3
)

// Valid reports whether the tier is one of the three defined complexity tiers.
func (t Tier) Valid() bool {
	return t == Tier1 || t == Tier2 || t == Tier3
}

// OwnerKind distinguishes individual end users from organizations for
// quota/billing purposes.
type OwnerKind string

const (
	OwnerIndividual   OwnerKind = "individual"
	OwnerOrganization OwnerKind = "organization"
)

// Owner identifies the individual or organization a case belongs to.
type Owner struct {
	ID                string    `json:"id"`
	Kind              OwnerKind `json:"kind"`
	PreferredLanguage string    `json:"preferred_language,omitempty"`
}

// AttachedParty links a party record (held in the party store) to a role
// within the case. The core never stores PII fields here.
type AttachedParty struct {
	PartyID string `json:"party_id"`
	Role    string `json:"role"`
}

// AttachedDocument links an uploaded document id to the case.
type AttachedDocument struct {
	DocumentID string `json:"document_id"`
	Filename   string `json:"filename,omitempty"`
}

// Case is the top-level legal matter record. Lifecycle: created by the CRUD
// collaborator; status transitions are owned exclusively by the
// orchestrator; deletion is soft (status flips to StatusDeleted).
type Case struct {
	CaseID  string `json:"case_id"`
	Owner   Owner  `json:"owner"`
	Status  CaseStatus `json:"status"`
	Tier    Tier   `json:"tier"`

	AttachedParties   []AttachedParty    `json:"attached_parties"`
	AttachedDocuments []AttachedDocument `json:"attached_documents"`

	// AssistantSessionID / ReasonerSessionID are the per-case LLM provider
	// session identifiers, persisted on the case document rather than held
	// in process memory (see SPEC_FULL.md §5).
	AssistantSessionID string `json:"assistant_session_id,omitempty"`
	ReasonerSessionID  string `json:"reasoner_session_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// HasAttachedParty reports whether partyID appears in AttachedParties.
func (c *Case) HasAttachedParty(partyID string) bool {
	for _, p := range c.AttachedParties {
		if p.PartyID == partyID {
			return true
		}
	}
	return false
}

// ActiveRequiresQuotaOrPayment reports whether the case status is active;
// callers combine this with a billing-collaborator lookup.
func (c *Case) ActiveRequiresQuotaOrPayment() bool {
	return c.Status == StatusActive
}
