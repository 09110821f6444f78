package tools

import (
	"context"

	"github.com/lexorch/agent/pkg/models"
)

// BillingClient checks quota/payment standing for a case owner, the thin
// collaborator check_quota wraps.
type BillingClient interface {
	CheckQuota(ctx context.Context, ownerID string, tier models.Tier) (bool, error)
}

// TicketingClient opens a support ticket, the thin collaborator
// open_support_ticket wraps.
type TicketingClient interface {
	OpenTicket(ctx context.Context, summary, body string) (ticketID string, err error)
}

// PartyResolver authorizes and resolves PII fields for a party already
// attached to a case — the only read path permitted to return PII, and
// only to generate_draft.
type PartyResolver interface {
	ResolveForDraft(ctx context.Context, attachedPartyIDs []string, partyID string, fields []string) (map[string]string, error)
}

// PartyFinder resolves a user-supplied reference string against the
// parties attached to a case, for get_party_id_by_reference.
type PartyFinder interface {
	FindByReference(ctx context.Context, attachedPartyIDs []string, reference string) (partyID string, err error)
}

// PartyValueReader returns the literal field values on file for a set of
// parties already attached to a case, with no field names attached. It is
// a second, narrower read path for PII than PartyResolver: it exists only
// so internal/piiguard can diff an outgoing LLM prompt against a party's
// real values and catch a leak the format regexes miss (e.g. a name or
// address typed into a prompt verbatim). The values it returns must never
// be used to populate a prompt, draft, or tool argument themselves — that
// remains PartyResolver.ResolveForDraft's exclusive job.
type PartyValueReader interface {
	ValuesForParties(ctx context.Context, attachedPartyIDs []string) ([]string, error)
}

// KnowledgeBase is the research_query collaborator.
type KnowledgeBase interface {
	Query(ctx context.Context, source models.ResearchSource, keywords []string, mode string, docIDs []string, limit int) ([]models.ResearchRecord, error)
}

// ObjectStore is the generate_draft collaborator that persists rendered
// markdown and mints a retrieval URL.
type ObjectStore interface {
	Put(caseID, draftID string, revision int, data []byte) (objectPath string, err error)
	SignedURL(objectPath string) string
}

// Reasoner is the consult_reasoner collaborator — the thin wrapper the
// spec names around the Reasoner LLM client. partyValues is the bag of
// real PII values on file for the case's attached parties, passed through
// untouched to the underlying Generate call so it can be diffed against
// the outgoing prompt; it is never part of caseContext or question.
type Reasoner interface {
	Ask(ctx context.Context, caseContext string, partyValues []string, question string) (string, error)
}
