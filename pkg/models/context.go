package models

import "time"

// ObjectiveStatus is the lifecycle of a case objective.
type ObjectiveStatus string

const (
	ObjectivePending   ObjectiveStatus = "pending"
	ObjectiveAchieved  ObjectiveStatus = "achieved"
	ObjectiveAbandoned ObjectiveStatus = "abandoned"
)

// ResearchStatus tracks how a legislation/jurisprudence record has been
// considered by the agent.
type ResearchStatus string

const (
	ResearchConsidered ResearchStatus = "considered"
	ResearchApplied    ResearchStatus = "applied"
	ResearchIrrelevant ResearchStatus = "irrelevant"
)

// DraftStatus tracks a generated document draft's lifecycle.
type DraftStatus string

const (
	DraftStatusGenerated DraftStatus = "generated"
	DraftStatusRevised   DraftStatus = "revised"
	DraftStatusFinal     DraftStatus = "final"
)

// Summary holds the agent's current understanding of the case plus its
// append-only revision history.
type Summary struct {
	Current string   `json:"current"`
	History []string `json:"history,omitempty"`
}

// Fact is a single append-only fact gathered from the user or a document.
type Fact struct {
	Timestamp  time.Time `json:"timestamp"`
	Source     string    `json:"source"` // "user", "document:<id>", "research"
	Fact       string    `json:"fact"`
	Confidence float64   `json:"confidence"`
}

// Objective is a goal the agent is working toward on behalf of the user.
type Objective struct {
	Objective string          `json:"objective"`
	Status    ObjectiveStatus `json:"status"`
}

// PartyInvolvement links a party id to its role in the case context (never
// raw PII — only an id and a role string).
type PartyInvolvement struct {
	PartyID    string `json:"party_id"`
	RoleInCase string `json:"role_in_case"`
}

// DocumentAnalysis is the result of analysing one attached document.
type DocumentAnalysis struct {
	DocumentID      string    `json:"document_id"`
	Summary         string    `json:"summary"`
	KeyPoints       []string  `json:"key_points,omitempty"`
	AnalyzedAt      time.Time `json:"analyzed_at"`
}

// ResearchSource distinguishes legislation from jurisprudence records.
type ResearchSource string

const (
	SourceLegislation   ResearchSource = "legislation"
	SourceJurisprudence ResearchSource = "jurisprudence"
)

// ResearchRecord is one legislation or jurisprudence hit retrieved from the
// knowledge base.
type ResearchRecord struct {
	DocID     string         `json:"doc_id"`
	Title     string         `json:"title"`
	Summary   string         `json:"summary,omitempty"`
	FullText  string         `json:"full_text,omitempty"`
	Relevance float64        `json:"relevance"`
	Status    ResearchStatus `json:"status"`
	FetchedAt time.Time      `json:"fetched_at"`
}

// LegalResearch groups the legislation and jurisprudence records gathered so
// far for the case.
type LegalResearch struct {
	Legislation   []ResearchRecord `json:"legislation,omitempty"`
	Jurisprudence []ResearchRecord `json:"jurisprudence,omitempty"`
}

// ConsideredCount returns the number of records across both lists that still
// carry ResearchConsidered status — the figure compared against
// consideration_prune_threshold.
func (lr *LegalResearch) ConsideredCount() int {
	n := 0
	for _, r := range lr.Legislation {
		if r.Status == ResearchConsidered {
			n++
		}
	}
	for _, r := range lr.Jurisprudence {
		if r.Status == ResearchConsidered {
			n++
		}
	}
	return n
}

// AgentInteractionEntry is one append-only record of a decision, tool call,
// or reasoner consultation. No removals are ever made to the log containing
// these entries.
type AgentInteractionEntry struct {
	Timestamp time.Time      `json:"timestamp"`
	Kind      string         `json:"kind"` // "decision", "tool_call", "reasoner_consult", "error", "pii_violation"
	Detail    string         `json:"detail"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// AgentInteractions groups the append-only interaction log and the optional
// outstanding question posed to the user.
type AgentInteractions struct {
	Log                     []AgentInteractionEntry `json:"log"`
	ActiveInfoRequestToUser string                  `json:"active_info_request_to_user,omitempty"`
}

// DraftFeedback is user or reasoner feedback recorded against a draft.
type DraftFeedback struct {
	Timestamp time.Time `json:"timestamp"`
	Source    string    `json:"source"`
	Comment   string    `json:"comment"`
}

// Draft is one generated document revision.
type Draft struct {
	DraftID         string          `json:"draft_id"`
	Name            string          `json:"name"`
	Revision        int             `json:"revision"`
	ObjectStorePath string          `json:"object_store_path"`
	GeneratedAt     time.Time       `json:"generated_at"`
	Status          DraftStatus     `json:"status"`
	Feedback        []DraftFeedback `json:"feedback,omitempty"`
}

// TimelineEvent is an append-only chronological record of something that
// happened in the case (status change, document received, draft sent, ...).
type TimelineEvent struct {
	Timestamp time.Time `json:"timestamp"`
	Kind      string    `json:"kind"`
	Detail    string    `json:"detail"`
}

// InternalNote is an append-only agent-authored note, typically a reasoner
// response or an orchestrator observation not meant for the user.
type InternalNote struct {
	Timestamp time.Time `json:"timestamp"`
	Author    string    `json:"author"` // "reasoner", "assistant", "orchestrator"
	Note      string    `json:"note"`
}

// CaseDetails is the case_details tree: the agent's full working memory for
// a case. Every mutation must go through casestore.Adapter.ApplyUpdates so
// that journaling and last_updated stamping happen uniformly.
type CaseDetails struct {
	Summary           Summary                `json:"summary"`
	Facts             []Fact                 `json:"facts,omitempty"`
	Objectives        []Objective            `json:"objectives,omitempty"`
	PartiesInvolved   []PartyInvolvement     `json:"parties_involved,omitempty"`
	DocumentsAnalysis []DocumentAnalysis     `json:"documents_analysis,omitempty"`
	LegalResearch     LegalResearch          `json:"legal_research"`
	AgentInteractions AgentInteractions      `json:"agent_interactions"`
	Drafts            []Draft                `json:"drafts,omitempty"`
	Timeline          []TimelineEvent        `json:"timeline,omitempty"`
	InternalNotes     []InternalNote         `json:"internal_notes,omitempty"`
	LastUpdated       time.Time              `json:"last_updated"`
}

// NewCaseDetails returns an empty, well-formed case_details tree.
func NewCaseDetails() *CaseDetails {
	return &CaseDetails{
		AgentInteractions: AgentInteractions{Log: []AgentInteractionEntry{}},
		LastUpdated:       time.Now(),
	}
}

// AllObjectivesResolved reports whether every objective is non-pending,
// which the `plan` node uses as the `done` tie-break condition.
func (cd *CaseDetails) AllObjectivesResolved() bool {
	for _, o := range cd.Objectives {
		if o.Status == ObjectivePending {
			return false
		}
	}
	return true
}

// NextDraftRevision returns max(existing revisions for name) + 1, the
// monotonic per-draft_name revision rule.
func (cd *CaseDetails) NextDraftRevision(name string) int {
	max := 0
	for _, d := range cd.Drafts {
		if d.Name == name && d.Revision > max {
			max = d.Revision
		}
	}
	return max + 1
}
