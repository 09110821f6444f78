package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/lexorch/agent/internal/ratelimit"
	"github.com/lexorch/agent/pkg/models"
)

// ResearchQueryTool is rate-limited per case (see internal/ratelimit) and
// never mutates case context by itself — the research node writes results
// under legal_research.* through casestore.Adapter.ApplyUpdates.
type ResearchQueryTool struct {
	kb           KnowledgeBase
	summaryLimit int
	limiter      *ratelimit.Limiter
}

// NewResearchQueryTool wires summaryLimit as the per-query record cap and a
// per-case token bucket so a single runaway case cannot starve the
// knowledge base collaborator. summaryLimit is the effective,
// already-defaulted value from config: 0 is a deliberate, distinct setting
// meaning research must never call the knowledge base (see Execute), not an
// "unset, use the default" signal — that distinction is resolved upstream
// in internal/config.
func NewResearchQueryTool(kb KnowledgeBase, summaryLimit int) *ResearchQueryTool {
	return &ResearchQueryTool{
		kb:           kb,
		summaryLimit: summaryLimit,
		limiter:      ratelimit.NewLimiter(ratelimit.Config{RequestsPerSecond: 1, BurstSize: 5, Enabled: true}),
	}
}

func (t *ResearchQueryTool) Name() string { return "research_query" }

func (t *ResearchQueryTool) Descriptor() models.ToolDescriptor {
	return models.ToolDescriptor{
		Name: "research_query",
		ParameterSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"source": {"type": "string", "enum": ["legislation", "jurisprudence"]},
				"keywords": {"type": "array", "items": {"type": "string"}, "description": "termeni de căutare în limba română"},
				"mode": {"type": "string", "enum": ["summaries", "full_text"]},
				"doc_ids": {"type": "array", "items": {"type": "string"}, "description": "opțional, pentru recuperarea textului integral al unor documente deja identificate"}
			},
			"required": ["source", "keywords", "mode"]
		}`),
		ErrorTaxonomy: []models.ErrorKind{models.ErrTransientBackend, models.ErrInvalidInput},
		PIICapable:    false,
		Idempotent:    true,
	}
}

type researchQueryInput struct {
	Source   models.ResearchSource `json:"source"`
	Keywords []string              `json:"keywords"`
	Mode     string                `json:"mode"`
	DocIDs   []string              `json:"doc_ids"`
}

func (t *ResearchQueryTool) Execute(ctx context.Context, input json.RawMessage) models.ToolResult {
	if t.summaryLimit == 0 {
		return models.Failure(models.ErrInvalidInput, "research_summary_limit is 0: research is disabled for this deployment", false)
	}

	var in researchQueryInput
	if err := json.Unmarshal(input, &in); err != nil {
		return models.Failure(models.ErrInvalidInput, "invalid research_query input: "+err.Error(), false)
	}
	if in.Source != models.SourceLegislation && in.Source != models.SourceJurisprudence {
		return models.Failure(models.ErrInvalidInput, "source must be legislation or jurisprudence", false)
	}

	limitKey := "global"
	if caseID, ok := CaseIDFromContext(ctx); ok {
		limitKey = caseID
	}
	if !t.limiter.Allow(limitKey) {
		return models.Failure(models.ErrQuotaExceeded, "research_query rate limit exceeded for this case, retry shortly", true)
	}

	records, err := t.kb.Query(ctx, in.Source, in.Keywords, in.Mode, in.DocIDs, t.summaryLimit)
	if err != nil {
		return models.Failure(models.ErrTransientBackend, fmt.Sprintf("knowledge base query failed: %v", err), true)
	}

	return models.Success(struct {
		Records []models.ResearchRecord `json:"records"`
	}{Records: records})
}
