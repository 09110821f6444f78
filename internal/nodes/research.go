package nodes

import (
	"context"
	"time"

	"github.com/lexorch/agent/internal/casestore"
	"github.com/lexorch/agent/pkg/models"
)

// NewResearchNode dispatches the query descriptor plan handed it (summaries
// mode first, per spec.md §4.4) to research_query, writes every hit into
// legal_research.* as "considered", then hands off to consult-reasoner to
// decide which doc_ids warrant full-text retrieval.
func NewResearchNode(deps *Deps) Node {
	return func(ctx context.Context, in *Inputs) (*NodeResult, error) {
		source, _ := in.In["source"].(string)
		mode, _ := in.In["mode"].(string)
		if mode == "" {
			mode = "summaries"
		}
		keywords := toStringSlice(in.In["keywords"])

		result, err := callTool(ctx, deps, "research_query", map[string]any{
			"source":   source,
			"keywords": keywords,
			"mode":     mode,
		})
		if err != nil {
			return Error(models.ErrTransientBackend, "research: "+err.Error()), nil
		}
		if !result.OK {
			return Error(result.ErrKind, "research: "+result.Message), nil
		}

		var out struct {
			Records []models.ResearchRecord `json:"records"`
		}
		if err := result.Decode(&out); err != nil {
			return Error(models.ErrPermanentBackend, "research: decode result: "+err.Error()), nil
		}

		path := "legal_research.legislation"
		if source == string(models.SourceJurisprudence) {
			path = "legal_research.jurisprudence"
		}

		now := time.Now()
		entries := make([]map[string]any, len(out.Records))
		for i, r := range out.Records {
			r.Status = models.ResearchConsidered
			r.FetchedAt = now
			entries[i] = map[string]any{
				"doc_id":     r.DocID,
				"title":      r.Title,
				"summary":    r.Summary,
				"full_text":  r.FullText,
				"relevance":  r.Relevance,
				"status":     r.Status,
				"fetched_at": r.FetchedAt,
			}
		}

		updates := []casestore.Update{{Path: path, Value: entries}}
		if err := deps.Adapter.ApplyUpdates(ctx, in.Case.CaseID, updates, "research: fetched "+mode+" for "+source); err != nil {
			return Error(models.ErrTransientBackend, "research: "+err.Error()), nil
		}

		return Continue("consult-reasoner", map[string]any{
			"purpose":  "followup",
			"question": "Dintre rezultatele de cercetare tocmai obținute, care doc_id-uri merită recuperarea textului integral?",
			"then":     "plan",
		}), nil
	}
}

func toStringSlice(v any) []string {
	raw, ok := v.([]any)
	if !ok {
		if s, ok := v.([]string); ok {
			return s
		}
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
