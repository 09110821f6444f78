package nodes

import (
	"context"
	"strconv"
	"time"

	"github.com/lexorch/agent/internal/casestore"
	"github.com/lexorch/agent/internal/piiguard"
	"github.com/lexorch/agent/pkg/models"
)

// NewDraftNode runs a pre-submission PII scan over the plan-authored
// markdown (the placeholder-substitution tool call is the only path
// permitted to touch real party data), calls generate_draft, appends the
// resulting revision, and notifies the user.
func NewDraftNode(deps *Deps) Node {
	return func(ctx context.Context, in *Inputs) (*NodeResult, error) {
		draftName := in.StringIn("draft_name")
		markdown := in.StringIn("markdown")

		if findings := piiguard.ScanDraftText(markdown); len(findings) > 0 {
			return Error(models.ErrPIIViolation, "draft: markdown contains pii-shaped content outside of a placeholder"), nil
		}

		result, err := callTool(ctx, deps, "generate_draft", map[string]any{
			"case_id":    in.Case.CaseID,
			"draft_name": draftName,
			"markdown":   markdown,
		})
		if err != nil {
			return Error(models.ErrTransientBackend, "draft: "+err.Error()), nil
		}
		if !result.OK {
			return Error(result.ErrKind, "draft: "+result.Message), nil
		}

		var out struct {
			ObjectPath string `json:"object_path"`
			DraftID    string `json:"draft_id"`
			Revision   int    `json:"revision"`
			URL        string `json:"url"`
		}
		if err := result.Decode(&out); err != nil {
			return Error(models.ErrPermanentBackend, "draft: decode result: "+err.Error()), nil
		}

		updates := []casestore.Update{{
			Path: "drafts",
			Value: []map[string]any{{
				"draft_id":          out.DraftID,
				"name":              draftName,
				"revision":          out.Revision,
				"object_store_path": out.ObjectPath,
				"generated_at":      time.Now(),
				"status":            models.DraftStatusGenerated,
			}},
		}}
		if err := deps.Adapter.ApplyUpdates(ctx, in.Case.CaseID, updates, "draft generated: "+draftName); err != nil {
			return Error(models.ErrTransientBackend, "draft: "+err.Error()), nil
		}

		return Reply("Am pregătit documentul \""+draftName+"\" (revizia "+strconv.Itoa(out.Revision)+"). Îl găsiți aici: "+out.URL, map[string]any{
			"draft_id": out.DraftID,
		}), nil
	}
}
