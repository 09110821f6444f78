package nodes

import (
	"context"
	"time"

	"github.com/lexorch/agent/internal/casestore"
	"github.com/lexorch/agent/pkg/models"
)

// NewConsultReasonerNode synthesizes a bounded context digest and a specific
// question, consults the Reasoner, appends the answer to internal_notes,
// and hands control to whichever node the caller asked to resume at (the
// "then"/"then_args" inputs), defaulting back to plan.
func NewConsultReasonerNode(deps *Deps) Node {
	return func(ctx context.Context, in *Inputs) (*NodeResult, error) {
		question := in.StringIn("question")
		if question == "" {
			question = "Ce recomanzi ca pas următor pentru acest caz?"
		}
		digest, overflow := contextDigest(in.Details, deps.Config.AssistantContextBudgetBytes)
		if overflow {
			return Error(models.ErrInvalidInput, "consult-reasoner: context digest exceeds assistant_context_budget_bytes"), nil
		}

		partyIDs := make([]string, len(in.Case.AttachedParties))
		for i, p := range in.Case.AttachedParties {
			partyIDs[i] = p.PartyID
		}

		result, err := callTool(ctx, deps, "consult_reasoner", map[string]any{
			"case_id":   in.Case.CaseID,
			"context":   digest,
			"question":  question,
			"party_ids": partyIDs,
		})
		if err != nil {
			return Error(models.ErrTransientBackend, "consult-reasoner: "+err.Error()), nil
		}
		if !result.OK {
			return Error(result.ErrKind, "consult-reasoner: "+result.Message), nil
		}

		var out struct {
			Response string `json:"response"`
		}
		if err := result.Decode(&out); err != nil {
			return Error(models.ErrPermanentBackend, "consult-reasoner: decode result: "+err.Error()), nil
		}

		updates := []casestore.Update{{
			Path: "internal_notes",
			Value: []map[string]any{{
				"timestamp": time.Now(),
				"author":    "reasoner",
				"note":      out.Response,
			}},
		}}
		if err := deps.Adapter.ApplyUpdates(ctx, in.Case.CaseID, updates, "consult-reasoner: "+question); err != nil {
			return Error(models.ErrTransientBackend, "consult-reasoner: "+err.Error()), nil
		}

		next := in.StringIn("then")
		if next == "" {
			next = "plan"
		}
		thenArgs, _ := in.In["then_args"].(map[string]any)
		return Continue(next, thenArgs), nil
	}
}
