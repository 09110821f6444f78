package nodes

import (
	"context"

	"github.com/lexorch/agent/internal/casestore"
	"github.com/lexorch/agent/pkg/models"
)

// NewAskUserNode records the outstanding question under
// agent_interactions.active_info_request_to_user and replies with it.
func NewAskUserNode(deps *Deps) Node {
	return func(ctx context.Context, in *Inputs) (*NodeResult, error) {
		question := in.StringIn("question")
		if question == "" {
			question = "Puteți oferi mai multe detalii despre situația dumneavoastră?"
		}

		updates := []casestore.Update{
			{Path: "agent_interactions.active_info_request_to_user", Value: question, Replace: true},
		}
		if err := deps.Adapter.ApplyUpdates(ctx, in.Case.CaseID, updates, "ask-user: "+question); err != nil {
			return Error(models.ErrTransientBackend, "ask-user: "+err.Error()), nil
		}

		return Reply(question, nil), nil
	}
}
