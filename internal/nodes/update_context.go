package nodes

import (
	"context"

	"github.com/lexorch/agent/internal/casestore"
	"github.com/lexorch/agent/pkg/models"
)

// NewUpdateContextNode applies plan's pending updates with no other side
// effect, then returns to plan — the update_only tie-break action.
func NewUpdateContextNode(deps *Deps) Node {
	return func(ctx context.Context, in *Inputs) (*NodeResult, error) {
		raw, _ := in.In["updates"].([]map[string]any)
		updates := make([]casestore.Update, 0, len(raw))
		for _, u := range raw {
			path, _ := u["path"].(string)
			if path == "" {
				continue
			}
			replace, _ := u["replace"].(bool)
			updates = append(updates, casestore.Update{Path: path, Value: u["value"], Replace: replace})
		}

		if err := deps.Adapter.ApplyUpdates(ctx, in.Case.CaseID, updates, "plan: update_only"); err != nil {
			return Error(models.ErrTransientBackend, "update-context: "+err.Error()), nil
		}

		return Continue("plan", nil), nil
	}
}
