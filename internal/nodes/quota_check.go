package nodes

import (
	"context"

	"github.com/lexorch/agent/pkg/models"
)

// NewQuotaCheckNode calls check_quota and either moves the case to active
// and continues to plan, or parks it in payment_pending and suspends
// awaiting the billing webhook's resume event.
func NewQuotaCheckNode(deps *Deps) Node {
	return func(ctx context.Context, in *Inputs) (*NodeResult, error) {
		result, err := callTool(ctx, deps, "check_quota", map[string]any{
			"owner_id": in.Case.Owner.ID,
			"tier":     int(in.Case.Tier),
		})
		if err != nil {
			return Error(models.ErrTransientBackend, "quota-check: "+err.Error()), nil
		}
		if !result.OK {
			return Error(result.ErrKind, "quota-check: "+result.Message), nil
		}

		var out struct {
			HasQuota bool `json:"has_quota"`
		}
		if err := result.Decode(&out); err != nil {
			return Error(models.ErrPermanentBackend, "quota-check: decode result: "+err.Error()), nil
		}

		if out.HasQuota {
			if models.CanTransition(in.Case.Status, models.StatusActive) {
				in.Case.Status = models.StatusActive
				if err := deps.Adapter.SaveCase(ctx, in.Case); err != nil {
					return Error(models.ErrTransientBackend, "quota-check: save case: "+err.Error()), nil
				}
			}
			return Continue("plan", nil), nil
		}

		if models.CanTransition(in.Case.Status, models.StatusPaymentPending) {
			in.Case.Status = models.StatusPaymentPending
			if err := deps.Adapter.SaveCase(ctx, in.Case); err != nil {
				return Error(models.ErrTransientBackend, "quota-check: save case: "+err.Error()), nil
			}
		}
		return SuspendAt("awaiting_payment", in.Case.CaseID, "payment-wait"), nil
	}
}
