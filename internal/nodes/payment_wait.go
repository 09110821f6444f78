package nodes

import (
	"context"

	"github.com/lexorch/agent/pkg/models"
)

// NewPaymentWaitNode is entered only via a resume(reason=payment_completed)
// event from the billing webhook. It is not reachable from a fresh user
// message while status is payment_pending — the route_by_status rule
// replies with a payment reminder in that case instead (see orchestrator).
func NewPaymentWaitNode(deps *Deps) Node {
	return func(ctx context.Context, in *Inputs) (*NodeResult, error) {
		if models.CanTransition(in.Case.Status, models.StatusActive) {
			in.Case.Status = models.StatusActive
			if err := deps.Adapter.SaveCase(ctx, in.Case); err != nil {
				return Error(models.ErrTransientBackend, "payment-wait: save case: "+err.Error()), nil
			}
		}
		if err := deps.Adapter.ApplyUpdates(ctx, in.Case.CaseID, nil, "payment confirmed, case activated"); err != nil {
			return Error(models.ErrTransientBackend, "payment-wait: journal: "+err.Error()), nil
		}
		return Continue("plan", nil), nil
	}
}
