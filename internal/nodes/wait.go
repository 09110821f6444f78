package nodes

import "context"

// NewWaitNode is an idempotent no-op: it always yields the same Suspend,
// used when the orchestrator has nothing actionable to do this turn (e.g.
// a resume event arrives for a case with no outstanding request).
func NewWaitNode(deps *Deps) Node {
	return func(ctx context.Context, in *Inputs) (*NodeResult, error) {
		return Suspend("idle", in.Case.CaseID), nil
	}
}
