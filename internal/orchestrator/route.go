package orchestrator

import (
	"github.com/lexorch/agent/internal/casestore"
	"github.com/lexorch/agent/internal/nodes"
	"github.com/lexorch/agent/pkg/models"
)

// RequestEvent is the Request Handler's single entry-point input: either a
// fresh user_message or a resume event from the billing webhook
// (spec.md §4.6).
type RequestEvent struct {
	Kind string // "user_message" | "resume"

	// user_message fields.
	Text string

	// resume fields.
	ResumeReason  string
	ResumePayload map[string]any
}

// route determines the starting node for this run, following spec.md
// §4.5's entry rule. A payment_pending case is special-cased before any
// checkpointed pending_action is consulted: only a resume(payment_completed)
// event follows the checkpoint (or falls back to payment-wait directly when
// no checkpoint exists), and every other event — including one arriving
// after quota-check has already suspended — gets the immediate payment
// reminder Reply. For every other status, a checkpointed pending_action
// resumes as before; otherwise routing follows the case's macro status.
// Returns a non-nil immediate result when no node invocation is needed at
// all (e.g. the payment reminder itself).
func (o *Orchestrator) route(snapshot *casestore.Snapshot, event RequestEvent) (string, map[string]any, *nodes.NodeResult) {
	if snapshot.Case.Status == models.StatusPaymentPending {
		if event.Kind == "resume" && event.ResumeReason == "payment_completed" {
			if snapshot.ProcessingState != nil && snapshot.ProcessingState.PendingAction.Node != "" {
				return snapshot.ProcessingState.PendingAction.Node, snapshot.ProcessingState.PendingAction.Inputs, nil
			}
			return "payment-wait", event.ResumePayload, nil
		}
		return "", nil, nodes.Reply(
			"Plata pentru acest caz este încă în așteptare. Vă rugăm finalizați plata pentru a continua.",
			map[string]any{"status": string(models.StatusPaymentPending)},
		)
	}

	if snapshot.ProcessingState != nil && snapshot.ProcessingState.PendingAction.Node != "" {
		return snapshot.ProcessingState.PendingAction.Node, snapshot.ProcessingState.PendingAction.Inputs, nil
	}

	in := map[string]any{}
	if event.Kind == "user_message" {
		in["user_message"] = event.Text
	}

	switch snapshot.Case.Status {
	case models.StatusTierPending:
		return "tier-decide", in, nil

	case models.StatusActive:
		return "plan", in, nil

	default:
		// paused_support, archived, deleted: no active orchestration path.
		return "", nil, nodes.Reply(
			"Acest caz nu mai este activ în acest moment.",
			map[string]any{"status": string(snapshot.Case.Status)},
		)
	}
}
