package nodes

import (
	"context"

	"github.com/lexorch/agent/pkg/models"
)

// errorLadderState tracks one failing node's progress through the
// escalation ladder for the lifetime of a single orchestrator run. It lives
// in Inputs.Scratchpad, keyed by the failing node's name, so a second,
// unrelated node failure starts its own ladder from the top.
type errorLadderState struct {
	Attempts int
	Stage    int // 0=retrying, 1=consulted reasoner, 2=asked user, 3=ticket opened
}

// NewHandleErrorNode implements the four-rung escalation ladder of
// spec.md §7: retry the failing node (up to RetryAttemptsTransient-1
// additional attempts) for transient/timeout failures, then consult the
// reasoner for an alternative, then ask the user in plain terms, then open
// a support ticket and pause the case. The orchestrator is expected to
// route every Error NodeResult here with
// In = {"failed_node", "err_kind", "detail", "failed_inputs"}.
func NewHandleErrorNode(deps *Deps) Node {
	return func(ctx context.Context, in *Inputs) (*NodeResult, error) {
		failedNode := in.StringIn("failed_node")
		kind := models.ErrorKind(in.StringIn("err_kind"))
		detail := in.StringIn("detail")
		failedInputs, _ := in.In["failed_inputs"].(map[string]any)

		// PII violations and validation errors skip the ladder entirely and
		// are reported immediately: retrying, consulting the reasoner, or
		// opening a ticket would re-issue or persist the same bad prompt.
		if kind == models.ErrPIIViolation || kind == models.ErrInvalidInput {
			return Reply("Ne pare rău, solicitarea dumneavoastră nu a putut fi procesată din cauza unor date invalide. Vă rugăm reformulați solicitarea.", nil), nil
		}

		stateKey := "handle_error:" + failedNode
		state := loadLadderState(in.Scratchpad, stateKey)

		if kind.Retriable() && state.Attempts < deps.Config.RetryAttemptsTransient-1 {
			state.Attempts++
			in.Scratchpad[stateKey] = state
			return Continue(failedNode, failedInputs), nil
		}

		if state.Stage < 1 {
			state.Stage = 1
			in.Scratchpad[stateKey] = state
			return Continue("consult-reasoner", map[string]any{
				"purpose":  "error_recovery",
				"question": "Nodul \"" + failedNode + "\" a eșuat repetat cu eroarea: " + detail + ". Ce alternativă recomanzi?",
				"then":     "handle-error",
				"then_args": map[string]any{
					"failed_node":   failedNode,
					"err_kind":      string(kind),
					"detail":        detail,
					"failed_inputs": failedInputs,
				},
			}), nil
		}

		if state.Stage < 2 {
			state.Stage = 2
			in.Scratchpad[stateKey] = state
			return Continue("ask-user", map[string]any{
				"question": "Întâmpinăm o dificultate tehnică la procesarea acestui pas. Puteți reformula ultima solicitare sau oferi informații suplimentare?",
			}), nil
		}

		// Best-effort snapshot for the support ticket: unlike the LLM-prompt
		// callers, a budget overflow here must not block opening the ticket,
		// so the (possibly over-budget) digest is used regardless.
		snapshot, _ := contextDigest(in.Details, deps.Config.AssistantContextBudgetBytes)
		result, err := callTool(ctx, deps, "open_support_ticket", map[string]any{
			"case_id":        in.Case.CaseID,
			"description":    "Eșec repetat la nodul " + failedNode + ": " + detail,
			"state_snapshot": snapshot,
		})
		if err != nil || !result.OK {
			// The escalation path itself failed: nothing left to try but a
			// generic apology, no ticket id available.
			return Reply("Ne pare rău, am întâmpinat o problemă tehnică și nu am putut finaliza solicitarea. Echipa de suport a fost notificată.", nil), nil
		}

		var out struct {
			TicketID string `json:"ticket_id"`
		}
		_ = result.Decode(&out)

		return Reply("Ne pare rău, am întâmpinat o problemă tehnică și am deschis un tichet de suport ("+out.TicketID+"). Cineva din echipă va reveni în cel mai scurt timp.", map[string]any{
			"ticket_id": out.TicketID,
		}), nil
	}
}

func loadLadderState(scratchpad map[string]any, key string) errorLadderState {
	if v, ok := scratchpad[key].(errorLadderState); ok {
		return v
	}
	return errorLadderState{}
}
