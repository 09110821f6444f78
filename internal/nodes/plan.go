package nodes

import (
	"context"

	"github.com/lexorch/agent/pkg/models"
)

const planSystemPrompt = `Ești un asistent juridic care planifică următorul pas într-un caz aflat în lucru.
Acțiuni posibile: ask_user, research, consult_reasoner, draft, update_only, done.
Alege una sau mai multe acțiuni recomandate, în ordinea preferinței tale, și completează materialele necesare pentru fiecare.
"done" este valid doar dacă toate obiectivele cazului sunt rezolvate (nu "pending").
Răspunde STRICT cu JSON:
{
  "actions": [string],
  "ask_user_question": string,
  "research": {"source": "legislation"|"jurisprudence", "keywords": [string], "mode": "summaries"|"full_text"},
  "consult_reasoner_question": string,
  "draft_name": string,
  "draft_markdown": string,
  "updates": [{"path": string, "value": any, "replace": bool}],
  "final_summary": string
}`

// planActionPriority is the tie-break order of spec.md §4.4: ask_user
// highest priority when information gaps exist, done only as a last resort.
var planActionPriority = []string{"ask_user", "research", "consult_reasoner", "draft", "update_only", "done"}

type planOutput struct {
	Actions []string `json:"actions"`

	AskUserQuestion string `json:"ask_user_question"`

	Research struct {
		Source   string   `json:"source"`
		Keywords []string `json:"keywords"`
		Mode     string   `json:"mode"`
	} `json:"research"`

	ConsultReasonerQuestion string `json:"consult_reasoner_question"`

	DraftName     string `json:"draft_name"`
	DraftMarkdown string `json:"draft_markdown"`

	Updates []planUpdate `json:"updates"`

	FinalSummary string `json:"final_summary"`
}

type planUpdate struct {
	Path    string `json:"path"`
	Value   any    `json:"value"`
	Replace bool   `json:"replace"`
}

// NewPlanNode asks the Assistant for the next action(s) and resolves ties
// per spec.md §4.4's fixed priority order, forcing a prune consult_reasoner
// pass first when the considered-research backlog is over threshold.
func NewPlanNode(deps *Deps) Node {
	return func(ctx context.Context, in *Inputs) (*NodeResult, error) {
		digest, overflow := contextDigest(in.Details, deps.Config.AssistantContextBudgetBytes)
		if overflow {
			return Error(models.ErrInvalidInput, "plan: context digest exceeds assistant_context_budget_bytes"), nil
		}

		partyValues, err := attachedPartyValues(ctx, deps, in.Case)
		if err != nil {
			return Error(models.ErrTransientBackend, "plan: "+err.Error()), nil
		}

		var out planOutput
		if err := askAssistantJSON(ctx, deps.Assistant, planSystemPrompt, digest, partyValues, &out); err != nil {
			return Error(models.ErrTransientBackend, "plan: "+err.Error()), nil
		}

		chosen := choosePlanAction(out.Actions, in.Details.AllObjectivesResolved())

		switch chosen {
		case "ask_user":
			return Continue("ask-user", map[string]any{"question": out.AskUserQuestion}), nil

		case "research":
			researchArgs := map[string]any{
				"source":   out.Research.Source,
				"keywords": out.Research.Keywords,
				"mode":     out.Research.Mode,
			}
			if in.Details.LegalResearch.ConsideredCount() >= deps.Config.ConsiderationPruneThreshold {
				return Continue("consult-reasoner", map[string]any{
					"purpose":    "prune",
					"question":   "Dintre rezultatele de cercetare considerate până acum, care trebuie promovate la 'aplicat' sau 'irelevant'?",
					"then":       "research",
					"then_args":  researchArgs,
				}), nil
			}
			return Continue("research", researchArgs), nil

		case "consult_reasoner":
			return Continue("consult-reasoner", map[string]any{
				"purpose":  "strategy",
				"question": out.ConsultReasonerQuestion,
			}), nil

		case "draft":
			return Continue("draft", map[string]any{
				"draft_name": out.DraftName,
				"markdown":   out.DraftMarkdown,
			}), nil

		case "update_only":
			return Continue("update-context", map[string]any{"updates": toUpdateMaps(out.Updates)}), nil

		case "done":
			return Reply(out.FinalSummary, nil), nil

		default:
			// No recognized action: treat as idle rather than looping forever.
			return Suspend("idle", in.Case.CaseID), nil
		}
	}
}

// choosePlanAction applies the fixed tie-break order, excluding "done" when
// objectives remain pending.
func choosePlanAction(suggested []string, allResolved bool) string {
	set := make(map[string]bool, len(suggested))
	for _, a := range suggested {
		set[a] = true
	}
	for _, candidate := range planActionPriority {
		if candidate == "done" && !allResolved {
			continue
		}
		if set[candidate] {
			return candidate
		}
	}
	return ""
}

func toUpdateMaps(updates []planUpdate) []map[string]any {
	out := make([]map[string]any, len(updates))
	for i, u := range updates {
		out[i] = map[string]any{"path": u.Path, "value": u.Value, "replace": u.Replace}
	}
	return out
}
