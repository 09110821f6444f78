package nodes

import (
	"context"

	"github.com/lexorch/agent/pkg/models"
)

const tierDecideSystemPrompt = `Ești un asistent juridic care evaluează complexitatea unui caz nou pe o scară de 3 niveluri:
1 = simplu (o singură chestiune, fapte clare)
2 = mediu (mai multe chestiuni sau fapte parțial neclare)
3 = complex (multiple părți, litigii potențiale, sau informații insuficiente pentru o evaluare fermă)
Răspunde STRICT cu JSON: {"sufficient": bool, "tier": int, "justification": string, "clarifying_question": string}.
Dacă descrierea este insuficientă pentru a stabili nivelul, pune "sufficient": false și formulează o singură întrebare clarificatoare în "clarifying_question".`

type tierDecideOutput struct {
	Sufficient         bool   `json:"sufficient"`
	Tier               int    `json:"tier"`
	Justification      string `json:"justification"`
	ClarifyingQuestion string `json:"clarifying_question"`
}

// NewTierDecideNode prompts the Assistant with the tier definitions and the
// user's initial description, assigning Case.Tier or asking a single
// clarifying question when the description is insufficient.
func NewTierDecideNode(deps *Deps) Node {
	return func(ctx context.Context, in *Inputs) (*NodeResult, error) {
		description := in.StringIn("user_message")
		if description == "" {
			digest, overflow := contextDigest(in.Details, deps.Config.AssistantContextBudgetBytes)
			if overflow {
				return Error(models.ErrInvalidInput, "tier-decide: context digest exceeds assistant_context_budget_bytes"), nil
			}
			description = digest
		}

		partyValues, err := attachedPartyValues(ctx, deps, in.Case)
		if err != nil {
			return Error(models.ErrTransientBackend, "tier-decide: "+err.Error()), nil
		}

		var out tierDecideOutput
		if err := askAssistantJSON(ctx, deps.Assistant, tierDecideSystemPrompt, description, partyValues, &out); err != nil {
			return Error(models.ErrTransientBackend, "tier-decide: "+err.Error()), nil
		}

		if !out.Sufficient || !models.Tier(out.Tier).Valid() {
			question := out.ClarifyingQuestion
			if question == "" {
				question = "Puteți oferi mai multe detalii despre situația dumneavoastră, pentru a putea evalua complexitatea cazului?"
			}
			return Reply(question, nil), nil
		}

		in.Case.Tier = models.Tier(out.Tier)
		if err := deps.Adapter.SaveCase(ctx, in.Case); err != nil {
			return Error(models.ErrTransientBackend, "tier-decide: save case: "+err.Error()), nil
		}

		if err := deps.Adapter.ApplyUpdates(ctx, in.Case.CaseID, nil, "tier decided: "+out.Justification); err != nil {
			return Error(models.ErrTransientBackend, "tier-decide: journal: "+err.Error()), nil
		}

		return Continue("quota-check", nil), nil
	}
}
