package nodes

import (
	"context"
	"testing"

	"github.com/lexorch/agent/internal/casestore"
	"github.com/lexorch/agent/pkg/models"
)

func TestTierDecideNode_Sufficient(t *testing.T) {
	store := newFakeStore()
	c := newCase("case-1", models.StatusTierPending, models.TierUnset)
	store.cases[c.CaseID] = c
	adapter := casestore.NewAdapter(store)

	assistant := &fakeAssistant{responses: []string{mustJSON(tierDecideOutput{
		Sufficient:    true,
		Tier:          2,
		Justification: "mai multe chestiuni implicate",
	})}}

	deps := &Deps{Assistant: assistant, Adapter: adapter, Config: DefaultConfig()}
	node := NewTierDecideNode(deps)

	result, err := node(context.Background(), &Inputs{
		Case:    c,
		Details: models.NewCaseDetails(),
		In:      map[string]any{"user_message": "am o problema complexa cu mai multi chiriasi"},
	})
	if err != nil {
		t.Fatalf("node: unexpected error %v", err)
	}
	if result.Kind != KindContinue || result.NextNode != "quota-check" {
		t.Fatalf("result = %+v, want Continue(quota-check)", result)
	}
	if c.Tier != models.Tier2 {
		t.Errorf("case.Tier = %v, want Tier2", c.Tier)
	}

	saved, _ := store.LoadCase(context.Background(), c.CaseID)
	if saved.Tier != models.Tier2 {
		t.Errorf("persisted case.Tier = %v, want Tier2", saved.Tier)
	}
}

func TestTierDecideNode_Insufficient(t *testing.T) {
	store := newFakeStore()
	c := newCase("case-2", models.StatusTierPending, models.TierUnset)
	store.cases[c.CaseID] = c
	adapter := casestore.NewAdapter(store)

	assistant := &fakeAssistant{responses: []string{mustJSON(tierDecideOutput{
		Sufficient:         false,
		ClarifyingQuestion: "Cine sunt partile implicate?",
	})}}

	deps := &Deps{Assistant: assistant, Adapter: adapter, Config: DefaultConfig()}
	node := NewTierDecideNode(deps)

	result, err := node(context.Background(), &Inputs{
		Case:    c,
		Details: models.NewCaseDetails(),
		In:      map[string]any{"user_message": "am o problema"},
	})
	if err != nil {
		t.Fatalf("node: unexpected error %v", err)
	}
	if result.Kind != KindReply {
		t.Fatalf("result.Kind = %v, want Reply", result.Kind)
	}
	if result.Text != "Cine sunt partile implicate?" {
		t.Errorf("result.Text = %q, want the clarifying question", result.Text)
	}
	if c.Tier != models.TierUnset {
		t.Errorf("case.Tier = %v, want unchanged TierUnset", c.Tier)
	}
}

func TestTierDecideNode_AssistantError(t *testing.T) {
	store := newFakeStore()
	c := newCase("case-3", models.StatusTierPending, models.TierUnset)
	store.cases[c.CaseID] = c
	adapter := casestore.NewAdapter(store)

	assistant := &fakeAssistant{err: errServiceUnavailable}
	deps := &Deps{Assistant: assistant, Adapter: adapter, Config: DefaultConfig()}
	node := NewTierDecideNode(deps)

	result, err := node(context.Background(), &Inputs{
		Case:    c,
		Details: models.NewCaseDetails(),
		In:      map[string]any{"user_message": "x"},
	})
	if err != nil {
		t.Fatalf("node: unexpected error %v", err)
	}
	if result.Kind != KindError || result.ErrKind != models.ErrTransientBackend {
		t.Fatalf("result = %+v, want transient_backend Error", result)
	}
}
