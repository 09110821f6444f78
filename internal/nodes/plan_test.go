package nodes

import (
	"context"
	"strings"
	"testing"

	"github.com/lexorch/agent/internal/casestore"
	"github.com/lexorch/agent/pkg/models"
)

func TestPlanNode_ContextDigestOverflow_ReturnsValidationError(t *testing.T) {
	store := newFakeStore()
	c := newCase("case-1", models.StatusActive, models.Tier1)
	store.cases[c.CaseID] = c
	adapter := casestore.NewAdapter(store)

	cfg := DefaultConfig()
	cfg.AssistantContextBudgetBytes = 10

	deps := &Deps{
		Assistant: &fakeAssistant{responses: []string{`{"actions":["done"],"final_summary":"gata"}`}},
		Adapter:   adapter,
		Config:    cfg,
	}
	node := NewPlanNode(deps)

	details := models.NewCaseDetails()
	details.Summary.Current = strings.Repeat("x", 1000)

	result, err := node(context.Background(), &Inputs{Case: c, Details: details})
	if err != nil {
		t.Fatalf("node: unexpected error %v", err)
	}
	if result.Kind != KindError || result.ErrKind != models.ErrInvalidInput {
		t.Fatalf("result = %+v, want an ErrInvalidInput Error without calling the assistant", result)
	}
}
