package nodes

import (
	"context"
	"errors"
	"testing"

	"github.com/lexorch/agent/internal/casestore"
	"github.com/lexorch/agent/internal/tools"
	"github.com/lexorch/agent/pkg/models"
)

// fakeBilling scripts tools.BillingClient for quota-check tests.
type fakeBilling struct {
	hasQuota bool
	err      error
}

func (f *fakeBilling) CheckQuota(ctx context.Context, ownerID string, tier models.Tier) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	return f.hasQuota, nil
}

func newTestExecutor(billing tools.BillingClient) *tools.Executor {
	registry := tools.NewRegistry()
	registry.Register(tools.NewCheckQuotaTool(billing))
	return tools.NewExecutor(registry, tools.DefaultExecutorConfig())
}

func TestQuotaCheckNode_HasQuota_TransitionsActive(t *testing.T) {
	store := newFakeStore()
	c := newCase("case-1", models.StatusTierPending, models.Tier1)
	store.cases[c.CaseID] = c
	adapter := casestore.NewAdapter(store)

	deps := &Deps{Tools: newTestExecutor(&fakeBilling{hasQuota: true}), Adapter: adapter, Config: DefaultConfig()}
	node := NewQuotaCheckNode(deps)

	result, err := node(context.Background(), &Inputs{Case: c})
	if err != nil {
		t.Fatalf("node: unexpected error %v", err)
	}
	if result.Kind != KindContinue || result.NextNode != "plan" {
		t.Fatalf("result = %+v, want Continue(plan)", result)
	}
	if c.Status != models.StatusActive {
		t.Errorf("case.Status = %v, want StatusActive", c.Status)
	}
}

func TestQuotaCheckNode_NoQuota_SuspendsAwaitingPayment(t *testing.T) {
	store := newFakeStore()
	c := newCase("case-2", models.StatusTierPending, models.Tier2)
	store.cases[c.CaseID] = c
	adapter := casestore.NewAdapter(store)

	deps := &Deps{Tools: newTestExecutor(&fakeBilling{hasQuota: false}), Adapter: adapter, Config: DefaultConfig()}
	node := NewQuotaCheckNode(deps)

	result, err := node(context.Background(), &Inputs{Case: c})
	if err != nil {
		t.Fatalf("node: unexpected error %v", err)
	}
	if result.Kind != KindSuspend || result.Reason != "awaiting_payment" {
		t.Fatalf("result = %+v, want Suspend(awaiting_payment)", result)
	}
	if result.ResumeNode != "payment-wait" {
		t.Errorf("result.ResumeNode = %q, want payment-wait so the checkpoint resumes there instead of quota-check", result.ResumeNode)
	}
	if c.Status != models.StatusPaymentPending {
		t.Errorf("case.Status = %v, want StatusPaymentPending", c.Status)
	}
}

func TestQuotaCheckNode_BillingFailure_RetriesThenErrors(t *testing.T) {
	store := newFakeStore()
	c := newCase("case-3", models.StatusTierPending, models.Tier1)
	store.cases[c.CaseID] = c
	adapter := casestore.NewAdapter(store)

	deps := &Deps{
		Tools:   newTestExecutor(&fakeBilling{err: errors.New("db unreachable")}),
		Adapter: adapter,
		Config:  DefaultConfig(),
	}
	node := NewQuotaCheckNode(deps)

	result, err := node(context.Background(), &Inputs{Case: c})
	if err != nil {
		t.Fatalf("node: unexpected error %v", err)
	}
	if result.Kind != KindError || result.ErrKind != models.ErrTransientBackend {
		t.Fatalf("result = %+v, want transient_backend Error", result)
	}
}
