package orchestrator

import (
	"testing"

	"github.com/lexorch/agent/internal/casestore"
	"github.com/lexorch/agent/internal/nodes"
	"github.com/lexorch/agent/pkg/models"
)

func snapshotWithStatus(status models.CaseStatus) *casestore.Snapshot {
	return &casestore.Snapshot{
		Case:    &models.Case{CaseID: "case-1", Status: status},
		Details: models.NewCaseDetails(),
	}
}

func TestRoute_ResumesPendingAction(t *testing.T) {
	o := &Orchestrator{}
	snapshot := snapshotWithStatus(models.StatusActive)
	snapshot.ProcessingState = &models.ProcessingState{
		PendingAction: models.PendingAction{Node: "draft", Inputs: map[string]any{"x": 1}},
	}

	node, in, immediate := o.route(snapshot, RequestEvent{Kind: "user_message", Text: "continua"})
	if immediate != nil {
		t.Fatalf("expected no immediate result, got %+v", immediate)
	}
	if node != "draft" {
		t.Errorf("node = %q, want draft", node)
	}
	if in["x"] != 1 {
		t.Errorf("in = %+v, want checkpointed inputs preserved", in)
	}
}

func TestRoute_TierPendingGoesToTierDecide(t *testing.T) {
	o := &Orchestrator{}
	node, in, immediate := o.route(snapshotWithStatus(models.StatusTierPending), RequestEvent{Kind: "user_message", Text: "salut"})
	if immediate != nil {
		t.Fatalf("expected no immediate result, got %+v", immediate)
	}
	if node != "tier-decide" {
		t.Errorf("node = %q, want tier-decide", node)
	}
	if in["user_message"] != "salut" {
		t.Errorf("in[user_message] = %v, want salut", in["user_message"])
	}
}

func TestRoute_PaymentPendingReminderOnNonResume(t *testing.T) {
	o := &Orchestrator{}
	_, _, immediate := o.route(snapshotWithStatus(models.StatusPaymentPending), RequestEvent{Kind: "user_message", Text: "salut"})
	if immediate == nil || immediate.Kind != nodes.KindReply {
		t.Fatalf("immediate = %+v, want a Reply reminding about pending payment", immediate)
	}
}

func TestRoute_PaymentPendingResumesOnPaymentCompleted(t *testing.T) {
	o := &Orchestrator{}
	payload := map[string]any{"tier": 2}
	node, in, immediate := o.route(snapshotWithStatus(models.StatusPaymentPending), RequestEvent{
		Kind:          "resume",
		ResumeReason:  "payment_completed",
		ResumePayload: payload,
	})
	if immediate != nil {
		t.Fatalf("expected no immediate result, got %+v", immediate)
	}
	if node != "payment-wait" {
		t.Errorf("node = %q, want payment-wait", node)
	}
	if in["tier"] != 2 {
		t.Errorf("in[tier] = %v, want 2", in["tier"])
	}
}

func TestRoute_PaymentPendingReminderEvenWithStaleCheckpoint(t *testing.T) {
	o := &Orchestrator{}
	snapshot := snapshotWithStatus(models.StatusPaymentPending)
	snapshot.ProcessingState = &models.ProcessingState{
		PendingAction: models.PendingAction{Node: "payment-wait", Inputs: map[string]any{"tier": 2}},
	}

	_, _, immediate := o.route(snapshot, RequestEvent{Kind: "user_message", Text: "salut"})
	if immediate == nil || immediate.Kind != nodes.KindReply {
		t.Fatalf("immediate = %+v, want a Reply reminding about pending payment even though a pending_action is checkpointed", immediate)
	}
}

func TestRoute_PaymentPendingResumesAtCheckpointWhenPresent(t *testing.T) {
	o := &Orchestrator{}
	snapshot := snapshotWithStatus(models.StatusPaymentPending)
	snapshot.ProcessingState = &models.ProcessingState{
		PendingAction: models.PendingAction{Node: "payment-wait", Inputs: map[string]any{"tier": 2}},
	}

	node, in, immediate := o.route(snapshot, RequestEvent{
		Kind:         "resume",
		ResumeReason: "payment_completed",
	})
	if immediate != nil {
		t.Fatalf("expected no immediate result, got %+v", immediate)
	}
	if node != "payment-wait" {
		t.Errorf("node = %q, want payment-wait from the checkpoint", node)
	}
	if in["tier"] != 2 {
		t.Errorf("in[tier] = %v, want 2", in["tier"])
	}
}

func TestRoute_ActiveGoesToPlan(t *testing.T) {
	o := &Orchestrator{}
	node, _, immediate := o.route(snapshotWithStatus(models.StatusActive), RequestEvent{Kind: "user_message", Text: "mai departe"})
	if immediate != nil {
		t.Fatalf("expected no immediate result, got %+v", immediate)
	}
	if node != "plan" {
		t.Errorf("node = %q, want plan", node)
	}
}

func TestRoute_InactiveStatusesReplyImmediately(t *testing.T) {
	for _, status := range []models.CaseStatus{models.StatusPausedSupport, models.StatusArchived, models.StatusDeleted} {
		o := &Orchestrator{}
		_, _, immediate := o.route(snapshotWithStatus(status), RequestEvent{Kind: "user_message", Text: "salut"})
		if immediate == nil || immediate.Kind != nodes.KindReply {
			t.Errorf("status %v: immediate = %+v, want a terminal Reply", status, immediate)
		}
	}
}
