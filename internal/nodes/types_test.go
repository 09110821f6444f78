package nodes

import (
	"context"
	"testing"

	"github.com/lexorch/agent/pkg/models"
)

func TestResultConstructors(t *testing.T) {
	if r := Continue("plan", map[string]any{"a": 1}); r.Kind != KindContinue || r.NextNode != "plan" {
		t.Fatalf("Continue: got %+v", r)
	}
	if r := Reply("done", nil); r.Kind != KindReply || r.Text != "done" {
		t.Fatalf("Reply: got %+v", r)
	}
	if r := Suspend("awaiting_payment", "case-1"); r.Kind != KindSuspend || r.Reason != "awaiting_payment" {
		t.Fatalf("Suspend: got %+v", r)
	}
	if r := Error(models.ErrTimeout, "boom"); r.Kind != KindError || r.ErrKind != models.ErrTimeout {
		t.Fatalf("Error: got %+v", r)
	}
}

func TestInputsStringIn(t *testing.T) {
	in := &Inputs{In: map[string]any{"user_message": "salut", "other": 5}}
	if got := in.StringIn("user_message"); got != "salut" {
		t.Errorf("StringIn(user_message) = %q, want salut", got)
	}
	if got := in.StringIn("other"); got != "" {
		t.Errorf("StringIn(other) = %q, want empty (wrong type)", got)
	}
	if got := in.StringIn("missing"); got != "" {
		t.Errorf("StringIn(missing) = %q, want empty", got)
	}
}

func TestRegistryRunUnknownNode(t *testing.T) {
	r := NewRegistry()
	result, err := r.Run(context.Background(), "no-such-node", &Inputs{})
	if err != nil {
		t.Fatalf("Run: unexpected error %v", err)
	}
	if result.Kind != KindError || result.ErrKind != models.ErrPermanentBackend {
		t.Fatalf("Run(unknown): got %+v, want permanent_backend error", result)
	}
}

func TestRegistryRegisterAndGet(t *testing.T) {
	r := NewRegistry()
	called := false
	r.Register("wait", func(ctx context.Context, in *Inputs) (*NodeResult, error) {
		called = true
		return Suspend("idle", "case-1"), nil
	})

	n, ok := r.Get("wait")
	if !ok {
		t.Fatal("Get(wait): not found")
	}
	if _, err := n(context.Background(), &Inputs{}); err != nil {
		t.Fatalf("invoke: %v", err)
	}
	if !called {
		t.Error("registered node was not invoked")
	}
}
