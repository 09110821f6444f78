package handler

import (
	"context"
	"errors"
	"testing"

	"github.com/lexorch/agent/internal/casestore"
	"github.com/lexorch/agent/internal/nodes"
	"github.com/lexorch/agent/internal/orchestrator"
	"github.com/lexorch/agent/pkg/models"
)

// fakeStore is a minimal in-memory casestore.Store, grounded on the same
// teacher in-memory test-double pattern as internal/nodes/nodes_test.go's
// fakeStore.
type fakeStore struct {
	cases   map[string]*models.Case
	details map[string]*models.CaseDetails
	state   map[string]*models.ProcessingState
}

func newFakeStore(c *models.Case) *fakeStore {
	return &fakeStore{
		cases:   map[string]*models.Case{c.CaseID: c},
		details: map[string]*models.CaseDetails{},
		state:   map[string]*models.ProcessingState{},
	}
}

func (s *fakeStore) LoadCase(ctx context.Context, caseID string) (*models.Case, error) {
	c, ok := s.cases[caseID]
	if !ok {
		return nil, errors.New("fakeStore: no such case")
	}
	return c, nil
}

func (s *fakeStore) LoadDetails(ctx context.Context, caseID string) (*models.CaseDetails, error) {
	if d, ok := s.details[caseID]; ok {
		return d, nil
	}
	return models.NewCaseDetails(), nil
}

func (s *fakeStore) SaveDetails(ctx context.Context, caseID string, details *models.CaseDetails) error {
	s.details[caseID] = details
	return nil
}

func (s *fakeStore) LoadProcessingState(ctx context.Context, caseID string) (*models.ProcessingState, error) {
	return s.state[caseID], nil
}

func (s *fakeStore) SaveProcessingState(ctx context.Context, caseID string, state *models.ProcessingState) error {
	s.state[caseID] = state
	return nil
}

func (s *fakeStore) ClearProcessingState(ctx context.Context, caseID string) error {
	delete(s.state, caseID)
	return nil
}

func (s *fakeStore) SaveCase(ctx context.Context, c *models.Case) error {
	s.cases[c.CaseID] = c
	return nil
}

var _ casestore.Store = (*fakeStore)(nil)

// fakeTickets scripts ticketOpener.
type fakeTickets struct {
	ticketID string
	err      error
	opened   bool
}

func (f *fakeTickets) OpenTicket(ctx context.Context, summary, body string) (string, error) {
	f.opened = true
	if f.err != nil {
		return "", f.err
	}
	return f.ticketID, nil
}

func newOrchestrator(node nodes.Node) *orchestrator.Orchestrator {
	registry := nodes.NewRegistry()
	registry.Register("plan", node)
	return orchestrator.New(registry, orchestrator.DefaultConfig())
}

func TestHandle_UnauthorizedEndUser(t *testing.T) {
	c := &models.Case{CaseID: "case-1", Status: models.StatusActive, Owner: models.Owner{ID: "owner-1"}}
	store := newFakeStore(c)
	adapter := casestore.NewAdapter(store)
	h := New(adapter, casestore.NewLock(0), newOrchestrator(nil), nil, nil)

	_, err := h.Handle(context.Background(), "case-1", "someone-else", Event{Kind: "user_message", Text: "salut"})
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("err = %v, want ErrUnauthorized", err)
	}
}

func TestHandle_LockBusyReturnsErrBusy(t *testing.T) {
	c := &models.Case{CaseID: "case-1", Status: models.StatusActive, Owner: models.Owner{ID: "owner-1"}}
	store := newFakeStore(c)
	adapter := casestore.NewAdapter(store)
	lock := casestore.NewLock(0)
	release, err := lock.TryAcquire(context.Background(), "case-1", "another-invocation")
	if err != nil {
		t.Fatalf("TryAcquire: unexpected error %v", err)
	}
	defer release()

	h := New(adapter, lock, newOrchestrator(nil), nil, nil)
	_, err = h.Handle(context.Background(), "case-1", "owner-1", Event{Kind: "user_message", Text: "salut"})
	if !errors.Is(err, ErrBusy) {
		t.Fatalf("err = %v, want ErrBusy", err)
	}
}

func TestHandle_SuccessfulReplyClearsProcessingState(t *testing.T) {
	c := &models.Case{CaseID: "case-1", Status: models.StatusActive, Owner: models.Owner{ID: "owner-1"}}
	store := newFakeStore(c)
	store.state["case-1"] = &models.ProcessingState{LastCompletedNode: "plan"}
	adapter := casestore.NewAdapter(store)

	node := func(ctx context.Context, in *nodes.Inputs) (*nodes.NodeResult, error) {
		return nodes.Reply("gata", map[string]any{"k": "v"}), nil
	}
	h := New(adapter, casestore.NewLock(0), newOrchestrator(node), nil, nil)

	resp, err := h.Handle(context.Background(), "case-1", "owner-1", Event{Kind: "user_message", Text: "salut"})
	if err != nil {
		t.Fatalf("Handle: unexpected error %v", err)
	}
	if resp.Status != "success" || resp.Message != "gata" {
		t.Fatalf("resp = %+v, want success/gata", resp)
	}
	if _, ok := store.state["case-1"]; ok {
		t.Error("processing state should have been cleared after a terminal reply")
	}
}

func TestHandle_SuspendPersistsProcessingState(t *testing.T) {
	c := &models.Case{CaseID: "case-1", Status: models.StatusActive, Owner: models.Owner{ID: "owner-1"}}
	store := newFakeStore(c)
	adapter := casestore.NewAdapter(store)

	node := func(ctx context.Context, in *nodes.Inputs) (*nodes.NodeResult, error) {
		return nodes.Suspend("awaiting_payment", "case-1"), nil
	}
	h := New(adapter, casestore.NewLock(0), newOrchestrator(node), nil, nil)

	resp, err := h.Handle(context.Background(), "case-1", "owner-1", Event{Kind: "user_message", Text: "salut"})
	if err != nil {
		t.Fatalf("Handle: unexpected error %v", err)
	}
	if resp.Status != "suspended" {
		t.Fatalf("resp = %+v, want status=suspended", resp)
	}
	if store.state["case-1"] == nil || store.state["case-1"].PendingAction.Node != "plan" {
		t.Errorf("state = %+v, want a checkpoint at plan", store.state["case-1"])
	}
}

// TestHandle_LoopBudgetLadderExhaustionStillRepliesSuccessfully exercises the
// same "too many steps" terminal Reply the orchestrator package tests cover
// directly (TestRun_LoopBudgetRoutesToHandleErrorThenLadderExhausts), but
// through the handler's full Handle path: a persistently failing node must
// still resolve to a user-visible Reply, not an escalation, since the
// orchestrator's own Run loop absorbs Error results internally and only ever
// returns Reply or Suspend to its caller.
func TestHandle_LoopBudgetLadderExhaustionStillRepliesSuccessfully(t *testing.T) {
	c := &models.Case{CaseID: "case-1", Status: models.StatusActive, Owner: models.Owner{ID: "owner-1"}}
	store := newFakeStore(c)
	adapter := casestore.NewAdapter(store)

	node := func(ctx context.Context, in *nodes.Inputs) (*nodes.NodeResult, error) {
		return nodes.Error(models.ErrTransientBackend, "boom"), nil
	}
	registry := nodes.NewRegistry()
	registry.Register("plan", node)
	registry.Register("handle-error", node)
	orch := orchestrator.New(registry, orchestrator.Config{MaxNodesPerRequest: 3, DeadlineSlackSeconds: 20})

	tickets := &fakeTickets{ticketID: "TCK-1"}
	h := New(adapter, casestore.NewLock(0), orch, tickets, nil)

	resp, err := h.Handle(context.Background(), "case-1", "owner-1", Event{Kind: "user_message", Text: "salut"})
	if err != nil {
		t.Fatalf("Handle: unexpected error %v", err)
	}
	if resp.Status != "success" {
		t.Fatalf("resp = %+v, want status=success (ladder-exhaustion Reply)", resp)
	}
	if tickets.opened {
		t.Error("ladder exhaustion is a Reply, not an escalation: no ticket should be opened")
	}
}
