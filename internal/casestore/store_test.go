package casestore

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/lexorch/agent/pkg/models"
)

type fakeAdapterStore struct {
	cases   map[string]*models.Case
	details map[string]*models.CaseDetails
	state   map[string]*models.ProcessingState
}

func newFakeAdapterStore() *fakeAdapterStore {
	return &fakeAdapterStore{
		cases:   map[string]*models.Case{},
		details: map[string]*models.CaseDetails{},
		state:   map[string]*models.ProcessingState{},
	}
}

func (s *fakeAdapterStore) LoadCase(ctx context.Context, caseID string) (*models.Case, error) {
	c, ok := s.cases[caseID]
	if !ok {
		return nil, errors.New("no such case")
	}
	return c, nil
}

func (s *fakeAdapterStore) LoadDetails(ctx context.Context, caseID string) (*models.CaseDetails, error) {
	d, ok := s.details[caseID]
	if !ok {
		return models.NewCaseDetails(), nil
	}
	return d, nil
}

func (s *fakeAdapterStore) SaveDetails(ctx context.Context, caseID string, details *models.CaseDetails) error {
	s.details[caseID] = details
	return nil
}

func (s *fakeAdapterStore) LoadProcessingState(ctx context.Context, caseID string) (*models.ProcessingState, error) {
	return s.state[caseID], nil
}

func (s *fakeAdapterStore) SaveProcessingState(ctx context.Context, caseID string, state *models.ProcessingState) error {
	s.state[caseID] = state
	return nil
}

func (s *fakeAdapterStore) ClearProcessingState(ctx context.Context, caseID string) error {
	delete(s.state, caseID)
	return nil
}

func (s *fakeAdapterStore) SaveCase(ctx context.Context, c *models.Case) error {
	s.cases[c.CaseID] = c
	return nil
}

var _ Store = (*fakeAdapterStore)(nil)

func TestApplyUpdates_EmptyUpdates_SkipsJournalAppend(t *testing.T) {
	store := newFakeAdapterStore()
	adapter := NewAdapter(store)
	caseID := "case-1"

	if err := adapter.ApplyUpdates(context.Background(), caseID, nil, "first no-op call"); err != nil {
		t.Fatalf("ApplyUpdates #1: %v", err)
	}
	afterFirst := store.details[caseID]
	if len(afterFirst.AgentInteractions.Log) != 0 {
		t.Fatalf("log length after first empty-update call = %d, want 0", len(afterFirst.AgentInteractions.Log))
	}

	if err := adapter.ApplyUpdates(context.Background(), caseID, nil, "second no-op call"); err != nil {
		t.Fatalf("ApplyUpdates #2: %v", err)
	}
	afterSecond := store.details[caseID]
	if len(afterSecond.AgentInteractions.Log) != 0 {
		t.Fatalf("log length after second empty-update call = %d, want 0", len(afterSecond.AgentInteractions.Log))
	}

	afterFirst.LastUpdated = afterSecond.LastUpdated
	if mustMarshalDetails(t, afterFirst) != mustMarshalDetails(t, afterSecond) {
		t.Error("two consecutive empty-update calls produced different documents beyond last_updated")
	}
}

func TestApplyUpdates_NonEmptyUpdates_AppendsJournalEntry(t *testing.T) {
	store := newFakeAdapterStore()
	adapter := NewAdapter(store)
	caseID := "case-2"

	updates := []Update{{Path: "summary.current", Value: "rezumat nou"}}
	if err := adapter.ApplyUpdates(context.Background(), caseID, updates, "plan: update_only"); err != nil {
		t.Fatalf("ApplyUpdates: %v", err)
	}

	details := store.details[caseID]
	if len(details.AgentInteractions.Log) != 1 {
		t.Fatalf("log length = %d, want 1 for a non-empty update", len(details.AgentInteractions.Log))
	}
	if details.Summary.Current != "rezumat nou" {
		t.Errorf("summary.current = %q, want rezumat nou", details.Summary.Current)
	}
}

func mustMarshalDetails(t *testing.T, details *models.CaseDetails) string {
	t.Helper()
	data, err := json.Marshal(details)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return string(data)
}
