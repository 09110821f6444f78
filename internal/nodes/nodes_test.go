package nodes

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/lexorch/agent/internal/casestore"
	"github.com/lexorch/agent/internal/llm"
	"github.com/lexorch/agent/pkg/models"
)

// fakeStore is an in-memory casestore.Store for node/adapter tests, grounded
// on the teacher's in-memory test doubles for its storage interfaces
// (internal/storage/memory.go).
type fakeStore struct {
	mu      sync.Mutex
	cases   map[string]*models.Case
	details map[string]*models.CaseDetails
	state   map[string]*models.ProcessingState
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		cases:   map[string]*models.Case{},
		details: map[string]*models.CaseDetails{},
		state:   map[string]*models.ProcessingState{},
	}
}

func (s *fakeStore) LoadCase(ctx context.Context, caseID string) (*models.Case, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.cases[caseID]
	if !ok {
		return nil, errors.New("fakeStore: no such case")
	}
	copied := *c
	return &copied, nil
}

func (s *fakeStore) LoadDetails(ctx context.Context, caseID string) (*models.CaseDetails, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.details[caseID]
	if !ok {
		return models.NewCaseDetails(), nil
	}
	return d, nil
}

func (s *fakeStore) SaveDetails(ctx context.Context, caseID string, details *models.CaseDetails) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.details[caseID] = details
	return nil
}

func (s *fakeStore) LoadProcessingState(ctx context.Context, caseID string) (*models.ProcessingState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state[caseID], nil
}

func (s *fakeStore) SaveProcessingState(ctx context.Context, caseID string, state *models.ProcessingState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state[caseID] = state
	return nil
}

func (s *fakeStore) ClearProcessingState(ctx context.Context, caseID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.state, caseID)
	return nil
}

func (s *fakeStore) SaveCase(ctx context.Context, c *models.Case) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *c
	s.cases[c.CaseID] = &copied
	return nil
}

var _ casestore.Store = (*fakeStore)(nil)

// fakeAssistant is a scripted llm.Client: each call returns the next queued
// response, or fails with the queued error.
type fakeAssistant struct {
	mu        sync.Mutex
	responses []string
	err       error
	calls     int
}

func (f *fakeAssistant) Generate(ctx context.Context, req *llm.GenerateRequest) (*llm.GenerateResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	if f.calls >= len(f.responses) {
		return nil, errors.New("fakeAssistant: no more scripted responses")
	}
	text := f.responses[f.calls]
	f.calls++
	return &llm.GenerateResponse{Text: text}, nil
}

func (f *fakeAssistant) Name() string { return "fake-assistant" }

var _ llm.Client = (*fakeAssistant)(nil)

func newCase(caseID string, status models.CaseStatus, tier models.Tier) *models.Case {
	return &models.Case{
		CaseID: caseID,
		Owner:  models.Owner{ID: "owner-1", Kind: models.OwnerIndividual, PreferredLanguage: "ro"},
		Status: status,
		Tier:   tier,
	}
}

var errServiceUnavailable = errors.New("fake: upstream unavailable")

func mustJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return string(data)
}
